// Package mergemine holds the merge-mine registry (spec §4.D), the header
// combiner (§4.E), and the qualified-header queue (§4.F). All three are
// grounded on the locking and mutable-candidate-pool discipline of the
// teacher's work/worker.go (sync.Mutex-guarded maps of in-flight work,
// atomic dirty-style flags) and work/agent.go (a registered-candidate pool
// addressed by a stable key rather than a raw pointer).
package mergemine

import (
	"net"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/currency"
	"github.com/klaytn/pbaasd/log"
)

var logger = log.New("mergemine")

// BlockTemplate is a child chain's current block candidate: an opaque body
// plus the native sub-header bytes the header combiner embeds into the
// notary's proposed header.
type BlockTemplate struct {
	NBits           uint32
	NTime           uint32
	NativeSubHeader []byte
	HeaderOffset    int
	HeaderLen       int
	RawBlock        []byte
}

// Reconstruct clones the template and overwrites its header-sized window
// with solvedHeader, the block-submission step of spec §4.G step 4.
func (t *BlockTemplate) Reconstruct(solvedHeader []byte) []byte {
	out := make([]byte, len(t.RawBlock))
	copy(out, t.RawBlock)
	end := t.HeaderOffset + t.HeaderLen
	if t.HeaderOffset < 0 || end > len(out) || len(solvedHeader) != t.HeaderLen {
		return nil
	}
	copy(out[t.HeaderOffset:end], solvedHeader)
	return out
}

// Candidate is one child chain's merge-mine registration (spec §3).
type Candidate struct {
	ChainID     common.CurrencyID
	ChainName   string
	RPCEndpoint string
	Template    *BlockTemplate

	// CheckCoherence validates the template's non-PoW fields against a
	// solved header before dispatch (CheckNonCanonicalData, spec §4.G
	// step 3). The host chain's block-shape rules are out of scope here
	// (spec §1); nil accepts unconditionally.
	CheckCoherence func(tmpl *BlockTemplate, solved *SolvedHeader) bool
}

// Coherent reports whether the candidate's stored template coheres with a
// solved header, defaulting to true when no check was registered.
func (c *Candidate) Coherent(solved *SolvedHeader) bool {
	if c.CheckCoherence == nil {
		return true
	}
	return c.CheckCoherence(c.Template, solved)
}

// NewCandidate builds a Candidate for chainID/chainName, resolving its RPC
// endpoint once from def's own advertised peer nodes (GetThisChainPort)
// rather than leaving callers to pass one in directly. checkCoherence may be
// nil.
func NewCandidate(chainID common.CurrencyID, chainName string, def *currency.Definition, tmpl *BlockTemplate, checkCoherence func(tmpl *BlockTemplate, solved *SolvedHeader) bool) *Candidate {
	return &Candidate{
		ChainID:        chainID,
		ChainName:      chainName,
		RPCEndpoint:    DeriveRPCEndpoint(def),
		Template:       tmpl,
		CheckCoherence: checkCoherence,
	}
}

// DeriveRPCEndpoint resolves the RPC endpoint to reach def's chain from its
// own advertised peer nodes, the same walk GetThisChainPort performs over
// defaultPeerNodes: the first entry that parses as host:port with a nonzero
// port wins. Returns "" when def is nil or advertises nothing usable.
func DeriveRPCEndpoint(def *currency.Definition) string {
	if def == nil {
		return ""
	}
	for _, node := range def.DefaultPeerNodes {
		host, port, err := net.SplitHostPort(node)
		if err != nil || host == "" || port == "" || port == "0" {
			continue
		}
		return "http://" + net.JoinHostPort(host, port)
	}
	return ""
}

type targetEntry struct {
	target  *uint256.Int
	chainID common.CurrencyID
}

// Registry holds the merge-mine candidate pool (spec §4.D): a primary map
// keyed by chain ID and a target-ordered index over the same entries, both
// guarded by one mutex. Per the spec's own design note (§9), the secondary
// index stores the primary key as its handle rather than a pointer, so
// there is nothing to dangle across a chains-map rehash.
type Registry struct {
	mu      sync.Mutex
	chains  map[common.CurrencyID]*Candidate
	targets []targetEntry // sorted ascending by target
	dirty   bool
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[common.CurrencyID]*Candidate)}
}

// Add registers or replaces a candidate. If chain_id is already present it
// is removed first, then reinserted — this never fails (spec: "Never
// fails; AddMergedBlock always returns true").
func (r *Registry) Add(c *Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.chains[c.ChainID]; exists {
		r.removeLocked(c.ChainID)
	}
	r.chains[c.ChainID] = c
	r.insertTargetLocked(c.ChainID, c.Template.NBits)
	r.dirty = true
}

// Remove drops chain_id from both containers, reporting whether it was
// present.
func (r *Registry) Remove(chainID common.CurrencyID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(chainID)
}

func (r *Registry) removeLocked(chainID common.CurrencyID) bool {
	cand, ok := r.chains[chainID]
	if !ok {
		return false
	}
	target := CompactToTarget(cand.Template.NBits)
	if idx := r.findTargetEntryLocked(target, chainID); idx >= 0 {
		r.targets = append(r.targets[:idx], r.targets[idx+1:]...)
	}
	delete(r.chains, chainID)
	r.dirty = true
	return true
}

// insertTargetLocked keeps r.targets sorted ascending by target value.
func (r *Registry) insertTargetLocked(chainID common.CurrencyID, nBits uint32) {
	target := CompactToTarget(nBits)
	pos := sort.Search(len(r.targets), func(i int) bool {
		return r.targets[i].target.Cmp(target) >= 0
	})
	r.targets = append(r.targets, targetEntry{})
	copy(r.targets[pos+1:], r.targets[pos:])
	r.targets[pos] = targetEntry{target: target, chainID: chainID}
}

// findTargetEntryLocked walks the equal-target run and matches by chain ID,
// since multiple candidates may share a compact target (spec §4.D Remove).
func (r *Registry) findTargetEntryLocked(target *uint256.Int, chainID common.CurrencyID) int {
	lo := sort.Search(len(r.targets), func(i int) bool {
		return r.targets[i].target.Cmp(target) >= 0
	})
	for i := lo; i < len(r.targets) && r.targets[i].target.Cmp(target) == 0; i++ {
		if r.targets[i].chainID == chainID {
			return i
		}
	}
	return -1
}

// Prune removes every candidate whose template's nTime predates cutoff
// (spec §4.D Prune, §4.I "prune against now-300s").
func (r *Registry) Prune(cutoff uint32) []common.CurrencyID {
	r.mu.Lock()
	var stale []common.CurrencyID
	for id, c := range r.chains {
		if c.Template.NTime < cutoff {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	for _, id := range stale {
		r.Remove(id)
	}
	if len(stale) > 0 {
		logger.Debug("mergemine: pruned stale candidates", "count", len(stale), "cutoff", cutoff)
	}
	return stale
}

// Lookup returns a shallow copy of the registered candidate for chainID.
func (r *Registry) Lookup(chainID common.CurrencyID) (Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chains[chainID]
	if !ok {
		return Candidate{}, false
	}
	return *c, true
}

// RangeAtLeast returns every registered chain ID whose target is greater
// than or equal to threshold, ascending by target (spec §4.G step 3: "Over
// the range of registry entries with target ≥ header_hash").
func (r *Registry) RangeAtLeast(threshold *uint256.Int) []common.CurrencyID {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos := sort.Search(len(r.targets), func(i int) bool {
		return r.targets[i].target.Cmp(threshold) >= 0
	})
	out := make([]common.CurrencyID, 0, len(r.targets)-pos)
	for i := pos; i < len(r.targets); i++ {
		out = append(out, r.targets[i].chainID)
	}
	return out
}

// Claim atomically finds and removes the first candidate, in ascending
// target order at or above threshold, for which isCommitted reports true
// and checkCoherence (if non-nil) accepts — the combined range-query,
// coherence-check, and removal of spec §4.G steps 2-5, run as a single
// critical section so two submitter goroutines can never claim the same
// candidate.
func (r *Registry) Claim(threshold *uint256.Int, isCommitted func(common.CurrencyID) bool, checkCoherence func(*Candidate) bool) (*Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos := sort.Search(len(r.targets), func(i int) bool {
		return r.targets[i].target.Cmp(threshold) >= 0
	})
	for i := pos; i < len(r.targets); i++ {
		id := r.targets[i].chainID
		if !isCommitted(id) {
			continue
		}
		cand, ok := r.chains[id]
		if !ok {
			continue
		}
		if checkCoherence != nil && !checkCoherence(cand) {
			continue
		}
		claimed := *cand
		r.removeLocked(id)
		return &claimed, true
	}
	return nil, false
}

// Len reports the number of registered candidates.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chains)
}

// Empty reports whether the registry currently holds no candidates.
func (r *Registry) Empty() bool { return r.Len() == 0 }

// Dirty reports whether the registry has changed since the last ClearDirty.
func (r *Registry) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// ClearDirty resets the dirty flag, called by the header combiner once it
// has folded every registered candidate into a proposed header (spec
// §4.E step 4).
func (r *Registry) ClearDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
}

// Snapshot returns a copy of every registered candidate, for the header
// combiner to iterate without holding the registry lock across header
// construction.
func (r *Registry) Snapshot() []Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Candidate, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, *c)
	}
	return out
}
