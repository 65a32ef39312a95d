// Package currency resolves currency IDs to their definitions and classifies
// them against the rules the aggregator needs: local control, pre-launch,
// and launch failure (spec §4.B). The positive cache is long-lived and
// backed by hashicorp/golang-lru, the same library the teacher's
// common/cache.go wraps for its own read-through caches; the negative cache
// is explicitly pass-scoped per spec §9's "pass-local caches" design note.
package currency

import (
	lru "github.com/hashicorp/golang-lru"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/log"
)

var logger = log.New("currency")

// ProofProtocol distinguishes chain-owned from ID-owned currencies
// (spec §3).
type ProofProtocol int

const (
	ProofProtocolChain ProofProtocol = iota
	ProofProtocolID
)

// Definition is an immutable currency definition once confirmed.
type Definition struct {
	ID                 common.CurrencyID
	Name               string
	ParentID           common.CurrencyID
	SystemID           common.CurrencyID
	ReserveCurrencyIDs []common.CurrencyID
	StartBlock         uint64
	MinPreconvert      map[common.CurrencyID]uint64
	ProofProtocol      ProofProtocol

	// DefaultPeerNodes are the "host:port" network addresses the chain
	// definition itself advertises for reaching the chain, the same list
	// GetThisChainPort walks on the original chain. Used once, at
	// registration time, to derive a merge-mine candidate's RPC endpoint.
	DefaultPeerNodes []string
}

// HostChain is the subset of the host chain's indexed state the registry
// consults on a cache miss (spec §6 "GetCurrencyDefinition").
type HostChain interface {
	GetCurrencyDefinition(id common.CurrencyID) (*Definition, bool, error)
	// ReserveInAtLaunch returns the currency's cumulative pre-conversion
	// reserve-in totals as observed at its start block, keyed by reserve
	// currency ID. Used to evaluate launch_failed.
	ReserveInAtLaunch(id common.CurrencyID) (map[common.CurrencyID]uint64, error)
}

const defaultCacheSize = 4096

// Registry is the long-lived, process-wide currency-definition cache.
type Registry struct {
	host        HostChain
	thisChainID common.CurrencyID
	positive    *lru.Cache
}

// NewRegistry constructs a Registry backed by an LRU of the given size.
func NewRegistry(host HostChain, thisChainID common.CurrencyID, size int) *Registry {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		// lru.New only errors on size <= 0, already guarded above.
		logger.Crit("currency: failed to allocate definition cache", "err", err)
	}
	return &Registry{host: host, thisChainID: thisChainID, positive: cache}
}

// Get resolves id to its Definition, consulting the LRU before falling
// through to the host chain.
func (r *Registry) Get(id common.CurrencyID) (*Definition, bool) {
	if v, ok := r.positive.Get(id); ok {
		return v.(*Definition), true
	}
	def, ok, err := r.host.GetCurrencyDefinition(id)
	if err != nil {
		logger.Warn("currency: definition lookup failed", "id", id, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	r.positive.Add(id, def)
	return def, true
}

// IsLocal reports whether def is controlled by this chain.
func IsLocal(def *Definition, thisChainID common.CurrencyID) bool {
	return def.SystemID == thisChainID
}

// IsPrelaunch reports whether def is locally controlled and height is below
// its start block.
func IsPrelaunch(def *Definition, thisChainID common.CurrencyID, height uint64) bool {
	return IsLocal(def, thisChainID) && height < def.StartBlock
}

// ResolveSystem determines the destination system a transfer actually
// routes to: the currency's own ID when it is ID-owned and the transfer is
// not a pre-conversion, otherwise the currency's declared system.
func ResolveSystem(def *Definition, isPreconvert bool) common.CurrencyID {
	if def.ProofProtocol == ProofProtocolID && !isPreconvert {
		return def.ID
	}
	return def.SystemID
}

// Pass is the per-aggregation-run working state layered on top of a
// Registry: a negative-lookup cache that forgets misses at the end of the
// pass, and a set of currencies observed to have failed launch during this
// pass (spec §4.B, §9).
type Pass struct {
	registry *Registry
	negative map[common.CurrencyID]struct{}
	failed   mapset.Set[common.CurrencyID]
}

// NewPass starts a fresh aggregation pass over r.
func (r *Registry) NewPass() *Pass {
	return &Pass{
		registry: r,
		negative: make(map[common.CurrencyID]struct{}),
		failed:   mapset.NewSet[common.CurrencyID](),
	}
}

// Get resolves id for the duration of this pass, short-circuiting on a
// cached miss without re-querying the host chain.
func (p *Pass) Get(id common.CurrencyID) (*Definition, bool) {
	if _, missed := p.negative[id]; missed {
		return nil, false
	}
	def, ok := p.registry.Get(id)
	if !ok {
		p.negative[id] = struct{}{}
		return nil, false
	}
	return def, true
}

// LaunchFailed evaluates (and memoizes) whether def's pre-conversion totals
// fell short of its minimums at its start block. Once a currency is marked
// failed within a pass, every subsequent call returns true without
// re-querying the host chain.
func (p *Pass) LaunchFailed(def *Definition) bool {
	if p.failed.Contains(def.ID) {
		return true
	}
	if len(def.MinPreconvert) == 0 {
		return false
	}
	reserveIn, err := p.registry.host.ReserveInAtLaunch(def.ID)
	if err != nil {
		logger.Warn("currency: reserve-in lookup failed", "id", def.ID, "err", err)
		return false
	}
	for reserveCurrency, min := range def.MinPreconvert {
		if reserveIn[reserveCurrency] < min {
			p.failed.Add(def.ID)
			return true
		}
	}
	return false
}

// FailedCurrencies returns the set of currency IDs marked launch-failed
// during this pass, for diagnostics.
func (p *Pass) FailedCurrencies() []common.CurrencyID {
	return p.failed.ToSlice()
}
