package mergemine

import (
	"github.com/holiman/uint256"
	set "gopkg.in/fatih/set.v0"

	"github.com/klaytn/pbaasd/common"
)

// SubHeader is one child chain's native commitment embedded in a proposed
// notary header.
type SubHeader struct {
	ChainID common.CurrencyID
	Data    []byte
}

// ProposedHeader is the notary's in-progress block header, carrying every
// child's merge-mining commitment (spec §4.E).
type ProposedHeader struct {
	ThisChainID common.CurrencyID
	SubHeaders  map[common.CurrencyID]*SubHeader
}

// NewProposedHeader starts an empty proposed header for thisChainID.
func NewProposedHeader(thisChainID common.CurrencyID) *ProposedHeader {
	return &ProposedHeader{
		ThisChainID: thisChainID,
		SubHeaders:  make(map[common.CurrencyID]*SubHeader),
	}
}

// CommittedChainIDs returns the set of chain IDs currently committed into
// this header. Backed by fatih/set the way the teacher's work/worker.go
// tracks ancestor/uncle membership with a set rather than a bare map, since
// membership (not value) is all that's needed.
func (h *ProposedHeader) CommittedChainIDs() *set.Set {
	s := set.New(set.ThreadSafe)
	for id := range h.SubHeaders {
		s.Add(id)
	}
	return s
}

// Combine folds every candidate currently in reg into header, dropping any
// stale sub-header whose chain is no longer this chain or registered, and
// returns the compact encoding of the easiest (largest) target any
// registered chain will currently accept (spec §4.E).
func Combine(header *ProposedHeader, reg *Registry) uint32 {
	for id := range header.SubHeaders {
		if id == header.ThisChainID {
			continue
		}
		if _, ok := reg.Lookup(id); !ok {
			delete(header.SubHeaders, id)
		}
	}

	maxTarget := uint256.NewInt(0)
	for _, c := range reg.Snapshot() {
		header.SubHeaders[c.ChainID] = &SubHeader{
			ChainID: c.ChainID,
			Data:    c.Template.NativeSubHeader,
		}
		if t := CompactToTarget(c.Template.NBits); t.Cmp(maxTarget) > 0 {
			maxTarget = t
		}
	}
	reg.ClearDirty()
	return TargetToCompact(maxTarget)
}
