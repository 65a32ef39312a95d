package mergemine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/common"
)

func TestCombine_FoldsEveryRegisteredCandidate(t *testing.T) {
	reg := NewRegistry()
	alpha := candidate("alpha", 0x1d00ffff, 1000)
	beta := candidate("beta", 0x1c00ffff, 1000)
	reg.Add(alpha)
	reg.Add(beta)

	thisChain := common.BytesToCurrencyID([]byte("notary"))
	header := NewProposedHeader(thisChain)

	bits := Combine(header, reg)

	require.Len(t, header.SubHeaders, 2)
	assert.Contains(t, header.SubHeaders, alpha.ChainID)
	assert.Contains(t, header.SubHeaders, beta.ChainID)
	assert.False(t, reg.Dirty())

	// The returned compact bits must equal the easiest (largest) target
	// among the registered candidates.
	maxTarget := CompactToTarget(alpha.Template.NBits)
	if t2 := CompactToTarget(beta.Template.NBits); t2.Cmp(maxTarget) > 0 {
		maxTarget = t2
	}
	assert.Equal(t, TargetToCompact(maxTarget), bits)
}

func TestCombine_DropsStaleSubHeaders(t *testing.T) {
	reg := NewRegistry()
	alpha := candidate("alpha", 0x1d00ffff, 1000)
	reg.Add(alpha)

	thisChain := common.BytesToCurrencyID([]byte("notary"))
	header := NewProposedHeader(thisChain)
	Combine(header, reg)
	require.Len(t, header.SubHeaders, 1)

	reg.Remove(alpha.ChainID)
	Combine(header, reg)
	assert.Empty(t, header.SubHeaders)
}

func TestCommittedChainIDs_ReflectsSubHeaders(t *testing.T) {
	thisChain := common.BytesToCurrencyID([]byte("notary"))
	header := NewProposedHeader(thisChain)
	id := common.BytesToCurrencyID([]byte("alpha"))
	header.SubHeaders[id] = &SubHeader{ChainID: id, Data: []byte("x")}

	s := header.CommittedChainIDs()
	assert.True(t, s.Has(id))
}
