package submitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/mergemine"
)

type fakeSubmitter struct {
	calls []string
}

func (f *fakeSubmitter) SubmitBlock(endpoint, rawBlockHex string) (string, error) {
	f.calls = append(f.calls, endpoint)
	return "accepted", nil
}

func buildCandidate(name string, nBits uint32) *mergemine.Candidate {
	id := common.BytesToCurrencyID([]byte(name))
	raw := append([]byte("block-"+name), make([]byte, 4)...)
	return &mergemine.Candidate{
		ChainID:     id,
		ChainName:   name,
		RPCEndpoint: "http://child-" + name,
		Template: &mergemine.BlockTemplate{
			NBits:        nBits,
			NTime:        1000,
			RawBlock:     raw,
			HeaderOffset: len("block-" + name),
			HeaderLen:    4,
		},
	}
}

// TestSubmitQualifiedBlocks_DispatchesOnlyCommittedCandidate registers two
// candidates but solves a header that commits only one of them: only that
// committed candidate should receive exactly one submitblock call.
func TestSubmitQualifiedBlocks_DispatchesOnlyCommittedCandidate(t *testing.T) {
	reg := mergemine.NewRegistry()
	alpha := buildCandidate("alpha", 0x1d00ffff)
	beta := buildCandidate("beta", 0x1c00ffff)
	reg.Add(alpha)
	reg.Add(beta)

	header := mergemine.NewProposedHeader(common.BytesToCurrencyID([]byte("notary")))
	header.SubHeaders[beta.ChainID] = &mergemine.SubHeader{ChainID: beta.ChainID, Data: []byte("sub")}

	rawHeader := []byte{0x01, 0x02, 0x03, 0x04}
	hash := common.Hash{}
	solvedHeader := mergemine.NewSolvedHeader(header, rawHeader, hash)

	queue := mergemine.NewQueue()
	queue.Push(solvedHeader)

	fake := &fakeSubmitter{}
	outcomes := SubmitQualifiedBlocks(reg, queue, fake)

	require.Len(t, outcomes, 1)
	assert.Equal(t, beta.ChainID, outcomes[0].ChainID)
	assert.NoError(t, outcomes[0].Err)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, beta.RPCEndpoint, fake.calls[0])

	// beta must have been removed from the registry after the claim.
	assert.Equal(t, 1, reg.Len())
	_, stillThere := reg.Lookup(alpha.ChainID)
	assert.True(t, stillThere)
}

func TestSubmitQualifiedBlocks_NoMatchLeavesRegistryUntouched(t *testing.T) {
	reg := mergemine.NewRegistry()
	alpha := buildCandidate("alpha", 0x1d00ffff)
	reg.Add(alpha)

	header := mergemine.NewProposedHeader(common.BytesToCurrencyID([]byte("notary")))
	// Commits a chain that was never registered.
	unknown := common.BytesToCurrencyID([]byte("unknown"))
	header.SubHeaders[unknown] = &mergemine.SubHeader{ChainID: unknown}

	solvedHeader := mergemine.NewSolvedHeader(header, []byte{0, 0, 0, 0}, common.Hash{})
	queue := mergemine.NewQueue()
	queue.Push(solvedHeader)

	fake := &fakeSubmitter{}
	outcomes := SubmitQualifiedBlocks(reg, queue, fake)

	assert.Empty(t, outcomes)
	assert.Empty(t, fake.calls)
	assert.Equal(t, 1, reg.Len())
}
