package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/config"
	"github.com/klaytn/pbaasd/mergemine"
)

type fakeChildSubmitter struct {
	calls int
}

func (f *fakeChildSubmitter) SubmitBlock(endpoint, rawBlockHex string) (string, error) {
	f.calls++
	return "ok", nil
}

type fakeImporter struct {
	filed      []*EarnedNotarization
	fileErr    error
	polled     []string
	pollErr    error
}

func (f *fakeImporter) FileEarnedNotarization(e *EarnedNotarization) error {
	if f.fileErr != nil {
		return f.fileErr
	}
	f.filed = append(f.filed, e)
	return nil
}

func (f *fakeImporter) PollAndForwardImports(chainName string) error {
	f.polled = append(f.polled, chainName)
	return f.pollErr
}

func TestNotaryIteration_ClearsQueueWhenRegistryEmpty(t *testing.T) {
	coord := New()
	coord.Queue.Push(mergemine.NewSolvedHeader(mergemine.NewProposedHeader(common.CurrencyID{}), []byte{1}, common.Hash{}))
	require.Equal(t, 1, coord.Queue.Len())

	thread := NewSubmissionThread(coord, config.RoleNotary, &fakeChildSubmitter{}, nil, nil, "", nil)
	thread.notaryIteration(context.Background())

	assert.Equal(t, 0, coord.Queue.Len())
}

func TestNotaryIteration_SubmitsWhenBothNonEmpty(t *testing.T) {
	coord := New()
	id := common.BytesToCurrencyID([]byte("child"))
	coord.Registry.Add(&mergemine.Candidate{
		ChainID:     id,
		ChainName:   "child",
		RPCEndpoint: "http://child",
		Template: &mergemine.BlockTemplate{
			NBits:        0x1d00ffff,
			NTime:        uint32(time.Now().Unix()), // fresh enough to survive the iteration's prune
			RawBlock:     make([]byte, 4),
			HeaderOffset: 0,
			HeaderLen:    4,
		},
	})
	header := mergemine.NewProposedHeader(common.BytesToCurrencyID([]byte("notary")))
	header.SubHeaders[id] = &mergemine.SubHeader{ChainID: id}
	coord.Queue.Push(mergemine.NewSolvedHeader(header, []byte{1, 2, 3, 4}, common.Hash{}))

	fake := &fakeChildSubmitter{}
	thread := NewSubmissionThread(coord, config.RoleNotary, fake, nil, nil, "", nil)
	thread.notaryIteration(context.Background())

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 0, coord.Registry.Len())
	assert.Equal(t, 0, coord.Queue.Len())
}

func TestChildIteration_FilesEarnedNotarizationAndPolls(t *testing.T) {
	coord := New()
	coord.SetEarnedNotarization(&EarnedNotarization{Height: 42})

	importer := &fakeImporter{}
	thread := NewSubmissionThread(coord, config.RoleChild, &fakeChildSubmitter{}, nil, importer, "childchain", nil)
	thread.SetChildSleep(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	thread.childIteration(ctx)

	require.Len(t, importer.filed, 1)
	assert.Equal(t, uint64(42), importer.filed[0].Height)
	require.Len(t, importer.polled, 1)
	assert.Equal(t, "childchain", importer.polled[0])

	_, pending := coord.TakeEarnedNotarization()
	assert.False(t, pending, "slot should be empty once filing succeeded")
}

func TestChildIteration_RetainsEarnedNotarizationOnFileFailure(t *testing.T) {
	coord := New()
	coord.SetEarnedNotarization(&EarnedNotarization{Height: 7})

	importer := &fakeImporter{fileErr: ErrNotImplemented}
	thread := NewSubmissionThread(coord, config.RoleChild, &fakeChildSubmitter{}, nil, importer, "childchain", nil)
	thread.SetChildSleep(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	thread.childIteration(ctx)

	got, pending := coord.TakeEarnedNotarization()
	require.True(t, pending, "a failed filing attempt must be retried, not dropped")
	assert.Equal(t, uint64(7), got.Height)
}

func TestMaybePollImports_SkipsWithinIntervalWhenHeightUnchanged(t *testing.T) {
	coord := New()
	importer := &fakeImporter{}
	height := uint64(100)
	thread := NewSubmissionThread(coord, config.RoleChild, &fakeChildSubmitter{}, nil, importer, "chain", func() (uint64, error) {
		return height, nil
	})

	thread.maybePollImports()
	thread.maybePollImports()
	assert.Len(t, importer.polled, 1, "second call within the interval with unchanged height should not poll again")

	height = 101
	thread.maybePollImports()
	assert.Len(t, importer.polled, 2, "a height change should force a poll")
}
