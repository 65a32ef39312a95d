package mergemine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/common"
)

func solved(hash byte) *SolvedHeader {
	h := common.Hash{}
	for i := range h {
		h[i] = hash
	}
	return NewSolvedHeader(NewProposedHeader(common.CurrencyID{}), []byte{hash}, h)
}

func TestQueue_PopsInNonDecreasingHashOrder(t *testing.T) {
	q := NewQueue()
	q.Push(solved(0x30))
	q.Push(solved(0x10))
	q.Push(solved(0x20))

	var order []byte
	for {
		h, ok := q.PopBest()
		if !ok {
			break
		}
		order = append(order, h.RawHeader[0])
	}
	assert.Equal(t, []byte{0x10, 0x20, 0x30}, order)
}

func TestQueue_DropDiscardsWithoutReturning(t *testing.T) {
	q := NewQueue()
	q.Push(solved(0x10))
	q.Push(solved(0x20))

	q.Drop()
	assert.Equal(t, 1, q.Len())

	h, ok := q.PopBest()
	require.True(t, ok)
	assert.Equal(t, byte(0x20), h.RawHeader[0])
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Push(solved(0x10))
	q.Clear()
	assert.Equal(t, 0, q.Len())
	_, ok := q.PopBest()
	assert.False(t, ok)
}
