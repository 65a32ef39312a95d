package mergemine

import (
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/klaytn/pbaasd/common"
)

// SolvedHeader is a notary header that has passed proof-of-work, paired
// with its hash interpreted as a big integer for ordering (spec §3
// "Qualified header").
type SolvedHeader struct {
	Header     *ProposedHeader
	HeaderHash common.Hash
	HashInt    *uint256.Int
	RawHeader  []byte
}

// NewSolvedHeader builds a SolvedHeader from a raw hash, deriving the
// ordering integer once at construction time.
func NewSolvedHeader(header *ProposedHeader, rawHeader []byte, hash common.Hash) *SolvedHeader {
	return &SolvedHeader{
		Header:     header,
		HeaderHash: hash,
		HashInt:    new(uint256.Int).SetBytes(hash[:]),
		RawHeader:  rawHeader,
	}
}

// Queue is the qualified-header queue (spec §4.F): solved headers ordered
// so the smallest hash (best proof-of-work) is consumed first. No example
// repo in the retrieval pack uses an ordered-map/btree third-party
// container for this shape (the corpus's EVM chains compare difficulty
// ad hoc rather than maintaining a persistent ordered index), so this is a
// sorted slice kept in order on insert — the queue depth here is bounded by
// how many headers outrun the submitter between ticks, never large enough
// to need anything fancier.
type Queue struct {
	mu    sync.Mutex
	items []*SolvedHeader
}

// NewQueue constructs an empty qualified-header queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push inserts a solved header, keeping items sorted ascending by HashInt.
func (q *Queue) Push(h *SolvedHeader) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pos := sort.Search(len(q.items), func(i int) bool {
		return q.items[i].HashInt.Cmp(h.HashInt) >= 0
	})
	q.items = append(q.items, nil)
	copy(q.items[pos+1:], q.items[pos:])
	q.items[pos] = h
}

// PopBest removes and returns the smallest-hash (best proof-of-work) header
// in the queue.
func (q *Queue) PopBest() (*SolvedHeader, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	best := q.items[0]
	q.items = q.items[1:]
	return best, true
}

// Drop discards the current best header without processing it (spec §4.G
// step 7: "If the best header matches no candidate, discard it and
// continue").
func (q *Queue) Drop() {
	q.PopBest()
}

// Len reports how many headers remain queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear empties the queue, used in notary mode when the candidate pool has
// gone empty while headers remain queued (spec §4.I).
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
