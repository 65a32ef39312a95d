// Package coordinator assembles the shared state object of spec §3: the
// merge-mine registry and qualified-header queue (mergemine package), the
// earned-notarization slot, and notary-liveness info, plus the submission
// thread that drives them (spec §4.I). Grounded on the lifecycle shape of
// the teacher's node/sc/subbridge.go (NewSubBridge/Start/Stop, a package-
// level loop goroutine selecting over a ticker and a quit channel).
package coordinator

import (
	"sync"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/mergemine"
	"github.com/klaytn/pbaasd/notary"
)

// EarnedNotarization is the one-deep slot recording the most recent locally
// mined block pending notarization filing (spec §3, SPEC_FULL.md §4.K,
// grounded on pbaas.cpp's QueueEarnedNotarization/SetLatestMiningOutputs).
type EarnedNotarization struct {
	BlockHash     common.Hash
	TxIndex       int
	Height        uint64
	PayoutOutputs []byte
	Destination   common.CurrencyID
}

// Coordinator is the single long-lived per-process state object shared
// between the main validation thread and the submission thread (spec §3,
// §5). Registry and Queue each carry their own internal mutex rather than
// being wrapped in one coarse coordinator-wide lock — idiomatic Go favors
// giving each owned container its own narrow critical section over a
// single giant lock, and the spec's own ordering rule ("cs_mergemining is a
// leaf, no RPC call is made while holding it") is satisfied either way.
// See DESIGN.md for this adaptation's rationale.
type Coordinator struct {
	Registry *mergemine.Registry
	Queue    *mergemine.Queue

	mu                sync.Mutex
	earned            *EarnedNotarization
	liveness          *notary.Liveness
	payoutOutputs     []byte
	payoutDestination common.CurrencyID
}

// New constructs an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{
		Registry: mergemine.NewRegistry(),
		Queue:    mergemine.NewQueue(),
	}
}

// SetEarnedNotarization records a newly-won local block awaiting filing
// with the notary.
func (c *Coordinator) SetEarnedNotarization(e *EarnedNotarization) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.earned = e
}

// TakeEarnedNotarization consumes the earned-notarization slot, if set.
func (c *Coordinator) TakeEarnedNotarization() (*EarnedNotarization, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.earned
	c.earned = nil
	return e, e != nil
}

// RestoreEarnedNotarizationIfEmpty puts e back in the slot after a failed
// filing attempt, but only if nothing newer was set in the meantime — a
// block won while the failed filing was in flight must win over the stale
// retry, never be clobbered by it.
func (c *Coordinator) RestoreEarnedNotarizationIfEmpty(e *EarnedNotarization) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.earned == nil {
		c.earned = e
	}
}

// SetLiveness records the most recent notary-liveness probe result
// (spec §4.J).
func (c *Coordinator) SetLiveness(l *notary.Liveness) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness = l
}

// Liveness returns the most recently recorded liveness info, if any.
func (c *Coordinator) Liveness() (*notary.Liveness, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveness, c.liveness != nil
}

// SetLatestMiningOutputs records the payout outputs and destination of the
// most recently mined local block (spec §3 "latest mining payout outputs").
func (c *Coordinator) SetLatestMiningOutputs(outputs []byte, destination common.CurrencyID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payoutOutputs = outputs
	c.payoutDestination = destination
}

// LatestMiningOutputs returns the most recently recorded payout outputs and
// their destination.
func (c *Coordinator) LatestMiningOutputs() ([]byte, common.CurrencyID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payoutOutputs, c.payoutDestination
}
