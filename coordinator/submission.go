package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/klaytn/pbaasd/config"
	"github.com/klaytn/pbaasd/log"
	"github.com/klaytn/pbaasd/notary"
	"github.com/klaytn/pbaasd/submitter"
)

var logger = log.New("coordinator")

// Tunables named in spec §6.
const (
	pruneCutoffAge     = 300 * time.Second
	importPollInterval = 30 * time.Second
	childLoopSleep     = 3 * time.Second
	notaryIdleWait     = 1 * time.Second
)

// ErrNotImplemented marks an interface method the original source leaves as
// an undocumented stub (spec §9 "SendNewImports is a stub; its intended
// behavior is undocumented. Implementations should leave it as an
// unimplemented interface pending spec").
var ErrNotImplemented = errors.New("coordinator: not implemented pending spec")

// Importer reconstructs and forwards import transactions originating from
// the notary, and files locally-won blocks as earned notarizations
// (spec §4.I child mode). A concrete implementation needs a transaction
// builder and signer wired to the host chain; pbaasd ships only the
// interface and a stub, per the spec's own open question about
// SendNewImports.
type Importer interface {
	FileEarnedNotarization(e *EarnedNotarization) error
	PollAndForwardImports(notaryChainName string) error
}

// StubImporter implements Importer by reporting ErrNotImplemented,
// preserving the earned-notarization value for a later retry rather than
// dropping it.
type StubImporter struct{}

func (StubImporter) FileEarnedNotarization(*EarnedNotarization) error { return ErrNotImplemented }
func (StubImporter) PollAndForwardImports(string) error               { return ErrNotImplemented }

// SubmissionThread drives the merge-mine registry and qualified-header
// queue on a timer/semaphore loop, in either notary or child mode
// (spec §4.I).
type SubmissionThread struct {
	coord     *Coordinator
	role      config.Role
	submitter submitter.ChildSubmitter
	prober    *notary.Prober
	importer  Importer
	chainName string

	notifyCh chan struct{}

	lastImportPoll time.Time
	lastHeight     uint64
	heightFn       func() (uint64, error)

	// childSleep is the child-mode loop's per-iteration sleep, defaulting to
	// childLoopSleep; overridable for tests so they don't block on the real
	// production cadence.
	childSleep time.Duration
}

// NewSubmissionThread builds a SubmissionThread. heightFn reports the host
// chain's current height, used to detect height changes in child mode.
func NewSubmissionThread(coord *Coordinator, role config.Role, rpc submitter.ChildSubmitter, prober *notary.Prober, importer Importer, chainName string, heightFn func() (uint64, error)) *SubmissionThread {
	if importer == nil {
		importer = StubImporter{}
	}
	return &SubmissionThread{
		coord:      coord,
		role:       role,
		submitter:  rpc,
		prober:     prober,
		importer:   importer,
		chainName:  chainName,
		notifyCh:   make(chan struct{}, 1),
		heightFn:   heightFn,
		childSleep: childLoopSleep,
	}
}

// SetChildSleep overrides the child-mode loop's per-iteration sleep,
// intended for tests that need to exercise the loop without waiting on the
// real production cadence.
func (s *SubmissionThread) SetChildSleep(d time.Duration) {
	s.childSleep = d
}

// Notify posts the submission semaphore, waking a blocked notary-mode
// iteration. Queue.Push does not call it; whoever queues a solved header
// posts it separately.
func (s *SubmissionThread) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Run drives the loop until ctx is cancelled. Cancellation is honored at
// the top and bottom of every iteration (spec §5 "Suspension points").
func (s *SubmissionThread) Run(ctx context.Context) {
	for ctx.Err() == nil {
		switch s.role {
		case config.RoleNotary:
			s.notaryIteration(ctx)
		case config.RoleChild:
			s.childIteration(ctx)
		default:
			logger.Error("coordinator: unknown submission role, stopping", "role", s.role)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// notaryIteration implements spec §4.I's notary-mode loop body.
func (s *SubmissionThread) notaryIteration(ctx context.Context) {
	cutoff := uint32(time.Now().Add(-pruneCutoffAge).Unix())
	s.coord.Registry.Prune(cutoff)

	switch {
	case s.coord.Registry.Empty() && s.coord.Queue.Len() > 0:
		s.coord.Queue.Clear()
	case !s.coord.Registry.Empty() && s.coord.Queue.Len() > 0:
		outcomes := submitter.SubmitQualifiedBlocks(s.coord.Registry, s.coord.Queue, s.submitter)
		for _, o := range outcomes {
			if o.Err != nil {
				logger.Warn("coordinator: submission outcome failed", "chain", o.ChainName, "err", o.Err)
			}
		}
	default:
		select {
		case <-s.notifyCh:
		case <-ctx.Done():
		case <-time.After(notaryIdleWait):
		}
	}
}

// childIteration implements spec §4.I's child-mode loop body.
func (s *SubmissionThread) childIteration(ctx context.Context) {
	if s.prober != nil {
		if live, err := s.prober.Probe(); err != nil {
			logger.Debug("coordinator: notary probe failed", "err", err)
		} else {
			s.coord.SetLiveness(live)
		}
	}

	if earned, ok := s.coord.TakeEarnedNotarization(); ok {
		if err := s.importer.FileEarnedNotarization(earned); err != nil {
			logger.Debug("coordinator: earned notarization not filed, retrying next tick", "err", err)
			s.coord.RestoreEarnedNotarizationIfEmpty(earned)
		}
	}

	s.maybePollImports()

	select {
	case <-ctx.Done():
	case <-time.After(s.childSleep):
	}
}

func (s *SubmissionThread) maybePollImports() {
	now := time.Now()
	heightChanged := false
	if s.heightFn != nil {
		if h, err := s.heightFn(); err == nil && h != s.lastHeight {
			heightChanged = true
			s.lastHeight = h
		}
	}
	if !heightChanged && now.Sub(s.lastImportPoll) < importPollInterval {
		return
	}
	s.lastImportPoll = now
	if err := s.importer.PollAndForwardImports(s.chainName); err != nil {
		logger.Debug("coordinator: import poll not available", "err", err)
	}
}
