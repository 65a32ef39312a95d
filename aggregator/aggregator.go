// Package aggregator implements the transfer aggregator of spec §4.H: it
// gathers pending reserve transfers, groups them per destination, enforces
// launch/failure policy, and emits export transactions through a
// hostchain.TxBuilder. Grounded on the batching and defensive-copy
// discipline of the teacher's node/sc/bridge_tx_pool.go (queue map keyed by
// sender, Pending()-style snapshotting, sentinel errors per drop reason),
// adapted here to bucket by destination system rather than by sender and
// without any on-disk journal — the core never persists anything to disk
// (spec §1 Non-goals).
package aggregator

import (
	"fmt"
	"sort"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/currency"
	"github.com/klaytn/pbaasd/feecalc"
	"github.com/klaytn/pbaasd/hostchain"
	"github.com/klaytn/pbaasd/log"
	"github.com/klaytn/pbaasd/transfer"
)

var logger = log.New("aggregator")

// Tunables named in spec §6.
const (
	MaxExportInputs = feecalc.MaxExportInputs
	MinBlocks       = 10
	MinInputs       = 10
)

// Deps bundles the aggregator's external collaborators.
type Deps struct {
	Chain       hostchain.Chain
	Builder     hostchain.TxBuilder
	Currencies  *currency.Registry
	ThisChainID common.CurrencyID
	PayoutAddr  string
}

// Aggregator runs one transfer-aggregation pass per call to Run.
type Aggregator struct {
	deps Deps
}

// New constructs an Aggregator over deps.
func New(deps Deps) *Aggregator {
	return &Aggregator{deps: deps}
}

type bucketKey struct {
	system        common.CurrencyID
	groupCurrency common.CurrencyID
}

// Run executes one aggregation pass at the given chain height, returning
// every export transaction it successfully built and submitted.
func (a *Aggregator) Run(height uint64) ([]*hostchain.Transaction, error) {
	pending, err := a.deps.Chain.GetUnspentChainTransfers(a.deps.ThisChainID)
	if err != nil {
		return nil, fmt.Errorf("aggregator: load pending transfers: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	pass := a.deps.Currencies.NewPass()

	groups := make(map[bucketKey][]*transfer.Transfer)
	var order []bucketKey

	for _, t := range pending {
		key, ok := a.classify(pass, t, height)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}
	// The original streams transfers and flushes on a sentinel bucket
	// boundary (spec §4.H step 7); this rewrite materializes the full group
	// list up front instead, so every bucket in order is a real flush
	// candidate with no trailing marker needed.
	var built []*hostchain.Transaction
	for _, key := range order {
		items := groups[key]
		sort.SliceStable(items, func(i, j int) bool { return items[i].InputHeight < items[j].InputHeight })
		txs, err := a.flushBucket(key, items, height)
		if err != nil {
			logger.Error("aggregator: flush failed", "system", key.system, "err", err)
			continue
		}
		built = append(built, txs...)
	}

	if failed := pass.FailedCurrencies(); len(failed) > 0 {
		logger.Info("aggregator: pass recorded launch failures", "count", len(failed))
	}
	return built, nil
}

// classify resolves one transfer's bucket key, applying steps 2-6 of
// spec §4.H. ok is false when the transfer should be dropped or deferred
// this pass (missing definition, or destination still pre-launch).
func (a *Aggregator) classify(pass *currency.Pass, t *transfer.Transfer, height uint64) (bucketKey, bool) {
	if _, ok := pass.Get(t.SourceCurrencyID); !ok {
		logger.Warn("aggregator: unknown source currency, dropping transfer", "currency", t.SourceCurrencyID)
		return bucketKey{}, false
	}
	dstDef, ok := pass.Get(t.DestCurrencyID)
	if !ok {
		logger.Warn("aggregator: unknown destination currency, dropping transfer", "currency", t.DestCurrencyID)
		return bucketKey{}, false
	}

	if currency.IsLocal(dstDef, a.deps.ThisChainID) {
		if currency.IsPrelaunch(dstDef, a.deps.ThisChainID, height) {
			return bucketKey{}, false
		}
		if pass.LaunchFailed(dstDef) {
			t.Degrade()
		}
	}

	system := currency.ResolveSystem(dstDef, t.Flags.Has(transfer.FlagPreconvert))
	groupCurrency := common.CurrencyID{}
	if system == a.deps.ThisChainID {
		groupCurrency = t.SourceCurrencyID
	}
	return bucketKey{system: system, groupCurrency: groupCurrency}, true
}

// flushBucket decides whether the bucket should flush this pass and, if so,
// slices it into one or more export transactions (spec §4.H "Flush per
// bucket").
func (a *Aggregator) flushBucket(key bucketKey, items []*transfer.Transfer, height uint64) ([]*hostchain.Transaction, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tip, err := a.deps.Chain.GetUnspentChainExports(key.system)
	if err != nil {
		return nil, fmt.Errorf("load export thread tip: %w", err)
	}

	shouldFlush := tip == nil || tip.ThreadOutput == nil ||
		(height-tip.Height) >= MinBlocks || len(items) >= MinInputs
	if !shouldFlush {
		return nil, nil
	}

	slices := rebalancedSlices(items, MaxExportInputs, MinInputs)

	var prevThread *hostchain.ExportThreadOutput
	if tip != nil {
		prevThread = tip.ThreadOutput
	}

	var built []*hostchain.Transaction
	for _, slice := range slices {
		tx, err := a.buildExport(key, slice, prevThread)
		if err != nil {
			logger.Error("aggregator: export batch invalid, aborting remaining slices",
				"system", key.system, "err", err)
			break
		}
		built = append(built, tx)
		prevThread = tx.ThreadOutput
	}
	return built, nil
}

// rebalancedSlices splits items into chunks of at most max, never leaving a
// trailing chunk smaller than min when a rebalance can avoid it.
//
// Resolved open question (spec §9): the source's own rebalancing arithmetic
// is flagged as buggy, and spec scenario S6 describes an export of 66
// inputs, which would violate the universal invariant that num_inputs ≤ 64
// (spec §8 invariant 2). This implementation honors the hard cap and
// rebalances within it: a slice that would leave a trailing remainder
// smaller than min is shrunk so the remainder becomes exactly min, never
// larger than max.
func rebalancedSlices(items []*transfer.Transfer, max, min int) [][]*transfer.Transfer {
	var out [][]*transfer.Transfer
	remaining := items
	for len(remaining) > 0 {
		n := max
		if n > len(remaining) {
			n = len(remaining)
		}
		leftover := len(remaining) - n
		if leftover > 0 && leftover < min {
			if len(remaining) >= 2*min {
				n = len(remaining) - min
			} else {
				n = len(remaining)
			}
		}
		out = append(out, remaining[:n])
		remaining = remaining[n:]
	}
	return out
}

// buildExport constructs one export transaction from slice, running the
// per-input check, fee computation, pre-import simulation, and commitment
// attachment of spec §4.H steps 1-10.
func (a *Aggregator) buildExport(key bucketKey, slice []*transfer.Transfer, prevThread *hostchain.ExportThreadOutput) (*hostchain.Transaction, error) {
	var usable []*transfer.Transfer
	for _, t := range slice {
		if t.OverclaimsUTXO() {
			logger.Warn("aggregator: dropping input, claimed value exceeds UTXO", "tx", t.TxHash, "index", t.OutputIndex)
			continue
		}
		usable = append(usable, t)
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("no usable inputs after per-input validation")
	}

	// Amounts and fees are both keyed by the transfer's source currency (the
	// currency actually leaving this chain), fees further resolved to that
	// source currency's systemID — matching newTransferOutput/feeCurrencyID
	// in pbaas.cpp, and the same source-keying already used for groupCurrency
	// in classify above.
	totalAmounts := make(map[common.CurrencyID]uint64)
	totalFees := make(map[common.CurrencyID]uint64)
	for _, t := range usable {
		totalAmounts[t.SourceCurrencyID] += t.Amount
		feeCurrency := t.SourceCurrencyID
		if def, ok := a.deps.Currencies.Get(t.SourceCurrencyID); ok {
			feeCurrency = def.SystemID
		}
		totalFees[feeCurrency] += t.Fee
	}

	exportFee, _, ok := feecalc.Split(len(usable), totalFees)
	if !ok {
		return nil, fmt.Errorf("fee split out of range for n=%d", len(usable))
	}

	feeOutputs := make([]*transfer.Transfer, 0, len(exportFee))
	for cur, fee := range exportFee {
		if fee == 0 {
			continue
		}
		feeOutputs = append(feeOutputs, &transfer.Transfer{
			SourceCurrencyID: cur,
			DestCurrencyID:   cur,
			DestAddress:      a.deps.PayoutAddr,
			Amount:           fee,
			Flags:            transfer.FlagValid | transfer.FlagFeeOutput,
		})
	}

	summary := &hostchain.ExportSummary{
		DestinationSystemID: key.system,
		NumInputs:           len(usable),
		TotalAmounts:        totalAmounts,
		TotalFees:           totalFees,
	}

	if err := a.deps.Builder.SimulateImport(summary, usable); err != nil {
		return nil, fmt.Errorf("pre-import simulation failed: %w", err)
	}

	reserveDeposits := a.reserveDeposits(totalAmounts)

	tx, err := a.deps.Builder.BuildExport(hostchain.ExportRequest{
		DestinationSystemID:  key.system,
		PreviousThreadOutput: prevThread,
		Transfers:            usable,
		FeeOutputs:           feeOutputs,
		ReserveDeposits:      reserveDeposits,
		Summary:              summary,
		PayoutAddress:        a.deps.PayoutAddr,
	})
	if err != nil {
		return nil, fmt.Errorf("build export transaction: %w", err)
	}

	if err := a.deps.Chain.RemoveConflicts(tx); err != nil {
		return nil, fmt.Errorf("remove conflicting mempool entries: %w", err)
	}
	if err := a.deps.Chain.SubmitToMempool(tx); err != nil {
		return nil, fmt.Errorf("submit export to mempool: %w", err)
	}
	nativeFee := exportFee[a.deps.ThisChainID]
	a.deps.Chain.PrioritizeTransaction(tx.Hash, int64(2*nativeFee))

	return tx, nil
}

// reserveDeposits computes, for every currency carried by an export, the
// deposit owed on the source chain for locally-controlled currencies
// (spec §4.H step 8). Non-locally-controlled currencies pass through with
// no deposit.
func (a *Aggregator) reserveDeposits(totalAmounts map[common.CurrencyID]uint64) map[common.CurrencyID]uint64 {
	deposits := make(map[common.CurrencyID]uint64)
	for cur, amount := range totalAmounts {
		def, ok := a.deps.Currencies.Get(cur)
		if !ok {
			continue
		}
		if currency.IsLocal(def, a.deps.ThisChainID) {
			deposits[cur] = amount
		}
	}
	return deposits
}
