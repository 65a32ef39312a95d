// Package hostchain defines the Go interfaces pbaasd consumes from its
// surrounding node: UTXO/mempool state, the currency index, and a
// transaction builder. Per spec §1 these are explicitly out of scope — the
// underlying chain, consensus, and conversion math are "external
// collaborators" — so this package holds only the interface boundary, never
// an implementation of chain state itself.
package hostchain

import (
	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/currency"
	"github.com/klaytn/pbaasd/transfer"
)

// ExportThreadOutput identifies the UTXO that anchors a per-destination
// export thread (spec §3 "export thread").
type ExportThreadOutput struct {
	TxHash      common.Hash
	OutputIndex uint32
	NativeValue uint64
}

// ExportThreadTip is the most recent unspent export on one destination's
// export thread, as returned by GetUnspentChainExports.
type ExportThreadTip struct {
	Height       uint64
	ThreadOutput *ExportThreadOutput
}

// ExportSummary is the on-chain `ccx` output attached to an export
// transaction (spec §3 "Cross-chain export").
type ExportSummary struct {
	DestinationSystemID common.CurrencyID
	NumInputs            int
	TotalAmounts         map[common.CurrencyID]uint64
	TotalFees            map[common.CurrencyID]uint64
	Commitment           []byte
}

// Transaction is an opaque, already-serialized transaction handed back from
// the builder, plus the thread output it produces so the aggregator can
// chain the next slice's input 0 to it (spec §4.H step 1, "oneExport").
type Transaction struct {
	Hash         common.Hash
	Raw          []byte
	ThreadOutput *ExportThreadOutput
}

// ExportRequest carries everything the transaction builder needs to emit
// one export transaction (spec §4.H steps 1-10).
type ExportRequest struct {
	DestinationSystemID  common.CurrencyID
	PreviousThreadOutput *ExportThreadOutput
	Transfers            []*transfer.Transfer
	FeeOutputs           []*transfer.Transfer
	ReserveDeposits      map[common.CurrencyID]uint64
	Summary              *ExportSummary
	PayoutAddress        string
}

// TxBuilder composes host-chain outputs into export transactions and runs
// the pre-import determinism check (spec §4.H steps 7, 9-10).
type TxBuilder interface {
	// SimulateImport dry-runs the destination's import rules against a
	// prospective export summary, the step 7 "pre-import check".
	SimulateImport(summary *ExportSummary, transfers []*transfer.Transfer) error
	// BuildExport composes req into a ready-to-submit transaction.
	BuildExport(req ExportRequest) (*Transaction, error)
}

// Chain is the host chain's state surface the aggregator consults (spec §6
// "Host-chain interface (consumed)").
type Chain interface {
	currency.HostChain

	CurrentHeight() (uint64, error)
	GetUnspentChainTransfers(systemID common.CurrencyID) ([]*transfer.Transfer, error)
	GetUnspentChainExports(systemID common.CurrencyID) (*ExportThreadTip, error)

	SubmitToMempool(tx *Transaction) error
	PrioritizeTransaction(hash common.Hash, feeDelta int64)
	RemoveConflicts(tx *Transaction) error
}
