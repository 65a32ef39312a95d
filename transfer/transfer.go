// Package transfer defines the reserve-transfer intent that moves value
// between chains, and the flag bits that track its conversion state through
// aggregation (spec §3, §4.H).
package transfer

import "github.com/klaytn/pbaasd/common"

// Flags is an orthogonal bitset of reserve-transfer modifiers.
type Flags uint32

const (
	FlagValid Flags = 1 << iota
	FlagPreconvert
	FlagConvert
	FlagSendBack
	FlagFeeOutput
)

// Has reports whether f contains every bit in flag.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// Any reports whether f contains at least one bit of flag.
func (f Flags) Any(flag Flags) bool { return f&flag != 0 }

// degradeMask is the set of flags stripped when a destination's launch fails
// (spec §4.H step 4, §7 "permanent" error kind).
const degradeMask = FlagSendBack | FlagPreconvert | FlagConvert

// Transfer is a single pending reserve-transfer output, as it sits unspent
// on the source chain waiting to be picked up by an export.
type Transfer struct {
	SourceCurrencyID common.CurrencyID
	DestCurrencyID   common.CurrencyID
	DestAddress      string
	Amount           uint64
	Fee              uint64
	Flags            Flags

	// TxHash/OutputIndex identify the UTXO this transfer intent lives on.
	TxHash      common.Hash
	OutputIndex uint32

	// UTXOValue is what the spent output actually carries; in malformed input
	// it can be less than ClaimedValue, which is the per-input check in spec
	// §4.H step 3.
	UTXOValue uint64

	// InputHeight orders transfers deterministically within a bucket
	// (spec §5 "grouped deterministically by ... input_height").
	InputHeight uint64
}

// ClaimedValue is the total value this transfer claims to move: the amount
// plus its fee.
func (t *Transfer) ClaimedValue() uint64 {
	return t.Amount + t.Fee
}

// OverclaimsUTXO reports whether the transfer's claimed value exceeds what
// its backing UTXO actually carries — the per-input drop condition of
// spec §4.H step 3.
func (t *Transfer) OverclaimsUTXO() bool {
	return t.ClaimedValue() > t.UTXOValue
}

// Degrade strips conversion-related flags, turning a pre-convert/convert/
// send-back transfer into a plain value transfer. Applied once per transfer
// when its destination currency is recorded as launch-failed.
func (t *Transfer) Degrade() {
	t.Flags &^= degradeMask
}

// Clone returns a deep copy sufficient for building export-local working
// sets without aliasing the aggregator's source slice.
func (t *Transfer) Clone() *Transfer {
	c := *t
	return &c
}
