// Package feecalc splits an export's accumulated fees between the source
// chain (export fee) and the destination chain (import fee), per spec §4.C.
// Intermediate arithmetic uses holiman/uint256's 256-bit integers so the
// multiplication of a 64-bit total by a ratio up to ~10^8 never overflows
// before the final truncation back to uint64.
package feecalc

import (
	"github.com/holiman/uint256"

	"github.com/klaytn/pbaasd/common"
)

// MaxExportInputs is the hard cap on reserve transfers per export
// (spec §3, §6).
const MaxExportInputs = 64

const (
	baseRatio        = 50_000_000
	ratioSpread      = 25_000_000
	ratioDenominator = 100_000_000
)

// Ratio returns the export-fee ratio (scaled by ratioDenominator) for an
// export carrying n inputs: ratio = 50_000_000 + (25_000_000/64)*(n-1).
// Returns false when n is out of [1, MaxExportInputs].
func Ratio(n int) (*uint256.Int, bool) {
	if n < 1 || n > MaxExportInputs {
		return nil, false
	}
	step := new(uint256.Int).Div(uint256.NewInt(ratioSpread), uint256.NewInt(MaxExportInputs))
	step.Mul(step, uint256.NewInt(uint64(n-1)))
	ratio := new(uint256.Int).Add(uint256.NewInt(baseRatio), step)
	return ratio, true
}

// Split computes the per-currency export/import fee split for an export
// carrying n inputs. Returns nil maps, false when n is out of range
// (spec: "Returns empty map when n > MAX_EXPORT_INPUTS").
func Split(n int, totalFees map[common.CurrencyID]uint64) (exportFee, importFee map[common.CurrencyID]uint64, ok bool) {
	ratio, ok := Ratio(n)
	if !ok {
		return nil, nil, false
	}
	exportFee = make(map[common.CurrencyID]uint64, len(totalFees))
	importFee = make(map[common.CurrencyID]uint64, len(totalFees))
	denom := uint256.NewInt(ratioDenominator)
	for cur, total := range totalFees {
		product := new(uint256.Int).Mul(uint256.NewInt(total), ratio)
		ef := new(uint256.Int).Div(product, denom)
		exportFee[cur] = ef.Uint64()
		importFee[cur] = total - exportFee[cur]
	}
	return exportFee, importFee, true
}
