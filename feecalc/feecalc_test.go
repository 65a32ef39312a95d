package feecalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/common"
)

var usd = common.BytesToCurrencyID([]byte("USD"))

func TestSplit_SingleInput(t *testing.T) {
	exportFee, importFee, ok := Split(1, map[common.CurrencyID]uint64{usd: 100_000_000})
	require.True(t, ok)
	assert.Equal(t, uint64(50_000_000), exportFee[usd])
	assert.Equal(t, uint64(50_000_000), importFee[usd])
}

func TestSplit_FullyPacked(t *testing.T) {
	exportFee, importFee, ok := Split(MaxExportInputs, map[common.CurrencyID]uint64{usd: 100_000_000})
	require.True(t, ok)
	assert.Equal(t, uint64(74_609_375), exportFee[usd])
	assert.Equal(t, uint64(25_390_625), importFee[usd])
}

func TestSplit_OutOfRange(t *testing.T) {
	_, _, ok := Split(0, map[common.CurrencyID]uint64{usd: 1})
	assert.False(t, ok)

	_, _, ok = Split(MaxExportInputs+1, map[common.CurrencyID]uint64{usd: 1})
	assert.False(t, ok)
}

func TestSplit_NoSatoshiLost(t *testing.T) {
	totals := map[common.CurrencyID]uint64{usd: 999_999_937}
	for n := 1; n <= MaxExportInputs; n++ {
		exportFee, importFee, ok := Split(n, totals)
		require.True(t, ok)
		assert.Equal(t, totals[usd], exportFee[usd]+importFee[usd], "n=%d", n)
	}
}

func TestRatio_MonotonicallyNonDecreasing(t *testing.T) {
	var prev *uint64
	for n := 1; n <= MaxExportInputs; n++ {
		ratio, ok := Ratio(n)
		require.True(t, ok)
		v := ratio.Uint64()
		if prev != nil {
			assert.GreaterOrEqual(t, v, *prev, "n=%d", n)
		}
		prev = &v
	}
}
