package chainobj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/transfer"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	objs := []Object{
		&ProofRoot{Digest: common.BytesToHash([]byte("some-merkle-root"))},
		&ReserveTransferObject{Transfer: &transfer.Transfer{
			SourceCurrencyID: common.BytesToCurrencyID([]byte("USD")),
			DestCurrencyID:   common.BytesToCurrencyID([]byte("EUR")),
			DestAddress:      "RAddress1234",
			Amount:           1_000_000,
			Fee:              1000,
			Flags:            transfer.FlagValid,
			TxHash:           common.BytesToHash([]byte("txhash")),
			OutputIndex:      2,
			UTXOValue:        1_001_000,
		}},
		NewOpaque(KindBlockHeaderRef, []byte{0xde, 0xad, 0xbe, 0xef}),
	}

	blob := Encode(objs)
	require.NotNil(t, blob)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.Len(t, decoded, 3)

	root, ok := decoded[0].(*ProofRoot)
	require.True(t, ok)
	assert.Equal(t, objs[0].Hash(), root.Hash())

	rt, ok := decoded[1].(*ReserveTransferObject)
	require.True(t, ok)
	assert.Equal(t, "RAddress1234", rt.Transfer.DestAddress)
	assert.Equal(t, uint64(1_000_000), rt.Transfer.Amount)

	op, ok := decoded[2].(*Opaque)
	require.True(t, ok)
	assert.Equal(t, KindBlockHeaderRef, op.Kind())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, op.Body())
}

func TestEncode_EmptySequence(t *testing.T) {
	assert.Nil(t, Encode(nil))
	assert.Nil(t, Encode([]Object{}))
}

func TestDecode_RejectsBadMarker(t *testing.T) {
	blob := []byte{0x00, 0x00, 0x00, 0x02}
	_, err := Decode(blob)
	assert.ErrorIs(t, err, errBadMarker)
}

func TestDecode_RejectsTruncatedStream(t *testing.T) {
	objs := []Object{&ProofRoot{Digest: common.BytesToHash([]byte("x"))}}
	blob := Encode(objs)
	truncated := blob[:len(blob)-5]

	_, err := Decode(truncated)
	assert.Error(t, err)
}

func TestDecode_RejectsUnknownKind(t *testing.T) {
	blob := Encode([]Object{&ProofRoot{Digest: common.BytesToHash([]byte("x"))}})
	// Overwrite the tag byte (first byte after the 4-byte marker) with an
	// out-of-range kind.
	corrupt := append([]byte(nil), blob...)
	corrupt[4] = 0xff

	_, err := Decode(corrupt)
	assert.ErrorIs(t, err, errUnknownKind)
}

func TestProofRoot_HashIsDigest(t *testing.T) {
	digest := common.BytesToHash([]byte("merkle-root-bytes"))
	p := &ProofRoot{Digest: digest}
	assert.Equal(t, digest, p.Hash())
}
