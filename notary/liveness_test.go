package notary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/currency"
)

func TestVersionMeetsMinimum_NumericNotLexicographic(t *testing.T) {
	// "0.10.0" sorts before "0.6.4" lexicographically but is numerically
	// newer; the comparison must treat it as meeting the floor.
	assert.True(t, VersionMeetsMinimum("0.10.0", VersionFloor))
	assert.True(t, VersionMeetsMinimum("0.6.4", VersionFloor))
	assert.True(t, VersionMeetsMinimum("1.0.0", VersionFloor))
	assert.False(t, VersionMeetsMinimum("0.6.3", VersionFloor))
	assert.False(t, VersionMeetsMinimum("0.5.99", VersionFloor))
}

func TestVersionMeetsMinimum_UnparsableRejected(t *testing.T) {
	assert.False(t, VersionMeetsMinimum("not-a-version", VersionFloor))
	assert.False(t, VersionMeetsMinimum("0.6", VersionFloor))
	assert.False(t, VersionMeetsMinimum("0.6.4", "garbage"))
}

func TestDecodeDefinitionWire_ChainOwnedByDefault(t *testing.T) {
	wire := currencyDefinitionWire{
		IDHex:                 "0x0102030405060708090a0b0c0d0e0f1011121314",
		Name:                  "testchain",
		SystemIDHex:           "0x0000000000000000000000000000000000000a",
		ReserveCurrencyIDsHex: []string{"0x0000000000000000000000000000000000000b"},
		StartBlock:            1000,
		MinPreconvert:         map[string]uint64{"0x0000000000000000000000000000000000000b": 500},
		IDConsensus:           false,
	}

	def, err := decodeDefinitionWire(wire)
	require.NoError(t, err)
	assert.Equal(t, "testchain", def.Name)
	assert.Equal(t, uint64(1000), def.StartBlock)
	assert.Equal(t, currency.ProofProtocolChain, def.ProofProtocol)
	require.Len(t, def.ReserveCurrencyIDs, 1)
}

func TestDecodeDefinitionWire_IDOwnedWhenConsensusFlagged(t *testing.T) {
	wire := currencyDefinitionWire{
		IDHex:       "0x0102030405060708090a0b0c0d0e0f1011121314",
		Name:        "idchain",
		IDConsensus: true,
	}
	def, err := decodeDefinitionWire(wire)
	require.NoError(t, err)
	assert.Equal(t, currency.ProofProtocolID, def.ProofProtocol)
}

func TestDecodeDefinitionWire_RejectsBadHex(t *testing.T) {
	wire := currencyDefinitionWire{IDHex: "not-hex"}
	_, err := decodeDefinitionWire(wire)
	assert.Error(t, err)
}

func TestDecodeDefinitionWire_CarriesPeerNodes(t *testing.T) {
	wire := currencyDefinitionWire{
		IDHex: "0x0102030405060708090a0b0c0d0e0f1011121314",
		Name:  "testchain",
	}
	wire.Nodes = []struct {
		NetworkAddress string `json:"networkaddress"`
	}{
		{NetworkAddress: "10.0.0.1:7770"},
		{NetworkAddress: ""},
	}

	def, err := decodeDefinitionWire(wire)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:7770"}, def.DefaultPeerNodes)
}
