package currency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaytn/pbaasd/common"
)

type fakeHost struct {
	defs          map[common.CurrencyID]*Definition
	reserveIn     map[common.CurrencyID]map[common.CurrencyID]uint64
	reserveInCall int
}

func (f *fakeHost) GetCurrencyDefinition(id common.CurrencyID) (*Definition, bool, error) {
	d, ok := f.defs[id]
	if !ok {
		return nil, false, nil
	}
	return d, true, nil
}

func (f *fakeHost) ReserveInAtLaunch(id common.CurrencyID) (map[common.CurrencyID]uint64, error) {
	f.reserveInCall++
	if f.reserveIn == nil {
		return nil, errors.New("no reserve-in data")
	}
	return f.reserveIn[id], nil
}

func TestIsLocal(t *testing.T) {
	thisChain := common.BytesToCurrencyID([]byte("this"))
	local := &Definition{SystemID: thisChain}
	foreign := &Definition{SystemID: common.BytesToCurrencyID([]byte("other"))}
	assert.True(t, IsLocal(local, thisChain))
	assert.False(t, IsLocal(foreign, thisChain))
}

func TestIsPrelaunch(t *testing.T) {
	thisChain := common.BytesToCurrencyID([]byte("this"))
	def := &Definition{SystemID: thisChain, StartBlock: 1000}
	assert.True(t, IsPrelaunch(def, thisChain, 500))
	assert.False(t, IsPrelaunch(def, thisChain, 1000))

	foreign := &Definition{SystemID: common.BytesToCurrencyID([]byte("other")), StartBlock: 1000}
	assert.False(t, IsPrelaunch(foreign, thisChain, 500))
}

func TestResolveSystem(t *testing.T) {
	sys := common.BytesToCurrencyID([]byte("sys"))
	id := common.BytesToCurrencyID([]byte("id"))
	idOwned := &Definition{ID: id, SystemID: sys, ProofProtocol: ProofProtocolID}
	assert.Equal(t, id, ResolveSystem(idOwned, false))
	assert.Equal(t, sys, ResolveSystem(idOwned, true))

	chainOwned := &Definition{ID: id, SystemID: sys, ProofProtocol: ProofProtocolChain}
	assert.Equal(t, sys, ResolveSystem(chainOwned, false))
	assert.Equal(t, sys, ResolveSystem(chainOwned, true))
}

func TestPass_NegativeCacheShortCircuits(t *testing.T) {
	missing := common.BytesToCurrencyID([]byte("missing"))
	host := &fakeHost{defs: map[common.CurrencyID]*Definition{}}
	reg := NewRegistry(host, common.CurrencyID{}, 16)
	pass := reg.NewPass()

	_, ok := pass.Get(missing)
	assert.False(t, ok)
	_, ok = pass.Get(missing)
	assert.False(t, ok)
}

func TestPass_LaunchFailed_MemoizesAcrossCalls(t *testing.T) {
	id := common.BytesToCurrencyID([]byte("usd"))
	reserveCurrency := common.BytesToCurrencyID([]byte("btc"))
	def := &Definition{ID: id, MinPreconvert: map[common.CurrencyID]uint64{reserveCurrency: 1000}}

	host := &fakeHost{
		defs:      map[common.CurrencyID]*Definition{id: def},
		reserveIn: map[common.CurrencyID]map[common.CurrencyID]uint64{id: {reserveCurrency: 1}},
	}
	reg := NewRegistry(host, common.CurrencyID{}, 16)
	pass := reg.NewPass()

	require.True(t, pass.LaunchFailed(def))
	require.True(t, pass.LaunchFailed(def))
	assert.Equal(t, 1, host.reserveInCall, "second call should be memoized, not re-querying the host")
}

func TestPass_LaunchFailed_NoMinimumsNeverFails(t *testing.T) {
	def := &Definition{ID: common.BytesToCurrencyID([]byte("usd"))}
	host := &fakeHost{}
	reg := NewRegistry(host, common.CurrencyID{}, 16)
	pass := reg.NewPass()

	assert.False(t, pass.LaunchFailed(def))
	assert.Equal(t, 0, host.reserveInCall)
}
