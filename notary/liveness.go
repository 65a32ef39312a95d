package notary

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/klaytn/pbaasd/common"
	"github.com/klaytn/pbaasd/currency"
)

// VersionFloor is the minimum notary version a child chain will treat as
// available (spec §6 "notary-version floor = 0.6.4").
const VersionFloor = "0.6.4"

// VersionMeetsMinimum compares two dotted-decimal version strings
// numerically, not lexicographically — the original source
// (CheckVerusPBaaSAvailable in pbaas.cpp) parses into three integers before
// comparing rather than doing a string compare, so "0.10.0" correctly
// outranks "0.6.4" despite sorting earlier as a string.
func VersionMeetsMinimum(reported, floor string) bool {
	rv, ok := parseVersion(reported)
	if !ok {
		return false
	}
	fv, ok := parseVersion(floor)
	if !ok {
		return false
	}
	for i := 0; i < 3; i++ {
		if rv[i] != fv[i] {
			return rv[i] > fv[i]
		}
	}
	return true
}

func parseVersion(s string) ([3]int, bool) {
	var out [3]int
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return out, false
	}
	for i, p := range parts {
		digits := strings.TrimFunc(p, func(r rune) bool { return !unicode.IsDigit(r) })
		n, err := strconv.Atoi(digits)
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

// Liveness is the result of one notary probe (spec §4.J).
type Liveness struct {
	Version      string
	Height       uint64
	Available    bool
	ReadyToStart bool
}

// Prober polls a single notary endpoint on behalf of a child chain.
type Prober struct {
	rpc          *RPCClient
	notary       Endpoint
	versionFloor string
	thisChainID  common.CurrencyID
	startBlock   uint64
}

// NewProber builds a Prober for a child chain whose own definition names
// startBlock as its block-1 activation height (spec §4.J "once the
// notary's height reaches this.start_block, sets readyToStart = true").
func NewProber(rpc *RPCClient, notaryEndpoint Endpoint, thisChainID common.CurrencyID, startBlock uint64) *Prober {
	return &Prober{
		rpc:          rpc,
		notary:       notaryEndpoint,
		versionFloor: VersionFloor,
		thisChainID:  thisChainID,
		startBlock:   startBlock,
	}
}

type getInfoResult struct {
	VRSCVersion string `json:"VRSCversion"`
	Blocks      uint64 `json:"blocks"`
}

// Probe calls getinfo against the notary and classifies the result.
func (p *Prober) Probe() (*Liveness, error) {
	var info getInfoResult
	if err := p.rpc.Call(p.notary, "getinfo", nil, &info); err != nil {
		return nil, fmt.Errorf("notary: probe failed: %w", err)
	}
	live := &Liveness{
		Version:   info.VRSCVersion,
		Height:    info.Blocks,
		Available: VersionMeetsMinimum(info.VRSCVersion, p.versionFloor),
	}
	live.ReadyToStart = live.Available && live.Height >= p.startBlock
	return live, nil
}

type currencyDefinitionWire struct {
	IDHex                 string            `json:"currencyid"`
	Name                  string            `json:"name"`
	ParentIDHex           string            `json:"parent"`
	SystemIDHex           string            `json:"systemid"`
	ReserveCurrencyIDsHex []string          `json:"reservecurrencyids"`
	StartBlock            uint64            `json:"startblock"`
	MinPreconvert         map[string]uint64 `json:"minpreconversion"`
	IDConsensus           bool              `json:"idconsensus"`
	Nodes                 []struct {
		NetworkAddress string `json:"networkaddress"`
	} `json:"nodes"`
}

// RefreshChildDefinition pulls this chain's own currency definition from
// the notary (spec §4.J "before this chain's block 1, additionally
// refreshes the child's own definition from the notary").
func (p *Prober) RefreshChildDefinition(chainName string) (*currency.Definition, error) {
	var wire currencyDefinitionWire
	if err := p.rpc.Call(p.notary, "getcurrencydefinition", []interface{}{chainName}, &wire); err != nil {
		return nil, fmt.Errorf("notary: refresh definition: %w", err)
	}
	return decodeDefinitionWire(wire)
}

func decodeDefinitionWire(wire currencyDefinitionWire) (*currency.Definition, error) {
	id, err := common.HexToAddress(wire.IDHex)
	if err != nil {
		return nil, fmt.Errorf("notary: currencyid: %w", err)
	}
	var parent, system common.Address
	if wire.ParentIDHex != "" {
		if parent, err = common.HexToAddress(wire.ParentIDHex); err != nil {
			return nil, fmt.Errorf("notary: parent: %w", err)
		}
	}
	if wire.SystemIDHex != "" {
		if system, err = common.HexToAddress(wire.SystemIDHex); err != nil {
			return nil, fmt.Errorf("notary: systemid: %w", err)
		}
	}
	reserves := make([]common.CurrencyID, 0, len(wire.ReserveCurrencyIDsHex))
	for _, h := range wire.ReserveCurrencyIDsHex {
		a, err := common.HexToAddress(h)
		if err != nil {
			return nil, fmt.Errorf("notary: reservecurrencyids: %w", err)
		}
		reserves = append(reserves, common.CurrencyID(a))
	}
	minPreconvert := make(map[common.CurrencyID]uint64, len(wire.MinPreconvert))
	for h, v := range wire.MinPreconvert {
		a, err := common.HexToAddress(h)
		if err != nil {
			return nil, fmt.Errorf("notary: minpreconversion: %w", err)
		}
		minPreconvert[common.CurrencyID(a)] = v
	}
	proto := currency.ProofProtocolChain
	if wire.IDConsensus {
		proto = currency.ProofProtocolID
	}
	nodes := make([]string, 0, len(wire.Nodes))
	for _, n := range wire.Nodes {
		if n.NetworkAddress != "" {
			nodes = append(nodes, n.NetworkAddress)
		}
	}
	return &currency.Definition{
		ID:                 common.CurrencyID(id),
		Name:               wire.Name,
		ParentID:           common.CurrencyID(parent),
		SystemID:           common.CurrencyID(system),
		ReserveCurrencyIDs: reserves,
		StartBlock:         wire.StartBlock,
		MinPreconvert:      minPreconvert,
		ProofProtocol:      proto,
		DefaultPeerNodes:   nodes,
	}, nil
}
