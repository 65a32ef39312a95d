// Package config defines pbaasd's on-disk configuration, following the shape
// of klaytn's node/sc/gen_config.go: a plain struct with hand-written
// MarshalTOML/UnmarshalTOML methods (rather than gencodec-generated ones,
// since no code-generation step runs in this repo) loaded via naoina/toml.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/naoina/toml"

	"github.com/klaytn/pbaasd/common"
)

// Role distinguishes the two operating modes of the submission thread
// (spec §4.I).
type Role string

const (
	RoleNotary Role = "notary"
	RoleChild  Role = "child"
)

// RPCEndpoint describes how to reach a peer daemon's JSON-RPC interface.
type RPCEndpoint struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

func (e RPCEndpoint) URL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

// ChildChainConfig describes one PBaaS chain this process is willing to
// merge-mine for, when running as the notary.
type ChildChainConfig struct {
	ChainID    common.CurrencyID `toml:"-"`
	ChainIDHex string            `toml:"chain_id"`
	Name       string            `toml:"name"`
	RPC        RPCEndpoint       `toml:"rpc"`
}

// Config is the top-level pbaasd configuration.
type Config struct {
	Role Role `toml:"role"`

	ThisChainID    common.CurrencyID `toml:"-"`
	ThisChainIDHex string            `toml:"this_chain_id"`

	PayoutAddress string `toml:"payout_address"`

	// NotaryRPC is consulted only in child mode.
	NotaryRPC RPCEndpoint `toml:"notary_rpc"`

	// ChildChains is consulted only in notary mode.
	ChildChains []ChildChainConfig `toml:"child_chains"`

	MetricsListenAddr string `toml:"metrics_listen_addr"`

	SubmissionIntervalMS int `toml:"submission_interval_ms"`
}

// DefaultConfig mirrors the defaults the teacher's SCConfig carries for its
// analogous fields (short polling interval, loopback metrics listener).
func DefaultConfig() Config {
	return Config{
		Role:                 RoleChild,
		MetricsListenAddr:    "127.0.0.1:9545",
		SubmissionIntervalMS: 3000,
	}
}

// MarshalTOML marshals as TOML, following the gencodec-generated shape of
// node/sc/gen_config.go: an unexported mirror struct carries the wire
// representation of fields that need translation (here, the two hex-string
// ID fields) and is returned for naoina/toml to encode.
func (c Config) MarshalTOML() (interface{}, error) {
	type external Config
	enc := external(c)
	enc.ThisChainIDHex = c.ThisChainID.String()
	enc.ChildChains = make([]ChildChainConfig, len(c.ChildChains))
	copy(enc.ChildChains, c.ChildChains)
	for i := range enc.ChildChains {
		enc.ChildChains[i].ChainIDHex = c.ChildChains[i].ChainID.String()
	}
	return &enc, nil
}

// UnmarshalTOML unmarshals from TOML, resolving the hex-string ID fields
// into their binary common.CurrencyID form after naoina/toml decodes the
// textual representation via the supplied unmarshal callback.
func (c *Config) UnmarshalTOML(unmarshal func(interface{}) error) error {
	type external Config
	dec := external(*c)
	if err := unmarshal(&dec); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	*c = Config(dec)
	if c.ThisChainIDHex != "" {
		id, err := common.HexToAddress(c.ThisChainIDHex)
		if err != nil {
			return fmt.Errorf("config: this_chain_id: %w", err)
		}
		c.ThisChainID = common.CurrencyID(id)
	}
	for i, cc := range c.ChildChains {
		if cc.ChainIDHex == "" {
			continue
		}
		id, err := common.HexToAddress(cc.ChainIDHex)
		if err != nil {
			return fmt.Errorf("config: child_chains[%d].chain_id: %w", i, err)
		}
		c.ChildChains[i].ChainID = common.CurrencyID(id)
	}
	return nil
}

// Load reads and decodes a TOML config file from path, applying
// DefaultConfig first so unspecified fields keep sane defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

// SubmissionInterval returns SubmissionIntervalMS as a time.Duration. The
// submission thread does not read it: its child-mode sleep is the fixed
// coordinator default unless SetChildSleep overrides it.
func (c Config) SubmissionInterval() time.Duration {
	return time.Duration(c.SubmissionIntervalMS) * time.Millisecond
}
