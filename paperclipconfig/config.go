// Copyright 2026 The go-paperclip Authors
// This file is part of the go-paperclip library.
//
// The go-paperclip library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-paperclip library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-paperclip library. If not, see <http://www.gnu.org/licenses/>.

// Package paperclipconfig contains the configuration of paperclip clients
// and nodes.
package paperclipconfig

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"time"
	"unicode"

	"github.com/naoina/toml"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/objstore"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// Signer modes.
const (
	SignerLocal     = "local"
	SignerCustodial = "custodial"
	SignerReadOnly  = "readonly"
)

// Built-in server profiles.
const (
	ProfileAccount  = "devnet-account"
	ProfileContract = "devnet-contract"
)

// DefaultThrottle is the inter-call delay of throttled contract reads. Nodes
// with a request-rate ceiling need at least 1/ceiling.
const DefaultThrottle = 250 * time.Millisecond

var errUnknownProfile = errors.New("unknown server profile")

// Profile describes one server: which ledger form it runs and where.
type Profile struct {
	Ledger protocol.Ledger
	URL    string // node RPC endpoint, empty for an in-process node

	Concurrency int           `toml:",omitempty"` // parallel reads
	Throttle    time.Duration `toml:",omitempty"` // sequential reads with this minimum spacing
}

// SignerConfig selects how transactions are signed.
type SignerConfig struct {
	Mode         string
	KeyFile      string `toml:",omitempty"` // hex private key, local mode
	CustodianURL string `toml:",omitempty"`
	WalletID     string `toml:",omitempty"` // provisioned custodial wallet
}

// NodeConfig configures a paperclip node hosting both ledger forms.
type NodeConfig struct {
	DataDir         string // empty keeps everything in memory
	DatabaseCache   int    // leveldb cache, MB
	DatabaseHandles int

	AccountChainID  uint64
	ContractChainID uint64

	HTTPHost    string
	HTTPPort    int
	CORSOrigins []string `toml:",omitempty"`

	// ContractRateLimit caps contract namespace requests per second, zero
	// disables the ceiling.
	ContractRateLimit float64
	ContractRateBurst int

	NATSURL    string `toml:",omitempty"` // event bridge, disabled when empty
	NATSPrefix string

	Custodian bool // also serve the custodial signing service
}

// Config is the full client and node configuration.
type Config struct {
	Profile  string
	Profiles map[string]Profile
	Signer   SignerConfig
	Node     NodeConfig
	Objects  objstore.Config
}

// Defaults contains settings for local devnets.
var Defaults = Config{
	Profile: ProfileAccount,
	Profiles: map[string]Profile{
		ProfileAccount: {
			Ledger:      protocol.LedgerAccount,
			URL:         "http://127.0.0.1:8645",
			Concurrency: 4,
		},
		ProfileContract: {
			Ledger:   protocol.LedgerContract,
			URL:      "http://127.0.0.1:8645",
			Throttle: DefaultThrottle,
		},
	},
	Signer: SignerConfig{Mode: SignerLocal},
	Node: NodeConfig{
		DatabaseCache:     64,
		DatabaseHandles:   128,
		AccountChainID:    101,
		ContractChainID:   202,
		HTTPHost:          "127.0.0.1",
		HTTPPort:          8645,
		ContractRateLimit: 5,
		ContractRateBurst: 5,
		NATSPrefix:        "paperclip",
	},
	Objects: objstore.DefaultConfig,
}

// New returns a copy of Defaults that is safe to modify.
func New() Config {
	cfg := Defaults
	cfg.Profiles = make(map[string]Profile, len(Defaults.Profiles))
	for name, p := range Defaults.Profiles {
		cfg.Profiles[name] = p
	}
	return cfg
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Load reads a TOML file over cfg.
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = Decode(bufio.NewReader(f), cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// Decode reads TOML from r over cfg.
func Decode(r io.Reader, cfg *Config) error {
	return tomlSettings.NewDecoder(r).Decode(cfg)
}

// Dump renders cfg as TOML.
func Dump(cfg *Config) ([]byte, error) {
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(out), nil
}

// Server returns the selected profile.
func (c *Config) Server() (Profile, error) {
	p, ok := c.Profiles[c.Profile]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q, have %v", errUnknownProfile, c.Profile, c.ProfileNames())
	}
	switch p.Ledger {
	case protocol.LedgerAccount, protocol.LedgerContract:
	default:
		return Profile{}, fmt.Errorf("profile %q: unknown ledger %q", c.Profile, p.Ledger)
	}
	if p.Ledger == protocol.LedgerContract && p.Throttle == 0 && p.Concurrency == 0 {
		log.Warn("Contract profile reads concurrently without a throttle", "profile", c.Profile)
	}
	return p, nil
}

// ProfileNames lists the configured profiles.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
