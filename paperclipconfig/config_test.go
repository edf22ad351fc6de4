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

package paperclipconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

func TestDefaultsSelectAccountProfile(t *testing.T) {
	cfg := New()
	p, err := cfg.Server()
	if err != nil {
		t.Fatal(err)
	}
	if p.Ledger != protocol.LedgerAccount {
		t.Fatalf("default ledger: have %s, want %s", p.Ledger, protocol.LedgerAccount)
	}
	if have := cfg.Profiles[ProfileContract].Throttle; have != DefaultThrottle {
		t.Fatalf("contract throttle: have %v, want %v", have, DefaultThrottle)
	}
}

func TestNewCopiesProfiles(t *testing.T) {
	cfg := New()
	cfg.Profiles["extra"] = Profile{Ledger: protocol.LedgerContract}
	if _, ok := Defaults.Profiles["extra"]; ok {
		t.Fatal("modifying a copy changed the defaults")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	data := `
Profile = "staging"

[Profiles.staging]
Ledger = "contract"
URL = "https://rpc.example.com"
Throttle = 500000000

[Signer]
Mode = "custodial"
CustodianURL = "https://custody.example.com"
WalletID = "w-1"
`
	if err := os.WriteFile(file, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := New()
	if err := Load(file, &cfg); err != nil {
		t.Fatal(err)
	}
	p, err := cfg.Server()
	if err != nil {
		t.Fatal(err)
	}
	want := Profile{Ledger: protocol.LedgerContract, URL: "https://rpc.example.com", Throttle: 500 * time.Millisecond}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("profile mismatch (-want +have):\n%s", diff)
	}
	if cfg.Signer.Mode != SignerCustodial || cfg.Signer.WalletID != "w-1" {
		t.Fatalf("signer: %+v", cfg.Signer)
	}
	if _, ok := cfg.Profiles[ProfileAccount]; !ok {
		t.Fatal("built-in profiles lost on load")
	}
	if cfg.Node.HTTPPort != Defaults.Node.HTTPPort {
		t.Fatalf("untouched section changed: %+v", cfg.Node)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(file, []byte("[Node]\nDataDirectory = \"/tmp\"\n"), 0644)
	cfg := New()
	err := Load(file, &cfg)
	if err == nil || !strings.Contains(err.Error(), "DataDirectory") || !strings.Contains(err.Error(), file) {
		t.Fatalf("have %v, want unknown field error naming the file", err)
	}
}

func TestDumpRoundTrip(t *testing.T) {
	cfg := New()
	cfg.Node.CORSOrigins = []string{"https://app.example.com"}
	out, err := Dump(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	loaded := Config{}
	if err := Decode(strings.NewReader(string(out)), &loaded); err != nil {
		t.Fatalf("can't decode dumped config: %v\n%s", err, out)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("dump round trip (-want +have):\n%s", diff)
	}
}

func TestUnknownProfile(t *testing.T) {
	cfg := New()
	cfg.Profile = "mainnet"
	if _, err := cfg.Server(); !errors.Is(err, errUnknownProfile) {
		t.Fatalf("have %v, want %v", err, errUnknownProfile)
	}
	cfg.Profiles["mainnet"] = Profile{Ledger: "utxo"}
	if _, err := cfg.Server(); err == nil {
		t.Fatal("unknown ledger accepted")
	}
}
