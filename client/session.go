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

package client

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/paperclip-protocol/go-paperclip/adapter"
	accountadapter "github.com/paperclip-protocol/go-paperclip/adapter/account"
	contractadapter "github.com/paperclip-protocol/go-paperclip/adapter/contract"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/ledger/account"
	"github.com/paperclip-protocol/go-paperclip/ledger/contract"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/node"
	"github.com/paperclip-protocol/go-paperclip/objstore"
	"github.com/paperclip-protocol/go-paperclip/paperclipconfig"
	"github.com/paperclip-protocol/go-paperclip/protocol"
	"github.com/paperclip-protocol/go-paperclip/signer"
)

var errNoNode = errors.New("profile has no URL and no local node is running")

// OpenSigner selects the signing strategy of a session. A session whose
// wallet has not been set up yet gets a read-only signer, so status and
// listing keep working before registration.
func OpenSigner(ctx context.Context, config paperclipconfig.SignerConfig) (signer.Signer, error) {
	switch config.Mode {
	case paperclipconfig.SignerLocal, "":
		if config.KeyFile == "" {
			log.Debug("No key file configured, using read-only mode")
			return signer.NewReadOnly(nil), nil
		}
		key, err := crypto.LoadECDSA(config.KeyFile)
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Key file not found, using read-only mode", "file", config.KeyFile)
			return signer.NewReadOnly(nil), nil
		}
		if err != nil {
			return nil, fmt.Errorf("key file %s: %v", config.KeyFile, err)
		}
		return signer.NewLocal(key), nil

	case paperclipconfig.SignerCustodial:
		if config.WalletID == "" {
			log.Warn("No custodial wallet provisioned, using read-only mode")
			return signer.NewReadOnly(nil), nil
		}
		return signer.NewCustodial(ctx, config.CustodianURL, config.WalletID)

	case paperclipconfig.SignerReadOnly:
		return signer.NewReadOnly(nil), nil

	default:
		return nil, fmt.Errorf("unknown signer mode %q", config.Mode)
	}
}

// Open connects a session to the configured server profile. Profiles without
// a URL run against local, which may then not be nil.
func Open(ctx context.Context, config *paperclipconfig.Config, s signer.Signer, local *node.Node) (*Client, error) {
	profile, err := config.Server()
	if err != nil {
		return nil, err
	}
	var (
		ledger  adapter.Adapter
		objects objstore.Store
	)
	if profile.URL == "" && local == nil {
		return nil, errNoNode
	}
	switch profile.Ledger {
	case protocol.LedgerAccount:
		var backend account.Backend
		if profile.URL == "" {
			backend = local.AccountAPI()
		} else if backend, err = account.Dial(profile.URL); err != nil {
			return nil, err
		}
		ledger, err = accountadapter.New(ctx, backend, s)

	case protocol.LedgerContract:
		var backend contract.Backend
		if profile.URL == "" {
			backend = local.ContractAPI()
		} else if backend, err = contract.Dial(profile.URL); err != nil {
			return nil, err
		}
		ledger, err = contractadapter.New(ctx, backend, s, contractadapter.Config{
			Concurrency: profile.Concurrency,
			Throttle:    profile.Throttle,
		})
	}
	if err != nil {
		return nil, err
	}

	switch {
	case config.Objects.Backend != objstore.BackendLocal && config.Objects.Backend != "":
		objects, err = objstore.Open(config.Objects, nil)
	case profile.URL == "":
		objects = local.Objects()
	default:
		// Nodes serve their local store through the gateway protocol.
		objects = objstore.NewGateway(profile.URL)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("Opened session", "profile", config.Profile, "ledger", profile.Ledger, "url", profile.URL)
	return New(ledger, objects), nil
}
