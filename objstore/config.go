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

package objstore

import (
	"fmt"

	"github.com/paperclip-protocol/go-paperclip/kvdb"
)

// Backend names.
const (
	BackendLocal   = "local"
	BackendGateway = "gateway"
	BackendAzure   = "azure"
)

// Config selects and configures an object store backend.
type Config struct {
	Backend    string
	CacheBytes int    `toml:",omitempty"` // hot cache of the local backend
	GatewayURL string `toml:",omitempty"`
	Azure      AzureConfig
}

// DefaultConfig stores objects next to the ledger data.
var DefaultConfig = Config{
	Backend:    BackendLocal,
	CacheBytes: 32 * 1024 * 1024,
}

// Open creates the configured store. db backs the local backend and may be
// nil for the others.
func Open(config Config, db kvdb.KeyValueStore) (Store, error) {
	switch config.Backend {
	case BackendLocal, "":
		if db == nil {
			return nil, fmt.Errorf("local object store needs a database")
		}
		return NewLocal(db, config.CacheBytes), nil
	case BackendGateway:
		return NewGateway(config.GatewayURL), nil
	case BackendAzure:
		return NewAzure(config.Azure)
	default:
		return nil, fmt.Errorf("%w %q", errUnknownStore, config.Backend)
	}
}
