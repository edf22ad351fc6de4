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

package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/google/uuid"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// WalletInfo describes a custodial wallet.
type WalletInfo struct {
	ID        string `json:"id"`
	PublicKey string `json:"publicKey"` // hex, compressed
}

// SignRequest asks the custodian to sign a digest. Retrying a request with
// the same RequestID returns the original signature.
type SignRequest struct {
	RequestID string `json:"requestId"`
	Digest    string `json:"digest"` // hex
}

// SignResponse carries a compact signature in hex.
type SignResponse struct {
	Signature string `json:"signature"`
}

// Custodial routes every signature through a custodian service.
type Custodial struct {
	url    string
	wallet string
	pub    *btcec.PublicKey
	client *http.Client
	log    log.Logger
}

// NewCustodial attaches to an existing custodial wallet.
func NewCustodial(ctx context.Context, url, walletID string) (*Custodial, error) {
	c := newCustodial(url)
	var info WalletInfo
	if err := c.do(ctx, http.MethodGet, "/wallets/"+walletID, nil, &info); err != nil {
		return nil, err
	}
	return c, c.attach(&info)
}

// ProvisionCustodial creates a new wallet at the custodian.
func ProvisionCustodial(ctx context.Context, url string) (*Custodial, error) {
	c := newCustodial(url)
	var info WalletInfo
	if err := c.do(ctx, http.MethodPost, "/wallets", nil, &info); err != nil {
		return nil, err
	}
	return c, c.attach(&info)
}

func newCustodial(url string) *Custodial {
	return &Custodial{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.New("custodian", url),
	}
}

func (c *Custodial) attach(info *WalletInfo) error {
	raw, err := hex.DecodeString(info.PublicKey)
	if err != nil {
		return fmt.Errorf("custodian returned bad public key: %v", err)
	}
	pub, err := crypto.DecompressPubkey(raw)
	if err != nil {
		return fmt.Errorf("custodian returned bad public key: %v", err)
	}
	c.wallet, c.pub = info.ID, pub
	c.log.Debug("Attached custodial wallet", "id", info.ID)
	return nil
}

// WalletID returns the custodian's identifier of the wallet.
func (c *Custodial) WalletID() string { return c.wallet }

func (c *Custodial) PublicKey() (*btcec.PublicKey, error) { return c.pub, nil }

// Sign asks the custodian for a signature. A transient failure is retried
// once under the same request id.
func (c *Custodial) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	req := &SignRequest{RequestID: uuid.New().String(), Digest: hex.EncodeToString(digest)}
	var resp SignResponse
	err := c.do(ctx, http.MethodPost, "/wallets/"+c.wallet+"/sign", req, &resp)
	if protocol.IsTransient(err) {
		c.log.Debug("Retrying custodial signature", "request", req.RequestID, "err", err)
		err = c.do(ctx, http.MethodPost, "/wallets/"+c.wallet+"/sign", req, &resp)
	}
	if err != nil {
		return nil, err
	}
	sig, err := hex.DecodeString(resp.Signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("custodian returned bad signature %q", resp.Signature)
	}
	return sig, nil
}

// do performs one JSON request. Network failures and 5xx responses are
// transient; other non-2xx statuses are definitive.
func (c *Custodial) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		enc, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(enc)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return protocol.Transient(err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.Transient(err)
	}
	if resp.StatusCode >= 500 {
		return protocol.Transient(fmt.Errorf("custodian: %s: %s", resp.Status, bytes.TrimSpace(payload)))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("custodian: %s: %s", resp.Status, bytes.TrimSpace(payload))
	}
	return json.Unmarshal(payload, out)
}
