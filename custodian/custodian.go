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

// Package custodian is a reference custodial signing service. It provisions
// wallets, keeps their keys, and signs digests on behalf of clients.
package custodian

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/patrickmn/go-cache"
	"github.com/paperclip-protocol/go-paperclip/crypto"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/signer"
	"github.com/rs/cors"
)

// requestTTL bounds how long a signature is remembered for retries.
const requestTTL = 10 * time.Minute

var (
	errUnknownWallet = errors.New("unknown wallet")
	errBadRequest    = errors.New("malformed sign request")
)

// Service holds wallet keys in a key-value store.
type Service struct {
	db       kvdb.KeyValueStore
	mu       sync.Mutex
	requests *cache.Cache // request id -> hex signature
	log      log.Logger
}

// New creates a service persisting keys in db.
func New(db kvdb.KeyValueStore) *Service {
	return &Service{
		db:       db,
		requests: cache.New(requestTTL, 2*requestTTL),
		log:      log.New("service", "custodian"),
	}
}

// CreateWallet provisions a fresh wallet.
func (s *Service) CreateWallet() (*signer.WalletInfo, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	id := uuid.New().String()
	if err := s.db.Put([]byte(id), key.Serialize()); err != nil {
		return nil, err
	}
	s.log.Info("Provisioned wallet", "id", id)
	return walletInfo(id, key), nil
}

func walletInfo(id string, key *btcec.PrivateKey) *signer.WalletInfo {
	return &signer.WalletInfo{ID: id, PublicKey: hex.EncodeToString(crypto.CompressPubkey(key.PubKey()))}
}

func (s *Service) key(id string) (*btcec.PrivateKey, error) {
	raw, err := s.db.Get([]byte(id))
	if err == kvdb.ErrNotFound {
		return nil, errUnknownWallet
	}
	if err != nil {
		return nil, err
	}
	return crypto.ToECDSA(raw)
}

// Wallet returns the public description of a wallet.
func (s *Service) Wallet(id string) (*signer.WalletInfo, error) {
	key, err := s.key(id)
	if err != nil {
		return nil, err
	}
	return walletInfo(id, key), nil
}

// Sign signs a digest. Repeating a request id returns the first signature
// instead of signing again.
func (s *Service) Sign(id string, req *signer.SignRequest) (*signer.SignResponse, error) {
	digest, err := hex.DecodeString(req.Digest)
	if err != nil || len(digest) != crypto.DigestLength || req.RequestID == "" {
		return nil, errBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cacheKey := id + "/" + req.RequestID
	if sig, ok := s.requests.Get(cacheKey); ok {
		return &signer.SignResponse{Signature: sig.(string)}, nil
	}
	key, err := s.key(id)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, err
	}
	enc := hex.EncodeToString(sig)
	s.requests.Set(cacheKey, enc, cache.DefaultExpiration)
	s.log.Debug("Signed digest", "wallet", id, "request", req.RequestID)
	return &signer.SignResponse{Signature: enc}, nil
}

// Handler returns the HTTP interface of the service.
func (s *Service) Handler(corsOrigins []string) http.Handler {
	router := httprouter.New()
	router.POST("/wallets", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		info, err := s.CreateWallet()
		respond(w, info, err)
	})
	router.GET("/wallets/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		info, err := s.Wallet(ps.ByName("id"))
		respond(w, info, err)
	})
	router.POST("/wallets/:id/sign", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var req signer.SignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond(w, nil, errBadRequest)
			return
		}
		resp, err := s.Sign(ps.ByName("id"), &req)
		respond(w, resp, err)
	})
	if len(corsOrigins) == 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)
}

func respond(w http.ResponseWriter, v interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case err == errUnknownWallet:
		w.WriteHeader(http.StatusNotFound)
		v = map[string]string{"error": err.Error()}
	case err == errBadRequest:
		w.WriteHeader(http.StatusBadRequest)
		v = map[string]string{"error": err.Error()}
	case err != nil:
		log.Error("Custodian request failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		v = map[string]string{"error": err.Error()}
	}
	json.NewEncoder(w).Encode(v)
}
