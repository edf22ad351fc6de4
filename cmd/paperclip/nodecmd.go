// Copyright 2026 The go-paperclip Authors
// This file is part of go-paperclip.
//
// go-paperclip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-paperclip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-paperclip. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/urfave/cli.v1"

	"github.com/paperclip-protocol/go-paperclip/custodian"
	"github.com/paperclip-protocol/go-paperclip/event/wsfeed"
	"github.com/paperclip-protocol/go-paperclip/kvdb"
	"github.com/paperclip-protocol/go-paperclip/kvdb/leveldb"
	"github.com/paperclip-protocol/go-paperclip/kvdb/memorydb"
	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/node"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

var (
	nodeCommand = cli.Command{
		Action:   runNode,
		Name:     "node",
		Usage:    "Run a node serving both ledger forms",
		Category: "SERVICE COMMANDS",
		Description: `
Serves the account and contract ledgers over JSON-RPC, the object store
gateway and, with --custodian, the custodial signing service until
interrupted.`,
	}
	allLedgersFlag = cli.BoolFlag{
		Name:  "all",
		Usage: "Follow both ledger forms instead of the profile's",
	}
	watchCommand = cli.Command{
		Action:   watch,
		Name:     "watch",
		Usage:    "Stream ledger events from the node",
		Flags:    []cli.Flag{allLedgersFlag},
		Category: "SERVICE COMMANDS",
		Description: `
Prints one JSON line per protocol event until interrupted.`,
	}
	custodianCommand = cli.Command{
		Action:   runCustodian,
		Name:     "custodian",
		Usage:    "Run a standalone custodial signing service",
		Category: "SERVICE COMMANDS",
	}
)

// waitForSignal blocks until the process is asked to stop.
func waitForSignal() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	sig := <-sigc
	log.Info("Got interrupt, shutting down...", "signal", sig)
}

func runNode(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	n, err := node.New(cfg.Node, cfg.Objects)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		n.Stop()
		return err
	}
	log.Info("Node running", "endpoint", n.Endpoint(), "datadir", cfg.Node.DataDir)
	waitForSignal()
	return n.Stop()
}

func runCustodian(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	var db kvdb.KeyValueStore
	if cfg.Node.DataDir == "" {
		db = memorydb.New()
		log.Warn("Custodian keys are kept in memory only")
	} else {
		if db, err = leveldb.New(filepath.Join(cfg.Node.DataDir, "custodian"), cfg.Node.DatabaseCache, cfg.Node.DatabaseHandles, false); err != nil {
			return err
		}
	}
	defer db.Close()

	addr := fmt.Sprintf("%s:%d", cfg.Node.HTTPHost, cfg.Node.HTTPPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           custodian.New(db).Handler(cfg.Node.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("Custodian server failed", "err", err)
		}
	}()
	log.Info("Custodian running", "endpoint", "http://"+listener.Addr().String())
	waitForSignal()

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdown)
}

func watch(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	profile, err := cfg.Server()
	if err != nil {
		return err
	}
	if profile.URL == "" {
		return errors.New("watch needs a node URL")
	}
	ledger := profile.Ledger
	if ctx.Bool(allLedgersFlag.Name) {
		ledger = ""
	}
	sctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	stream, err := wsfeed.Subscribe(sctx, profile.URL, ledger)
	if err != nil {
		return err
	}
	go func() {
		<-sctx.Done()
		stream.Close()
	}()

	enc := json.NewEncoder(ctx.App.Writer)
	for {
		ev, err := stream.Next()
		if err != nil {
			if sctx.Err() != nil {
				return nil
			}
			return err
		}
		if ctx.GlobalBool(tableFlag.Name) {
			fmt.Fprintf(ctx.App.Writer, "%s %-8s %-16s slot=%d actor=%s%s\n",
				formatTime(ev.Time), ev.Ledger, ev.Kind, ev.Slot, ev.Actor, eventDetail(ev))
			continue
		}
		if err := enc.Encode(map[string]interface{}{"ok": true, "event": ev}); err != nil {
			return err
		}
	}
}

func eventDetail(ev protocol.Event) string {
	var detail string
	if ev.TaskID != nil {
		detail += fmt.Sprintf(" task=%d", *ev.TaskID)
	}
	if ev.Inviter != "" {
		detail += " inviter=" + ev.Inviter
	}
	if ev.Amount != 0 {
		detail += fmt.Sprintf(" clips=%d", ev.Amount)
	}
	return detail
}
