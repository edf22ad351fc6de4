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

// paperclip is the command-line client and node of the paperclip protocol.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/urfave/cli.v1"

	"github.com/paperclip-protocol/go-paperclip/log"
	"github.com/paperclip-protocol/go-paperclip/objstore"
)

const clientIdentifier = "paperclip"

var (
	profileFlag = cli.StringFlag{
		Name:  "profile",
		Usage: "Server profile (devnet-account, devnet-contract or a configured one)",
	}
	rpcFlag = cli.StringFlag{
		Name:  "rpc",
		Usage: "Node endpoint, overrides the profile URL",
	}
	localFlag = cli.BoolFlag{
		Name:  "local",
		Usage: "Run against an in-process node on --datadir instead of a remote one",
	}
	throttleFlag = cli.DurationFlag{
		Name:  "throttle",
		Usage: "Minimum spacing of ledger reads, zero reads concurrently",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory of the node, empty keeps state in memory",
	}
	keyFileFlag = cli.StringFlag{
		Name:  "key",
		Usage: "Private key file of the local signer",
	}
	signerFlag = cli.StringFlag{
		Name:  "signer",
		Usage: "Signing mode: local, custodial or readonly",
	}
	custodianURLFlag = cli.StringFlag{
		Name:  "custodian.url",
		Usage: "Custodial signing service endpoint",
	}
	walletIDFlag = cli.StringFlag{
		Name:  "wallet",
		Usage: "Provisioned custodial wallet id",
	}
	objectsFlag = cli.StringFlag{
		Name:  "objects",
		Usage: fmt.Sprintf("Object store backend (%s, %s, %s)", objstore.BackendLocal, objstore.BackendGateway, objstore.BackendAzure),
	}
	gatewayFlag = cli.StringFlag{
		Name:  "objects.gateway",
		Usage: "Object gateway endpoint",
	}
	httpHostFlag = cli.StringFlag{
		Name:  "http.addr",
		Usage: "Node HTTP listening interface",
	}
	httpPortFlag = cli.IntFlag{
		Name:  "http.port",
		Usage: "Node HTTP listening port",
	}
	natsURLFlag = cli.StringFlag{
		Name:  "nats",
		Usage: "NATS server receiving ledger events",
	}
	rateLimitFlag = cli.Float64Flag{
		Name:  "ratelimit",
		Usage: "Contract ledger request ceiling per second, 0 disables it",
	}
	custodianFlag = cli.BoolFlag{
		Name:  "custodian",
		Usage: "Also serve the custodial signing service from the node",
	}
	tableFlag = cli.BoolFlag{
		Name:  "table",
		Usage: "Print results as tables instead of JSON",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 2,
	}
	logJSONFlag = cli.StringFlag{
		Name:  "log.json",
		Usage: "Also write JSON logs to this file",
	}
)

var levels = map[int]slog.Level{
	0: log.LevelCrit + 1,
	1: slog.LevelError,
	2: slog.LevelWarn,
	3: slog.LevelInfo,
	4: slog.LevelDebug,
	5: log.LevelTrace,
}

func newApp(stdout io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Usage = "the paperclip protocol command line interface"
	app.Version = "0.3.0"
	app.Writer = stdout
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{
		configFileFlag,
		profileFlag,
		rpcFlag,
		localFlag,
		throttleFlag,
		dataDirFlag,
		keyFileFlag,
		signerFlag,
		custodianURLFlag,
		walletIDFlag,
		objectsFlag,
		gatewayFlag,
		httpHostFlag,
		httpPortFlag,
		natsURLFlag,
		rateLimitFlag,
		custodianFlag,
		tableFlag,
		verbosityFlag,
		logJSONFlag,
	}
	app.Commands = []cli.Command{
		initCommand,
		registerCommand,
		inviteCommand,
		statusCommand,
		tasksCommand,
		doableCommand,
		submitCommand,
		workCommand,
		taskCommand,
		walletCommand,
		nodeCommand,
		watchCommand,
		custodianCommand,
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Before = setupLogging
	app.After = func(ctx *cli.Context) error {
		if logFile != nil {
			return logFile.Close()
		}
		return nil
	}
	return app
}

var logFile *os.File

func setupLogging(ctx *cli.Context) error {
	cfg := log.Config{Level: slog.LevelWarn}
	if lvl, ok := levels[ctx.GlobalInt(verbosityFlag.Name)]; ok {
		cfg.Level = lvl
	}
	cfg.Caller = cfg.Level <= slog.LevelDebug
	if file := ctx.GlobalString(logJSONFlag.Name); file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		logFile = f
		cfg.JSON = f
	}
	log.Setup(cfg)
	return nil
}

// run executes the command line and reports failures as an error envelope.
// It returns the process exit code.
func run(args []string, stdout io.Writer) int {
	app := newApp(stdout)
	if err := app.Run(args); err != nil {
		writeError(stdout, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args, os.Stdout))
}
