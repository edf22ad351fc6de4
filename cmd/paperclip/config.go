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
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"github.com/paperclip-protocol/go-paperclip/objstore"
	"github.com/paperclip-protocol/go-paperclip/paperclipconfig"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "",
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// makeConfig loads the configuration: defaults, then the config file, then
// flags.
func makeConfig(ctx *cli.Context) (*paperclipconfig.Config, error) {
	// Load defaults.
	cfg := paperclipconfig.New()

	// Load config file.
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := paperclipconfig.Load(file, &cfg); err != nil {
			return nil, err
		}
	}

	// Apply flags.
	if ctx.GlobalIsSet(profileFlag.Name) {
		cfg.Profile = ctx.GlobalString(profileFlag.Name)
	}
	profile, ok := cfg.Profiles[cfg.Profile]
	if ok {
		if ctx.GlobalIsSet(rpcFlag.Name) {
			profile.URL = ctx.GlobalString(rpcFlag.Name)
		}
		if ctx.GlobalBool(localFlag.Name) {
			profile.URL = ""
		}
		if ctx.GlobalIsSet(throttleFlag.Name) {
			profile.Throttle = ctx.GlobalDuration(throttleFlag.Name)
		}
		cfg.Profiles[cfg.Profile] = profile
	}
	setSignerConfig(ctx, &cfg.Signer)
	setNodeConfig(ctx, &cfg.Node)
	setObjectsConfig(ctx, &cfg.Objects)
	return &cfg, nil
}

func setSignerConfig(ctx *cli.Context, cfg *paperclipconfig.SignerConfig) {
	if ctx.GlobalIsSet(signerFlag.Name) {
		cfg.Mode = ctx.GlobalString(signerFlag.Name)
	}
	if ctx.GlobalIsSet(keyFileFlag.Name) {
		cfg.KeyFile = ctx.GlobalString(keyFileFlag.Name)
	}
	if ctx.GlobalIsSet(custodianURLFlag.Name) {
		cfg.CustodianURL = ctx.GlobalString(custodianURLFlag.Name)
	}
	if ctx.GlobalIsSet(walletIDFlag.Name) {
		cfg.WalletID = ctx.GlobalString(walletIDFlag.Name)
	}
}

func setNodeConfig(ctx *cli.Context, cfg *paperclipconfig.NodeConfig) {
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(httpHostFlag.Name) {
		cfg.HTTPHost = ctx.GlobalString(httpHostFlag.Name)
	}
	if ctx.GlobalIsSet(httpPortFlag.Name) {
		cfg.HTTPPort = ctx.GlobalInt(httpPortFlag.Name)
	}
	if ctx.GlobalIsSet(natsURLFlag.Name) {
		cfg.NATSURL = ctx.GlobalString(natsURLFlag.Name)
	}
	if ctx.GlobalIsSet(rateLimitFlag.Name) {
		cfg.ContractRateLimit = ctx.GlobalFloat64(rateLimitFlag.Name)
	}
	if ctx.GlobalBool(custodianFlag.Name) {
		cfg.Custodian = true
	}
}

func setObjectsConfig(ctx *cli.Context, cfg *objstore.Config) {
	if ctx.GlobalIsSet(objectsFlag.Name) {
		cfg.Backend = ctx.GlobalString(objectsFlag.Name)
	}
	if ctx.GlobalIsSet(gatewayFlag.Name) {
		cfg.GatewayURL = ctx.GlobalString(gatewayFlag.Name)
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := paperclipconfig.Dump(cfg)
	if err != nil {
		return err
	}
	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		return writeFile(ctx.Args().Get(0), append(out, '\n'))
	}
	_, err = fmt.Fprintf(dump, "%s\n", out)
	return err
}
