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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/paperclip-protocol/go-paperclip/protocol"
)

var heading = color.New(color.FgCyan, color.Bold)

// envelope merges the JSON fields of v into a successful result object.
// Numbers are kept verbatim, balances do not fit a float64.
func envelope(v interface{}) (map[string]interface{}, error) {
	out := map[string]interface{}{"ok": true}
	if v == nil {
		return out, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("result is not an object: %v", err)
	}
	for k, val := range fields {
		out[k] = val
	}
	return out, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// respond prints a command result: a table through render when --table is
// set and the command has a table view, the JSON envelope otherwise.
func respond(ctx *cli.Context, v interface{}, render func(w io.Writer)) error {
	w := ctx.App.Writer
	if render != nil && ctx.GlobalBool(tableFlag.Name) {
		render(w)
		return nil
	}
	out, err := envelope(v)
	if err != nil {
		return err
	}
	return writeJSON(w, out)
}

func writeError(w io.Writer, err error) {
	out := map[string]interface{}{"ok": false, "error": err.Error()}
	var perr *protocol.Error
	if errors.As(err, &perr) {
		out["code"] = perr.Name
	}
	if protocol.IsTransient(err) {
		out["transient"] = true
	}
	if werr := writeJSON(w, out); werr != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
	}
}

func writeFile(file string, data []byte) error {
	return os.WriteFile(file, data, 0600)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

func formatTime(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func formatPrerequisite(p *uint32) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*p), 10)
}

func renderTasks(w io.Writer, title string, tasks []*protocol.Task) {
	heading.Fprintln(w, title)
	table := newTable(w, "ID", "Title", "Reward", "Claims", "Tier", "Requires", "Content")
	for _, t := range tasks {
		table.Append([]string{
			strconv.FormatUint(uint64(t.TaskID), 10),
			t.Title,
			strconv.FormatUint(t.RewardClips, 10),
			fmt.Sprintf("%d/%d", t.CurrentClaims, t.MaxClaims),
			strconv.Itoa(int(t.MinTier)),
			formatPrerequisite(t.Prerequisite),
			t.ContentCID,
		})
	}
	table.Render()
}

func renderPairs(w io.Writer, title string, pairs [][2]string) {
	heading.Fprintln(w, title)
	table := newTable(w, "Field", "Value")
	for _, p := range pairs {
		table.Append(p[:])
	}
	table.Render()
}

func renderClaims(w io.Writer, title string, claims []*protocol.Claim) {
	heading.Fprintln(w, title)
	table := newTable(w, "Task", "Clips", "Proof", "Completed")
	for _, c := range claims {
		table.Append([]string{
			strconv.FormatUint(uint64(c.TaskID), 10),
			strconv.FormatUint(c.ClipsAwarded, 10),
			c.ProofCID,
			formatTime(c.CompletedAt),
		})
	}
	table.Render()
}
