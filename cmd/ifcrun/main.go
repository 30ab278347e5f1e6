// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ifcrun loads a code-object table and runs one code object from
// it under a host.Transaction, printing the labeled return value (or the
// failure kind, per §7, if the transaction aborted). It is the IFC-core
// analog of wagon's cmd/wasm-run, swapped from a WebAssembly module file
// plus exported functions onto a gob-encoded code-object table plus a
// chosen entry ID.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/bichhawat/ifc4bc-sub000/internal/config"
	"github.com/bichhawat/ifc4bc-sub000/internal/label"
	"github.com/bichhawat/ifc4bc-sub000/internal/loader"
	"github.com/bichhawat/ifc4bc-sub000/internal/metrics"
	"github.com/bichhawat/ifc4bc-sub000/value"

	"github.com/bichhawat/ifc4bc-sub000/host"
)

func main() {
	app := &cli.App{
		Name:      "ifcrun",
		Usage:     "run a code object from a code-object table under the IFC dispatcher",
		UsageText: "ifcrun [options] table.gob",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "entry", Usage: "code-object ID to run (defaults to the table's first entry)"},
			&cli.StringFlag{Name: "origin", Value: "https://ifcrun.local/entry.js", Usage: "origin URL entry arguments are labeled with"},
			&cli.StringSliceFlag{Name: "arg", Usage: "an integer argument register value; repeatable"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ifcrun:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("missing table file argument", 1)
	}
	tablePath := c.Args().Get(0)

	logger, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("ifcrun: building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	tbl, err := loader.Open(tablePath)
	if err != nil {
		return fmt.Errorf("ifcrun: %w", err)
	}
	defer tbl.Close()

	if len(tbl.Objects) == 0 {
		return cli.Exit("table has no code objects", 1)
	}

	co := tbl.Objects[0]
	if entry := c.String("entry"); entry != "" {
		found, ok := tbl.ByID(entry)
		if !ok {
			return cli.Exit(fmt.Sprintf("no code object with ID %q", entry), 1)
		}
		co = found
	}

	args, err := parseArgs(c.StringSlice("arg"))
	if err != nil {
		return fmt.Errorf("ifcrun: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ifcrun: loading config: %w", err)
	}

	origins := label.NewRegistry(cfg.LabelMapSize)
	tx := host.New(origins, arithHost{}, logger, metrics.NewUnregistered(), cfg)

	ret, err := tx.Run(co, args, c.String("origin"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("transaction aborted: %v", err), 1)
	}

	fmt.Printf("%v (label: %+v)\n", ret.V, ret.Label)
	return nil
}

func parseArgs(raw []string) ([]value.Labeled[value.Value], error) {
	args := make([]value.Labeled[value.Value], 0, len(raw))
	for _, s := range raw {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("parsing -arg %q: %w", s, err)
		}
		args = append(args, value.NewLabeled[value.Value](n, label.Bottom()))
	}
	return args, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
