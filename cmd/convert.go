/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/notargets/picverify/readfiles"
	"github.com/notargets/picverify/snapshot"
)

// ConvertCmd represents the convert command
var ConvertCmd = &cobra.Command{
	Use:   "convert <series> <output>",
	Short: "Convert a series between openPMD JSON and netCDF",
	Long: `
Reads every iteration of a series and writes it to a single output file. The
format follows the output extension: .json, .json.zst or .nc.

picverify convert ./diags/diag1 diag1.nc`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		logger := newLogger()
		return runCheck("convert", logger, func() error {
			return RunConvert(args[0], args[1], logger, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(ConvertCmd)
}

func RunConvert(path, out string, logger *slog.Logger, w io.Writer) (err error) {
	var (
		series snapshot.Series
		snaps  []snapshot.Snapshot
	)
	if series, err = readfiles.Open(path); err != nil {
		return
	}
	defer series.Close()
	for _, it := range series.Iterations() {
		var (
			snap snapshot.Snapshot
		)
		if snap, err = series.Open(it); err != nil {
			return
		}
		snaps = append(snaps, snap)
	}
	if len(snaps) == 0 {
		return fmt.Errorf("%s holds no iterations", path)
	}
	switch readfiles.FormatOf(out) {
	case readfiles.FormatOpenPMDJSON:
		err = readfiles.WriteOpenPMDJSON(out, snaps...)
	case readfiles.FormatNetCDF:
		err = readfiles.WriteNetCDF(out, snaps...)
	default:
		err = fmt.Errorf("unknown output format for %s", filepath.Base(out))
	}
	if err != nil {
		return
	}
	logger.Info("converted", "series", path, "iterations", len(snaps), "out", out)
	fmt.Fprintf(w, "wrote %d iterations to %s\n", len(snaps), out)
	return
}
