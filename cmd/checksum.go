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

	"github.com/spf13/cobra"

	"github.com/notargets/picverify/analysis/Checksum"
	"github.com/notargets/picverify/snapshot"
)

// ChecksumCmd represents the checksum command
var ChecksumCmd = &cobra.Command{
	Use:   "checksum <snapshot>",
	Short: "Compare the checksum of a snapshot with a stored benchmark",
	Long: `
Sums the absolute values of every mesh component and particle quantity in a
snapshot and compares the sums with the benchmark <benchmarkDir>/<testName>.json.
With --reset the benchmark is replaced instead.

picverify checksum ./diags/diag1000200 --testName reduced_diags`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			fl = cmd.Flags()
			b  = Checksum.NewBenchmark(Checksum.DefaultBenchmarks, "")
		)
		b.TestName, _ = fl.GetString("testName")
		if len(b.TestName) == 0 {
			b.TestName = defaultTestName()
		}
		b.Dir, _ = fl.GetString("benchmarkDir")
		b.RTol, _ = fl.GetFloat64("rtol")
		b.ATol, _ = fl.GetFloat64("atol")
		reset, _ := fl.GetBool("reset")
		it, _ := fl.GetInt("iteration")
		logger := newLogger()
		return runCheck("checksum", logger, func() error {
			return RunChecksum(args[0], it, b, reset, logger, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(ChecksumCmd)
	ChecksumCmd.Flags().String("testName", "", "benchmark name, default is the name of the working directory")
	ChecksumCmd.Flags().String("benchmarkDir", Checksum.DefaultBenchmarks, "directory of the benchmark files")
	ChecksumCmd.Flags().Float64("rtol", Checksum.DefaultRTol, "relative tolerance")
	ChecksumCmd.Flags().Float64("atol", Checksum.DefaultATol, "absolute tolerance")
	ChecksumCmd.Flags().Bool("reset", false, "replace the benchmark with the checksum of the snapshot")
	ChecksumCmd.Flags().Int("iteration", -1, "iteration to check, the last one when negative")
}

func RunChecksum(path string, it int, b *Checksum.Benchmark, reset bool, logger *slog.Logger, w io.Writer) (err error) {
	var (
		snap snapshot.Snapshot
		cs   Checksum.Checksum
	)
	if snap, err = openSnapshot(path, it); err != nil {
		return
	}
	if cs, err = Checksum.Compute(snap); err != nil {
		return
	}
	if reset {
		if err = b.Reset(cs); err != nil {
			return
		}
		logger.Info("benchmark reset", "file", b.FileName())
		fmt.Fprintf(w, "benchmark %s reset\n", b.FileName())
		return
	}
	if err = b.Evaluate(cs); err != nil {
		return
	}
	fmt.Fprintf(w, "checksum of %s matches benchmark %s\n", path, b.FileName())
	return
}
