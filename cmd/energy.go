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

	"github.com/notargets/picverify/InputParameters"
	"github.com/notargets/picverify/analysis/Energy"
	"github.com/notargets/picverify/readfiles"
	"github.com/notargets/picverify/snapshot"
)

// EnergyCmd represents the energy command
var EnergyCmd = &cobra.Command{
	Use:   "energy <snapshot>",
	Short: "Compare field and particle energy of a snapshot with the reduced diagnostics",
	Long: `
Computes the kinetic energy of the particles and the energy of the electromagnetic
field in a snapshot and compares both with the values recorded in EF.txt and EP.txt.

picverify energy ./diags/diag1000200 --reducedDir ./diags/reducedfiles`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ep = InputParameters.NewEnergyParameters()
			it int
		)
		if err = processEnergyInput(cmd, ep); err != nil {
			return
		}
		it, _ = cmd.Flags().GetInt("iteration")
		logger := newLogger()
		printParameters(cmd, logger, ep)
		return runCheck("energy", logger, func() error {
			return RunEnergy(args[0], it, ep, logger, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(EnergyCmd)
	EnergyCmd.Flags().StringP("inputParameters", "I", "", "YAML file for input parameters like:\n\t- Species\n\t- FieldTolerance, ParticleTolerance")
	EnergyCmd.Flags().String("reducedDir", "./diags/reducedfiles", "directory holding the reduced diagnostics")
	EnergyCmd.Flags().Int("iteration", -1, "iteration to check, the last one when negative")
}

func processEnergyInput(cmd *cobra.Command, ep *InputParameters.EnergyParameters) (err error) {
	if err = readParameters(cmd, ep); err != nil {
		return
	}
	if cmd.Flags().Changed("reducedDir") {
		ep.ReducedDir, _ = cmd.Flags().GetString("reducedDir")
	}
	return ep.Validate()
}

// openSnapshot opens one iteration of the series at path, the last when it
// is negative. The series is closed after the snapshot is read.
func openSnapshot(path string, it int) (snap snapshot.Snapshot, err error) {
	var (
		series snapshot.Series
	)
	if series, err = readfiles.Open(path); err != nil {
		return
	}
	defer series.Close()
	if it < 0 {
		snap, err = snapshot.Last(series)
	} else {
		snap, err = series.Open(snapshot.Iteration(it))
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
	}
	return
}

func RunEnergy(path string, it int, ep *InputParameters.EnergyParameters, logger *slog.Logger, w io.Writer) (err error) {
	var (
		snap snapshot.Snapshot
	)
	if snap, err = openSnapshot(path, it); err != nil {
		return
	}
	c := Energy.NewChecker(ep)
	c.Logger = logger
	_, err = c.Check(snap, w)
	return
}
