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
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/notargets/picverify/InputParameters"
	"github.com/notargets/picverify/analysis/DivE"
	"github.com/notargets/picverify/readfiles"
	"github.com/notargets/picverify/snapshot"
	"github.com/notargets/picverify/utils"
)

// DivECmd represents the divE command
var DivECmd = &cobra.Command{
	Use:   "divE <diagnostics>",
	Short: "Average divE near an embedded boundary and check it against a tolerance",
	Long: `
Averages the divE diagnostic over a window of recorded iterations, writes an image
of the average and fails when any element exceeds the tolerance.

picverify divE ./diags/diag1 --window 30:50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip = InputParameters.NewDivEParameters()
		)
		if err = processDivEInput(cmd, ip); err != nil {
			return
		}
		logger := newLogger()
		printParameters(cmd, logger, ip)
		return runCheck("divE", logger, func() error {
			return RunDivE(args[0], ip, logger, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(DivECmd)
	DivECmd.Flags().StringP("inputParameters", "I", "", "YAML file for input parameters like:\n\t- NCell\n\t- StartIteration, EndIteration")
	DivECmd.Flags().String("dim", "", "dimensionality: 3d, 2d or rz, found in the test name when not set")
	DivECmd.Flags().String("testName", "", "test name, default is the name of the working directory")
	DivECmd.Flags().Int("start", InputParameters.DefaultStartIteration, "position of the first averaged iteration")
	DivECmd.Flags().Int("end", InputParameters.DefaultEndIteration, "position after the last averaged iteration")
	DivECmd.Flags().String("window", "", "iteration positions as a range like 30:50, instead of --start and --end")
	DivECmd.Flags().Int("ncell", 32, "number of cells along each axis of the averaged plane")
	DivECmd.Flags().String("image", DivE.DefaultImageFile, "image file of the averaged field, empty for none")
	DivECmd.Flags().Float64("tolerance", 0, "tolerance, zero selects the tolerance of the dimensionality")
}

// processDivEInput overlays the input file and then any flags set on the
// command line.
func processDivEInput(cmd *cobra.Command, ip *InputParameters.DivEParameters) (err error) {
	if err = readParameters(cmd, ip); err != nil {
		return
	}
	fl := cmd.Flags()
	if fl.Changed("dim") {
		ip.Dimensionality, _ = fl.GetString("dim")
	}
	if fl.Changed("testName") {
		ip.TestName, _ = fl.GetString("testName")
	}
	if len(ip.TestName) == 0 {
		ip.TestName = defaultTestName()
	}
	if fl.Changed("start") {
		ip.StartIteration, _ = fl.GetInt("start")
	}
	if fl.Changed("end") {
		ip.EndIteration, _ = fl.GetInt("end")
	}
	if fl.Changed("window") {
		ip.Window, _ = fl.GetString("window")
	}
	if fl.Changed("ncell") {
		ip.NCell, _ = fl.GetInt("ncell")
	}
	if fl.Changed("image") {
		ip.ImageFile, _ = fl.GetString("image")
	}
	if fl.Changed("tolerance") {
		ip.Tolerance, _ = fl.GetFloat64("tolerance")
	}
	return ip.Validate()
}

func RunDivE(path string, ip *InputParameters.DivEParameters, logger *slog.Logger, w io.Writer) (err error) {
	var (
		series snapshot.Series
		avg    utils.Matrix
	)
	dim, err := ip.GetDimensionality()
	if err != nil {
		return
	}
	if series, err = readfiles.Open(path); err != nil {
		return
	}
	defer series.Close()
	start, end, err := ip.IterationWindow(len(series.Iterations()))
	if err != nil {
		return
	}
	a := DivE.NewAverager(series, dim, ip.NCell)
	a.Record = ip.Record
	a.SliceAxis = ip.SliceAxis
	a.SlicePosition = ip.SlicePosition
	a.Logger = logger
	if avg, err = a.Average(start, end); err != nil {
		return
	}
	if len(ip.ImageFile) != 0 {
		im := DivE.NewImage(ip.ImageFile)
		im.Extent = utils.Extent(ip.Extent)
		im.BoundaryRadius = ip.BoundaryRadius
		if err = im.Save(avg); err != nil {
			// The image is diagnostic only
			logger.Warn("unable to write image", "file", ip.ImageFile, "error", err)
		}
	}
	return DivE.Report(w, avg, ip.GetTolerance(dim))
}
