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
)

// ReduceCmd represents the reduce command
var ReduceCmd = &cobra.Command{
	Use:   "reduce <series>",
	Short: "Write the field and particle energy of a series as reduced diagnostics",
	Long: `
Computes the field and particle energy of every iteration of a series and appends
them to EF.txt and EP.txt in the reduced diagnostics layout.

picverify reduce ./diags/diag1 --out ./diags/reducedfiles`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ep = InputParameters.NewEnergyParameters()
		)
		if err = readParameters(cmd, ep); err != nil {
			return
		}
		if err = ep.Validate(); err != nil {
			return
		}
		out, _ := cmd.Flags().GetString("out")
		logger := newLogger()
		printParameters(cmd, logger, ep)
		return runCheck("reduce", logger, func() error {
			return RunReduce(args[0], out, ep, logger, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(ReduceCmd)
	ReduceCmd.Flags().StringP("inputParameters", "I", "", "YAML file for input parameters like:\n\t- Species\n\t- FieldFile, ParticleFile")
	ReduceCmd.Flags().String("out", "./diags/reducedfiles", "directory to write the reduced diagnostics into")
}

func RunReduce(path, out string, ep *InputParameters.EnergyParameters, logger *slog.Logger, w io.Writer) (err error) {
	series, err := readfiles.Open(path)
	if err != nil {
		return
	}
	defer series.Close()
	n, err := Energy.NewReducer(ep, out).Reduce(series)
	if err != nil {
		return
	}
	logger.Info("reduced", "series", path, "rows", n, "out", out)
	fmt.Fprintf(w, "wrote %d rows to %s and %s\n", n, ep.FieldFile, ep.ParticleFile)
	return
}
