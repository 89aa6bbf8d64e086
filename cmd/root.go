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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/picverify/InputParameters"
	"github.com/notargets/picverify/utils"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "picverify",
	Short: "Verification checks for particle-in-cell simulation output",
	Long: `
Post processing checks run against the diagnostics written by a particle-in-cell
simulation. Each check reads the simulation output, compares it against a
tolerance and exits non-zero on failure.

picverify divE ./diags/diag1
picverify energy ./diags/diag1000200`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.picverify.yaml)")
	rootCmd.PersistentFlags().String("logLevel", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("profile", "", "directory to write a CPU profile into")
	rootCmd.PersistentFlags().Bool("perf", false, "count CPU instructions used by the check (linux only)")
	for _, name := range []string{"logLevel", "profile", "perf"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		// Search config in home directory with name ".picverify" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".picverify")
	}
	viper.SetEnvPrefix("picverify")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		newLogger().Debug("using config file", "file", viper.ConfigFileUsed())
	}
}

func newLogger() *slog.Logger {
	return utils.NewLogger(viper.GetString("logLevel"), os.Stderr)
}

// runCheck runs fn under the profiler and instruction counter selected by
// the global flags.
func runCheck(name string, logger *slog.Logger, fn func() error) (err error) {
	if dir := viper.GetString("profile"); len(dir) != 0 {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet).Stop()
	}
	defer func() {
		logger.Debug("memory", append([]any{"check", name}, utils.MemUsage()...)...)
	}()
	if viper.GetBool("perf") {
		return countInstructions(name, logger, fn)
	}
	return fn()
}

// printParameters writes the parameters of a check to stderr at debug level
func printParameters(cmd *cobra.Command, logger *slog.Logger, ip interface{ Print(io.Writer) }) {
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		ip.Print(cmd.ErrOrStderr())
	}
}

// readParameters overlays an optional YAML input file on the defaults
func readParameters(cmd *cobra.Command, ip interface{ Parse([]byte) error }) (err error) {
	var (
		fileName string
	)
	if fileName, err = cmd.Flags().GetString("inputParameters"); err != nil {
		return
	}
	if len(fileName) == 0 {
		return
	}
	return InputParameters.ReadFile(fileName, ip)
}

// defaultTestName is the base name of the working directory, where the
// simulation runs each test.
func defaultTestName() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}
