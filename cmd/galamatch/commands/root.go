// Package commands provides the CLI commands for the galamatch tool.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"martianoff/galamatch/internal/fixture"
)

var (
	maxPoints int
	method    string
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "galamatch",
	Short: "Positional pattern resolution and match coverage checker",
	Long: `galamatch compiles match constructs described in YAML scenario files.

This tool provides:
  - Coverage analysis: exhaustiveness, subsumed arms, missing inputs
  - Decomposition resolution for positional patterns
  - Evaluation of inputs against the compiled construct

Usage:
  galamatch check [file.yaml|dir]...    Verify scenarios against their expectations
  galamatch run file.yaml               Run the inputs of a scenario
  galamatch resolve file.yaml -t T -n 2 Show how T decomposes into 2 elements
  galamatch version                     Print version`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().IntVar(&maxPoints, "max-points", 0, "Coverage enumeration cap (overrides the scenario)")
	rootCmd.PersistentFlags().StringVar(&method, "method", "", "Decomposition method name (overrides the scenario)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

// loadFixture reads a scenario and applies the global flag overrides.
func loadFixture(cmd *cobra.Command, path string) (*fixture.Fixture, error) {
	f, err := fixture.LoadFixture(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("max-points") {
		f.Options.MaxPoints = maxPoints
	}
	if method != "" {
		f.Options.Method = method
	}
	return f, nil
}
