package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"martianoff/galamatch/galaerr"
	"martianoff/galamatch/internal/fixture"
	"martianoff/galamatch/internal/pattern"
)

var runValues []string

var runCmd = &cobra.Command{
	Use:   "run file.yaml",
	Short: "Run values through a scenario's construct",
	Long: `Compile the scenario's construct and run values through it. Without
--value the scenario's own inputs are used.

Examples:
  galamatch run pairs.yaml
  galamatch run pairs.yaml --value '[true, false]' --value '[true, true]'`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runValues, "value", nil, "Value to run, in the scenario value notation (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	f, err := loadFixture(cmd, args[0])
	if err != nil {
		return err
	}
	compiled, _, err := f.Compile()
	if err != nil {
		return fmt.Errorf("compiling %s: %w", f.Name, err)
	}
	for _, d := range compiled.Diagnostics {
		fmt.Printf("%s\n", formatDiagnostic(d))
	}

	var values []any
	if len(runValues) > 0 {
		for _, src := range runValues {
			v, err := fixture.ParseValue(src)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
	} else if values, err = f.InputValues(); err != nil {
		return err
	}

	for _, v := range values {
		out, err := compiled.Run(v)
		label := galaerr.FormatValue(v)
		switch {
		case err != nil:
			fmt.Printf("%s => %s\n", label, paint(ansiRed, err.Error()))
		case !out.Matched:
			fmt.Printf("%s => no match\n", label)
		default:
			fmt.Printf("%s => arm %d", label, out.Arm)
			if out.Result != nil {
				fmt.Printf(", result %v", out.Result)
			}
			if len(out.Bindings) > 0 {
				fmt.Printf(", %s", formatBindings(out.Bindings))
			}
			fmt.Println()
		}
	}
	return nil
}

func formatBindings(b pattern.Bindings) string {
	names := make([]string, 0, len(b))
	for n := range b {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + " = " + galaerr.FormatValue(b[n])
	}
	return strings.Join(parts, ", ")
}
