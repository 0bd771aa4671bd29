package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"martianoff/galamatch/internal/fixture"
)

var checkVerbose bool

var checkCmd = &cobra.Command{
	Use:   "check [file.yaml|dir]...",
	Short: "Verify scenarios against their expectations",
	Long: `Compile every scenario, run its inputs and compare the analysis with the
scenario's expect block. Directories are searched for *.yaml files.

Examples:
  galamatch check internal/fixture/testdata
  galamatch check pairs.yaml --max-points 16`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "Print diagnostics and verdicts of passing scenarios")
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range paths {
		f, err := loadFixture(cmd, path)
		if err != nil {
			return err
		}
		rep, err := fixture.Verify(f)
		if err != nil {
			return err
		}
		if rep.OK() {
			fmt.Printf("%s %s\n", paint(ansiGreen, "PASS"), f.Name)
		} else {
			failed++
			fmt.Printf("%s %s\n", paint(ansiRed, "FAIL"), f.Name)
		}
		if !rep.OK() || checkVerbose {
			printReport(rep)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(paths))
	}
	return nil
}

func printReport(rep *fixture.Report) {
	if rep.Err != nil {
		fmt.Printf("  compile error: %v\n", strings.TrimSpace(rep.Err.Error()))
	}
	if c := rep.Compiled; c != nil {
		for _, d := range c.Diagnostics {
			fmt.Printf("  %s\n", formatDiagnostic(d))
		}
		v := c.Verdict
		fmt.Printf("  exhaustive: %v", v.Exhaustive)
		if v.Approximate {
			fmt.Print(" (approximate)")
		}
		if len(v.Subsumed) > 0 {
			fmt.Printf(", subsumed arms: %v", v.Subsumed)
		}
		if len(v.Missing) > 0 && !v.Approximate {
			fmt.Printf(", missing: %s", strings.Join(v.Missing, ", "))
		}
		fmt.Printf(", on failure: %s\n", c.Plan.Kind)
	}
	for _, m := range rep.Mismatches {
		fmt.Printf("  %s\n", paint(ansiRed, m))
	}
}

// expandPaths replaces every directory argument by the scenarios it holds.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := fixture.FindFixtures(arg)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			fmt.Fprintf(os.Stderr, "Warning: no scenarios in %s\n", arg)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}
