package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"martianoff/galamatch/internal/compiler"
)

var (
	resolveType  string
	resolveArity int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve file.yaml",
	Short: "Show how a type decomposes in a scenario's environment",
	Long: `Resolve the decomposition strategy a positional pattern of the given
arity uses against the given static type.

Examples:
  galamatch resolve points.yaml --type Point --arity 2
  galamatch resolve points.yaml -t "(int, int)?" -n 2`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveType, "type", "t", "", "Static type of the matched value")
	resolveCmd.Flags().IntVarP(&resolveArity, "arity", "n", 0, "Number of positional sub-patterns")
	_ = resolveCmd.MarkFlagRequired("type")
}

func runResolve(cmd *cobra.Command, args []string) error {
	f, err := loadFixture(cmd, args[0])
	if err != nil {
		return err
	}
	env, err := f.BuildEnvironment()
	if err != nil {
		return err
	}
	res := compiler.NewCompiler(env, f.CompilerOptions()).Resolver()
	d, err := res.Resolve(env.ParseType(resolveType), resolveArity)
	if err != nil {
		return err
	}
	fmt.Println(d)
	for i, t := range d.ElemTypes {
		fmt.Printf("  [%d] %s\n", i, t)
	}
	for _, msg := range d.Advisories {
		fmt.Printf("  %s\n", paint(ansiYellow, msg))
	}
	return nil
}
