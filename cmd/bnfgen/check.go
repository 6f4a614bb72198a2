package main

import (
	"fmt"
	"os"

	"github.com/bnfgen/bnfgen/core/checked"
	"github.com/bnfgen/bnfgen/runtime/parser"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var (
		file   string
		start  string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Parse and validate a grammar file without generating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading grammar file: %w", err)
			}

			g, diags, _ := parser.Parse(source)
			if diags.HasErrors() {
				printDiagnostics(diags)
				return fmt.Errorf("found %d syntax error(s)", len(diags))
			}

			var opts []checked.Opt
			if strict {
				opts = append(opts, checked.WithStrict())
			}
			_, verrs := checked.Validate(g, start, opts...)
			if verrs.HasErrors() {
				printDiagnostics(verrs)
				return fmt.Errorf("found %d validation error(s)", len(verrs))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "grammar is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "grammar.bnf", "path to the grammar file")
	cmd.Flags().StringVar(&start, "start", "start", "name of the start rule")
	cmd.Flags().BoolVar(&strict, "strict", false, "also check for unreachable rules and trap loops")
	return cmd
}

func printDiagnostics(diags interface{ Error() string }) {
	fmt.Fprintln(os.Stderr, diags.Error())
}
