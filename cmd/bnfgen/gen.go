package main

import (
	"fmt"
	"os"

	"github.com/bnfgen/bnfgen/core/checked"
	"github.com/bnfgen/bnfgen/core/rng"
	"github.com/bnfgen/bnfgen/runtime/driver"
	"github.com/bnfgen/bnfgen/runtime/parser"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	var (
		file        string
		start       string
		strict      bool
		configPath  string
		seed        int64
		count       int
		maxSteps    int
		maxAttempts int
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate random strings from a grammar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				cfg.applyDefaults(cmd.Flags(), &start, &seed, &count, &maxSteps, &maxAttempts, &strict)
			}

			run := func() error {
				return generateOnce(cmd, file, start, strict, seed, count, maxSteps, maxAttempts)
			}

			if watch {
				return watchAndRun(file, run)
			}
			return run()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "grammar.bnf", "path to the grammar file")
	cmd.Flags().StringVar(&start, "start", "start", "name of the start rule")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject grammars with unreachable rules or trap loops")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config file overriding these defaults")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for the derivation's random source")
	cmd.Flags().IntVar(&count, "count", 1, "number of strings to generate")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 10000, "step ceiling per derivation attempt (0 = unbounded)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 10, "retry ceiling for recoverable derivation failures")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-generate whenever the grammar file changes")
	return cmd
}

func generateOnce(cmd *cobra.Command, file, start string, strict bool, seed int64, count, maxSteps, maxAttempts int) error {
	source, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading grammar file: %w", err)
	}

	g, diags, _ := parser.Parse(source)
	if diags.HasErrors() {
		printDiagnostics(diags)
		return fmt.Errorf("found %d syntax error(s)", len(diags))
	}

	var vopts []checked.Opt
	if strict {
		vopts = append(vopts, checked.WithStrict())
	}
	cg, verrs := checked.Validate(g, start, vopts...)
	if verrs.HasErrors() {
		printDiagnostics(verrs)
		return fmt.Errorf("found %d validation error(s)", len(verrs))
	}

	src := rng.New(seed)
	var dopts []driver.Opt
	if maxSteps > 0 {
		dopts = append(dopts, driver.WithMaxSteps(maxSteps))
	}
	dopts = append(dopts, driver.WithMaxAttempts(maxAttempts))

	for i := 0; i < count; i++ {
		out, _, err := driver.DeriveString(cg, src, dopts...)
		if err != nil {
			return fmt.Errorf("generating string %d: %w", i+1, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}
