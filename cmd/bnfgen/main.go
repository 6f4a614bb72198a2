// Command bnfgen is the driver CLI for the BNF-based random string
// generator: `bnfgen check` validates a grammar file, `bnfgen gen`
// derives random strings from it.
//
// Grounded on opal-lang-opal's cli/main.go (cobra root command,
// persistent flags, SilenceErrors with hand-rolled error formatting at
// Execute's boundary) trimmed to this tool's much smaller surface: no
// plan files, no vault, no output scrubbing, since a grammar generator
// has no secrets to protect.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bnfgen",
		Short:         "Validate BNF grammars and generate random strings from them",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newGenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bnfgen: %v\n", err)
		os.Exit(1)
	}
}
