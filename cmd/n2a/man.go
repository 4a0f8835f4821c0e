package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newManCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man <dir>",
		Short:                 "Generate man pages",
		SilenceUsage:          true,
		Hidden:                true,
		DisableFlagsInUseLine: true,
		Example:               "n2a man . && cat n2a.1",
		Args:                  cobra.ExactArgs(1),
		ValidArgsFunction:     dirCompletion,
		RunE: func(_ *cobra.Command, args []string) error {
			dir := args[0]
			err := os.MkdirAll(dir, 0o755)
			if err != nil {
				return err
			}
			// Section 1 holds user commands.
			header := &doc.GenManHeader{Title: "N2A", Section: "1", Source: "n2a " + rootCmd.Version}
			return doc.GenManTree(rootCmd, header, dir)
		},
	}
}
