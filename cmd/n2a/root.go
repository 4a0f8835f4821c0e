package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mrclmr/n2a/internal/config"
	"github.com/mrclmr/n2a/internal/log"

	"github.com/spf13/cobra"
)

func ExecuteContext(ctx context.Context, version string) error {
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Version:           version,
		Use:               "n2a",
		Short:             "Render note tones and index audio assets",
		Long:              "Render note tones to audio files and index the audio directory in a JSON manifest.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: autocomplete,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(args[0])
			if err != nil {
				return err
			}
			setLogLevel(cfg.LogLevel)
			return run(cmd.Context(), cfg, newEncoder())
		},
	}

	exampleCmd := &cobra.Command{
		Use:               "example",
		Short:             "Print example yaml configuration",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			example, err := config.Example()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), example)
			return err
		},
	}

	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(newManifestCmd())
	rootCmd.AddCommand(newToneCmd(newEncoder))
	rootCmd.AddCommand(newManCmd(rootCmd))

	return rootCmd
}

func readConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("configuration not found: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0o600)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return config.Parse(f)
}

func setLogLevel(level slog.Level) {
	switch level {
	case slog.LevelInfo:
		slog.SetDefault(slog.New(log.NewMsgHandler(os.Stdout, level)))
	default:
		slog.SetLogLoggerLevel(level)
	}
}

func autocomplete(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var subCmds []string
	for _, name := range []string{"example", "manifest", "tone"} {
		if len(toComplete) > 0 && strings.HasPrefix(name, toComplete) {
			subCmds = append(subCmds, name)
		}
	}
	if len(subCmds) > 0 {
		return subCmds, cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return []string{"yml", "yaml"}, cobra.ShellCompDirectiveFilterFileExt
}
