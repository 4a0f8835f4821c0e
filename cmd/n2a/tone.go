package cmd

import (
	"log/slog"

	"github.com/mrclmr/n2a/internal/audio"
	"github.com/mrclmr/n2a/internal/note"
	"github.com/mrclmr/n2a/internal/synth"

	"github.com/spf13/cobra"
)

func newToneCmd(newEncoder func() audio.Encoder) *cobra.Command {
	var (
		decay   float64
		outOpus string
		outMp3  string
	)
	toneCmd := &cobra.Command{
		Use:               "tone <note>",
		Short:             "Render a single note",
		Example:           "n2a tone A4 --out-mp3 .",
		SilenceUsage:      true,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: noteCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := note.Parse(args[0])
			if err != nil {
				return err
			}
			setLogLevel(logLevel(cmd))

			targets := audio.DefaultTargets()
			targets[0].Dir = outOpus
			targets[1].Dir = outMp3

			creator := audio.NewToneCreator(newEncoder(), synth.DefaultParams(), 1)
			_, err = creator.Make(cmd.Context(), n, decay, targets)
			return err
		},
	}
	toneCmd.Flags().Float64Var(&decay, "decay", 1.25, "harmonic decay exponent")
	toneCmd.Flags().StringVar(&outOpus, "out-opus", "", "directory for the opus file")
	toneCmd.Flags().StringVar(&outMp3, "out-mp3", "", "directory for the mp3 file")
	addVerboseFlag(toneCmd)
	return toneCmd
}

func addVerboseFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("verbose", "v", false, "print debug output")
}

func logLevel(cmd *cobra.Command) slog.Level {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func noteCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return note.Names(), cobra.ShellCompDirectiveNoFileComp
}
