package cmd

import (
	"fmt"
	"strings"

	"github.com/mrclmr/n2a/internal/manifest"

	"github.com/spf13/cobra"
)

func newManifestCmd() *cobra.Command {
	var (
		formats []string
		file    string
		lenient bool
		watch   bool
	)
	manifestCmd := &cobra.Command{
		Use:               "manifest <audio-dir>",
		Short:             "Index audio files in a JSON manifest",
		Long:              "Index <audio-dir>/<format>/<category>/<note>[-suffix].<ext> files in <audio-dir>/" + manifest.DefaultFile + ".",
		Example:           "n2a manifest assets/audio --format opus=opus --format mp3=mp3",
		SilenceUsage:      true,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: dirCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFormats(formats)
			if err != nil {
				return err
			}
			setLogLevel(logLevel(cmd))
			opts := manifest.Options{
				Root:    args[0],
				Formats: parsed,
				File:    file,
				Strict:  !lenient,
			}
			if !watch {
				_, err = manifest.Rebuild(opts)
				return err
			}
			w, err := manifest.NewWatcher(opts)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
	manifestCmd.Flags().StringArrayVar(&formats, "format", nil, "format directory and file extension as name=ext (default opus=opus and mp3=mp3)")
	manifestCmd.Flags().StringVar(&file, "file", manifest.DefaultFile, "manifest file name inside <audio-dir>")
	manifestCmd.Flags().BoolVar(&lenient, "lenient", false, "accept file names that do not start with a note")
	manifestCmd.Flags().BoolVar(&watch, "watch", false, "rebuild the manifest whenever <audio-dir> changes")
	addVerboseFlag(manifestCmd)
	return manifestCmd
}

func parseFormats(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return manifest.DefaultFormats(), nil
	}
	formats := make(map[string]string, len(values))
	for _, v := range values {
		name, ext, ok := strings.Cut(v, "=")
		if !ok {
			ext = name
		}
		ext = strings.TrimPrefix(ext, ".")
		if name == "" || ext == "" {
			return nil, fmt.Errorf("invalid format %q: want name=ext", v)
		}
		formats[name] = ext
	}
	return formats, nil
}

func dirCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveFilterDirs
}
