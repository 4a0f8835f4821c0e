package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mrclmr/n2a/internal/audio"
	"github.com/mrclmr/n2a/internal/config"
	"github.com/mrclmr/n2a/internal/m3u"
	"github.com/mrclmr/n2a/internal/manifest"
)

const playlistFile = "notes.m3u"

func newEncoder() audio.Encoder {
	return audio.NewFFmpeg(audio.SystemExecCmdCtx(), tempDir())
}

func run(ctx context.Context, cfg *config.Config, encoder audio.Encoder) error {
	tones := cfg.Tones
	if tones.Enabled {
		creator := audio.NewToneCreator(encoder, tones.Params(), tones.Jobs)
		outputs, err := creator.Generate(ctx, tones.Start.Note, tones.End.Note, tones.HarmonicDecay(), tones.Targets(cfg.AudioDir))
		if err != nil {
			return err
		}
		if tones.WritePlaylist() {
			err = writePlaylists(outputs)
			if err != nil {
				return err
			}
		}
	}

	_, err := manifest.Rebuild(cfg.Manifest())
	return err
}

// writePlaylists writes one playlist per output directory in note order.
func writePlaylists(outputs []audio.Output) error {
	var dirs []string
	byDir := make(map[string][]audio.Output)
	for _, o := range outputs {
		dir := filepath.Dir(o.Path)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], o)
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, playlistFile)
		err := writePlaylist(path, byDir[dir])
		if err != nil {
			return err
		}
		slog.Info("playlist\t", "path", path)
	}
	return nil
}

func writePlaylist(path string, outputs []audio.Output) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	playlist := m3u.NewPlaylist(f)
	for _, o := range outputs {
		absPath, err := filepath.Abs(o.Path)
		if err != nil {
			return err
		}
		playlist.Add(absPath, o.Note.String(), o.Length)
	}
	return playlist.Write()
}

func tempDir() string {
	switch runtime.GOOS {
	case "linux", "darwin":
		return "/tmp"
	default:
		return os.TempDir()
	}
}
