package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mrclmr/n2a/internal/synth"
)

// FFmpeg encodes by writing a temporary wav and running ffmpeg on it.
type FFmpeg struct {
	execCmdCtx ExecCmdCtx
	tempDir    string
}

// NewFFmpeg creates scoped temporary directories below tempDir.
// An empty tempDir uses the system default.
func NewFFmpeg(execCmdCtx ExecCmdCtx, tempDir string) *FFmpeg {
	return &FFmpeg{execCmdCtx: execCmdCtx, tempDir: tempDir}
}

func (f *FFmpeg) Encode(ctx context.Context, samples []float64, sampleRate int, target Target) ([]byte, error) {
	dir, err := os.MkdirTemp(f.tempDir, "n2a-")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	wavPath := filepath.Join(dir, "tone.wav")
	if err := writeWav(wavPath, samples, sampleRate); err != nil {
		return nil, err
	}

	outPath := filepath.Join(dir, "out."+target.Format.Ext())
	args := slices.Concat(
		[]string{"-y", "-i", wavPath},
		[]string{"-c:a", target.Codec, "-b:a", target.Bitrate},
		[]string{outPath},
	)
	slog.Debug("execute", "cmd", strings.Join(append([]string{"ffmpeg"}, args...), " "))

	out, err := f.execCmdCtx(ctx, "ffmpeg", args...).CombinedOutput()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("launch ffmpeg: %w", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, encodingError("ffmpeg", args, out, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg wrote no output: %v", ErrEncodingFailed, err)
	}
	return data, nil
}

func writeWav(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	if err := synth.WriteWAV(f, samples, sampleRate); err != nil {
		return err
	}
	return f.Close()
}
