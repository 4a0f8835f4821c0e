package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrEncodingFailed      = errors.New("encoding failed")
	ErrMissingOutputTarget = errors.New("missing output target")
)

// Encoder compresses mono samples in [-1, 1] into the target's format.
type Encoder interface {
	Encode(ctx context.Context, samples []float64, sampleRate int, target Target) ([]byte, error)
}

// Target is one compressed output of a tone.
// A target without Dir is not requested.
type Target struct {
	Format  Format
	Codec   string
	Bitrate string
	Dir     string
}

// DefaultTargets returns opus at 256k and mp3 at 320k without output directories.
func DefaultTargets() []Target {
	return []Target{NewTarget(Opus), NewTarget(Mp3)}
}

func NewTarget(format Format) Target {
	return Target{
		Format:  format,
		Codec:   format.DefaultCodec(),
		Bitrate: format.DefaultBitrate(),
	}
}

func (t Target) String() string {
	return fmt.Sprintf("%s (%s %s)", t.Format, t.Codec, t.Bitrate)
}

// TargetDirs places every target under <audioDir>/<ext>/<decay tag>.
func TargetDirs(audioDir string, decay float64, targets []Target) []Target {
	withDirs := make([]Target, len(targets))
	for i, t := range targets {
		t.Dir = filepath.Join(audioDir, t.Format.Ext(), DecayTag(decay))
		withDirs[i] = t
	}
	return withDirs
}

// DecayTag names the category directory of tones rendered with decay.
func DecayTag(decay float64) string {
	return fmt.Sprintf("%.2f", decay)
}

func requestedTargets(targets []Target) ([]Target, error) {
	var requested []Target
	for _, t := range targets {
		if t.Dir != "" {
			requested = append(requested, t)
		}
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: set at least one output directory", ErrMissingOutputTarget)
	}
	return requested, nil
}

func encodingError(cmd string, args []string, out []byte, err error) error {
	return fmt.Errorf("%w: %s %s: %v\n%s",
		ErrEncodingFailed,
		cmd,
		strings.Join(args, " "),
		err,
		strings.SplitN(string(out), "\n", 2)[0],
	)
}
