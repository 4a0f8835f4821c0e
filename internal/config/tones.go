package config

import (
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mrclmr/n2a/internal/audio"
	"github.com/mrclmr/n2a/internal/note"
	"github.com/mrclmr/n2a/internal/synth"
)

const defaultDecay = 1.25

// Tones configures the tone generator. Zero values fall back to defaults.
type Tones struct {
	Enabled    bool          `yaml:"enabled"`
	Jobs       int           `yaml:"jobs"`
	Playlist   *bool         `yaml:"playlist"`
	Decay      *float64      `yaml:"decay"`
	Start      *Note         `yaml:"start"`
	End        *Note         `yaml:"end"`
	SampleRate int           `yaml:"sample_rate"`
	Duration   time.Duration `yaml:"duration"`
	Harmonics  int           `yaml:"harmonics"`
	Cutoff     float64       `yaml:"cutoff"`
	Encoders   []Encoder     `yaml:"encoders"`
}

// Params returns synthesis parameters with defaults applied.
func (t *Tones) Params() synth.Params {
	p := synth.DefaultParams()
	if t.SampleRate != 0 {
		p.SampleRate = t.SampleRate
	}
	if t.Duration != 0 {
		p.Duration = t.Duration
	}
	if t.Harmonics != 0 {
		p.Harmonics = t.Harmonics
	}
	if t.Cutoff != 0 {
		p.Cutoff = t.Cutoff
	}
	return p
}

// Targets returns one target per encoder, placed below audioDir.
func (t *Tones) Targets(audioDir string) []audio.Target {
	targets := audio.DefaultTargets()
	if len(t.Encoders) > 0 {
		targets = make([]audio.Target, len(t.Encoders))
		for i, e := range t.Encoders {
			targets[i] = e.Target()
		}
	}
	return audio.TargetDirs(audioDir, t.HarmonicDecay(), targets)
}

// HarmonicDecay returns the decay exponent. An explicit 0 gives equal amplitudes.
func (t *Tones) HarmonicDecay() float64 {
	if t.Decay == nil {
		return defaultDecay
	}
	return *t.Decay
}

func (t *Tones) WritePlaylist() bool {
	return t.Playlist == nil || *t.Playlist
}

type tones Tones

func (t *Tones) UnmarshalYAML(node *yaml.Node) error {
	var y tones
	err := node.Decode(&y)
	if err != nil {
		return err
	}
	if y.Enabled {
		if y.Start == nil {
			return keyEmptyError("tones.start")
		}
		if y.End == nil {
			return keyEmptyError("tones.end")
		}
		if _, err := note.Range(y.Start.Note, y.End.Note); err != nil {
			return fmt.Errorf("tones: %w", err)
		}
	}
	if y.Jobs < 0 || y.SampleRate < 0 || y.Harmonics < 0 || y.Duration < 0 || y.Cutoff < 0 {
		return fmt.Errorf("tones: jobs, sample_rate, harmonics, duration and cutoff must not be negative")
	}
	if y.Jobs == 0 {
		y.Jobs = 1
	}

	*t = Tones(y)
	return nil
}

// Note decodes "C4" style note names.
type Note struct {
	note.Note
}

func (n *Note) UnmarshalYAML(node *yaml.Node) error {
	var y string
	err := node.Decode(&y)
	if err != nil {
		return err
	}
	parsed, err := note.Parse(y)
	if err != nil {
		return err
	}
	n.Note = parsed
	return nil
}

type Encoder struct {
	Format  audio.Format `yaml:"format"`
	Codec   string       `yaml:"codec"`
	Bitrate string       `yaml:"bitrate"`
}

// Target applies the format's default codec and bitrate to empty fields.
func (e Encoder) Target() audio.Target {
	t := audio.NewTarget(e.Format)
	if e.Codec != "" {
		t.Codec = e.Codec
	}
	if e.Bitrate != "" {
		t.Bitrate = e.Bitrate
	}
	return t
}

type encoder Encoder

func (e *Encoder) UnmarshalYAML(node *yaml.Node) error {
	y := encoder{Format: audio.Unknown}
	err := node.Decode(&y)
	if err != nil {
		return err
	}
	if y.Format == audio.Unknown {
		return keyEmptyError("tones.encoders.format")
	}
	*e = Encoder(y)
	return nil
}
