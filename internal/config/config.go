package config

import (
	"fmt"
	"io"
	"log/slog"

	"go.yaml.in/yaml/v3"

	"github.com/mrclmr/n2a/internal/manifest"
)

// Config describes one build run: optional tone generation followed by
// a manifest rebuild of AudioDir.
type Config struct {
	LogLevel        slog.Level        `yaml:"log_level"`
	AudioDir        string            `yaml:"audio_dir"`
	ManifestFile    string            `yaml:"manifest_file"`
	StrictFilenames *bool             `yaml:"strict_filenames"`
	Formats         map[string]string `yaml:"formats"`
	Tones           *Tones            `yaml:"tones"`
}

func Parse(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var c Config
	err := decoder.Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Manifest returns the options for the manifest builder.
func (c *Config) Manifest() manifest.Options {
	strict := true
	if c.StrictFilenames != nil {
		strict = *c.StrictFilenames
	}
	return manifest.Options{
		Root:    c.AudioDir,
		Formats: c.Formats,
		File:    c.ManifestFile,
		Strict:  strict,
	}
}

type config Config

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var y config
	err := node.Decode(&y)
	if err != nil {
		return err
	}
	if y.AudioDir == "" {
		return keyEmptyError("audio_dir")
	}
	if len(y.Formats) == 0 {
		return keyEmptyError("formats")
	}
	for name, ext := range y.Formats {
		if name == "" || ext == "" {
			return keyEmptyError("formats." + name)
		}
	}
	if y.ManifestFile == "" {
		y.ManifestFile = manifest.DefaultFile
	}
	if y.Tones == nil {
		y.Tones = &Tones{Jobs: 1}
	}

	*c = Config(y)
	return nil
}

func keyEmptyError(key string) error {
	return fmt.Errorf("key '%s' is missing or value is empty", key)
}
