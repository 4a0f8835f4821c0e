package audio

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/mrclmr/n2a/internal/dag"
	"github.com/mrclmr/n2a/internal/note"
	"github.com/mrclmr/n2a/internal/synth"
)

// Output is a written tone file.
type Output struct {
	Note   note.Note
	Format Format
	Path   string
	Length time.Duration
}

// ToneCreator renders notes and writes one file per note and target.
type ToneCreator struct {
	encoder Encoder
	params  synth.Params
	jobs    int
}

func NewToneCreator(encoder Encoder, params synth.Params, jobs int) *ToneCreator {
	return &ToneCreator{
		encoder: encoder,
		params:  params,
		jobs:    jobs,
	}
}

// Make renders a single note and writes <Dir>/<note>.<ext> for every target with a Dir.
// Like Generate it creates missing directories.
func (c *ToneCreator) Make(ctx context.Context, n note.Note, decay float64, targets []Target) ([]Output, error) {
	if _, err := note.New(n.Name, n.Octave); err != nil {
		return nil, err
	}
	requested, err := requestedTargets(targets)
	if err != nil {
		return nil, err
	}
	return c.create(ctx, []note.Note{n}, decay, requested)
}

// Generate renders every note from start to end inclusive.
// Output directories are created up front and existing files are overwritten.
// Outputs are ordered by note, then by target.
func (c *ToneCreator) Generate(ctx context.Context, start, end note.Note, decay float64, targets []Target) ([]Output, error) {
	notes, err := note.Range(start, end)
	if err != nil {
		return nil, err
	}
	requested, err := requestedTargets(targets)
	if err != nil {
		return nil, err
	}
	return c.create(ctx, slices.Collect(notes), decay, requested)
}

func (c *ToneCreator) create(ctx context.Context, notes []note.Note, decay float64, targets []Target) ([]Output, error) {
	for _, t := range targets {
		if err := mkdirAllIfNotExists(t.Dir); err != nil {
			return nil, err
		}
		slog.Info("saving to", "dir", t.Dir)
	}

	d := dag.New[artifact](dag.WithLimit(c.jobs))
	for _, n := range notes {
		render := &renderNode{note: n, decay: decay, params: c.params}
		for _, t := range targets {
			err := d.AddEdge(&encodeNode{note: n, target: t, encoder: c.encoder}, render)
			if err != nil {
				return nil, err
			}
		}
	}

	outputs := make([]Output, 0, len(notes)*len(targets))
	for a, err := range d.RunRootNodes(ctx) {
		if err != nil {
			return nil, err
		}
		slog.Info(a.op.String()+"\t", "path", a.path)
		outputs = append(outputs, Output{
			Note:   a.note,
			Format: a.format,
			Path:   a.path,
			Length: a.tone.Length(),
		})
	}
	slog.Debug("graph", "dot", d.String())
	return outputs, nil
}

func mkdirAllIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModePerm)
	}
	return nil
}
