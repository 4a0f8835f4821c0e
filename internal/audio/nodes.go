package audio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mrclmr/n2a/internal/note"
	"github.com/mrclmr/n2a/internal/synth"
)

// artifact is the value passed along the graph.
// A render node sets tone, an encode node additionally path and op.
type artifact struct {
	note   note.Note
	tone   *synth.Tone
	format Format
	path   string
	op     fileOperation
}

type renderNode struct {
	note   note.Note
	decay  float64
	params synth.Params
}

func (r *renderNode) Hash() string {
	return hashShort("render", r.note, r.decay, r.params)
}

func (r *renderNode) Name() string {
	return "render " + r.note.String()
}

func (r *renderNode) Run(_ context.Context, _ []artifact) (artifact, error) {
	tone, err := synth.Synthesize(r.note.Frequency(), r.decay, r.params)
	if err != nil {
		return artifact{}, err
	}
	if tone.Dropped > 0 {
		slog.Debug("harmonics skipped", "note", r.note, "from", tone.Dropped, "partials", tone.Partials)
	}
	return artifact{note: r.note, tone: tone}, nil
}

type encodeNode struct {
	note    note.Note
	target  Target
	encoder Encoder
}

func (e *encodeNode) Hash() string {
	return hashShort("encode", e.note, e.target)
}

func (e *encodeNode) Name() string {
	return "encode " + e.note.String() + " " + e.target.String()
}

func (e *encodeNode) outputFile() string {
	return filepath.Join(e.target.Dir, e.note.String()+"."+e.target.Format.Ext())
}

func (e *encodeNode) Run(ctx context.Context, values []artifact) (artifact, error) {
	if len(values) != 1 || values[0].tone == nil {
		return artifact{}, errors.New("encode without rendered tone")
	}
	rendered := values[0]

	data, err := e.encoder.Encode(ctx, rendered.tone.Samples, rendered.tone.SampleRate, e.target)
	if err != nil {
		return artifact{}, err
	}

	path := e.outputFile()
	op := created
	if _, err := os.Stat(path); err == nil {
		op = replaced
	} else if !errors.Is(err, fs.ErrNotExist) {
		return artifact{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return artifact{}, err
	}

	return artifact{
		note:   e.note,
		tone:   rendered.tone,
		format: e.target.Format,
		path:   path,
		op:     op,
	}, nil
}

func hashShort(str string, data ...any) string {
	var buf bytes.Buffer
	buf.WriteString(str)
	enc := gob.NewEncoder(&buf)
	for _, d := range data {
		_ = enc.Encode(d)
	}
	h := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(h[:8])
}
