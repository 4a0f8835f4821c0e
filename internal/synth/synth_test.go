package synth

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

// Frequencies of C2, A4 and D4 plus one above the default cutoff.
var testFreqs = []float64{65.40639, 440, 293.66477, 1046.5}

func TestLoopDuration(t *testing.T) {
	for _, freq := range testFreqs {
		for _, target := range []time.Duration{time.Second, 250 * time.Millisecond} {
			got := LoopDuration(freq, target)
			if got > target.Seconds() {
				t.Fatalf("LoopDuration(%f, %s) = %f, longer than target", freq, target, got)
			}
			periods := got * freq
			if math.Abs(periods-math.Round(periods)) > 1e-9 {
				t.Fatalf("LoopDuration(%f, %s) = %f, %f periods", freq, target, got, periods)
			}
			if target.Seconds()-got >= 1/freq {
				t.Fatalf("LoopDuration(%f, %s) = %f, another period fits", freq, target, got)
			}
		}
	}
}

func TestSynthesize_PeakNormalized(t *testing.T) {
	for _, freq := range testFreqs {
		tone, err := Synthesize(freq, 1.25, DefaultParams())
		if err != nil {
			t.Fatalf("Synthesize(%f) error = %v", freq, err)
		}
		var peak float64
		for _, s := range tone.Samples {
			peak = max(peak, math.Abs(s))
		}
		if peak != 1 {
			t.Fatalf("Synthesize(%f) peak = %f, want 1", freq, peak)
		}
		if want := int(44100 * tone.Duration); len(tone.Samples) != want {
			t.Fatalf("Synthesize(%f) %d samples, want %d", freq, len(tone.Samples), want)
		}
	}
}

func TestSynthesize_Partials(t *testing.T) {
	tests := []struct {
		freq         float64
		harmonics    int
		wantPartials int
		wantDropped  float64
	}{
		{65.40639, 20, 20, 0},
		{440, 20, 11, 5280},
		{1000, 20, 5, 6000},
		{1000, 3, 3, 0},
		{5000, 20, 1, 10000},
	}
	for _, tt := range tests {
		params := DefaultParams()
		params.Harmonics = tt.harmonics
		tone, err := Synthesize(tt.freq, 1, params)
		if err != nil {
			t.Fatalf("Synthesize(%f) error = %v", tt.freq, err)
		}
		if tone.Partials != tt.wantPartials {
			t.Fatalf("Synthesize(%f) partials = %d, want %d", tt.freq, tone.Partials, tt.wantPartials)
		}
		if tone.Partials > params.Harmonics || tt.freq*float64(tone.Partials) > params.Cutoff {
			t.Fatalf("Synthesize(%f) exceeds limits with %d partials", tt.freq, tone.Partials)
		}
		if math.Abs(tone.Dropped-tt.wantDropped) > 1e-6 {
			t.Fatalf("Synthesize(%f) dropped = %f, want %f", tt.freq, tone.Dropped, tt.wantDropped)
		}
	}
}

func TestSynthesize_SinglePartialIsSine(t *testing.T) {
	params := DefaultParams()
	params.Harmonics = 1
	tone, err := Synthesize(441, 2, params)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	step := tone.Duration / float64(len(tone.Samples))
	for i, s := range tone.Samples {
		want := math.Sin(2 * math.Pi * 441 * float64(i) * step)
		if math.Abs(s-want) > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, s, want)
		}
	}
}

func TestSynthesize_SilentBuffer(t *testing.T) {
	params := DefaultParams()

	_, err := Synthesize(6000, 1.25, params)
	if !errors.Is(err, ErrSilentBuffer) {
		t.Fatalf("above cutoff: error = %v, want ErrSilentBuffer", err)
	}

	params.Duration = time.Millisecond
	_, err = Synthesize(100, 1.25, params)
	if !errors.Is(err, ErrSilentBuffer) {
		t.Fatalf("shorter than one period: error = %v, want ErrSilentBuffer", err)
	}
}

func TestNormalize(t *testing.T) {
	samples := []float64{0.25, -0.5, 0.1}
	if err := Normalize(samples); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []float64{0.5, -1, 0.2}
	for i := range samples {
		if math.Abs(samples[i]-want[i]) > 1e-12 {
			t.Fatalf("Normalize() = %v, want %v", samples, want)
		}
	}

	if err := Normalize(make([]float64, 8)); !errors.Is(err, ErrSilentBuffer) {
		t.Fatalf("Normalize(zeros) error = %v, want ErrSilentBuffer", err)
	}
}

func TestTone_WriteWAV(t *testing.T) {
	tone, err := Synthesize(440, 1.25, DefaultParams())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tone.WriteWAV(f); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}
	_ = f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = r.Close()
	}()
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if dec.SampleRate != 44100 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Fatalf("header = %d Hz, %d channels, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != len(tone.Samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(tone.Samples))
	}
}
