package synth

import (
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

// WriteWAV writes the tone as mono 16 bit PCM.
func (t *Tone) WriteWAV(w io.WriteSeeker) error {
	return WriteWAV(w, t.Samples, t.SampleRate)
}

// WriteWAV writes samples in [-1, 1] as mono 16 bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, 1, wavPCM)

	maxVal := float64(math.MaxInt16)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(max(-1, min(1, s)) * maxVal))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
