// Package synth renders loopable tones by summing harmonic partials.
package synth

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrSilentBuffer = errors.New("silent buffer")

type Params struct {
	SampleRate int
	// Duration is the upper bound. Tones are trimmed to whole periods.
	Duration  time.Duration
	Harmonics int
	// Cutoff in Hz. Partials above are dropped.
	Cutoff float64
}

func DefaultParams() Params {
	return Params{
		SampleRate: 44100,
		Duration:   1 * time.Second,
		Harmonics:  20,
		Cutoff:     5000,
	}
}

type Tone struct {
	Frequency  float64
	Decay      float64
	SampleRate int
	// Duration in seconds, a whole number of periods of Frequency.
	Duration float64
	Samples  []float64
	// Partials is the number of harmonics summed.
	Partials int
	// Dropped is the frequency of the first harmonic above the cutoff
	// or 0 if the harmonic cap was reached first.
	Dropped float64
}

func (t *Tone) Length() time.Duration {
	return time.Duration(t.Duration * float64(time.Second))
}

// LoopDuration returns the longest duration not above target
// that holds a whole number of periods of freq.
func LoopDuration(freq float64, target time.Duration) float64 {
	period := 1 / freq
	return math.Floor(target.Seconds()/period) * period
}

// Synthesize sums the harmonics of freq with amplitude 1/n^decay
// and normalizes the result to a peak of 1.
func Synthesize(freq, decay float64, params Params) (*Tone, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("%w: frequency %f", ErrSilentBuffer, freq)
	}
	duration := LoopDuration(freq, params.Duration)
	count := int(float64(params.SampleRate) * duration)
	if count == 0 {
		return nil, fmt.Errorf("%w: %.2f Hz does not fit into %s", ErrSilentBuffer, freq, params.Duration)
	}

	tone := &Tone{
		Frequency:  freq,
		Decay:      decay,
		SampleRate: params.SampleRate,
		Duration:   duration,
		Samples:    make([]float64, count),
	}

	// Endpoint exclusive grid so that sample count lands on phase zero again.
	step := duration / float64(count)
	for n := 1; n <= params.Harmonics; n++ {
		f := freq * float64(n)
		if f > params.Cutoff {
			tone.Dropped = f
			break
		}
		amplitude := 1 / math.Pow(float64(n), decay)
		w := 2 * math.Pi * f
		for i := range tone.Samples {
			tone.Samples[i] += amplitude * math.Sin(w*float64(i)*step)
		}
		tone.Partials++
	}

	if err := Normalize(tone.Samples); err != nil {
		return nil, fmt.Errorf("%.2f Hz with %d partials: %w", freq, tone.Partials, err)
	}
	return tone, nil
}

// Normalize scales samples in place so the largest absolute value is 1.
func Normalize(samples []float64) error {
	var peak float64
	for _, s := range samples {
		peak = max(peak, math.Abs(s))
	}
	if peak == 0 {
		return ErrSilentBuffer
	}
	for i := range samples {
		samples[i] /= peak
	}
	return nil
}
