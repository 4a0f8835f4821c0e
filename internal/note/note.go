// Package note maps note names to pitches.
package note

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrInvalidNote  = errors.New("invalid note")
	ErrInvalidRange = errors.New("invalid note range")
)

// names in semitone order starting at C. "sh" marks a sharp.
var names = []string{"C", "Csh", "D", "Dsh", "E", "F", "Fsh", "G", "Gsh", "A", "Ash", "B"}

// offsetA is the index of A in names. Offsets are relative to A.
const offsetA = 9

// Note is a pitch class name plus octave, e.g. C4.
type Note struct {
	Name   string
	Octave int
}

// Names returns the twelve note names in semitone order.
func Names() []string {
	return slices.Clone(names)
}

func New(name string, octave int) (Note, error) {
	if index(name) < 0 {
		return Note{}, fmt.Errorf("%w: unknown name '%s'", ErrInvalidNote, name)
	}
	if octave < 0 {
		return Note{}, fmt.Errorf("%w: negative octave %d", ErrInvalidNote, octave)
	}
	return Note{Name: name, Octave: octave}, nil
}

// Parse parses "<name><octave>" like "Fsh3". "#" is accepted for "sh".
func Parse(s string) (Note, error) {
	i := strings.IndexFunc(s, func(r rune) bool { return '0' <= r && r <= '9' })
	if i <= 0 {
		return Note{}, fmt.Errorf("%w: '%s'", ErrInvalidNote, s)
	}
	octave, err := strconv.Atoi(s[i:])
	if err != nil {
		return Note{}, fmt.Errorf("%w: bad octave in '%s'", ErrInvalidNote, s)
	}
	name := s[:i]
	if strings.HasSuffix(name, "#") {
		name = strings.TrimSuffix(name, "#") + "sh"
	}
	return New(name, octave)
}

// Offset returns the signed semitone distance from A4.
func (n Note) Offset() int {
	return (n.Octave-4)*12 + index(n.Name) - offsetA
}

// Frequency returns the equal-tempered frequency in Hz with A4 = 440 Hz.
func (n Note) Frequency() float64 {
	return 440 * math.Pow(2, float64(n.Offset())/12)
}

// Next returns the note one semitone higher.
func (n Note) Next() Note {
	i := index(n.Name) + 1
	if i == len(names) {
		return Note{Name: names[0], Octave: n.Octave + 1}
	}
	return Note{Name: names[i], Octave: n.Octave}
}

func (n Note) String() string {
	return n.Name + strconv.Itoa(n.Octave)
}

// Range returns all notes from start to end inclusive in semitone order.
func Range(start, end Note) (iter.Seq[Note], error) {
	if _, err := New(start.Name, start.Octave); err != nil {
		return nil, err
	}
	if _, err := New(end.Name, end.Octave); err != nil {
		return nil, err
	}
	if end.Offset() < start.Offset() {
		return nil, fmt.Errorf("%w: %s is below %s", ErrInvalidRange, end, start)
	}
	return func(yield func(Note) bool) {
		for n := start; ; n = n.Next() {
			if !yield(n) || n == end {
				return
			}
		}
	}, nil
}

func index(name string) int {
	return slices.Index(names, name)
}
