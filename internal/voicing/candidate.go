package voicing

import (
	"sort"

	"github.com/MilkFoam-L/Algorhythm/internal/segment"
)

// Note is one sounding note of a realized voicing. String and Fret are
// -1 when the profile carries no string data.
type Note struct {
	Pitch    int     `json:"pitch"`
	Velocity int     `json:"velocity"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	String   int     `json:"string"`
	Fret     int     `json:"fret"`
}

// Candidate is one playable realization of a chord slice. Fretted
// candidates keep their notes in ascending string order, non-fretted
// ones in ascending pitch order; strum styles rely on that ordering.
type Candidate struct {
	Notes []Note `json:"notes"`
}

// Fretted reports whether the candidate carries string positions
func (c *Candidate) Fretted() bool {
	return len(c.Notes) > 0 && c.Notes[0].String >= 0
}

// Pitches returns the sounding pitches in ascending order
func (c *Candidate) Pitches() []int {
	pitches := make([]int, 0, len(c.Notes))
	for _, n := range c.Notes {
		pitches = append(pitches, n.Pitch)
	}
	sort.Ints(pitches)
	return pitches
}

// AvgFret returns the mean fret over used strings, open strings
// counting as fret zero. Non-fretted candidates report zero.
func (c *Candidate) AvgFret() float64 {
	if !c.Fretted() || len(c.Notes) == 0 {
		return 0
	}
	sum := 0
	for _, n := range c.Notes {
		sum += n.Fret
	}
	return float64(sum) / float64(len(c.Notes))
}

// stringFrets maps used string indexes to their frets
func (c *Candidate) stringFrets() map[int]int {
	frets := make(map[int]int, len(c.Notes))
	for _, n := range c.Notes {
		frets[n.String] = n.Fret
	}
	return frets
}

// Entry pairs one slice with its chosen voicing. Chosen is nil for
// rests, including slices degraded to rests because nothing on the
// instrument could realize them.
type Entry struct {
	Slice  segment.Slice `json:"slice"`
	Chosen *Candidate    `json:"chosen,omitempty"`
}

// Sequence is a full conversion's output: one entry per slice in time
// order. Built incrementally, immutable once returned.
type Sequence struct {
	Entries []Entry `json:"entries"`
}

// Voiced counts the entries that carry a voicing
func (s *Sequence) Voiced() int {
	count := 0
	for _, e := range s.Entries {
		if e.Chosen != nil {
			count++
		}
	}
	return count
}
