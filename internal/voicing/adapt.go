package voicing

import (
	"sort"

	"github.com/MilkFoam-L/Algorhythm/internal/instrument"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
	"github.com/MilkFoam-L/Algorhythm/internal/segment"
	"github.com/MilkFoam-L/Algorhythm/internal/theory"
)

// Adapter realizes chord slices on non-fretted profiles by octave
// folding and polyphony pruning instead of fingering search.
type Adapter struct {
	profile instrument.Profile
}

// NewAdapter creates an adapter for a non-fretted profile
func NewAdapter(p instrument.Profile) *Adapter {
	return &Adapter{profile: p}
}

// Adapt maps each note of the slice into the profile's range and
// prunes to the polyphony limit. Times and velocities pass through
// untouched. Returns at most one candidate; none when the slice's
// lowest note cannot be folded into range.
func (a *Adapter) Adapt(sl segment.Slice) []Candidate {
	if sl.Rest() {
		return nil
	}

	ordered := make([]note.Event, len(sl.Notes))
	copy(ordered, sl.Notes)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Pitch != ordered[j].Pitch {
			return ordered[i].Pitch < ordered[j].Pitch
		}
		return ordered[i].Start < ordered[j].Start
	})

	var notes []Note
	seen := make(map[int]bool)
	for i, ev := range ordered {
		pitch, ok := a.fold(ev.Pitch)
		if !ok {
			if i == 0 {
				// the bass note itself has no in-range octave
				return nil
			}
			continue
		}
		if seen[pitch] {
			continue
		}
		seen[pitch] = true
		notes = append(notes, Note{
			Pitch:    pitch,
			Velocity: ev.Velocity,
			Start:    ev.Start,
			End:      ev.End,
			String:   -1,
			Fret:     -1,
		})
	}
	if len(notes) == 0 {
		return nil
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Pitch < notes[j].Pitch
	})
	notes = a.prune(notes, theory.Analyze(sl.Pitches()).RootClass)

	return []Candidate{{Notes: notes}}
}

// fold shifts a pitch by octaves until it lands inside the profile's
// range. Out-of-range pitches land on the nearest in-range octave;
// a false return means the range is narrower than an octave and skips
// this pitch class entirely.
func (a *Adapter) fold(pitch int) (int, bool) {
	p := pitch
	for p > a.profile.MaxPitch {
		p -= 12
	}
	for p < a.profile.MinPitch {
		p += 12
	}
	if p > a.profile.MaxPitch {
		return 0, false
	}
	return p, true
}

// prune drops notes from the top of the chord until the count fits the
// polyphony limit. The lowest note is never dropped, and notes
// sounding the root class survive over equally high non-root notes.
func (a *Adapter) prune(notes []Note, rootClass int) []Note {
	for len(notes) > a.profile.Polyphony {
		drop := -1
		for i := len(notes) - 1; i >= 1; i-- {
			if note.Class(notes[i].Pitch) != rootClass {
				drop = i
				break
			}
		}
		if drop == -1 {
			drop = len(notes) - 1
		}
		notes = append(notes[:drop], notes[drop+1:]...)
	}
	return notes
}
