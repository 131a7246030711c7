package voicing

import (
	"sort"

	"github.com/MilkFoam-L/Algorhythm/internal/instrument"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
	"github.com/MilkFoam-L/Algorhythm/internal/segment"
	"github.com/MilkFoam-L/Algorhythm/internal/theory"
)

// Enumerator generates every playable voicing of a chord slice on a
// fretted instrument profile.
type Enumerator struct {
	profile instrument.Profile
}

// NewEnumerator creates an enumerator for a fretted profile
func NewEnumerator(p instrument.Profile) *Enumerator {
	return &Enumerator{profile: p}
}

// voice is one requested pitch class with the source material backing
// it: the lowest source pitch sounding the class, the loudest source
// velocity, and an importance rank used by the relaxation policy
// (0 = root, 1 = bass, then upper voices by ascending pitch).
type voice struct {
	class    int
	pitch    int
	velocity int
	rank     int
}

// position is one (string, fret) placement sounding a pitch
type position struct {
	str   int
	fret  int
	pitch int
}

// Enumerate returns all candidates realizing the slice's pitch classes
// within the profile's constraints, in a fixed order: voices are
// assigned low to high, positions per voice by ascending string then
// fret. When the full class set is unplayable the least essential
// class is dropped and the search retried; an empty result means not
// even the root and bass classes fit.
func (e *Enumerator) Enumerate(sl segment.Slice) []Candidate {
	if sl.Rest() {
		return nil
	}

	voices := rankVoices(sl)
	for len(voices) > 0 {
		if cands := e.search(voices, sl); len(cands) > 0 {
			return cands
		}
		dropped := dropLeastEssential(voices)
		if len(dropped) == len(voices) {
			return nil
		}
		voices = dropped
	}
	return nil
}

// rankVoices reduces the slice to unique pitch classes ordered by
// ascending source pitch, each carrying its relaxation rank.
func rankVoices(sl segment.Slice) []voice {
	byClass := make(map[int]*voice)
	lowest := sl.Notes[0].Pitch
	for _, ev := range sl.Notes {
		if ev.Pitch < lowest {
			lowest = ev.Pitch
		}
		class := note.Class(ev.Pitch)
		v, ok := byClass[class]
		if !ok {
			byClass[class] = &voice{class: class, pitch: ev.Pitch, velocity: ev.Velocity}
			continue
		}
		if ev.Pitch < v.pitch {
			v.pitch = ev.Pitch
		}
		if ev.Velocity > v.velocity {
			v.velocity = ev.Velocity
		}
	}

	voices := make([]voice, 0, len(byClass))
	for _, v := range byClass {
		voices = append(voices, *v)
	}
	sort.Slice(voices, func(i, j int) bool {
		return voices[i].pitch < voices[j].pitch
	})

	rootClass := theory.Analyze(sl.Pitches()).RootClass
	bassClass := note.Class(lowest)
	next := 2
	for i := range voices {
		switch voices[i].class {
		case rootClass:
			voices[i].rank = 0
		case bassClass:
			voices[i].rank = 1
		default:
			voices[i].rank = next
			next++
		}
	}
	return voices
}

// dropLeastEssential removes the highest-ranked (least essential)
// voice; root and bass are never dropped, so a set reduced to them is
// returned unchanged.
func dropLeastEssential(voices []voice) []voice {
	drop := -1
	for i, v := range voices {
		if v.rank < 2 {
			continue
		}
		if drop == -1 || v.rank > voices[drop].rank {
			drop = i
		}
	}
	if drop == -1 {
		return voices
	}
	out := make([]voice, 0, len(voices)-1)
	out = append(out, voices[:drop]...)
	return append(out, voices[drop+1:]...)
}

// search enumerates assignments of one string position per voice via
// index-based backtracking over an explicit choice stack.
func (e *Enumerator) search(voices []voice, sl segment.Slice) []Candidate {
	if len(voices) > e.profile.Polyphony || len(voices) > len(e.profile.OpenStrings) {
		return nil
	}

	positions := make([][]position, len(voices))
	for i, v := range voices {
		positions[i] = e.positionsFor(v.class)
		if len(positions[i]) == 0 {
			return nil
		}
	}

	var out []Candidate
	idx := make([]int, len(voices))
	chosen := make([]position, len(voices))
	depth := 0
	for {
		if idx[depth] < len(positions[depth]) {
			pos := positions[depth][idx[depth]]
			idx[depth]++
			if !compatible(chosen[:depth], pos, e.profile.MaxFretSpan) {
				continue
			}
			chosen[depth] = pos
			if depth == len(voices)-1 {
				out = append(out, buildCandidate(voices, chosen, sl))
				continue
			}
			depth++
			idx[depth] = 0
			continue
		}
		if depth == 0 {
			return out
		}
		depth--
	}
}

// positionsFor lists the in-range placements of a pitch class, ordered
// by string index then fret.
func (e *Enumerator) positionsFor(class int) []position {
	var out []position
	for s, open := range e.profile.OpenStrings {
		for f := 0; f <= e.profile.MaxFret; f++ {
			pitch := open + f
			if pitch < e.profile.MinPitch || pitch > e.profile.MaxPitch {
				continue
			}
			if note.Class(pitch) == class {
				out = append(out, position{str: s, fret: f, pitch: pitch})
			}
		}
	}
	return out
}

// compatible checks a new placement against the partial assignment:
// one note per string, and fretted (non-open) positions within the
// hand's fret span.
func compatible(prefix []position, pos position, maxSpan int) bool {
	minFret, maxFret := 0, 0
	seen := false
	if pos.fret > 0 {
		minFret, maxFret = pos.fret, pos.fret
		seen = true
	}
	for _, p := range prefix {
		if p.str == pos.str {
			return false
		}
		if p.fret == 0 {
			continue
		}
		if !seen {
			minFret, maxFret = p.fret, p.fret
			seen = true
			continue
		}
		if p.fret < minFret {
			minFret = p.fret
		}
		if p.fret > maxFret {
			maxFret = p.fret
		}
	}
	return !seen || maxFret-minFret <= maxSpan
}

// buildCandidate materializes an assignment as slice-aligned notes in
// ascending string order.
func buildCandidate(voices []voice, chosen []position, sl segment.Slice) Candidate {
	notes := make([]Note, len(voices))
	for i, pos := range chosen {
		notes[i] = Note{
			Pitch:    pos.pitch,
			Velocity: voices[i].velocity,
			Start:    sl.Start,
			End:      sl.End,
			String:   pos.str,
			Fret:     pos.fret,
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].String < notes[j].String
	})
	return Candidate{Notes: notes}
}
