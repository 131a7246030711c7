package humanize

import (
	"fmt"
	"sort"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
	"github.com/MilkFoam-L/Algorhythm/internal/util"
	"github.com/MilkFoam-L/Algorhythm/internal/voicing"
)

// Style selects the timing/velocity gesture applied to each slice
type Style string

const (
	StyleNone        Style = "none"
	StyleSustained   Style = "sustained" // held chords, same as none
	StyleStrumDown   Style = "strum-down"
	StyleStrumUp     Style = "strum-up"
	StyleStrumDownUp Style = "strum-down-up"
)

// ParseStyle resolves a style name; the empty string means none
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "":
		return StyleNone, nil
	case StyleNone, StyleSustained, StyleStrumDown, StyleStrumUp, StyleStrumDownUp:
		return Style(s), nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownStyle, s)
}

// Strum shape: onset offsets between successive strings stay inside
// the 8-15ms window a relaxed strum produces, and velocity falls off
// so the first-struck string rings loudest.
const (
	DefaultStrumStep = 0.010
	MinStrumStep     = 0.008
	MaxStrumStep     = 0.015

	velocityDecay = 4
	velocityFloor = 40

	minNoteGap = 0.001
)

// Humanizer applies a deterministic performance gesture to a finished
// voicing sequence. Equal input always produces equal output; there is
// no randomness anywhere in the transform.
type Humanizer struct {
	Style Style
	Step  float64 // seconds between successive strummed notes
}

// New creates a humanizer with the default strum step
func New(style Style) *Humanizer {
	return &Humanizer{Style: style, Step: DefaultStrumStep}
}

// Apply flattens a sequence into the final performance events. Styles
// none and sustained copy the voiced notes through untouched; strum
// styles re-time and shade notes that sound together. The sequence
// itself is never mutated, and rests contribute nothing.
func (h *Humanizer) Apply(seq *voicing.Sequence) []note.Event {
	var events []note.Event
	for _, entry := range seq.Entries {
		if entry.Chosen == nil {
			continue
		}
		switch h.Style {
		case StyleStrumDown:
			events = append(events, h.strum(entry.Chosen, false)...)
		case StyleStrumUp:
			events = append(events, h.strum(entry.Chosen, true)...)
		case StyleStrumDownUp:
			events = append(events, h.strumDownUp(entry.Chosen)...)
		default:
			for _, n := range entry.Chosen.Notes {
				events = append(events, note.Event{Pitch: n.Pitch, Start: n.Start, End: n.End, Velocity: n.Velocity})
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start != events[j].Start {
			return events[i].Start < events[j].Start
		}
		return events[i].Pitch < events[j].Pitch
	})
	return events
}

// step returns the configured strum step held to the playable window
func (h *Humanizer) step() float64 {
	return util.Clamp(h.Step, MinStrumStep, MaxStrumStep)
}

// strum re-times each group of simultaneous notes with monotonically
// increasing onsets. Candidate notes arrive in low-to-high string (or
// pitch) order, so a downstrum offsets them in that order and an
// upstrum in reverse, the first-struck note loudest either way.
func (h *Humanizer) strum(cand *voicing.Candidate, up bool) []note.Event {
	var out []note.Event
	for _, group := range onsetGroups(cand.Notes) {
		n := len(group)
		for i, vn := range group {
			k := i
			if up {
				k = n - 1 - i
			}
			out = append(out, strummedEvent(vn, k, h.step(), vn.Start, vn.End))
		}
	}
	return out
}

// strumDownUp splits every note in half and strums the first half down
// and the second half up, the way a strummed accompaniment fills a
// slice with two opposite hand movements.
func (h *Humanizer) strumDownUp(cand *voicing.Candidate) []note.Event {
	var out []note.Event
	for _, group := range onsetGroups(cand.Notes) {
		n := len(group)
		for i, vn := range group {
			mid := vn.Start + (vn.End-vn.Start)/2
			out = append(out, strummedEvent(vn, i, h.step(), vn.Start, mid))
			out = append(out, strummedEvent(vn, n-1-i, h.step(), mid, vn.End))
		}
	}
	return out
}

// strummedEvent places one note k positions into a strum window
func strummedEvent(vn voicing.Note, k int, step, start, end float64) note.Event {
	onset := start + float64(k)*step
	if limit := end - minNoteGap; onset > limit {
		onset = limit
	}
	if onset < start {
		onset = start
	}
	return note.Event{
		Pitch:    vn.Pitch,
		Start:    onset,
		End:      end,
		Velocity: decayedVelocity(vn.Velocity, k),
	}
}

// decayedVelocity shades the k-th struck note; the floor never lifts a
// note above its source velocity.
func decayedVelocity(v, k int) int {
	floor := velocityFloor
	if v < floor {
		floor = v
	}
	return util.Clamp(v-k*velocityDecay, floor, 127)
}

// onsetGroups splits candidate notes into runs sharing an onset,
// groups ordered by time, notes keeping their candidate order.
func onsetGroups(notes []voicing.Note) [][]voicing.Note {
	starts := make([]float64, 0, len(notes))
	seen := make(map[float64]bool)
	for _, n := range notes {
		if !seen[n.Start] {
			seen[n.Start] = true
			starts = append(starts, n.Start)
		}
	}
	sort.Float64s(starts)

	groups := make([][]voicing.Note, 0, len(starts))
	for _, st := range starts {
		var group []voicing.Note
		for _, n := range notes {
			if n.Start == st {
				group = append(group, n)
			}
		}
		groups = append(groups, group)
	}
	return groups
}
