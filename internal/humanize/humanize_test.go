package humanize

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
	"github.com/MilkFoam-L/Algorhythm/internal/segment"
	"github.com/MilkFoam-L/Algorhythm/internal/voicing"
)

const timeEps = 1e-9

func vnote(pitch int, start, end float64, velocity int) voicing.Note {
	return voicing.Note{Pitch: pitch, Start: start, End: end, Velocity: velocity, String: -1, Fret: -1}
}

func seqOf(cands ...*voicing.Candidate) *voicing.Sequence {
	seq := &voicing.Sequence{}
	for _, c := range cands {
		entry := voicing.Entry{Chosen: c}
		if c != nil && len(c.Notes) > 0 {
			entry.Slice = segment.Slice{Start: c.Notes[0].Start, End: c.Notes[0].End}
		}
		seq.Entries = append(seq.Entries, entry)
	}
	return seq
}

func near(a, b float64) bool {
	return math.Abs(a-b) < timeEps
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Style
	}{
		{"EmptyMeansNone", "", StyleNone},
		{"None", "none", StyleNone},
		{"Sustained", "sustained", StyleSustained},
		{"StrumDown", "strum-down", StyleStrumDown},
		{"StrumUp", "strum-up", StyleStrumUp},
		{"StrumDownUp", "strum-down-up", StyleStrumDownUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStyle(tt.input)
			if err != nil {
				t.Fatalf("ParseStyle(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("UnknownStyleRejected", func(t *testing.T) {
		_, err := ParseStyle("swing")
		if !errors.Is(err, apperrors.ErrUnknownStyle) {
			t.Errorf("Expected ErrUnknownStyle, got %v", err)
		}
	})
}

func TestApply_NonePassesThrough(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(48, 0, 1, 100),
		vnote(52, 0, 1, 96),
	}}

	events := New(StyleNone).Apply(seqOf(cand))
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	for i, ev := range events {
		src := cand.Notes[i]
		if ev.Pitch != src.Pitch || ev.Start != src.Start || ev.End != src.End || ev.Velocity != src.Velocity {
			t.Errorf("Event %d should pass through untouched, got %+v", i, ev)
		}
	}
}

func TestApply_SustainedMatchesNone(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(40, 0.25, 1.5, 80),
		vnote(47, 0.25, 1.5, 80),
	}}

	none := New(StyleNone).Apply(seqOf(cand))
	sustained := New(StyleSustained).Apply(seqOf(cand))
	if len(none) != len(sustained) {
		t.Fatalf("Style counts differ: %d vs %d", len(none), len(sustained))
	}
	for i := range none {
		if none[i] != sustained[i] {
			t.Errorf("Event %d differs between none and sustained", i)
		}
	}
}

func TestApply_StrumDown(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(48, 0, 1, 100),
		vnote(52, 0, 1, 100),
		vnote(55, 0, 1, 100),
	}}

	events := New(StyleStrumDown).Apply(seqOf(cand))
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	wantOnsets := []float64{0, 0.010, 0.020}
	wantVels := []int{100, 96, 92}
	wantPitches := []int{48, 52, 55}
	for i, ev := range events {
		if !near(ev.Start, wantOnsets[i]) {
			t.Errorf("Event %d onset: expected %f, got %f", i, wantOnsets[i], ev.Start)
		}
		if ev.Velocity != wantVels[i] {
			t.Errorf("Event %d velocity: expected %d, got %d", i, wantVels[i], ev.Velocity)
		}
		if ev.Pitch != wantPitches[i] {
			t.Errorf("Downstrum should strike low strings first, got pitch %d at %d", ev.Pitch, i)
		}
		if ev.End != 1 {
			t.Errorf("Note ends should be preserved, got %f", ev.End)
		}
	}
}

func TestApply_StrumUpStrikesHighFirst(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(48, 0, 1, 100),
		vnote(52, 0, 1, 100),
		vnote(55, 0, 1, 100),
	}}

	events := New(StyleStrumUp).Apply(seqOf(cand))
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	if events[0].Pitch != 55 || !near(events[0].Start, 0) || events[0].Velocity != 100 {
		t.Errorf("Upstrum should strike the highest note first at full velocity, got %+v", events[0])
	}
	if events[2].Pitch != 48 || !near(events[2].Start, 0.020) || events[2].Velocity != 92 {
		t.Errorf("Upstrum should reach the lowest note last, got %+v", events[2])
	}
}

func TestApply_StrumClampsNearSliceEnd(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(48, 0, 0.005, 100),
		vnote(52, 0, 0.005, 100),
		vnote(55, 0, 0.005, 100),
	}}

	events := New(StyleStrumDown).Apply(seqOf(cand))
	for _, ev := range events {
		if ev.Start < 0 {
			t.Errorf("Onset moved before the slice start: %f", ev.Start)
		}
		if ev.Start > 0.005-minNoteGap+timeEps {
			t.Errorf("Onset %f should be clamped below the note end", ev.Start)
		}
		if ev.End <= ev.Start {
			t.Errorf("Clamping must keep a positive duration, got %f-%f", ev.Start, ev.End)
		}
	}
}

func TestApply_VelocityDecayHasFloor(t *testing.T) {
	t.Run("DecaysToFloor", func(t *testing.T) {
		cand := &voicing.Candidate{Notes: []voicing.Note{
			vnote(40, 0, 1, 50),
			vnote(45, 0, 1, 50),
			vnote(50, 0, 1, 50),
			vnote(55, 0, 1, 50),
		}}
		events := New(StyleStrumDown).Apply(seqOf(cand))
		want := []int{50, 46, 42, 40}
		for i, ev := range events {
			if ev.Velocity != want[i] {
				t.Errorf("Event %d velocity: expected %d, got %d", i, want[i], ev.Velocity)
			}
		}
	})

	t.Run("QuietNotesNeverLifted", func(t *testing.T) {
		cand := &voicing.Candidate{Notes: []voicing.Note{
			vnote(40, 0, 1, 30),
			vnote(45, 0, 1, 30),
		}}
		events := New(StyleStrumDown).Apply(seqOf(cand))
		for _, ev := range events {
			if ev.Velocity != 30 {
				t.Errorf("Velocity below the floor should stay put, got %d", ev.Velocity)
			}
		}
	})
}

func TestApply_StrumDownUpSplitsNotes(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(48, 0, 1, 100),
		vnote(55, 0, 1, 100),
	}}

	events := New(StyleStrumDownUp).Apply(seqOf(cand))
	if len(events) != 4 {
		t.Fatalf("Down-up should double the events, got %d", len(events))
	}

	if events[0].Pitch != 48 || !near(events[0].Start, 0) || !near(events[0].End, 0.5) {
		t.Errorf("Down half should start low at the slice start, got %+v", events[0])
	}
	if events[2].Pitch != 55 || !near(events[2].Start, 0.5) || events[2].Velocity != 100 {
		t.Errorf("Up half should strike the high note first at the midpoint, got %+v", events[2])
	}
	for _, ev := range events {
		if !near(ev.End, 0.5) && !near(ev.End, 1) {
			t.Errorf("Each half should end at the midpoint or the slice end, got %f", ev.End)
		}
	}
}

func TestApply_RestsContributeNothing(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{vnote(48, 1, 2, 90)}}

	events := New(StyleStrumDown).Apply(seqOf(nil, cand, nil))
	if len(events) != 1 {
		t.Fatalf("Rests should emit no events, got %d", len(events))
	}
	if events[0].Pitch != 48 {
		t.Errorf("Expected the voiced note, got %d", events[0].Pitch)
	}
}

func TestApply_SeparateOnsetsStrumIndependently(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(40, 0, 1, 100),
		vnote(52, 0, 1, 100),
		vnote(55, 0.5, 1, 100),
	}}

	events := New(StyleStrumDown).Apply(seqOf(cand))
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	last := events[2]
	if last.Pitch != 55 || !near(last.Start, 0.5) || last.Velocity != 100 {
		t.Errorf("A lone later onset starts its own strum, got %+v", last)
	}
}

func TestApply_StepHeldToPlayableWindow(t *testing.T) {
	cand := &voicing.Candidate{Notes: []voicing.Note{
		vnote(48, 0, 1, 100),
		vnote(52, 0, 1, 100),
	}}

	t.Run("WideStepClamped", func(t *testing.T) {
		h := &Humanizer{Style: StyleStrumDown, Step: 0.05}
		events := h.Apply(seqOf(cand))
		if !near(events[1].Start, MaxStrumStep) {
			t.Errorf("Step should clamp to %f, got onset %f", MaxStrumStep, events[1].Start)
		}
	})

	t.Run("NarrowStepClamped", func(t *testing.T) {
		h := &Humanizer{Style: StyleStrumDown, Step: 0.001}
		events := h.Apply(seqOf(cand))
		if !near(events[1].Start, MinStrumStep) {
			t.Errorf("Step should clamp to %f, got onset %f", MinStrumStep, events[1].Start)
		}
	})
}
