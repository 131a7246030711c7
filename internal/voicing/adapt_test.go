package voicing

import (
	"reflect"
	"testing"

	"github.com/MilkFoam-L/Algorhythm/internal/instrument"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
	"github.com/MilkFoam-L/Algorhythm/internal/segment"
)

func bassProfile() instrument.Profile {
	return instrument.Profile{
		Name:      "bass_4string",
		Kind:      instrument.KindBass,
		MinPitch:  28,
		MaxPitch:  55,
		Polyphony: 2,
		Program:   32,
	}
}

func TestAdapt_FoldsTriadIntoBassRange(t *testing.T) {
	adapter := NewAdapter(bassProfile())

	cands := adapter.Adapt(chordSlice(0, 1, 60, 64, 67))
	if len(cands) != 1 {
		t.Fatalf("Adapter should yield exactly one candidate, got %d", len(cands))
	}

	got := cands[0].Pitches()
	if !reflect.DeepEqual(got, []int{48, 52}) {
		t.Errorf("C major on 2-voice bass should fold and prune to [48 52], got %v", got)
	}
	for _, n := range cands[0].Notes {
		if n.Pitch > 55 || n.Pitch < 28 {
			t.Errorf("Pitch %d escapes the instrument range", n.Pitch)
		}
		if n.String != -1 || n.Fret != -1 {
			t.Errorf("Non-fretted notes should carry no position, got s%d.f%d", n.String, n.Fret)
		}
	}
}

func TestAdapt_PruneKeepsRootOverUpperVoices(t *testing.T) {
	adapter := NewAdapter(bassProfile())

	// C7: the seventh folds below the root and becomes the new bass;
	// pruning then strips the fifth and third from the top.
	cands := adapter.Adapt(chordSlice(0, 1, 60, 64, 67, 70))
	if len(cands) != 1 {
		t.Fatalf("Expected one candidate, got %d", len(cands))
	}
	got := cands[0].Pitches()
	if !reflect.DeepEqual(got, []int{46, 48}) {
		t.Errorf("Expected [46 48] after folding and pruning, got %v", got)
	}
}

func TestAdapt_AllRootKeepsLowest(t *testing.T) {
	profile := bassProfile()
	profile.Polyphony = 1
	adapter := NewAdapter(profile)

	cands := adapter.Adapt(chordSlice(0, 1, 36, 48))
	if len(cands) != 1 {
		t.Fatalf("Expected one candidate, got %d", len(cands))
	}
	got := cands[0].Pitches()
	if !reflect.DeepEqual(got, []int{36}) {
		t.Errorf("Pruning an all-root chord should keep the lowest note, got %v", got)
	}
}

func TestAdapt_UnfoldableBassYieldsNothing(t *testing.T) {
	// A range narrower than an octave cannot hold every pitch class.
	profile := bassProfile()
	profile.MinPitch = 40
	profile.MaxPitch = 45
	adapter := NewAdapter(profile)

	if cands := adapter.Adapt(chordSlice(0, 1, 47)); cands != nil {
		t.Errorf("Unfoldable lowest note should yield no candidate, got %d", len(cands))
	}
}

func TestAdapt_InRangeNotesPassThrough(t *testing.T) {
	adapter := NewAdapter(bassProfile())

	sl := segment.Slice{Start: 0.5, End: 1.25, Notes: []note.Event{
		{Pitch: 43, Start: 0.5, End: 1.25, Velocity: 64},
		{Pitch: 50, Start: 0.5, End: 1.2, Velocity: 110},
	}}
	cands := adapter.Adapt(sl)
	if len(cands) != 1 {
		t.Fatalf("Expected one candidate, got %d", len(cands))
	}

	notes := cands[0].Notes
	if len(notes) != 2 {
		t.Fatalf("Expected 2 notes, got %d", len(notes))
	}
	if notes[0].Pitch != 43 || notes[1].Pitch != 50 {
		t.Errorf("In-range pitches should pass through unchanged, got %v", cands[0].Pitches())
	}
	if notes[0].Velocity != 64 || notes[1].Velocity != 110 {
		t.Error("Velocities should pass through unchanged")
	}
	if notes[1].End != 1.2 {
		t.Errorf("Note times should pass through unchanged, got end %f", notes[1].End)
	}
}

func TestAdapt_FoldsUpFromBelow(t *testing.T) {
	adapter := NewAdapter(bassProfile())

	cands := adapter.Adapt(chordSlice(0, 1, 23))
	if len(cands) != 1 {
		t.Fatalf("Expected one candidate, got %d", len(cands))
	}
	if got := cands[0].Pitches(); !reflect.DeepEqual(got, []int{35}) {
		t.Errorf("Pitch below range should fold up an octave, got %v", got)
	}
}

func TestAdapt_OctaveDoublingCollapses(t *testing.T) {
	adapter := NewAdapter(bassProfile())

	cands := adapter.Adapt(chordSlice(0, 1, 60, 72))
	if len(cands) != 1 {
		t.Fatalf("Expected one candidate, got %d", len(cands))
	}
	if got := cands[0].Pitches(); !reflect.DeepEqual(got, []int{48}) {
		t.Errorf("Octave doublings folding to one pitch should collapse, got %v", got)
	}
}

func TestAdapt_RestYieldsNothing(t *testing.T) {
	adapter := NewAdapter(bassProfile())
	if cands := adapter.Adapt(segment.Slice{Start: 0, End: 1}); cands != nil {
		t.Error("Rest slice should yield no candidate")
	}
}
