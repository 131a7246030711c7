package segment

import (
	"errors"
	"testing"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
)

func ev(pitch int, start, end float64) note.Event {
	return note.Event{Pitch: pitch, Start: start, End: end, Velocity: 100}
}

func TestSegment_ClustersWithinTolerance(t *testing.T) {
	// Three onsets inside the window sound as one chord; the fourth
	// starts a new slice.
	events := []note.Event{
		ev(60, 0.00, 0.18),
		ev(64, 0.02, 0.18),
		ev(67, 0.04, 0.18),
		ev(57, 0.20, 0.40),
	}

	slices, err := NewSegmenter(0.05).Segment(events)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if len(slices) != 2 {
		t.Fatalf("Expected 2 slices, got %d", len(slices))
	}
	if len(slices[0].Notes) != 3 {
		t.Errorf("First slice should hold the chord, got %d notes", len(slices[0].Notes))
	}
	if len(slices[1].Notes) != 1 {
		t.Errorf("Second slice should hold one note, got %d", len(slices[1].Notes))
	}
	if slices[0].End != slices[1].Start {
		t.Errorf("Slices should be contiguous: %f vs %f", slices[0].End, slices[1].Start)
	}
}

func TestSegment_WindowAnchorsOnFirstOnset(t *testing.T) {
	// 0.04 joins the cluster at 0.00 but 0.08 does not, even though it
	// is within the window of 0.04: the window never slides.
	events := []note.Event{
		ev(60, 0.00, 0.50),
		ev(64, 0.04, 0.50),
		ev(67, 0.08, 0.50),
	}

	slices, err := NewSegmenter(0.05).Segment(events)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if len(slices) != 2 {
		t.Fatalf("Expected 2 slices, got %d", len(slices))
	}
	if len(slices[0].Notes) != 2 || len(slices[1].Notes) != 1 {
		t.Errorf("Cluster split should be 2+1, got %d+%d", len(slices[0].Notes), len(slices[1].Notes))
	}
}

func TestSegment_RestFillsGap(t *testing.T) {
	events := []note.Event{
		ev(60, 0.0, 0.5),
		ev(64, 1.0, 1.5),
	}

	slices, err := NewSegmenter(0.05).Segment(events)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if len(slices) != 3 {
		t.Fatalf("Expected chord, rest, chord, got %d slices", len(slices))
	}
	if !slices[1].Rest() {
		t.Error("Middle slice should be a rest")
	}
	if slices[1].Start != 0.5 || slices[1].End != 1.0 {
		t.Errorf("Rest should span the silence, got %f-%f", slices[1].Start, slices[1].End)
	}
}

func TestSegment_PartitionIsLossless(t *testing.T) {
	events := []note.Event{
		ev(48, 0.00, 0.40),
		ev(60, 0.01, 0.45),
		ev(64, 0.03, 0.45),
		ev(55, 0.50, 0.90),
		ev(59, 0.52, 0.90),
		ev(62, 1.50, 2.00),
	}

	slices, err := NewSegmenter(0.05).Segment(events)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	total := 0
	for i, sl := range slices {
		total += len(sl.Notes)
		if sl.End <= sl.Start {
			t.Errorf("Slice %d has non-positive width %f-%f", i, sl.Start, sl.End)
		}
		if i > 0 && slices[i-1].End != sl.Start {
			t.Errorf("Gap or overlap between slice %d and %d", i-1, i)
		}
		for _, n := range sl.Notes {
			if n.Start < sl.Start || n.Start >= sl.End {
				t.Errorf("Slice %d contains note onset %f outside %f-%f", i, n.Start, sl.Start, sl.End)
			}
		}
	}
	if total != len(events) {
		t.Errorf("Every event should land in exactly one slice: %d != %d", total, len(events))
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	slices, err := NewSegmenter(0.05).Segment(nil)
	if err != nil {
		t.Errorf("Empty input should not error, got %v", err)
	}
	if len(slices) != 0 {
		t.Errorf("Empty input should yield no slices, got %d", len(slices))
	}
}

func TestSegment_MalformedEventAborts(t *testing.T) {
	events := []note.Event{
		ev(60, 0.0, 1.0),
		ev(64, 0.5, 0.5),
	}

	slices, err := NewSegmenter(0.05).Segment(events)
	if !errors.Is(err, apperrors.ErrMalformedNoteEvent) {
		t.Errorf("Zero-length event should abort segmentation, got %v", err)
	}
	if slices != nil {
		t.Error("No partial output should survive a malformed event")
	}
}

func TestSegment_DefaultToleranceFallback(t *testing.T) {
	s := NewSegmenter(-1)
	if s.Tolerance() != DefaultTolerance {
		t.Errorf("Non-positive tolerance should fall back to default, got %f", s.Tolerance())
	}
}

func TestSegmentWithRegions(t *testing.T) {
	t.Run("NotesJoinRegionByOnset", func(t *testing.T) {
		events := []note.Event{
			ev(60, 0.1, 0.9),
			ev(64, 0.1, 0.9),
			ev(57, 1.1, 1.9),
		}
		regions := []Region{
			{Start: 0, End: 1, Name: "C"},
			{Start: 1, End: 2, Name: "Am"},
		}

		slices, err := NewSegmenter(0.05).SegmentWithRegions(events, regions)
		if err != nil {
			t.Fatalf("SegmentWithRegions failed: %v", err)
		}

		if len(slices) != 2 {
			t.Fatalf("Expected one slice per region, got %d", len(slices))
		}
		if slices[0].Label != "C" || slices[1].Label != "Am" {
			t.Errorf("Region names should become labels, got %q and %q", slices[0].Label, slices[1].Label)
		}
		if len(slices[0].Notes) != 2 || len(slices[1].Notes) != 1 {
			t.Errorf("Notes should join by onset, got %d+%d", len(slices[0].Notes), len(slices[1].Notes))
		}
	})

	t.Run("GapBetweenRegionsBecomesFiller", func(t *testing.T) {
		events := []note.Event{
			ev(60, 0.1, 0.4),
			ev(62, 0.7, 0.9),
		}
		regions := []Region{
			{Start: 0, End: 0.5, Name: "C"},
			{Start: 1.0, End: 1.5, Name: "D"},
		}

		slices, err := NewSegmenter(0.05).SegmentWithRegions(events, regions)
		if err != nil {
			t.Fatalf("SegmentWithRegions failed: %v", err)
		}

		if len(slices) != 3 {
			t.Fatalf("Expected region, filler, region, got %d slices", len(slices))
		}
		if slices[1].Label != "" {
			t.Errorf("Filler slice should be unnamed, got %q", slices[1].Label)
		}
		if len(slices[1].Notes) != 1 {
			t.Errorf("Note starting in the gap should land in the filler, got %d notes", len(slices[1].Notes))
		}
	})

	t.Run("TailStretchesPastLastRegion", func(t *testing.T) {
		events := []note.Event{
			ev(60, 0.1, 2.5),
		}
		regions := []Region{
			{Start: 0, End: 1, Name: "C"},
		}

		slices, err := NewSegmenter(0.05).SegmentWithRegions(events, regions)
		if err != nil {
			t.Fatalf("SegmentWithRegions failed: %v", err)
		}

		last := slices[len(slices)-1]
		if last.End != 2.5 {
			t.Errorf("Grid should cover the full sounding time, last slice ends at %f", last.End)
		}
	})

	t.Run("InvalidRegionRejected", func(t *testing.T) {
		events := []note.Event{ev(60, 0, 1)}
		regions := []Region{{Start: 1, End: 1, Name: "bad"}}

		if _, err := NewSegmenter(0.05).SegmentWithRegions(events, regions); err == nil {
			t.Error("Zero-width region should be rejected")
		}
	})

	t.Run("OverlappingRegionsRejected", func(t *testing.T) {
		events := []note.Event{ev(60, 0, 1)}
		regions := []Region{
			{Start: 0, End: 1, Name: "a"},
			{Start: 0.5, End: 1.5, Name: "b"},
		}

		if _, err := NewSegmenter(0.05).SegmentWithRegions(events, regions); err == nil {
			t.Error("Overlapping regions should be rejected")
		}
	})

	t.Run("EmptyRegionsFallBackToClustering", func(t *testing.T) {
		events := []note.Event{
			ev(60, 0.0, 0.5),
			ev(64, 1.0, 1.5),
		}

		withNil, err := NewSegmenter(0.05).SegmentWithRegions(events, nil)
		if err != nil {
			t.Fatalf("SegmentWithRegions failed: %v", err)
		}
		plain, err := NewSegmenter(0.05).Segment(events)
		if err != nil {
			t.Fatalf("Segment failed: %v", err)
		}
		if len(withNil) != len(plain) {
			t.Errorf("Nil regions should behave like Segment: %d vs %d slices", len(withNil), len(plain))
		}
	})
}
