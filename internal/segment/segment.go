package segment

import (
	"fmt"
	"sort"

	"github.com/MilkFoam-L/Algorhythm/internal/note"
)

// DefaultTolerance is the onset-clustering window in seconds: onsets
// this close to the first onset of a forming cluster sound as one chord.
const DefaultTolerance = 0.05

// Slice is one harmonic time window. Member notes are the events whose
// onsets fall in the window; a slice with no notes is a rest. Slices
// are contiguous and non-overlapping across the whole timeline.
type Slice struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Label string       `json:"label,omitempty"`
	Notes []note.Event `json:"notes,omitempty"`
}

// Rest reports whether the slice is silent
func (s Slice) Rest() bool {
	return len(s.Notes) == 0
}

// Pitches returns the member pitches in ascending order
func (s Slice) Pitches() []int {
	pitches := make([]int, 0, len(s.Notes))
	for _, e := range s.Notes {
		pitches = append(pitches, e.Pitch)
	}
	sort.Ints(pitches)
	return pitches
}

// Region is a labeled chord time region supplied by an upstream
// analysis step
type Region struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Name  string  `json:"name,omitempty"`
}

// Segmenter groups a note stream into chord slices
type Segmenter struct {
	tolerance float64
}

// NewSegmenter creates a segmenter; a non-positive tolerance falls
// back to DefaultTolerance.
func NewSegmenter(tolerance float64) *Segmenter {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Segmenter{tolerance: tolerance}
}

// Tolerance returns the onset-clustering window in seconds
func (s *Segmenter) Tolerance() float64 {
	return s.tolerance
}

// Segment clusters near-simultaneous onsets into chord slices. A slice
// runs to the next cluster's onset; when every sounding note ends more
// than the tolerance before that onset, the slice closes at the last
// note-off and an explicit rest fills the gap. Empty input yields an
// empty sequence. Malformed events abort with an error.
func (s *Segmenter) Segment(events []note.Event) ([]Slice, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := note.ValidateAll(events); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	sorted := make([]note.Event, len(events))
	copy(sorted, events)
	note.SortByOnset(sorted)

	clusters := s.clusterOnsets(sorted)

	var slices []Slice
	var soundingEnd float64
	for i, cluster := range clusters {
		start := cluster[0].Start
		for _, e := range cluster {
			if e.End > soundingEnd {
				soundingEnd = e.End
			}
		}

		if i == len(clusters)-1 {
			slices = append(slices, Slice{Start: start, End: soundingEnd, Notes: cluster})
			break
		}

		next := clusters[i+1][0].Start
		if next-soundingEnd > s.tolerance {
			// silence before the next onset: close at the note-off
			// and emit a rest for the gap
			slices = append(slices, Slice{Start: start, End: soundingEnd, Notes: cluster})
			slices = append(slices, Slice{Start: soundingEnd, End: next})
		} else {
			slices = append(slices, Slice{Start: start, End: next, Notes: cluster})
		}
	}
	return slices, nil
}

// clusterOnsets groups sorted events whose onsets fall within the
// tolerance of the first onset of the forming cluster.
func (s *Segmenter) clusterOnsets(sorted []note.Event) [][]note.Event {
	var clusters [][]note.Event
	clusterStart := sorted[0].Start
	current := []note.Event{sorted[0]}

	for _, e := range sorted[1:] {
		if e.Start-clusterStart <= s.tolerance {
			current = append(current, e)
			continue
		}
		clusters = append(clusters, current)
		current = []note.Event{e}
		clusterStart = e.Start
	}
	return append(clusters, current)
}

// SegmentWithRegions aligns slice boundaries to externally supplied
// chord regions instead of onset clustering. Notes join the region
// containing their onset; gaps between regions become rests unless
// notes onset inside them, and the last slice is stretched to cover
// any note sounding past the final region. Empty regions fall back to
// Segment.
func (s *Segmenter) SegmentWithRegions(events []note.Event, regions []Region) ([]Slice, error) {
	if len(regions) == 0 {
		return s.Segment(events)
	}
	if len(events) == 0 {
		return nil, nil
	}
	if err := note.ValidateAll(events); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if err := validateRegions(regions); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	sorted := make([]note.Event, len(events))
	copy(sorted, events)
	note.SortByOnset(sorted)

	var maxEnd float64
	for _, e := range sorted {
		if e.End > maxEnd {
			maxEnd = e.End
		}
	}

	// Build the slice grid: the regions plus unnamed fillers for the
	// gaps between them, before them, and after them.
	var slices []Slice
	if sorted[0].Start < regions[0].Start {
		slices = append(slices, Slice{Start: sorted[0].Start, End: regions[0].Start})
	}
	for i, r := range regions {
		slices = append(slices, Slice{Start: r.Start, End: r.End, Label: r.Name})
		if i+1 < len(regions) && regions[i+1].Start > r.End {
			slices = append(slices, Slice{Start: r.End, End: regions[i+1].Start})
		}
	}
	if last := regions[len(regions)-1].End; maxEnd > last {
		slices = append(slices, Slice{Start: last, End: maxEnd})
	}

	for _, e := range sorted {
		i := sliceIndexAt(slices, e.Start)
		slices[i].Notes = append(slices[i].Notes, e)
	}
	return slices, nil
}

// sliceIndexAt finds the slice whose [start,end) window contains t;
// onsets at or past the final end land in the last slice.
func sliceIndexAt(slices []Slice, t float64) int {
	for i, sl := range slices {
		if t >= sl.Start && t < sl.End {
			return i
		}
	}
	return len(slices) - 1
}

// validateRegions requires ordered, non-overlapping, non-empty regions
func validateRegions(regions []Region) error {
	for i, r := range regions {
		if r.End <= r.Start {
			return fmt.Errorf("region %d (%q): end %.3f not after start %.3f", i, r.Name, r.End, r.Start)
		}
		if i > 0 && r.Start < regions[i-1].End {
			return fmt.Errorf("region %d (%q): overlaps previous region", i, r.Name)
		}
	}
	return nil
}
