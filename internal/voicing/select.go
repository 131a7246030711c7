package voicing

import (
	"github.com/MilkFoam-L/Algorhythm/internal/util"
)

// Transition cost weights. Changing which strings are in use disturbs
// the hand more than sliding along strings it already holds, so
// toggles cost more than a fret of movement; voice-count changes play
// the same role for non-fretted targets.
const (
	fretMoveCost     = 1
	stringToggleCost = 3
	voiceChangeCost  = 3
)

// Selector picks one candidate per slice by greedy local cost against
// the previous choice. It holds no state: voice-leading context is
// whatever previous candidate the caller passes in, so concurrent
// conversions never share anything through it.
type Selector struct{}

// NewSelector creates a selector
func NewSelector() *Selector {
	return &Selector{}
}

// TransitionCost scores the movement from voicing prev to next. For
// fretted voicings: fret distance on strings used by both plus a
// toggle penalty per string entering or leaving use. For non-fretted:
// pitch distance over voices matched low to high plus a penalty per
// voice appearing or vanishing.
func (s *Selector) TransitionCost(prev, next *Candidate) int {
	if prev.Fretted() && next.Fretted() {
		pf, nf := prev.stringFrets(), next.stringFrets()
		cost := 0
		for str, f := range pf {
			if g, ok := nf[str]; ok {
				cost += fretMoveCost * util.Abs(f-g)
			} else {
				cost += stringToggleCost
			}
		}
		for str := range nf {
			if _, ok := pf[str]; !ok {
				cost += stringToggleCost
			}
		}
		return cost
	}

	pa, pb := prev.Pitches(), next.Pitches()
	n := min(len(pa), len(pb))
	cost := 0
	for i := 0; i < n; i++ {
		cost += fretMoveCost * util.Abs(pa[i]-pb[i])
	}
	return cost + voiceChangeCost*util.Abs(len(pa)-len(pb))
}

// Choose returns the index of the best candidate. With no predecessor
// the lowest average fret wins; otherwise the lowest transition cost,
// then lower average fret, then enumeration order. Returns -1 for an
// empty candidate set.
func (s *Selector) Choose(prev *Candidate, cands []Candidate) int {
	if len(cands) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(cands); i++ {
		if s.prefer(prev, &cands[i], &cands[best]) {
			best = i
		}
	}
	return best
}

// prefer reports whether a should replace the incumbent b. Strict
// comparisons keep the earlier enumeration order on full ties.
func (s *Selector) prefer(prev, a, b *Candidate) bool {
	if prev == nil {
		return a.AvgFret() < b.AvgFret()
	}
	ca, cb := s.TransitionCost(prev, a), s.TransitionCost(prev, b)
	if ca != cb {
		return ca < cb
	}
	return a.AvgFret() < b.AvgFret()
}
