package theory

import (
	"sort"

	"github.com/MilkFoam-L/Algorhythm/internal/note"
)

// Quality represents the quality of an identified chord
type Quality string

const (
	QualityMajor   Quality = ""     // C (no suffix for major triad)
	QualityMinor   Quality = "m"    // Cm
	QualityDim     Quality = "dim"  // Cdim
	QualityAug     Quality = "aug"  // Caug
	QualityMaj7    Quality = "maj7" // Cmaj7
	QualityMin7    Quality = "m7"   // Cm7
	QualityDom7    Quality = "7"    // C7 (dominant 7th)
	QualityMin7b5  Quality = "m7b5" // Cm7b5 (half-diminished)
	QualityDim7    Quality = "dim7" // Cdim7
	QualitySus2    Quality = "sus2" // Csus2
	QualitySus4    Quality = "sus4" // Csus4
	QualityPower   Quality = "5"    // C5 (root + fifth)
	QualityUnknown Quality = "?"    // Unidentified pitch set
)

// Chord is the harmonic reading of a pitch set
type Chord struct {
	RootClass int     // pitch class of the identified root (0-11)
	BassClass int     // pitch class of the lowest sounding pitch
	Quality   Quality // chord quality
	Classes   []int   // distinct pitch classes, ascending
}

// Name returns the display name (e.g. "Cm7", "C/E")
func (c Chord) Name() string {
	name := note.ClassName(c.RootClass) + string(c.Quality)
	if c.BassClass != c.RootClass {
		name += "/" + note.ClassName(c.BassClass)
	}
	return name
}

// Analyze identifies the root and quality of a pitch set. Every pitch
// class is tried as a candidate root and the best interval-pattern
// match wins; when nothing matches, the lowest pitch is taken as the
// root (quality unknown) so callers always get a usable root class.
func Analyze(pitches []int) Chord {
	if len(pitches) == 0 {
		return Chord{Quality: QualityUnknown}
	}

	lowest := pitches[0]
	unique := make(map[int]bool)
	for _, p := range pitches {
		unique[note.Class(p)] = true
		if p < lowest {
			lowest = p
		}
	}
	classes := make([]int, 0, len(unique))
	for pc := range unique {
		classes = append(classes, pc)
	}
	sort.Ints(classes)

	bass := note.Class(lowest)

	bestRoot := bass
	bestQuality := QualityUnknown
	bestScore := 0
	for _, root := range classes {
		quality, score := matchQuality(intervalsFromRoot(classes, root))
		if score > bestScore {
			bestScore = score
			bestRoot = root
			bestQuality = quality
		}
	}

	return Chord{
		RootClass: bestRoot,
		BassClass: bass,
		Quality:   bestQuality,
		Classes:   classes,
	}
}

// intervalsFromRoot calculates semitone intervals from a root
func intervalsFromRoot(classes []int, root int) map[int]bool {
	intervals := make(map[int]bool, len(classes))
	for _, pc := range classes {
		intervals[(pc-root+12)%12] = true
	}
	return intervals
}

// matchQuality matches intervals to known chord qualities. The score
// reflects specificity so 7th chords beat the triads inside them.
func matchQuality(has map[int]bool) (Quality, int) {
	// 7th chords
	if has[0] && has[4] && has[7] && has[11] {
		return QualityMaj7, 4
	}
	if has[0] && has[3] && has[7] && has[10] {
		return QualityMin7, 4
	}
	if has[0] && has[4] && has[7] && has[10] {
		return QualityDom7, 4
	}
	if has[0] && has[3] && has[6] && has[10] {
		return QualityMin7b5, 4
	}
	if has[0] && has[3] && has[6] && has[9] {
		return QualityDim7, 4
	}

	// Triads
	if has[0] && has[4] && has[7] {
		return QualityMajor, 3
	}
	if has[0] && has[3] && has[7] {
		return QualityMinor, 3
	}
	if has[0] && has[3] && has[6] {
		return QualityDim, 3
	}
	if has[0] && has[4] && has[8] {
		return QualityAug, 3
	}

	// Sus chords
	if has[0] && has[2] && has[7] {
		return QualitySus2, 3
	}
	if has[0] && has[5] && has[7] {
		return QualitySus4, 3
	}

	// Bare fifth
	if has[0] && has[7] && len(has) == 2 {
		return QualityPower, 2
	}

	// Weak hints when nothing full matches
	if has[3] {
		return QualityMinor, 1
	}
	if has[4] {
		return QualityMajor, 1
	}

	return QualityUnknown, 0
}
