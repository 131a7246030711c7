package instrument

import (
	"fmt"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
)

// Kind classifies how voicings are produced for a profile
type Kind string

const (
	KindFretted  Kind = "fretted"  // fingering enumeration over strings and frets
	KindBass     Kind = "bass"     // root-line target, octave-folded into range
	KindEnsemble Kind = "ensemble" // section target, octave-folded into range
)

// Profile describes the physical playing constraints of one target
// instrument. Profiles are immutable once registered and shared
// read-only across concurrent conversions.
type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Kind        Kind   `yaml:"kind" json:"kind"`
	MinPitch    int    `yaml:"min_pitch" json:"min_pitch"`
	MaxPitch    int    `yaml:"max_pitch" json:"max_pitch"`
	Polyphony   int    `yaml:"polyphony" json:"polyphony"`
	OpenStrings []int  `yaml:"open_strings,omitempty" json:"open_strings,omitempty"`
	MaxFret     int    `yaml:"max_fret,omitempty" json:"max_fret,omitempty"`
	MaxFretSpan int    `yaml:"max_fret_span,omitempty" json:"max_fret_span,omitempty"`
	Program     int    `yaml:"program" json:"program"` // General MIDI program for rendering
}

// Fretted reports whether the profile carries string data and takes
// the fingering enumerator instead of the range adapter.
func (p Profile) Fretted() bool {
	return p.Kind == KindFretted
}

// Validate checks the profile for internal consistency
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", apperrors.ErrInvalidProfile)
	}
	switch p.Kind {
	case KindFretted, KindBass, KindEnsemble:
	default:
		return fmt.Errorf("%w: %s: unknown kind %q", apperrors.ErrInvalidProfile, p.Name, p.Kind)
	}
	if p.MinPitch < 0 || p.MaxPitch > 127 || p.MinPitch >= p.MaxPitch {
		return fmt.Errorf("%w: %s: range %d-%d", apperrors.ErrInvalidProfile, p.Name, p.MinPitch, p.MaxPitch)
	}
	if p.Polyphony < 1 {
		return fmt.Errorf("%w: %s: polyphony %d", apperrors.ErrInvalidProfile, p.Name, p.Polyphony)
	}
	if p.Program < 0 || p.Program > 127 {
		return fmt.Errorf("%w: %s: program %d", apperrors.ErrInvalidProfile, p.Name, p.Program)
	}
	if p.Kind == KindFretted {
		if len(p.OpenStrings) == 0 {
			return fmt.Errorf("%w: %s: fretted profile without open strings", apperrors.ErrInvalidProfile, p.Name)
		}
		if p.MaxFret < 1 || p.MaxFretSpan < 1 {
			return fmt.Errorf("%w: %s: max fret %d, span %d", apperrors.ErrInvalidProfile, p.Name, p.MaxFret, p.MaxFretSpan)
		}
		for i, open := range p.OpenStrings {
			if open < 0 || open > 127 {
				return fmt.Errorf("%w: %s: open string %d pitch %d", apperrors.ErrInvalidProfile, p.Name, i, open)
			}
			if i > 0 && open <= p.OpenStrings[i-1] {
				return fmt.Errorf("%w: %s: open strings not ascending at index %d", apperrors.ErrInvalidProfile, p.Name, i)
			}
		}
	} else if len(p.OpenStrings) > 0 {
		return fmt.Errorf("%w: %s: %s profile with open strings", apperrors.ErrInvalidProfile, p.Name, p.Kind)
	}
	return nil
}

// builtinProfiles returns the static profile table. Tunings and ranges
// follow common practice: standard and drop-D guitar, 4- and 5-string
// bass played as a root line, and a string section folded into C2-C6.
func builtinProfiles() []Profile {
	return []Profile{
		{
			Name:        "guitar_standard",
			Kind:        KindFretted,
			MinPitch:    40, // E2
			MaxPitch:    76, // E5
			Polyphony:   6,
			OpenStrings: []int{40, 45, 50, 55, 59, 64}, // E2 A2 D3 G3 B3 E4
			MaxFret:     12,
			MaxFretSpan: 4,
			Program:     24, // nylon guitar
		},
		{
			Name:        "guitar_drop_d",
			Kind:        KindFretted,
			MinPitch:    38, // D2
			MaxPitch:    76,
			Polyphony:   6,
			OpenStrings: []int{38, 45, 50, 55, 59, 64}, // D2 A2 D3 G3 B3 E4
			MaxFret:     12,
			MaxFretSpan: 4,
			Program:     24,
		},
		{
			Name:      "bass_4string",
			Kind:      KindBass,
			MinPitch:  28, // E1
			MaxPitch:  55, // G3
			Polyphony: 2,
			Program:   32, // acoustic bass
		},
		{
			Name:      "bass_5string",
			Kind:      KindBass,
			MinPitch:  23, // B0
			MaxPitch:  55,
			Polyphony: 2,
			Program:   32,
		},
		{
			Name:      "strings_quartet",
			Kind:      KindEnsemble,
			MinPitch:  36, // C2
			MaxPitch:  84, // C6
			Polyphony: 4,
			Program:   48, // string ensemble
		},
	}
}
