package note

import (
	"fmt"
	"sort"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
)

// Event represents a single note in a polyphonic stream
type Event struct {
	Pitch    int     `json:"pitch"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Velocity int     `json:"velocity"`
}

// Duration returns the sounding length of the event in seconds
func (e Event) Duration() float64 {
	return e.End - e.Start
}

// Validate checks the event against the wire contract: pitch and
// velocity in MIDI range, end strictly after start.
func (e Event) Validate() error {
	if e.Pitch < 0 || e.Pitch > 127 {
		return fmt.Errorf("%w: pitch %d outside 0-127", apperrors.ErrMalformedNoteEvent, e.Pitch)
	}
	if e.Velocity < 0 || e.Velocity > 127 {
		return fmt.Errorf("%w: velocity %d outside 0-127", apperrors.ErrMalformedNoteEvent, e.Velocity)
	}
	if e.End <= e.Start {
		return fmt.Errorf("%w: end %.3f not after start %.3f", apperrors.ErrMalformedNoteEvent, e.End, e.Start)
	}
	return nil
}

// ValidateAll checks every event and reports the first malformed one
// with its index in the input order.
func ValidateAll(events []Event) error {
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// SortByOnset orders events by start time, breaking ties by pitch so
// equal inputs always produce the same ordering.
func SortByOnset(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start != events[j].Start {
			return events[i].Start < events[j].Start
		}
		return events[i].Pitch < events[j].Pitch
	})
}

var classNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Class returns the pitch class (0-11) of a MIDI pitch
func Class(pitch int) int {
	return ((pitch % 12) + 12) % 12
}

// ClassName returns the note name of a pitch class, sharps only
func ClassName(class int) string {
	return classNames[((class%12)+12)%12]
}

// Name returns the scientific pitch name of a MIDI pitch (60 = "C4")
func Name(pitch int) string {
	return fmt.Sprintf("%s%d", ClassName(Class(pitch)), pitch/12-1)
}
