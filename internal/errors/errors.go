package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrMalformedNoteEvent = errors.New("malformed note event")
	ErrUnknownInstrument  = errors.New("unknown instrument")
	ErrUnplayableChord    = errors.New("chord not playable on instrument")
	ErrInvalidProfile     = errors.New("invalid instrument profile")
	ErrDuplicateProfile   = errors.New("instrument profile already registered")
	ErrUnknownStyle       = errors.New("unknown humanize style")
	ErrFileNotFound       = errors.New("file not found")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrCorruptedFile      = errors.New("file corrupted or unreadable")
)

// ConversionError represents a failure while converting a note stream
type ConversionError struct {
	Stage      string // "validate", "segment", "enumerate", "select", "humanize", "render"
	Instrument string
	Slice      int // slice index, -1 when not slice-scoped
	Detail     string
	Cause      error
}

func (e *ConversionError) Error() string {
	if e.Slice >= 0 {
		return fmt.Sprintf("%s failed at slice %d (%s): %s", e.Stage, e.Slice, e.Instrument, e.Detail)
	}
	if e.Instrument != "" {
		return fmt.Sprintf("%s failed (%s): %s", e.Stage, e.Instrument, e.Detail)
	}
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Detail)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// IsRecoverable returns true if the conversion can continue past this error.
// Unplayable chords degrade to a rest slice; everything else aborts.
func (e *ConversionError) IsRecoverable() bool {
	return errors.Is(e.Cause, ErrUnplayableChord)
}

// NewConversionError creates a ConversionError
func NewConversionError(stage, instrument string, slice int, detail string, cause error) *ConversionError {
	return &ConversionError{
		Stage:      stage,
		Instrument: instrument,
		Slice:      slice,
		Detail:     detail,
		Cause:      cause,
	}
}
