package midifile

import (
	"bytes"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
)

// Magic bytes of a Standard MIDI File header
var smfMagic = []byte("MThd")

// MIDI channel 10 (index 9) is percussion and carries no pitches worth
// voicing.
const drumChannel = 9

// Meta carries label-only metadata lifted from a source file
type Meta struct {
	TempoBPM float64 `json:"tempo_bpm"`
	Tracks   int     `json:"tracks"`
}

// Read parses a Standard MIDI File into a note event stream. Note-ons
// pair per channel and key with the earliest unmatched note-off, the
// percussion channel is skipped, and the first tempo found becomes the
// label tempo (120 BPM when the file has none).
func Read(path string) ([]note.Event, Meta, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, Meta{}, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, Meta{}, fmt.Errorf("read midi: %w", err)
	}
	if !bytes.HasPrefix(data, smfMagic) {
		return nil, Meta{}, fmt.Errorf("%w: %s is not a Standard MIDI File", apperrors.ErrUnsupportedFormat, path)
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, Meta{}, fmt.Errorf("%w: %s: %v", apperrors.ErrCorruptedFile, path, err)
	}
	return Extract(s)
}

// pendingNote is a sounding note waiting for its note-off
type pendingNote struct {
	start    float64
	velocity int
}

// Extract flattens an in-memory SMF into note events ordered by onset
func Extract(s *smf.SMF) ([]note.Event, Meta, error) {
	meta := Meta{TempoBPM: 120, Tracks: len(s.Tracks)}
	tempoSet := false

	var events []note.Event
	for _, track := range s.Tracks {
		pending := make(map[uint16][]pendingNote)
		var absTicks int64
		var trackEnd float64

		for _, ev := range track {
			absTicks += int64(ev.Delta)
			t := float64(s.TimeAt(absTicks)) / 1e6 // microseconds to seconds
			if t > trackEnd {
				trackEnd = t
			}

			var ch, key, vel uint8
			var bpm float64
			switch {
			case ev.Message.GetNoteOn(&ch, &key, &vel):
				if ch == drumChannel {
					continue
				}
				if vel == 0 {
					// running-status note-off
					events = closePending(events, pending, ch, key, t)
					continue
				}
				k := pendingKey(ch, key)
				pending[k] = append(pending[k], pendingNote{start: t, velocity: int(vel)})
			case ev.Message.GetNoteOff(&ch, &key, &vel):
				if ch == drumChannel {
					continue
				}
				events = closePending(events, pending, ch, key, t)
			case ev.Message.GetMetaTempo(&bpm):
				if !tempoSet && bpm > 0 {
					meta.TempoBPM = bpm
					tempoSet = true
				}
			}
		}

		// notes the file never closed end with the track
		for k, open := range pending {
			pitch := int(k & 0xff)
			for _, p := range open {
				if trackEnd > p.start {
					events = append(events, note.Event{Pitch: pitch, Start: p.start, End: trackEnd, Velocity: p.velocity})
				}
			}
		}
	}

	note.SortByOnset(events)
	return events, meta, nil
}

func pendingKey(ch, key uint8) uint16 {
	return uint16(ch)<<8 | uint16(key)
}

// closePending finishes the earliest sounding note for a channel and
// key; unmatched note-offs are dropped.
func closePending(events []note.Event, pending map[uint16][]pendingNote, ch, key uint8, end float64) []note.Event {
	k := pendingKey(ch, key)
	open := pending[k]
	if len(open) == 0 {
		return events
	}
	p := open[0]
	pending[k] = open[1:]
	if end <= p.start {
		return events
	}
	return append(events, note.Event{Pitch: int(key), Start: p.start, End: end, Velocity: p.velocity})
}
