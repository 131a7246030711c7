package midifile

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MilkFoam-L/Algorhythm/internal/note"
)

// ticksPerQuarter is the metric resolution of written files
const ticksPerQuarter = 960

// Build assembles an event stream into a single-track SMF with the
// given General MIDI program, tempo, and track name.
func Build(events []note.Event, program int, tempoBPM float64, trackName string) (*smf.SMF, error) {
	if tempoBPM <= 0 {
		tempoBPM = 120
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(trackName))
	tr.Add(0, smf.MetaTempo(tempoBPM))
	tr.Add(0, midi.ProgramChange(0, uint8(program)))

	type timedMsg struct {
		tick uint32
		off  bool
		msg  midi.Message
	}
	secPerTick := 60.0 / (tempoBPM * ticksPerQuarter)
	msgs := make([]timedMsg, 0, 2*len(events))
	for _, e := range events {
		on := uint32(math.Round(e.Start / secPerTick))
		off := uint32(math.Round(e.End / secPerTick))
		if off <= on {
			off = on + 1
		}
		msgs = append(msgs, timedMsg{tick: on, msg: midi.NoteOn(0, uint8(e.Pitch), uint8(e.Velocity))})
		msgs = append(msgs, timedMsg{tick: off, off: true, msg: midi.NoteOff(0, uint8(e.Pitch))})
	}
	// note-offs sort before note-ons at the same tick so retriggered
	// pitches close cleanly
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})

	var last uint32
	for _, m := range msgs {
		tr.Add(m.tick-last, m.msg)
		last = m.tick
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("assemble midi track: %w", err)
	}
	return s, nil
}

// WriteFile renders an event stream to a Standard MIDI File on disk
func WriteFile(path string, events []note.Event, program int, tempoBPM float64, trackName string) error {
	s, err := Build(events, program, tempoBPM, trackName)
	if err != nil {
		return err
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("write midi %s: %w", path, err)
	}
	return nil
}

// WriteTo renders an event stream as SMF bytes to a writer
func WriteTo(w io.Writer, events []note.Event, program int, tempoBPM float64, trackName string) error {
	s, err := Build(events, program, tempoBPM, trackName)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}
