package engine

import (
	"fmt"
	"sync"

	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
	"github.com/MilkFoam-L/Algorhythm/internal/humanize"
	"github.com/MilkFoam-L/Algorhythm/internal/instrument"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
	"github.com/MilkFoam-L/Algorhythm/internal/segment"
	"github.com/MilkFoam-L/Algorhythm/internal/theory"
	"github.com/MilkFoam-L/Algorhythm/internal/voicing"
)

// Config controls one conversion
type Config struct {
	Instrument string           // profile name, must resolve in the registry
	Style      humanize.Style   // performance gesture for the output
	Tolerance  float64          // onset-clustering window in seconds
	Regions    []segment.Region // optional chord regions guiding segmentation
	TempoBPM   float64          // label only, carried through to the result
	Key        string           // label only, carried through to the result
}

// DefaultConfig returns a conversion config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Instrument: "guitar_standard",
		Style:      humanize.StyleNone,
		Tolerance:  segment.DefaultTolerance,
		TempoBPM:   120,
	}
}

// Warning records a slice degraded to a rest because nothing on the
// instrument could realize it.
type Warning struct {
	Slice  int     `json:"slice"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Reason string  `json:"reason"`
}

// Result is the outcome of one conversion
type Result struct {
	Instrument string             `json:"instrument"`
	Profile    instrument.Profile `json:"profile"`
	Style      humanize.Style     `json:"style"`
	Sequence   voicing.Sequence   `json:"sequence"`
	Events     []note.Event       `json:"events"`
	Slices     int                `json:"slices"`
	Rests      int                `json:"rests"`
	Warnings   []Warning          `json:"warnings,omitempty"`
	TempoBPM   float64            `json:"tempo_bpm,omitempty"`
	Key        string             `json:"key,omitempty"`
}

// Engine converts note streams into playable voicings. It holds only
// the shared read-only profile registry; per-conversion state lives on
// the stack of Convert, so one engine serves concurrent conversions.
type Engine struct {
	registry *instrument.Registry
}

// New creates an engine backed by a profile registry
func New(registry *instrument.Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry exposes the engine's profile table
func (e *Engine) Registry() *instrument.Registry {
	return e.registry
}

// Convert runs the full pipeline for one target instrument: segment,
// voice each slice, select by voice-leading cost, humanize. Malformed
// input and unknown instruments abort; a slice nothing can realize
// degrades to a rest and a warning, and the conversion continues.
// Empty input yields an empty result and no error.
func (e *Engine) Convert(events []note.Event, cfg Config) (*Result, error) {
	profile, err := e.registry.Lookup(cfg.Instrument)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	style, err := humanize.ParseStyle(string(cfg.Style))
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	segmenter := segment.NewSegmenter(cfg.Tolerance)
	slices, err := segmenter.SegmentWithRegions(events, cfg.Regions)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	result := &Result{
		Instrument: profile.Name,
		Profile:    profile,
		Style:      style,
		Slices:     len(slices),
		TempoBPM:   cfg.TempoBPM,
		Key:        cfg.Key,
	}

	selector := voicing.NewSelector()
	generate := e.generator(profile)

	var prev *voicing.Candidate
	for i, sl := range slices {
		if sl.Rest() {
			result.Rests++
			result.Sequence.Entries = append(result.Sequence.Entries, voicing.Entry{Slice: sl})
			continue
		}
		if sl.Label == "" {
			sl.Label = sliceLabel(sl)
		}

		cands := generate(sl)
		if len(cands) == 0 {
			cerr := apperrors.NewConversionError("voice", profile.Name, i,
				fmt.Sprintf("no playable voicing for %s in %.3f-%.3f", sl.Label, sl.Start, sl.End),
				apperrors.ErrUnplayableChord)
			if !cerr.IsRecoverable() {
				return nil, cerr
			}
			result.Warnings = append(result.Warnings, Warning{Slice: i, Start: sl.Start, End: sl.End, Reason: cerr.Error()})
			result.Rests++
			result.Sequence.Entries = append(result.Sequence.Entries, voicing.Entry{Slice: sl})
			continue
		}

		chosen := cands[selector.Choose(prev, cands)]
		result.Sequence.Entries = append(result.Sequence.Entries, voicing.Entry{Slice: sl, Chosen: &chosen})
		prev = &chosen
	}

	result.Events = humanize.New(style).Apply(&result.Sequence)
	return result, nil
}

// generator returns the candidate source matching the profile kind:
// fingering enumeration for fretted targets, octave folding otherwise.
func (e *Engine) generator(profile instrument.Profile) func(segment.Slice) []voicing.Candidate {
	if profile.Fretted() {
		enum := voicing.NewEnumerator(profile)
		return enum.Enumerate
	}
	adapter := voicing.NewAdapter(profile)
	return adapter.Adapt
}

// sliceLabel names a slice for results and warnings: the chord name
// when the pitch set reads as one, otherwise the lowest note's name.
func sliceLabel(sl segment.Slice) string {
	pitches := sl.Pitches()
	chord := theory.Analyze(pitches)
	if len(chord.Classes) >= 2 && chord.Quality != theory.QualityUnknown {
		return chord.Name()
	}
	return note.Name(pitches[0])
}

// ConvertAll converts the same stream for several targets at once, one
// goroutine per instrument, sharing only the read-only registry. The
// first failure wins and discards the other results.
func (e *Engine) ConvertAll(events []note.Event, cfg Config, instruments []string) (map[string]*Result, error) {
	results := make(map[string]*Result, len(instruments))

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for _, name := range instruments {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			c := cfg
			c.Instrument = name
			res, err := e.Convert(events, c)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[name] = res
		}(name)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
