package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MilkFoam-L/Algorhythm/internal/engine"
	"github.com/MilkFoam-L/Algorhythm/internal/humanize"
	"github.com/MilkFoam-L/Algorhythm/internal/instrument"
	"github.com/MilkFoam-L/Algorhythm/internal/midifile"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
	"github.com/MilkFoam-L/Algorhythm/internal/progress"
	"github.com/MilkFoam-L/Algorhythm/internal/segment"
	"github.com/MilkFoam-L/Algorhythm/internal/server"
	"github.com/MilkFoam-L/Algorhythm/internal/voicing"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "algorhythm",
	Short: "Convert polyphonic MIDI into playable instrument voicings",
	Long: `Algorhythm rewrites free polyphonic note streams into voicings a
real player could finger on guitar, bass, or a string section.

Pipeline: note events → chord slices → playable voicings → humanized MIDI`,
	Version: version,
}

var arrangeCmd = &cobra.Command{
	Use:   "arrange <input.mid>",
	Short: "Arrange a MIDI file for a target instrument",
	Long: `Arrange the notes of a MIDI file into playable voicings for one
target instrument and write the result as a new MIDI file.

Examples:
  algorhythm arrange song.mid
  algorhythm arrange song.mid -i bass_4string -o bassline.mid
  algorhythm arrange song.mid --style strum-down --tolerance 0.08
  algorhythm arrange song.mid --labels`,
	Args: cobra.ExactArgs(1),
	RunE: runArrange,
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List available instrument profiles",
	Long: `List the registered instrument profiles with their ranges,
polyphony limits, and string layouts.

Examples:
  algorhythm instruments
  algorhythm instruments --profiles extra.yaml`,
	RunE: runInstruments,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP conversion service",
	Long: `Start the JSON API for converting note streams and MIDI uploads
into playable voicings.

Example:
  algorhythm serve --port 8080`,
	RunE: runServe,
}

var (
	// arrange flags
	instrumentName string
	styleName      string
	tolerance      float64
	outputPath     string
	tempoOverride  float64
	keyLabel       string
	showLabels     bool
	verbose        bool

	// serve flags
	port int

	// shared flags
	profilesPath string
)

func init() {
	rootCmd.AddCommand(arrangeCmd)
	rootCmd.AddCommand(instrumentsCmd)
	rootCmd.AddCommand(serveCmd)

	// Arrange command flags
	arrangeCmd.Flags().StringVarP(&instrumentName, "instrument", "i", "guitar_standard", "Target instrument profile")
	arrangeCmd.Flags().StringVarP(&styleName, "style", "s", "none", "Humanize style (none, sustained, strum-down, strum-up, strum-down-up)")
	arrangeCmd.Flags().Float64VarP(&tolerance, "tolerance", "t", segment.DefaultTolerance, "Onset clustering window in seconds")
	arrangeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output MIDI file (default: <input>_<instrument>.mid)")
	arrangeCmd.Flags().Float64Var(&tempoOverride, "tempo", 0, "Override tempo in BPM (default: from input file)")
	arrangeCmd.Flags().StringVar(&keyLabel, "key", "", "Key label carried into the output")
	arrangeCmd.Flags().BoolVar(&showLabels, "labels", false, "Print per-slice chord labels and chosen voicings")
	arrangeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	arrangeCmd.Flags().StringVar(&profilesPath, "profiles", "", "YAML file with additional instrument profiles")

	// Instruments command flags
	instrumentsCmd.Flags().StringVar(&profilesPath, "profiles", "", "YAML file with additional instrument profiles")

	// Serve command flags
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&profilesPath, "profiles", "", "YAML file with additional instrument profiles")
}

// buildRegistry loads the built-in profiles plus any user YAML
func buildRegistry() (*instrument.Registry, error) {
	registry := instrument.NewRegistry()
	if profilesPath != "" {
		n, err := registry.LoadFile(profilesPath)
		if err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
		if verbose {
			fmt.Printf("Loaded %d custom profiles from %s\n", n, profilesPath)
		}
	}
	return registry, nil
}

func runArrange(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	style, err := humanize.ParseStyle(styleName)
	if err != nil {
		return err
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(os.Stdout, verbose)

	// Stage 1: Load
	reporter.StartStage(progress.StageLoad)
	events, meta, err := midifile.Read(inputPath)
	if err != nil {
		reporter.Error(err)
		return err
	}
	reporter.StageComplete("%d note events, %.0f BPM, %d tracks", len(events), meta.TempoBPM, meta.Tracks)

	cfg := engine.DefaultConfig()
	cfg.Instrument = instrumentName
	cfg.Style = style
	cfg.Tolerance = tolerance
	cfg.TempoBPM = meta.TempoBPM
	if tempoOverride > 0 {
		cfg.TempoBPM = tempoOverride
	}
	cfg.Key = keyLabel

	// Stages 2-4: the engine runs segmentation, voicing selection, and
	// humanization in one pass; report each from the result
	eng := engine.New(registry)

	reporter.StartStage(progress.StageSegment)
	result, err := eng.Convert(events, cfg)
	if err != nil {
		reporter.Error(err)
		return err
	}
	reporter.StageComplete("%d slices (%d rests)", result.Slices, result.Rests)

	reporter.StartStage(progress.StageVoice)
	for _, w := range result.Warnings {
		reporter.Warning(w.Reason)
	}
	reporter.StageComplete("%d voicings on %s", result.Sequence.Voiced(), result.Instrument)

	reporter.StartStage(progress.StageHumanize)
	reporter.StageComplete("%d events, style %s", len(result.Events), result.Style)

	// Stage 5: Render
	reporter.StartStage(progress.StageRender)
	out := outputPath
	if out == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		out = fmt.Sprintf("%s_%s.mid", base, result.Instrument)
	}
	if err := midifile.WriteFile(out, result.Events, result.Profile.Program, cfg.TempoBPM, result.Instrument); err != nil {
		reporter.Error(err)
		return err
	}
	reporter.StageComplete("wrote %s", out)

	if showLabels {
		printLabels(result)
	}

	// Brief summary
	fmt.Printf("  %d slices, %d voiced, %d rests", result.Slices, result.Sequence.Voiced(), result.Rests)
	if len(result.Warnings) > 0 {
		fmt.Printf(", %d unplayable", len(result.Warnings))
	}
	fmt.Println()

	reporter.Done(out)
	return nil
}

// printLabels dumps the chord label and chosen voicing for every slice
func printLabels(result *engine.Result) {
	fmt.Println()
	for _, entry := range result.Sequence.Entries {
		sl := entry.Slice
		if entry.Chosen == nil {
			fmt.Printf("  %8.3f-%8.3f  (rest)\n", sl.Start, sl.End)
			continue
		}
		fmt.Printf("  %8.3f-%8.3f  %-10s %s\n", sl.Start, sl.End, sl.Label, describeVoicing(entry.Chosen))
	}
	fmt.Println()
}

// describeVoicing renders a candidate as string/fret pairs for fretted
// instruments, note names otherwise
func describeVoicing(c *voicing.Candidate) string {
	parts := make([]string, 0, len(c.Notes))
	for _, n := range c.Notes {
		if n.String >= 0 {
			parts = append(parts, fmt.Sprintf("%s@s%d.f%d", note.Name(n.Pitch), n.String, n.Fret))
		} else {
			parts = append(parts, note.Name(n.Pitch))
		}
	}
	return strings.Join(parts, " ")
}

func runInstruments(cmd *cobra.Command, args []string) error {
	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	fmt.Println("Available instrument profiles:")
	fmt.Println()
	for _, p := range registry.Profiles() {
		fmt.Printf("  %-16s %-9s range %s-%s, polyphony %d",
			p.Name, p.Kind, note.Name(p.MinPitch), note.Name(p.MaxPitch), p.Polyphony)
		if p.Fretted() {
			fmt.Printf(", %d strings to fret %d", len(p.OpenStrings), p.MaxFret)
		}
		fmt.Println()
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.Port = port

	srv := server.New(cfg, engine.New(registry))
	return srv.Run()
}
