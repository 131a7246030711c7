package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/MilkFoam-L/Algorhythm/internal/engine"
	apperrors "github.com/MilkFoam-L/Algorhythm/internal/errors"
	"github.com/MilkFoam-L/Algorhythm/internal/humanize"
	"github.com/MilkFoam-L/Algorhythm/internal/midifile"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
	"github.com/MilkFoam-L/Algorhythm/internal/segment"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB, plenty for any SMF

// convertRequest is the JSON body for a conversion
type convertRequest struct {
	Events     []note.Event     `json:"events"`
	Instrument string           `json:"instrument,omitempty"`
	Style      string           `json:"style,omitempty"`
	Tolerance  float64          `json:"tolerance,omitempty"`
	Regions    []segment.Region `json:"regions,omitempty"`
	TempoBPM   float64          `json:"tempo_bpm,omitempty"`
	Key        string           `json:"key,omitempty"`
}

// jobRequest is the JSON body for an asynchronous batch conversion
type jobRequest struct {
	convertRequest
	Instruments []string `json:"instruments"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleInstruments lists the registered instrument profiles
func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"instruments": s.engine.Registry().Profiles(),
	})
}

// handleConvert runs a synchronous conversion. The request is either a
// JSON body with inline note events or a multipart upload of a MIDI
// file; ?format=midi renders the result as an SMF download instead of
// JSON.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	events, cfg, ok := s.decodeConversion(w, r)
	if !ok {
		return
	}

	result, err := s.engine.Convert(events, cfg)
	if err != nil {
		s.writeError(w, err.Error(), statusFor(err))
		return
	}

	if r.URL.Query().Get("format") == "midi" {
		w.Header().Set("Content-Type", "audio/midi")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Instrument+".mid"))
		if err := midifile.WriteTo(w, result.Events, result.Profile.Program, result.TempoBPM, result.Instrument); err != nil {
			s.logger.Error("midi render failed", "error", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleCreateJob starts an asynchronous conversion for several target
// instruments at once and returns the job for polling
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Instruments) == 0 {
		s.writeError(w, "at least one target instrument is required", http.StatusBadRequest)
		return
	}
	for _, name := range req.Instruments {
		if _, err := s.engine.Registry().Lookup(name); err != nil {
			s.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	events, cfg, ok := s.configFrom(w, req.convertRequest)
	if !ok {
		return
	}

	job := s.jobs.Create(req.Instruments)
	go s.jobs.Process(job, events, cfg)

	view, _ := s.jobs.Snapshot(job.ID)
	s.writeJSON(w, http.StatusAccepted, view)
}

// handleJobStatus reports the state of a job, with results once done
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, ok := s.jobs.Snapshot(id)
	if !ok {
		s.writeError(w, "job not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

// decodeConversion extracts the note events and engine config from a
// convert request, either JSON or a multipart MIDI upload
func (s *Server) decodeConversion(w http.ResponseWriter, r *http.Request) ([]note.Event, engine.Config, bool) {
	cfg := engine.DefaultConfig()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		// Limit upload size
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			s.writeError(w, "file too large, maximum size is 10MB", http.StatusBadRequest)
			return nil, cfg, false
		}

		file, header, err := r.FormFile("midi")
		if err != nil {
			s.writeError(w, "please upload a MIDI file in the \"midi\" field", http.StatusBadRequest)
			return nil, cfg, false
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".mid" && ext != ".midi" {
			s.writeError(w, "unsupported format, upload a .mid or .midi file", http.StatusBadRequest)
			return nil, cfg, false
		}

		data, err := io.ReadAll(file)
		if err != nil {
			s.writeError(w, "failed to read upload", http.StatusBadRequest)
			return nil, cfg, false
		}

		smfFile, err := smf.ReadFrom(bytes.NewReader(data))
		if err != nil {
			s.writeError(w, "corrupted MIDI file: "+err.Error(), http.StatusBadRequest)
			return nil, cfg, false
		}

		events, meta, err := midifile.Extract(smfFile)
		if err != nil {
			s.writeError(w, err.Error(), http.StatusBadRequest)
			return nil, cfg, false
		}
		cfg.TempoBPM = meta.TempoBPM

		if v := r.FormValue("instrument"); v != "" {
			cfg.Instrument = v
		}
		if v := r.FormValue("style"); v != "" {
			style, err := humanize.ParseStyle(v)
			if err != nil {
				s.writeError(w, err.Error(), http.StatusBadRequest)
				return nil, cfg, false
			}
			cfg.Style = style
		}
		if v := r.FormValue("tolerance"); v != "" {
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				s.writeError(w, "invalid tolerance: "+v, http.StatusBadRequest)
				return nil, cfg, false
			}
			cfg.Tolerance = t
		}
		return events, cfg, true
	}

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return nil, cfg, false
	}
	return s.configFrom(w, req)
}

// configFrom applies a request onto the default engine config
func (s *Server) configFrom(w http.ResponseWriter, req convertRequest) ([]note.Event, engine.Config, bool) {
	cfg := engine.DefaultConfig()

	if req.Instrument != "" {
		cfg.Instrument = req.Instrument
	}
	if req.Style != "" {
		style, err := humanize.ParseStyle(req.Style)
		if err != nil {
			s.writeError(w, err.Error(), http.StatusBadRequest)
			return nil, cfg, false
		}
		cfg.Style = style
	}
	if req.Tolerance != 0 {
		cfg.Tolerance = req.Tolerance
	}
	cfg.Regions = req.Regions
	if req.TempoBPM > 0 {
		cfg.TempoBPM = req.TempoBPM
	}
	if req.Key != "" {
		cfg.Key = req.Key
	}

	return req.Events, cfg, true
}

// writeJSON renders a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode error", "error", err)
	}
}

// writeError renders a JSON error message
func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps conversion failures onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUnknownInstrument),
		errors.Is(err, apperrors.ErrUnknownStyle),
		errors.Is(err, apperrors.ErrMalformedNoteEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
