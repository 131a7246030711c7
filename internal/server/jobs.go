package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MilkFoam-L/Algorhythm/internal/engine"
	"github.com/MilkFoam-L/Algorhythm/internal/note"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// Job represents an asynchronous conversion job
type Job struct {
	ID          string
	Status      JobStatus
	Instruments []string
	Error       string
	Results     map[string]*engine.Result
	CreatedAt   time.Time
}

// JobView is the wire representation of a job
type JobView struct {
	ID          string                    `json:"id"`
	Status      JobStatus                 `json:"status"`
	Instruments []string                  `json:"instruments"`
	CreatedAt   time.Time                 `json:"created_at"`
	Error       string                    `json:"error,omitempty"`
	Results     map[string]*engine.Result `json:"results,omitempty"`
}

// JobManager manages conversion jobs
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	engine *engine.Engine
	logger *slog.Logger
	ttl    time.Duration
}

// NewJobManager creates a new job manager
func NewJobManager(eng *engine.Engine, logger *slog.Logger, ttl time.Duration) *JobManager {
	return &JobManager{
		jobs:   make(map[string]*Job),
		engine: eng,
		logger: logger,
		ttl:    ttl,
	}
}

// Create registers a new pending job for the given targets
func (m *JobManager) Create(instruments []string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:          uuid.New().String(),
		Status:      StatusPending,
		Instruments: instruments,
		CreatedAt:   time.Now(),
	}

	m.jobs[job.ID] = job
	return job
}

// Snapshot returns a copy of the job state safe to render
func (m *JobManager) Snapshot(id string) (JobView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return JobView{}, false
	}
	return JobView{
		ID:          job.ID,
		Status:      job.Status,
		Instruments: job.Instruments,
		CreatedAt:   job.CreatedAt,
		Error:       job.Error,
		Results:     job.Results,
	}, true
}

// Process runs the conversion for a job. Meant to run on its own
// goroutine; the job transitions to complete or failed and is dropped
// from the manager once the TTL passes.
func (m *JobManager) Process(job *Job, events []note.Event, cfg engine.Config) {
	defer func() {
		time.AfterFunc(m.ttl, func() {
			m.mu.Lock()
			delete(m.jobs, job.ID)
			m.mu.Unlock()
		})
	}()

	m.setStatus(job, StatusProcessing)

	results, err := m.engine.ConvertAll(events, cfg, job.Instruments)
	if err != nil {
		m.logger.Error("job failed", slog.String("id", job.ID), slog.Any("error", err))
		m.mu.Lock()
		job.Status = StatusFailed
		job.Error = err.Error()
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	job.Status = StatusComplete
	job.Results = results
	m.mu.Unlock()
}

func (m *JobManager) setStatus(job *Job, status JobStatus) {
	m.mu.Lock()
	job.Status = status
	m.mu.Unlock()
}
