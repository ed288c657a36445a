package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/ontree-co/sitegen/internal/website"
)

// JobProgress is the tracked state of one generation job.
type JobProgress struct {
	ID                     string         `json:"id"`
	Status                 website.Status `json:"status"`
	Progress               float64        `json:"progress"` // 0-100
	Message                string         `json:"message"`
	EstimatedTimeRemaining string         `json:"estimated_time_remaining,omitempty"`
	StartTime              time.Time      `json:"start_time"`
	LastUpdate             time.Time      `json:"last_update"`
	Error                  string         `json:"error,omitempty"`
}

// Tracker manages progress for multiple jobs.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*JobProgress
	now  func() time.Time
}

// NewTracker creates a new progress tracker
func NewTracker() *Tracker {
	return &Tracker{
		jobs: make(map[string]*JobProgress),
		now:  time.Now,
	}
}

// Start begins tracking a job, replacing any earlier entry for the same id.
func (t *Tracker) Start(id, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.jobs[id] = &JobProgress{
		ID:         id,
		Status:     website.StatusGenerating,
		Message:    message,
		StartTime:  now,
		LastUpdate: now,
	}
}

// Update records the latest status, estimate and message for a job.
func (t *Tracker) Update(id string, status website.Status, progress float64, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.getOrCreate(id)
	now := t.now()
	job.Status = status
	job.Progress = progress
	job.Message = message
	job.LastUpdate = now

	// Only estimate after some meaningful progress
	if progress > 5 && progress < 100 {
		elapsed := now.Sub(job.StartTime)
		total := time.Duration(float64(elapsed) * (100.0 / progress))
		if remaining := total - elapsed; remaining > 0 {
			job.EstimatedTimeRemaining = formatDuration(remaining)
		}
	}
}

// SetError marks a job as failed. The progress value is left where it was.
func (t *Tracker) SetError(id, errorMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.getOrCreate(id)
	job.Status = website.StatusFailed
	job.Error = errorMsg
	job.Message = errorMsg
	job.EstimatedTimeRemaining = ""
	job.LastUpdate = t.now()
}

// Complete marks a job as done.
func (t *Tracker) Complete(id, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := t.getOrCreate(id)
	job.Status = website.StatusCompleted
	job.Progress = 100
	job.Message = message
	job.EstimatedTimeRemaining = ""
	job.LastUpdate = t.now()
}

// Get returns a copy of the tracked state for a job.
func (t *Tracker) Get(id string) (JobProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[id]
	if !ok {
		return JobProgress{}, false
	}
	return *job, true
}

// Remove stops tracking a job.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.jobs, id)
}

// getOrCreate must be called with mu held.
func (t *Tracker) getOrCreate(id string) *JobProgress {
	job, ok := t.jobs[id]
	if !ok {
		now := t.now()
		job = &JobProgress{
			ID:         id,
			Status:     website.StatusGenerating,
			StartTime:  now,
			LastUpdate: now,
		}
		t.jobs[id] = job
	}
	return job
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "< 1m"
	}

	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}
