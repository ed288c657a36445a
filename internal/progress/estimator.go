// Package progress estimates and tracks generation progress.
//
// The service does not report real progress while a job is generating, so
// Estimator produces a cosmetic percentage that creeps towards 90 and only
// reaches 100 once the job completes. Tracker keeps the per-job view that the
// poller and the CLI share.
package progress

import (
	"math"
	"math/rand/v2"

	"github.com/ontree-co/sitegen/internal/website"
)

const (
	// tickCeiling is the value after which Tick stops adding.
	tickCeiling = 90.0
	// tickMax bounds a single increment.
	tickMax = 10.0
	// stepWidth is the percentage covered by one generation step.
	stepWidth = 16.67
)

// Estimator is the local progress estimate for one job. It is not safe for
// concurrent use; the poller owns one per watch.
type Estimator struct {
	percent float64
	status  website.Status
	rand    func() float64
}

// EstimatorOption customizes an Estimator.
type EstimatorOption func(*Estimator)

// WithRand replaces the random source. fn must return values in [0, 1).
func WithRand(fn func() float64) EstimatorOption {
	return func(e *Estimator) {
		e.rand = fn
	}
}

// NewEstimator returns an estimator at 0% for a generating job.
func NewEstimator(opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		status: website.StatusGenerating,
		rand:   rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick advances the estimate by a random amount below 10 while the job is
// generating. Once the estimate has reached 90 it no longer moves.
func (e *Estimator) Tick() {
	if e.status != website.StatusGenerating || e.percent >= tickCeiling {
		return
	}
	e.percent += e.rand() * tickMax
}

// Complete snaps the estimate to 100.
func (e *Estimator) Complete() {
	e.status = website.StatusCompleted
	e.percent = 100
}

// Fail freezes the estimate at its current value.
func (e *Estimator) Fail() {
	e.status = website.StatusFailed
}

// Observe applies a status reported by the service.
func (e *Estimator) Observe(status website.Status) {
	switch status {
	case website.StatusCompleted:
		e.Complete()
	case website.StatusFailed:
		e.Fail()
	}
}

// Percent returns the current estimate in [0, 100).
func (e *Estimator) Percent() float64 {
	return e.percent
}

// Status returns the last status the estimator was told about.
func (e *Estimator) Status() website.Status {
	return e.status
}

// Step returns the index into website.GenerationSteps for the current
// estimate, the last index once completed, or -1 after a failure.
func (e *Estimator) Step() int {
	last := len(website.GenerationSteps) - 1
	switch e.status {
	case website.StatusCompleted:
		return last
	case website.StatusFailed:
		return -1
	}
	step := int(math.Floor(e.percent / stepWidth))
	if step > last {
		return last
	}
	return step
}

// StepLabel returns the label of the current step, or "" after a failure.
func (e *Estimator) StepLabel() string {
	step := e.Step()
	if step < 0 {
		return ""
	}
	return website.GenerationSteps[step]
}
