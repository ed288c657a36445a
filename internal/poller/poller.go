// Package poller watches a generation job until it reaches a terminal state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ontree-co/sitegen/internal/logging"
	"github.com/ontree-co/sitegen/internal/progress"
	"github.com/ontree-co/sitegen/internal/telemetry"
	"github.com/ontree-co/sitegen/internal/website"
)

const (
	DefaultInterval         = 2 * time.Second
	DefaultProgressInterval = 500 * time.Millisecond

	// InitialMessage is shown until the service reports its own message.
	InitialMessage = "Generating your website..."
	// FailedMessage is used when a failed job carries no message.
	FailedMessage = "Failed to generate website"
	// CheckErrorMessage is reported when a status check itself fails.
	CheckErrorMessage = "Error checking generation status"

	// CodeTooManyErrors marks the final event of a watch that gave up.
	CodeTooManyErrors = "too_many_errors"
)

// ErrTooManyErrors is returned by Wait when MaxErrors consecutive checks failed.
var ErrTooManyErrors = errors.New("too many consecutive status check errors")

// FailedError is returned by Wait when the service reports the job failed.
type FailedError struct {
	ID      string
	Message string
}

func (e *FailedError) Error() string {
	return e.Message
}

// StatusFetcher looks up a job. *api.Client satisfies it.
type StatusFetcher interface {
	Status(ctx context.Context, id string) (*website.Generated, error)
}

// Options tunes a Poller. Zero values fall back to the defaults.
type Options struct {
	Interval         time.Duration
	ProgressInterval time.Duration
	// MaxErrors ends a watch after this many consecutive failed checks.
	// Zero keeps polling forever.
	MaxErrors int
	// Tracker receives every update. A private tracker is used when nil.
	Tracker *progress.Tracker
	// Rand overrides the estimator's random source.
	Rand func() float64
}

// EventType identifies what happened during a watch.
type EventType string

const (
	EventStatus    EventType = "status"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventError     EventType = "error"
)

// Snapshot is the displayable state of a job at one point in time.
type Snapshot struct {
	ID        string         `json:"id"`
	Status    website.Status `json:"status"`
	Message   string         `json:"message"`
	Progress  int            `json:"progress"`
	Step      int            `json:"step"`
	StepLabel string         `json:"step_label,omitempty"`
	ETA       string         `json:"eta,omitempty"`
}

// Event is emitted by Watch.
type Event struct {
	Type     EventType
	Message  string
	Code     string
	Snapshot Snapshot
	// Website is set on EventCompleted.
	Website *website.Generated
	// Err is the underlying failure on EventError.
	Err error
}

// Poller checks job status on a fixed interval.
type Poller struct {
	fetcher StatusFetcher
	opts    Options
}

// New creates a poller backed by fetcher.
func New(fetcher StatusFetcher, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.Tracker == nil {
		opts.Tracker = progress.NewTracker()
	}
	return &Poller{fetcher: fetcher, opts: opts}
}

// Tracker returns the tracker fed by this poller.
func (p *Poller) Tracker() *progress.Tracker {
	return p.opts.Tracker
}

// Watch checks the job immediately and then every Interval until the job
// completes or fails, MaxErrors is exceeded, or ctx ends. The estimate ticks
// every ProgressInterval while the job is generating. The returned channel
// is closed when the watch ends. Cancellation closes it without a final
// event.
func (p *Poller) Watch(ctx context.Context, id string) <-chan Event {
	ch := make(chan Event, 1)
	go func() {
		defer close(ch)
		w := &watch{
			poller:  p,
			id:      id,
			ch:      ch,
			message: InitialMessage,
		}
		var estOpts []progress.EstimatorOption
		if p.opts.Rand != nil {
			estOpts = append(estOpts, progress.WithRand(p.opts.Rand))
		}
		w.est = progress.NewEstimator(estOpts...)
		w.run(ctx)
	}()
	return ch
}

// Wait drains Watch, passing every event to onEvent when it is non-nil, and
// returns the completed website.
func (p *Poller) Wait(ctx context.Context, id string, onEvent func(Event)) (*website.Generated, error) {
	for ev := range p.Watch(ctx, id) {
		if onEvent != nil {
			onEvent(ev)
		}
		switch ev.Type {
		case EventCompleted:
			return ev.Website, nil
		case EventFailed:
			return nil, &FailedError{ID: id, Message: ev.Message}
		case EventError:
			if ev.Code == CodeTooManyErrors {
				return nil, fmt.Errorf("%w: %v", ErrTooManyErrors, ev.Err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("watch ended without a result")
}

type watch struct {
	poller  *Poller
	id      string
	ch      chan<- Event
	est     *progress.Estimator
	message string
	errors  int
}

func (w *watch) run(ctx context.Context) {
	tracker := w.poller.opts.Tracker
	tracker.Start(w.id, w.message)

	if w.check(ctx) {
		return
	}

	pollTicker := time.NewTicker(w.poller.opts.Interval)
	defer pollTicker.Stop()
	progressTicker := time.NewTicker(w.poller.opts.ProgressInterval)
	defer progressTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			if w.check(ctx) {
				return
			}
		case <-progressTicker.C:
			if w.est.Status() != website.StatusGenerating {
				continue
			}
			w.est.Tick()
			tracker.Update(w.id, website.StatusGenerating, w.est.Percent(), w.message)
			if !w.send(ctx, Event{Type: EventProgress, Message: w.message, Snapshot: w.snapshot()}) {
				return
			}
		}
	}
}

// check performs one status request and reports whether the watch is over.
func (w *watch) check(ctx context.Context) bool {
	ctx, span := telemetry.StartSpan(ctx, "poller.check")
	defer span.End()
	span.SetAttributes(attribute.String("sitegen.job_id", w.id))

	tracker := w.poller.opts.Tracker
	g, err := w.poller.fetcher.Status(ctx, w.id)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "status check failed")

		w.errors++
		logging.Warnf("Error checking status of %s: %v", w.id, err)
		if !w.send(ctx, Event{Type: EventError, Message: CheckErrorMessage, Snapshot: w.snapshot(), Err: err}) {
			return true
		}
		if limit := w.poller.opts.MaxErrors; limit > 0 && w.errors >= limit {
			tracker.SetError(w.id, CheckErrorMessage)
			w.send(ctx, Event{
				Type:     EventError,
				Message:  fmt.Sprintf("Giving up after %d consecutive errors", w.errors),
				Code:     CodeTooManyErrors,
				Snapshot: w.snapshot(),
				Err:      err,
			})
			return true
		}
		return false
	}
	w.errors = 0

	span.SetAttributes(attribute.String("sitegen.job_status", string(g.Status)))
	w.est.Observe(g.Status)
	w.message = g.Message

	switch g.Status {
	case website.StatusCompleted:
		tracker.Complete(w.id, g.Message)
		snap := w.snapshot()
		if !w.send(ctx, Event{Type: EventStatus, Message: g.Message, Snapshot: snap}) {
			return true
		}
		w.send(ctx, Event{Type: EventCompleted, Message: g.Message, Snapshot: snap, Website: g})
		return true

	case website.StatusFailed:
		if w.message == "" {
			w.message = FailedMessage
		}
		tracker.SetError(w.id, w.message)
		snap := w.snapshot()
		if !w.send(ctx, Event{Type: EventStatus, Message: w.message, Snapshot: snap}) {
			return true
		}
		w.send(ctx, Event{Type: EventFailed, Message: w.message, Snapshot: snap})
		return true

	default:
		tracker.Update(w.id, g.Status, w.est.Percent(), g.Message)
		return !w.send(ctx, Event{Type: EventStatus, Message: g.Message, Snapshot: w.snapshot()})
	}
}

func (w *watch) snapshot() Snapshot {
	snap := Snapshot{
		ID:        w.id,
		Status:    w.est.Status(),
		Message:   w.message,
		Progress:  int(w.est.Percent()),
		Step:      w.est.Step(),
		StepLabel: w.est.StepLabel(),
	}
	if job, ok := w.poller.opts.Tracker.Get(w.id); ok {
		snap.ETA = job.EstimatedTimeRemaining
	}
	return snap
}

func (w *watch) send(ctx context.Context, ev Event) bool {
	select {
	case w.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
