package viewer

import (
	"sync"
	"time"
)

// DownloadState is the coarse state of the most recent download.
type DownloadState string

const (
	StateIdle        DownloadState = "idle"
	StateDownloading DownloadState = "downloading"
	StateSuccess     DownloadState = "success"
	StateError       DownloadState = "error"
)

// DefaultResetAfter is how long success and error stay visible.
const DefaultResetAfter = 3 * time.Second

// StatusFlag holds the download state. Success and error fall back to idle
// after ResetAfter unless another transition happened in between.
type StatusFlag struct {
	mu         sync.Mutex
	state      DownloadState
	resetAfter time.Duration
	generation uint64
	timer      *time.Timer
	onChange   func(DownloadState)
}

// NewStatusFlag returns an idle flag. A non-positive resetAfter uses
// DefaultResetAfter.
func NewStatusFlag(resetAfter time.Duration) *StatusFlag {
	if resetAfter <= 0 {
		resetAfter = DefaultResetAfter
	}
	return &StatusFlag{state: StateIdle, resetAfter: resetAfter}
}

// OnChange registers fn to be called after every transition. fn runs without
// the flag's lock held.
func (f *StatusFlag) OnChange(fn func(DownloadState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = fn
}

// Get returns the current state.
func (f *StatusFlag) Get() DownloadState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Set moves the flag to state and schedules the reset for success and error.
func (f *StatusFlag) Set(state DownloadState) {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.state = state
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if state == StateSuccess || state == StateError {
		f.timer = time.AfterFunc(f.resetAfter, func() { f.reset(gen) })
	}
	fn := f.onChange
	f.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// Stop cancels a pending reset.
func (f *StatusFlag) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *StatusFlag) reset(gen uint64) {
	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		return
	}
	f.generation++
	f.state = StateIdle
	f.timer = nil
	fn := f.onChange
	f.mu.Unlock()

	if fn != nil {
		fn(StateIdle)
	}
}
