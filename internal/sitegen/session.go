package sitegen

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ontree-co/sitegen/internal/website"
)

// View is the screen a session is on.
type View string

const (
	ViewForm    View = "form"
	ViewStatus  View = "status"
	ViewPreview View = "preview"
)

// Tab names accepted by Session.Tab.
const (
	TabPreview = "preview"
	TabHTML    = "html"
	TabCSS     = "css"
	TabJS      = "js"
)

var (
	ErrWrongView    = errors.New("operation not allowed in the current view")
	ErrJobMismatch  = errors.New("result belongs to a different job")
	ErrUnknownTab   = errors.New("unknown tab")
	ErrEmptyJobID   = errors.New("job id is required")
	ErrNotCompleted = errors.New("website is not completed")
)

// previewFallback is shown on the preview tab when the site has no
// description or title.
const previewFallback = "Website Preview"

// Session tracks one pass through form, status and preview.
type Session struct {
	mu      sync.Mutex
	view    View
	jobID   string
	website *website.Generated
}

// NewSession returns a session on the form view.
func NewSession() *Session {
	return &Session{view: ViewForm}
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// JobID returns the job being watched or shown, or "".
func (s *Session) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// Website returns the completed website, or nil before completion.
func (s *Session) Website() *website.Generated {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.website
}

// Submitted moves from the form to the status view for job id.
func (s *Session) Submitted(id string) error {
	if id == "" {
		return ErrEmptyJobID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != ViewForm {
		return fmt.Errorf("%w: submit from %s", ErrWrongView, s.view)
	}
	s.view = ViewStatus
	s.jobID = id
	return nil
}

// Completed moves from the status view to the preview. It is accepted once,
// and only for the job the session is watching.
func (s *Session) Completed(g *website.Generated) error {
	if g == nil || g.Status != website.StatusCompleted {
		return ErrNotCompleted
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != ViewStatus {
		return fmt.Errorf("%w: complete from %s", ErrWrongView, s.view)
	}
	if g.ID != s.jobID {
		return fmt.Errorf("%w: got %s, watching %s", ErrJobMismatch, g.ID, s.jobID)
	}
	s.view = ViewPreview
	s.website = g
	return nil
}

// StartOver returns to an empty form view from anywhere.
func (s *Session) StartOver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = ViewForm
	s.jobID = ""
	s.website = nil
}

// Tab returns the content shown on a preview tab. Missing content is
// replaced by a placeholder naming the kind.
func (s *Session) Tab(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != ViewPreview || s.website == nil {
		return "", fmt.Errorf("%w: tab %s from %s", ErrWrongView, name, s.view)
	}

	w := s.website
	switch name {
	case TabPreview:
		if w.Description != "" {
			return w.Description, nil
		}
		if title := website.Title(w.HTMLContent); title != "" {
			return title, nil
		}
		return previewFallback, nil
	case TabHTML:
		return orPlaceholder(w.HTMLContent, "HTML"), nil
	case TabCSS:
		return orPlaceholder(w.CSSContent, "CSS"), nil
	case TabJS:
		return orPlaceholder(w.JSContent, "JavaScript"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, name)
}

func orPlaceholder(content, kind string) string {
	if content == "" {
		return kind + " content not available"
	}
	return content
}
