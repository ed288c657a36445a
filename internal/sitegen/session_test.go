package sitegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ontree-co/sitegen/internal/api"
	"github.com/ontree-co/sitegen/internal/form"
	"github.com/ontree-co/sitegen/internal/website"
)

func TestSubmitMovesToStatusView(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":"abc123","status":"generating"}`)
	}))
	defer ts.Close()

	f := form.New()
	_ = f.UpdateField(form.FieldBusinessName, "Acme")
	_ = f.UpdateField(form.FieldWebsiteType, "Blog")
	_ = f.UpdateField(form.FieldDescription, "Coffee and code")

	s := NewSession()
	id, err := form.NewSubmitter(api.NewClient(ts.URL, api.WithHTTPClient(ts.Client()))).Submit(context.Background(), f)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := s.Submitted(id); err != nil {
		t.Fatalf("Submitted failed: %v", err)
	}
	if s.View() != ViewStatus || s.JobID() != "abc123" {
		t.Errorf("view = %s id = %q, want status/abc123", s.View(), s.JobID())
	}
}

func TestCompletedMovesToPreview(t *testing.T) {
	s := NewSession()
	if err := s.Submitted("abc123"); err != nil {
		t.Fatal(err)
	}

	site := &website.Generated{ID: "abc123", Status: website.StatusCompleted, HTMLContent: "<h1>Hi</h1>"}
	if err := s.Completed(site); err != nil {
		t.Fatalf("Completed failed: %v", err)
	}
	if s.View() != ViewPreview {
		t.Fatalf("view = %s, want preview", s.View())
	}

	got, err := s.Tab(TabHTML)
	if err != nil {
		t.Fatalf("Tab failed: %v", err)
	}
	if got != "<h1>Hi</h1>" {
		t.Errorf("Tab(html) = %q, want <h1>Hi</h1>", got)
	}

	if err := s.Completed(site); !errors.Is(err, ErrWrongView) {
		t.Errorf("second completion should be rejected, got %v", err)
	}
}

func TestTabPlaceholders(t *testing.T) {
	s := NewSession()
	_ = s.Submitted("abc123")
	_ = s.Completed(&website.Generated{
		ID:          "abc123",
		Status:      website.StatusCompleted,
		HTMLContent: "<html><head><title>Acme Blog</title></head></html>",
	})

	tests := []struct {
		tab  string
		want string
	}{
		{TabPreview, "Acme Blog"},
		{TabCSS, "CSS content not available"},
		{TabJS, "JavaScript content not available"},
	}
	for _, tt := range tests {
		got, err := s.Tab(tt.tab)
		if err != nil {
			t.Fatalf("Tab(%s) failed: %v", tt.tab, err)
		}
		if got != tt.want {
			t.Errorf("Tab(%s) = %q, want %q", tt.tab, got, tt.want)
		}
	}

	if _, err := s.Tab("pdf"); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab, got %v", err)
	}
}

func TestSessionTransitionsGuarded(t *testing.T) {
	s := NewSession()
	done := &website.Generated{ID: "abc123", Status: website.StatusCompleted}

	if err := s.Completed(done); !errors.Is(err, ErrWrongView) {
		t.Errorf("completion from form view should fail, got %v", err)
	}
	if _, err := s.Tab(TabHTML); !errors.Is(err, ErrWrongView) {
		t.Errorf("tab from form view should fail, got %v", err)
	}
	if err := s.Submitted(""); !errors.Is(err, ErrEmptyJobID) {
		t.Errorf("expected ErrEmptyJobID, got %v", err)
	}

	_ = s.Submitted("abc123")
	if err := s.Submitted("def456"); !errors.Is(err, ErrWrongView) {
		t.Errorf("second submit should fail, got %v", err)
	}
	if err := s.Completed(&website.Generated{ID: "other", Status: website.StatusCompleted}); !errors.Is(err, ErrJobMismatch) {
		t.Errorf("expected ErrJobMismatch, got %v", err)
	}
	if err := s.Completed(&website.Generated{ID: "abc123", Status: website.StatusGenerating}); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("expected ErrNotCompleted, got %v", err)
	}

	s.StartOver()
	if s.View() != ViewForm || s.JobID() != "" || s.Website() != nil {
		t.Errorf("StartOver left state behind: %s %q %v", s.View(), s.JobID(), s.Website())
	}
}
