package form

import (
	"context"

	"github.com/ontree-co/sitegen/internal/logging"
	"github.com/ontree-co/sitegen/internal/website"
)

// SubmitFailedMessage is shown to the user whenever a submission fails after
// validation passed.
const SubmitFailedMessage = "Failed to generate website. Please try again."

// Generator starts a generation job. *api.Client satisfies it.
type Generator interface {
	GenerateWebsite(ctx context.Context, req website.Request) (*website.Generated, error)
}

// SubmitError wraps the underlying failure behind a fixed user message.
type SubmitError struct {
	Cause error
}

func (e *SubmitError) Error() string {
	return SubmitFailedMessage
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}

// Submitter validates a form and sends it to the service.
type Submitter struct {
	gen Generator
}

// NewSubmitter creates a submitter backed by gen.
func NewSubmitter(gen Generator) *Submitter {
	return &Submitter{gen: gen}
}

// Submit validates f and starts a generation job, returning its id. A
// *ValidationError means no request was sent. Any failure after that is a
// *SubmitError. Submissions are never retried and the form is left untouched.
func (s *Submitter) Submit(ctx context.Context, f *Form) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}

	req := f.Request()
	logging.Infof("Submitting %q (%s) with %d pages and %d features",
		req.BusinessName, req.WebsiteType, len(req.Pages), len(req.Features))

	job, err := s.gen.GenerateWebsite(ctx, req)
	if err != nil {
		logging.Errorf("Error generating website: %v", err)
		return "", &SubmitError{Cause: err}
	}

	logging.Infof("Generation started with id %s", job.ID)
	return job.ID, nil
}
