// Package viewer previews and saves generated websites.
//
// Preview serves the generated document on a loopback listener and opens it
// in the system browser. Download writes every artifact to a Sink and
// reports the outcome of each file separately.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ontree-co/sitegen/internal/cache"
	"github.com/ontree-co/sitegen/internal/logging"
	"github.com/ontree-co/sitegen/internal/telemetry"
	"github.com/ontree-co/sitegen/internal/website"
)

// DefaultCacheTTL bounds how long fetched bundles and previews are reused.
const DefaultCacheTTL = 10 * time.Minute

// Fetcher retrieves generated content. *api.Client satisfies it.
type Fetcher interface {
	Download(ctx context.Context, id string) (*website.Bundle, error)
	Preview(ctx context.Context, id string) (string, error)
}

// FileResult is the outcome of saving one artifact.
type FileResult struct {
	Artifact website.Artifact `json:"artifact"`
	Location string           `json:"location,omitempty"`
	Err      error            `json:"-"`
}

// Viewer fetches, caches, previews and saves generated sites.
type Viewer struct {
	client   Fetcher
	bundles  *cache.Cache[*website.Bundle]
	previews *cache.Cache[string]
	opener   Opener
	status   *StatusFlag
}

// Option customizes a Viewer.
type Option func(*Viewer)

// WithOpener replaces the browser opener.
func WithOpener(o Opener) Option {
	return func(v *Viewer) {
		v.opener = o
	}
}

// WithCacheTTL changes how long fetched content is cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(v *Viewer) {
		v.bundles = cache.New[*website.Bundle](ttl)
		v.previews = cache.New[string](ttl)
	}
}

// WithStatusFlag replaces the download status flag.
func WithStatusFlag(f *StatusFlag) Option {
	return func(v *Viewer) {
		v.status = f
	}
}

// New creates a viewer backed by client.
func New(client Fetcher, opts ...Option) *Viewer {
	v := &Viewer{
		client:   client,
		bundles:  cache.New[*website.Bundle](DefaultCacheTTL),
		previews: cache.New[string](DefaultCacheTTL),
		opener:   BrowserOpener{},
		status:   NewStatusFlag(DefaultResetAfter),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Status returns the download status flag.
func (v *Viewer) Status() *StatusFlag {
	return v.status
}

// Remember caches the content carried by a completed status payload so that
// later calls need no extra request.
func (v *Viewer) Remember(g *website.Generated) {
	if g == nil || g.ID == "" || g.HTMLContent == "" {
		return
	}
	if n := v.bundles.Prune(); n > 0 {
		logging.Debugf("Dropped %d expired bundles", n)
	}
	v.bundles.Set(g.ID, g.Bundle())
}

// Bundle returns the artifacts of job id, from cache when possible.
func (v *Viewer) Bundle(ctx context.Context, id string) (*website.Bundle, error) {
	if b, ok := v.bundles.Get(id); ok {
		return b, nil
	}
	b, err := v.client.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	v.bundles.Set(id, b)
	return b, nil
}

// Document returns the renderable HTML of job id, from cache when possible.
func (v *Viewer) Document(ctx context.Context, id string) (string, error) {
	if doc, ok := v.previews.Get(id); ok {
		return doc, nil
	}
	doc, err := v.client.Preview(ctx, id)
	if err != nil {
		return "", err
	}
	v.previews.Set(id, doc)
	return doc, nil
}

// PreviewOptions tunes Preview.
type PreviewOptions struct {
	// Port for the loopback listener. Zero picks a free port.
	Port int
	// NoOpen skips launching the browser.
	NoOpen bool
}

// Preview serves the site of job id on the loopback interface and opens it.
// The server runs until ctx ends.
func (v *Viewer) Preview(ctx context.Context, id string, opts PreviewOptions) (*PreviewServer, error) {
	doc, err := v.Document(ctx, id)
	if err != nil {
		logging.Errorf("Error opening preview: %v", err)
		return nil, fmt.Errorf("failed to fetch preview: %w", err)
	}

	bundle, err := v.Bundle(ctx, id)
	if err != nil {
		logging.Debugf("Serving preview of %s without assets: %v", id, err)
		bundle = nil
	}
	v.checkAssets(id, doc, bundle)

	ps, err := startPreviewServer(ctx, opts.Port, newPreviewHandler(doc, bundle))
	if err != nil {
		logging.Errorf("Error opening preview: %v", err)
		return nil, err
	}
	logging.Infof("Serving preview of %s at %s", id, ps.URL)

	if opts.NoOpen {
		return ps, nil
	}
	if err := v.opener.Open(ps.URL); err != nil {
		logging.Errorf("Error opening preview: %v", err)
		_ = ps.Close()
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}
	return ps, nil
}

func (v *Viewer) checkAssets(id, doc string, bundle *website.Bundle) {
	summary, err := website.Summarize(doc)
	if err != nil {
		logging.Debugf("Could not parse preview of %s: %v", id, err)
		return
	}
	if summary.Title != "" {
		logging.Infof("Preview title: %s", summary.Title)
	}
	if summary.HeadingCounts["h1"] == 0 {
		logging.Debugf("Preview of %s has no h1 heading", id)
	}
	if bundle == nil {
		return
	}
	if summary.LinksStyle && bundle.CSS == "" {
		logging.Warnf("Preview of %s links %s but no CSS was generated", id, website.CSSFileName)
	}
	if summary.LinksScript && bundle.JS == "" {
		logging.Warnf("Preview of %s links %s but no JavaScript was generated", id, website.JSFileName)
	}
}

// Download saves every artifact of job id to sink. One FileResult is returned
// per artifact. The error is non-nil when the bundle could not be fetched or
// any file failed, and names the files that failed.
func (v *Viewer) Download(ctx context.Context, id string, sink Sink) ([]FileResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "viewer.download")
	defer span.End()
	span.SetAttributes(
		attribute.String("sitegen.job_id", id),
		attribute.String("sitegen.sink", sink.Name()),
	)

	v.status.Set(StateDownloading)

	results, err := v.download(ctx, id, sink)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download failed")
		logging.Errorf("Error downloading website %s: %v", id, err)
		v.status.Set(StateError)
		return results, err
	}

	logging.Infof("Saved %d files for %s to %s sink", len(results), id, sink.Name())
	v.status.Set(StateSuccess)
	return results, nil
}

func (v *Viewer) download(ctx context.Context, id string, sink Sink) ([]FileResult, error) {
	bundle, err := v.Bundle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch website files: %w", err)
	}

	batch, err := sink.Open(ctx, id)
	if err != nil {
		return nil, err
	}

	artifacts := bundle.Artifacts()
	results := make([]FileResult, 0, len(artifacts))
	for _, a := range artifacts {
		loc, err := batch.Put(ctx, a)
		results = append(results, FileResult{Artifact: a, Location: loc, Err: err})
	}

	if err := batch.Close(); err != nil {
		for i := range results {
			if results[i].Err == nil {
				results[i].Err = err
				results[i].Location = ""
			}
		}
	}

	var (
		failed []string
		errs   []error
	)
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Artifact.FileName)
			errs = append(errs, r.Err)
		}
	}
	if len(failed) > 0 {
		return results, fmt.Errorf("failed to save %s: %w", strings.Join(failed, ", "), errors.Join(errs...))
	}
	return results, nil
}
