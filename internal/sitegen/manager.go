package sitegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ontree-co/sitegen/internal/api"
	"github.com/ontree-co/sitegen/internal/config"
	"github.com/ontree-co/sitegen/internal/form"
	"github.com/ontree-co/sitegen/internal/logging"
	"github.com/ontree-co/sitegen/internal/poller"
	"github.com/ontree-co/sitegen/internal/progress"
	"github.com/ontree-co/sitegen/internal/viewer"
	"github.com/ontree-co/sitegen/internal/website"
)

// Manager coordinates core operations for CLI consumers.
type Manager struct {
	cfg       *config.Config
	client    *api.Client
	submitter *form.Submitter
	tracker   *progress.Tracker
	viewer    *viewer.Viewer
	rand      func() float64
}

type managerOptions struct {
	httpClient *http.Client
	opener     viewer.Opener
	rand       func() float64
}

// Option customizes a Manager.
type Option func(*managerOptions)

// WithHTTPClient replaces the HTTP client used for the service.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *managerOptions) {
		o.httpClient = hc
	}
}

// WithOpener replaces the browser opener used by Preview.
func WithOpener(op viewer.Opener) Option {
	return func(o *managerOptions) {
		o.opener = op
	}
}

// WithRand replaces the progress estimator's random source.
func WithRand(fn func() float64) Option {
	return func(o *managerOptions) {
		o.rand = fn
	}
}

// NewManager initializes a new Manager.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	var o managerOptions
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []api.Option
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	client := api.NewClient(cfg.APIBaseURL, clientOpts...)

	viewerOpts := []viewer.Option{viewer.WithCacheTTL(cfg.CacheTTL.Duration)}
	if o.opener != nil {
		viewerOpts = append(viewerOpts, viewer.WithOpener(o.opener))
	}

	return &Manager{
		cfg:       cfg,
		client:    client,
		submitter: form.NewSubmitter(client),
		tracker:   progress.NewTracker(),
		viewer:    viewer.New(client, viewerOpts...),
		rand:      o.rand,
	}, nil
}

// Close stops background timers.
func (m *Manager) Close() {
	m.viewer.Status().Stop()
}

// Catalog returns the fixed form choices.
func (m *Manager) Catalog() Catalog {
	return Catalog{
		WebsiteTypes:    append([]string(nil), website.WebsiteTypes...),
		ColorSchemes:    append([]string(nil), website.ColorSchemes...),
		Features:        append([]string(nil), website.Features...),
		DefaultPages:    append([]string(nil), website.DefaultPages...),
		GenerationSteps: append([]string(nil), website.GenerationSteps...),
	}
}

// Info returns the service description.
func (m *Manager) Info(ctx context.Context) (*api.ServiceInfo, error) {
	return m.client.Info(ctx)
}

// Status returns the current state of a job.
func (m *Manager) Status(ctx context.Context, id string) (*website.Generated, error) {
	return m.client.Status(ctx, id)
}

// Show loads a completed job into a session and returns one of its preview
// tabs. When the status payload carries no HTML the stored template is
// fetched instead.
func (m *Manager) Show(ctx context.Context, id, tab string) (*TabView, error) {
	switch tab {
	case TabPreview, TabHTML, TabCSS, TabJS:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyJobID
	}

	site, err := m.client.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if site.ID == "" {
		site.ID = id
	}
	if site.Status != website.StatusCompleted {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotCompleted, id, site.Status)
	}
	if site.HTMLContent == "" {
		bundle, err := m.client.Template(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load template for %s: %w", id, err)
		}
		site.HTMLContent = bundle.HTML
		site.CSSContent = bundle.CSS
		site.JSContent = bundle.JS
	}

	session := NewSession()
	if err := session.Submitted(id); err != nil {
		return nil, err
	}
	if err := session.Completed(site); err != nil {
		return nil, err
	}
	m.viewer.Remember(site)

	content, err := session.Tab(tab)
	if err != nil {
		return nil, err
	}
	return &TabView{ID: session.JobID(), Tab: tab, Content: content}, nil
}

// BuildForm loads the site file when set and applies the remaining overrides
// through the regular form operations.
func BuildForm(in FormSpec) (*form.Form, error) {
	f := form.New()
	if in.File != "" {
		loaded, err := form.LoadFile(in.File)
		if err != nil {
			return nil, err
		}
		f = loaded
	}

	for field, value := range in.Fields {
		if err := f.UpdateField(field, value); err != nil {
			return nil, err
		}
	}
	for _, feature := range in.Features {
		if err := f.AddFeature(feature); err != nil {
			return nil, err
		}
	}
	for _, page := range in.Pages {
		if err := f.AddPage(page); err != nil && !errors.Is(err, form.ErrDuplicatePage) {
			return nil, err
		}
	}
	for _, page := range in.RemovePages {
		if err := f.RemovePage(page); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Generate submits a form and optionally waits for and saves the result.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 1)
	go func() {
		defer close(ch)

		f, err := BuildForm(req.Form)
		if err != nil {
			send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: CodeInvalidInput})
			return
		}

		session := NewSession()
		id, err := m.submitter.Submit(ctx, f)
		if err != nil {
			var verr *form.ValidationError
			if errors.As(err, &verr) {
				send(ctx, ch, ProgressEvent{Type: EventError, Message: verr.Message, Code: CodeValidationFailed, Data: map[string]string{"field": verr.Field}})
				return
			}
			send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: CodeSubmitFailed})
			return
		}
		if err := session.Submitted(id); err != nil {
			send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: CodeSubmitFailed})
			return
		}
		if !send(ctx, ch, ProgressEvent{Type: EventSubmitted, Message: "Generation started: " + id, Data: map[string]string{"id": id}}) {
			return
		}

		if !req.Wait {
			return
		}
		site, ok := m.watch(ctx, ch, session, id, req.WaitOptions)
		if !ok {
			return
		}

		if req.Save {
			if !m.save(ctx, ch, site.ID, req.Target) {
				return
			}
		}
		send(ctx, ch, ProgressEvent{Type: EventSuccess, Message: "Website ready", Data: map[string]string{"id": id}})
	}()
	return ch
}

// Wait polls job id until it completes or fails.
func (m *Manager) Wait(ctx context.Context, id string, opts WaitOptions) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 1)
	go func() {
		defer close(ch)
		if strings.TrimSpace(id) == "" {
			send(ctx, ch, ProgressEvent{Type: EventError, Message: "job id is required", Code: CodeInvalidInput})
			return
		}

		session := NewSession()
		_ = session.Submitted(id)
		if _, ok := m.watch(ctx, ch, session, id, opts); ok {
			send(ctx, ch, ProgressEvent{Type: EventSuccess, Message: "Website ready", Data: map[string]string{"id": id}})
		}
	}()
	return ch
}

// Download saves the files of job id to target.
func (m *Manager) Download(ctx context.Context, id string, target Target) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 1)
	go func() {
		defer close(ch)
		if m.save(ctx, ch, id, target) {
			send(ctx, ch, ProgressEvent{Type: EventSuccess, Message: "Download complete"})
		}
	}()
	return ch
}

// Preview serves the site of job id locally until ctx ends or
// opts.Duration elapses.
func (m *Manager) Preview(ctx context.Context, id string, opts PreviewOptions) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 1)
	go func() {
		defer close(ch)
		serveCtx := ctx
		if opts.Duration > 0 {
			var cancel context.CancelFunc
			serveCtx, cancel = context.WithTimeout(ctx, opts.Duration)
			defer cancel()
		}

		ps, err := m.viewer.Preview(serveCtx, id, viewer.PreviewOptions{Port: opts.Port, NoOpen: opts.NoOpen})
		if err != nil {
			code := CodePreviewFailed
			if api.KindOf(err) == api.InvalidInput {
				code = CodeInvalidInput
			}
			send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: code})
			return
		}
		if !send(ctx, ch, ProgressEvent{Type: EventResult, Message: "Preview available at " + ps.URL, Data: map[string]string{"id": id, "url": ps.URL}}) {
			<-ps.Done()
			return
		}

		<-ps.Done()
		send(ctx, ch, ProgressEvent{Type: EventSuccess, Message: "Preview stopped"})
	}()
	return ch
}

// Sink resolves a download target.
func (m *Manager) Sink(target Target) (viewer.Sink, error) {
	set := 0
	for _, v := range []string{target.Dir, target.Zip, target.Bucket} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("only one of --out, --zip and --bucket may be given")
	}

	switch {
	case target.Bucket != "":
		return viewer.NewBucketSink(m.cfg.Storage, target.Bucket, target.Prefix)
	case target.Zip != "":
		if info, err := os.Stat(target.Zip); err == nil && info.IsDir() {
			return &viewer.ZipSink{Dir: target.Zip}, nil
		}
		return &viewer.ZipSink{Dir: filepath.Dir(target.Zip), FileName: filepath.Base(target.Zip)}, nil
	case target.Dir != "":
		return &viewer.DirSink{Dir: target.Dir}, nil
	}
	return &viewer.DirSink{Dir: m.cfg.OutputDir, PerJob: true}, nil
}

// watch forwards poller events and reports whether the job completed.
func (m *Manager) watch(ctx context.Context, ch chan<- ProgressEvent, session *Session, id string, opts WaitOptions) (_ *website.Generated, ok bool) {
	pollCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	defer m.tracker.Remove(id)
	defer func() {
		if !ok {
			session.StartOver()
		}
	}()

	interval := opts.Interval
	if interval <= 0 {
		interval = m.cfg.PollInterval.Duration
	}
	p := poller.New(m.client, poller.Options{
		Interval:         interval,
		ProgressInterval: m.cfg.ProgressInterval.Duration,
		MaxErrors:        opts.MaxErrors,
		Tracker:          m.tracker,
		Rand:             m.rand,
	})

	var lastMessage, lastStep string
	for ev := range p.Watch(pollCtx, id) {
		snap := ev.Snapshot
		switch ev.Type {
		case poller.EventStatus:
			msg := ""
			if snap.Message != lastMessage {
				msg, lastMessage = snap.Message, snap.Message
			}
			if !send(ctx, ch, ProgressEvent{Type: EventStatus, Message: msg, Percent: snap.Progress, Data: snap}) {
				return nil, false
			}

		case poller.EventProgress:
			msg := ""
			if snap.StepLabel != lastStep {
				msg, lastStep = snap.StepLabel, snap.StepLabel
			}
			if !send(ctx, ch, ProgressEvent{Type: EventProgress, Message: msg, Percent: snap.Progress, Data: snap}) {
				return nil, false
			}

		case poller.EventError:
			if ev.Code == poller.CodeTooManyErrors {
				send(ctx, ch, ProgressEvent{Type: EventError, Message: ev.Message, Code: CodeTooManyErrors})
				return nil, false
			}
			if !send(ctx, ch, ProgressEvent{Type: EventWarning, Message: ev.Message, Code: CodeStatusCheck}) {
				return nil, false
			}

		case poller.EventFailed:
			send(ctx, ch, ProgressEvent{Type: EventError, Message: ev.Message, Code: CodeGenerationFailed, Data: snap})
			return nil, false

		case poller.EventCompleted:
			site := ev.Website
			if err := session.Completed(site); err != nil {
				send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: CodeGenerationFailed})
				return nil, false
			}
			m.viewer.Remember(site)
			if !send(ctx, ch, ProgressEvent{Type: EventCompleted, Message: "Website generated", Percent: 100, Data: completedInfo(site)}) {
				return nil, false
			}
			return site, true
		}
	}

	if ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		send(ctx, ch, ProgressEvent{Type: EventError, Message: fmt.Sprintf("Timed out waiting for %s", id), Code: CodeTimeout})
		return nil, false
	}
	send(ctx, ch, ProgressEvent{Type: EventError, Message: "Cancelled", Code: CodeCancelled})
	return nil, false
}

func (m *Manager) save(ctx context.Context, ch chan<- ProgressEvent, id string, target Target) bool {
	if strings.TrimSpace(id) == "" {
		send(ctx, ch, ProgressEvent{Type: EventError, Message: "job id is required", Code: CodeInvalidInput})
		return false
	}
	if err := website.ValidateID(id); err != nil {
		send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: CodeInvalidInput})
		return false
	}
	sink, err := m.Sink(target)
	if err != nil {
		send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: CodeInvalidInput})
		return false
	}

	results, err := m.viewer.Download(ctx, id, sink)
	for _, r := range results {
		saved := SavedFile{File: r.Artifact.FileName, Location: r.Location}
		msg := fmt.Sprintf("Saved %s to %s", r.Artifact.FileName, r.Location)
		if r.Err != nil {
			saved.Error = r.Err.Error()
			msg = fmt.Sprintf("Failed to save %s: %v", r.Artifact.FileName, r.Err)
		}
		if !send(ctx, ch, ProgressEvent{Type: EventFile, Message: msg, Data: saved}) {
			return false
		}
	}
	if err != nil {
		logging.Debugf("Download of %s failed: %v", id, err)
		send(ctx, ch, ProgressEvent{Type: EventError, Message: err.Error(), Code: CodeDownloadFailed})
		return false
	}
	return true
}

// send delivers ev unless ctx ends first. A ready receiver wins over a
// cancelled context so final events still reach a draining consumer.
func send(ctx context.Context, ch chan<- ProgressEvent, ev ProgressEvent) bool {
	select {
	case ch <- ev:
		return true
	default:
	}
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func completedInfo(site *website.Generated) CompletedInfo {
	return CompletedInfo{
		ID:         site.ID,
		Title:      website.Title(site.HTMLContent),
		Message:    site.Message,
		PreviewURL: site.PreviewURL,
		HTMLBytes:  len(site.HTMLContent),
		CSSBytes:   len(site.CSSContent),
		JSBytes:    len(site.JSContent),
	}
}
