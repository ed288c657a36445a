package cli

import (
	"context"

	"github.com/ontree-co/sitegen/internal/sitegen"
)

// NewManagerAdapter wraps a sitegen.Manager for CLI usage.
func NewManagerAdapter(manager *sitegen.Manager) Manager {
	return &managerAdapter{manager: manager}
}

type managerAdapter struct {
	manager *sitegen.Manager
}

func (m *managerAdapter) Catalog() Catalog {
	c := m.manager.Catalog()
	return Catalog{
		WebsiteTypes:    c.WebsiteTypes,
		ColorSchemes:    c.ColorSchemes,
		Features:        c.Features,
		DefaultPages:    c.DefaultPages,
		GenerationSteps: c.GenerationSteps,
	}
}

func (m *managerAdapter) Info(ctx context.Context) (ServiceInfo, error) {
	info, err := m.manager.Info(ctx)
	if err != nil {
		return ServiceInfo{}, err
	}
	return ServiceInfo{
		Message:   info.Message,
		Model:     info.GeminiModel,
		Version:   info.Version,
		Endpoints: info.Endpoints,
	}, nil
}

func (m *managerAdapter) Status(ctx context.Context, id string) (JobStatus, error) {
	g, err := m.manager.Status(ctx, id)
	if err != nil {
		return JobStatus{}, err
	}
	return JobStatus{
		ID:           g.ID,
		Status:       string(g.Status),
		Message:      g.Message,
		Progress:     g.Progress,
		PreviewURL:   g.PreviewURL,
		ErrorDetails: g.ErrorDetails,
		HasContent:   g.HTMLContent != "",
	}, nil
}

func (m *managerAdapter) Show(ctx context.Context, id, tab string) (TabView, error) {
	v, err := m.manager.Show(ctx, id, tab)
	if err != nil {
		return TabView{}, err
	}
	return TabView{ID: v.ID, Tab: v.Tab, Content: v.Content}, nil
}

func (m *managerAdapter) Generate(ctx context.Context, req GenerateRequest) <-chan ProgressEvent {
	return convertEvents(m.manager.Generate(ctx, sitegen.GenerateRequest{
		Form: sitegen.FormSpec{
			File:        req.Form.File,
			Fields:      req.Form.Fields,
			Features:    req.Form.Features,
			Pages:       req.Form.Pages,
			RemovePages: req.Form.RemovePages,
		},
		Wait:        req.Wait,
		Save:        req.Save,
		Target:      toTarget(req.Target),
		WaitOptions: toWaitOptions(req.WaitOptions),
	}))
}

func (m *managerAdapter) Wait(ctx context.Context, id string, opts WaitOptions) <-chan ProgressEvent {
	return convertEvents(m.manager.Wait(ctx, id, toWaitOptions(opts)))
}

func (m *managerAdapter) Download(ctx context.Context, id string, target Target) <-chan ProgressEvent {
	return convertEvents(m.manager.Download(ctx, id, toTarget(target)))
}

func (m *managerAdapter) Preview(ctx context.Context, id string, opts PreviewOptions) <-chan ProgressEvent {
	return convertEvents(m.manager.Preview(ctx, id, sitegen.PreviewOptions{
		Port:     opts.Port,
		NoOpen:   opts.NoOpen,
		Duration: opts.Duration,
	}))
}

func toTarget(t Target) sitegen.Target {
	return sitegen.Target{Dir: t.Dir, Zip: t.Zip, Bucket: t.Bucket, Prefix: t.Prefix}
}

func toWaitOptions(o WaitOptions) sitegen.WaitOptions {
	return sitegen.WaitOptions{Interval: o.Interval, Timeout: o.Timeout, MaxErrors: o.MaxErrors}
}

func convertEvents(input <-chan sitegen.ProgressEvent) <-chan ProgressEvent {
	out := make(chan ProgressEvent, 1)
	go func() {
		defer close(out)
		for event := range input {
			out <- ProgressEvent{
				Type:    event.Type,
				Message: event.Message,
				Code:    event.Code,
				Percent: event.Percent,
				Data:    event.Data,
			}
		}
	}()
	return out
}
