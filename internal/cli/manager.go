package cli

import "context"

// Manager abstracts core operations for the CLI.
type Manager interface {
	Catalog() Catalog
	Info(ctx context.Context) (ServiceInfo, error)
	Status(ctx context.Context, id string) (JobStatus, error)
	Show(ctx context.Context, id, tab string) (TabView, error)

	Generate(ctx context.Context, req GenerateRequest) <-chan ProgressEvent
	Wait(ctx context.Context, id string, opts WaitOptions) <-chan ProgressEvent
	Download(ctx context.Context, id string, target Target) <-chan ProgressEvent
	Preview(ctx context.Context, id string, opts PreviewOptions) <-chan ProgressEvent
}
