package cli

import "time"

// Exit codes returned by Execute.
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitInvalidUsage = 2
)

// Error codes that mean the input was wrong rather than the operation.
const (
	codeValidationFailed = "validation_failed"
	codeInvalidInput     = "invalid_input"
)

// ProgressEvent is one JSONL line of command output.
type ProgressEvent struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Percent int         `json:"percent,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Catalog lists the fixed form choices.
type Catalog struct {
	WebsiteTypes    []string `json:"website_types"`
	ColorSchemes    []string `json:"color_schemes"`
	Features        []string `json:"features"`
	DefaultPages    []string `json:"default_pages"`
	GenerationSteps []string `json:"generation_steps"`
}

// ServiceInfo describes the generation service.
type ServiceInfo struct {
	Message   string            `json:"message"`
	Model     string            `json:"model,omitempty"`
	Version   string            `json:"version,omitempty"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

// JobStatus is the service's view of a job without the generated content.
type JobStatus struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Progress     *int   `json:"progress,omitempty"`
	PreviewURL   string `json:"preview_url,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`
	HasContent   bool   `json:"has_content"`
}

// FormInput is the form described on the command line.
type FormInput struct {
	File        string
	Fields      map[string]string
	Features    []string
	Pages       []string
	RemovePages []string
}

// WaitOptions tunes polling.
type WaitOptions struct {
	Interval  time.Duration
	Timeout   time.Duration
	MaxErrors int
}

// Target selects where downloads are written.
type Target struct {
	Dir    string
	Zip    string
	Bucket string
	Prefix string
}

// GenerateRequest is the input of the generate command.
type GenerateRequest struct {
	Form   FormInput
	Wait   bool
	Save   bool
	Target Target
	WaitOptions
}

// PreviewOptions tunes the preview command.
type PreviewOptions struct {
	Port     int
	NoOpen   bool
	Duration time.Duration
}

// TabView is one tab of a completed website.
type TabView struct {
	ID      string `json:"id"`
	Tab     string `json:"tab"`
	Content string `json:"content"`
}
