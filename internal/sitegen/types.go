// Package sitegen coordinates form submission, status polling and result
// handling for CLI consumers.
package sitegen

import "time"

// Event types emitted by Manager operations.
const (
	EventSubmitted = "submitted"
	EventStatus    = "status"
	EventProgress  = "progress"
	EventWarning   = "warning"
	EventCompleted = "completed"
	EventFile      = "file"
	EventResult    = "result"
	EventSuccess   = "success"
	EventError     = "error"
)

// Error codes carried by error and warning events.
const (
	CodeValidationFailed = "validation_failed"
	CodeInvalidInput     = "invalid_input"
	CodeSubmitFailed     = "submit_failed"
	CodeGenerationFailed = "generation_failed"
	CodeStatusCheck      = "status_check_failed"
	CodeTooManyErrors    = "too_many_errors"
	CodeTimeout          = "timeout"
	CodeCancelled        = "context_cancelled"
	CodeDownloadFailed   = "download_failed"
	CodePreviewFailed    = "preview_failed"
)

// ProgressEvent streams progress updates from long-running operations.
type ProgressEvent struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Percent int         `json:"percent,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Catalog lists the fixed choices offered by the form.
type Catalog struct {
	WebsiteTypes    []string `json:"website_types"`
	ColorSchemes    []string `json:"color_schemes"`
	Features        []string `json:"features"`
	DefaultPages    []string `json:"default_pages"`
	GenerationSteps []string `json:"generation_steps"`
}

// FormSpec describes a form built from a site file and flag overrides.
type FormSpec struct {
	// File is an optional YAML site description loaded first.
	File string
	// Fields maps form field names to values. Only present keys are applied.
	Fields      map[string]string
	Features    []string
	Pages       []string
	RemovePages []string
}

// WaitOptions tunes status polling.
type WaitOptions struct {
	Interval  time.Duration
	Timeout   time.Duration
	MaxErrors int
}

// Target selects where downloaded files go. At most one of Dir, Zip and
// Bucket may be set; with none the configured output directory is used.
type Target struct {
	Dir    string
	Zip    string
	Bucket string
	Prefix string
}

// GenerateRequest is the input to Manager.Generate.
type GenerateRequest struct {
	Form FormSpec
	// Wait polls until the job finishes.
	Wait bool
	// Save downloads the result after a successful wait.
	Save   bool
	Target Target
	WaitOptions
}

// PreviewOptions tunes Manager.Preview.
type PreviewOptions struct {
	Port   int
	NoOpen bool
	// Duration stops the preview server after this long. Zero serves until
	// the context ends.
	Duration time.Duration
}

// CompletedInfo summarizes a finished job.
type CompletedInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	HTMLBytes  int    `json:"html_bytes"`
	CSSBytes   int    `json:"css_bytes"`
	JSBytes    int    `json:"js_bytes"`
}

// SavedFile reports where one artifact was written.
type SavedFile struct {
	File     string `json:"file"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TabView is one preview tab of a completed job.
type TabView struct {
	ID      string `json:"id"`
	Tab     string `json:"tab"`
	Content string `json:"content"`
}
