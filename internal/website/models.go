// Package website holds the data exchanged with the website generation service.
package website

// Status is the lifecycle state of a generation job.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions can happen for the job.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Request describes the website the service should generate.
type Request struct {
	WebsiteType    string   `json:"website_type" yaml:"website_type"`
	BusinessName   string   `json:"business_name" yaml:"business_name"`
	Description    string   `json:"description" yaml:"description"`
	TargetAudience string   `json:"target_audience" yaml:"target_audience"`
	ColorScheme    string   `json:"color_scheme,omitempty" yaml:"color_scheme"`
	Features       []string `json:"features" yaml:"features"`
	Pages          []string `json:"pages" yaml:"pages"`
}

// Generated is the service's view of one generation job. Content fields are
// only present once the job has completed.
type Generated struct {
	ID           string `json:"id"`
	Status       Status `json:"status"`
	Message      string `json:"message"`
	Progress     *int   `json:"progress,omitempty"`
	HTMLContent  string `json:"html_content,omitempty"`
	CSSContent   string `json:"css_content,omitempty"`
	JSContent    string `json:"js_content,omitempty"`
	PreviewURL   string `json:"preview_url,omitempty"`
	Description  string `json:"description,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`
}

// Bundle returns the generated artifacts carried by a status payload.
func (g *Generated) Bundle() *Bundle {
	return &Bundle{
		ID:   g.ID,
		HTML: g.HTMLContent,
		CSS:  g.CSSContent,
		JS:   g.JSContent,
	}
}

// ArtifactKind names one of the generated text payloads.
type ArtifactKind string

const (
	KindHTML ArtifactKind = "html"
	KindCSS  ArtifactKind = "css"
	KindJS   ArtifactKind = "js"
)

// Artifact is a single generated file.
type Artifact struct {
	Kind        ArtifactKind `json:"kind"`
	FileName    string       `json:"file_name"`
	ContentType string       `json:"content_type"`
	Content     string       `json:"-"`
}

// Bundle is the full set of generated files for one job.
type Bundle struct {
	ID   string `json:"website_id,omitempty"`
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// File names used inside downloads and archives.
const (
	HTMLFileName = "index.html"
	CSSFileName  = "style.css"
	JSFileName   = "script.js"
)

// Artifacts returns the bundle's files in html, css, js order.
func (b *Bundle) Artifacts() []Artifact {
	return []Artifact{
		{Kind: KindHTML, FileName: HTMLFileName, ContentType: "text/html", Content: b.HTML},
		{Kind: KindCSS, FileName: CSSFileName, ContentType: "text/css", Content: b.CSS},
		{Kind: KindJS, FileName: JSFileName, ContentType: "text/javascript", Content: b.JS},
	}
}

// Set assigns content by file name and reports whether the name was recognised.
func (b *Bundle) Set(fileName, content string) bool {
	switch fileName {
	case HTMLFileName:
		b.HTML = content
	case CSSFileName:
		b.CSS = content
	case JSFileName:
		b.JS = content
	default:
		return false
	}
	return true
}
