package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeManager struct {
	status    JobStatus
	statusErr error
	info      ServiceInfo
	tab       TabView
	tabErr    error

	generateEvents []ProgressEvent
	waitEvents     []ProgressEvent
	downloadEvents []ProgressEvent
	previewEvents  []ProgressEvent

	lastGenerate GenerateRequest
	lastWait     WaitOptions
	lastTarget   Target
	lastPreview  PreviewOptions
	lastID       string
	lastTab      string
}

func (f *fakeManager) Catalog() Catalog {
	return Catalog{
		WebsiteTypes: []string{"Business", "Blog"},
		Features:     []string{"Contact Form"},
		DefaultPages: []string{"Home", "About", "Contact"},
	}
}

func (f *fakeManager) Info(_ context.Context) (ServiceInfo, error) {
	return f.info, nil
}

func (f *fakeManager) Status(_ context.Context, id string) (JobStatus, error) {
	f.lastID = id
	return f.status, f.statusErr
}

func (f *fakeManager) Show(_ context.Context, id, tab string) (TabView, error) {
	f.lastID = id
	f.lastTab = tab
	return f.tab, f.tabErr
}

func (f *fakeManager) Generate(_ context.Context, req GenerateRequest) <-chan ProgressEvent {
	f.lastGenerate = req
	return eventsToChan(f.generateEvents)
}

func (f *fakeManager) Wait(_ context.Context, id string, opts WaitOptions) <-chan ProgressEvent {
	f.lastID = id
	f.lastWait = opts
	return eventsToChan(f.waitEvents)
}

func (f *fakeManager) Download(_ context.Context, id string, target Target) <-chan ProgressEvent {
	f.lastID = id
	f.lastTarget = target
	return eventsToChan(f.downloadEvents)
}

func (f *fakeManager) Preview(_ context.Context, id string, opts PreviewOptions) <-chan ProgressEvent {
	f.lastID = id
	f.lastPreview = opts
	return eventsToChan(f.previewEvents)
}

func eventsToChan(events []ProgressEvent) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, len(events))
	for _, event := range events {
		ch <- event
	}
	close(ch)
	return ch
}

func runCLI(t *testing.T, args []string, manager Manager) (int, string, string) {
	t.Helper()
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	exitCode := Execute(args, manager, &stdout, &stderr)
	return exitCode, stdout.String(), stderr.String()
}

func decodeJSONLines(t *testing.T, output string) []ProgressEvent {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	events := make([]ProgressEvent, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		var event ProgressEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("failed to decode JSON line %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func TestGenerateBuildsRequest(t *testing.T) {
	manager := &fakeManager{
		generateEvents: []ProgressEvent{
			{Type: "submitted", Message: "Submitted job abc123"},
			{Type: "success", Message: "done"},
		},
	}
	exitCode, stdout, _ := runCLI(t, []string{
		"generate", "--json",
		"--name", "Acme", "--type", "Blog", "--description", "Coffee",
		"--feature", "Contact Form", "--feature", "Blog",
		"--page", "Menu", "--remove-page", "About",
		"--out", "site", "--interval", "1s", "--max-errors", "3",
	}, manager)
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if events := decodeJSONLines(t, stdout); len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	req := manager.lastGenerate
	if req.Form.Fields["business_name"] != "Acme" || req.Form.Fields["website_type"] != "Blog" {
		t.Errorf("unexpected fields: %v", req.Form.Fields)
	}
	if _, ok := req.Form.Fields["target_audience"]; ok {
		t.Error("unset flags should not become fields")
	}
	if len(req.Form.Features) != 2 || req.Form.Pages[0] != "Menu" || req.Form.RemovePages[0] != "About" {
		t.Errorf("unexpected form input: %+v", req.Form)
	}
	if !req.Save || !req.Wait || req.Target.Dir != "site" {
		t.Errorf("--out should imply wait and save: %+v", req)
	}
	if req.Interval != time.Second || req.MaxErrors != 3 {
		t.Errorf("unexpected wait options: %+v", req.WaitOptions)
	}
}

func TestGenerateValidationFailureIsUsageError(t *testing.T) {
	manager := &fakeManager{
		generateEvents: []ProgressEvent{
			{Type: "error", Message: "Business name is required", Code: "validation_failed"},
		},
	}
	exitCode, stdout, _ := runCLI(t, []string{"generate", "--json"}, manager)
	if exitCode != ExitInvalidUsage {
		t.Fatalf("expected exit code %d, got %d", ExitInvalidUsage, exitCode)
	}
	events := decodeJSONLines(t, stdout)
	if len(events) != 1 || events[0].Code != "validation_failed" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestGenerateSubmitFailureIsRuntimeError(t *testing.T) {
	manager := &fakeManager{
		generateEvents: []ProgressEvent{
			{Type: "error", Message: "Failed to generate website. Please try again.", Code: "submit_failed"},
		},
	}
	exitCode, _, stderr := runCLI(t, []string{"generate"}, manager)
	if exitCode != ExitRuntimeError {
		t.Fatalf("expected exit code %d, got %d", ExitRuntimeError, exitCode)
	}
	if !strings.Contains(stderr, "Failed to generate website") {
		t.Errorf("text mode should print the error to stderr, got %q", stderr)
	}
}

func TestConflictingTargets(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"out and zip", []string{"download", "abc123", "--out", "a", "--zip", "b.zip"}},
		{"zip and bucket", []string{"generate", "--zip", "b.zip", "--bucket", "sites"}},
		{"prefix without bucket", []string{"download", "abc123", "--prefix", "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exitCode, _, _ := runCLI(t, tt.args, &fakeManager{})
			if exitCode != ExitInvalidUsage {
				t.Fatalf("expected exit code %d, got %d", ExitInvalidUsage, exitCode)
			}
		})
	}
}

func TestMissingOrExtraArgs(t *testing.T) {
	tests := [][]string{
		{"status"},
		{"wait", "a", "b"},
		{"download", " "},
		{"preview"},
		{"catalog", "extra"},
		{"wait", "abc123", "--max-errors", "-1"},
		{"preview", "abc123", "--port", "70000"},
		{"status", "abc123", "--no-such-flag"},
	}
	for _, args := range tests {
		exitCode, _, _ := runCLI(t, args, &fakeManager{})
		if exitCode != ExitInvalidUsage {
			t.Errorf("%v: expected exit code %d, got %d", args, ExitInvalidUsage, exitCode)
		}
	}
}

func TestWaitTimeoutJSON(t *testing.T) {
	manager := &fakeManager{
		waitEvents: []ProgressEvent{
			{Type: "status", Message: "Working", Percent: 10},
			{Type: "warning", Message: "Error checking generation status", Code: "status_check_failed"},
			{Type: "error", Message: "timed out", Code: "timeout"},
		},
	}
	exitCode, stdout, _ := runCLI(t, []string{"wait", "abc123", "--timeout", "5m", "--json"}, manager)
	if exitCode != ExitRuntimeError {
		t.Fatalf("expected exit code %d, got %d", ExitRuntimeError, exitCode)
	}
	events := decodeJSONLines(t, stdout)
	if len(events) != 3 || events[2].Code != "timeout" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if manager.lastID != "abc123" || manager.lastWait.Timeout != 5*time.Minute {
		t.Errorf("unexpected wait call: %q %+v", manager.lastID, manager.lastWait)
	}
}

func TestWarningsDoNotFailTheRun(t *testing.T) {
	manager := &fakeManager{
		waitEvents: []ProgressEvent{
			{Type: "warning", Message: "Error checking generation status", Code: "status_check_failed"},
			{Type: "completed", Message: "Website generated successfully!"},
			{Type: "success"},
		},
	}
	exitCode, stdout, stderr := runCLI(t, []string{"wait", "abc123"}, manager)
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if !strings.Contains(stderr, "Warning: Error checking generation status") {
		t.Errorf("warning missing from stderr: %q", stderr)
	}
	if strings.TrimSpace(stdout) != "Website generated successfully!" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestStatusJSON(t *testing.T) {
	progress := 40
	manager := &fakeManager{
		status: JobStatus{ID: "abc123", Status: "generating", Message: "Working", Progress: &progress},
	}
	exitCode, stdout, _ := runCLI(t, []string{"status", "abc123", "--json"}, manager)
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	events := decodeJSONLines(t, stdout)
	if len(events) != 1 || events[0].Type != "result" {
		t.Fatalf("unexpected events: %+v", events)
	}
	data, ok := events[0].Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected data map, got %T", events[0].Data)
	}
	if data["status"] != "generating" || data["progress"] != float64(40) {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestStatusError(t *testing.T) {
	manager := &fakeManager{statusErr: errors.New("Website not found")}
	exitCode, stdout, _ := runCLI(t, []string{"status", "nope", "--json"}, manager)
	if exitCode != ExitRuntimeError {
		t.Fatalf("expected exit code %d, got %d", ExitRuntimeError, exitCode)
	}
	events := decodeJSONLines(t, stdout)
	if len(events) != 1 || events[0].Type != "error" || events[0].Message != "Website not found" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestShowTab(t *testing.T) {
	manager := &fakeManager{tab: TabView{ID: "abc123", Tab: "css", Content: "body { color: red; }"}}
	exitCode, stdout, _ := runCLI(t, []string{"show", "abc123", "--tab", "css"}, manager)
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if manager.lastID != "abc123" || manager.lastTab != "css" {
		t.Errorf("show called with id %q tab %q", manager.lastID, manager.lastTab)
	}
	if stdout != "body { color: red; }\n" {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestShowDefaultsToPreviewTab(t *testing.T) {
	manager := &fakeManager{tab: TabView{ID: "abc123", Tab: "preview", Content: "Acme"}}
	exitCode, stdout, _ := runCLI(t, []string{"show", "abc123", "--json"}, manager)
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if manager.lastTab != "preview" {
		t.Errorf("expected preview tab, got %q", manager.lastTab)
	}
	events := decodeJSONLines(t, stdout)
	if len(events) != 1 || events[0].Type != "result" {
		t.Fatalf("unexpected events: %+v", events)
	}
	data, ok := events[0].Data.(map[string]interface{})
	if !ok || data["content"] != "Acme" || data["tab"] != "preview" {
		t.Fatalf("unexpected data: %v", events[0].Data)
	}
}

func TestShowRejectsUnknownTab(t *testing.T) {
	manager := &fakeManager{}
	exitCode, _, stderr := runCLI(t, []string{"show", "abc123", "--tab", "python"}, manager)
	if exitCode != ExitInvalidUsage {
		t.Fatalf("expected exit code %d, got %d", ExitInvalidUsage, exitCode)
	}
	if manager.lastTab != "" {
		t.Errorf("manager should not be called, got tab %q", manager.lastTab)
	}
	if !strings.Contains(stderr, "invalid tab") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestShowNotCompletedIsRuntimeError(t *testing.T) {
	manager := &fakeManager{tabErr: errors.New("website is not completed: job abc123 is generating")}
	exitCode, _, stderr := runCLI(t, []string{"show", "abc123"}, manager)
	if exitCode != ExitRuntimeError {
		t.Fatalf("expected exit code %d, got %d", ExitRuntimeError, exitCode)
	}
	if !strings.Contains(stderr, "not completed") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestDownloadBucketTarget(t *testing.T) {
	manager := &fakeManager{downloadEvents: []ProgressEvent{{Type: "success"}}}
	exitCode, _, _ := runCLI(t, []string{"download", "abc123", "--bucket", "sites", "--prefix", "acme"}, manager)
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if manager.lastTarget != (Target{Bucket: "sites", Prefix: "acme"}) {
		t.Errorf("unexpected target: %+v", manager.lastTarget)
	}
}

func TestPreviewOptions(t *testing.T) {
	manager := &fakeManager{previewEvents: []ProgressEvent{
		{Type: "result", Message: "Preview at http://127.0.0.1:8080/"},
		{Type: "success"},
	}}
	exitCode, stdout, _ := runCLI(t, []string{"preview", "abc123", "--port", "8080", "--no-open", "--duration", "1m"}, manager)
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	want := PreviewOptions{Port: 8080, NoOpen: true, Duration: time.Minute}
	if manager.lastPreview != want {
		t.Errorf("preview options = %+v, want %+v", manager.lastPreview, want)
	}
	if !strings.Contains(stdout, "http://127.0.0.1:8080/") {
		t.Errorf("unexpected stdout: %q", stdout)
	}
}

func TestCatalogText(t *testing.T) {
	exitCode, stdout, _ := runCLI(t, []string{"catalog"}, &fakeManager{})
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	for _, want := range []string{"Website types:", "  - Blog", "Default pages:", "  - Contact"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("catalog output missing %q:\n%s", want, stdout)
		}
	}
}

func TestProgressTextFormat(t *testing.T) {
	manager := &fakeManager{waitEvents: []ProgressEvent{
		{Type: "progress", Message: "Generating HTML", Percent: 35},
	}}
	_, stdout, _ := runCLI(t, []string{"wait", "abc123"}, manager)
	if strings.TrimSpace(stdout) != "[ 35%] Generating HTML" {
		t.Errorf("unexpected progress line: %q", stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	exitCode, stdout, _ := runCLI(t, []string{"version", "--json"}, &fakeManager{})
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	events := decodeJSONLines(t, stdout)
	if len(events) != 1 || events[0].Type != "result" || events[0].Message == "" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
