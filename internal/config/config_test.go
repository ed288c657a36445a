package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the loader at an empty working directory and clears the
// variables Load reads, so a developer's shell or sitegen.toml never leaks in.
func isolate(t *testing.T) {
	t.Helper()
	keys := []string{
		"SITEGEN_CONFIG", "SITEGEN_API_BASE_URL", "NEXT_PUBLIC_API_BASE_URL",
		"SITEGEN_POLL_INTERVAL", "SITEGEN_PROGRESS_INTERVAL", "SITEGEN_CACHE_TTL",
		"SITEGEN_OUTPUT_DIR", "SITEGEN_LOG_DIR", "SITEGEN_S3_ENDPOINT",
		"SITEGEN_S3_ACCESS_KEY", "SITEGEN_S3_SECRET_KEY", "SITEGEN_S3_BUCKET", "SITEGEN_S3_USE_SSL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, "http://localhost:8000")
	}
	if cfg.PollInterval.Duration != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.ProgressInterval.Duration != 500*time.Millisecond {
		t.Errorf("ProgressInterval = %v, want 500ms", cfg.ProgressInterval)
	}
	if cfg.Storage.Enabled() {
		t.Error("storage should be disabled by default")
	}
}

func TestLoadEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantBase string
		wantPoll time.Duration
	}{
		{
			name:     "sitegen base url with trailing slash",
			envVars:  map[string]string{"SITEGEN_API_BASE_URL": "https://gen.example.com/"},
			wantBase: "https://gen.example.com",
			wantPoll: 2 * time.Second,
		},
		{
			name:     "legacy frontend variable",
			envVars:  map[string]string{"NEXT_PUBLIC_API_BASE_URL": "http://10.0.0.5:8000"},
			wantBase: "http://10.0.0.5:8000",
			wantPoll: 2 * time.Second,
		},
		{
			name: "sitegen variable wins over legacy",
			envVars: map[string]string{
				"NEXT_PUBLIC_API_BASE_URL": "http://legacy:8000",
				"SITEGEN_API_BASE_URL":     "http://primary:8000",
			},
			wantBase: "http://primary:8000",
			wantPoll: 2 * time.Second,
		},
		{
			name:     "poll interval override",
			envVars:  map[string]string{"SITEGEN_POLL_INTERVAL": "750ms"},
			wantBase: "http://localhost:8000",
			wantPoll: 750 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.APIBaseURL != tt.wantBase {
				t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, tt.wantBase)
			}
			if cfg.PollInterval.Duration != tt.wantPoll {
				t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, tt.wantPoll)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)

	content := `
api_base_url = "http://generator.internal:9000"
poll_interval = "5s"
output_dir = "/tmp/sites"

[storage]
endpoint = "minio:9000"
bucket = "websites"
`
	if err := os.WriteFile(DefaultConfigFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "http://generator.internal:9000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval.Duration != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.OutputDir != "/tmp/sites" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if !cfg.Storage.Enabled() || cfg.Storage.Bucket != "websites" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !strings.Contains(cfg.String(), "Storage: minio:9000") {
		t.Errorf("String() = %q", cfg.String())
	}
}

func TestLoadExplicitConfigMissing(t *testing.T) {
	isolate(t)
	t.Setenv("SITEGEN_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{"non http base", map[string]string{"SITEGEN_API_BASE_URL": "ftp://example.com"}},
		{"relative base", map[string]string{"SITEGEN_API_BASE_URL": "localhost:8000"}},
		{"zero poll interval", map[string]string{"SITEGEN_POLL_INTERVAL": "0s"}},
		{"unparseable interval", map[string]string{"SITEGEN_PROGRESS_INTERVAL": "soon"}},
		{"bad ssl flag", map[string]string{"SITEGEN_S3_USE_SSL": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
