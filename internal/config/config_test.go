package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL", "DB_PATH"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected default port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.DBPath != "intel.db" {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %s", cfg.JobTTL)
	}
}

func TestLoad_ClampsInvalidValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("MAX_QUEUE_SIZE", "0")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected clamped worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected clamped queue size 100, got %d", cfg.MaxQueueSize)
	}
	if cfg.MaxUploadBytes != 10485760 {
		t.Errorf("expected clamped upload limit, got %d", cfg.MaxUploadBytes)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{DBPath: "intel.db"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing API key")
	}
	cfg.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `sections:
  - Automotive
  - Energy
relevant_sectors:
  - automotive
investor_keys:
  - Investor
  - Sponsor
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}

	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("load vocabulary: %v", err)
	}
	if len(v.Sections) != 2 || v.Sections[1] != "Energy" {
		t.Errorf("unexpected sections %v", v.Sections)
	}
	if len(v.InvestorKeys) != 2 || v.InvestorKeys[1] != "Sponsor" {
		t.Errorf("unexpected investor keys %v", v.InvestorKeys)
	}
}

func TestLoadVocabulary_Missing(t *testing.T) {
	if _, err := LoadVocabulary("/nonexistent/vocab.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
