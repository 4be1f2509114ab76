package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != filepath.Join(dir, "ocr_settings.db") {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Storage.UploadRoot != filepath.Join(dir, "images") {
		t.Errorf("upload root = %q", cfg.Storage.UploadRoot)
	}
	if cfg.Server.Addr != "127.0.0.1:8745" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Extractor.Model != "gemini-1.5-flash" {
		t.Errorf("model = %q", cfg.Extractor.Model)
	}
	if cfg.Extractor.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.Extractor.Timeout)
	}
	if cfg.Export.Format != "csv" {
		t.Errorf("format = %q", cfg.Export.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  addr: 127.0.0.1:9000\nexport:\n  format: xlsx\n")
	if err := os.WriteFile(filepath.Join(dir, "docscan.yaml"), yaml, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DOCSCAN_EXTRACTOR_MODEL", "gemini-1.5-pro")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q, want file value", cfg.Server.Addr)
	}
	if cfg.Export.Format != "xlsx" {
		t.Errorf("format = %q, want xlsx", cfg.Export.Format)
	}
	if cfg.Extractor.Model != "gemini-1.5-pro" {
		t.Errorf("model = %q, want env override", cfg.Extractor.Model)
	}
}

func TestLoadConfigIgnoresFileCredential(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("extractor:\n  api_key: leaked-into-a-file\n")
	if err := os.WriteFile(filepath.Join(dir, "docscan.yaml"), yaml, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Extractor.APIKey != "" {
		t.Errorf("api key = %q, want empty; the credential must not come from the config file", cfg.Extractor.APIKey)
	}
}

func TestValidateRejectsBadFormat(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Path: "x.db"},
		Storage:  StorageConfig{UploadRoot: "images"},
		Export:   ExportConfig{Format: "pdf"},
	}
	if err := cfg.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
