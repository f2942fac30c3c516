package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Ignore) == 0 {
		t.Error("expected default ignore globs")
	}
	if cfg.RulesPath == "" || cfg.HistoryPath == "" || cfg.LockPath == "" {
		t.Error("expected default paths")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")

	yaml := `
rules_path: ~/custom/rules.yaml
ignore:
  - "*.tmp"
logging:
  level: debug
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Ignore) != 1 || cfg.Ignore[0] != "*.tmp" {
		t.Errorf("expected [*.tmp], got %v", cfg.Ignore)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Logging.Format != "console" {
		t.Errorf("expected console format, got %s", cfg.Logging.Format)
	}
	if cfg.HistoryPath != DataPath() {
		t.Errorf("history path = %s, want default", cfg.HistoryPath)
	}
	home, _ := os.UserHomeDir()
	if cfg.RulesPath != filepath.Join(home, "custom", "rules.yaml") {
		t.Errorf("rules path not expanded: %s", cfg.RulesPath)
	}
}

func TestDefaultConfig_ClusterSettings(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cluster.Dimensions <= 0 || cfg.Cluster.MaxIterations <= 0 {
		t.Errorf("unexpected cluster defaults %+v", cfg.Cluster)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, expected defaults for non-existent file", err)
	}
	if len(cfg.Ignore) == 0 {
		t.Error("expected default ignore globs for non-existent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
ignore:
  - "*.tmp"
  pattern: [invalid
`
	if err := os.WriteFile(cfgPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestDefaultPath(t *testing.T) {
	for name, path := range map[string]string{
		"DefaultPath": DefaultPath(),
		"RulesPath":   RulesPath(),
		"DataPath":    DataPath(),
	} {
		if path == "" {
			t.Errorf("%s() returned empty string", name)
		}
		if !filepath.IsAbs(path) {
			t.Errorf("%s() = %s, expected absolute path", name, path)
		}
	}
}
