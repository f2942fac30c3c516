package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Cluster struct {
	Dimensions    int `yaml:"dimensions"`
	MaxIterations int `yaml:"max_iterations"`
}

type Config struct {
	RulesPath   string   `yaml:"rules_path"`
	HistoryPath string   `yaml:"history_path"`
	LockPath    string   `yaml:"lock_path"`
	Ignore      []string `yaml:"ignore"`
	Logging     Logging  `yaml:"logging"`
	Cluster     Cluster  `yaml:"cluster"`
}

func DefaultConfig() *Config {
	return &Config{
		RulesPath:   RulesPath(),
		HistoryPath: DataPath(),
		LockPath:    filepath.Join(filepath.Dir(DataPath()), "sortbox.lock"),
		Ignore: []string{
			".DS_Store",
			"desktop.ini",
			"Thumbs.db",
			"*.part",
			"*.crdownload",
			"*.download",
			"~$*",
		},
		Logging: Logging{Level: "info", Format: "console"},
		Cluster: Cluster{Dimensions: 256, MaxIterations: 50},
	}
}

// Load reads the YAML config at path over the defaults, so a file only
// needs the keys it changes. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.RulesPath = expandHome(cfg.RulesPath)
	cfg.HistoryPath = expandHome(cfg.HistoryPath)
	cfg.LockPath = expandHome(cfg.LockPath)
	return cfg, nil
}

func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sortbox", "config.yaml")
}

func RulesPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sortbox", "rules.yaml")
}

func DataPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "sortbox", "history.db")
}

func expandHome(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
