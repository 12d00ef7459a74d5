package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds file-backed defaults. Command line flags override any of
// these; everything has a usable zero/default value so the file is optional.
type Config struct {
	// Requester is who reviews are requested from: a user login or
	// "org/team". Empty means the authenticated user.
	Requester string   `yaml:"requester"`
	Org       string   `yaml:"org"`
	Labels    []string `yaml:"labels"`

	Log Log `yaml:"log"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Default() Config {
	return Config{
		Log: Log{Level: "info"},
	}
}

// Path resolves the config file location: the explicit flag value wins, then
// $REVQ_CONFIG_HOME, then the OS user config dir.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if home := os.Getenv("REVQ_CONFIG_HOME"); home != "" {
		return filepath.Join(home, "config.yml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "revq", "config.yml")
}

// Load reads the config file at path. A missing file is not an error; the
// defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}
