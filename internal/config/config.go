// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the gait-analyzer configuration.
type Config struct {
	Listen    string        `yaml:"listen"`     // HTTP listen address
	DataDir   string        `yaml:"data_dir"`   // uploads, assets and database live here
	Manifest  string        `yaml:"manifest"`   // path to the asset requirements manifest
	LogLevel  string        `yaml:"log_level"`  //
	Estimator EstimatorSpec `yaml:"estimator"`  //
	FFprobe   string        `yaml:"ffprobe"`    // ffprobe binary
	Uploads   UploadLimits  `yaml:"uploads"`    //
	Debug     bool          `yaml:"debug"`      //
}

// Duration is a time.Duration that unmarshals from "10m"-style YAML strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// EstimatorSpec configures the external pose estimator command.
type EstimatorSpec struct {
	Command string   `yaml:"command"` // binary or script to run
	Args    []string `yaml:"args"`    // extra arguments before the video path
	Timeout Duration `yaml:"timeout"` //
}

// UploadLimits bounds the upload endpoint.
type UploadLimits struct {
	MaxBytes  int64 `yaml:"max_bytes"`
	PerMinute int   `yaml:"per_minute"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	dataDir := os.Getenv("GAIT_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dataDir = filepath.Join(os.TempDir(), "gait-analyzer")
		} else {
			dataDir = filepath.Join(home, ".gait-analyzer")
		}
	}
	return &Config{
		Listen:   ":8050",
		DataDir:  dataDir,
		Manifest: "requirements.txt",
		LogLevel: "info",
		Estimator: EstimatorSpec{
			Command: "gait-estimator",
			Timeout: Duration(10 * time.Minute),
		},
		FFprobe: "ffprobe",
		Uploads: UploadLimits{
			MaxBytes:  512 << 20,
			PerMinute: 10,
		},
	}
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".config", "gait-analyzer", "config.yaml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save writes the configuration to the given path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GAIT_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("GAIT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("GAIT_MANIFEST"); v != "" {
		cfg.Manifest = v
	}
	if v := os.Getenv("GAIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GAIT_ESTIMATOR"); v != "" {
		cfg.Estimator.Command = v
	}
	if v := os.Getenv("GAIT_FFPROBE"); v != "" {
		cfg.FFprobe = v
	}
}

// UploadDir returns the directory uploads are stored in.
func (c *Config) UploadDir() string { return filepath.Join(c.DataDir, "uploads") }

// AssetDir returns the directory installed assets live in.
func (c *Config) AssetDir() string { return filepath.Join(c.DataDir, "assets") }

// CacheDir returns the download cache directory.
func (c *Config) CacheDir() string { return filepath.Join(c.DataDir, "cache") }

// DBPath returns the sqlite database path.
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, "gait.db") }
