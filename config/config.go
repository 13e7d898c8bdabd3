package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/lucasjlepore/har-normalizer/readers"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths holds output, ledger and log locations.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	LedgerPath string `toml:"ledger_path"`
	LogDir     string `toml:"log_dir"`
}

// Logging selects the log handler and level.
type Logging struct {
	Format string `toml:"format"` // console|json
	Level  string `toml:"level"`
}

// Output controls the records bundle.
type Output struct {
	Format         string `toml:"format"` // parquet|csv
	Overwrite      bool   `toml:"overwrite"`
	DropUnknown    bool   `toml:"drop_unknown"`
	RequireRecords bool   `toml:"require_records"`
	MinFreeMiB     int    `toml:"min_free_mib"`
}

// Quality configures per-window signal checks. RefFrequencyHz of zero uses
// each source's nominal rate.
type Quality struct {
	Enabled        bool    `toml:"enabled"`
	AccelAmplitude float64 `toml:"accel_amplitude"`
	GyroAmplitude  float64 `toml:"gyro_amplitude"`
	RefFrequencyHz float64 `toml:"ref_frequency_hz"`
}

// Source is one [sources.<name>] section.
type Source struct {
	Root       string   `toml:"root"`
	WindowSize int      `toml:"window_size"`
	Positions  []string `toml:"positions,omitempty"`
	Resample   *bool    `toml:"resample,omitempty"`
}

// Config is the full harnorm configuration.
type Config struct {
	Paths   Paths             `toml:"paths"`
	Logging Logging           `toml:"logging"`
	Output  Output            `toml:"output"`
	Quality Quality           `toml:"quality"`
	Sources map[string]Source `toml:"sources"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/harnorm/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. exists reports whether a file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("harnorm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Source returns the section for name, which may be zero.
func (c *Config) Source(name string) Source {
	return c.Sources[strings.ToLower(strings.TrimSpace(name))]
}

// ReaderOptions builds reader options for one source from the [quality] and
// [sources.<name>] sections.
func (c *Config) ReaderOptions(name string) readers.Options {
	src := c.Source(name)
	opts := readers.Options{
		WindowSize: src.WindowSize,
		Positions:  src.Positions,
		Resample:   src.Resample,
	}
	if c.Quality.Enabled {
		opts.Quality = &readers.QualityOptions{
			RefFrequencyHz: c.Quality.RefFrequencyHz,
			AccelAmplitude: c.Quality.AccelAmplitude,
			GyroAmplitude:  c.Quality.GyroAmplitude,
		}
	}
	return opts
}

// OutputDirFor returns the default output directory for one source.
func (c *Config) OutputDirFor(name string) string {
	return filepath.Join(c.Paths.OutputDir, strings.ToLower(strings.TrimSpace(name)))
}

// MinFreeBytes converts Output.MinFreeMiB to bytes.
func (c *Config) MinFreeBytes() uint64 {
	if c.Output.MinFreeMiB <= 0 {
		return 0
	}
	return uint64(c.Output.MinFreeMiB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for command-line flags.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
