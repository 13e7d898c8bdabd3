package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lucasjlepore/har-normalizer/readers"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	return c.validateSources()
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "parquet", "csv":
	default:
		return fmt.Errorf("output.format must be parquet or csv, got %q", c.Output.Format)
	}
	if c.Output.MinFreeMiB < 0 {
		return errors.New("output.min_free_mib must be non-negative")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateQuality() error {
	if !c.Quality.Enabled {
		return nil
	}
	if c.Quality.AccelAmplitude <= 0 || c.Quality.GyroAmplitude <= 0 {
		return errors.New("quality.accel_amplitude and quality.gyro_amplitude must be positive")
	}
	if c.Quality.RefFrequencyHz < 0 {
		return errors.New("quality.ref_frequency_hz must be non-negative")
	}
	return nil
}

func (c *Config) validateSources() error {
	known := map[string]bool{}
	for _, info := range readers.Sources() {
		known[info.Name] = true
	}
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !known[name] {
			return fmt.Errorf("sources.%s: %w", name, readers.ErrUnknownSource)
		}
		if c.Sources[name].WindowSize < 0 {
			return fmt.Errorf("sources.%s.window_size must be non-negative", name)
		}
	}
	return nil
}
