package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSources(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSources() error {
	out := make(map[string]Source, len(c.Sources))
	for name, src := range c.Sources {
		key := strings.ToLower(strings.TrimSpace(name))
		root, err := expandPath(strings.TrimSpace(src.Root))
		if err != nil {
			return fmt.Errorf("sources.%s.root: %w", key, err)
		}
		src.Root = root
		positions := src.Positions[:0:0]
		for _, p := range src.Positions {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				positions = append(positions, p)
			}
		}
		src.Positions = positions
		if len(src.Positions) == 0 {
			src.Positions = nil
		}
		out[key] = src
	}
	c.Sources = out
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
