package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/har-normalizer/config"
	"github.com/lucasjlepore/har-normalizer/ledger"
	"github.com/lucasjlepore/har-normalizer/logging"
)

type commandContext struct {
	configFlag *string
	logLevel   *string
	logFormat  *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, logLevel, logFormat *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
		logFormat:  logFormat,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// logger builds the command logger. Output goes to the command's stderr and,
// when a log directory is configured, to harnorm.log inside it. The returned
// function closes the log file.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
		level = *c.logLevel
	}
	format := cfg.Logging.Format
	if c.logFormat != nil && strings.TrimSpace(*c.logFormat) != "" {
		format = *c.logFormat
	}

	var w io.Writer = cmd.ErrOrStderr()
	closeFn := func() {}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		file, err := logging.OpenLogFile(dir)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(w, file)
		closeFn = func() { _ = file.Close() }
	}

	logger, err := logging.New(w, logging.Options{Level: level, Format: format})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, closeFn, nil
}

func (c *commandContext) withLedger(fn func(*ledger.Ledger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	l, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()
	return fn(l)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
