package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/lucasjlepore/har-normalizer/config"
	"github.com/lucasjlepore/har-normalizer/readers"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "harnorm", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if want := filepath.Join(tempHome, ".local", "share", "harnorm", "output"); cfg.Paths.OutputDir != want {
		t.Fatalf("output dir = %q, want %q", cfg.Paths.OutputDir, want)
	}
	if cfg.Output.Format != "parquet" || cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Output, cfg.Logging)
	}
	if cfg.Quality.Enabled {
		t.Fatal("expected quality filtering disabled by default")
	}
	if opts := cfg.ReaderOptions("kuhar"); opts.Quality != nil || opts.WindowSize != 0 {
		t.Fatalf("unexpected reader options: %+v", opts)
	}
	if cfg.MinFreeBytes() != 64<<20 {
		t.Fatalf("min free bytes = %d", cfg.MinFreeBytes())
	}
}

func TestLoadProjectFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	project := t.TempDir()
	t.Chdir(project)

	content := `
[paths]
output_dir = "~/har-out"

[logging]
format = "JSON"
level = "Debug"

[output]
format = "CSV"
drop_unknown = true

[quality]
enabled = true
accel_amplitude = 40.0

[sources.WISDM]
root = "~/data/wisdm"
resample = false

[sources.realworld]
root = "/data/rw"
positions = [" Thigh ", "", "waist"]
`
	if err := os.WriteFile(filepath.Join(project, "harnorm.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "harnorm.toml" {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "har-out") {
		t.Fatalf("output dir = %q", cfg.Paths.OutputDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" || cfg.Output.Format != "csv" || !cfg.Output.DropUnknown {
		t.Fatalf("normalization failed: %+v %+v", cfg.Logging, cfg.Output)
	}
	if cfg.OutputDirFor("WISDM") != filepath.Join(tempHome, "har-out", "wisdm") {
		t.Fatalf("OutputDirFor = %q", cfg.OutputDirFor("WISDM"))
	}

	wisdm := cfg.ReaderOptions("wisdm")
	if wisdm.Resample == nil || *wisdm.Resample {
		t.Fatalf("wisdm resample = %v", wisdm.Resample)
	}
	if wisdm.Quality == nil || wisdm.Quality.AccelAmplitude != 40 || wisdm.Quality.GyroAmplitude != 20 {
		t.Fatalf("wisdm quality = %+v", wisdm.Quality)
	}
	if cfg.Source("wisdm").Root != filepath.Join(tempHome, "data", "wisdm") {
		t.Fatalf("wisdm root = %q", cfg.Source("wisdm").Root)
	}
	rw := cfg.ReaderOptions("realworld")
	if strings.Join(rw.Positions, ",") != "thigh,waist" {
		t.Fatalf("positions = %v", rw.Positions)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"format", "[output]\nformat = \"xlsx\"\n", "output.format"},
		{"quality", "[quality]\nenabled = true\ngyro_amplitude = 0.0\n", "must be positive"},
		{"source", "[sources.pamap]\nroot = \"/x\"\n", "unknown source"},
		{"window", "[sources.kuhar]\nwindow_size = -3\n", "window_size"},
		{"unknown key", "[output]\nformatt = \"csv\"\n", "parse config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sources.pamap]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); !errors.Is(err, readers.ErrUnknownSource) {
		t.Fatalf("err = %v, want ErrUnknownSource", err)
	}
}

func TestLoadExplicitMissingPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != path || cfg.Output.Format != "parquet" {
		t.Fatalf("resolved=%q exists=%v format=%q", resolved, exists, cfg.Output.Format)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
	if !exists || len(cfg.Sources) != 6 {
		t.Fatalf("exists=%v sources=%d", exists, len(cfg.Sources))
	}
	if out, err := cfg.Marshal(); err != nil || !strings.Contains(string(out), "output_dir") {
		t.Fatalf("Marshal = %s, %v", out, err)
	}
}
