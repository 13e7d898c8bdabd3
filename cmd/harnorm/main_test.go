package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// setupEnv writes a config whose paths live under a temp dir and a KU-HAR
// root with one readable and one unmapped session.
func setupEnv(t *testing.T) (configPath, base string) {
	t.Helper()
	base = t.TempDir()
	t.Setenv("HOME", base)

	root := filepath.Join(base, "kuhar")
	writeKuHar(t, filepath.Join(root, "5.Lay", "1052_F_1.csv"), 650)
	writeKuHar(t, filepath.Join(root, "99.Fly", "1003_M_1.csv"), 400)

	configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`
[paths]
output_dir = %q
ledger_path = %q
log_dir = %q

[output]
format = "csv"
min_free_mib = 0

[sources.kuhar]
root = %q
`, filepath.Join(base, "out"), filepath.Join(base, "ledger.db"), filepath.Join(base, "logs"), root)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, base
}

func writeKuHar(t *testing.T, path string, n int) {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		ts := float64(i) * 0.01
		fmt.Fprintf(&b, "%.3f,%.4f,0.1,9.8,%.3f,0.01,0.02,%.4f\n", ts, math.Sin(float64(i)/5), ts+0.001, math.Cos(float64(i)/5))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadThenInspectRuns(t *testing.T) {
	configPath, base := setupEnv(t)

	stdout, stderr, err := runCLI(t, "--config", configPath, "read", "kuhar")
	if err != nil {
		t.Fatalf("read failed: %v\nstderr: %s", err, stderr)
	}
	for _, want := range []string{"Records:      600 (records.csv)", "1 read, 1 skipped", "Lay", "99.Fly/1003_M_1.csv"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("read output missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "session_skipped") {
		t.Fatalf("expected a skipped-session warning in logs:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(base, "out", "kuhar", "records.csv")); err != nil {
		t.Fatalf("records.csv missing: %v", err)
	}
	logData, err := os.ReadFile(filepath.Join(base, "logs", "harnorm.log"))
	if err != nil || !strings.Contains(string(logData), "run complete") {
		t.Fatalf("log file = %q, err %v", logData, err)
	}

	runID := regexp.MustCompile(`Run id:\s+(\S+)`).FindStringSubmatch(stdout)
	if len(runID) != 2 {
		t.Fatalf("run id not printed:\n%s", stdout)
	}

	list, _, err := runCLI(t, "--config", configPath, "runs", "list")
	if err != nil {
		t.Fatalf("runs list failed: %v", err)
	}
	if !strings.Contains(list, runID[1]) || !strings.Contains(list, "1/1") {
		t.Fatalf("runs list output:\n%s", list)
	}

	show, _, err := runCLI(t, "--config", configPath, "runs", "show", runID[1])
	if err != nil {
		t.Fatalf("runs show failed: %v", err)
	}
	for _, want := range []string{"Source:     kuhar", "5.Lay/1052_F_1.csv", "skipped"} {
		if !strings.Contains(show, want) {
			t.Fatalf("runs show missing %q:\n%s", want, show)
		}
	}

	if _, _, err := runCLI(t, "--config", configPath, "read", "kuhar"); err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Fatalf("second read err = %v, want non-empty output error", err)
	}
	if _, _, err := runCLI(t, "--config", configPath, "read", "kuhar", "--overwrite", "--no-ledger"); err != nil {
		t.Fatalf("overwrite read failed: %v", err)
	}
}

func TestReadRequiresRoot(t *testing.T) {
	configPath, _ := setupEnv(t)
	_, _, err := runCLI(t, "--config", configPath, "read", "uci")
	if err == nil || !strings.Contains(err.Error(), "dataset root for uci is not set") {
		t.Fatalf("err = %v", err)
	}
}

func TestReadRejectsUnknownSource(t *testing.T) {
	configPath, base := setupEnv(t)
	_, _, err := runCLI(t, "--config", configPath, "read", "pamap", "--root", base)
	if err == nil || !strings.Contains(err.Error(), "unknown source") {
		t.Fatalf("err = %v", err)
	}
}

func TestSourcesCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "sources")
	if err != nil {
		t.Fatalf("sources failed: %v", err)
	}
	for _, want := range []string{"kuhar", "motionsense", "uci", "wisdm", "realworld", "hiaac", "100 Hz", "session"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("sources output missing %q:\n%s", want, stdout)
		}
	}
}

func TestActivitiesCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "activities")
	if err != nil {
		t.Fatalf("activities failed: %v", err)
	}
	for _, want := range []string{"Walk Fast", "Fold Clothes", "Unknown", "39"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("activities output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, "activities", "--source", "kuhar")
	if err != nil {
		t.Fatalf("activities --source failed: %v", err)
	}
	if !strings.Contains(stdout, "Stair-up") || !strings.Contains(stdout, "Upstairs") {
		t.Fatalf("kuhar vocabulary output:\n%s", stdout)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	path := filepath.Join(base, "harnorm.toml")

	stdout, _, err := runCLI(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(stdout, "Wrote sample configuration") {
		t.Fatalf("config init output: %s", stdout)
	}
	if _, _, err := runCLI(t, "config", "init", "--path", path); err == nil {
		t.Fatal("expected error when config already exists")
	}

	stdout, _, err = runCLI(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(stdout, "# loaded from "+path) || !strings.Contains(stdout, "ledger_path") {
		t.Fatalf("config show output:\n%s", stdout)
	}
}
