package pipeline

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	harnorm "github.com/lucasjlepore/har-normalizer"
	"github.com/lucasjlepore/har-normalizer/ledger"
	"github.com/lucasjlepore/har-normalizer/readers"
)

// writeKuHar writes one KU-HAR session of n rows under root/dir.
func writeKuHar(t *testing.T, root, dir, name string, n int) {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		ts := float64(i) * 0.01
		fmt.Fprintf(&b, "%.3f,%.4f,%.4f,%.4f,%.3f,%.4f,%.4f,%.4f\n",
			ts, math.Sin(float64(i)/7), math.Cos(float64(i)/7), 9.8, ts+0.002, 0.1, -0.1, 0.05)
	}
	path := filepath.Join(root, dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func kuharRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeKuHar(t, root, "5.Lay", "1052_F_1.csv", 650)
	writeKuHar(t, root, "11.Walk", "1001_M_1.csv", 320)
	writeKuHar(t, root, "99.Fly", "1003_M_1.csv", 400)
	return root
}

func TestRunWritesCSVBundle(t *testing.T) {
	root := kuharRoot(t)
	outDir := filepath.Join(t.TempDir(), "out")
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	defer l.Close()

	res, err := Run(Options{Source: "kuhar", Root: root, OutDir: outDir, Format: "csv", Ledger: l})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Records != 900 || res.Windows != 3 || res.SessionsOK != 2 || res.SessionsSkipped != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	f, err := os.Open(res.RecordsPath)
	if err != nil {
		t.Fatalf("open records: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read records csv: %v", err)
	}
	if len(rows) != 901 {
		t.Fatalf("rows = %d, want header + 900", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(harnorm.RecordColumns, ",") {
		t.Fatalf("header = %v", rows[0])
	}
	// Discovery is lexicographic: 11.Walk before 5.Lay.
	if rows[1][6] != "2" || rows[1][7] != "1001" || rows[1][8] != "waist" || rows[1][9] != "0" {
		t.Fatalf("first row = %v", rows[1])
	}
	if rows[900][6] != "6" || rows[900][9] != "1" {
		t.Fatalf("last row = %v", rows[900])
	}

	var manifest Manifest
	data, err := os.ReadFile(res.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	sha, size, err := fileSHA256(res.RecordsPath)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if manifest.RecordsSHA256 != sha || manifest.RecordsBytes != size {
		t.Fatalf("manifest hash = %s/%d, want %s/%d", manifest.RecordsSHA256, manifest.RecordsBytes, sha, size)
	}
	if manifest.RunID != res.RunID || manifest.Policy.Join != "session" || manifest.Policy.WindowSize != 300 {
		t.Fatalf("manifest = %+v", manifest)
	}
	if manifest.ActivityCounts["walk"] != 300 || manifest.ActivityCounts["lay"] != 600 {
		t.Fatalf("activity counts = %v", manifest.ActivityCounts)
	}

	sessions := readJSONL(t, res.SessionsPath)
	if len(sessions) != 3 {
		t.Fatalf("sessions.jsonl lines = %d, want 3", len(sessions))
	}

	summary, err := os.ReadFile(res.SummaryPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	for _, want := range []string{"# kuhar normalization", "| 6 | lay | 600 |", "## Skipped sessions", "99.Fly/1003_M_1.csv"} {
		if !strings.Contains(string(summary), want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}

	run, err := l.GetRun(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Records != 900 || len(run.Sessions) != 3 || run.RecordsSHA256 != sha {
		t.Fatalf("ledger run = %+v", run)
	}
	if _, err := os.Stat(filepath.Join(outDir, lockFile)); !os.IsNotExist(err) {
		t.Fatalf("lock file left behind: %v", err)
	}
}

func readJSONL(t *testing.T, path string) []readers.SessionOutcome {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out []readers.SessionOutcome
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var s readers.SessionOutcome
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestRunWritesParquet(t *testing.T) {
	root := kuharRoot(t)
	outDir := filepath.Join(t.TempDir(), "out")

	res, err := Run(Options{Source: "kuhar", Root: root, OutDir: outDir})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if filepath.Base(res.RecordsPath) != "records.parquet" {
		t.Fatalf("records path = %s", res.RecordsPath)
	}

	fr, err := local.NewLocalFileReader(res.RecordsPath)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(recordParquetRow), 4)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	if n != 900 {
		t.Fatalf("parquet rows = %d, want 900", n)
	}
	rows := make([]recordParquetRow, n)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if rows[0].User != "1001" || rows[0].Activity != int32(harnorm.Walk) || rows[0].Position != "waist" {
		t.Fatalf("first row = %+v", rows[0])
	}
	if rows[299].Trial != 0 || rows[300].Activity != int32(harnorm.Lay) || rows[899].Trial != 1 {
		t.Fatalf("trial layout wrong: %+v %+v %+v", rows[299], rows[300], rows[899])
	}
	if rows[0].AccelTimestamp != 0 || rows[0].GyroTimestamp != 0 {
		t.Fatalf("timestamps not rebased: %+v", rows[0])
	}
}

func TestRunRequireRecords(t *testing.T) {
	root := t.TempDir()
	writeKuHar(t, root, "99.Fly", "1003_M_1.csv", 400)
	outDir := filepath.Join(t.TempDir(), "out")

	res, err := Run(Options{Source: "kuhar", Root: root, OutDir: outDir, Format: "csv", RequireRecords: true})
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("err = %v, want ErrNoRecords", err)
	}
	if res == nil || res.SessionsSkipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	if got := readJSONL(t, res.SessionsPath); len(got) != 1 || got[0].Status != readers.StatusSkipped {
		t.Fatalf("sessions = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(outDir, "records.csv")); !os.IsNotExist(err) {
		t.Fatalf("records written despite error: %v", err)
	}
}

func TestRunEmptyResultWithoutRequireRecords(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	res, err := Run(Options{Source: "uci", Root: t.TempDir(), OutDir: outDir, Format: "csv"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Records != 0 || len(res.Warnings) == 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunRefusesNonEmptyOutput(t *testing.T) {
	root := kuharRoot(t)
	outDir := filepath.Join(t.TempDir(), "out")
	if _, err := Run(Options{Source: "kuhar", Root: root, OutDir: outDir, Format: "csv"}); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	_, err := Run(Options{Source: "kuhar", Root: root, OutDir: outDir, Format: "csv"})
	if err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Fatalf("err = %v, want non-empty output error", err)
	}
	if _, err := Run(Options{Source: "kuhar", Root: root, OutDir: outDir, Format: "csv", Overwrite: true}); err != nil {
		t.Fatalf("overwrite Run() error: %v", err)
	}
}

func TestRunLockedOutput(t *testing.T) {
	outDir := t.TempDir()
	held := flock.New(filepath.Join(outDir, lockFile))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer held.Unlock()

	_, err = Run(Options{Source: "kuhar", Root: kuharRoot(t), OutDir: outDir, Format: "csv"})
	if !errors.Is(err, ErrOutputLocked) {
		t.Fatalf("err = %v, want ErrOutputLocked", err)
	}
}

func TestRunInsufficientSpace(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
	default:
		t.Skipf("free-space preflight not supported on %s", runtime.GOOS)
	}
	_, err := Run(Options{
		Source:       "kuhar",
		Root:         kuharRoot(t),
		OutDir:       t.TempDir(),
		Format:       "csv",
		MinFreeBytes: math.MaxUint64,
	})
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("err = %v, want ErrInsufficientSpace", err)
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"missing root", Options{Source: "kuhar", OutDir: "x"}, "root is required"},
		{"missing out", Options{Source: "kuhar", Root: "x"}, "output directory is required"},
		{"bad format", Options{Source: "kuhar", Root: "x", OutDir: "y", Format: "xlsx"}, "unsupported format"},
		{"unknown source", Options{Source: "nope", Root: "x", OutDir: "y"}, "unknown source"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(tc.opts)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestDropUnknown(t *testing.T) {
	records := []harnorm.NormalizedRecord{
		{Activity: harnorm.Walk},
		{Activity: harnorm.Unknown},
		{Activity: harnorm.Sit},
		{Activity: harnorm.Unknown},
	}
	kept, dropped := dropUnknown(records)
	if dropped != 2 || len(kept) != 2 || kept[0].Activity != harnorm.Walk || kept[1].Activity != harnorm.Sit {
		t.Fatalf("kept=%+v dropped=%d", kept, dropped)
	}
	if records[1].Activity != harnorm.Unknown {
		t.Fatal("input slice modified")
	}
}

func TestComputeAxisStats(t *testing.T) {
	records := []harnorm.NormalizedRecord{
		{AccelX: 1, GyroZ: 2},
		{AccelX: 3, GyroZ: 2},
	}
	stats := ComputeAxisStats(records)
	if len(stats) != 6 || stats[0].Column != "accel-x" || stats[5].Column != "gyro-z" {
		t.Fatalf("stats = %+v", stats)
	}
	if stats[0].Mean != 2 || math.Abs(stats[0].StdDev-math.Sqrt2) > 1e-12 {
		t.Fatalf("accel-x = %+v", stats[0])
	}
	if stats[5].Mean != 2 || stats[5].StdDev != 0 {
		t.Fatalf("gyro-z = %+v", stats[5])
	}
	if empty := ComputeAxisStats(nil); !math.IsNaN(empty[0].Mean) {
		t.Fatalf("empty mean = %v", empty[0].Mean)
	}
}
