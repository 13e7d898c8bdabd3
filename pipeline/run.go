package pipeline

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	harnorm "github.com/lucasjlepore/har-normalizer"
	"github.com/lucasjlepore/har-normalizer/ledger"
	"github.com/lucasjlepore/har-normalizer/logging"
	"github.com/lucasjlepore/har-normalizer/readers"
)

var (
	// ErrNoRecords is returned when RequireRecords is set and the run produced nothing.
	ErrNoRecords = errors.New("no records produced")
	// ErrOutputLocked is returned when another run holds the output directory.
	ErrOutputLocked = errors.New("output directory is locked by another run")
	// ErrInsufficientSpace is returned when the output filesystem is below MinFreeBytes.
	ErrInsufficientSpace = errors.New("insufficient free space")
)

// Run executes one normalization run and writes the output bundle.
func Run(opts Options) (*Result, error) {
	return RunContext(context.Background(), opts)
}

// RunContext is Run with a context for cancellation between stages and for
// the ledger write.
func RunContext(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, fmt.Errorf("dataset root is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")

	readerOpts := opts.Reader
	if readerOpts.Logger == nil {
		readerOpts.Logger = opts.Logger
	}
	rd, err := readers.New(opts.Source, readerOpts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(opts.OutDir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, opts.OutDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", logging.Error(err))
		}
		_ = os.Remove(lock.Path())
	}()

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}
	if err := checkOutputDir(opts.OutDir, opts.MinFreeBytes); err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	runID := uuid.NewString()
	logger.Info("run started",
		logging.String("run_id", runID),
		logging.String(logging.FieldSource, rd.Source()),
		logging.String("root", opts.Root),
		logging.String("format", format),
	)

	read, err := rd.Read(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rd.Source(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := read.Records
	dropped := 0
	if opts.DropUnknown {
		records, dropped = dropUnknown(records)
	}
	sessionsOK, sessionsSkipped := read.Counts()

	res := &Result{
		RunID:           runID,
		Source:          rd.Source(),
		OutputDir:       opts.OutDir,
		SessionsPath:    filepath.Join(opts.OutDir, SessionsFile),
		Records:         len(records),
		DroppedUnknown:  dropped,
		Windows:         read.Windows(),
		SessionsOK:      sessionsOK,
		SessionsSkipped: sessionsSkipped,
		Activities:      activityCounts(records),
		Warnings:        read.Warnings,
	}
	for _, s := range read.Sessions {
		if s.Status == readers.StatusSkipped {
			res.Skipped = append(res.Skipped, s)
		}
	}

	if err := writeJSONL(res.SessionsPath, read.Sessions); err != nil {
		return nil, fmt.Errorf("write %s: %w", SessionsFile, err)
	}
	if opts.RequireRecords && len(records) == 0 {
		return res, fmt.Errorf("%w: %d sessions read, %d skipped (see %s)", ErrNoRecords, sessionsOK, sessionsSkipped, res.SessionsPath)
	}

	res.RecordsPath = filepath.Join(opts.OutDir, "records."+format)
	switch format {
	case "csv":
		err = writeRecordsCSV(res.RecordsPath, records)
	case "parquet":
		err = writeRecordsParquet(res.RecordsPath, records)
	}
	if err != nil {
		return nil, fmt.Errorf("write records %s: %w", format, err)
	}
	sha, size, err := fileSHA256(res.RecordsPath)
	if err != nil {
		return nil, fmt.Errorf("hash records: %w", err)
	}

	policy := rd.Policy()
	manifest := Manifest{
		FormatVersion: ManifestFormatVersion,
		RunID:         runID,
		GeneratedAt:   time.Now().UTC(),
		Source:        rd.Source(),
		Root:          opts.Root,
		Policy: PolicySummary{
			Aligner:    policy.Aligner.Strategy(),
			Join:       policy.Join.String(),
			WindowSize: policy.WindowSize,
			RateHz:     policy.RateHz,
			TimeUnit:   policy.Unit.String(),
			Quality:    opts.Reader.Quality != nil,
		},
		RecordsPath:     filepath.Base(res.RecordsPath),
		RecordsFormat:   format,
		RecordsSHA256:   sha,
		RecordsBytes:    size,
		Columns:         harnorm.RecordColumns,
		RecordCount:     len(records),
		DroppedUnknown:  dropped,
		WindowCount:     res.Windows,
		SessionsOK:      sessionsOK,
		SessionsSkipped: sessionsSkipped,
		ActivityCounts:  res.Activities,
		SessionsPath:    SessionsFile,
		Warnings:        read.Warnings,
	}
	res.ManifestPath = filepath.Join(opts.OutDir, ManifestFile)
	if err := writeJSON(res.ManifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write %s: %w", ManifestFile, err)
	}

	res.SummaryPath = filepath.Join(opts.OutDir, SummaryFile)
	summary := BuildSummary(manifest, records, read.Sessions)
	if err := os.WriteFile(res.SummaryPath, []byte(summary), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", SummaryFile, err)
	}

	if opts.Ledger != nil {
		run := ledger.Run{
			ID:              runID,
			Source:          rd.Source(),
			Root:            opts.Root,
			OutputDir:       opts.OutDir,
			Format:          format,
			StartedAt:       started,
			FinishedAt:      time.Now().UTC(),
			Records:         len(records),
			Windows:         res.Windows,
			SessionsOK:      sessionsOK,
			SessionsSkipped: sessionsSkipped,
			RecordsSHA256:   sha,
		}
		if err := opts.Ledger.RecordRun(ctx, run, read.Sessions); err != nil {
			return nil, fmt.Errorf("record run in ledger: %w", err)
		}
	}

	logger.Info("run complete",
		logging.String("run_id", runID),
		logging.Int("records", len(records)),
		logging.Int("windows", res.Windows),
		logging.Int("sessions_ok", sessionsOK),
		logging.Int("sessions_skipped", sessionsSkipped),
		logging.String("output_dir", opts.OutDir),
	)
	return res, nil
}

func dropUnknown(records []harnorm.NormalizedRecord) ([]harnorm.NormalizedRecord, int) {
	out := records[:0:0]
	for _, rec := range records {
		if rec.Activity == harnorm.Unknown {
			continue
		}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}

func activityCounts(records []harnorm.NormalizedRecord) map[string]int {
	out := map[string]int{}
	for _, rec := range records {
		out[rec.Activity.String()]++
	}
	return out
}

// ensureOutputDir refuses a non-empty directory unless overwrite is set. The
// run's own lock file does not count.
func ensureOutputDir(path string, overwrite bool) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	for _, e := range entries {
		if e.Name() == lockFile {
			continue
		}
		if !overwrite {
			return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
		}
		break
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONL(path string, sessions []readers.SessionOutcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriterSize(f, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, s := range sessions {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return buf.Flush()
}

func writeRecordsCSV(path string, records []harnorm.NormalizedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriterSize(f, 1<<20)
	w := csv.NewWriter(buf)
	if err := w.Write(harnorm.RecordColumns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			formatFloat(r.AccelX),
			formatFloat(r.AccelY),
			formatFloat(r.AccelZ),
			formatFloat(r.GyroX),
			formatFloat(r.GyroY),
			formatFloat(r.GyroZ),
			strconv.Itoa(int(r.Activity)),
			r.User,
			r.Position,
			strconv.Itoa(r.Trial),
			formatFloat(r.AccelTimestamp),
			formatFloat(r.GyroTimestamp),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

func fileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
