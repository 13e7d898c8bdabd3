package pipeline

import (
	"log/slog"
	"time"

	"github.com/lucasjlepore/har-normalizer/ledger"
	"github.com/lucasjlepore/har-normalizer/readers"
)

// ManifestFormatVersion is bumped when the output bundle layout changes.
const ManifestFormatVersion = 1

// Output file names inside OutDir.
const (
	SessionsFile = "sessions.jsonl"
	ManifestFile = "manifest.json"
	SummaryFile  = "summary.md"
	lockFile     = ".harnorm.lock"
)

// Options configures one normalization run.
type Options struct {
	Source    string
	Root      string
	OutDir    string
	Format    string // parquet|csv
	Overwrite bool

	// DropUnknown removes records whose activity is the Unknown sentinel.
	DropUnknown bool
	// RequireRecords fails the run with ErrNoRecords when nothing was produced.
	RequireRecords bool
	// MinFreeBytes fails preflight when the output filesystem has less space.
	// Zero disables the check.
	MinFreeBytes uint64

	Reader readers.Options
	// Ledger, when set, receives the run and its session outcomes.
	Ledger *ledger.Ledger
	Logger *slog.Logger
}

// Result returns generated output paths and counts.
type Result struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source"`
	OutputDir    string `json:"output_dir"`
	RecordsPath  string `json:"records_path"`
	SessionsPath string `json:"sessions_path"`
	ManifestPath string `json:"manifest_path"`
	SummaryPath  string `json:"summary_path"`

	Records         int            `json:"records"`
	DroppedUnknown  int            `json:"dropped_unknown,omitempty"`
	Windows         int            `json:"windows"`
	SessionsOK      int            `json:"sessions_ok"`
	SessionsSkipped int            `json:"sessions_skipped"`
	Activities      map[string]int `json:"activities,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`

	// Skipped lists the outcomes of sessions that produced no records.
	Skipped []readers.SessionOutcome `json:"skipped,omitempty"`
}

// Manifest describes the output bundle.
type Manifest struct {
	FormatVersion   int            `json:"format_version"`
	RunID           string         `json:"run_id"`
	GeneratedAt     time.Time      `json:"generated_at"`
	Source          string         `json:"source"`
	Root            string         `json:"root"`
	Policy          PolicySummary  `json:"policy"`
	RecordsPath     string         `json:"records_path"`
	RecordsFormat   string         `json:"records_format"`
	RecordsSHA256   string         `json:"records_sha256"`
	RecordsBytes    int64          `json:"records_bytes"`
	Columns         []string       `json:"columns"`
	RecordCount     int            `json:"record_count"`
	DroppedUnknown  int            `json:"dropped_unknown,omitempty"`
	WindowCount     int            `json:"window_count"`
	SessionsOK      int            `json:"sessions_ok"`
	SessionsSkipped int            `json:"sessions_skipped"`
	ActivityCounts  map[string]int `json:"activity_counts"`
	SessionsPath    string         `json:"sessions_path"`
	Warnings        []string       `json:"warnings,omitempty"`
}

// PolicySummary is the reader policy the records were produced under.
type PolicySummary struct {
	Aligner    string  `json:"aligner"`
	Join       string  `json:"join"`
	WindowSize int     `json:"window_size"`
	RateHz     float64 `json:"rate_hz"`
	TimeUnit   string  `json:"time_unit"`
	Quality    bool    `json:"quality_filter"`
}
