package readers

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
	"github.com/lucasjlepore/har-normalizer/logging"
)

var (
	// ErrUnknownSource is returned by New for a source name that is not registered.
	ErrUnknownSource = errors.New("unknown source")
	// ErrLabelGap is returned when an ordinal label file has missing or repeated trial indices.
	ErrLabelGap = errors.New("label trials are not gapless from zero")
	// ErrMissingValues marks sessions whose sensor files contain NaN or empty fields.
	ErrMissingValues = errors.New("sensor file contains missing values")
	// ErrMissingFile marks sessions whose companion sensor or label file does not exist.
	ErrMissingFile = errors.New("missing companion file")
)

// Reader reads one dataset root into normalized records.
type Reader interface {
	Source() string
	Policy() Policy
	// Read returns an error only for caller mistakes. A missing root or an
	// empty tree yields an empty Result with Warnings set.
	Read(root string) (*Result, error)
}

// QualityOptions enables per-window quality filtering.
type QualityOptions struct {
	// RefFrequencyHz defaults to the source's nominal rate when zero.
	RefFrequencyHz float64
	AccelAmplitude float64
	GyroAmplitude  float64
}

// DefaultQuality returns the thresholds used when quality filtering is
// enabled without explicit amplitudes.
func DefaultQuality() QualityOptions {
	return QualityOptions{AccelAmplitude: 50, GyroAmplitude: 20}
}

// Options adjusts a source's default policy.
type Options struct {
	// WindowSize overrides the source's window length in samples. Sources
	// whose label rows are defined per fixed window reject it.
	WindowSize int
	Quality    *QualityOptions
	// Positions filters RealWorld sessions by sensor placement.
	Positions []string
	// Resample selects cubic resampling for WISDM. Nil keeps the default (true).
	Resample *bool
	Logger   *slog.Logger
}

// Status is the outcome of one session.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
)

// SessionOutcome reports what happened to one session.
type SessionOutcome struct {
	Session        string   `json:"session"`
	User           string   `json:"user,omitempty"`
	Position       string   `json:"position,omitempty"`
	Status         Status   `json:"status"`
	Reason         string   `json:"reason,omitempty"`
	Windows        int      `json:"windows"`
	Samples        int      `json:"samples"`
	QualityDropped int      `json:"quality_dropped,omitempty"`
	LabelsDropped  int      `json:"labels_dropped,omitempty"`
	Files          []string `json:"files,omitempty"`

	Err error `json:"-"`
}

// Result is everything one Read produced.
type Result struct {
	Source   string                     `json:"source"`
	Root     string                     `json:"root"`
	Records  []harnorm.NormalizedRecord `json:"-"`
	Sessions []SessionOutcome           `json:"sessions"`
	Warnings []string                   `json:"warnings,omitempty"`
}

// Counts returns the number of read and skipped sessions.
func (r *Result) Counts() (ok, skipped int) {
	for _, s := range r.Sessions {
		if s.Status == StatusOK {
			ok++
		} else {
			skipped++
		}
	}
	return ok, skipped
}

// Windows returns the number of windows emitted across sessions.
func (r *Result) Windows() int {
	n := 0
	for _, s := range r.Sessions {
		n += s.Windows
	}
	return n
}

// SourceInfo describes a registered source.
type SourceInfo struct {
	Name        string
	Description string
	RateHz      float64
	WindowSize  int
	Join        harnorm.Join
	Aligner     string
	Position    string
}

// source is the per-dataset part of a reader: its default policy and how to
// find sessions under a root.
type source struct {
	name        string
	description string
	position    string
	policy      func(Options) Policy
	discover    func(root string, opts Options) ([]session, []string)
}

var registry = map[string]source{}

func register(s source) {
	if _, dup := registry[s.name]; dup {
		panic("readers: duplicate source " + s.name)
	}
	registry[s.name] = s
}

// Sources lists the registered sources in name order.
func Sources() []SourceInfo {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]SourceInfo, 0, len(names))
	for _, name := range names {
		src := registry[name]
		p := src.policy(Options{})
		out = append(out, SourceInfo{
			Name:        name,
			Description: src.description,
			RateHz:      p.RateHz,
			WindowSize:  p.WindowSize,
			Join:        p.Join,
			Aligner:     p.Aligner.Strategy(),
			Position:    src.position,
		})
	}
	return out
}

// New returns the reader registered under name.
func New(name string, opts Options) (Reader, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	src, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSource, name)
	}
	if err := validateOptions(src, opts); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	policy := src.policy(opts)
	if opts.WindowSize > 0 {
		policy.WindowSize = opts.WindowSize
	}
	return &reader{
		src:    src,
		policy: policy,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, key),
	}, nil
}

func validateOptions(src source, opts Options) error {
	def := src.policy(Options{})
	if opts.WindowSize < 0 {
		return fmt.Errorf("window size must not be negative, got %d", opts.WindowSize)
	}
	if opts.WindowSize > 0 && def.Join == harnorm.JoinOrdinal && opts.WindowSize != def.WindowSize {
		return fmt.Errorf("window size is fixed at %d because labels are defined per window", def.WindowSize)
	}
	if q := opts.Quality; q != nil {
		if q.RefFrequencyHz < 0 || q.AccelAmplitude <= 0 || q.GyroAmplitude <= 0 {
			return fmt.Errorf("quality thresholds must be positive (ref=%v accel=%v gyro=%v)", q.RefFrequencyHz, q.AccelAmplitude, q.GyroAmplitude)
		}
	}
	if len(opts.Positions) > 0 && src.name != "realworld" {
		return fmt.Errorf("positions filter is only supported by realworld")
	}
	if opts.Resample != nil && src.name != "wisdm" {
		return fmt.Errorf("resample toggle is only supported by wisdm")
	}
	return nil
}
