package readers

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	harnorm "github.com/lucasjlepore/har-normalizer"
	"github.com/lucasjlepore/har-normalizer/logging"
)

// Policy is the source-specific configuration of the shared engine.
type Policy struct {
	Aligner    harnorm.Aligner
	Join       harnorm.Join
	WindowSize int
	Vocabulary harnorm.Vocabulary
	RateHz     float64
	Unit       harnorm.TimeUnit
}

// session is one discovered recording. load parses its files lazily so a
// broken session costs nothing until it is reached.
type session struct {
	id       string
	user     string
	position string
	files    []string
	load     func() (parsed, error)
}

type parsed struct {
	accel  []harnorm.RawSample
	gyro   []harnorm.RawSample
	labels harnorm.LabelTable
	// droppedLabels counts label rows removed for covering missing values.
	droppedLabels int
}

// failedSession is discovered but known to be unreadable.
func failedSession(id, user, position string, files []string, err error) session {
	return session{
		id:       id,
		user:     user,
		position: position,
		files:    files,
		load:     func() (parsed, error) { return parsed{}, err },
	}
}

type reader struct {
	src    source
	policy Policy
	opts   Options
	logger *slog.Logger
}

func (r *reader) Source() string { return r.src.name }

func (r *reader) Policy() Policy { return r.policy }

func (r *reader) Read(root string) (*Result, error) {
	if root == "" {
		return nil, errors.New("dataset root is required")
	}
	res := &Result{Source: r.src.name, Root: root}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		msg := fmt.Sprintf("dataset root %s is not a readable directory", root)
		if err != nil {
			msg = fmt.Sprintf("dataset root: %v", err)
		}
		res.Warnings = append(res.Warnings, msg)
		logging.WarnWithContext(r.logger, "dataset root unavailable", "root_missing",
			logging.String("root", root),
			logging.String(logging.FieldErrorHint, "check the --root flag or the source root in the config file"),
			logging.String(logging.FieldImpact, "no records produced"),
		)
		return res, nil
	}

	sessions, warnings := r.src.discover(root, r.opts)
	res.Warnings = append(res.Warnings, warnings...)
	if len(sessions) == 0 {
		res.Warnings = append(res.Warnings, "no sessions discovered under "+root)
		logging.WarnWithContext(r.logger, "no sessions discovered", "no_sessions",
			logging.String("root", root),
			logging.String(logging.FieldErrorHint, "check that the root follows the "+r.src.name+" layout"),
			logging.String(logging.FieldImpact, "no records produced"),
		)
		return res, nil
	}

	for _, s := range sessions {
		records, outcome := r.readSession(s)
		res.Records = append(res.Records, records...)
		res.Sessions = append(res.Sessions, outcome)
	}

	ok, skipped := res.Counts()
	r.logger.Info("source read",
		logging.String("root", root),
		logging.Int("sessions", len(res.Sessions)),
		logging.Int("ok", ok),
		logging.Int("skipped", skipped),
		logging.Int("windows", res.Windows()),
		logging.Int("records", len(res.Records)),
	)
	return res, nil
}

func (r *reader) readSession(s session) ([]harnorm.NormalizedRecord, SessionOutcome) {
	outcome := SessionOutcome{
		Session:  s.id,
		User:     s.user,
		Position: s.position,
		Status:   StatusOK,
		Files:    s.files,
	}
	skip := func(stage string, err error) ([]harnorm.NormalizedRecord, SessionOutcome) {
		outcome.Status = StatusSkipped
		outcome.Err = fmt.Errorf("%s: %w", stage, err)
		outcome.Reason = outcome.Err.Error()
		logging.WarnWithContext(r.logger, "session skipped", "session_skipped",
			logging.String(logging.FieldSession, s.id),
			logging.String("stage", stage),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return nil, outcome
	}

	p, err := s.load()
	if err != nil {
		return skip("parse", err)
	}
	if p.droppedLabels > 0 {
		outcome.LabelsDropped = p.droppedLabels
		logging.WarnWithContext(r.logger, "label ranges dropped", "labels_dropped",
			logging.String(logging.FieldSession, s.id),
			logging.Int("dropped", p.droppedLabels),
			logging.String(logging.FieldErrorHint, "the sensor files have empty or NaN fields inside these ranges"),
			logging.String(logging.FieldImpact, "samples in the dropped ranges are not emitted"),
		)
	}
	rows, err := r.policy.Vocabulary.ResolveTable(p.labels)
	if err != nil {
		return skip("label", err)
	}
	aligned, err := r.policy.Aligner.Align(
		harnorm.Stream{Samples: p.accel, Unit: r.policy.Unit, RateHz: r.policy.RateHz},
		harnorm.Stream{Samples: p.gyro, Unit: r.policy.Unit, RateHz: r.policy.RateHz},
	)
	if err != nil {
		return skip("align", err)
	}
	windows, err := harnorm.Segment(aligned, rows, r.policy.WindowSize, r.policy.Join)
	if err != nil {
		return skip("window", err)
	}
	if q := r.opts.Quality; q != nil {
		windows, outcome.QualityDropped = r.filterQuality(windows, aligned, *q)
	}

	records := harnorm.Records(windows, s.user, s.position)
	outcome.Windows = len(windows)
	outcome.Samples = len(records)
	r.logger.Debug("session read",
		logging.String(logging.FieldSession, s.id),
		logging.Int("windows", outcome.Windows),
		logging.Int("quality_dropped", outcome.QualityDropped),
	)
	return records, outcome
}

func (r *reader) filterQuality(windows []harnorm.Window, aligned harnorm.AlignedStream, q QualityOptions) ([]harnorm.Window, int) {
	th := harnorm.QualityThresholds{
		RefFrequencyHz: q.RefFrequencyHz,
		AccelAmplitude: q.AccelAmplitude,
		GyroAmplitude:  q.GyroAmplitude,
	}
	if th.RefFrequencyHz == 0 {
		th.RefFrequencyHz = aligned.RateHz
	}
	kept := windows[:0]
	dropped := 0
	for _, w := range windows {
		verdict := harnorm.WindowQuality(w, aligned.Unit, aligned.RateHz, th)
		if !verdict.OK {
			dropped++
			r.logger.Debug("window dropped by quality check",
				logging.Int("trial", w.Trial),
				logging.String("reason", verdict.String()),
			)
			continue
		}
		kept = append(kept, w)
	}
	return kept, dropped
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, harnorm.ErrUnmappedLabel):
		return "add the label token to the source vocabulary or fix the label file"
	case errors.Is(err, harnorm.ErrLengthMismatch):
		return "sensor files disagree in length; re-export the recording"
	case errors.Is(err, harnorm.ErrEmptyStream):
		return "one sensor recorded no samples for this session"
	case errors.Is(err, ErrMissingFile):
		return "restore the missing companion file"
	case errors.Is(err, ErrMissingValues):
		return "the recording has gaps; it is excluded rather than imputed"
	case errors.Is(err, ErrLabelGap):
		return "label file must list trials 0..n-1 without gaps"
	default:
		return "check the session files"
	}
}
