package harnorm

import "errors"

var (
	// ErrEmptyStream is returned when either sensor stream of a session has no samples.
	ErrEmptyStream = errors.New("empty sensor stream")
	// ErrLengthMismatch is returned when a truncation aligner refuses a pair whose
	// sample counts differ by at least its tolerance.
	ErrLengthMismatch = errors.New("accelerometer/gyroscope sample counts differ beyond tolerance")
	// ErrUnmappedLabel is returned when a raw label token has no entry in a vocabulary.
	ErrUnmappedLabel = errors.New("unmapped label")
	// ErrOverlappingRanges is returned by the range join when two label ranges share samples.
	ErrOverlappingRanges = errors.New("overlapping label ranges")
	// ErrTooFewSamples is returned when a stream is too short to fit a cubic interpolant.
	ErrTooFewSamples = errors.New("too few samples to interpolate")
)

// TimeUnit identifies the unit of a raw timestamp column.
type TimeUnit int

const (
	// SampleIndex means the source carries no clock; timestamps are row numbers.
	SampleIndex TimeUnit = iota
	Seconds
	Millis
	Nanos
)

func (u TimeUnit) String() string {
	switch u {
	case Seconds:
		return "s"
	case Millis:
		return "ms"
	case Nanos:
		return "ns"
	default:
		return "index"
	}
}

// SecondsPerUnit returns the number of seconds in one tick of u. Sample-index
// clocks are converted through the nominal sampling rate.
func (u TimeUnit) SecondsPerUnit(nominalRateHz float64) float64 {
	switch u {
	case Seconds:
		return 1
	case Millis:
		return 1e-3
	case Nanos:
		return 1e-9
	default:
		if nominalRateHz <= 0 {
			return 1
		}
		return 1 / nominalRateHz
	}
}

// ToMillis converts a timestamp expressed in u into milliseconds.
func (u TimeUnit) ToMillis(v, nominalRateHz float64) float64 {
	return v * u.SecondsPerUnit(nominalRateHz) * 1000
}

// RawSample is one parsed triaxial reading.
type RawSample struct {
	Timestamp float64
	X, Y, Z   float64
}

// Stream is one sensor's samples in file order.
type Stream struct {
	Samples []RawSample
	Unit    TimeUnit
	RateHz  float64
}

// Len returns the sample count.
func (s Stream) Len() int { return len(s.Samples) }

// AlignedStream holds two equal-length sensor streams sharing one time base.
// Both streams are rebased so their first timestamp is zero.
type AlignedStream struct {
	Accel  []RawSample
	Gyro   []RawSample
	Unit   TimeUnit
	RateHz float64
}

// Len returns the common sample count.
func (a AlignedStream) Len() int { return len(a.Accel) }

// Slice returns the aligned samples in [start, end).
func (a AlignedStream) Slice(start, end int) AlignedStream {
	return AlignedStream{
		Accel:  a.Accel[start:end],
		Gyro:   a.Gyro[start:end],
		Unit:   a.Unit,
		RateHz: a.RateHz,
	}
}

// Window is a contiguous run of aligned samples carrying one trial id and one activity.
type Window struct {
	Trial    int
	Activity Activity
	Start    int // index of the first sample in the aligned stream
	Accel    []RawSample
	Gyro     []RawSample
}

// Len returns the number of samples in the window.
func (w Window) Len() int { return len(w.Accel) }

// NormalizedRecord is one output row.
type NormalizedRecord struct {
	AccelX         float64  `json:"accel-x"`
	AccelY         float64  `json:"accel-y"`
	AccelZ         float64  `json:"accel-z"`
	GyroX          float64  `json:"gyro-x"`
	GyroY          float64  `json:"gyro-y"`
	GyroZ          float64  `json:"gyro-z"`
	Activity       Activity `json:"activity-code"`
	User           string   `json:"user"`
	Position       string   `json:"position"`
	Trial          int      `json:"trial"`
	AccelTimestamp float64  `json:"timestamp-accel"`
	GyroTimestamp  float64  `json:"timestamp-gyro"`
}

// RecordColumns is the output column contract shared by every writer.
var RecordColumns = []string{
	"accel-x", "accel-y", "accel-z",
	"gyro-x", "gyro-y", "gyro-z",
	"activity-code", "user", "position", "trial",
	"timestamp-accel", "timestamp-gyro",
}

// Records flattens windows into output rows.
func Records(windows []Window, user, position string) []NormalizedRecord {
	total := 0
	for _, w := range windows {
		total += w.Len()
	}
	out := make([]NormalizedRecord, 0, total)
	for _, w := range windows {
		for i := range w.Accel {
			a, g := w.Accel[i], w.Gyro[i]
			out = append(out, NormalizedRecord{
				AccelX:         a.X,
				AccelY:         a.Y,
				AccelZ:         a.Z,
				GyroX:          g.X,
				GyroY:          g.Y,
				GyroZ:          g.Z,
				Activity:       w.Activity,
				User:           user,
				Position:       position,
				Trial:          w.Trial,
				AccelTimestamp: a.Timestamp,
				GyroTimestamp:  g.Timestamp,
			})
		}
	}
	return out
}
