package harnorm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// Aligner reconciles two independently captured sensor streams into one
// AlignedStream.
type Aligner interface {
	Align(accel, gyro Stream) (AlignedStream, error)
	// Strategy names the alignment strategy for reports.
	Strategy() string
}

// TruncateAligner keeps the first min(len(accel), len(gyro)) samples of each
// stream and rebases both clocks to zero. It assumes both sensors ran at the
// same nominal rate.
type TruncateAligner struct {
	// MaxLengthDiff rejects pairs whose sample counts differ by at least this
	// many samples. Zero disables the check.
	MaxLengthDiff int
}

// Strategy implements Aligner.
func (TruncateAligner) Strategy() string { return "truncate" }

// Align implements Aligner.
func (t TruncateAligner) Align(accel, gyro Stream) (AlignedStream, error) {
	if accel.Len() == 0 || gyro.Len() == 0 {
		return AlignedStream{}, fmt.Errorf("%w (accel=%d gyro=%d)", ErrEmptyStream, accel.Len(), gyro.Len())
	}
	diff := accel.Len() - gyro.Len()
	if diff < 0 {
		diff = -diff
	}
	if t.MaxLengthDiff > 0 && diff >= t.MaxLengthDiff {
		return AlignedStream{}, fmt.Errorf("%w: accel=%d gyro=%d tolerance=%d", ErrLengthMismatch, accel.Len(), gyro.Len(), t.MaxLengthDiff)
	}
	n := min(accel.Len(), gyro.Len())
	return AlignedStream{
		Accel:  rebase(accel.Samples[:n]),
		Gyro:   rebase(gyro.Samples[:n]),
		Unit:   accel.Unit,
		RateHz: accel.RateHz,
	}, nil
}

func rebase(samples []RawSample) []RawSample {
	out := make([]RawSample, len(samples))
	if len(samples) == 0 {
		return out
	}
	t0 := samples[0].Timestamp
	for i, s := range samples {
		s.Timestamp -= t0
		out[i] = s
	}
	return out
}

// ResampleAligner puts both streams on one uniform clock at TargetRateHz by
// cubic interpolation. Output timestamps are in seconds.
type ResampleAligner struct {
	TargetRateHz float64
}

// Strategy implements Aligner.
func (ResampleAligner) Strategy() string { return "resample" }

// Align implements Aligner.
func (r ResampleAligner) Align(accel, gyro Stream) (AlignedStream, error) {
	if accel.Len() == 0 || gyro.Len() == 0 {
		return AlignedStream{}, fmt.Errorf("%w (accel=%d gyro=%d)", ErrEmptyStream, accel.Len(), gyro.Len())
	}
	if r.TargetRateHz <= 0 {
		return AlignedStream{}, fmt.Errorf("resample: target rate must be positive, got %v", r.TargetRateHz)
	}
	acc, err := Resample(accel, r.TargetRateHz)
	if err != nil {
		return AlignedStream{}, fmt.Errorf("resample accelerometer: %w", err)
	}
	gyr, err := Resample(gyro, r.TargetRateHz)
	if err != nil {
		return AlignedStream{}, fmt.Errorf("resample gyroscope: %w", err)
	}
	n := min(len(acc), len(gyr))
	return AlignedStream{
		Accel:  acc[:n],
		Gyro:   gyr[:n],
		Unit:   Seconds,
		RateHz: r.TargetRateHz,
	}, nil
}

// Resample rebases s to zero, converts it to seconds, repairs clock resets and
// evaluates a not-a-knot cubic spline per axis on the grid k/rateHz covering
// [0, last timestamp). Samples with a missing timestamp or axis are dropped
// before the clock is rebased.
func Resample(s Stream, rateHz float64) ([]RawSample, error) {
	if s.Len() == 0 {
		return nil, ErrEmptyStream
	}
	scale := s.Unit.SecondsPerUnit(s.RateHz)
	kept := make([]RawSample, 0, s.Len())
	for _, smp := range s.Samples {
		if math.IsNaN(smp.Timestamp) || math.IsNaN(smp.X) || math.IsNaN(smp.Y) || math.IsNaN(smp.Z) {
			continue
		}
		kept = append(kept, smp)
	}
	secs := make([]float64, len(kept))
	for i, smp := range kept {
		secs[i] = (smp.Timestamp - kept[0].Timestamp) * scale
	}
	secs = RepairResets(secs, 1/rateHz)

	// Splines need strictly increasing knots; later duplicates are dropped.
	xs := make([]float64, 0, len(secs))
	var ax, ay, az []float64
	for i, t := range secs {
		if len(xs) > 0 && t <= xs[len(xs)-1] {
			continue
		}
		xs = append(xs, t)
		ax = append(ax, kept[i].X)
		ay = append(ay, kept[i].Y)
		az = append(az, kept[i].Z)
	}
	if len(xs) < 4 {
		return nil, fmt.Errorf("%w: %d usable samples", ErrTooFewSamples, len(xs))
	}

	var fx, fy, fz interp.NotAKnotCubic
	if err := fx.Fit(xs, ax); err != nil {
		return nil, fmt.Errorf("fit x: %w", err)
	}
	if err := fy.Fit(xs, ay); err != nil {
		return nil, fmt.Errorf("fit y: %w", err)
	}
	if err := fz.Fit(xs, az); err != nil {
		return nil, fmt.Errorf("fit z: %w", err)
	}

	n := GridLength(xs[len(xs)-1], rateHz)
	out := make([]RawSample, n)
	for k := range out {
		t := float64(k) / rateHz
		out[k] = RawSample{Timestamp: t, X: fx.Predict(t), Y: fy.Predict(t), Z: fz.Predict(t)}
	}
	return out, nil
}

// GridLength returns the number of points k/rateHz strictly below last.
func GridLength(last, rateHz float64) int {
	if last <= 0 || rateHz <= 0 {
		return 0
	}
	n := int(math.Ceil(last * rateHz))
	for n > 0 && float64(n-1)/rateHz >= last {
		n--
	}
	return n
}

// RepairResets removes backward clock jumps. At every negative step the
// remaining samples are shifted so they continue one nominal period after the
// last corrected timestamp. The input is not modified.
func RepairResets(ts []float64, period float64) []float64 {
	out := make([]float64, len(ts))
	if len(ts) == 0 {
		return out
	}
	offset := 0.0
	out[0] = ts[0]
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			offset += out[i-1] + period
		}
		out[i] = ts[i] + offset
	}
	return out
}
