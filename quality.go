package harnorm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// QualityVerdict explains the outcome of a signal quality check.
type QualityVerdict struct {
	OK       bool    `json:"ok"`
	Reason   string  `json:"reason,omitempty"` // nan|amplitude|period|empty
	Max      float64 `json:"max,omitempty"`
	Min      float64 `json:"min,omitempty"`
	PeriodMS float64 `json:"period_ms,omitempty"` // observed mean sampling period
}

func (v QualityVerdict) String() string {
	switch v.Reason {
	case "":
		return "ok"
	case "amplitude":
		return fmt.Sprintf("amplitude out of bounds (max=%.3f min=%.3f)", v.Max, v.Min)
	case "period":
		return fmt.Sprintf("under-sampled (period=%.3fms)", v.PeriodMS)
	default:
		return v.Reason
	}
}

// CheckQuality reports whether a window of scalar samples is usable.
// timestamps are in milliseconds. The window fails on any NaN, when either
// tail exceeds refAmplitude, or when the observed period is not strictly below
// 1000/refFrequencyHz.
func CheckQuality(values, timestamps []float64, refFrequencyHz, refAmplitude float64) bool {
	return InspectQuality(values, timestamps, refFrequencyHz, refAmplitude).OK
}

// InspectQuality is CheckQuality with the failing reason attached.
func InspectQuality(values, timestamps []float64, refFrequencyHz, refAmplitude float64) QualityVerdict {
	if len(values) == 0 || len(timestamps) == 0 {
		return QualityVerdict{Reason: "empty"}
	}
	if floats.HasNaN(values) || floats.HasNaN(timestamps) {
		return QualityVerdict{Reason: "nan"}
	}

	maxV, minV := floats.Max(values), floats.Min(values)
	if maxV > refAmplitude || math.Abs(minV) > refAmplitude {
		return QualityVerdict{Reason: "amplitude", Max: maxV, Min: minV}
	}

	period := (timestamps[len(timestamps)-1] - timestamps[0]) / float64(len(timestamps))
	refPeriod := 1000 / refFrequencyHz
	if period >= refPeriod {
		return QualityVerdict{Reason: "period", PeriodMS: period, Max: maxV, Min: minV}
	}
	return QualityVerdict{OK: true, PeriodMS: period, Max: maxV, Min: minV}
}

// QualityThresholds bound the per-axis checks applied to whole windows.
type QualityThresholds struct {
	RefFrequencyHz float64
	AccelAmplitude float64
	GyroAmplitude  float64
}

// WindowQuality checks every axis of both sensors in w. unit and rateHz describe
// the window's timestamps so they can be expressed in milliseconds.
func WindowQuality(w Window, unit TimeUnit, rateHz float64, th QualityThresholds) QualityVerdict {
	accelTS := make([]float64, len(w.Accel))
	gyroTS := make([]float64, len(w.Gyro))
	for i, s := range w.Accel {
		accelTS[i] = unit.ToMillis(s.Timestamp, rateHz)
	}
	for i, s := range w.Gyro {
		gyroTS[i] = unit.ToMillis(s.Timestamp, rateHz)
	}
	for _, axis := range axes(w.Accel) {
		if v := InspectQuality(axis, accelTS, th.RefFrequencyHz, th.AccelAmplitude); !v.OK {
			return v
		}
	}
	for _, axis := range axes(w.Gyro) {
		if v := InspectQuality(axis, gyroTS, th.RefFrequencyHz, th.GyroAmplitude); !v.OK {
			return v
		}
	}
	return QualityVerdict{OK: true}
}

func axes(samples []RawSample) [3][]float64 {
	var out [3][]float64
	for i := range out {
		out[i] = make([]float64, len(samples))
	}
	for i, s := range samples {
		out[0][i] = s.X
		out[1][i] = s.Y
		out[2][i] = s.Z
	}
	return out
}
