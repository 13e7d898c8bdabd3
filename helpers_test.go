package harnorm

import "math"

// uniformStream builds n samples starting at t0 spaced by step, with a smooth
// signal on each axis.
func uniformStream(n int, t0, step float64, unit TimeUnit, rateHz float64) Stream {
	samples := make([]RawSample, n)
	for i := range samples {
		x := float64(i) / 10
		samples[i] = RawSample{
			Timestamp: t0 + float64(i)*step,
			X:         math.Sin(x),
			Y:         math.Cos(x),
			Z:         9.8 + 0.1*math.Sin(2*x),
		}
	}
	return Stream{Samples: samples, Unit: unit, RateHz: rateHz}
}

func alignedOf(n int) AlignedStream {
	s := uniformStream(n, 0, 10, Millis, 100)
	g := uniformStream(n, 0, 10, Millis, 100)
	return AlignedStream{Accel: s.Samples, Gyro: g.Samples, Unit: Millis, RateHz: 100}
}

func labeled(raw ...Activity) []LabeledRow {
	out := make([]LabeledRow, len(raw))
	for i, a := range raw {
		out[i] = LabeledRow{LabelRow: LabelRow{Trial: i}, Activity: a}
	}
	return out
}
