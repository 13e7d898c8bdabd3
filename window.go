package harnorm

import (
	"fmt"
	"sort"
)

// Join selects how label rows attach to windows.
type Join int

const (
	// JoinOrdinal pairs the t-th label row with the t-th window.
	JoinOrdinal Join = iota
	// JoinRange assigns samples by inclusive [Start, End] index containment.
	JoinRange
	// JoinSession applies one label to every window of the session.
	JoinSession
)

func (j Join) String() string {
	switch j {
	case JoinRange:
		return "range"
	case JoinSession:
		return "session"
	default:
		return "ordinal"
	}
}

// Segment slices an aligned stream into non-overlapping windows of size
// samples and attaches one activity to each. Windows without a label are
// never produced; samples left over at the tail of a session or range are
// dropped.
func Segment(stream AlignedStream, rows []LabeledRow, size int, join Join) ([]Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	if len(stream.Accel) != len(stream.Gyro) {
		return nil, fmt.Errorf("unaligned stream: accel=%d gyro=%d", len(stream.Accel), len(stream.Gyro))
	}
	switch join {
	case JoinOrdinal:
		return segmentOrdinal(stream, rows, size), nil
	case JoinRange:
		return segmentRange(stream, rows, size)
	case JoinSession:
		if len(rows) != 1 {
			return nil, fmt.Errorf("session join expects exactly one label, got %d", len(rows))
		}
		return segmentOrdinal(stream, repeatRow(rows[0], stream.Len()/size), size), nil
	default:
		return nil, fmt.Errorf("unknown join %d", join)
	}
}

// WindowCount returns min(floor(n/size), labels), the number of windows an
// ordinal join yields.
func WindowCount(n, size, labels int) int {
	if size <= 0 {
		return 0
	}
	return min(n/size, labels)
}

func segmentOrdinal(stream AlignedStream, rows []LabeledRow, size int) []Window {
	w := WindowCount(stream.Len(), size, len(rows))
	out := make([]Window, 0, w)
	for trial := 0; trial < w; trial++ {
		start := trial * size
		out = append(out, Window{
			Trial:    trial,
			Activity: rows[trial].Activity,
			Start:    start,
			Accel:    stream.Accel[start : start+size],
			Gyro:     stream.Gyro[start : start+size],
		})
	}
	return out
}

func repeatRow(row LabeledRow, n int) []LabeledRow {
	out := make([]LabeledRow, n)
	for i := range out {
		out[i] = row
		out[i].Trial = i
	}
	return out
}

func segmentRange(stream AlignedStream, rows []LabeledRow, size int) ([]Window, error) {
	sorted := make([]LabeledRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out []Window
	trial := 0
	prevEnd := -1
	for _, row := range sorted {
		if row.End < row.Start {
			return nil, fmt.Errorf("label range [%d, %d] is reversed", row.Start, row.End)
		}
		if row.Start <= prevEnd {
			return nil, fmt.Errorf("%w: [%d, %d] starts before %d", ErrOverlappingRanges, row.Start, row.End, prevEnd)
		}
		prevEnd = row.End

		start := max(row.Start, 0)
		end := min(row.End+1, stream.Len())
		for ; start+size <= end; start += size {
			out = append(out, Window{
				Trial:    trial,
				Activity: row.Activity,
				Start:    start,
				Accel:    stream.Accel[start : start+size],
				Gyro:     stream.Gyro[start : start+size],
			})
			trial++
		}
	}
	return out, nil
}
