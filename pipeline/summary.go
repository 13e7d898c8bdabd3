package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/stat"

	harnorm "github.com/lucasjlepore/har-normalizer"
	"github.com/lucasjlepore/har-normalizer/readers"
)

// AxisStats is the mean and standard deviation of one output column.
type AxisStats struct {
	Column string
	Mean   float64
	StdDev float64
}

// ComputeAxisStats returns per-axis statistics over records in column order.
// Empty input yields NaN statistics.
func ComputeAxisStats(records []harnorm.NormalizedRecord) []AxisStats {
	cols := [6][]float64{}
	for i := range cols {
		cols[i] = make([]float64, len(records))
	}
	for i, r := range records {
		cols[0][i] = r.AccelX
		cols[1][i] = r.AccelY
		cols[2][i] = r.AccelZ
		cols[3][i] = r.GyroX
		cols[4][i] = r.GyroY
		cols[5][i] = r.GyroZ
	}
	out := make([]AxisStats, len(cols))
	for i, values := range cols {
		s := AxisStats{Column: harnorm.RecordColumns[i], Mean: math.NaN(), StdDev: math.NaN()}
		if len(values) > 1 {
			s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
		} else if len(values) == 1 {
			s.Mean, s.StdDev = values[0], 0
		}
		out[i] = s
	}
	return out
}

// BuildSummary renders the human-readable summary.md for one run.
func BuildSummary(m Manifest, records []harnorm.NormalizedRecord, sessions []readers.SessionOutcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s normalization\n\n", m.Source)
	fmt.Fprintf(&b, "Run %s, generated %s\n\n", m.RunID, m.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Root: `%s`\n", m.Root)
	fmt.Fprintf(
		&b,
		"- Policy: %s alignment, %s join, %d-sample windows at %.0f Hz (%s clock)\n",
		m.Policy.Aligner,
		m.Policy.Join,
		m.Policy.WindowSize,
		m.Policy.RateHz,
		m.Policy.TimeUnit,
	)
	fmt.Fprintf(
		&b,
		"- Records: %s in %s windows (%s)\n",
		humanize.Comma(int64(m.RecordCount)),
		humanize.Comma(int64(m.WindowCount)),
		m.RecordsPath,
	)
	fmt.Fprintf(&b, "- Sessions: %d read, %d skipped\n", m.SessionsOK, m.SessionsSkipped)
	if m.DroppedUnknown > 0 {
		fmt.Fprintf(&b, "- Dropped %s records labelled unknown\n", humanize.Comma(int64(m.DroppedUnknown)))
	}

	if len(m.ActivityCounts) > 0 {
		b.WriteString("\n## Activities\n\n")
		b.WriteString("| code | activity | records | share |\n|---:|---|---:|---:|\n")
		for _, a := range sortedActivities(records) {
			n := m.ActivityCounts[a.String()]
			fmt.Fprintf(&b, "| %d | %s | %s | %.1f%% |\n", int(a), a, humanize.Comma(int64(n)), 100*float64(n)/float64(m.RecordCount))
		}
	}

	if len(records) > 0 {
		b.WriteString("\n## Signal\n\n")
		b.WriteString("| column | mean | std |\n|---|---:|---:|\n")
		for _, s := range ComputeAxisStats(records) {
			fmt.Fprintf(&b, "| %s | %.4f | %.4f |\n", s.Column, s.Mean, s.StdDev)
		}
	}

	var skipped []readers.SessionOutcome
	for _, s := range sessions {
		if s.Status == readers.StatusSkipped {
			skipped = append(skipped, s)
		}
	}
	if len(skipped) > 0 {
		b.WriteString("\n## Skipped sessions\n\n")
		for _, s := range skipped {
			fmt.Fprintf(&b, "- `%s`: %s\n", s.Session, s.Reason)
		}
	}
	if len(m.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range m.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	b.WriteString("\n## Notes\n\n- ")
	b.WriteString(assessment(m))
	b.WriteByte('\n')
	return b.String()
}

func sortedActivities(records []harnorm.NormalizedRecord) []harnorm.Activity {
	seen := map[harnorm.Activity]bool{}
	var out []harnorm.Activity
	for _, r := range records {
		if !seen[r.Activity] {
			seen[r.Activity] = true
			out = append(out, r.Activity)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func assessment(m Manifest) string {
	total := m.SessionsOK + m.SessionsSkipped
	switch {
	case total == 0:
		return "No sessions were discovered; check the dataset root and its layout."
	case m.RecordCount == 0:
		return "Every session was skipped; the reasons above usually point at a layout or vocabulary mismatch."
	case m.SessionsSkipped*4 > total:
		return fmt.Sprintf("%d of %d sessions were skipped; review sessions.jsonl before training on this output.", m.SessionsSkipped, total)
	case m.SessionsSkipped > 0:
		return "A few sessions were skipped; see the list above."
	default:
		return "All discovered sessions were normalized."
	}
}
