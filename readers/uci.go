package readers

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

func init() {
	register(source{
		name:        "uci",
		description: "UCI HAPT: acc_expXX_userYY.txt + gyro_expXX_userYY.txt, ranges in labels.txt",
		position:    "waist",
		policy: func(Options) Policy {
			return Policy{
				Aligner:    harnorm.TruncateAligner{},
				Join:       harnorm.JoinRange,
				WindowSize: 150,
				Vocabulary: uciVocabulary,
				RateHz:     50,
				Unit:       harnorm.SampleIndex,
			}
		},
		discover: discoverUCI,
	})
}

type uciKey struct{ exp, user int }

func discoverUCI(root string, _ Options) ([]session, []string) {
	files, err := listFiles(root, "acc_exp*_user*.txt")
	if err != nil {
		return nil, []string{fmt.Sprintf("list %s: %v", root, err)}
	}
	if len(files) == 0 {
		return nil, nil
	}

	var warnings []string
	labelPath := filepath.Join(root, "labels.txt")
	labels, labelErr := readUCILabels(labelPath)
	if labelErr != nil {
		warnings = append(warnings, fmt.Sprintf("labels.txt: %v", labelErr))
	}

	var sessions []session
	for _, name := range files {
		key, ok := parseUCIName(name)
		if !ok {
			continue
		}
		gyroName := "gyro" + strings.TrimPrefix(name, "acc")
		accelPath := filepath.Join(root, name)
		gyroPath := filepath.Join(root, gyroName)
		id := strings.TrimSuffix(strings.TrimPrefix(name, "acc_"), ".txt")
		user := strconv.Itoa(key.user)
		fileList := []string{name, gyroName, "labels.txt"}

		switch {
		case labelErr != nil:
			sessions = append(sessions, failedSession(id, user, "waist", fileList, labelErr))
			continue
		case !exists(gyroPath):
			sessions = append(sessions, failedSession(id, user, "waist", fileList, fmt.Errorf("%w: %s", ErrMissingFile, gyroName)))
			continue
		}
		rows := labels[key]
		sessions = append(sessions, session{
			id:       id,
			user:     user,
			position: "waist",
			files:    fileList,
			load: func() (parsed, error) {
				if len(rows) == 0 {
					return parsed{}, fmt.Errorf("no label ranges for experiment %d user %d", key.exp, key.user)
				}
				accel, err := readUCISamples(accelPath)
				if err != nil {
					return parsed{}, err
				}
				gyro, err := readUCISamples(gyroPath)
				if err != nil {
					return parsed{}, err
				}
				kept := completeRanges(rows, accel, gyro)
				if len(kept) == 0 {
					return parsed{}, fmt.Errorf("%w in every labelled range", ErrMissingValues)
				}
				return parsed{
					accel:         accel,
					gyro:          gyro,
					labels:        harnorm.LabelTable{Rows: kept},
					droppedLabels: len(rows) - len(kept),
				}, nil
			},
		})
	}
	return sessions, warnings
}

// parseUCIName extracts the experiment and user numbers from
// acc_expXX_userYY.txt.
func parseUCIName(name string) (uciKey, bool) {
	parts := strings.Split(strings.TrimSuffix(name, ".txt"), "_")
	if len(parts) != 3 || !strings.HasPrefix(parts[1], "exp") || !strings.HasPrefix(parts[2], "user") {
		return uciKey{}, false
	}
	exp, err1 := strconv.Atoi(strings.TrimPrefix(parts[1], "exp"))
	user, err2 := strconv.Atoi(strings.TrimPrefix(parts[2], "user"))
	if err1 != nil || err2 != nil {
		return uciKey{}, false
	}
	return uciKey{exp: exp, user: user}, true
}

// readUCILabels parses "exp user activity start end" lines. Ranges are
// inclusive sample indices.
func readUCILabels(path string) (map[uciKey][]harnorm.LabelRow, error) {
	lines, err := readLines(path, strings.Fields)
	if err != nil {
		return nil, err
	}
	out := map[uciKey][]harnorm.LabelRow{}
	for i, f := range lines {
		if len(f) < 5 {
			return nil, fmt.Errorf("line %d: expected 5 fields, got %d", i+1, len(f))
		}
		var v [5]int
		for j := range v {
			n, err := strconv.Atoi(f[j])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			v[j] = n
		}
		key := uciKey{exp: v[0], user: v[1]}
		out[key] = append(out[key], harnorm.LabelRow{
			Trial: len(out[key]),
			Start: v[3],
			End:   v[4],
			Raw:   f[2],
		})
	}
	return out, nil
}

func readUCISamples(path string) ([]harnorm.RawSample, error) {
	rows, err := readLines(path, strings.Fields)
	if err != nil {
		return nil, err
	}
	samples, err := parseSamples(rows, sampleColumns{t: -1, x: 0, y: 1, z: 2}, 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return samples, nil
}

// completeRanges keeps the label ranges whose samples are free of missing
// values in both streams. Indices past the shorter stream are ignored; the
// range join clips them anyway.
func completeRanges(rows []harnorm.LabelRow, accel, gyro []harnorm.RawSample) []harnorm.LabelRow {
	n := min(len(accel), len(gyro))
	// missing[i] counts incomplete samples in [0, i).
	missing := make([]int, n+1)
	for i := 0; i < n; i++ {
		missing[i+1] = missing[i]
		if hasNaN(accel[i]) || hasNaN(gyro[i]) {
			missing[i+1]++
		}
	}
	out := make([]harnorm.LabelRow, 0, len(rows))
	for _, row := range rows {
		start := min(max(row.Start, 0), n)
		end := min(max(row.End+1, start), n)
		if missing[end]-missing[start] > 0 {
			continue
		}
		out = append(out, row)
	}
	return out
}
