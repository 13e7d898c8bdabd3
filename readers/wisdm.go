package readers

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

const wisdmRateHz = 20

func init() {
	register(source{
		name:        "wisdm",
		description: "WISDM 2019: accel/data_<user>_accel_phone.txt + gyro/..., resampled to 20 Hz",
		position:    "pocket",
		policy: func(opts Options) Policy {
			var aligner harnorm.Aligner = harnorm.ResampleAligner{TargetRateHz: wisdmRateHz}
			if opts.Resample != nil && !*opts.Resample {
				aligner = harnorm.TruncateAligner{}
			}
			return Policy{
				Aligner:    aligner,
				Join:       harnorm.JoinSession,
				WindowSize: 3 * wisdmRateHz,
				Vocabulary: wisdmVocabulary,
				RateHz:     wisdmRateHz,
				Unit:       harnorm.Nanos,
			}
		},
		discover: discoverWISDM,
	})
}

func discoverWISDM(root string, _ Options) ([]session, []string) {
	files, err := listFiles(filepath.Join(root, "accel"), "data_*_accel_phone.txt")
	if err != nil {
		return nil, []string{fmt.Sprintf("list accel: %v", err)}
	}
	var sessions []session
	for _, name := range files {
		user := strings.TrimSuffix(strings.TrimPrefix(name, "data_"), "_accel_phone.txt")
		if !isDigits(user) {
			continue
		}
		accelPath := filepath.Join(root, "accel", name)
		gyroPath := filepath.Join(root, "gyro", "data_"+user+"_gyro_phone.txt")
		fileList := []string{rel(root, accelPath), rel(root, gyroPath)}

		accel, err := readWISDM(accelPath)
		if err == nil {
			var gyro map[string][]harnorm.RawSample
			gyro, err = readWISDM(gyroPath)
			if err == nil {
				sessions = append(sessions, wisdmSessions(user, fileList, accel, gyro)...)
				continue
			}
		}
		sessions = append(sessions, failedSession(user, user, "pocket", fileList, err))
	}
	return sessions, nil
}

// wisdmSessions splits one user's recordings into one session per activity
// letter present in either sensor file, in letter order.
func wisdmSessions(user string, files []string, accel, gyro map[string][]harnorm.RawSample) []session {
	seen := map[string]struct{}{}
	for letter := range accel {
		seen[letter] = struct{}{}
	}
	for letter := range gyro {
		seen[letter] = struct{}{}
	}
	letters := make([]string, 0, len(seen))
	for letter := range seen {
		letters = append(letters, letter)
	}
	sort.Strings(letters)

	var out []session
	for _, letter := range letters {
		a, g := accel[letter], gyro[letter]
		out = append(out, session{
			id:       user + "/" + letter,
			user:     user,
			position: "pocket",
			files:    files,
			load: func() (parsed, error) {
				return parsed{
					accel:  a,
					gyro:   g,
					labels: harnorm.LabelTable{Rows: []harnorm.LabelRow{{Raw: letter}}},
				}, nil
			},
		})
	}
	return out
}

// readWISDM parses "user,activity,timestamp_ns,x,y,z;" lines grouped by
// activity letter. Letters outside the vocabulary are kept so the session
// fails label resolution instead of vanishing. Rows with a missing field are
// dropped. Timestamps are nanoseconds relative to the first kept row.
func readWISDM(path string) (map[string][]harnorm.RawSample, error) {
	rows, err := readLines(path, splitWISDM)
	if err != nil {
		return nil, err
	}
	out := map[string][]harnorm.RawSample{}
	var base int64
	haveBase := false
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("%s line %d: expected 6 fields, got %d", filepath.Base(path), i+1, len(row))
		}
		ts, ok, err := parseEpochNanos(row[2])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
		}
		var axes [3]float64
		for j := range axes {
			v, err := parseFloat(row[3+j])
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
			}
			if math.IsNaN(v) {
				ok = false
			}
			axes[j] = v
		}
		if !ok {
			continue
		}
		if !haveBase {
			base, haveBase = ts, true
		}
		letter := strings.TrimSpace(row[1])
		out[letter] = append(out[letter], harnorm.RawSample{
			Timestamp: float64(ts - base),
			X:         axes[0],
			Y:         axes[1],
			Z:         axes[2],
		})
	}
	return out, nil
}

// parseEpochNanos reads an integer nanosecond timestamp. The second result is
// false for an empty or NaN field.
func parseEpochNanos(s string) (int64, bool, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return int64(v), true, nil
}

func splitWISDM(line string) []string {
	return strings.Split(strings.TrimRight(line, "; "), ",")
}
