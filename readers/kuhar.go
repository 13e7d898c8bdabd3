package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

func init() {
	register(source{
		name:        "kuhar",
		description: "KU-HAR: <n>.<Activity>/<user>_<G>_<serial>.csv, paired accel+gyro rows in seconds",
		position:    "waist",
		policy: func(Options) Policy {
			return Policy{
				Aligner:    harnorm.TruncateAligner{},
				Join:       harnorm.JoinSession,
				WindowSize: 300,
				Vocabulary: kuharVocabulary,
				RateHz:     100,
				Unit:       harnorm.Seconds,
			}
		},
		discover: discoverKuHar,
	})
}

func discoverKuHar(root string, _ Options) ([]session, []string) {
	dirs, err := listDirs(root)
	if err != nil {
		return nil, []string{fmt.Sprintf("list %s: %v", root, err)}
	}
	var sessions []session
	var warnings []string
	for _, dir := range dirs {
		prefix, activity, ok := strings.Cut(dir, ".")
		if !ok || !isDigits(prefix) || activity == "" {
			continue
		}
		files, err := listFiles(filepath.Join(root, dir), "*.csv")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("list %s: %v", dir, err))
			continue
		}
		for _, name := range files {
			parts := strings.Split(strings.TrimSuffix(name, ".csv"), "_")
			if len(parts) < 3 || !isDigits(parts[0]) {
				continue
			}
			path := filepath.Join(root, dir, name)
			sessions = append(sessions, session{
				id:       dir + "/" + name,
				user:     parts[0],
				position: "waist",
				files:    []string{rel(root, path)},
				load:     kuharLoader(path, activity),
			})
		}
	}
	return sessions, warnings
}

// kuharLoader parses one KU-HAR file: eight headerless columns with the
// accelerometer (t, x, y, z) followed by the gyroscope (t, x, y, z).
func kuharLoader(path, activity string) func() (parsed, error) {
	return func() (parsed, error) {
		rows, err := readCSV(path)
		if err != nil {
			return parsed{}, err
		}
		accel, err := parseSamples(rows, sampleColumns{t: 0, x: 1, y: 2, z: 3}, 1)
		if err != nil {
			return parsed{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		gyro, err := parseSamples(rows, sampleColumns{t: 4, x: 5, y: 6, z: 7}, 1)
		if err != nil {
			return parsed{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if err := requireComplete(accel); err != nil {
			return parsed{}, err
		}
		if err := requireComplete(gyro); err != nil {
			return parsed{}, err
		}
		return parsed{
			accel:  accel,
			gyro:   gyro,
			labels: harnorm.LabelTable{Rows: []harnorm.LabelRow{{Raw: activity}}},
		}, nil
	}
}
