package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

func init() {
	register(source{
		name:        "motionsense",
		description: "MotionSense: <act>_<serial>/sub_<user>.csv device-motion exports, no clock",
		position:    "front_pocket",
		policy: func(Options) Policy {
			return Policy{
				Aligner:    harnorm.TruncateAligner{},
				Join:       harnorm.JoinSession,
				WindowSize: 150,
				Vocabulary: motionSenseVocabulary,
				RateHz:     50,
				Unit:       harnorm.SampleIndex,
			}
		},
		discover: discoverMotionSense,
	})
}

func discoverMotionSense(root string, _ Options) ([]session, []string) {
	dirs, err := listDirs(root)
	if err != nil {
		return nil, []string{fmt.Sprintf("list %s: %v", root, err)}
	}
	var sessions []session
	var warnings []string
	for _, dir := range dirs {
		activity, serial, ok := strings.Cut(dir, "_")
		if !ok || !isDigits(serial) {
			continue
		}
		files, err := listFiles(filepath.Join(root, dir), "sub_*.csv")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("list %s: %v", dir, err))
			continue
		}
		for _, name := range files {
			user := strings.TrimSuffix(strings.TrimPrefix(name, "sub_"), ".csv")
			if !isDigits(user) {
				continue
			}
			path := filepath.Join(root, dir, name)
			sessions = append(sessions, session{
				id:       dir + "/" + name,
				user:     user,
				position: "front_pocket",
				files:    []string{rel(root, path)},
				load:     motionSenseLoader(path, activity),
			})
		}
	}
	return sessions, warnings
}

// motionSenseLoader reads userAcceleration as the accelerometer and
// rotationRate as the gyroscope. Files with a leading unnamed index column are
// handled by header lookup.
func motionSenseLoader(path, activity string) func() (parsed, error) {
	return func() (parsed, error) {
		rows, err := readCSV(path)
		if err != nil {
			return parsed{}, err
		}
		file := filepath.Base(path)
		accel, err := headeredSamples(file, rows, "", "userAcceleration.x", "userAcceleration.y", "userAcceleration.z")
		if err != nil {
			return parsed{}, err
		}
		gyro, err := headeredSamples(file, rows, "", "rotationRate.x", "rotationRate.y", "rotationRate.z")
		if err != nil {
			return parsed{}, err
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
