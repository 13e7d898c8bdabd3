package readers

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

// DefaultRealWorldPositions are the placements read when no filter is given.
var DefaultRealWorldPositions = []string{"thigh", "upperarm", "waist"}

func init() {
	register(source{
		name:        "realworld",
		description: "RealWorld 2016: probandN/acc/acc_<act>[_<part>]_<pos>.csv + gyr/Gyroscope_..., ms clock",
		position:    strings.Join(DefaultRealWorldPositions, ","),
		policy: func(Options) Policy {
			return Policy{
				Aligner:    harnorm.TruncateAligner{MaxLengthDiff: 200},
				Join:       harnorm.JoinSession,
				WindowSize: 150,
				Vocabulary: realWorldVocabulary,
				RateHz:     50,
				Unit:       harnorm.Millis,
			}
		},
		discover: discoverRealWorld,
	})
}

// realWorldFile is the parsed form of acc_<activity>[_<part>]_<position>.csv.
type realWorldFile struct {
	activity string
	part     string
	position string
}

func (f realWorldFile) key() string {
	return f.activity + "|" + f.part + "|" + f.position
}

func parseRealWorldName(name, prefix string) (realWorldFile, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".csv") {
		return realWorldFile{}, false
	}
	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".csv"), "_")
	switch len(parts) {
	case 2:
		return realWorldFile{activity: parts[0], position: parts[1]}, true
	case 3:
		return realWorldFile{activity: parts[0], part: parts[1], position: parts[2]}, true
	default:
		return realWorldFile{}, false
	}
}

func realWorldUsers(root string) ([]string, error) {
	dirs, err := listDirs(root)
	if err != nil {
		return nil, err
	}
	var users []string
	for _, d := range dirs {
		if n := strings.TrimPrefix(d, "proband"); n != d && isDigits(n) {
			users = append(users, d)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(users[i], "proband"))
		b, _ := strconv.Atoi(strings.TrimPrefix(users[j], "proband"))
		return a < b
	})
	return users, nil
}

func discoverRealWorld(root string, opts Options) ([]session, []string) {
	positions := opts.Positions
	if len(positions) == 0 {
		positions = DefaultRealWorldPositions
	}
	users, err := realWorldUsers(root)
	if err != nil {
		return nil, []string{fmt.Sprintf("list %s: %v", root, err)}
	}

	var sessions []session
	var warnings []string
	for _, user := range users {
		accFiles, err := listFiles(filepath.Join(root, user, "acc"), "acc_*.csv")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("list %s/acc: %v", user, err))
			continue
		}
		gyrFiles, err := listFiles(filepath.Join(root, user, "gyr"), "Gyroscope_*.csv")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("list %s/gyr: %v", user, err))
			continue
		}
		gyrByKey := map[string]string{}
		for _, name := range gyrFiles {
			if f, ok := parseRealWorldName(name, "Gyroscope_"); ok {
				gyrByKey[f.key()] = name
			}
		}

		for _, name := range accFiles {
			f, ok := parseRealWorldName(name, "acc_")
			if !ok || !slices.Contains(positions, f.position) {
				continue
			}
			id := user + "/" + strings.TrimSuffix(strings.TrimPrefix(name, "acc_"), ".csv")
			accPath := filepath.Join(root, user, "acc", name)
			gyrName, ok := gyrByKey[f.key()]
			if !ok {
				sessions = append(sessions, failedSession(id, user, f.position, []string{rel(root, accPath)},
					fmt.Errorf("%w: no gyroscope file for %s", ErrMissingFile, name)))
				continue
			}
			gyrPath := filepath.Join(root, user, "gyr", gyrName)
			activity := f.activity
			sessions = append(sessions, session{
				id:       id,
				user:     user,
				position: f.position,
				files:    []string{rel(root, accPath), rel(root, gyrPath)},
				load: func() (parsed, error) {
					accel, err := readRealWorld(accPath)
					if err != nil {
						return parsed{}, err
					}
					gyro, err := readRealWorld(gyrPath)
					if err != nil {
						return parsed{}, err
					}
					return parsed{
						accel:  accel,
						gyro:   gyro,
						labels: harnorm.LabelTable{Rows: []harnorm.LabelRow{{Raw: activity}}},
					}, nil
				},
			})
		}
	}
	return sessions, warnings
}

// readRealWorld reads an "id,attr_time,attr_x,attr_y,attr_z" export.
func readRealWorld(path string) ([]harnorm.RawSample, error) {
	samples, err := readHeaderedSamples(path, "attr_time", "attr_x", "attr_y", "attr_z")
	if err != nil {
		return nil, err
	}
	if err := requireComplete(samples); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return samples, nil
}
