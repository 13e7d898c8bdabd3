package readers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

// hiaacWindow is fixed: every label row describes 300 consecutive samples.
const hiaacWindow = 300

func hiaacPolicy(vocab harnorm.Vocabulary) func(Options) Policy {
	return func(Options) Policy {
		return Policy{
			Aligner:    harnorm.TruncateAligner{},
			Join:       harnorm.JoinOrdinal,
			WindowSize: hiaacWindow,
			Vocabulary: vocab,
			RateHz:     100,
			Unit:       harnorm.Millis,
		}
	}
}

func init() {
	register(source{
		name:        "hiaac",
		description: "HIAAC: <user>/accelerometer_<Variant>.csv + gyroscope_..., labels in Label/<user>/Annotations.csv",
		position:    "HIAAC_<Variant>",
		policy:      hiaacPolicy(hiaacVocabulary),
		discover:    discoverHIAAC,
	})
	register(source{
		name:        "hiaac-v1",
		description: "HIAAC first export: {Bolso_direito,Mochila}/<user>/Accelerometer_<Pos>.csv, labels in <user>_label_vitor.csv",
		position:    "Bolso_direito,Mochila",
		policy:      hiaacPolicy(hiaacV1Vocabulary),
		discover:    discoverHIAACV1,
	})
}

// hiaacSkippedVariants are sensor exports that carry no usable phone signal.
var hiaacSkippedVariants = map[string]bool{"Annotator": true, "LeftHand": true}

func discoverHIAAC(root string, _ Options) ([]session, []string) {
	dirs, err := listDirs(root)
	if err != nil {
		return nil, []string{fmt.Sprintf("list %s: %v", root, err)}
	}
	var sessions []session
	var warnings []string
	for _, user := range dirs {
		if !isDigits(user) {
			continue
		}
		accFiles, err := listFiles(filepath.Join(root, user), "accelerometer_*.csv")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("list %s: %v", user, err))
			continue
		}
		if len(accFiles) == 0 {
			warnings = append(warnings, fmt.Sprintf("no accelerometer files for user %s", user))
			continue
		}
		labelPath := filepath.Join(root, "Label", user, "Annotations.csv")
		for _, name := range accFiles {
			variant := strings.TrimSuffix(strings.TrimPrefix(name, "accelerometer_"), ".csv")
			if hiaacSkippedVariants[variant] {
				continue
			}
			accPath := filepath.Join(root, user, name)
			gyrPath := filepath.Join(root, user, "gyroscope_"+variant+".csv")
			sessions = append(sessions, hiaacSession(root, user+"/"+variant, user, "HIAAC_"+variant,
				accPath, gyrPath, labelPath, "pro_label"))
		}
	}
	return sessions, warnings
}

// hiaacV1Positions maps each position folder to the suffix of its sensor files.
var hiaacV1Positions = []struct{ dir, suffix string }{
	{dir: "Bolso_direito", suffix: "Bolso Direito"},
	{dir: "Mochila", suffix: "Mochila"},
}

func discoverHIAACV1(root string, _ Options) ([]session, []string) {
	var sessions []session
	var warnings []string
	for _, pos := range hiaacV1Positions {
		posDir := filepath.Join(root, pos.dir)
		if !exists(posDir) {
			warnings = append(warnings, fmt.Sprintf("position folder %s not found", pos.dir))
			continue
		}
		users, err := listDirs(posDir)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("list %s: %v", pos.dir, err))
			continue
		}
		for _, user := range users {
			if !isDigits(user) {
				continue
			}
			dir := filepath.Join(posDir, user)
			sessions = append(sessions, hiaacSession(root, pos.dir+"/"+user, user, pos.dir,
				filepath.Join(dir, "Accelerometer_"+pos.suffix+".csv"),
				filepath.Join(dir, "Gyroscope_"+pos.suffix+".csv"),
				filepath.Join(dir, user+"_label_vitor.csv"),
				"L"))
		}
	}
	return sessions, warnings
}

func hiaacSession(root, id, user, position, accPath, gyrPath, labelPath, labelColumn string) session {
	return session{
		id:       id,
		user:     user,
		position: position,
		files:    []string{rel(root, accPath), rel(root, gyrPath), rel(root, labelPath)},
		load: func() (parsed, error) {
			for _, p := range []string{accPath, gyrPath, labelPath} {
				if !exists(p) {
					return parsed{}, fmt.Errorf("%w: %s", ErrMissingFile, filepath.Base(p))
				}
			}
			accel, err := readHeaderedSamples(accPath, "Timestamp Server", "Value 1", "Value 2", "Value 3")
			if err != nil {
				return parsed{}, err
			}
			gyro, err := readHeaderedSamples(gyrPath, "Timestamp Server", "Value 1", "Value 2", "Value 3")
			if err != nil {
				return parsed{}, err
			}
			if err := requireComplete(accel); err != nil {
				return parsed{}, fmt.Errorf("%s: %w", filepath.Base(accPath), err)
			}
			if err := requireComplete(gyro); err != nil {
				return parsed{}, fmt.Errorf("%s: %w", filepath.Base(gyrPath), err)
			}
			labels, err := readOrdinalLabels(labelPath, labelColumn)
			if err != nil {
				return parsed{}, err
			}
			return parsed{accel: accel, gyro: gyro, labels: labels}, nil
		},
	}
}

// readOrdinalLabels reads one label per trial from column. Rows are trials in
// file order unless a "trial" or "window" column is present, in which case
// rows are ordered by it and the indices must run 0..n-1 without gaps.
func readOrdinalLabels(path, column string) (harnorm.LabelTable, error) {
	rows, err := readCSV(path)
	if err != nil {
		return harnorm.LabelTable{}, err
	}
	if len(rows) == 0 {
		return harnorm.LabelTable{}, fmt.Errorf("%s: empty label file", filepath.Base(path))
	}
	idx, err := columnIndex(rows[0], column)
	if err != nil {
		return harnorm.LabelTable{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	trialCol := -1
	for _, name := range []string{"trial", "window"} {
		if ti, err := columnIndex(rows[0], name); err == nil {
			trialCol = ti[0]
			break
		}
	}

	out := make([]harnorm.LabelRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) <= idx[0] {
			return harnorm.LabelTable{}, fmt.Errorf("%s line %d: missing %s", filepath.Base(path), i+2, column)
		}
		trial := i
		if trialCol >= 0 {
			if len(row) <= trialCol {
				return harnorm.LabelTable{}, fmt.Errorf("%s line %d: missing trial index", filepath.Base(path), i+2)
			}
			n, err := strconv.Atoi(strings.TrimSpace(row[trialCol]))
			if err != nil {
				return harnorm.LabelTable{}, fmt.Errorf("%s line %d: trial index: %w", filepath.Base(path), i+2, err)
			}
			trial = n
		}
		out = append(out, harnorm.LabelRow{Trial: trial, Raw: strings.TrimSpace(row[idx[0]])})
	}
	if trialCol >= 0 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Trial < out[j].Trial })
		for i, r := range out {
			if r.Trial != i {
				return harnorm.LabelTable{}, fmt.Errorf("%s: %w (expected trial %d, found %d)", filepath.Base(path), ErrLabelGap, i, r.Trial)
			}
		}
	}
	return harnorm.LabelTable{Rows: out}, nil
}
