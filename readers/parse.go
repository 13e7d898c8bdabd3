package readers

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

// readCSV loads a comma separated file. Ragged rows are allowed; callers
// validate the fields they use.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, filepath.Base(path))
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// readLines splits every non-blank line of path with split.
func readLines(path string, split func(string) []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, filepath.Base(path))
		}
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var rows [][]string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rows = append(rows, split(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// columnIndex resolves header names to positions.
func columnIndex(header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	out := make([]int, len(names))
	for i, name := range names {
		idx, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		out[i] = idx
	}
	return out, nil
}

// parseFloat parses one numeric field. Empty fields read as NaN.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// sampleColumns locates timestamp and x, y, z in a row. A negative
// timestamp column means the row number is the clock.
type sampleColumns struct {
	t, x, y, z int
}

func parseSamples(rows [][]string, cols sampleColumns, firstLine int) ([]harnorm.RawSample, error) {
	need := max(cols.t, cols.x, cols.y, cols.z)
	out := make([]harnorm.RawSample, 0, len(rows))
	for i, row := range rows {
		if len(row) <= need {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", firstLine+i, need+1, len(row))
		}
		var vals [4]float64
		for j, c := range [4]int{cols.t, cols.x, cols.y, cols.z} {
			if c < 0 {
				vals[j] = float64(i)
				continue
			}
			v, err := parseFloat(row[c])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", firstLine+i, err)
			}
			vals[j] = v
		}
		out = append(out, harnorm.RawSample{Timestamp: vals[0], X: vals[1], Y: vals[2], Z: vals[3]})
	}
	return out, nil
}

func hasNaN(s harnorm.RawSample) bool {
	return math.IsNaN(s.Timestamp) || math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsNaN(s.Z)
}

func requireComplete(samples []harnorm.RawSample) error {
	for i, s := range samples {
		if hasNaN(s) {
			return fmt.Errorf("%w (sample %d)", ErrMissingValues, i)
		}
	}
	return nil
}

// readHeaderedSamples reads a CSV with a header row and the named columns.
// An empty tName uses the row number as the clock.
func readHeaderedSamples(path, tName, xName, yName, zName string) ([]harnorm.RawSample, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	return headeredSamples(filepath.Base(path), rows, tName, xName, yName, zName)
}

func headeredSamples(file string, rows [][]string, tName, xName, yName, zName string) ([]harnorm.RawSample, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", file, harnorm.ErrEmptyStream)
	}
	names := []string{xName, yName, zName}
	if tName != "" {
		names = append(names, tName)
	}
	idx, err := columnIndex(rows[0], names...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	cols := sampleColumns{t: -1, x: idx[0], y: idx[1], z: idx[2]}
	if tName != "" {
		cols.t = idx[3]
	}
	samples, err := parseSamples(rows[1:], cols, 2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return samples, nil
}

// listDirs returns the sorted names of sub-directories of dir.
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// listFiles returns the sorted names of regular files in dir matching pattern.
func listFiles(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			out = append(out, filepath.Base(m))
		}
	}
	sort.Strings(out)
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}
