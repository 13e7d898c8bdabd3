package readers

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

// blankField empties one comma-separated field of one line.
func blankField(text string, line, field int) string {
	rows := strings.Split(text, "\n")
	cols := strings.Split(rows[line], ",")
	cols[field] = ""
	rows[line] = strings.Join(cols, ",")
	return strings.Join(rows, "\n")
}

func requireNoNaN(t *testing.T, records []harnorm.NormalizedRecord) {
	t.Helper()
	for i, r := range records {
		for _, v := range []float64{r.AccelX, r.AccelY, r.AccelZ, r.GyroX, r.GyroY, r.GyroZ, r.AccelTimestamp, r.GyroTimestamp} {
			if math.IsNaN(v) {
				t.Fatalf("record %d has NaN: %+v", i, r)
			}
		}
	}
}

func TestWISDMResampleDropsIncompleteRows(t *testing.T) {
	root := t.TempDir()
	accel := wisdmLines("1600", map[string]int{"A": 200}, 252207666810782)
	accel = blankField(accel, 0, 2)
	accel = blankField(accel, 50, 3)
	writeFile(t, filepath.Join(root, "accel", "data_1600_accel_phone.txt"), accel)
	writeFile(t, filepath.Join(root, "gyro", "data_1600_gyro_phone.txt"), blankField(wisdmLines("1600", map[string]int{"A": 200}, 252207666830000), 120, 5))

	res := mustRead(t, "wisdm", root, Options{})
	walk := outcomeByID(t, res, "1600/A")
	if walk.Status != StatusOK || walk.Windows != 3 {
		t.Fatalf("outcome = %+v", walk)
	}
	requireNoNaN(t, res.Records)
}

func TestWISDMTruncateDropsIncompleteRows(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "accel", "data_1600_accel_phone.txt"), blankField(wisdmLines("1600", map[string]int{"A": 200}, 1_000_000_000), 10, 4))
	writeFile(t, filepath.Join(root, "gyro", "data_1600_gyro_phone.txt"), wisdmLines("1600", map[string]int{"A": 200}, 1_000_000_000))

	off := false
	res := mustRead(t, "wisdm", root, Options{Resample: &off})
	walk := outcomeByID(t, res, "1600/A")
	if walk.Status != StatusOK || walk.Windows != 3 || walk.Samples != 180 {
		t.Fatalf("outcome = %+v", walk)
	}
	requireNoNaN(t, res.Records)
	// Row 10 is gone, so the eleventh accelerometer sample is row 11.
	if got := res.Records[10].AccelTimestamp; got != 11*50_000_000 {
		t.Fatalf("record 10 accel timestamp = %v, want %v", got, 11*50_000_000)
	}
}

func TestWISDMKeepsNanosecondPrecision(t *testing.T) {
	root := t.TempDir()
	const t0 = 1_500_000_000_000_000_123
	writeFile(t, filepath.Join(root, "accel", "data_1600_accel_phone.txt"), wisdmLines("1600", map[string]int{"A": 120}, t0))
	writeFile(t, filepath.Join(root, "gyro", "data_1600_gyro_phone.txt"), wisdmLines("1600", map[string]int{"A": 120}, t0+7))

	off := false
	res := mustRead(t, "wisdm", root, Options{Resample: &off})
	for i, rec := range res.Records {
		want := float64(i) * 50_000_000
		if rec.AccelTimestamp != want || rec.GyroTimestamp != want {
			t.Fatalf("record %d timestamps = %v/%v, want %v", i, rec.AccelTimestamp, rec.GyroTimestamp, want)
		}
	}
}

func TestHIAACSkipsIncompleteSensorFile(t *testing.T) {
	root := t.TempDir()
	labels := "pro_label\nSTANDING\nRUN\n"
	writeFile(t, filepath.Join(root, "101", "accelerometer_RightPocket.csv"), hiaacSensor(600))
	writeFile(t, filepath.Join(root, "101", "gyroscope_RightPocket.csv"), blankField(hiaacSensor(600), 321, 2))
	writeFile(t, filepath.Join(root, "Label", "101", "Annotations.csv"), labels)
	writeFile(t, filepath.Join(root, "102", "accelerometer_RightPocket.csv"), hiaacSensor(600))
	writeFile(t, filepath.Join(root, "102", "gyroscope_RightPocket.csv"), hiaacSensor(600))
	writeFile(t, filepath.Join(root, "Label", "102", "Annotations.csv"), labels)

	res := mustRead(t, "hiaac", root, Options{})
	u101 := outcomeByID(t, res, "101/RightPocket")
	if u101.Status != StatusSkipped || !errors.Is(u101.Err, ErrMissingValues) {
		t.Fatalf("101 outcome = %+v", u101)
	}
	if !strings.Contains(u101.Reason, "gyroscope_RightPocket.csv") {
		t.Fatalf("reason %q does not name the file", u101.Reason)
	}
	u102 := outcomeByID(t, res, "102/RightPocket")
	if u102.Status != StatusOK || u102.Samples != 600 {
		t.Fatalf("102 outcome = %+v", u102)
	}
	if len(res.Records) != 600 {
		t.Fatalf("records = %d, want 600", len(res.Records))
	}
	requireNoNaN(t, res.Records)
}

func TestUCIDropsOnlyIncompleteRanges(t *testing.T) {
	root := t.TempDir()
	row := func(i int) string { return "0.1 0.2 0.3" }
	gyro := func(i int) string {
		if i == 100 {
			return "0.1 NaN 0.3"
		}
		return "0.1 0.2 0.3"
	}
	writeFile(t, filepath.Join(root, "acc_exp01_user01.txt"), lines("", 1000, row))
	writeFile(t, filepath.Join(root, "gyro_exp01_user01.txt"), lines("", 1000, gyro))
	writeFile(t, filepath.Join(root, "acc_exp02_user02.txt"), lines("", 400, row))
	writeFile(t, filepath.Join(root, "gyro_exp02_user02.txt"), lines("", 400, gyro))
	writeFile(t, filepath.Join(root, "labels.txt"), "1 1 5 0 449\n1 1 4 500 799\n2 2 1 0 399\n")

	res := mustRead(t, "uci", root, Options{})
	exp01 := outcomeByID(t, res, "exp01_user01")
	if exp01.Status != StatusOK || exp01.Windows != 2 || exp01.LabelsDropped != 1 {
		t.Fatalf("exp01 outcome = %+v", exp01)
	}
	for _, rec := range res.Records {
		if rec.Activity != harnorm.Sit {
			t.Fatalf("record from dropped range: %+v", rec)
		}
	}
	exp02 := outcomeByID(t, res, "exp02_user02")
	if exp02.Status != StatusSkipped || !errors.Is(exp02.Err, ErrMissingValues) {
		t.Fatalf("exp02 outcome = %+v", exp02)
	}
	requireNoNaN(t, res.Records)
}
