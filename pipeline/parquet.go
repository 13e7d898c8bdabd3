package pipeline

import (
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	harnorm "github.com/lucasjlepore/har-normalizer"
)

type recordParquetRow struct {
	AccelX         float64 `parquet:"name=accel-x, type=DOUBLE"`
	AccelY         float64 `parquet:"name=accel-y, type=DOUBLE"`
	AccelZ         float64 `parquet:"name=accel-z, type=DOUBLE"`
	GyroX          float64 `parquet:"name=gyro-x, type=DOUBLE"`
	GyroY          float64 `parquet:"name=gyro-y, type=DOUBLE"`
	GyroZ          float64 `parquet:"name=gyro-z, type=DOUBLE"`
	Activity       int32   `parquet:"name=activity-code, type=INT32"`
	User           string  `parquet:"name=user, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Position       string  `parquet:"name=position, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Trial          int64   `parquet:"name=trial, type=INT64"`
	AccelTimestamp float64 `parquet:"name=timestamp-accel, type=DOUBLE"`
	GyroTimestamp  float64 `parquet:"name=timestamp-gyro, type=DOUBLE"`
}

func toParquetRow(r harnorm.NormalizedRecord) recordParquetRow {
	return recordParquetRow{
		AccelX:         r.AccelX,
		AccelY:         r.AccelY,
		AccelZ:         r.AccelZ,
		GyroX:          r.GyroX,
		GyroY:          r.GyroY,
		GyroZ:          r.GyroZ,
		Activity:       int32(r.Activity),
		User:           r.User,
		Position:       r.Position,
		Trial:          int64(r.Trial),
		AccelTimestamp: r.AccelTimestamp,
		GyroTimestamp:  r.GyroTimestamp,
	}
}

func writeRecordsParquet(path string, records []harnorm.NormalizedRecord) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(recordParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range records {
		if err := pw.Write(toParquetRow(r)); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
