package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ReadParquet decodes a dataset whose columns are the snake_case names of
// fertility_stats.
func ReadParquet(r io.ReaderAt) ([]Record, error) {
	reader := parquet.NewGenericReader[Record](r)
	defer func() { _ = reader.Close() }()

	total := reader.NumRows()
	records := make([]Record, 0, total)
	buf := make([]Record, 256)
	for int64(len(records)) < total {
		count, err := reader.Read(buf)
		records = append(records, buf[:count]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
		if count == 0 {
			break
		}
	}
	return records, nil
}

// EncodeParquet writes records in the layout ReadParquet expects.
func EncodeParquet(records []Record) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[Record](buf)
	if _, err := writer.Write(records); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
