package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	columnRegion           = "REGION"
	columnTotalNumber      = "TOTAL NUMBER"
	columnTotalRate        = "TOTAL RATE"
	columnTotalNumberWhite = "TOTAL NUMBER WHITE"
	columnTotalRateWhite   = "TOTAL RATE WHITE"
	columnTotalNumberBlack = "TOTAL NUMBER BLACK"
	columnTotalRateBlack   = "TOTAL RATE BLACK"
)

var expectedColumns = []string{
	columnRegion,
	columnTotalNumber,
	columnTotalRate,
	columnTotalNumberWhite,
	columnTotalRateWhite,
	columnTotalNumberBlack,
	columnTotalRateBlack,
}

// Tokens read as missing values.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-NaN": {}, "-nan": {},
	"<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// ReadCSV parses a dataset with the upper-case header used by the published
// fertility tables. Extra columns are ignored.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}
	for _, column := range expectedColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("missing expected column: %s", column)
		}
	}

	records := make([]Record, 0)
	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		field := func(column string) string {
			i := index[column]
			if i >= len(fields) {
				return ""
			}
			return fields[i]
		}

		record := Record{Region: strings.TrimSpace(field(columnRegion))}
		ints := []struct {
			column string
			dst    **int64
		}{
			{columnTotalNumber, &record.TotalNumber},
			{columnTotalNumberWhite, &record.TotalNumberWhite},
			{columnTotalNumberBlack, &record.TotalNumberBlack},
		}
		for _, item := range ints {
			value, err := cleanInt(field(item.column))
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, item.column, err)
			}
			*item.dst = value
		}
		record.TotalRate = coerceFloat(field(columnTotalRate))
		record.TotalRateWhite = coerceFloat(field(columnTotalRateWhite))
		record.TotalRateBlack = coerceFloat(field(columnTotalRateBlack))
		records = append(records, record)
	}
	return records, nil
}

// cleanInt strips thousands separators. Missing values become nil; anything
// else that is not a whole number is an error.
func cleanInt(raw string) (*int64, error) {
	if isMissing(raw) {
		return nil, nil
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if value, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return &value, nil
	}
	asFloat, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || asFloat != math.Trunc(asFloat) || math.IsInf(asFloat, 0) {
		return nil, fmt.Errorf("invalid integer %q", raw)
	}
	value := int64(asFloat)
	return &value, nil
}

// coerceFloat returns nil for anything that does not parse.
func coerceFloat(raw string) *float64 {
	if isMissing(raw) {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

func isMissing(raw string) bool {
	_, ok := missingTokens[strings.TrimSpace(raw)]
	return ok
}
