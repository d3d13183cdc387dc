// Package seed loads the fertility demo dataset into fertility_stats.
package seed

// Record is one dataset row. Nil fields are stored as NULL.
type Record struct {
	Region           string   `parquet:"region"`
	TotalNumber      *int64   `parquet:"total_number"`
	TotalRate        *float64 `parquet:"total_rate"`
	TotalNumberWhite *int64   `parquet:"total_number_white"`
	TotalRateWhite   *float64 `parquet:"total_rate_white"`
	TotalNumberBlack *int64   `parquet:"total_number_black"`
	TotalRateBlack   *float64 `parquet:"total_rate_black"`
}
