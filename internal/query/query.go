package query

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Row is one result row keyed by column label. Keys keep the order in which
// they first appear; a repeated label keeps its first position and its last
// value.
type Row struct {
	keys   []string
	values map[string]any
}

func NewRow(columns []string, values []any) Row {
	row := Row{keys: make([]string, 0, len(columns)), values: make(map[string]any, len(columns))}
	for i, column := range columns {
		var value any
		if i < len(values) {
			value = values[i]
		}
		row.Set(column, value)
	}
	return row
}

func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r Row) Get(key string) (any, bool) {
	value, ok := r.values[key]
	return value, ok
}

func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r Row) Len() int {
	return len(r.keys)
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		rawKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		rawValue, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", key, err)
		}
		buf.Write(rawKey)
		buf.WriteByte(':')
		buf.Write(rawValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type ResultSet struct {
	Columns  []string
	Rows     []Row
	Duration time.Duration
}

// Executor runs caller-validated SQL text on a pooled connection. The text
// must hold a single statement.
type Executor struct {
	db *sql.DB
	// RowLimit stops reading after N rows. Zero reads everything.
	RowLimit int
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (ResultSet, error) {
	if e == nil || e.db == nil {
		return ResultSet{}, fmt.Errorf("database is required")
	}
	// Drivers such as go-sqlite3 and go-duckdb run every statement they are
	// given, so the text is checked before it reaches one.
	if n := countStatements(sqlText); n > 1 {
		return ResultSet{}, fmt.Errorf("execute query: %w (found %d)", ErrMultipleStatements, n)
	}
	start := time.Now()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return ResultSet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return ResultSet{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return ResultSet{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([]Row, 0)
	for rows.Next() {
		if e.RowLimit > 0 && len(resultRows) >= e.RowLimit {
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return ResultSet{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, NewRow(columns, normalizeValues(values)))
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, fmt.Errorf("iterate rows: %w", err)
	}

	return ResultSet{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		normalized[i] = normalizeValue(value)
	}
	return normalized
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	case int:
		return int64(typed)
	case int8:
		return int64(typed)
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case uint:
		return normalizeUnsigned(uint64(typed))
	case uint8:
		return int64(typed)
	case uint16:
		return int64(typed)
	case uint32:
		return int64(typed)
	case uint64:
		return normalizeUnsigned(typed)
	case float32:
		return float64(typed)
	default:
		return typed
	}
}

func normalizeUnsigned(value uint64) any {
	if value > math.MaxInt64 {
		return value
	}
	return int64(value)
}
