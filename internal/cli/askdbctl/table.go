package askdbctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// renderTable returns "" for commands that have no tabular form.
func renderTable(command string, raw []byte) (string, error) {
	switch command {
	case "ask":
		var response struct {
			SQL     string          `json:"sql"`
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &response); err != nil {
			return "", fmt.Errorf("decode ask response: %w", err)
		}
		columns, rows, err := decodeOrderedRows(response.Results)
		if err != nil {
			return "", err
		}
		if len(columns) == 0 {
			return response.SQL + "\n(no rows)", nil
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(append(pterm.TableData{columns}, rows...)).Srender()
		if err != nil {
			return "", err
		}
		return response.SQL + "\n\n" + table, nil
	case "schema":
		var response struct {
			Tables []struct {
				Name    string   `json:"name"`
				Columns []string `json:"columns"`
			} `json:"tables"`
		}
		if err := json.Unmarshal(raw, &response); err != nil {
			return "", fmt.Errorf("decode schema response: %w", err)
		}
		data := pterm.TableData{{"table", "columns"}}
		for _, table := range response.Tables {
			data = append(data, []string{table.Name, strings.Join(table.Columns, ", ")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	default:
		return "", nil
	}
}

// decodeOrderedRows keeps the key order of each JSON object. Columns come
// from the first row.
func decodeOrderedRows(raw json.RawMessage) ([]string, [][]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if _, err := expectDelim(decoder, '['); err != nil {
		return nil, nil, err
	}

	var columns []string
	var rows [][]string
	for decoder.More() {
		if _, err := expectDelim(decoder, '{'); err != nil {
			return nil, nil, err
		}
		keys := make([]string, 0)
		values := make([]string, 0)
		for decoder.More() {
			token, err := decoder.Token()
			if err != nil {
				return nil, nil, fmt.Errorf("decode row key: %w", err)
			}
			key, ok := token.(string)
			if !ok {
				return nil, nil, fmt.Errorf("unexpected row key %v", token)
			}
			var value any
			if err := decoder.Decode(&value); err != nil {
				return nil, nil, fmt.Errorf("decode row value: %w", err)
			}
			keys = append(keys, key)
			values = append(values, formatCell(value))
		}
		if _, err := expectDelim(decoder, '}'); err != nil {
			return nil, nil, err
		}
		if columns == nil {
			columns = keys
		}
		rows = append(rows, values)
	}
	if _, err := expectDelim(decoder, ']'); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return columns, rows, nil
}

func expectDelim(decoder *json.Decoder, want json.Delim) (json.Delim, error) {
	token, err := decoder.Token()
	if err != nil {
		return 0, err
	}
	delim, ok := token.(json.Delim)
	if !ok || delim != want {
		return 0, fmt.Errorf("expected %q, got %v", want, token)
	}
	return delim, nil
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}
