package sources

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses a CSV document with a header row. The delimiter is ';'
// when the header contains more semicolons than commas, ',' otherwise.
// At most maxRows records are kept; total counts every data row.
func ParseCSV(data []byte, maxRows int) ([]dataset.Record, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return []dataset.Record{}, 0, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, errors.WrapParse("csv", "", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make([]dataset.Record, 0, min(maxRows, 64))
	total := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if stderrors.As(err, &perr) {
				line = perr.Line
			}
			return nil, 0, &errors.ParseError{Format: "csv", Line: line, Message: err.Error(), Err: err}
		}
		total++
		if len(records) >= maxRows {
			continue
		}
		rec := make(dataset.Record, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, total, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// recordKeys are the object keys that commonly wrap a record array.
var recordKeys = []string{"results", "data", "records", "items"}

// ParseJSON parses an array of objects, an object wrapping such an array
// under a well-known key, or a single object. At most maxRows are kept.
func ParseJSON(data []byte, maxRows int) ([]dataset.Record, int, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, errors.WrapParse("json", "", err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
		for _, key := range recordKeys {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
	default:
		items = []any{doc}
	}

	records := make([]dataset.Record, 0, min(maxRows, len(items)))
	for _, item := range items {
		if len(records) >= maxRows {
			break
		}
		if obj, ok := item.(map[string]any); ok {
			records = append(records, dataset.Record(obj))
		} else {
			records = append(records, dataset.Record{"value": item})
		}
	}
	return records, len(items), nil
}

// ParseAPI parses a generic API response: JSON when possible, otherwise a
// single record holding the raw body.
func ParseAPI(data []byte, maxRows int) ([]dataset.Record, int, error) {
	if records, total, err := ParseJSON(data, maxRows); err == nil {
		return records, total, nil
	}
	return []dataset.Record{{"raw_content": string(data)}}, 1, nil
}
