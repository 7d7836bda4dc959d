package csvstory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is one record of a tabular payload. Keys keeps the column order in which
// the backend emitted the object, so headers can be derived from it.
type Row struct {
	Keys   []string
	Values map[string]any
}

// NewRow builds a Row from alternating key, value arguments.
func NewRow(kv ...any) Row {
	r := Row{Values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if _, seen := r.Values[key]; !seen {
			r.Keys = append(r.Keys, key)
		}
		r.Values[key] = kv[i+1]
	}
	return r
}

// Get returns the value stored under key. A JSON null is reported as
// (nil, true); a missing key as (nil, false).
func (r Row) Get(key string) (any, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// UnmarshalJSON decodes a JSON object while preserving its key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	r.Keys = nil
	r.Values = make(map[string]any)
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("row: value for %q: %w", key, err)
		}
		if _, seen := r.Values[key]; !seen {
			r.Keys = append(r.Keys, key)
		}
		r.Values[key] = v
	}

	// Consume the closing brace.
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the row as a JSON object in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormatValue renders a cell value as display text. Callers handle nil
// themselves since absent values get a distinct marker.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
