package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Request struct {
	SQL string
}

type Result struct {
	Columns  []string
	Rows     []Row
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// Row maps column names to values in the order the database returned them.
type Row struct {
	Columns []string
	Values  []any
}

func NewRow(columns []string, values []any) Row {
	return Row{Columns: columns, Values: values}
}

// Get returns the value of the last column named name.
func (r Row) Get(name string) (any, bool) {
	for i := len(r.Columns) - 1; i >= 0; i-- {
		if r.Columns[i] == name && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON writes the row as an object keyed by column. A repeated column
// name keeps its first position and its last value.
func (r Row) MarshalJSON() ([]byte, error) {
	last := make(map[string]int, len(r.Columns))
	for i, column := range r.Columns {
		if i < len(r.Values) {
			last[column] = i
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	for _, column := range r.Columns {
		index, ok := last[column]
		if !ok {
			continue
		}
		delete(last, column)

		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Values[index])
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", column, err)
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		written++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
