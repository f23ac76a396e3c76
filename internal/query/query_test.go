package query

import (
	"encoding/json"
	"testing"
)

func TestRowMarshalPreservesColumnOrder(t *testing.T) {
	row := NewRow([]string{"name", "id", "score"}, []any{"Ada", int64(1), nil})
	raw, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `{"name":"Ada","id":1,"score":null}` {
		t.Fatalf("json = %s", raw)
	}
}

func TestRowMarshalRepeatedColumnKeepsLastValue(t *testing.T) {
	row := NewRow([]string{"id", "name", "id"}, []any{1, "Ada", 2})
	raw, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `{"id":2,"name":"Ada"}` {
		t.Fatalf("json = %s", raw)
	}
	if value, ok := row.Get("id"); !ok || value != 2 {
		t.Fatalf("Get(id) = %v, %v", value, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Fatal("Get(missing) should report absence")
	}
}

func TestRowMarshalEmpty(t *testing.T) {
	raw, err := json.Marshal([]Row{NewRow(nil, nil)})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `[{}]` {
		t.Fatalf("json = %s", raw)
	}
}
