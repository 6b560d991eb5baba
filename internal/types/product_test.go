package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestProductIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ProductID
	}{
		{"number", `{"id": 3324094}`, "3324094"},
		{"string", `{"id": "3324094"}`, "3324094"},
		{"alphanumeric string", `{"id": "SPLIT_99"}`, "SPLIT_99"},
		{"null", `{"id": null}`, ""},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s ProductSummary
			if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if s.ID != tt.want {
				t.Errorf("id = %q, want %q", s.ID, tt.want)
			}
		})
	}
}

func TestProductIDUnmarshalRejectsObjects(t *testing.T) {
	var s ProductSummary
	if err := json.Unmarshal([]byte(`{"id": {"nested": true}}`), &s); err == nil {
		t.Fatal("expected error for object-valued id")
	}
}

func TestProductIDMarshal(t *testing.T) {
	tests := []struct {
		name string
		id   ProductID
		want string
	}{
		{"numeric id stays a number", "3324094", `3324094`},
		{"non-numeric id stays a string", "SPLIT_99", `"SPLIT_99"`},
		{"empty id is null", "", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.id)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeProductSummary(t *testing.T) {
	row := json.RawMessage(`{"id": 42, "name": "Pixel 9", "lowestPrice": {"amount": "499.00", "currency": "GBP"}}`)
	s, err := DecodeProductSummary(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.ID != "42" {
		t.Errorf("id = %q, want %q", s.ID, "42")
	}
	if s.Name != "Pixel 9" {
		t.Errorf("name = %q, want %q", s.Name, "Pixel 9")
	}

	if _, err := DecodeProductSummary(json.RawMessage(`[1,2]`)); err == nil {
		t.Error("expected error for non-object row")
	}
}

func TestProductRecordAbsentPayloadsMarshalAsNull(t *testing.T) {
	rec := ProductRecord{
		ProductID:   "7",
		CategoryID:  19,
		ProductName: "Test",
		InitialData: json.RawMessage(`{"ok": true}`),
		PriceHistory: map[string]json.RawMessage{
			"THREE_MONTHS": nil,
		},
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, want := range []string{`"offers":null`, `"reviews":null`, `"similar_products":null`, `"THREE_MONTHS":null`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if !strings.Contains(string(out), `"initial_data":{"ok":true}`) {
		t.Errorf("initial_data not embedded verbatim:\n%s", out)
	}
}
