package extract

import "testing"

func TestParseLines(t *testing.T) {
	text := "Invoice No: INV1\nTotal: 500\nNotAField: xyz"
	fields := ParseLines(text)

	if fields.Malformed != 0 {
		t.Errorf("malformed = %d, want 0", fields.Malformed)
	}
	if len(fields.Pairs) != 3 {
		t.Fatalf("pairs = %d, want 3", len(fields.Pairs))
	}
	for _, tc := range []struct{ name, want string }{
		{"Invoice No", "INV1"},
		{"Total", "500"},
		{"NotAField", "xyz"},
	} {
		got, ok := fields.Get(tc.name)
		if !ok || got != tc.want {
			t.Errorf("Get(%q) = %q, %v; want %q, true", tc.name, got, ok, tc.want)
		}
	}
}

func TestParseLinesMalformedAndBlank(t *testing.T) {
	text := "no separator here\n\n  \nTotal: 12\n: missing name"
	fields := ParseLines(text)

	if fields.Malformed != 2 {
		t.Errorf("malformed = %d, want 2", fields.Malformed)
	}
	if len(fields.Pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(fields.Pairs))
	}
	if fields.Pairs[0].Name != "Total" || fields.Pairs[0].Value != "12" {
		t.Errorf("pair = %+v, want Total=12", fields.Pairs[0])
	}
}

func TestParseLinesDuplicateKeepsLast(t *testing.T) {
	fields := ParseLines("Total: 1\nTotal: 2")

	if len(fields.Pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(fields.Pairs))
	}
	if v, _ := fields.Get("Total"); v != "2" {
		t.Errorf("Total = %q, want 2 (last value wins)", v)
	}
}

func TestParseLinesValueWithColon(t *testing.T) {
	fields := ParseLines("Time: 12:34:56")

	if v, ok := fields.Get("Time"); !ok || v != "12:34:56" {
		t.Errorf("Time = %q, want 12:34:56 (only first colon splits)", v)
	}
}

func TestParseJSONFields(t *testing.T) {
	declared := []string{"Total", "Vendor", "Date"}
	fields, err := ParseJSONFields([]byte(`{"Vendor": "ACME", "Total": "500"}`), declared)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Declared order, not JSON key order; absent fields omitted.
	if len(fields.Pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(fields.Pairs))
	}
	if fields.Pairs[0].Name != "Total" || fields.Pairs[0].Value != "500" {
		t.Errorf("pair[0] = %+v, want Total=500", fields.Pairs[0])
	}
	if fields.Pairs[1].Name != "Vendor" || fields.Pairs[1].Value != "ACME" {
		t.Errorf("pair[1] = %+v, want Vendor=ACME", fields.Pairs[1])
	}
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildFieldsJSONSchema([]string{"Total", "Vendor"})

	if err := ValidateJSONAgainstSchema(schema, []byte(`{"Total": "500"}`)); err != nil {
		t.Errorf("valid subset rejected: %v", err)
	}
	if err := ValidateJSONAgainstSchema(schema, []byte(`{"Bogus": "x"}`)); err == nil {
		t.Error("undeclared property accepted, want validation failure")
	}
	if err := ValidateJSONAgainstSchema(schema, []byte(`not json`)); err == nil {
		t.Error("malformed JSON accepted, want failure")
	}
}
