package orbital

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecodeAll(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		count   int
		wantErr bool
	}{
		{"array", `[{"A":1,"EC":0.1,"GM":"2.0"},{"A":2}]`, 2, false},
		{"ndjson", "{\"A\":1}\n{\"A\":2}\n{\"A\":3}\n", 3, false},
		{"leading whitespace", "\n\t [ {\"A\":1} ]", 1, false},
		{"empty", "", 0, false},
		{"empty array", "[]", 0, false},
		{"truncated array", `[{"A":1},`, 1, true},
		{"unclosed array", `[{"A":1}`, 1, true},
		{"open bracket only", `[`, 0, true},
		{"garbage", `{"A":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAll(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeAll() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.count {
				t.Errorf("expected %d records, got %d", tt.count, len(got))
			}
		})
	}
}

func TestDecoder_GMForms(t *testing.T) {
	input := `[{"GM":"1.5"},{"GM":2.5},{"GM":null},{}]`
	got, err := DecodeAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []GravText{"1.5", "2.5", "", ""}
	for i, w := range want {
		if got[i].GM != w {
			t.Errorf("record %d: GM = %q, want %q", i, got[i].GM, w)
		}
	}
}

func TestDecoder_ErrorNamesRecord(t *testing.T) {
	d := NewDecoder(strings.NewReader("{\"A\":1}\n{\"A\":\"x\"}\n"))
	if _, err := d.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, err := d.Next()
	if err == nil || !strings.Contains(err.Error(), "record 1") {
		t.Errorf("expected error naming record 1, got %v", err)
	}
}

func TestIngest(t *testing.T) {
	input := `[{"A":1,"GM":"1.0"},{"A":2,"EC":0.5,"MA":10},{"A":3,"GM":"bad"}]`
	opts := DefaultIngestOptions()
	opts.Comet = true

	bodies, stats, err := Ingest(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(bodies) != 3 || stats.Records != 3 {
		t.Fatalf("expected 3 bodies, got %d (stats %+v)", len(bodies), stats)
	}
	if stats.ZeroMass != 2 {
		t.Errorf("expected 2 zero-mass records, got %d", stats.ZeroMass)
	}
	for i, b := range bodies {
		if !b.IsComet {
			t.Errorf("body %d: expected comet flag", i)
		}
	}
}

func TestIngest_TruncatedArray(t *testing.T) {
	tests := []string{
		`[{"A":1},{"A":2}`,
		`[{"A":1},`,
		`[`,
	}
	for _, input := range tests {
		_, _, err := Ingest(strings.NewReader(input), DefaultIngestOptions())
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Ingest(%q) error = %v, want io.ErrUnexpectedEOF", input, err)
		}
	}
}
