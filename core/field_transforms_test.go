package core

import (
	"encoding/json"
	"testing"
)

func TestApplyFieldTransform_Strings(t *testing.T) {
	cases := []struct {
		transform string
		input     any
		want      any
	}{
		{"trim", "  hello  ", "hello"},
		{"lowercase", "HeLLo", "hello"},
		{"uppercase", "hello", "HELLO"},
		{"title_case", "ada LOVELACE", "Ada Lovelace"},
		{"split_first", "Ada Lovelace", "Ada"},
		{"split_last", "Ada King Lovelace", "Lovelace"},
		{"split_first", "   ", ""},
		{"to_string", json.Number("42"), "42"},
	}
	for _, tc := range cases {
		got, err := applyFieldTransform(tc.transform, tc.input)
		if err != nil {
			t.Fatalf("%s(%v) failed: %v", tc.transform, tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("%s(%v) = %v, want %v", tc.transform, tc.input, got, tc.want)
		}
	}
}

func TestApplyFieldTransform_Numbers(t *testing.T) {
	got, err := applyFieldTransform("to_int", json.Number("41.9"))
	if err != nil {
		t.Fatalf("to_int failed: %v", err)
	}
	if got != int64(41) {
		t.Fatalf("expected 41, got %v", got)
	}

	got, err = applyFieldTransform("to_float", "12.5")
	if err != nil {
		t.Fatalf("to_float failed: %v", err)
	}
	if got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}

	got, err = applyFieldTransform("to_bool", "yes")
	if err != nil {
		t.Fatalf("to_bool failed: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}

	if _, err := applyFieldTransform("to_int", "not-a-number"); err == nil {
		t.Fatalf("expected conversion error")
	}
}

func TestApplyFieldTransform_UnixTime(t *testing.T) {
	got, err := applyFieldTransform("unix_time_to_rfc3339", json.Number("1700000000"))
	if err != nil {
		t.Fatalf("unix transform failed: %v", err)
	}
	if got != "2023-11-14T22:13:20Z" {
		t.Fatalf("unexpected timestamp: %v", got)
	}
}

func TestApplyFieldTransform_DefaultsToIdentity(t *testing.T) {
	got, err := applyFieldTransform("", "as-is")
	if err != nil {
		t.Fatalf("identity failed: %v", err)
	}
	if got != "as-is" {
		t.Fatalf("expected as-is, got %v", got)
	}

	if _, err := applyFieldTransform("rot13", "x"); err == nil {
		t.Fatalf("expected unsupported transform error")
	}
}

func TestApplyFieldTransform_TextTransformsRejectNonStrings(t *testing.T) {
	if _, err := applyFieldTransform("trim", 42); err == nil {
		t.Fatalf("expected trim to reject non-string input")
	}
	if _, err := applyFieldTransform("title_case", []any{"x"}); err == nil {
		t.Fatalf("expected title_case to reject non-string input")
	}
}
