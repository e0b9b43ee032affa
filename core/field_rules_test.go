package core

import (
	"strings"
	"testing"
)

func TestFieldRuleCompiler_ValidRules(t *testing.T) {
	compiler := NewFieldRuleCompiler()
	compiled, issues, err := compiler.Compile([]FieldRule{
		{ID: "r1", Target: "Name", SourcePath: "contact.full_name", Transform: "trim"},
		{ID: "r2", Target: "email", SourcePath: "contact.email", Transform: "lowercase", Required: true},
		{ID: "r3", Target: "value", SourcePath: "deal.amount", Transform: "to_float"},
		{ID: "r4", Target: "custom_fields.utm_source", SourcePath: "tracking.utm"},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if ContainsFieldRuleErrors(issues) {
		t.Fatalf("expected no error issues, got: %+v", issues)
	}
	if len(compiled.Rules) != 4 {
		t.Fatalf("expected 4 compiled rules, got %d", len(compiled.Rules))
	}
	if compiled.DeterministicHash == "" {
		t.Fatalf("expected a deterministic hash")
	}
	if compiled.Rules[0].Target != "custom_fields.utm_source" {
		t.Fatalf("expected rules sorted by target, got first %q", compiled.Rules[0].Target)
	}
}

func TestFieldRuleCompiler_HashIsOrderIndependent(t *testing.T) {
	compiler := NewFieldRuleCompiler()
	rules := []FieldRule{
		{ID: "r1", Target: "name", SourcePath: "a"},
		{ID: "r2", Target: "email", SourcePath: "b"},
	}
	first, _, err := compiler.Compile(rules)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	second, _, err := compiler.Compile([]FieldRule{rules[1], rules[0]})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if first.DeterministicHash != second.DeterministicHash {
		t.Fatalf("expected identical hashes for reordered rules")
	}
}

func TestFieldRuleCompiler_ReportsIssues(t *testing.T) {
	compiler := NewFieldRuleCompiler()
	_, issues, err := compiler.Compile([]FieldRule{
		{ID: "r1", Target: "name", SourcePath: ""},
		{ID: "r2", Target: "nickname", SourcePath: "a"},
		{ID: "r3", Target: "email", SourcePath: "b", Transform: "rot13"},
		{ID: "r4", Target: "value", SourcePath: "c", Transform: "uppercase"},
		{ID: "r5", Target: "phone", SourcePath: "d"},
		{ID: "r6", Target: "phone", SourcePath: "e"},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if !ContainsFieldRuleErrors(issues) {
		t.Fatalf("expected error issues")
	}

	wantCodes := []string{"empty_source_path", "target_unknown", "transform_unknown", "target_type_incompatible", "target_duplicate"}
	for _, want := range wantCodes {
		found := false
		for _, issue := range issues {
			if issue.Code == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected issue code %q in %+v", want, issues)
		}
	}
}

func TestApplyFieldRules(t *testing.T) {
	compiler := NewFieldRuleCompiler()
	compiled, issues, err := compiler.Compile([]FieldRule{
		{ID: "r1", Target: "name", SourcePath: "person.name", Transform: "title_case"},
		{ID: "r2", Target: "email", SourcePath: "person.email", Transform: "lowercase", Required: true},
		{ID: "r3", Target: "value", SourcePath: "deal.amount", Transform: "to_float"},
		{ID: "r4", Target: "custom_fields.campaign", SourcePath: "meta.campaign"},
		{ID: "r5", Target: "phone", SourcePath: "person.phone"},
	})
	if err != nil || ContainsFieldRuleErrors(issues) {
		t.Fatalf("compile failed: err=%v issues=%+v", err, issues)
	}

	payload, err := DecodePayload([]byte(`{
		"person": {"name": "ada LOVELACE", "email": "Ada@Example.COM"},
		"deal": {"amount": "149.50"},
		"meta": {"campaign": "spring"}
	}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	lead, err := ApplyFieldRules(compiled, payload)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if lead.Name != "Ada Lovelace" {
		t.Fatalf("expected title-cased name, got %q", lead.Name)
	}
	if lead.Email != "ada@example.com" {
		t.Fatalf("expected lowercased email, got %q", lead.Email)
	}
	if lead.Value != 149.50 {
		t.Fatalf("expected value 149.50, got %v", lead.Value)
	}
	if lead.CustomFields["campaign"] != "spring" {
		t.Fatalf("expected campaign custom field, got %+v", lead.CustomFields)
	}
	if lead.Phone != "" {
		t.Fatalf("expected missing optional path to be skipped, got %q", lead.Phone)
	}
}

func TestApplyFieldRules_RequiredPathMissing(t *testing.T) {
	compiler := NewFieldRuleCompiler()
	compiled, _, err := compiler.Compile([]FieldRule{
		{ID: "r1", Target: "email", SourcePath: "person.email", Required: true},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	_, err = ApplyFieldRules(compiled, map[string]any{"person": map[string]any{}})
	if err == nil || !strings.Contains(err.Error(), "required source path") {
		t.Fatalf("expected required-path error, got: %v", err)
	}
}

func TestLookupPath(t *testing.T) {
	payload := map[string]any{
		"entry": []any{
			map[string]any{
				"changes": []any{
					map[string]any{"value": map[string]any{"form_id": "f-1"}},
				},
			},
		},
	}

	value, found := LookupPath(payload, "entry.0.changes.0.value.form_id")
	if !found {
		t.Fatalf("expected path to resolve")
	}
	if value != "f-1" {
		t.Fatalf("expected f-1, got %v", value)
	}

	if _, found := LookupPath(payload, "entry.5.changes"); found {
		t.Fatalf("expected out-of-range index to miss")
	}
	if _, found := LookupPath(payload, "entry.0.missing"); found {
		t.Fatalf("expected unknown key to miss")
	}
	if _, found := LookupPath(payload, ""); found {
		t.Fatalf("expected empty path to miss")
	}
}
