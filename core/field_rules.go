package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldRule maps one dotted source path in a raw payload onto a canonical
// lead field: target -> {source_path, transform}.
type FieldRule struct {
	ID          string         `json:"id"`
	Target      string         `json:"target"`
	SourcePath  string         `json:"source_path"`
	Transform   string         `json:"transform"`
	Required    bool           `json:"required,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

const customFieldPrefix = "custom_fields."

var canonicalTargets = map[string]struct{}{
	"name":    {},
	"email":   {},
	"phone":   {},
	"company": {},
	"source":  {},
	"value":   {},
}

type FieldRuleIssueSeverity string

const (
	FieldRuleIssueError   FieldRuleIssueSeverity = "error"
	FieldRuleIssueWarning FieldRuleIssueSeverity = "warning"
)

type FieldRuleIssue struct {
	Code       string
	Message    string
	Severity   FieldRuleIssueSeverity
	RuleID     string
	SourcePath string
	Target     string
}

type CompiledFieldRules struct {
	Rules             []FieldRule
	DeterministicHash string
}

type FieldRuleCompiler struct{}

func NewFieldRuleCompiler() *FieldRuleCompiler {
	return &FieldRuleCompiler{}
}

// Compile normalizes and validates a rule list. Rules with error issues are
// unusable; warnings keep the compiled set valid.
func (c *FieldRuleCompiler) Compile(rules []FieldRule) (CompiledFieldRules, []FieldRuleIssue, error) {
	if c == nil {
		return CompiledFieldRules{}, nil, fmt.Errorf("core: field rule compiler is required")
	}

	var issues []FieldRuleIssue
	targetToRuleID := make(map[string]string)
	compiled := make([]FieldRule, 0, len(rules))

	for _, rule := range rules {
		rule = normalizeFieldRule(rule)

		if rule.SourcePath == "" {
			issues = append(issues, fieldRuleIssue(
				"empty_source_path",
				fmt.Sprintf("core: rule %q has an empty source path", rule.ID),
				rule.ID, rule.SourcePath, rule.Target, FieldRuleIssueError,
			))
		}
		if !isCanonicalTarget(rule.Target) {
			issues = append(issues, fieldRuleIssue(
				"target_unknown",
				fmt.Sprintf("core: target %q is not a canonical lead field", rule.Target),
				rule.ID, rule.SourcePath, rule.Target, FieldRuleIssueError,
			))
		}
		if !isSupportedFieldTransform(rule.Transform) {
			issues = append(issues, fieldRuleIssue(
				"transform_unknown",
				fmt.Sprintf("core: unsupported transform %q", rule.Transform),
				rule.ID, rule.SourcePath, rule.Target, FieldRuleIssueError,
			))
		}
		if rule.Target == "value" && !isNumericCompatibleTransform(rule.Transform) {
			issues = append(issues, fieldRuleIssue(
				"target_type_incompatible",
				fmt.Sprintf("core: transform %q cannot produce a numeric value", rule.Transform),
				rule.ID, rule.SourcePath, rule.Target, FieldRuleIssueError,
			))
		}
		if existingID, duplicate := targetToRuleID[rule.Target]; duplicate {
			issues = append(issues, fieldRuleIssue(
				"target_duplicate",
				fmt.Sprintf("core: duplicate target %q for rules %q and %q", rule.Target, existingID, rule.ID),
				rule.ID, rule.SourcePath, rule.Target, FieldRuleIssueError,
			))
		} else if rule.Target != "" {
			targetToRuleID[rule.Target] = rule.ID
		}

		compiled = append(compiled, rule)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].Target != compiled[j].Target {
			return compiled[i].Target < compiled[j].Target
		}
		if compiled[i].SourcePath != compiled[j].SourcePath {
			return compiled[i].SourcePath < compiled[j].SourcePath
		}
		return compiled[i].ID < compiled[j].ID
	})

	out := CompiledFieldRules{Rules: compiled}
	hash, err := fieldRulesHash(compiled)
	if err != nil {
		return CompiledFieldRules{}, nil, err
	}
	out.DeterministicHash = hash

	sortFieldRuleIssues(issues)
	return out, issues, nil
}

func ContainsFieldRuleErrors(issues []FieldRuleIssue) bool {
	for _, issue := range issues {
		if issue.Severity == FieldRuleIssueError {
			return true
		}
	}
	return false
}

// ApplyFieldRules interprets a compiled rule set against a decoded payload
// and produces a canonical lead. Missing optional paths are skipped; missing
// required paths fail.
func ApplyFieldRules(compiled CompiledFieldRules, payload map[string]any) (CanonicalLead, error) {
	lead := CanonicalLead{CustomFields: map[string]any{}}
	for _, rule := range compiled.Rules {
		raw, found := LookupPath(payload, rule.SourcePath)
		if !found {
			if rule.Required {
				return CanonicalLead{}, fmt.Errorf(
					"core: required source path %q is missing from payload", rule.SourcePath,
				)
			}
			continue
		}
		value, err := applyFieldTransform(rule.Transform, raw)
		if err != nil {
			return CanonicalLead{}, fmt.Errorf("core: rule %q: %w", rule.ID, err)
		}
		if err := assignCanonicalField(&lead, rule.Target, value); err != nil {
			return CanonicalLead{}, fmt.Errorf("core: rule %q: %w", rule.ID, err)
		}
	}
	return lead, nil
}

// LookupPath resolves a dotted path against nested maps and slices. Numeric
// segments index into slices: "entry.0.changes.1.value".
func LookupPath(payload any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	current := payload
	for _, segment := range strings.Split(path, ".") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(typed) {
				return nil, false
			}
			current = typed[index]
		default:
			return nil, false
		}
	}
	return current, true
}

func assignCanonicalField(lead *CanonicalLead, target string, value any) error {
	if strings.HasPrefix(target, customFieldPrefix) {
		key := strings.TrimPrefix(target, customFieldPrefix)
		if lead.CustomFields == nil {
			lead.CustomFields = map[string]any{}
		}
		lead.CustomFields[key] = value
		return nil
	}
	switch target {
	case "name":
		lead.Name = fmt.Sprint(value)
	case "email":
		lead.Email = strings.TrimSpace(fmt.Sprint(value))
	case "phone":
		lead.Phone = strings.TrimSpace(fmt.Sprint(value))
	case "company":
		lead.Company = fmt.Sprint(value)
	case "source":
		lead.Source = strings.TrimSpace(fmt.Sprint(value))
	case "value":
		number, err := toFloatValue(value)
		if err != nil {
			return err
		}
		lead.Value = number
	default:
		return fmt.Errorf("core: unknown canonical target %q", target)
	}
	return nil
}

func normalizeFieldRule(rule FieldRule) FieldRule {
	rule.ID = strings.TrimSpace(rule.ID)
	rule.Target = strings.TrimSpace(strings.ToLower(rule.Target))
	rule.SourcePath = strings.TrimSpace(rule.SourcePath)
	rule.Transform = normalizeFieldTransform(rule.Transform)
	return rule
}

func normalizeFieldTransform(transform string) string {
	candidate := strings.TrimSpace(strings.ToLower(transform))
	if candidate == "" {
		return "identity"
	}
	return candidate
}

func isCanonicalTarget(target string) bool {
	if strings.HasPrefix(target, customFieldPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(target, customFieldPrefix)) != ""
	}
	_, ok := canonicalTargets[target]
	return ok
}

func isNumericCompatibleTransform(transform string) bool {
	switch normalizeFieldTransform(transform) {
	case "identity", "to_int", "to_float":
		return true
	default:
		return false
	}
}

func fieldRuleIssue(
	code string,
	message string,
	ruleID string,
	sourcePath string,
	target string,
	severity FieldRuleIssueSeverity,
) FieldRuleIssue {
	return FieldRuleIssue{
		Code:       strings.TrimSpace(strings.ToLower(code)),
		Message:    strings.TrimSpace(message),
		Severity:   severity,
		RuleID:     strings.TrimSpace(ruleID),
		SourcePath: strings.TrimSpace(sourcePath),
		Target:     strings.TrimSpace(target),
	}
}

func sortFieldRuleIssues(issues []FieldRuleIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		left := issues[i]
		right := issues[j]
		if left.Severity != right.Severity {
			return left.Severity < right.Severity
		}
		if left.Code != right.Code {
			return left.Code < right.Code
		}
		if left.RuleID != right.RuleID {
			return left.RuleID < right.RuleID
		}
		return left.Target < right.Target
	})
}

func fieldRulesHash(rules []FieldRule) (string, error) {
	payload, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("core: marshal field rules: %w", err)
	}
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:]), nil
}
