// Package policy implements the PreToolUse admission state machine
// and the PostToolUse wrapping rule (C7). PreToolUse rules are
// evaluated in order; the first match wins.
//
// Grounded on the teacher's guard/admission layering style found
// across internal/shards (sequential, first-match rule evaluation
// producing a single verdict + reason) adapted to this package's
// allow/ask/deny vocabulary — the teacher has no direct analogue of a
// tool-call gate, so the state machine's shape itself is original to
// the contract and grounded instead on §4.C7's literal rule order.
package policy

import (
	"regexp"
	"strings"

	"github.com/hookguard/hookguard/internal/contract"
	"github.com/hookguard/hookguard/internal/rules"
)

// Decision is a PreToolUse verdict.
type Decision string

const (
	Allow Decision = "allow"
	Ask   Decision = "ask"
	Deny  Decision = "deny"
)

// Result is the outcome of evaluating the PreToolUse rules.
type Result struct {
	Decision Decision
	Reason   string // ≤300 chars, clipped by the caller before JSON encoding
}

// Input bundles everything the PreToolUse rules need. Issues and
// ContractChanges must both be computed against NewText.
type Input struct {
	Offline         bool
	Sensitivity     string // "low" | "medium" | "high"
	IsTestPath      bool
	Issues          []rules.Issue
	ContractChanges []contract.Change
	OldText         string
	NewText         string
}

// Evaluate runs the five PreToolUse rules in order, returning the
// first match.
func Evaluate(in Input) Result {
	if d, ok := offlineCriticalSecurityDeny(in); ok {
		return d
	}
	if d, ok := contractReductionDeny(in); ok {
		return d
	}
	if d, ok := semanticallyEmptyAsk(in); ok {
		return d
	}
	if d, ok := fakeImplementationVerdict(in); ok {
		return d
	}
	return Result{Decision: Allow}
}

func offlineCriticalSecurityDeny(in Input) (Result, bool) {
	if !in.Offline {
		return Result{}, false
	}
	for _, iss := range in.Issues {
		if iss.Severity == rules.Critical && (iss.Category == rules.CategorySecurity || iss.Category == rules.CategoryAntiCheat) {
			return Result{Decision: Deny, Reason: "Critical " + string(iss.Category) + " issue " + string(iss.RuleID) + " in offline mode"}, true
		}
	}
	return Result{}, false
}

func contractReductionDeny(in Input) (Result, bool) {
	if !contract.HasReducedArity(in.ContractChanges) {
		return Result{}, false
	}
	hasSecurityRisk := false
	for _, iss := range in.Issues {
		if iss.Category == rules.CategorySecurity {
			hasSecurityRisk = true
			break
		}
	}
	trigger := in.Sensitivity == "high" || (hasSecurityRisk && (in.Sensitivity == "medium" || in.Sensitivity == "high"))
	if !trigger {
		return Result{}, false
	}
	var params []string
	for _, c := range in.ContractChanges {
		if c.Kind == contract.ReducedArity && c.RemovedParam != "" {
			params = append(params, c.RemovedParam)
		}
	}
	reason := "CONTRACT_REDUCED_ARITY: removed parameter"
	if len(params) > 0 {
		reason += " " + strings.Join(params, ", ")
	}
	return Result{Decision: Deny, Reason: reason}, true
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)//.*$|#.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// normalizeForEmptyCheck strips comments and whitespace so a change
// that only touches formatting or comments compares equal.
func normalizeForEmptyCheck(text string) string {
	stripped := blockCommentRe.ReplaceAllString(text, "")
	stripped = lineCommentRe.ReplaceAllString(stripped, "")
	return whitespaceRe.ReplaceAllString(stripped, "")
}

func semanticallyEmptyAsk(in Input) (Result, bool) {
	if in.OldText == "" && in.NewText == "" {
		return Result{}, false
	}
	if normalizeForEmptyCheck(in.OldText) == normalizeForEmptyCheck(in.NewText) && in.OldText != in.NewText {
		return Result{Decision: Ask, Reason: "empty change"}, true
	}
	return Result{}, false
}

func isFakeRule(id rules.RuleID) bool {
	return strings.HasPrefix(string(id), "FAKE_")
}

func fakeImplementationVerdict(in Input) (Result, bool) {
	var fake *rules.Issue
	for i := range in.Issues {
		if isFakeRule(in.Issues[i].RuleID) {
			fake = &in.Issues[i]
			break
		}
	}
	if fake == nil {
		return Result{}, false
	}
	if !in.IsTestPath {
		return Result{Decision: Deny, Reason: string(fake.RuleID) + ": " + fake.Message}, true
	}
	if in.Sensitivity == "high" {
		return Result{Decision: Deny, Reason: string(fake.RuleID) + ": " + fake.Message + " (test path, high sensitivity)"}, true
	}
	return Result{Decision: Ask, Reason: string(fake.RuleID) + ": " + fake.Message + " (test path)"}, true
}

// testPathDirs backs IsTestPath, grounded on §4.C7's literal
// detection rule.
var testPathDirs = []string{"tests/", "__tests__/", "fixtures/", "snapshots/", "examples/", "benches/"}

var testFileSuffixRe = regexp.MustCompile(`_test\.[A-Za-z0-9]+$`)

// IsTestPath reports whether rel should be treated as test context
// for PreToolUse's FAKE_* demotion rule.
func IsTestPath(rel string) bool {
	rel = strings.ReplaceAll(rel, "\\", "/")
	for _, dir := range testPathDirs {
		if strings.Contains(rel, dir) {
			return true
		}
	}
	return testFileSuffixRe.MatchString(rel)
}

// PreToolUseOutput is the exact JSON shape for PreToolUse's stdout.
type PreToolUseOutput struct {
	HookSpecificOutput PreToolUseHookOutput `json:"hookSpecificOutput"`
}

// PreToolUseHookOutput is the inner object of PreToolUseOutput.
type PreToolUseHookOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

const maxReasonLen = 300

// ToOutput renders a Result as PreToolUse's JSON envelope, clipping
// the reason to maxReasonLen on a rune boundary.
func (r Result) ToOutput() PreToolUseOutput {
	reason := r.Reason
	if len(reason) > maxReasonLen {
		runes := []rune(reason)
		for len(string(runes)) > maxReasonLen {
			runes = runes[:len(runes)-1]
		}
		reason = string(runes)
	}
	return PreToolUseOutput{HookSpecificOutput: PreToolUseHookOutput{
		HookEventName:            "PreToolUse",
		PermissionDecision:       string(r.Decision),
		PermissionDecisionReason: reason,
	}}
}

// PostToolUseOutput is the exact JSON shape for PostToolUse's stdout.
// PostToolUse never gates; it only wraps the assembled context.
type PostToolUseOutput struct {
	HookSpecificOutput PostToolUseHookOutput `json:"hookSpecificOutput"`
}

// PostToolUseHookOutput is the inner object of PostToolUseOutput.
type PostToolUseHookOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// WrapPostToolUse wraps X, defaulting to "OK" when empty.
func WrapPostToolUse(additionalContext string) PostToolUseOutput {
	if additionalContext == "" {
		additionalContext = "OK"
	}
	return PostToolUseOutput{HookSpecificOutput: PostToolUseHookOutput{
		HookEventName:     "PostToolUse",
		AdditionalContext: additionalContext,
	}}
}
