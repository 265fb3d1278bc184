package rules

import (
	"regexp"
	"strings"

	"github.com/hookguard/hookguard/internal/parse"
)

// EntityRule inspects one AST entity (function/method) and returns
// zero or more issues. Unlike LineRule, these need the entity's
// extracted body and metrics, so they never run against *unknown*
// languages (no entities are ever produced for those).
type EntityRule func(e parse.Entity) []Issue

// EntityTooManyParams implements STYLE_TOO_MANY_PARAMS.
func EntityTooManyParams(e parse.Entity) []Issue {
	if e.ParamCount <= 5 {
		return nil
	}
	return []Issue{newIssue(StyleTooManyParams, e.LineStart, e.LineEnd,
		"Function has more than 5 parameters",
		Catalogue[StyleTooManyParams].FixHint)}
}

// EntityDeepNesting implements STYLE_DEEP_NESTING.
func EntityDeepNesting(e parse.Entity) []Issue {
	if e.MaxNesting <= 4 {
		return nil
	}
	return []Issue{newIssue(StyleDeepNesting, e.LineStart, e.LineEnd,
		"Nesting depth exceeds 4 levels",
		Catalogue[StyleDeepNesting].FixHint)}
}

// EntityHighComplexity implements STYLE_HIGH_COMPLEXITY.
func EntityHighComplexity(e parse.Entity) []Issue {
	if e.CyclomaticEstimate <= 10 {
		return nil
	}
	return []Issue{newIssue(StyleHighComplexity, e.LineStart, e.LineEnd,
		"Cyclomatic complexity exceeds 10",
		Catalogue[StyleHighComplexity].FixHint)}
}

var fakeNamePrefixes = regexp.MustCompile(`(?i)^(get|create|process|calculate|fetch|validate)`)
var scalarLiteralReturnPattern = regexp.MustCompile(`^\s*(return|=>)\s*(-?\d+(\.\d+)?|"[^"]*"|'[^']*'|true|false|null|nil|None)\s*;?\s*$`)
var structLiteralReturnPattern = regexp.MustCompile(`^\s*return\s*(\{.*\}|\[.*\])\s*;?\s*$`)
var callLikePattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*\s*\(`)
var printOnlyPattern = regexp.MustCompile(`^\s*(print|console\.log|console\.error|console\.warn|fmt\.Print\w*|log\.\w+|logger\.\w+|System\.out\.print\w*)\s*\(`)

// isConstantReturn reports whether stmt returns a literal value: a
// scalar (number/string/boolean/null) per the catalogue's base
// definition, or a struct/array literal containing no function
// calls — covering the "returns canned mock data" shape the fake
// implementation detector also targets (scenario 4).
func isConstantReturn(stmt string) bool {
	if scalarLiteralReturnPattern.MatchString(stmt) {
		return true
	}
	if structLiteralReturnPattern.MatchString(stmt) && !callLikePattern.MatchString(stmt) {
		return true
	}
	return false
}

// sigEndPattern locates a signature's closing paren followed by the
// shortest run of non-brace/non-colon characters (an optional return
// type or arrow) up to the first ':' or '{' that opens the body — the
// boundary between "def f(x):" / "fn f() -> T {" and what follows,
// without being fooled by colons inside a one-liner's own body (e.g.
// a dict literal).
var sigEndPattern = regexp.MustCompile(`\)[^{:]*[:{]`)

// bodyStatementLines strips the signature/brace lines and blank or
// comment-only lines from an entity's body, leaving only the
// statement lines a reader would consider "the implementation".
func bodyStatementLines(body string) []string {
	lines := strings.Split(body, "\n")

	// One-liner bodies (e.g. Python "def f(x): return 1") carry their
	// only statement after the signature's closing paren/colon/brace.
	if len(lines) == 1 {
		line := lines[0]
		if loc := sigEndPattern.FindStringIndex(line); loc != nil && loc[1] < len(line) {
			rest := strings.TrimSpace(line[loc[1]:])
			if line[loc[1]-1] == '{' {
				rest = strings.TrimSuffix(rest, "}")
			}
			rest = strings.TrimSpace(rest)
			if rest != "" {
				return []string{rest}
			}
		}
		return nil
	}

	var out []string
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if i == 0 {
			continue // signature line
		}
		if i == len(lines)-1 && line == "}" {
			continue // closing brace
		}
		if line == "{" || line == "}" {
			continue
		}
		if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "/*") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// EntityFakeReturnConstant implements FAKE_RETURN_CONSTANT: a
// function body whose only statement returns a literal, when the
// name suggests non-trivial work.
func EntityFakeReturnConstant(e parse.Entity) []Issue {
	if !fakeNamePrefixes.MatchString(e.Name) {
		return nil
	}
	stmts := bodyStatementLines(e.Body)
	if len(stmts) != 1 {
		return nil
	}
	if !isConstantReturn(stmts[0]) {
		return nil
	}
	return []Issue{newIssue(FakeReturnConstant, e.LineStart, e.LineEnd,
		"Function \""+e.Name+"\" only returns a constant literal",
		Catalogue[FakeReturnConstant].FixHint)}
}

// EntityFakePrintOnly implements FAKE_PRINT_ONLY: a body consisting
// only of print/log calls.
func EntityFakePrintOnly(e parse.Entity) []Issue {
	stmts := bodyStatementLines(e.Body)
	if len(stmts) == 0 {
		return nil
	}
	for _, s := range stmts {
		if !printOnlyPattern.MatchString(s) {
			return nil
		}
	}
	return []Issue{newIssue(FakePrintOnly, e.LineStart, e.LineEnd,
		"Function \""+e.Name+"\" body consists only of print/log calls",
		Catalogue[FakePrintOnly].FixHint)}
}

var terminatorPattern = regexp.MustCompile(`^(return|raise|throw|break|continue)\b`)
var caseBoundaryPattern = regexp.MustCompile(`^(case\b|default\s*:|default\b)`)

// EntityUnreachable implements LOGIC_UNREACHABLE with an indentation
// heuristic: the first non-blank statement line after a terminator
// line, at the terminator's own indentation and within the same entity
// body, is reported. Deeper-indented lines are passed over; a dedent,
// a closing "}", a case/default boundary or a line ending in ":" ends
// the check (scenario 2's Go case/default normative behavior).
func EntityUnreachable(e parse.Entity) []Issue {
	lines := strings.Split(e.Body, "\n")
	var issues []Issue
	terminatorIndent := -1
	afterTerminator := false

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		indent := leadingWhitespace(raw)

		if afterTerminator {
			if indent < terminatorIndent {
				// Dedented past the terminator's block: no longer "same block".
				afterTerminator = false
			} else if caseBoundaryPattern.MatchString(trimmed) || trimmed == "}" || strings.HasSuffix(trimmed, ":") {
				afterTerminator = false
			} else if indent == terminatorIndent {
				lineNum := e.LineStart + i
				issues = append(issues, newIssue(LogicUnreachable, lineNum, lineNum,
					"Statement after "+terminatorKeyword(trimmed)+" terminator is unreachable",
					Catalogue[LogicUnreachable].FixHint))
				afterTerminator = false // report once per terminator
			}
		}

		if terminatorPattern.MatchString(trimmed) {
			afterTerminator = true
			terminatorIndent = indent
		}
	}
	return issues
}

func terminatorKeyword(line string) string {
	m := terminatorPattern.FindString(line)
	if m == "" {
		return "a"
	}
	return m
}

func leadingWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 4
		} else {
			break
		}
	}
	return n
}

var catchHeaderPattern = regexp.MustCompile(`\b(catch\s*\([^)]*\)\s*\{|except[^\n:]*:)`)

// EntityEmptyCatch implements LOGIC_EMPTY_CATCH: a catch/except block
// whose body is only "pass", a suppressed bare re-raise, or comments.
func EntityEmptyCatch(e parse.Entity) []Issue {
	lines := strings.Split(e.Body, "\n")
	var issues []Issue
	inCatch := false
	catchIndent := 0
	catchStartLine := 0
	var bodyLines []string

	flush := func(endLineIdx int) {
		if !inCatch {
			return
		}
		if isEmptyCatchBody(bodyLines) {
			lineNum := e.LineStart + catchStartLine
			issues = append(issues, newIssue(LogicEmptyCatch, lineNum, e.LineStart+endLineIdx,
				"catch/except block only suppresses the error",
				Catalogue[LogicEmptyCatch].FixHint))
		}
		inCatch = false
		bodyLines = nil
	}

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if catchHeaderPattern.MatchString(trimmed) {
			flush(i - 1)
			inCatch = true
			catchStartLine = i
			catchIndent = leadingWhitespace(raw)
			continue
		}
		if inCatch {
			indent := leadingWhitespace(raw)
			if trimmed == "}" && indent <= catchIndent {
				flush(i)
				continue
			}
			if trimmed != "" {
				bodyLines = append(bodyLines, trimmed)
			}
		}
	}
	flush(len(lines) - 1)
	return issues
}

func isEmptyCatchBody(lines []string) bool {
	if len(lines) == 0 {
		return true
	}
	for _, l := range lines {
		if l == "pass" {
			continue
		}
		if strings.HasPrefix(l, "//") || strings.HasPrefix(l, "#") {
			continue
		}
		if l == "raise" || l == "throw;" || l == "throw" {
			continue // bare re-raise, still suppressed in context
		}
		return false
	}
	return true
}

// AllEntityRules returns every EntityRule, in catalogue order.
func AllEntityRules() []EntityRule {
	return []EntityRule{
		EntityTooManyParams,
		EntityDeepNesting,
		EntityHighComplexity,
		EntityFakeReturnConstant,
		EntityFakePrintOnly,
		EntityUnreachable,
		EntityEmptyCatch,
	}
}
