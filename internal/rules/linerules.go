package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LineRule inspects a single physical line (1-based lineNum) of raw
// source text and returns zero or more issues. Line rules are
// language-agnostic text heuristics: the only AST-independent rules
// in the catalogue (credential/SQL/command-injection/path-traversal
// heuristics restricted to string literals, plus the long-line
// style check), so they also run for *unknown* languages per C1's
// failure mode.
type LineRule func(lineNum int, line string) []Issue

var allowlistPrefixes = []string{"default_", "demo_", "sample_", "mock_", "test_", "dummy_"}

var credsPattern = regexp.MustCompile(`(?i)\b(pass(word)?|token|secret|api[_-]?key)\w*\s*[:=]\s*["']([^"']+)["']`)

// LineCreds implements SEC_CREDS.
func LineCreds(lineNum int, line string) []Issue {
	m := credsPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	value := m[3]
	if value == "" {
		return nil
	}
	lower := strings.ToLower(value)
	for _, p := range allowlistPrefixes {
		if strings.HasPrefix(lower, p) {
			return nil
		}
	}
	return []Issue{newIssue(SecCreds, lineNum, lineNum,
		"Hardcoded credential-like value assigned to "+strings.TrimSpace(m[1]),
		Catalogue[SecCreds].FixHint)}
}

var sqlPattern = regexp.MustCompile(`(?i)(select\s+.+\s+from\s+\w|insert\s+into\s+\w|update\s+\w+\s+set\s+|delete\s+from\s+\w)`)
var sqlConcatHint = regexp.MustCompile(`[+]|%s|\{\}|\$\{|f["']|\.format\(`)

// LineSQL implements SEC_SQL: a string literal containing SQL DML
// concatenated or interpolated with an identifier.
func LineSQL(lineNum int, line string) []Issue {
	if !sqlPattern.MatchString(line) {
		return nil
	}
	if !sqlConcatHint.MatchString(line) {
		return nil
	}
	return []Issue{newIssue(SecSQL, lineNum, lineNum,
		"SQL statement built via string concatenation/interpolation",
		Catalogue[SecSQL].FixHint)}
}

var cmdSinkPattern = regexp.MustCompile(`\b(os\.system|subprocess\.call|subprocess\.Popen|Runtime\.exec|exec|eval)\s*\(([^)]*)\)`)
var literalArgPattern = regexp.MustCompile(`^\s*["'][^"']*["']\s*$`)
var backtickPattern = regexp.MustCompile("`[^`]*\\$\\{[^}]+\\}[^`]*`|`[^`]*\\$[A-Za-z_][^`]*`")

// LineCmdInjection implements SEC_CMD_INJECTION: a call to a known
// shell-exec sink with a non-literal argument, or PHP/Ruby backticks
// containing interpolation.
func LineCmdInjection(lineNum int, line string) []Issue {
	if backtickPattern.MatchString(line) {
		return []Issue{newIssue(SecCmdInjection, lineNum, lineNum,
			"Shell backtick execution with interpolated input",
			Catalogue[SecCmdInjection].FixHint)}
	}
	m := cmdSinkPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	args := strings.TrimSpace(m[2])
	if args == "" {
		return nil
	}
	if literalArgPattern.MatchString(args) {
		return nil
	}
	if m[1] == "subprocess.call" && !strings.Contains(line, "shell=True") && !strings.Contains(line, "shell = True") {
		return nil
	}
	return []Issue{newIssue(SecCmdInjection, lineNum, lineNum,
		"Shell execution sink called with non-literal argument",
		Catalogue[SecCmdInjection].FixHint)}
}

var fileOpenPattern = regexp.MustCompile(`\b(open|fopen|File\.open|os\.Open|ReadFile|readFile|fs\.readFileSync)\s*\(([^)]*)\)`)

// LinePathTraversal implements PATH_TRAVERSAL: a file-open sink whose
// argument contains ".." and is not a pure literal (i.e. computed
// from user input).
func LinePathTraversal(lineNum int, line string) []Issue {
	m := fileOpenPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	args := m[2]
	if !strings.Contains(args, "..") {
		return nil
	}
	if literalArgPattern.MatchString(strings.TrimSpace(args)) {
		return nil
	}
	return []Issue{newIssue(PathTraversal, lineNum, lineNum,
		"File path with traversal sequence built from non-literal input",
		Catalogue[PathTraversal].FixHint)}
}

// LineLongLine implements STYLE_LONG_LINE: line length > 120 visual
// columns, measured in runes so multi-byte UTF-8 characters count as
// one column each.
func LineLongLine(lineNum int, line string) []Issue {
	if utf8.RuneCountInString(line) <= 120 {
		return nil
	}
	return []Issue{newIssue(StyleLongLine, lineNum, lineNum,
		"Line exceeds 120 columns",
		Catalogue[StyleLongLine].FixHint)}
}

var fakeNotImplementedPattern = regexp.MustCompile(`NotImplementedError|todo!\(\)|unimplemented!\(\)|panic!\(\s*"[Nn]ot implemented"|throw new Error\(\s*["']Not implemented["']\s*\)`)

// LineFakeNotImplemented implements FAKE_NOT_IMPLEMENTED.
func LineFakeNotImplemented(lineNum int, line string) []Issue {
	if !fakeNotImplementedPattern.MatchString(line) {
		return nil
	}
	return []Issue{newIssue(FakeNotImplemented, lineNum, lineNum,
		"Not-implemented stub left in place of a real implementation",
		Catalogue[FakeNotImplemented].FixHint)}
}

// AllLineRules returns every LineRule, in the same order as the
// engines' namedLineRules table.
func AllLineRules() []LineRule {
	return []LineRule{
		LineCreds,
		LineSQL,
		LineCmdInjection,
		LinePathTraversal,
		LineLongLine,
		LineFakeNotImplemented,
	}
}
