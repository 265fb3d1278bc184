package rules

import (
	"strings"

	"github.com/hookguard/hookguard/internal/langs"
	"github.com/hookguard/hookguard/internal/parse"
)

// Engine runs the rule catalogue against one file's source and parsed
// entities, filtered to the rules applicable to lang.
type Engine interface {
	Run(lang langs.Language, source string, entities []parse.Entity) []Issue
}

// SinglePass is the fast-path engine: one walk over the file's lines
// applying every LineRule in the same iteration, and one walk over
// its entities applying every EntityRule in the same iteration. This
// mirrors the contract's "single depth-first walk maintaining shared
// state" without re-scanning the input once per rule.
type SinglePass struct{}

func NewSinglePass() *SinglePass { return &SinglePass{} }

func (s *SinglePass) Run(lang langs.Language, source string, entities []parse.Entity) []Issue {
	var issues []Issue
	lines := strings.Split(source, "\n")
	lineRules := applicableLineRules(lang)
	for i, line := range lines {
		lineNum := i + 1
		for _, rule := range lineRules {
			issues = append(issues, rule(lineNum, line)...)
		}
	}

	entityRules := applicableEntityRules(lang)
	for _, e := range entities {
		for _, rule := range entityRules {
			issues = append(issues, rule(e)...)
		}
	}

	Sort(issues)
	return issues
}

// MultiPass is the legacy engine, retained as a correctness oracle: it
// re-walks the file once per rule rather than combining rules into a
// single walk. Functionally equivalent to SinglePass by construction
// (both call the exact same rule functions), satisfying P2.
type MultiPass struct{}

func NewMultiPass() *MultiPass { return &MultiPass{} }

func (m *MultiPass) Run(lang langs.Language, source string, entities []parse.Entity) []Issue {
	var issues []Issue
	lines := strings.Split(source, "\n")

	for _, rule := range applicableLineRules(lang) {
		for i, line := range lines {
			issues = append(issues, rule(i+1, line)...)
		}
	}

	for _, rule := range applicableEntityRules(lang) {
		for _, e := range entities {
			issues = append(issues, rule(e)...)
		}
	}

	Sort(issues)
	return issues
}

// namedLineRule and namedEntityRule pair a rule function with its
// catalogue entry so language filtering can be applied uniformly. Go has no
// reflection-free way to name a function value against a map key, so
// each rule list below is paired explicitly with its RuleID.
type namedLineRule struct {
	id   RuleID
	rule LineRule
}

type namedEntityRule struct {
	id   RuleID
	rule EntityRule
}

var namedLineRules = []namedLineRule{
	{SecCreds, LineCreds},
	{SecSQL, LineSQL},
	{SecCmdInjection, LineCmdInjection},
	{PathTraversal, LinePathTraversal},
	{StyleLongLine, LineLongLine},
	{FakeNotImplemented, LineFakeNotImplemented},
}

var namedEntityRules = []namedEntityRule{
	{StyleTooManyParams, EntityTooManyParams},
	{StyleDeepNesting, EntityDeepNesting},
	{StyleHighComplexity, EntityHighComplexity},
	{FakeReturnConstant, EntityFakeReturnConstant},
	{FakePrintOnly, EntityFakePrintOnly},
	{LogicUnreachable, EntityUnreachable},
	{LogicEmptyCatch, EntityEmptyCatch},
}

func applicableLineRules(lang langs.Language) []LineRule {
	var out []LineRule
	for _, nr := range namedLineRules {
		if Catalogue[nr.id].AppliesTo(lang) {
			out = append(out, nr.rule)
		}
	}
	return out
}

func applicableEntityRules(lang langs.Language) []EntityRule {
	if lang == langs.Unknown {
		return nil // no entities are ever produced for unknown languages
	}
	var out []EntityRule
	for _, nr := range namedEntityRules {
		if Catalogue[nr.id].AppliesTo(lang) {
			out = append(out, nr.rule)
		}
	}
	return out
}
