// Package parse implements the parser facade (C2): given source text
// and a language, it produces an AST-derived entity list and a basic
// metrics vector, bounded by a soft time/size budget. Parse failures
// never abort analysis — the facade returns a sentinel Skipped result
// or a best-effort partial tree.
package parse

import (
	"context"
	"fmt"
	"time"

	"github.com/hookguard/hookguard/internal/langs"
)

// EntityKind classifies an AST entity.
type EntityKind string

const (
	KindFunction EntityKind = "function"
	KindMethod   EntityKind = "method"
	KindClass    EntityKind = "class"
	KindBlock    EntityKind = "block"
)

// Entity is a function, method, class, or top-level block in the
// source, per the Data Model's AST entity (E).
type Entity struct {
	Kind      EntityKind
	Name      string
	LineStart int // 1-based, inclusive
	LineEnd   int // 1-based, inclusive
	Parent    *Entity

	// ParamCount is the number of formal parameters (used by
	// STYLE_TOO_MANY_PARAMS); -1 when not applicable (classes/blocks).
	ParamCount int

	// MaxNesting and CyclomaticEstimate are computed over this
	// entity's body alone, backing STYLE_DEEP_NESTING and
	// STYLE_HIGH_COMPLEXITY.
	MaxNesting         int
	CyclomaticEstimate int

	// Body is the full source text spanned by the entity, used by the
	// diff engine for entity snippets.
	Body string
}

// Metrics is the basic vector the facade computes per file.
type Metrics struct {
	Lines              int
	ApproxFunctions    int
	MaxNesting         int
	CyclomaticEstimate int
}

// Budget bounds a single file's analysis.
type Budget struct {
	Timeout   time.Duration // AST_ANALYSIS_TIMEOUT, default 8s, range [1,30]s
	MaxBytes  int64         // soft_budget_bytes, default 500000
	MaxLines  int           // soft_budget_lines, default 10000
}

// DefaultBudget returns the spec's defaults.
func DefaultBudget() Budget {
	return Budget{
		Timeout:  8 * time.Second,
		MaxBytes: 500_000,
		MaxLines: 10_000,
	}
}

// Result is the facade's output for one file.
type Result struct {
	Language   langs.Language
	Entities   []Entity
	Metrics    Metrics
	Skipped    bool
	SkipReason string // the full "[ANALYSIS] Skipped AST analysis..." note, used verbatim
	ParseError error  // non-nil on partial/failed parse; entities may still be non-empty
}

// Backend parses one language's source into entities + metrics.
// Implementations must never panic; parse errors are returned, not
// raised, and the facade falls back to text-only rules when a
// Backend returns a nil Result.
type Backend interface {
	Parse(ctx context.Context, source []byte) (*Result, error)
}

// Facade dispatches to the per-language Backend, reusing backend
// instances across files (one per language) to avoid allocation
// churn, and enforces the soft budget uniformly regardless of
// backend.
type Facade struct {
	backends map[langs.Language]Backend
	fallback Backend
}

// NewFacade builds a Facade wired with the Go (go/ast) and
// tree-sitter (Python/JS/TS/Rust/Java/C#/C/C++/PHP/Ruby) backends.
func NewFacade() *Facade {
	ts := NewTreeSitterBackend()
	return &Facade{
		backends: map[langs.Language]Backend{
			langs.Go:         NewGoBackend(),
			langs.Python:     ts.For(langs.Python),
			langs.JavaScript: ts.For(langs.JavaScript),
			langs.TypeScript: ts.For(langs.TypeScript),
			langs.Rust:       ts.For(langs.Rust),
			langs.Java:       ts.For(langs.Java),
			langs.CSharp:     ts.For(langs.CSharp),
			langs.C:          ts.For(langs.C),
			langs.Cpp:        ts.For(langs.Cpp),
			langs.PHP:        ts.For(langs.PHP),
			langs.Ruby:       ts.For(langs.Ruby),
		},
		fallback: newTextBackend(),
	}
}

// Parse produces a Result for source under lang, respecting budget.
// Unknown languages and files exceeding the soft byte/line budgets
// never reach a Backend — they get the uniform skip/fallback path so
// the assembler can emit its standard note.
func (f *Facade) Parse(ctx context.Context, source []byte, lang langs.Language, budget Budget) *Result {
	lineCount := countLines(source)

	if int64(len(source)) > budget.MaxBytes {
		return &Result{
			Language:   lang,
			Skipped:    true,
			SkipReason: skipReason("size", int64(len(source)), budget.MaxBytes),
			Metrics:    Metrics{Lines: lineCount},
		}
	}
	if lineCount > budget.MaxLines {
		return &Result{
			Language:   lang,
			Skipped:    true,
			SkipReason: skipReason("lines", int64(lineCount), int64(budget.MaxLines)),
			Metrics:    Metrics{Lines: lineCount},
		}
	}

	backend, ok := f.backends[lang]
	if !ok {
		backend = f.fallback
	}

	cctx, cancel := context.WithTimeout(ctx, budget.Timeout)
	defer cancel()

	type parseOutcome struct {
		res *Result
		err error
	}
	done := make(chan parseOutcome, 1)
	go func() {
		res, err := backend.Parse(cctx, source)
		done <- parseOutcome{res, err}
	}()

	select {
	case out := <-done:
		if out.res == nil {
			out.res = &Result{}
		}
		out.res.Language = lang
		if out.res.Metrics.Lines == 0 {
			out.res.Metrics.Lines = lineCount
		}
		out.res.ParseError = out.err
		return out.res
	case <-cctx.Done():
		return &Result{
			Language:   lang,
			Skipped:    true,
			SkipReason: skipNote(fmt.Sprintf("timeout %s exceeded", budget.Timeout)),
			Metrics:    Metrics{Lines: lineCount},
		}
	}
}

func skipReason(kind string, actual, limit int64) string {
	switch kind {
	case "size":
		return sprintfSkip("size", actual, limit)
	default:
		return sprintfSkip("lines", actual, limit)
	}
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	return n
}
