// Package contract implements the API contract check: removed or
// renamed symbols and parameter-count reductions inferred by
// comparing function/method signatures between old and new text.
// Feeds both the API CONTRACT section (C6) and CONTRACT_REDUCED_ARITY
// (C7's PreToolUse rule 2).
//
// Grounded on the teacher's reviewer shard's regex-based, language-
// aware line scanning (internal/shards/reviewer/metrics.go's
// isFunctionDeclaration/extractFunctionName): signatures are
// recovered with per-language regexes over raw text rather than a
// full parse, since only the declaration line matters here.
package contract

import (
	"regexp"
	"sort"
	"strings"
)

// Signature is one recovered function/method declaration.
type Signature struct {
	Name   string
	Params []string // parameter identifiers, in order
	Line   int       // 1-based
}

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)`),
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(([^)]*)\)`),
	regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)\s*\(([^)]*)\)`),
	regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(([^)]*)\)`),
}

// ExtractSignatures recovers one signature per distinct function name
// in text, keeping the first declaration encountered for each name.
func ExtractSignatures(text string) map[string]Signature {
	out := map[string]Signature{}
	lineOf := lineIndexer(text)
	for _, pat := range signaturePatterns {
		for _, m := range pat.FindAllStringSubmatchIndex(text, -1) {
			name := text[m[2]:m[3]]
			paramsRaw := text[m[4]:m[5]]
			if _, exists := out[name]; exists {
				continue
			}
			out[name] = Signature{
				Name:   name,
				Params: splitParams(paramsRaw),
				Line:   lineOf(m[0]),
			}
		}
	}
	return out
}

func lineIndexer(text string) func(offset int) int {
	return func(offset int) int {
		return 1 + strings.Count(text[:offset], "\n")
	}
}

func splitParams(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Keep only the identifier: drop type annotations ("x int",
		// "x: int", "x Type") and default values ("x=1", "x: int = 1").
		p = strings.TrimPrefix(p, "**")
		p = strings.TrimPrefix(p, "*")
		p = strings.TrimPrefix(p, "&")
		p = strings.TrimPrefix(p, "mut ")
		fields := strings.FieldsFunc(p, func(r rune) bool { return r == ':' || r == '=' || r == ' ' })
		if len(fields) == 0 {
			continue
		}
		out = append(out, fields[0])
	}
	return out
}

// Kind classifies one contract change.
type Kind string

const (
	ReducedArity Kind = "reduced_arity"
	RemovedSym   Kind = "removed_symbol"
	Renamed      Kind = "renamed"
)

// Change is one detected API contract difference.
type Change struct {
	Kind         Kind
	Symbol       string // old name
	NewSymbol    string // set for Renamed
	RemovedParam string // set for ReducedArity: the first parameter present in old but not new
}

// Compare diffs old and new text's recovered signatures, reporting
// parameter reductions, removed symbols, and same-signature renames.
// Results are produced in a fixed order (reduced-arity changes first,
// then removed and renamed symbols, each group by the old declaration
// line, then name) even though the underlying signature sets are Go maps, so
// repeated calls on the same input are byte-identical (P1, P7).
func Compare(oldText, newText string) []Change {
	oldSigs := ExtractSignatures(oldText)
	newSigs := ExtractSignatures(newText)

	oldNames := sortedSigNames(oldSigs)
	newNames := sortedSigNames(newSigs)

	var changes []Change
	var missingNames []string
	for _, name := range oldNames {
		oldSig := oldSigs[name]
		newSig, ok := newSigs[name]
		if !ok {
			missingNames = append(missingNames, name)
			continue
		}
		if len(newSig.Params) < len(oldSig.Params) {
			removed := firstMissingParam(oldSig.Params, newSig.Params)
			changes = append(changes, Change{Kind: ReducedArity, Symbol: name, RemovedParam: removed})
		}
	}

	var addedNames []string
	for _, name := range newNames {
		if _, ok := oldSigs[name]; !ok {
			addedNames = append(addedNames, name)
		}
	}

	for _, missing := range missingNames {
		renamedTo := ""
		for _, added := range addedNames {
			if sameParams(oldSigs[missing].Params, newSigs[added].Params) {
				renamedTo = added
				break
			}
		}
		if renamedTo != "" {
			changes = append(changes, Change{Kind: Renamed, Symbol: missing, NewSymbol: renamedTo})
		} else {
			changes = append(changes, Change{Kind: RemovedSym, Symbol: missing})
		}
	}

	return changes
}

// sortedSigNames orders a signature map's keys by declaration line,
// then name, so callers iterating it get a fixed, reproducible order.
func sortedSigNames(sigs map[string]Signature) []string {
	names := make([]string, 0, len(sigs))
	for n := range sigs {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := sigs[names[i]], sigs[names[j]]
		if si.Line != sj.Line {
			return si.Line < sj.Line
		}
		return names[i] < names[j]
	})
	return names
}

func firstMissingParam(oldParams, newParams []string) string {
	newSet := map[string]bool{}
	for _, p := range newParams {
		newSet[p] = true
	}
	for _, p := range oldParams {
		if !newSet[p] {
			return p
		}
	}
	return ""
}

func sameParams(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasReducedArity reports whether changes contains a ReducedArity
// entry, the trigger for C7's CONTRACT_REDUCED_ARITY rule.
func HasReducedArity(changes []Change) bool {
	for _, c := range changes {
		if c.Kind == ReducedArity {
			return true
		}
	}
	return false
}
