// Package health computes the per-file metrics vector and project
// averages behind the CODE HEALTH section (test share %, docs share
// %, average cyclomatic/cognitive complexity, high-complexity file
// count).
//
// Grounded on the teacher's ReviewerShard.calculateMetrics and
// countDecisionPoints (internal/shards/reviewer/metrics.go): the
// line-classification approach (strip comments, classify blank/code/
// comment lines) is kept, simplified to docs-share accounting since
// cyclomatic complexity itself is already produced per-entity by the
// parser facade (C2) rather than re-derived from raw text here.
package health

import (
	"regexp"
	"strings"

	"github.com/hookguard/hookguard/internal/langs"
	"github.com/hookguard/hookguard/internal/parse"
)

// highComplexityThreshold mirrors STYLE_HIGH_COMPLEXITY's cyclomatic
// cutoff, so a file reported "high complexity" here is consistent
// with the issues the rule engine would raise on it.
const highComplexityThreshold = 10

var (
	hashCommentRe       = regexp.MustCompile(`^\s*#`)
	slashCommentRe      = regexp.MustCompile(`^\s*//`)
	blockCommentOpenRe  = regexp.MustCompile(`/\*`)
	blockCommentCloseRe = regexp.MustCompile(`\*/`)
)

func usesHashComments(lang langs.Language) bool {
	switch lang {
	case langs.Python, langs.Ruby:
		return true
	}
	return false
}

// FileHealth is one file's contribution to the CODE HEALTH section.
type FileHealth struct {
	RelativePath   string
	Lines          int
	IsTest         bool
	DocsPercent    float64
	AvgCyclomatic  float64
	MaxCyclomatic  int
	AvgNesting     float64
	HighComplexity bool
}

// ComputeFileHealth derives one file's health vector from its raw
// source (for the comment/blank-line classification) and the
// entities the parser facade already extracted (for complexity).
func ComputeFileHealth(rel string, source []byte, lang langs.Language, isTest bool, entities []parse.Entity) FileHealth {
	lines := strings.Split(string(source), "\n")
	codeLines, commentLines := classifyLines(lines, lang)

	fh := FileHealth{RelativePath: rel, Lines: len(lines), IsTest: isTest}
	total := codeLines + commentLines
	if total > 0 {
		fh.DocsPercent = 100 * float64(commentLines) / float64(total)
	}

	if len(entities) == 0 {
		return fh
	}
	var sumCC, sumNest int
	for _, e := range entities {
		sumCC += e.CyclomaticEstimate
		sumNest += e.MaxNesting
		if e.CyclomaticEstimate > fh.MaxCyclomatic {
			fh.MaxCyclomatic = e.CyclomaticEstimate
		}
	}
	n := float64(len(entities))
	fh.AvgCyclomatic = float64(sumCC) / n
	fh.AvgNesting = float64(sumNest) / n
	fh.HighComplexity = fh.MaxCyclomatic > highComplexityThreshold
	return fh
}

// classifyLines counts code vs. comment lines, skipping blanks
// entirely and tracking C-style block comments across lines.
func classifyLines(lines []string, lang langs.Language) (codeLines, commentLines int) {
	inBlock := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if inBlock {
			commentLines++
			if blockCommentCloseRe.MatchString(line) {
				inBlock = false
			}
			continue
		}
		if usesHashComments(lang) {
			if hashCommentRe.MatchString(line) {
				commentLines++
				continue
			}
		} else if slashCommentRe.MatchString(line) {
			commentLines++
			continue
		}
		if blockCommentOpenRe.MatchString(line) {
			commentLines++
			if !blockCommentCloseRe.MatchString(line) {
				inBlock = true
			}
			continue
		}
		codeLines++
	}
	return codeLines, commentLines
}

// ProjectHealth is the project-wide aggregate shown in CODE HEALTH.
type ProjectHealth struct {
	Files                   []FileHealth
	TestSharePercent        float64
	DocsSharePercent        float64
	AvgCyclomatic           float64
	AvgCognitive            float64 // average nesting depth, the nearest proxy this data model has to cognitive complexity
	HighComplexityFileCount int
}

// Aggregate folds per-file health vectors into project averages.
func Aggregate(files []FileHealth) ProjectHealth {
	pj := ProjectHealth{Files: files}
	if len(files) == 0 {
		return pj
	}
	var testCount int
	var sumDocs, sumCC, sumNest float64
	var ccFiles int
	for _, f := range files {
		if f.IsTest {
			testCount++
		}
		sumDocs += f.DocsPercent
		if f.MaxCyclomatic > 0 {
			sumCC += f.AvgCyclomatic
			sumNest += f.AvgNesting
			ccFiles++
		}
		if f.HighComplexity {
			pj.HighComplexityFileCount++
		}
	}
	n := float64(len(files))
	pj.TestSharePercent = 100 * float64(testCount) / n
	pj.DocsSharePercent = sumDocs / n
	if ccFiles > 0 {
		pj.AvgCyclomatic = sumCC / float64(ccFiles)
		pj.AvgCognitive = sumNest / float64(ccFiles)
	}
	return pj
}
