// Package pipeline wires the per-event lifecycle described in §2's
// Lifecycle note: merge config, scan the project, parse files on
// demand, run the rule engine, diff the change, assemble the
// response. It is the shared core all three cmd/ hook binaries call
// into so main.go stays a thin stdin/stdout adapter.
//
// Grounded on the teacher's runScan/runInit (cmd/nerd/cmd_init_scan.go)
// for the "scan, then fan out per-file work" shape; the bounded
// worker pool below uses golang.org/x/sync/errgroup exactly as the
// teacher's scanner_config.go worker ceiling note prescribes, rather
// than a hand-rolled sync.WaitGroup+channel pool.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hookguard/hookguard/internal/config"
	"github.com/hookguard/hookguard/internal/contract"
	"github.com/hookguard/hookguard/internal/diffengine"
	"github.com/hookguard/hookguard/internal/duplicate"
	"github.com/hookguard/hookguard/internal/health"
	"github.com/hookguard/hookguard/internal/langs"
	"github.com/hookguard/hookguard/internal/logging"
	"github.com/hookguard/hookguard/internal/manifest"
	"github.com/hookguard/hookguard/internal/parse"
	"github.com/hookguard/hookguard/internal/provider"
	"github.com/hookguard/hookguard/internal/rules"
	"github.com/hookguard/hookguard/internal/scan"
	"github.com/hookguard/hookguard/internal/timings"
)

// Context bundles the merged configuration and shared singletons one
// hook invocation needs, built once per process.
type Context struct {
	Root   string
	Cfg    *config.Config
	Cache  *scan.Cache
	Facade *parse.Facade
	Engine rules.Engine
	Timers *timings.Collector
}

// NewContext merges configuration and wires the process-wide
// singletons for one hook invocation rooted at root.
func NewContext(root string) *Context {
	cfg, err := config.Load(root)
	if err != nil {
		logging.Warnf(logging.CategoryConfig, "loading config: %v", err)
		cfg = config.Default()
	}
	return &Context{
		Root:   root,
		Cfg:    cfg,
		Cache:  scan.LoadCache(root),
		Facade: parse.NewFacade(),
		Engine: rules.NewSinglePass(),
		Timers: timings.New(cfg.ASTTimings),
	}
}

// Close flushes the scan cache. Safe to call even if nothing changed.
func (c *Context) Close() {
	if err := c.Cache.Save(); err != nil {
		logging.Warnf(logging.CategoryScan, "saving project cache: %v", err)
	}
}

// FileAnalysis is one file's complete per-file analysis, the unit the
// PostToolUse assembler and project-wide aggregation both consume.
type FileAnalysis struct {
	Relative string
	Health   health.FileHealth
	Issues   []rules.Issue
	Entities []parse.Entity

	// Skipped and SkipNote mirror parse.Result's soft-budget/timeout
	// skip: when Skipped is true, SkipNote already carries the full
	// "[ANALYSIS] Skipped AST analysis..." text the assembler needs
	// verbatim in place of CHANGE CONTEXT (§4.C2/C6).
	Skipped  bool
	SkipNote string
}

// AnalyzeFile parses and runs rules against one file's current
// on-disk content. isTest classification is the caller's
// responsibility (derived from scan.SourceFile.IsTest or path
// heuristics at the call site).
func (c *Context) AnalyzeFile(ctx context.Context, rel string, source []byte, isTest bool) FileAnalysis {
	lang := langs.Of(rel)
	budget := parse.DefaultBudget()
	if c.Cfg.ASTAnalysisTimeoutSecs > 0 {
		budget.Timeout = secondsToDuration(c.Cfg.ASTAnalysisTimeoutSecs)
	}
	result := c.Facade.Parse(ctx, source, lang, budget)

	var issues []rules.Issue
	if !result.Skipped {
		issues = c.Engine.Run(lang, string(source), result.Entities)
	}
	issues = capIssues(issues, c.Cfg.ASTMaxIssues, c.Cfg.ASTMaxMajor, c.Cfg.ASTMaxMinor)

	fh := health.ComputeFileHealth(rel, source, lang, isTest, result.Entities)
	return FileAnalysis{
		Relative: rel,
		Health:   fh,
		Issues:   issues,
		Entities: result.Entities,
		Skipped:  result.Skipped,
		SkipNote: result.SkipReason,
	}
}

func capIssues(issues []rules.Issue, maxTotal, maxMajor, maxMinor int) []rules.Issue {
	rules.Sort(issues)
	var critical, major, minor []rules.Issue
	for _, iss := range issues {
		switch iss.Severity {
		case rules.Critical:
			critical = append(critical, iss)
		case rules.Major:
			major = append(major, iss)
		default:
			minor = append(minor, iss)
		}
	}
	if maxMajor > 0 && len(major) > maxMajor {
		major = major[:maxMajor]
	}
	if maxMinor > 0 && len(minor) > maxMinor {
		minor = minor[:maxMinor]
	}
	out := append(append(critical, major...), minor...)
	if maxTotal > 0 && len(out) > maxTotal {
		out = out[:maxTotal]
	}
	return out
}

// ProjectSnapshot is the project-wide view UserPromptSubmit needs.
type ProjectSnapshot struct {
	View          *scan.ProjectView
	ProjectHealth health.ProjectHealth
	TopIssues     []rules.Issue
	Duplicates    duplicate.Report
	Manifests     []manifest.Manifest
}

// projectSummaryFanout bounds how many files get a full parse+rules
// pass for the UserPromptSubmit snapshot; scanning every file in a
// large repo on every turn would blow the timeout budget, so only the
// largest (most "important") files by line count are analyzed, per
// §5's worker-pool note.
const projectSummaryFanout = 40

// BuildProjectSnapshot scans root, then fans out a bounded worker
// pool (errgroup, capped at MaxConcurrency) over the top files by
// line count to build project-wide health and risk aggregates.
func (c *Context) BuildProjectSnapshot(ctx context.Context) (*ProjectSnapshot, error) {
	view, err := scan.Scan(ctx, c.Root, c.Cfg.ToScanConfig(), c.Cache)
	if err != nil {
		return nil, err
	}

	files := topFilesByImportance(view.Files, projectSummaryFanout)

	var mu sync.Mutex
	analyses := make([]FileAnalysis, 0, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInt(c.Cfg.ToScanConfig().MaxConcurrency, 1))
	for _, f := range files {
		f := f
		g.Go(func() error {
			data, err := os.ReadFile(f.AbsolutePath)
			if err != nil {
				logging.Warnf(logging.CategoryScan, "reading %s: %v", f.RelativePath, err)
				return nil
			}
			fa := c.AnalyzeFile(gctx, f.RelativePath, data, f.IsTest)
			mu.Lock()
			analyses = append(analyses, fa)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var fileHealths []health.FileHealth
	var allIssues []rules.Issue
	for _, fa := range analyses {
		fileHealths = append(fileHealths, fa.Health)
		allIssues = append(allIssues, fa.Issues...)
	}
	rules.Sort(allIssues)
	if len(allIssues) > 10 {
		allIssues = allIssues[:10]
	}

	return &ProjectSnapshot{
		View:          view,
		ProjectHealth: health.Aggregate(fileHealths),
		TopIssues:     allIssues,
		Duplicates:    duplicate.Find(view.Files, c.Cfg.DupReportMaxGroups, c.Cfg.DupReportMaxFiles, c.Cfg.DupReportTopDirs),
		Manifests:     manifest.Discover(c.Root),
	}, nil
}

func topFilesByImportance(files []scan.SourceFile, n int) []scan.SourceFile {
	ranked := append([]scan.SourceFile(nil), files...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].LineCount != ranked[j].LineCount {
			return ranked[i].LineCount > ranked[j].LineCount
		}
		return ranked[i].RelativePath < ranked[j].RelativePath
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ChangeAnalysis bundles everything PostToolUse needs for one edited
// file: the computed diff, the new content's health/issues/entities,
// and any API contract changes between old and new text.
type ChangeAnalysis struct {
	Change   *diffengine.Change
	File     FileAnalysis
	Contract []contract.Change
	Snippets []diffengine.Snippet
}

// AnalyzeChange runs the full C2-C5 pipeline for one edited file.
func (c *Context) AnalyzeChange(ctx context.Context, rel, oldText, newText string, isTest bool) ChangeAnalysis {
	change := diffengine.ComputeChange(rel, oldText, newText)
	fa := c.AnalyzeFile(ctx, rel, []byte(newText), isTest)
	contractChanges := contract.Compare(oldText, newText)
	snippets := diffengine.BuildSnippets(change, fa.Entities, fa.Issues)
	return ChangeAnalysis{Change: change, File: fa, Contract: contractChanges, Snippets: snippets}
}

// LanguageLine renders the project view's per-language counts the way
// the UserPromptSubmit snapshot's PROJECT SUMMARY line expects,
// "go: 42, python: 7", sorted by language name for determinism.
func LanguageLine(view *scan.ProjectView) string {
	type pair struct {
		lang  string
		count int
	}
	var pairs []pair
	for l, n := range view.LanguageCounts {
		pairs = append(pairs, pair{string(l), n})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].lang < pairs[j].lang })
	out := ""
	for i, p := range pairs {
		if i > 0 {
			out += ", "
		}
		out += p.lang + ": " + itoa(p.count)
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func secondsToDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ProviderConfigFor builds a provider.Config for either "pretool" or
// "posttool", selecting the matching provider/model pair and the API
// key/base URL for whichever provider name is configured.
func (c *Context) ProviderConfigFor(which string) provider.Config {
	cfg := c.Cfg
	provName := cfg.PosttoolProvider
	model := cfg.PosttoolModel
	if which == "pretool" {
		provName = cfg.PretoolProvider
		model = cfg.PretoolModel
	}
	return provider.Config{
		Provider:       provName,
		APIKey:         apiKeyFor(cfg, provName),
		BaseURL:        baseURLFor(cfg, provName),
		Model:          model,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		RequestTimeout: secondsToDuration(cfg.RequestTimeoutSecs),
		ConnectTimeout: secondsToDuration(cfg.ConnectTimeoutSecs),
	}
}

func apiKeyFor(cfg *config.Config, provName string) string {
	switch provName {
	case "openai":
		return cfg.OpenAIAPIKey
	case "anthropic":
		return cfg.AnthropicAPIKey
	case "google":
		return cfg.GoogleAPIKey
	case "xai":
		return cfg.XAIAPIKey
	default:
		return ""
	}
}

func baseURLFor(cfg *config.Config, provName string) string {
	switch provName {
	case "openai":
		return cfg.OpenAIBaseURL
	case "anthropic":
		return cfg.AnthropicBaseURL
	case "google":
		return cfg.GoogleBaseURL
	case "xai":
		return cfg.XAIBaseURL
	default:
		return ""
	}
}

// ResolvePath joins root and a hook-supplied file path, matching the
// scanner's relative-path convention.
func ResolvePath(root, filePath string) (abs, rel string) {
	if filepath.IsAbs(filePath) {
		r, err := filepath.Rel(root, filePath)
		if err != nil {
			return filePath, filePath
		}
		return filePath, filepath.ToSlash(r)
	}
	return filepath.Join(root, filePath), filepath.ToSlash(filePath)
}
