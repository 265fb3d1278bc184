package parse

import (
	"context"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	tscpp "github.com/smacker/go-tree-sitter/cpp"
	tsc "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/hookguard/hookguard/internal/langs"
)

// TreeSitterBackend wraps one reusable *sitter.Parser per language,
// grounded on the teacher's TreeSitterParser. Each language gets its
// own parser instance so grammar state is never shared across
// languages; the same instance is reused across files of that
// language to avoid allocation churn.
type TreeSitterBackend struct {
	mu      sync.Mutex
	parsers map[langs.Language]*sitter.Parser
	grammar map[langs.Language]*sitter.Language
}

// NewTreeSitterBackend constructs and registers all tree-sitter
// grammars this pipeline supports.
func NewTreeSitterBackend() *TreeSitterBackend {
	grammars := map[langs.Language]*sitter.Language{
		langs.Python:     python.GetLanguage(),
		langs.JavaScript: javascript.GetLanguage(),
		langs.TypeScript: typescript.GetLanguage(),
		langs.Rust:       rust.GetLanguage(),
		langs.Java:       java.GetLanguage(),
		langs.CSharp:     csharp.GetLanguage(),
		langs.C:          tsc.GetLanguage(),
		langs.Cpp:        tscpp.GetLanguage(),
		langs.PHP:        php.GetLanguage(),
		langs.Ruby:       ruby.GetLanguage(),
		langs.Go:         golang.GetLanguage(), // available as a cross-check backend; GoBackend is primary
	}
	return &TreeSitterBackend{
		parsers: make(map[langs.Language]*sitter.Parser),
		grammar: grammars,
	}
}

// For returns a Backend bound to lang, sharing this TreeSitterBackend's
// parser pool.
func (t *TreeSitterBackend) For(lang langs.Language) Backend {
	return &languageBackend{owner: t, lang: lang}
}

func (t *TreeSitterBackend) parserFor(lang langs.Language) *sitter.Parser {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.parsers[lang]; ok {
		return p
	}
	p := sitter.NewParser()
	p.SetLanguage(t.grammar[lang])
	t.parsers[lang] = p
	return p
}

type languageBackend struct {
	owner *TreeSitterBackend
	lang  langs.Language
}

func (b *languageBackend) Parse(ctx context.Context, source []byte) (*Result, error) {
	parser := b.owner.parserFor(b.lang)

	// parserFor takes owner.mu itself; it is held again here only
	// around the parse, since a sitter.Parser is shared per language.
	b.owner.mu.Lock()
	tree, err := parser.ParseCtx(ctx, nil, source)
	b.owner.mu.Unlock()
	if err != nil || tree == nil {
		return &Result{Metrics: Metrics{Lines: countLines(source)}}, err
	}
	defer tree.Close()

	root := tree.RootNode()
	kinds := langs.Kinds(b.lang)

	entities := extractEntities(root, source, kinds)
	branches, maxNesting := analyzeTSBranches(root, kinds)

	metrics := Metrics{
		Lines:              countLines(source),
		ApproxFunctions:    len(entities),
		MaxNesting:         maxNesting,
		CyclomaticEstimate: cyclomaticFromBranches(branches),
	}
	return &Result{Entities: entities, Metrics: metrics}, nil
}

// extractEntities walks the tree-sitter tree collecting function and
// method-shaped nodes as Entities. Names for computed/anonymous forms
// (JS/TS) are recovered when syntactically transparent, falling back
// to "[computed: ...]" or "<anonymous>" per the Data Model.
func extractEntities(root *sitter.Node, source []byte, kinds *langs.KindSet) []Entity {
	var entities []Entity
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		kind := n.Type()
		if kinds.IsFunction(kind) || kinds.IsMethod(kind) {
			ek := KindFunction
			if kinds.IsMethod(kind) {
				ek = KindMethod
			}
			name := entityName(n, source)
			paramCount := countParams(n, kinds, source)
			start := int(n.StartPoint().Row) + 1
			end := int(n.EndPoint().Row) + 1
			branches, nesting := analyzeTSBranches(n, kinds)
			entities = append(entities, Entity{
				Kind:               ek,
				Name:               name,
				LineStart:          start,
				LineEnd:            end,
				ParamCount:         paramCount,
				MaxNesting:         nesting,
				CyclomaticEstimate: cyclomaticFromBranches(branches),
				Body:               n.Content(source),
			})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return entities
}

func entityName(n *sitter.Node, source []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(source)
	}
	// JS/TS computed keys and anonymous function expressions.
	if propNode := n.ChildByFieldName("property"); propNode != nil {
		text := propNode.Content(source)
		if text != "" {
			return "[computed: " + text + "]"
		}
	}
	return "<anonymous>"
}

func countParams(n *sitter.Node, kinds *langs.KindSet, source []byte) int {
	paramsNode := n.ChildByFieldName("parameters")
	if paramsNode == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		child := paramsNode.NamedChild(i)
		// Skip punctuation-only named nodes (comments); tree-sitter
		// grammars represent each parameter as a distinct named child.
		if child != nil && child.Type() != "comment" {
			count++
		}
	}
	return count
}

// analyzeTSBranches counts branch points and max nesting depth over a
// tree-sitter tree using the language's KindSet predicates, mirroring
// analyzeGoBody's approach for the non-Go backends.
func analyzeTSBranches(root *sitter.Node, kinds *langs.KindSet) (branches, maxDepth int) {
	var walk func(n *sitter.Node, depth int)
	walk = func(n *sitter.Node, depth int) {
		if n == nil {
			return
		}
		kind := n.Type()
		childDepth := depth
		if kinds.IsConditional(kind) || kinds.IsLoopHeader(kind) {
			branches++
			childDepth = depth + 1
			if childDepth > maxDepth {
				maxDepth = childDepth
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), childDepth)
		}
	}
	walk(root, 0)
	return branches, maxDepth
}
