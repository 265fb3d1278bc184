package parse

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
)

// GoBackend parses Go source using the standard library's go/ast
// package, grounded on the teacher's GoCodeParser.Parse.
type GoBackend struct{}

// NewGoBackend constructs a GoBackend. It holds no state; a fresh
// token.FileSet is created per Parse call since FileSets are not
// safe to reuse across concurrent parses of different files.
func NewGoBackend() *GoBackend { return &GoBackend{} }

func (b *GoBackend) Parse(ctx context.Context, source []byte) (*Result, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments|parser.AllErrors)
	if file == nil {
		// Total parse failure: no partial tree available.
		return &Result{Metrics: Metrics{Lines: countLines(source)}}, err
	}

	var entities []Entity
	var totalFuncs, totalBranches, maxNesting int

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		totalFuncs++

		start := fset.Position(fd.Pos()).Line
		end := fset.Position(fd.End()).Line

		kind := KindFunction
		name := fd.Name.Name
		if fd.Recv != nil && len(fd.Recv.List) > 0 {
			kind = KindMethod
		}

		paramCount := 0
		if fd.Type.Params != nil {
			for _, field := range fd.Type.Params.List {
				n := len(field.Names)
				if n == 0 {
					n = 1 // unnamed parameter still counts as one
				}
				paramCount += n
			}
		}

		branches, nesting := analyzeGoBody(fd.Body)
		totalBranches += branches
		if nesting > maxNesting {
			maxNesting = nesting
		}

		entities = append(entities, Entity{
			Kind:               kind,
			Name:               name,
			LineStart:          start,
			LineEnd:            end,
			ParamCount:         paramCount,
			MaxNesting:         nesting,
			CyclomaticEstimate: cyclomaticFromBranches(branches),
			Body:               sliceLines(source, start, end),
		})
	}

	metrics := Metrics{
		Lines:              countLines(source),
		ApproxFunctions:    totalFuncs,
		MaxNesting:         maxNesting,
		CyclomaticEstimate: cyclomaticFromBranches(totalBranches),
	}

	return &Result{Entities: entities, Metrics: metrics}, err
}

// analyzeGoBody walks a function body counting branch points
// (cyclomatic estimate input) and the maximum nesting depth of
// control structures, per STYLE_DEEP_NESTING / STYLE_HIGH_COMPLEXITY.
// depthOf maps each visited node to its nesting level, assigned by
// its parent during the walk.
func analyzeGoBody(body *ast.BlockStmt) (branches, maxDepth int) {
	if body == nil {
		return 0, 0
	}

	depthOf := map[ast.Node]int{body: 0}

	ast.Inspect(body, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		depth := depthOf[n]

		isNestingNode := false
		switch stmt := n.(type) {
		case *ast.IfStmt:
			branches++
			isNestingNode = true
		case *ast.ForStmt:
			branches++
			isNestingNode = true
		case *ast.RangeStmt:
			branches++
			isNestingNode = true
		case *ast.SwitchStmt:
			branches++
			isNestingNode = true
		case *ast.TypeSwitchStmt:
			branches++
			isNestingNode = true
		case *ast.SelectStmt:
			branches++
			isNestingNode = true
		case *ast.CaseClause:
			if len(stmt.List) > 0 {
				branches++
			}
		case *ast.CommClause:
			branches++
		case *ast.BinaryExpr:
			if stmt.Op.String() == "&&" || stmt.Op.String() == "||" {
				branches++
			}
		}

		childDepth := depth
		if isNestingNode {
			childDepth = depth + 1
			if childDepth > maxDepth {
				maxDepth = childDepth
			}
		}

		for _, child := range childrenOf(n) {
			depthOf[child] = childDepth
		}
		return true
	})

	return branches, maxDepth
}

// childrenOf returns the immediate AST children of n so the walker
// above can propagate nesting depth without a second traversal.
func childrenOf(n ast.Node) []ast.Node {
	var children []ast.Node
	ast.Inspect(n, func(c ast.Node) bool {
		if c == nil {
			return false
		}
		if c != n {
			children = append(children, c)
			return false
		}
		return true
	})
	return children
}

func sliceLines(source []byte, startLine, endLine int) string {
	lineStart := 0
	line := 1
	var begin, end = -1, len(source)
	for i, b := range source {
		if line == startLine && begin == -1 {
			begin = lineStart
		}
		if b == '\n' {
			line++
			lineStart = i + 1
			if line == endLine+1 {
				end = i + 1
				break
			}
		}
	}
	if begin == -1 {
		begin = 0
	}
	if begin > end || begin > len(source) {
		return ""
	}
	if end > len(source) {
		end = len(source)
	}
	return string(source[begin:end])
}
