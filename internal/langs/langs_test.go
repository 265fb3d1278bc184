package langs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	cases := map[string]Language{
		"main.go":        Go,
		"MAIN.GO":        Go,
		"service.py":     Python,
		"app.tsx":        TypeScript,
		"index.js":       JavaScript,
		"lib.rs":         Rust,
		"Program.cs":     CSharp,
		"Main.java":      Java,
		"script.rb":      Ruby,
		"page.php":       PHP,
		"main.c":         C,
		"main.cpp":       Cpp,
		"unknown.xyz123": Unknown,
		"noext":          Unknown,
	}
	for path, want := range cases {
		assert.Equal(t, want, Of(path), path)
	}
}

func TestKindsSingleton(t *testing.T) {
	a := Kinds(Go)
	b := Kinds(Go)
	assert.Same(t, a, b, "Kinds should return a process-wide singleton per language")
	assert.True(t, a.IsFunction("function_declaration"))
	assert.True(t, a.IsMethod("method_declaration"))
	assert.False(t, a.IsFunction("nonsense_kind"))
}

func TestKindsUnknownLanguageIsEmpty(t *testing.T) {
	ks := Kinds(Unknown)
	assert.False(t, ks.IsFunction("function_declaration"))
}
