package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GrammarForExtension_DistinguishesTsxFromTs(t *testing.T) {
	r := NewRegistry()

	tsGrammar, tsName, ok := r.GrammarForExtension(".ts")
	require.True(t, ok)
	assert.Equal(t, TypeScript, tsName)

	tsxGrammar, tsxName, ok := r.GrammarForExtension(".tsx")
	require.True(t, ok)
	assert.Equal(t, TypeScript, tsxName)

	assert.NotEqual(t, tsGrammar, tsxGrammar, "tsx must use its own grammar despite sharing the typescript name")
}

func TestRegistry_GrammarForPath_UnsupportedReturnsFalse(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.GrammarForPath("README.md")
	assert.False(t, ok)
}

func TestRegistry_SupportedExtensions_CoversAllNineLanguages(t *testing.T) {
	r := NewRegistry()
	exts := r.SupportedExtensions()

	seen := make(map[Name]bool)
	for _, ext := range exts {
		_, name, ok := r.GrammarForExtension(ext)
		require.True(t, ok)
		seen[name] = true
	}
	for _, name := range All {
		assert.True(t, seen[name], "no extension registered for %s", name)
	}
}

func TestParser_ParseFile_ParsesGoSource(t *testing.T) {
	p := NewParser()
	result, err := p.ParseFile(context.Background(), "main.go", []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, Go, result.Language)
	assert.False(t, result.Root().HasError())
}

func TestParser_Parse_UnsupportedLanguageErrors(t *testing.T) {
	p := NewParser()
	_, err := p.Parse(context.Background(), []byte("x"), Name("cobol"))
	assert.Error(t, err)
}
