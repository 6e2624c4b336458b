package lang

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// ParseResult holds a parsed tree alongside the source bytes it was parsed
// from. Node byte offsets returned by the tree-sitter API index into
// Source, so callers must keep the two together. Close must be called once
// the tree is no longer needed to release the underlying C memory.
type ParseResult struct {
	Tree     *sitter.Tree
	Source   []byte
	Language Name
}

// Root returns the tree's root node.
func (r *ParseResult) Root() *sitter.Node {
	return r.Tree.RootNode()
}

// Close releases the tree-sitter tree.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// Parser parses source files into tree-sitter trees using grammars from a
// Registry.
type Parser struct {
	registry *Registry
}

// NewParser returns a parser backed by the default registry.
func NewParser() *Parser {
	return &Parser{registry: Default()}
}

// NewParserWithRegistry returns a parser backed by a custom registry.
func NewParserWithRegistry(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// ParseFile parses source according to the language registered for path's
// extension.
func (p *Parser) ParseFile(ctx context.Context, path string, source []byte) (*ParseResult, error) {
	grammar, name, ok := p.registry.GrammarForPath(path)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedLang, "unsupported file extension: "+path, nil)
	}
	return p.parse(ctx, grammar, name, source)
}

// Parse parses source as the given language name, using its default
// extension's grammar (so e.g. TypeScript parses as .ts, never .tsx).
func (p *Parser) Parse(ctx context.Context, source []byte, language Name) (*ParseResult, error) {
	ext, ok := defaultExtension(language)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedLang, "unsupported language: "+string(language), nil)
	}
	grammar, name, ok := p.registry.GrammarForExtension(ext)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedLang, "unsupported language: "+string(language), nil)
	}
	return p.parse(ctx, grammar, name, source)
}

func (p *Parser) parse(ctx context.Context, grammar *sitter.Language, name Name, source []byte) (*ParseResult, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTreeSitterError, err)
	}
	if tree == nil {
		return nil, errors.New(errors.ErrCodeTreeSitterError, "parser returned nil tree", nil)
	}

	return &ParseResult{Tree: tree, Source: source, Language: name}, nil
}

func defaultExtension(name Name) (string, bool) {
	switch name {
	case Go:
		return ".go", true
	case TypeScript:
		return ".ts", true
	case JavaScript:
		return ".js", true
	case Python:
		return ".py", true
	case Rust:
		return ".rs", true
	case Java:
		return ".java", true
	case C:
		return ".c", true
	case Cpp:
		return ".cpp", true
	case Php:
		return ".php", true
	default:
		return "", false
	}
}
