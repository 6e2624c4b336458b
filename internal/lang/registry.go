package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Registry resolves a file extension to the tree-sitter grammar that parses
// it and the language Name that the rest of the system tags it with. Kept
// per-extension rather than per-Name because .tsx and .ts share a Name
// (typescript) but need distinct grammars.
type Registry struct {
	grammars map[string]*sitter.Language
}

// NewRegistry builds the registry with all nine supported languages.
func NewRegistry() *Registry {
	r := &Registry{grammars: make(map[string]*sitter.Language)}

	r.register(".go", golang.GetLanguage())
	r.register(".ts", typescript.GetLanguage())
	r.register(".tsx", tsx.GetLanguage())
	r.register(".js", javascript.GetLanguage())
	r.register(".jsx", javascript.GetLanguage())
	r.register(".mjs", javascript.GetLanguage())
	r.register(".cjs", javascript.GetLanguage())
	r.register(".py", python.GetLanguage())
	r.register(".pyi", python.GetLanguage())
	r.register(".rs", rust.GetLanguage())
	r.register(".java", java.GetLanguage())
	r.register(".c", c.GetLanguage())
	r.register(".h", c.GetLanguage())
	r.register(".cpp", cpp.GetLanguage())
	r.register(".cc", cpp.GetLanguage())
	r.register(".cxx", cpp.GetLanguage())
	r.register(".hpp", cpp.GetLanguage())
	r.register(".hxx", cpp.GetLanguage())
	r.register(".hh", cpp.GetLanguage())
	r.register(".php", php.GetLanguage())
	r.register(".phtml", php.GetLanguage())
	r.register(".php3", php.GetLanguage())
	r.register(".php4", php.GetLanguage())
	r.register(".php5", php.GetLanguage())
	r.register(".php7", php.GetLanguage())
	r.register(".phps", php.GetLanguage())

	return r
}

func (r *Registry) register(ext string, grammar *sitter.Language) {
	r.grammars[ext] = grammar
}

// GrammarForExtension returns the tree-sitter grammar and the tagged
// language Name for a file extension.
func (r *Registry) GrammarForExtension(ext string) (*sitter.Language, Name, bool) {
	name, ok := FromExtension(ext)
	if !ok {
		return nil, "", false
	}
	grammar, ok := r.grammars[normalizeExt(ext)]
	if !ok {
		return nil, "", false
	}
	return grammar, name, true
}

// GrammarForPath resolves a file path directly.
func (r *Registry) GrammarForPath(path string) (*sitter.Language, Name, bool) {
	name, ok := FromPath(path)
	if !ok {
		return nil, "", false
	}
	i := len(path) - 1
	for i >= 0 && path[i] != '.' {
		i--
	}
	if i < 0 {
		return nil, "", false
	}
	grammar, ok := r.grammars[normalizeExt(path[i:])]
	if !ok {
		return nil, "", false
	}
	return grammar, name, true
}

// SupportedExtensions returns every registered file extension.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.grammars))
	for ext := range r.grammars {
		exts = append(exts, ext)
	}
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide grammar registry.
func Default() *Registry {
	return defaultRegistry
}
