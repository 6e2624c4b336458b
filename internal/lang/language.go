// Package lang provides the tree-sitter grammar registry shared by the
// indexer, extractor, and search engine: one place that knows which of the
// nine supported languages a file extension maps to and how to parse it.
package lang

import "strings"

// Name identifies one of the languages semantiq understands. tsx and jsx
// source files are tagged as typescript/javascript respectively rather than
// modeled as their own languages, since their symbol and import shapes are
// identical to their non-JSX counterparts and only the grammar differs.
type Name string

const (
	Go         Name = "go"
	TypeScript Name = "typescript"
	JavaScript Name = "javascript"
	Python     Name = "python"
	Rust       Name = "rust"
	Java       Name = "java"
	C          Name = "c"
	Cpp        Name = "cpp"
	Php        Name = "php"
)

// All lists every supported language in a stable order, used for calibration
// sweeps and CLI help text.
var All = []Name{Go, TypeScript, JavaScript, Python, Rust, Java, C, Cpp, Php}

var extToLang = map[string]Name{
	".go":    Go,
	".ts":    TypeScript,
	".tsx":   TypeScript,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".py":    Python,
	".pyi":   Python,
	".rs":    Rust,
	".java":  Java,
	".c":     C,
	".h":     C,
	".cpp":   Cpp,
	".cc":    Cpp,
	".cxx":   Cpp,
	".hpp":   Cpp,
	".hxx":   Cpp,
	".hh":    Cpp,
	".php":   Php,
	".phtml": Php,
	".php3":  Php,
	".php4":  Php,
	".php5":  Php,
	".php7":  Php,
	".phps":  Php,
}

// FromExtension maps a file extension (with or without a leading dot) to a
// supported language, reporting false if the extension is unrecognized.
func FromExtension(ext string) (Name, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name, ok := extToLang[ext]
	return name, ok
}

// FromPath maps a file path's extension to a supported language.
func FromPath(path string) (Name, bool) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", false
	}
	return FromExtension(path[i:])
}
