package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/semantiq-dev/semantiq/internal/lang"
)

// Import is one dependency edge extracted from a source file.
type Import struct {
	Path      string
	Name      string
	Kind      string // std, external, local
	StartLine int
	EndLine   int
}

var pythonStdModules = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "pathlib": true,
	"collections": true, "itertools": true, "functools": true, "typing": true,
	"dataclasses": true, "abc": true, "io": true, "time": true, "datetime": true,
	"logging": true, "unittest": true, "argparse": true, "subprocess": true,
	"threading": true, "asyncio": true,
}

// Imports walks the parsed tree and returns every import/use/include
// statement it finds.
func Imports(root *sitter.Node, source []byte, language lang.Name) []Import {
	var out []Import
	walkImports(root, source, language, &out)
	return out
}

func walkImports(node *sitter.Node, source []byte, language lang.Name, out *[]Import) {
	if imp, ok := nodeToImport(node, source, language); ok {
		*out = append(*out, imp)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil {
			walkImports(child, source, language, out)
		}
	}
}

func nodeToImport(node *sitter.Node, source []byte, language lang.Name) (Import, bool) {
	switch language {
	case lang.Rust:
		return rustImport(node, source)
	case lang.TypeScript, lang.JavaScript:
		return tsImport(node, source)
	case lang.Python:
		return pythonImport(node, source)
	case lang.Go:
		return goImport(node, source)
	case lang.Java:
		return javaImport(node, source)
	case lang.C, lang.Cpp:
		return cImport(node, source)
	case lang.Php:
		return phpImport(node, source)
	default:
		return Import{}, false
	}
}

func rustImport(node *sitter.Node, source []byte) (Import, bool) {
	if node.Type() != "use_declaration" {
		return Import{}, false
	}
	text := string(source[node.StartByte():node.EndByte()])
	path, ok := parseRustUsePath(text)
	if !ok {
		return Import{}, false
	}
	return Import{
		Path:      path,
		Name:      rustImportName(path),
		Kind:      classifyRustImport(path),
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}, true
}

func parseRustUsePath(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text, ok := strings.CutPrefix(text, "use ")
	if !ok {
		return "", false
	}
	text, ok = strings.CutSuffix(strings.TrimSpace(text), ";")
	if !ok {
		return "", false
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "pub ")
	text = strings.TrimPrefix(text, "use ")
	return text, true
}

func classifyRustImport(path string) string {
	first, _, _ := strings.Cut(path, "::")
	switch first {
	case "std", "core", "alloc":
		return "std"
	case "crate", "self", "super":
		return "local"
	default:
		return "external"
	}
}

func rustImportName(path string) string {
	if strings.Contains(path, "{") {
		return ""
	}
	parts := strings.Split(path, "::")
	return parts[len(parts)-1]
}

func tsImport(node *sitter.Node, source []byte) (Import, bool) {
	if node.Type() != "import_statement" {
		return Import{}, false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "string" {
			continue
		}
		path := strings.Trim(string(source[child.StartByte():child.EndByte()]), `"'`)
		kind := "external"
		if strings.HasPrefix(path, ".") {
			kind = "local"
		}
		parts := strings.Split(path, "/")
		return Import{
			Path:      path,
			Name:      parts[len(parts)-1],
			Kind:      kind,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		}, true
	}
	return Import{}, false
}

func pythonImport(node *sitter.Node, source []byte) (Import, bool) {
	switch node.Type() {
	case "import_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil || child.Type() != "dotted_name" {
				continue
			}
			path := string(source[child.StartByte():child.EndByte()])
			parts := strings.Split(path, ".")
			return Import{
				Path:      path,
				Name:      parts[len(parts)-1],
				Kind:      classifyPythonImport(path),
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
			}, true
		}
	case "import_from_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil || (child.Type() != "dotted_name" && child.Type() != "relative_import") {
				continue
			}
			path := string(source[child.StartByte():child.EndByte()])
			kind := classifyPythonImport(path)
			if strings.HasPrefix(path, ".") {
				kind = "local"
			}
			parts := strings.Split(path, ".")
			return Import{
				Path:      path,
				Name:      parts[len(parts)-1],
				Kind:      kind,
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
			}, true
		}
	}
	return Import{}, false
}

func classifyPythonImport(path string) string {
	first, _, _ := strings.Cut(path, ".")
	if pythonStdModules[first] {
		return "std"
	}
	return "external"
}

func goImport(node *sitter.Node, source []byte) (Import, bool) {
	if node.Type() != "import_spec" {
		return Import{}, false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "interpreted_string_literal" {
			continue
		}
		path := strings.Trim(string(source[child.StartByte():child.EndByte()]), `"`)
		var kind string
		switch {
		case strings.HasPrefix(path, ".") || strings.HasPrefix(path, "/"):
			kind = "local"
		case strings.Contains(path, "."):
			kind = "external"
		default:
			kind = "std"
		}
		parts := strings.Split(path, "/")
		return Import{
			Path:      path,
			Name:      parts[len(parts)-1],
			Kind:      kind,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		}, true
	}
	return Import{}, false
}

func javaImport(node *sitter.Node, source []byte) (Import, bool) {
	if node.Type() != "import_declaration" {
		return Import{}, false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "scoped_identifier" {
			continue
		}
		path := string(source[child.StartByte():child.EndByte()])
		kind := "external"
		if strings.HasPrefix(path, "java.") || strings.HasPrefix(path, "javax.") {
			kind = "std"
		}
		parts := strings.Split(path, ".")
		return Import{
			Path:      path,
			Name:      parts[len(parts)-1],
			Kind:      kind,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		}, true
	}
	return Import{}, false
}

func cImport(node *sitter.Node, source []byte) (Import, bool) {
	if node.Type() != "preproc_include" {
		return Import{}, false
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "string_literal":
			path := strings.Trim(string(source[child.StartByte():child.EndByte()]), `"`)
			parts := strings.Split(path, "/")
			return Import{
				Path:      path,
				Name:      parts[len(parts)-1],
				Kind:      "local",
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
			}, true
		case "system_lib_string":
			path := strings.Trim(string(source[child.StartByte():child.EndByte()]), "<>")
			parts := strings.Split(path, "/")
			return Import{
				Path:      path,
				Name:      parts[len(parts)-1],
				Kind:      "std",
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
			}, true
		}
	}
	return Import{}, false
}

// phpImport extracts `use Foo\Bar;` import statements. The original parser
// has no PHP arm at all (node_to_import only matches Rust/TS/JS/Python/
// Go/Java/C/Cpp); this is supplemented here since PHP is a fully supported
// language elsewhere in the parser (language.rs registers its grammar and
// symbols.rs recognizes namespace_use_declaration).
func phpImport(node *sitter.Node, source []byte) (Import, bool) {
	if node.Type() != "namespace_use_declaration" {
		return Import{}, false
	}

	var path string
	var cursor func(n *sitter.Node) bool
	cursor = func(n *sitter.Node) bool {
		if n.Type() == "namespace_name" || n.Type() == "qualified_name" {
			path = string(source[n.StartByte():n.EndByte()])
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c != nil && cursor(c) {
				return true
			}
		}
		return false
	}
	if !cursor(node) || path == "" {
		return Import{}, false
	}

	kind := "external"
	if strings.HasPrefix(path, `\`) {
		kind = "local"
	}
	parts := strings.Split(path, `\`)
	return Import{
		Path:      path,
		Name:      parts[len(parts)-1],
		Kind:      kind,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}, true
}
