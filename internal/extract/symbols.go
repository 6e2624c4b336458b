// Package extract walks tree-sitter parse trees to pull out the symbols,
// chunks, and imports that the store and search engine index.
package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/semantiq-dev/semantiq/internal/lang"
	"github.com/semantiq-dev/semantiq/internal/store"
)

const maxSignatureLength = 200

// Symbols walks the parsed tree and returns every recognized declaration in
// source order, with Parent set to the name of the nearest enclosing
// symbol (e.g. a method's Parent is its class).
func Symbols(root *sitter.Node, source []byte, language lang.Name) []store.SymbolRecord {
	var out []store.SymbolRecord
	walkSymbols(root, source, language, &out, "")
	return out
}

func walkSymbols(node *sitter.Node, source []byte, language lang.Name, out *[]store.SymbolRecord, parent string) {
	children := childSlice(node)

	for i, child := range children {
		if rec, ok := nodeToSymbol(child, source, language, parent, children, i); ok {
			*out = append(*out, rec)
			walkSymbols(child, source, language, out, rec.Name)
			continue
		}
		walkSymbols(child, source, language, out, parent)
	}
}

func childSlice(node *sitter.Node) []*sitter.Node {
	n := int(node.ChildCount())
	children := make([]*sitter.Node, 0, n)
	for i := 0; i < n; i++ {
		if c := node.Child(i); c != nil {
			children = append(children, c)
		}
	}
	return children
}

func nodeToSymbol(node *sitter.Node, source []byte, language lang.Name, parent string, siblings []*sitter.Node, index int) (store.SymbolRecord, bool) {
	kind, ok := symbolKind(node.Type(), language)
	if !ok {
		return store.SymbolRecord{}, false
	}
	name, ok := symbolName(node, source, language)
	if !ok {
		return store.SymbolRecord{}, false
	}

	rec := store.SymbolRecord{
		Name:       name,
		Kind:       kind,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		StartByte:  int(node.StartByte()),
		EndByte:    int(node.EndByte()),
		Signature:  signature(node, source),
		DocComment: docComment(source, siblings, index),
		Parent:     parent,
	}
	return rec, true
}

// symbolKind mirrors the original parser's per-language node-kind tables:
// each language has its own vocabulary of declaration node types, so there
// is no single shared switch.
func symbolKind(nodeKind string, language lang.Name) (string, bool) {
	switch language {
	case lang.Rust:
		return rustSymbolKind(nodeKind)
	case lang.TypeScript, lang.JavaScript:
		return tsSymbolKind(nodeKind)
	case lang.Python:
		return pythonSymbolKind(nodeKind)
	case lang.Go:
		return goSymbolKind(nodeKind)
	case lang.Java:
		return javaSymbolKind(nodeKind)
	case lang.C, lang.Cpp:
		return cSymbolKind(nodeKind)
	case lang.Php:
		return phpSymbolKind(nodeKind)
	default:
		return "", false
	}
}

func rustSymbolKind(kind string) (string, bool) {
	switch kind {
	case "function_item":
		return "function", true
	case "struct_item":
		return "struct", true
	case "enum_item":
		return "enum", true
	case "trait_item":
		return "trait", true
	case "impl_item":
		return "class", true
	case "mod_item":
		return "module", true
	case "const_item", "static_item":
		return "constant", true
	case "type_item":
		return "type", true
	case "use_declaration":
		return "import", true
	default:
		return "", false
	}
}

func tsSymbolKind(kind string) (string, bool) {
	switch kind {
	case "function_declaration", "arrow_function":
		return "function", true
	case "method_definition":
		return "method", true
	case "class_declaration":
		return "class", true
	case "interface_declaration":
		return "interface", true
	case "enum_declaration":
		return "enum", true
	case "type_alias_declaration":
		return "type", true
	case "import_statement":
		return "import", true
	case "variable_declaration":
		return "variable", true
	default:
		return "", false
	}
}

func pythonSymbolKind(kind string) (string, bool) {
	switch kind {
	case "function_definition":
		return "function", true
	case "class_definition":
		return "class", true
	case "import_statement", "import_from_statement":
		return "import", true
	default:
		return "", false
	}
}

func goSymbolKind(kind string) (string, bool) {
	switch kind {
	case "function_declaration":
		return "function", true
	case "method_declaration":
		return "method", true
	case "type_declaration":
		return "type", true
	case "struct_type":
		return "struct", true
	case "interface_type":
		return "interface", true
	case "const_declaration":
		return "constant", true
	case "var_declaration":
		return "variable", true
	case "import_declaration":
		return "import", true
	default:
		return "", false
	}
}

func javaSymbolKind(kind string) (string, bool) {
	switch kind {
	case "method_declaration":
		return "method", true
	case "class_declaration":
		return "class", true
	case "interface_declaration":
		return "interface", true
	case "enum_declaration":
		return "enum", true
	case "import_declaration":
		return "import", true
	case "field_declaration":
		return "variable", true
	default:
		return "", false
	}
}

func cSymbolKind(kind string) (string, bool) {
	switch kind {
	case "function_definition":
		return "function", true
	case "struct_specifier":
		return "struct", true
	case "enum_specifier":
		return "enum", true
	case "type_definition":
		return "type", true
	case "preproc_include":
		return "import", true
	default:
		return "", false
	}
}

func phpSymbolKind(kind string) (string, bool) {
	switch kind {
	case "function_definition":
		return "function", true
	case "method_declaration":
		return "method", true
	case "class_declaration":
		return "class", true
	case "interface_declaration":
		return "interface", true
	case "trait_declaration":
		return "trait", true
	case "enum_declaration":
		return "enum", true
	case "namespace_definition":
		return "module", true
	case "const_declaration":
		return "constant", true
	case "namespace_use_declaration":
		return "import", true
	default:
		return "", false
	}
}

func symbolName(node *sitter.Node, source []byte, language lang.Name) (string, bool) {
	field := "name"
	if language == lang.C || language == lang.Cpp {
		field = "declarator"
	}

	if nameNode := node.ChildByFieldName(field); nameNode != nil {
		return string(source[nameNode.StartByte():nameNode.EndByte()]), true
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "identifier" || child.Type() == "type_identifier" {
			return string(source[child.StartByte():child.EndByte()]), true
		}
	}

	return "", false
}

func signature(node *sitter.Node, source []byte) string {
	text := string(source[node.StartByte():node.EndByte()])
	firstLine, _, _ := strings.Cut(text, "\n")
	firstLine = strings.TrimSpace(firstLine)
	if len(firstLine) > maxSignatureLength {
		firstLine = firstLine[:maxSignatureLength] + "..."
	}
	return firstLine
}

// docComment looks backward through node's preceding siblings (within the
// same parent) for an unbroken run of comment nodes, the way a doc comment
// sits directly above the declaration it documents.
func docComment(source []byte, siblings []*sitter.Node, index int) string {
	var comments []string
	for i := index - 1; i >= 0; i-- {
		sib := siblings[i]
		if !strings.Contains(sib.Type(), "comment") {
			break
		}
		comments = append(comments, string(source[sib.StartByte():sib.EndByte()]))
	}
	if len(comments) == 0 {
		return ""
	}
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return strings.Join(comments, "\n")
}
