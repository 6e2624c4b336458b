package extract

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/semantiq-dev/semantiq/internal/lang"
	"github.com/semantiq-dev/semantiq/internal/store"
)

const (
	// DefaultChunkSize is the target chunk size in bytes before a semantic
	// boundary forces a cut.
	DefaultChunkSize = 1500
	overlapLines     = 3
)

// ChunkExtractor splits a parsed file into retrievable chunks, cutting at
// semantic boundaries (function/class/etc. declarations) when the language
// is recognized and falling back to fixed-size line windows otherwise.
type ChunkExtractor struct {
	chunkSize int
}

// NewChunkExtractor returns an extractor using DefaultChunkSize.
func NewChunkExtractor() *ChunkExtractor {
	return &ChunkExtractor{chunkSize: DefaultChunkSize}
}

// WithChunkSize overrides the target chunk size.
func (c *ChunkExtractor) WithChunkSize(size int) *ChunkExtractor {
	c.chunkSize = size
	return c
}

type boundary struct {
	name      string
	startLine int // 0-indexed
}

// Extract splits source into chunks.
func (c *ChunkExtractor) Extract(root *sitter.Node, source []byte, language lang.Name) []store.ChunkRecord {
	lines := strings.Split(string(source), "\n")

	boundaries := c.findBoundaries(root, source, language)
	if len(boundaries) == 0 {
		return c.lineBasedChunks(source, lines)
	}

	var chunks []store.ChunkRecord
	currentStart := 0
	var currentSymbols []string

	for _, b := range boundaries {
		if b.startLine > currentStart {
			contentSize := 0
			for _, l := range lines[currentStart:min(b.startLine, len(lines))] {
				contentSize += len(l) + 1
			}
			if contentSize >= c.chunkSize && len(currentSymbols) > 0 {
				chunks = append(chunks, c.createChunk(source, lines, currentStart, b.startLine, currentSymbols))
				currentStart = b.startLine - overlapLines
				if currentStart < 0 {
					currentStart = 0
				}
				currentSymbols = nil
			}
		}
		currentSymbols = append(currentSymbols, b.name)
	}

	if currentStart < len(lines) {
		chunks = append(chunks, c.createChunk(source, lines, currentStart, len(lines), currentSymbols))
	}

	return chunks
}

func (c *ChunkExtractor) findBoundaries(root *sitter.Node, source []byte, language lang.Name) []boundary {
	var boundaries []boundary
	c.collectBoundaries(root, source, language, &boundaries)
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].startLine < boundaries[j].startLine })
	return boundaries
}

func (c *ChunkExtractor) collectBoundaries(node *sitter.Node, source []byte, language lang.Name, boundaries *[]boundary) {
	if isBoundaryNode(node.Type(), language) {
		if name, ok := boundaryName(node, source); ok {
			*boundaries = append(*boundaries, boundary{
				name:      name,
				startLine: int(node.StartPoint().Row),
			})
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil {
			c.collectBoundaries(child, source, language, boundaries)
		}
	}
}

func isBoundaryNode(kind string, language lang.Name) bool {
	switch language {
	case lang.Rust:
		switch kind {
		case "function_item", "struct_item", "enum_item", "trait_item", "impl_item", "mod_item":
			return true
		}
	case lang.TypeScript, lang.JavaScript:
		switch kind {
		case "function_declaration", "class_declaration", "interface_declaration", "method_definition":
			return true
		}
	case lang.Python:
		switch kind {
		case "function_definition", "class_definition":
			return true
		}
	case lang.Go:
		switch kind {
		case "function_declaration", "method_declaration", "type_declaration":
			return true
		}
	case lang.Java:
		switch kind {
		case "method_declaration", "class_declaration", "interface_declaration":
			return true
		}
	case lang.C, lang.Cpp:
		switch kind {
		case "function_definition", "struct_specifier", "class_specifier":
			return true
		}
	case lang.Php:
		switch kind {
		case "function_definition", "method_declaration", "class_declaration", "interface_declaration", "trait_declaration":
			return true
		}
	}
	return false
}

func boundaryName(node *sitter.Node, source []byte) (string, bool) {
	for _, field := range []string{"name", "declarator"} {
		if n := node.ChildByFieldName(field); n != nil {
			return string(source[n.StartByte():n.EndByte()]), true
		}
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

func (c *ChunkExtractor) createChunk(source []byte, lines []string, startLine, endLine int, symbols []string) store.ChunkRecord {
	if endLine > len(lines) {
		endLine = len(lines)
	}
	content := strings.Join(lines[startLine:endLine], "\n")

	startByte := 0
	for _, l := range lines[:startLine] {
		startByte += len(l) + 1
	}
	endByte := startByte + len(content)
	if endByte > len(source) {
		endByte = len(source)
	}
	if startByte > len(source) {
		startByte = len(source)
	}

	return store.ChunkRecord{
		Content:   content,
		StartLine: startLine + 1,
		EndLine:   endLine,
		StartByte: startByte,
		EndByte:   endByte,
		Symbols:   append([]string(nil), symbols...),
	}
}

func (c *ChunkExtractor) lineBasedChunks(source []byte, lines []string) []store.ChunkRecord {
	var chunks []store.ChunkRecord
	currentStart := 0

	for currentStart < len(lines) {
		size := 0
		end := currentStart
		for end < len(lines) && size < c.chunkSize {
			size += len(lines[end]) + 1
			end++
		}

		chunks = append(chunks, c.createChunk(source, lines, currentStart, end, nil))

		next := end - overlapLines
		if next <= currentStart {
			next = end
		}
		currentStart = next
	}

	return chunks
}
