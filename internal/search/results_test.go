package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_New(t *testing.T) {
	r := NewResult(ResultKindSymbol, "test.go", 10, 20, "func test() {}", 0.9)

	assert.Equal(t, "test.go", r.FilePath)
	assert.Equal(t, 10, r.StartLine)
	assert.Equal(t, 20, r.EndLine)
	assert.Equal(t, float32(0.9), r.Score)
	assert.Equal(t, ResultKindSymbol, r.Kind)
}

func TestResult_Location_SingleLine(t *testing.T) {
	r := NewResult(ResultKindTextMatch, "src/main.go", 42, 42, "x := 1", 0.5)
	assert.Equal(t, "src/main.go:42", r.Location())
}

func TestResult_Location_MultiLine(t *testing.T) {
	r := NewResult(ResultKindSymbol, "src/lib.go", 10, 25, "func foo() { ... }", 0.8)
	assert.Equal(t, "src/lib.go:10-25", r.Location())
}

func TestResult_WithMetadata(t *testing.T) {
	name := "hello"
	kind := "function"
	r := NewResult(ResultKindSymbol, "test.go", 1, 5, "func hello()", 1.0).
		WithMetadata(ResultMetadata{SymbolName: &name, SymbolKind: &kind})

	assert.Equal(t, "hello", *r.Metadata.SymbolName)
	assert.Equal(t, "function", *r.Metadata.SymbolKind)
}

func TestResults_New(t *testing.T) {
	results := []Result{
		NewResult(ResultKindSymbol, "a.go", 1, 1, "func a()", 0.9),
		NewResult(ResultKindTextMatch, "b.go", 2, 2, "b := 1", 0.5),
	}
	rs := NewResults("test", results, 100)

	assert.Equal(t, "test", rs.Query)
	assert.Equal(t, 2, rs.TotalCount)
	assert.Equal(t, int64(100), rs.SearchTimeMs)
}

func TestResults_IsEmpty(t *testing.T) {
	empty := NewResults("test", nil, 10)
	assert.True(t, empty.IsEmpty())

	nonEmpty := NewResults("test", []Result{NewResult(ResultKindSymbol, "a.go", 1, 1, "func a()", 0.9)}, 10)
	assert.False(t, nonEmpty.IsEmpty())
}

func TestResults_Top(t *testing.T) {
	results := []Result{
		NewResult(ResultKindSymbol, "a.go", 1, 1, "func a()", 0.9),
		NewResult(ResultKindSymbol, "b.go", 2, 2, "func b()", 0.8),
		NewResult(ResultKindSymbol, "c.go", 3, 3, "func c()", 0.7),
	}
	rs := NewResults("test", results, 50)
	top2 := rs.Top(2)

	assert.Len(t, top2, 2)
	assert.Equal(t, "a.go", top2[0].FilePath)
	assert.Equal(t, "b.go", top2[1].FilePath)
}

func TestResults_Top_ClampsToAvailable(t *testing.T) {
	rs := NewResults("test", []Result{NewResult(ResultKindSymbol, "a.go", 1, 1, "func a()", 0.9)}, 10)
	assert.Len(t, rs.Top(5), 1)
}

func TestResults_Merge(t *testing.T) {
	rs1 := NewResults("test", []Result{NewResult(ResultKindSymbol, "a.go", 1, 1, "func a()", 0.9)}, 50)
	rs2 := NewResults("test", []Result{NewResult(ResultKindSymbol, "b.go", 2, 2, "func b()", 0.95)}, 30)

	rs1.Merge(rs2)

	assert.Equal(t, 2, rs1.TotalCount)
	assert.Equal(t, "b.go", rs1.Results[0].FilePath)
	assert.Equal(t, "a.go", rs1.Results[1].FilePath)
}
