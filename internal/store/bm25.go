package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

const (
	codeTokenizerName  = "semantiq_code_tokenizer"
	codeStopFilterName = "semantiq_code_stop"
	codeAnalyzerName   = "semantiq_code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(codeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(codeStopFilterName, codeStopFilterConstructor)
}

// TextIndex is an in-memory bleve full-text index over chunk content,
// tokenized with a code-aware analyzer (camelCase/snake_case splitting,
// stop-word filtering). The text-match search strategy queries it to
// shortlist candidate chunks by relevance instead of re-reading every file
// on disk for every query; the chunks table stays the source of truth and
// this index is rebuilt from it whenever a Store is opened.
type TextIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

type chunkDoc struct {
	FileID  int64  `json:"file_id"`
	Content string `json:"content"`
}

func buildChunkIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(codeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": codeTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			codeStopFilterName,
		},
	}); err != nil {
		return nil, fmt.Errorf("add code analyzer: %w", err)
	}
	im.DefaultAnalyzer = codeAnalyzerName
	return im, nil
}

// NewTextIndex creates an empty in-memory text index.
func NewTextIndex() (*TextIndex, error) {
	indexMapping, err := buildChunkIndexMapping()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, err)
	}
	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, err)
	}
	return &TextIndex{index: idx}, nil
}

func chunkDocID(chunkID int64) string {
	return fmt.Sprintf("%d", chunkID)
}

// IndexChunks adds or replaces every chunk's document in the index.
func (t *TextIndex) IndexChunks(fileID int64, chunks []ChunkRecord, chunkIDs []int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := t.index.NewBatch()
	for i, chunk := range chunks {
		id := chunkIDs[i]
		if err := batch.Index(chunkDocID(id), chunkDoc{FileID: fileID, Content: chunk.Content}); err != nil {
			return err
		}
	}
	return t.index.Batch(batch)
}

// DeleteChunks removes a set of chunk documents from the index, used when
// a file is deleted or its chunks are replaced.
func (t *TextIndex) DeleteChunks(chunkIDs []int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := t.index.NewBatch()
	for _, id := range chunkIDs {
		batch.Delete(chunkDocID(id))
	}
	return t.index.Batch(batch)
}

// TextIndexHit is one bleve search result: which chunk matched, which file
// it belongs to, and its stored content (avoiding a second round trip to
// SQLite for the common case).
type TextIndexHit struct {
	ChunkID int64
	FileID  int64
	Content string
}

// Search runs a bleve match query (through the code-aware analyzer) over
// chunk content, ranked by bleve's own relevance score.
func (t *TextIndex) Search(query string, limit int) ([]TextIndexHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Fields = []string{"file_id", "content"}

	result, err := t.index.Search(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}

	hits := make([]TextIndexHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var chunkID int64
		if _, err := fmt.Sscanf(hit.ID, "%d", &chunkID); err != nil {
			continue
		}
		fileID, _ := hit.Fields["file_id"].(float64)
		content, _ := hit.Fields["content"].(string)
		hits = append(hits, TextIndexHit{ChunkID: chunkID, FileID: int64(fileID), Content: content})
	}
	return hits, nil
}

// DocCount reports how many chunk documents the index currently holds.
func (t *TextIndex) DocCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count, _ := t.index.DocCount()
	return count
}

func (t *TextIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index.Close()
}

// GetAllChunksForTextIndex returns every chunk's id, file id, and content,
// used to rebuild the in-memory TextIndex when a Store is opened.
func (s *Store) GetAllChunksForTextIndex() ([]ChunkRecord, error) {
	var results []ChunkRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT id, file_id, content FROM chunks`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec ChunkRecord
			if err := rows.Scan(&rec.ID, &rec.FileID, &rec.Content); err != nil {
				return err
			}
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// codeTokenizerConstructor builds the code-aware tokenizer for bleve's
// analyzer registry.
func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

type codeTokenizer struct{}

func (c *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := TokenizeCode(text)

	stream := make(analysis.TokenStream, 0, len(tokens))
	offset := 0
	for pos, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), token)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		stream = append(stream, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos + 1,
			Type:     analysis.AlphaNumeric,
		})
		if end <= len(text) {
			offset = end
		}
	}

	return stream
}

// codeStopFilterConstructor builds the code stop-word filter for bleve's
// analyzer registry.
func codeStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &codeStopFilter{stopWords: buildStopWordMap(defaultCodeStopWords)}, nil
}

type codeStopFilter struct {
	stopWords map[string]struct{}
}

func (f *codeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(token.Term))]; !isStop {
			result = append(result, token)
		}
	}
	return result
}
