package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// InsertChunks replaces all chunks for file_id with the given set, and
// reindexes the replacement chunks into the in-memory text index.
func (s *Store) InsertChunks(fileID int64, chunks []ChunkRecord) error {
	var staleIDs []int64
	var newIDs []int64

	err := s.withConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}

		rows, err := tx.Query("SELECT id FROM chunks WHERE file_id = ?", fileID)
		if err != nil {
			tx.Rollback()
			return err
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				tx.Rollback()
				return err
			}
			staleIDs = append(staleIDs, id)
		}
		rows.Close()

		if _, err := tx.Exec("DELETE FROM chunks WHERE file_id = ?", fileID); err != nil {
			tx.Rollback()
			return err
		}
		stmt, err := tx.Prepare(
			`INSERT INTO chunks (file_id, content, start_line, end_line, start_byte, end_byte, symbols_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			symbolsJSON, err := json.Marshal(chunk.Symbols)
			if err != nil {
				tx.Rollback()
				return err
			}
			res, err := stmt.Exec(
				fileID, chunk.Content, chunk.StartLine, chunk.EndLine, chunk.StartByte, chunk.EndByte,
				string(symbolsJSON),
			)
			if err != nil {
				tx.Rollback()
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				tx.Rollback()
				return err
			}
			newIDs = append(newIDs, id)
		}
		return tx.Commit()
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}

	if s.textIndex != nil {
		if len(staleIDs) > 0 {
			if err := s.textIndex.DeleteChunks(staleIDs); err != nil {
				slog.Warn("failed to remove stale chunks from text index", slog.String("error", err.Error()))
			}
		}
		if len(newIDs) > 0 {
			if err := s.textIndex.IndexChunks(fileID, chunks, newIDs); err != nil {
				slog.Warn("failed to index chunks into text index", slog.String("error", err.Error()))
			}
		}
	}

	return nil
}

// UpdateChunkEmbedding dual-writes the embedding into the chunks table's
// BLOB column (the source of truth) and the chunks_vec vec0 virtual table
// (the query index), in one transaction.
func (s *Store) UpdateChunkEmbedding(chunkID int64, embedding []float32) error {
	raw, err := sqlitevec.SerializeFloat32(embedding)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}

	err = s.withConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE chunks SET embedding = ? WHERE id = ?", raw, chunkID); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO chunks_vec(chunk_id, embedding) VALUES (?, ?)", chunkID, raw,
		); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return nil
}

// SimilarChunk is one vector-search hit.
type SimilarChunk struct {
	ChunkID  int64
	Distance float32
}

// SearchSimilarChunks runs a KNN query against the chunks_vec vec0 table,
// returning the closest matches ordered by ascending distance.
func (s *Store) SearchSimilarChunks(queryEmbedding []float32, limit int) ([]SimilarChunk, error) {
	raw, err := sqlitevec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
	}

	var results []SimilarChunk
	err = s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT chunk_id, distance FROM chunks_vec
			 WHERE embedding MATCH ? ORDER BY distance LIMIT ?`, raw, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r SimilarChunk
			if err := rows.Scan(&r.ChunkID, &r.Distance); err != nil {
				return err
			}
			results = append(results, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// GetChunksByIDs returns chunk records for the given ids, typically
// following a vector search.
func (s *Store) GetChunksByIDs(chunkIDs []int64) ([]ChunkRecord, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	var results []ChunkRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(fmt.Sprintf(
			`SELECT id, file_id, content, start_line, end_line, start_byte, end_byte, symbols_json, embedding
			 FROM chunks WHERE id IN (%s)`, placeholders), args...,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec ChunkRecord
			var symbolsJSON string
			var embeddingBlob []byte
			if err := rows.Scan(
				&rec.ID, &rec.FileID, &rec.Content, &rec.StartLine, &rec.EndLine,
				&rec.StartByte, &rec.EndByte, &symbolsJSON, &embeddingBlob,
			); err != nil {
				return err
			}
			rec.Symbols = parseSymbolsJSON(symbolsJSON)
			if embeddingBlob != nil {
				rec.Embedding = parseEmbeddingBytes(embeddingBlob)
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

// GetChunksWithoutEmbeddings returns up to limit chunks whose embedding
// column is still NULL, for the embedding backfill loop.
func (s *Store) GetChunksWithoutEmbeddings(limit int) ([]ChunkRecord, error) {
	var results []ChunkRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, file_id, content, start_line, end_line, start_byte, end_byte, symbols_json
			 FROM chunks WHERE embedding IS NULL LIMIT ?`, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec ChunkRecord
			var symbolsJSON string
			if err := rows.Scan(
				&rec.ID, &rec.FileID, &rec.Content, &rec.StartLine, &rec.EndLine,
				&rec.StartByte, &rec.EndByte, &symbolsJSON,
			); err != nil {
				return err
			}
			rec.Symbols = parseSymbolsJSON(symbolsJSON)
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// GetChunksByFile returns all chunks belonging to file_id.
func (s *Store) GetChunksByFile(fileID int64) ([]ChunkRecord, error) {
	var results []ChunkRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, file_id, content, start_line, end_line, start_byte, end_byte, symbols_json
			 FROM chunks WHERE file_id = ?`, fileID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec ChunkRecord
			var symbolsJSON string
			if err := rows.Scan(
				&rec.ID, &rec.FileID, &rec.Content, &rec.StartLine, &rec.EndLine,
				&rec.StartByte, &rec.EndByte, &symbolsJSON,
			); err != nil {
				return err
			}
			rec.Symbols = parseSymbolsJSON(symbolsJSON)
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// ChunkWithEmbedding pairs a chunk record with its decoded embedding.
type ChunkWithEmbedding struct {
	Chunk     ChunkRecord
	Embedding []float32
}

// GetChunksWithEmbeddings returns every chunk that has a non-null
// embedding, used to rebuild the vector index from the source-of-truth
// BLOB column (e.g. after a schema migration).
func (s *Store) GetChunksWithEmbeddings() ([]ChunkWithEmbedding, error) {
	var results []ChunkWithEmbedding
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT c.id, c.file_id, c.content, c.start_line, c.end_line, c.start_byte, c.end_byte,
			        c.symbols_json, c.embedding
			 FROM chunks c WHERE c.embedding IS NOT NULL`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec ChunkRecord
			var symbolsJSON string
			var embeddingBlob []byte
			if err := rows.Scan(
				&rec.ID, &rec.FileID, &rec.Content, &rec.StartLine, &rec.EndLine,
				&rec.StartByte, &rec.EndByte, &symbolsJSON, &embeddingBlob,
			); err != nil {
				return err
			}
			rec.Symbols = parseSymbolsJSON(symbolsJSON)
			embedding := parseEmbeddingBytes(embeddingBlob)
			rec.Embedding = embedding
			results = append(results, ChunkWithEmbedding{Chunk: rec, Embedding: embedding})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// GetChunkFilePath returns the path of the file a chunk belongs to.
func (s *Store) GetChunkFilePath(fileID int64) (string, error) {
	return s.GetFilePathByID(fileID)
}

// GetChunkLanguage returns the language of the file a chunk belongs to.
func (s *Store) GetChunkLanguage(chunkID int64) (string, error) {
	var language sql.NullString
	err := s.withConn(func(db *sql.DB) error {
		return db.QueryRow(
			`SELECT f.language FROM chunks c JOIN files f ON c.file_id = f.id WHERE c.id = ?`, chunkID,
		).Scan(&language)
	})
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return language.String, nil
}

func parseSymbolsJSON(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var symbols []string
	if err := json.Unmarshal([]byte(raw), &symbols); err != nil {
		slog.Default().Warn("failed to parse chunk symbols JSON", "error", err)
		return nil
	}
	return symbols
}

func parseEmbeddingBytes(raw []byte) []float32 {
	if len(raw)%4 != 0 {
		slog.Default().Warn("invalid embedding byte length", "len", len(raw))
		return nil
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
