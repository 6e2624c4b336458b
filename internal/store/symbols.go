package store

import (
	"database/sql"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// maxSymbolSearchLimit caps FTS5 symbol search result size.
const maxSymbolSearchLimit = 10000

// InsertSymbols replaces all symbols for file_id with the given set, in a
// single transaction so a reader never observes a partially-updated file.
func (s *Store) InsertSymbols(fileID int64, symbols []SymbolRecord) error {
	err := s.withConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM symbols WHERE file_id = ?", fileID); err != nil {
			tx.Rollback()
			return err
		}
		stmt, err := tx.Prepare(
			`INSERT INTO symbols (file_id, name, kind, start_line, end_line, start_byte, end_byte, signature, doc_comment, parent)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, sym := range symbols {
			if _, err := stmt.Exec(
				fileID, sym.Name, sym.Kind, sym.StartLine, sym.EndLine, sym.StartByte, sym.EndByte,
				nullableString(sym.Signature), nullableString(sym.DocComment), nullableString(sym.Parent),
			); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return nil
}

// SearchSymbols runs an FTS5 MATCH query over name/signature/doc_comment.
func (s *Store) SearchSymbols(query string, limit int) ([]SymbolRecord, error) {
	if limit > maxSymbolSearchLimit {
		limit = maxSymbolSearchLimit
	}
	ftsQuery := escapeFTS5Query(query)

	var results []SymbolRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT s.id, s.file_id, s.name, s.kind, s.start_line, s.end_line,
			        s.start_byte, s.end_byte, s.signature, s.doc_comment, s.parent
			 FROM symbols s
			 JOIN symbols_fts ON s.id = symbols_fts.rowid
			 WHERE symbols_fts MATCH ?
			 LIMIT ?`, ftsQuery, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		results, err = scanSymbolRows(rows)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// FindSymbolByName returns all symbols with an exact name match.
func (s *Store) FindSymbolByName(name string) ([]SymbolRecord, error) {
	var results []SymbolRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, file_id, name, kind, start_line, end_line,
			        start_byte, end_byte, signature, doc_comment, parent
			 FROM symbols WHERE name = ?`, name,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		results, err = scanSymbolRows(rows)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// GetSymbolsByFile returns all symbols in file_id, ordered by start line.
func (s *Store) GetSymbolsByFile(fileID int64) ([]SymbolRecord, error) {
	var results []SymbolRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, file_id, name, kind, start_line, end_line,
			        start_byte, end_byte, signature, doc_comment, parent
			 FROM symbols WHERE file_id = ? ORDER BY start_line`, fileID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		results, err = scanSymbolRows(rows)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

func scanSymbolRows(rows *sql.Rows) ([]SymbolRecord, error) {
	var results []SymbolRecord
	for rows.Next() {
		var rec SymbolRecord
		var signature, docComment, parent sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.FileID, &rec.Name, &rec.Kind, &rec.StartLine, &rec.EndLine,
			&rec.StartByte, &rec.EndByte, &signature, &docComment, &parent,
		); err != nil {
			return nil, err
		}
		rec.Signature = signature.String
		rec.DocComment = docComment.String
		rec.Parent = parent.String
		results = append(results, rec)
	}
	return results, rows.Err()
}
