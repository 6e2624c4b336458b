package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// InsertFile inserts or replaces a file record, keyed by path, and returns
// its row id. The content hash is derived here so callers never need to
// reimplement the hashing scheme used for incremental reindex detection.
func (s *Store) InsertFile(path, language, content string, size, lastModified int64) (int64, error) {
	hash := hashContent(content)
	indexedAt := time.Now().Unix()

	var id int64
	err := s.withConn(func(db *sql.DB) error {
		res, err := db.Exec(
			`INSERT INTO files (path, language, hash, size, last_modified, indexed_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET
				language=excluded.language, hash=excluded.hash, size=excluded.size,
				last_modified=excluded.last_modified, indexed_at=excluded.indexed_at`,
			path, nullableString(language), hash, size, lastModified, indexedAt,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err == nil && id == 0 {
			// ON CONFLICT UPDATE does not return the existing rowid via
			// LastInsertId; look it up explicitly.
			return db.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id)
		}
		return err
	})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return id, nil
}

// GetFileByPath returns the file record for path, or nil if not indexed.
func (s *Store) GetFileByPath(path string) (*FileRecord, error) {
	var rec FileRecord
	var language sql.NullString
	err := s.withConn(func(db *sql.DB) error {
		return db.QueryRow(
			`SELECT id, path, language, hash, size, last_modified, indexed_at
			 FROM files WHERE path = ?`, path,
		).Scan(&rec.ID, &rec.Path, &language, &rec.Hash, &rec.Size, &rec.LastModified, &rec.IndexedAt)
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	rec.Language = language.String
	return &rec, nil
}

// NeedsReindex reports whether path's on-disk content differs from the
// last indexed hash, or the file has never been indexed at all.
func (s *Store) NeedsReindex(path, content string) (bool, error) {
	rec, err := s.GetFileByPath(path)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return true, nil
	}
	return rec.Hash != hashContent(content), nil
}

// DeleteFile removes a file and, via ON DELETE CASCADE, its symbols,
// chunks, and dependencies.
func (s *Store) DeleteFile(path string) error {
	var staleChunkIDs []int64

	err := s.withConn(func(db *sql.DB) error {
		if s.textIndex != nil {
			rows, err := db.Query(
				`SELECT c.id FROM chunks c JOIN files f ON c.file_id = f.id WHERE f.path = ?`, path,
			)
			if err != nil {
				return err
			}
			for rows.Next() {
				var id int64
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return err
				}
				staleChunkIDs = append(staleChunkIDs, id)
			}
			rows.Close()
		}

		_, err := db.Exec("DELETE FROM files WHERE path = ?", path)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}

	if s.textIndex != nil && len(staleChunkIDs) > 0 {
		if err := s.textIndex.DeleteChunks(staleChunkIDs); err != nil {
			slog.Warn("failed to remove deleted file's chunks from text index", slog.String("error", err.Error()))
		}
	}

	return nil
}

// GetFilePathByID returns the path for a file id, or "" if not found.
func (s *Store) GetFilePathByID(fileID int64) (string, error) {
	var path string
	err := s.withConn(func(db *sql.DB) error {
		return db.QueryRow("SELECT path FROM files WHERE id = ?", fileID).Scan(&path)
	})
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return path, nil
}

// GetFileLanguage returns the language recorded for a file id.
func (s *Store) GetFileLanguage(fileID int64) (string, error) {
	var language sql.NullString
	err := s.withConn(func(db *sql.DB) error {
		return db.QueryRow("SELECT language FROM files WHERE id = ?", fileID).Scan(&language)
	})
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return language.String, nil
}

// NeedsFullReindex reports whether the stored parser_version metadata key
// differs from the running binary's parser version (or is absent).
func (s *Store) NeedsFullReindex(parserVersion string) (bool, error) {
	var stored sql.NullString
	err := s.withConn(func(db *sql.DB) error {
		return db.QueryRow("SELECT value FROM metadata WHERE key = 'parser_version'").Scan(&stored)
	})
	if err == sql.ErrNoRows || !stored.Valid {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return stored.String != parserVersion, nil
}

// SetParserVersion records the running binary's parser version.
func (s *Store) SetParserVersion(parserVersion string) error {
	err := s.withConn(func(db *sql.DB) error {
		_, err := db.Exec(
			"INSERT OR REPLACE INTO metadata (key, value) VALUES ('parser_version', ?)",
			parserVersion,
		)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return nil
}

// ClearAllData deletes every file, symbol, chunk, and dependency.
func (s *Store) ClearAllData() error {
	err := s.withConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM dependencies", "DELETE FROM chunks",
			"DELETE FROM symbols", "DELETE FROM files",
		} {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}

	if s.textIndex != nil {
		if fresh, rebuildErr := NewTextIndex(); rebuildErr == nil {
			_ = s.textIndex.Close()
			s.textIndex = fresh
		} else {
			slog.Warn("failed to reset text index after ClearAllData", slog.String("error", rebuildErr.Error()))
		}
	}

	return nil
}

// CheckAndPrepareForReindex clears the index and records the new parser
// version when the stored parser version has changed, returning true if a
// full reindex is now required.
func (s *Store) CheckAndPrepareForReindex(parserVersion string) (bool, error) {
	needsReindex, err := s.NeedsFullReindex(parserVersion)
	if err != nil || !needsReindex {
		return false, err
	}

	err = s.withConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM dependencies", "DELETE FROM chunks",
			"DELETE FROM symbols", "DELETE FROM files",
		} {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO metadata (key, value) VALUES ('parser_version', ?)", parserVersion,
		); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return true, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
