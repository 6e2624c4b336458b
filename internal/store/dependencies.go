package store

import (
	"database/sql"
	"path"
	"strings"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// InsertDependency records one import edge from sourceFileID to targetPath.
func (s *Store) InsertDependency(sourceFileID int64, targetPath, importName, kind string) error {
	err := s.withConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO dependencies (source_file_id, target_path, import_name, kind) VALUES (?, ?, ?, ?)`,
			sourceFileID, targetPath, nullableString(importName), kind,
		)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return nil
}

// DeleteDependencies removes all dependency edges originating from fileID.
func (s *Store) DeleteDependencies(fileID int64) error {
	err := s.withConn(func(db *sql.DB) error {
		_, err := db.Exec("DELETE FROM dependencies WHERE source_file_id = ?", fileID)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return nil
}

// GetDependencies returns everything fileID imports.
func (s *Store) GetDependencies(fileID int64) ([]DependencyRecord, error) {
	var results []DependencyRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT id, source_file_id, target_path, import_name, kind
			 FROM dependencies WHERE source_file_id = ?`, fileID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		results, err = scanDependencyRows(rows)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// escapeLike escapes SQL LIKE metacharacters for use with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// GetDependents performs a heuristic reverse-dependency lookup: since
// import paths are written relative to the importing file and may or may
// not carry an extension, there is no exact join key back to targetPath.
// Instead this tries a handful of LIKE patterns derived from the target's
// basename, filename, and parent directory, then re-validates each LIKE
// hit against a stricter suffix check before accepting it — the same
// two-pass heuristic the original dependency resolver uses, since a single
// LIKE pattern alone produces too many false positives across languages.
func (s *Store) GetDependents(targetPath string) ([]DependencyRecord, error) {
	basename := strings.TrimSuffix(path.Base(targetPath), path.Ext(targetPath))
	filename := path.Base(targetPath)

	patterns := []string{
		"%" + escapeLike(filename),
		"%/" + escapeLike(basename),
		"./" + escapeLike(basename),
		"../" + escapeLike(basename),
		"%" + escapeLike(basename),
	}
	if parent := path.Base(path.Dir(targetPath)); parent != "." && parent != "/" {
		patterns = append(patterns, "%"+escapeLike(parent+"/"+basename))
	}

	var all []DependencyRecord
	seen := make(map[int64]bool)

	err := s.withConn(func(db *sql.DB) error {
		for _, pattern := range patterns {
			rows, err := db.Query(
				`SELECT id, source_file_id, target_path, import_name, kind
				 FROM dependencies WHERE target_path LIKE ? ESCAPE '\'`, pattern,
			)
			if err != nil {
				return err
			}
			results, err := scanDependencyRows(rows)
			rows.Close()
			if err != nil {
				return err
			}

			basenameLower := strings.ToLower(basename)
			for _, rec := range results {
				if seen[rec.ID] {
					continue
				}
				imp := rec.TargetPath
				impLower := strings.ToLower(imp)
				matches := strings.HasSuffix(imp, basename) ||
					strings.HasSuffix(imp, filename) ||
					strings.HasSuffix(imp, basename+".ts") ||
					strings.HasSuffix(imp, basename+".tsx") ||
					strings.HasSuffix(imp, basename+".js") ||
					strings.HasSuffix(imp, basename+".jsx") ||
					strings.HasSuffix(imp, basename+".rs") ||
					strings.HasSuffix(impLower, basenameLower)
				if matches {
					seen[rec.ID] = true
					all = append(all, rec)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return all, nil
}

func scanDependencyRows(rows *sql.Rows) ([]DependencyRecord, error) {
	var results []DependencyRecord
	for rows.Next() {
		var rec DependencyRecord
		var importName sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SourceFileID, &rec.TargetPath, &importName, &rec.Kind); err != nil {
			return nil, err
		}
		rec.ImportName = importName.String
		results = append(results, rec)
	}
	return results, rows.Err()
}
