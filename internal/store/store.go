package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// driverName is the sql.Open driver registered once per process with the
// sqlite-vec extension bound to every new connection, following the
// registration pattern documented by sqlite-vec-go-bindings (a ConnectHook
// on a named driver, rather than mutating the stock "sqlite3" driver).
const driverName = "sqlite3_with_vec"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sqlitevec.Auto()
		slog.Default().Debug("sqlite-vec extension registered")
	})
}

// Store is the main storage interface for the code index: a single SQLite
// connection pool guarded by a mutex, since SQLite serializes writers and
// the teacher's own store layer holds the same single-writer discipline.
type Store struct {
	db        *sql.DB
	mu        sync.Mutex
	dbPath    string
	textIndex *TextIndex
}

// Open creates or opens an on-disk index database at path.
func Open(path string) (*Store, error) {
	registerDriver()

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(
		"PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON; PRAGMA busy_timeout=5000;",
	); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeSchemaMismatch, err)
	}
	if err := initVectorIndex(db); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.rebuildTextIndex(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an in-memory database, useful for tests.
func OpenInMemory() (*Store, error) {
	registerDriver()

	// A shared cache keeps the in-memory database alive across the single
	// connection in the pool; the ":memory:" name keeps it off disk.
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeSchemaMismatch, err)
	}
	if err := initVectorIndex(db); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, err)
	}

	s := &Store{db: db, dbPath: ":memory:"}
	if err := s.rebuildTextIndex(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// rebuildTextIndex (re)populates the in-memory bleve text index from the
// chunks table, called once at Open time.
func (s *Store) rebuildTextIndex() error {
	idx, err := NewTextIndex()
	if err != nil {
		return err
	}

	chunks, err := s.GetAllChunksForTextIndex()
	if err != nil {
		return err
	}

	byFile := make(map[int64][]ChunkRecord)
	idsByFile := make(map[int64][]int64)
	for _, c := range chunks {
		byFile[c.FileID] = append(byFile[c.FileID], c)
		idsByFile[c.FileID] = append(idsByFile[c.FileID], c.ID)
	}
	for fileID, fileChunks := range byFile {
		if err := idx.IndexChunks(fileID, fileChunks, idsByFile[fileID]); err != nil {
			return err
		}
	}

	s.textIndex = idx
	return nil
}

// TextIndex exposes the in-memory bleve index for the text-match search
// strategy.
func (s *Store) TextIndex() *TextIndex {
	return s.textIndex
}

// Close closes the underlying database connection and the in-memory text
// index.
func (s *Store) Close() error {
	if s.textIndex != nil {
		_ = s.textIndex.Close()
	}
	return s.db.Close()
}

// DBPath returns the path to the database file (":memory:" for in-memory).
func (s *Store) DBPath() string {
	return s.dbPath
}

// withConn serializes access to the one pooled connection. SQLite itself
// only allows one writer at a time; this mutex turns a busy-timeout retry
// loop into a fast, deterministic queue within this process.
func (s *Store) withConn(f func(*sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.db)
}

// GetStats returns row counts across the four primary tables.
func (s *Store) GetStats() (Stats, error) {
	var stats Stats
	err := s.withConn(func(db *sql.DB) error {
		return db.QueryRow(`SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM symbols),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(*) FROM dependencies)`,
		).Scan(&stats.FileCount, &stats.SymbolCount, &stats.ChunkCount, &stats.DependencyCount)
	})
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return stats, nil
}

// escapeFTS5Query strips control characters, doubles embedded double
// quotes, and wraps the query as a quoted prefix match so arbitrary user
// input can never be interpreted as FTS5 boolean/NEAR/grouping syntax.
func escapeFTS5Query(query string) string {
	cleaned := make([]rune, 0, len(query))
	for _, r := range query {
		if r >= 0x20 && r != 0x7f {
			cleaned = append(cleaned, r)
		}
	}
	escaped := strings.ReplaceAll(string(cleaned), `"`, `""`)
	return fmt.Sprintf(`"%s"*`, escaped)
}

// hashContent computes a 16-hex-char xxhash64 digest of file content, used
// solely for incremental-reindex change detection.
func hashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// lockFilePath returns the path of the cross-process advisory lock file
// that sits alongside the database file.
func lockFilePath(dbPath string) string {
	if dbPath == ":memory:" {
		return ""
	}
	return filepath.Clean(dbPath) + ".lock"
}
