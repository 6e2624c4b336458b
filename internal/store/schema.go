package store

import "database/sql"

// SchemaVersion is the current on-disk schema version, bumped whenever a
// migration changes table shape in a way old code cannot read.
const SchemaVersion = 2

// EmbeddingDimension is the fixed vector width produced by the embedding
// model (MiniLM-L6-v2-shaped, 384 dimensions).
const EmbeddingDimension = 384

const schemaDDL = `
CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	language TEXT,
	hash TEXT NOT NULL,
	size INTEGER NOT NULL,
	last_modified INTEGER NOT NULL,
	indexed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	start_byte INTEGER NOT NULL,
	end_byte INTEGER NOT NULL,
	signature TEXT,
	doc_comment TEXT,
	parent TEXT,
	FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	start_byte INTEGER NOT NULL,
	end_byte INTEGER NOT NULL,
	symbols_json TEXT,
	embedding BLOB,
	FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dependencies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_file_id INTEGER NOT NULL,
	target_path TEXT NOT NULL,
	import_name TEXT,
	kind TEXT NOT NULL,
	FOREIGN KEY (source_file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS distance_observations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	language TEXT NOT NULL,
	distance REAL NOT NULL,
	query_hash INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	UNIQUE(query_hash, language)
);

CREATE TABLE IF NOT EXISTS threshold_calibration (
	language TEXT PRIMARY KEY,
	max_distance REAL NOT NULL,
	min_similarity REAL NOT NULL,
	confidence TEXT NOT NULL,
	sample_count INTEGER NOT NULL,
	p50_distance REAL,
	p90_distance REAL,
	p95_distance REAL,
	mean_distance REAL,
	std_distance REAL,
	calibrated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_chunks_file_id ON chunks(file_id);
CREATE INDEX IF NOT EXISTS idx_deps_source ON dependencies(source_file_id);
CREATE INDEX IF NOT EXISTS idx_deps_target ON dependencies(target_path);
CREATE INDEX IF NOT EXISTS idx_observations_language ON distance_observations(language);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
	name,
	signature,
	doc_comment,
	content='symbols',
	content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS symbols_ai AFTER INSERT ON symbols BEGIN
	INSERT INTO symbols_fts(rowid, name, signature, doc_comment)
	VALUES (new.id, new.name, new.signature, new.doc_comment);
END;

CREATE TRIGGER IF NOT EXISTS symbols_ad AFTER DELETE ON symbols BEGIN
	INSERT INTO symbols_fts(symbols_fts, rowid, name, signature, doc_comment)
	VALUES ('delete', old.id, old.name, old.signature, old.doc_comment);
END;

CREATE TRIGGER IF NOT EXISTS symbols_au AFTER UPDATE ON symbols BEGIN
	INSERT INTO symbols_fts(symbols_fts, rowid, name, signature, doc_comment)
	VALUES ('delete', old.id, old.name, old.signature, old.doc_comment);
	INSERT INTO symbols_fts(rowid, name, signature, doc_comment)
	VALUES (new.id, new.name, new.signature, new.doc_comment);
END;
`

// initSchema creates every table, index, trigger, and the FTS5 virtual
// table. The vec0 virtual table is created separately by initVectorIndex
// since it depends on the sqlite-vec extension being registered first.
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return err
	}
	_, err := db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)",
		SchemaVersion,
	)
	return err
}

// initVectorIndex creates the vec0 virtual table backing chunk embedding
// similarity search. Run after the sqlite-vec extension is registered.
func initVectorIndex(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_vec USING vec0(
			chunk_id INTEGER PRIMARY KEY,
			embedding float[384]
		);
	`)
	return err
}
