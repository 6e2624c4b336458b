package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// InsertDistanceObservation records one (language, distance) sample for
// adaptive threshold calibration. Returns false if the (queryHash,
// language) pair was already recorded, since the unique constraint is
// there precisely to avoid a single repeated query skewing the sample.
func (s *Store) InsertDistanceObservation(language string, distance float32, queryHash uint64, timestamp int64) (bool, error) {
	var inserted bool
	err := s.withConn(func(db *sql.DB) error {
		res, err := db.Exec(
			`INSERT OR IGNORE INTO distance_observations (language, distance, query_hash, timestamp)
			 VALUES (?, ?, ?, ?)`, language, distance, int64(queryHash), timestamp,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		inserted = n > 0
		return err
	})
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return inserted, nil
}

// DistanceObservation is one batch-insert input row.
type DistanceObservation struct {
	Language  string
	Distance  float32
	QueryHash uint64
	Timestamp int64
}

// InsertDistanceObservationsBatch inserts many observations in one
// transaction, returning the count actually inserted (duplicates ignored).
func (s *Store) InsertDistanceObservationsBatch(observations []DistanceObservation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	var inserted int
	err := s.withConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(
			`INSERT OR IGNORE INTO distance_observations (language, distance, query_hash, timestamp)
			 VALUES (?, ?, ?, ?)`,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, obs := range observations {
			res, err := stmt.Exec(obs.Language, obs.Distance, int64(obs.QueryHash), obs.Timestamp)
			if err != nil {
				tx.Rollback()
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				tx.Rollback()
				return err
			}
			inserted += int(n)
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return inserted, nil
}

// GetDistanceObservations returns every recorded distance for a language.
func (s *Store) GetDistanceObservations(language string) ([]float32, error) {
	var results []float32
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query("SELECT distance FROM distance_observations WHERE language = ?", language)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var d float32
			if err := rows.Scan(&d); err != nil {
				return err
			}
			results = append(results, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// GetAllDistanceObservations groups every recorded distance by language.
func (s *Store) GetAllDistanceObservations() (map[string][]float32, error) {
	results := make(map[string][]float32)
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query("SELECT language, distance FROM distance_observations ORDER BY language")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var language string
			var distance float32
			if err := rows.Scan(&language, &distance); err != nil {
				return err
			}
			results[language] = append(results[language], distance)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// GetObservationCounts returns the number of observations per language.
func (s *Store) GetObservationCounts() (map[string]int, error) {
	results := make(map[string]int)
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query("SELECT language, COUNT(*) FROM distance_observations GROUP BY language")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var language string
			var count int
			if err := rows.Scan(&language, &count); err != nil {
				return err
			}
			results[language] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// CleanupOldObservations deletes observations older than maxAge, returning
// the count deleted.
func (s *Store) CleanupOldObservations(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	var deleted int64
	err := s.withConn(func(db *sql.DB) error {
		res, err := db.Exec("DELETE FROM distance_observations WHERE timestamp < ?", cutoff)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	if deleted > 0 {
		slog.Default().Info("cleaned up old distance observations", "count", deleted)
	}
	return int(deleted), nil
}
