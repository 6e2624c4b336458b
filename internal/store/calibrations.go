package store

import (
	"database/sql"
	"time"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// SaveCalibration inserts or replaces the calibrated thresholds for one
// language.
func (s *Store) SaveCalibration(data CalibrationData) error {
	calibratedAt := time.Now().Unix()

	err := s.withConn(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT OR REPLACE INTO threshold_calibration
			 (language, max_distance, min_similarity, confidence, sample_count,
			  p50_distance, p90_distance, p95_distance, mean_distance, std_distance, calibrated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			data.Language, data.MaxDistance, data.MinSimilarity, data.Confidence, data.SampleCount,
			data.P50Distance, data.P90Distance, data.P95Distance, data.MeanDistance, data.StdDistance,
			calibratedAt,
		)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return nil
}

// LoadAllCalibrations returns every saved calibration.
func (s *Store) LoadAllCalibrations() ([]CalibrationRecord, error) {
	var results []CalibrationRecord
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT language, max_distance, min_similarity, confidence, sample_count,
			        p50_distance, p90_distance, p95_distance, mean_distance, std_distance, calibrated_at
			 FROM threshold_calibration`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		results, err = scanCalibrationRows(rows)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return results, nil
}

// LoadCalibration returns the saved calibration for one language, or nil.
func (s *Store) LoadCalibration(language string) (*CalibrationRecord, error) {
	var rec CalibrationRecord
	err := s.withConn(func(db *sql.DB) error {
		return db.QueryRow(
			`SELECT language, max_distance, min_similarity, confidence, sample_count,
			        p50_distance, p90_distance, p95_distance, mean_distance, std_distance, calibrated_at
			 FROM threshold_calibration WHERE language = ?`, language,
		).Scan(
			&rec.Language, &rec.MaxDistance, &rec.MinSimilarity, &rec.Confidence, &rec.SampleCount,
			&rec.P50Distance, &rec.P90Distance, &rec.P95Distance, &rec.MeanDistance, &rec.StdDistance,
			&rec.CalibratedAt,
		)
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageQuery, err)
	}
	return &rec, nil
}

// ClearCalibrations deletes every saved calibration.
func (s *Store) ClearCalibrations() error {
	err := s.withConn(func(db *sql.DB) error {
		_, err := db.Exec("DELETE FROM threshold_calibration")
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, err)
	}
	return nil
}

func scanCalibrationRows(rows *sql.Rows) ([]CalibrationRecord, error) {
	var results []CalibrationRecord
	for rows.Next() {
		var rec CalibrationRecord
		if err := rows.Scan(
			&rec.Language, &rec.MaxDistance, &rec.MinSimilarity, &rec.Confidence, &rec.SampleCount,
			&rec.P50Distance, &rec.P90Distance, &rec.P95Distance, &rec.MeanDistance, &rec.StdDistance,
			&rec.CalibratedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}
