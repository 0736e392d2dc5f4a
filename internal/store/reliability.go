// Package store persists the reliability table using SQLite, so specialist
// history survives restarts. The reliability table is the only cross-query
// state in the system; nothing else is persisted.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"quorum/internal/types"
)

// ReliabilityStore implements types.ReliabilityStore on SQLite.
type ReliabilityStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// NewReliabilityStore initializes the SQLite database at the given path.
func NewReliabilityStore(path string) (*ReliabilityStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &ReliabilityStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initialize creates the required table.
func (s *ReliabilityStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reliability (
		specialist_id TEXT PRIMARY KEY,
		total_queries INTEGER NOT NULL DEFAULT 0,
		successful_responses INTEGER NOT NULL DEFAULT 0,
		avg_response_time_ns INTEGER NOT NULL DEFAULT 0,
		avg_confidence REAL NOT NULL DEFAULT 0,
		validation_attempts INTEGER NOT NULL DEFAULT 0,
		validation_successes INTEGER NOT NULL DEFAULT 0,
		validation_success_rate REAL NOT NULL DEFAULT 0,
		last_used DATETIME,
		reliability_score REAL NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create reliability table: %w", err)
	}
	return nil
}

// SaveRecord upserts one specialist's record.
func (s *ReliabilityStore) SaveRecord(rec types.ReliabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO reliability (
			specialist_id, total_queries, successful_responses,
			avg_response_time_ns, avg_confidence,
			validation_attempts, validation_successes, validation_success_rate,
			last_used, reliability_score, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(specialist_id) DO UPDATE SET
			total_queries = excluded.total_queries,
			successful_responses = excluded.successful_responses,
			avg_response_time_ns = excluded.avg_response_time_ns,
			avg_confidence = excluded.avg_confidence,
			validation_attempts = excluded.validation_attempts,
			validation_successes = excluded.validation_successes,
			validation_success_rate = excluded.validation_success_rate,
			last_used = excluded.last_used,
			reliability_score = excluded.reliability_score,
			updated_at = CURRENT_TIMESTAMP
	`,
		rec.SpecialistID, rec.TotalQueries, rec.SuccessfulResponses,
		int64(rec.AvgResponseTime), rec.AvgConfidence,
		rec.ValidationAttempts, rec.ValidationSuccesses, rec.ValidationSuccessRate,
		rec.LastUsed.UTC().Format(time.RFC3339Nano), rec.ReliabilityScore,
	)
	if err != nil {
		return fmt.Errorf("failed to save record for %s: %w", rec.SpecialistID, err)
	}
	return nil
}

// LoadRecords returns every persisted record.
func (s *ReliabilityStore) LoadRecords() ([]types.ReliabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT specialist_id, total_queries, successful_responses,
			avg_response_time_ns, avg_confidence,
			validation_attempts, validation_successes, validation_success_rate,
			last_used, reliability_score
		FROM reliability
		ORDER BY specialist_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reliability records: %w", err)
	}
	defer rows.Close()

	var out []types.ReliabilityRecord
	for rows.Next() {
		var rec types.ReliabilityRecord
		var avgRespNs int64
		var lastUsed sql.NullString

		if err := rows.Scan(
			&rec.SpecialistID, &rec.TotalQueries, &rec.SuccessfulResponses,
			&avgRespNs, &rec.AvgConfidence,
			&rec.ValidationAttempts, &rec.ValidationSuccesses, &rec.ValidationSuccessRate,
			&lastUsed, &rec.ReliabilityScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reliability record: %w", err)
		}

		rec.AvgResponseTime = time.Duration(avgRespNs)
		if lastUsed.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, lastUsed.String); err == nil {
				rec.LastUsed = ts
			}
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

// Close closes the database.
func (s *ReliabilityStore) Close() error {
	return s.db.Close()
}
