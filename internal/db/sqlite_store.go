// Package db holds the local SQLite store: the append-only crisis-alert
// audit trail, de-identified assessment metadata for reporting, and
// counselor accounts. Encrypted assessment payloads never land here; they go
// through the storage collaborator.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*SQLiteStore, *sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", strings.ReplaceAll(path, "\\", "/"))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := RunMigrations(sqliteDB); err != nil {
		_ = sqliteDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := NewSQLiteStore(sqliteDB)
	if err != nil {
		_ = sqliteDB.Close()
		return nil, nil, err
	}
	return store, sqliteDB, nil
}

// Append writes a crisis alert to the audit trail. Inserts only; there is no
// update path for this table.
func (s *SQLiteStore) Append(ctx context.Context, alert *services.CrisisAlert) error {
	indicators, err := encodeStrings(alert.Indicators)
	if err != nil {
		return fmt.Errorf("encode indicators: %w", err)
	}
	failed, err := encodeStrings(alert.FailedCalls)
	if err != nil {
		return fmt.Errorf("encode failed calls: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crisis_alerts (id, user_id, severity, indicators, action_taken, failed_calls, escalated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.UserID, string(alert.Severity), indicators, alert.ActionTaken, failed,
		boolToInt64(alert.Escalated), alert.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert crisis alert: %w", err)
	}
	return nil
}

// RecordAssessment stores the de-identified metadata row for one submission.
func (s *SQLiteStore) RecordAssessment(ctx context.Context, rec *services.AssessmentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (session_id, score, severity, escalated, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Score, string(rec.Severity), boolToInt64(rec.Escalated),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// ListAssessments returns metadata rows created at or after since, oldest
// first.
func (s *SQLiteStore) ListAssessments(ctx context.Context, since time.Time) ([]*services.AssessmentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, score, severity, escalated, created_at
		 FROM assessments WHERE created_at >= ? ORDER BY created_at ASC`,
		since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []*services.AssessmentRecord
	for rows.Next() {
		var rec services.AssessmentRecord
		var severity, createdAt string
		var escalated int64
		if err := rows.Scan(&rec.SessionID, &rec.Score, &severity, &escalated, &createdAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		rec.Severity = services.Severity(severity)
		rec.Escalated = escalated != 0
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse assessment timestamp: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// ListAlerts returns up to limit alerts, newest first.
func (s *SQLiteStore) ListAlerts(ctx context.Context, limit int) ([]*services.CrisisAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, severity, indicators, action_taken, failed_calls, escalated, created_at
		 FROM crisis_alerts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query crisis alerts: %w", err)
	}
	defer rows.Close()

	var out []*services.CrisisAlert
	for rows.Next() {
		var alert services.CrisisAlert
		var severity, createdAt string
		var indicators, failed sql.NullString
		var escalated int64
		if err := rows.Scan(&alert.ID, &alert.UserID, &severity, &indicators, &alert.ActionTaken, &failed, &escalated, &createdAt); err != nil {
			return nil, fmt.Errorf("scan crisis alert: %w", err)
		}
		alert.Severity = services.Severity(severity)
		alert.Escalated = escalated != 0
		if alert.Indicators, err = decodeStrings(indicators); err != nil {
			return nil, fmt.Errorf("decode indicators: %w", err)
		}
		if alert.FailedCalls, err = decodeStrings(failed); err != nil {
			return nil, fmt.Errorf("decode failed calls: %w", err)
		}
		if alert.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse alert timestamp: %w", err)
		}
		out = append(out, &alert)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindCounselorByEmail(email string) (*services.Counselor, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, pass_hash, created_at FROM counselors WHERE email = ?`, email)
	var c services.Counselor
	var createdAt string
	err := row.Scan(&c.ID, &c.Email, &c.Name, &c.PassHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query counselor: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse counselor timestamp: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) AddCounselor(c *services.Counselor) error {
	_, err := s.db.Exec(
		`INSERT INTO counselors (id, email, name, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Email, c.Name, c.PassHash, c.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert counselor: %w", err)
	}
	return nil
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func encodeStrings(v []string) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeStrings(ns sql.NullString) ([]string, error) {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}
