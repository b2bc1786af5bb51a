package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	sqliteDB, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqliteDB.Close() })
	if err := RunMigrations(sqliteDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	store, err := NewSQLiteStore(sqliteDB)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestAlertAppendAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &services.CrisisAlert{
		ID:          "alert_1",
		UserID:      "u1",
		Severity:    services.SeverityCritical,
		Indicators:  []string{services.IndicatorSelfHarm, services.IndicatorCriticalScore},
		ActionTaken: "emergency services notified; crisis counselor alerted",
		FailedCalls: []string{"notify_emergency_services"},
		Escalated:   true,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	second := &services.CrisisAlert{
		ID:          "alert_2",
		UserID:      "u2",
		Severity:    services.SeverityLow,
		ActionTaken: "counselor notified",
		CreatedAt:   time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	alerts, err := store.ListAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("ListAlerts returned error: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alert count = %d, want 2", len(alerts))
	}
	// Newest first.
	if alerts[0].ID != "alert_2" || alerts[1].ID != "alert_1" {
		t.Fatalf("alert order = %s, %s", alerts[0].ID, alerts[1].ID)
	}
	got := alerts[1]
	if got.Severity != services.SeverityCritical || !got.Escalated {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if len(got.Indicators) != 2 || got.Indicators[0] != services.IndicatorSelfHarm {
		t.Fatalf("indicators = %v", got.Indicators)
	}
	if len(got.FailedCalls) != 1 || got.FailedCalls[0] != "notify_emergency_services" {
		t.Fatalf("failed calls = %v", got.FailedCalls)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, first.CreatedAt)
	}

	limited, err := store.ListAlerts(ctx, 1)
	if err != nil {
		t.Fatalf("ListAlerts returned error: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "alert_2" {
		t.Fatalf("limited alerts = %+v", limited)
	}
}

func TestAssessmentRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*services.AssessmentRecord{
		{SessionID: "s1", Score: 4, Severity: services.SeverityLow, CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{SessionID: "s2", Score: 24, Severity: services.SeverityCritical, Escalated: true, CreatedAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, rec := range records {
		if err := store.RecordAssessment(ctx, rec); err != nil {
			t.Fatalf("RecordAssessment returned error: %v", err)
		}
	}

	all, err := store.ListAssessments(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListAssessments returned error: %v", err)
	}
	if len(all) != 2 || all[0].SessionID != "s1" {
		t.Fatalf("assessments = %+v", all)
	}
	if all[1].Score != 24 || !all[1].Escalated {
		t.Fatalf("second record = %+v", all[1])
	}

	recent, err := store.ListAssessments(ctx, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListAssessments returned error: %v", err)
	}
	if len(recent) != 1 || recent[0].SessionID != "s2" {
		t.Fatalf("since filter wrong: %+v", recent)
	}
}

func TestCounselorRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if c, err := store.FindCounselorByEmail("missing@example.com"); err != nil || c != nil {
		t.Fatalf("missing counselor = %v, %v", c, err)
	}
	created := &services.Counselor{
		ID:        "c1",
		Email:     "dana@example.com",
		Name:      "Dana",
		PassHash:  []byte("hash"),
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.AddCounselor(created); err != nil {
		t.Fatalf("AddCounselor returned error: %v", err)
	}
	got, err := store.FindCounselorByEmail("dana@example.com")
	if err != nil {
		t.Fatalf("FindCounselorByEmail returned error: %v", err)
	}
	if got == nil || got.ID != "c1" || string(got.PassHash) != "hash" {
		t.Fatalf("counselor round trip = %+v", got)
	}
	if err := store.AddCounselor(created); err == nil {
		t.Fatalf("duplicate email insert should fail")
	}
}
