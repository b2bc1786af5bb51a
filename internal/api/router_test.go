package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/collab"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/middleware"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

type memReportStore struct {
	assessments []*services.AssessmentRecord
	alerts      []*services.CrisisAlert
	counselors  map[string]*services.Counselor
}

func newMemReportStore() *memReportStore {
	return &memReportStore{counselors: map[string]*services.Counselor{}}
}

func (m *memReportStore) Append(ctx context.Context, alert *services.CrisisAlert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *memReportStore) RecordAssessment(ctx context.Context, rec *services.AssessmentRecord) error {
	m.assessments = append(m.assessments, rec)
	return nil
}

func (m *memReportStore) ListAssessments(ctx context.Context, since time.Time) ([]*services.AssessmentRecord, error) {
	var out []*services.AssessmentRecord
	for _, r := range m.assessments {
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memReportStore) ListAlerts(ctx context.Context, limit int) ([]*services.CrisisAlert, error) {
	if limit > len(m.alerts) {
		limit = len(m.alerts)
	}
	return m.alerts[:limit], nil
}

func (m *memReportStore) FindCounselorByEmail(email string) (*services.Counselor, error) {
	return m.counselors[email], nil
}

func (m *memReportStore) AddCounselor(c *services.Counselor) error {
	m.counselors[c.Email] = c
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memReportStore) {
	t.Helper()
	logger := zap.NewNop()
	store := newMemReportStore()
	safety := services.NewSafetyService(collab.NewMemoryNotifier(), store, logger)
	submissions := services.NewSubmissionService(collab.NewMemoryStorage(), collab.NewMemoryEmotion(), collab.NewMemoryAnalytics(), safety, logger).WithRecorder(store)
	reports := services.NewReportService(store)
	auth := services.NewAuthService(store, middleware.SignToken)

	mux := http.NewServeMux()
	NewRouter(submissions, reports, auth, logger).Register(mux)
	srv := httptest.NewServer(middleware.WithAuth(mux))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any, token string) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func TestSubmitAssessmentEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/assessments", map[string]any{
		"user_id":          "user-1",
		"responses":        []int{3, 3, 3, 3, 3, 3, 3, 3, 3},
		"consent_research": true,
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out services.SubmissionResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Severity != services.SeverityCritical {
		t.Fatalf("severity = %s, want critical", out.Severity)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("alerts recorded = %d, want 1", len(store.alerts))
	}
	if len(store.assessments) != 1 {
		t.Fatalf("assessments recorded = %d, want 1", len(store.assessments))
	}
}

func TestSubmitRejectsMalformedResponses(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/assessments", map[string]any{
		"user_id":   "user-1",
		"responses": []int{1, 2},
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(store.alerts) != 0 || len(store.assessments) != 0 {
		t.Fatal("malformed submission must not persist anything")
	}
}

func TestAlertsRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/alerts")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCounselorFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/auth/register", map[string]string{
		"email": "c@clinic.test", "password": "hunter22", "name": "Counselor",
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d, want 200", resp.StatusCode)
	}
	var reg struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.Token == "" {
		t.Fatal("expected a token")
	}

	sub := postJSON(t, srv.URL+"/api/assessments", map[string]any{
		"user_id":   "user-2",
		"responses": []int{3, 3, 3, 3, 3, 3, 3, 3, 3},
	}, "")
	sub.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/alerts", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	alertResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	defer alertResp.Body.Close()
	if alertResp.StatusCode != http.StatusOK {
		t.Fatalf("alerts status = %d, want 200", alertResp.StatusCode)
	}
	var alerts struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(alertResp.Body).Decode(&alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if alerts.Count != 1 {
		t.Fatalf("count = %d, want 1", alerts.Count)
	}
}

func TestDuplicateRegisterConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	first := postJSON(t, srv.URL+"/api/auth/register", map[string]string{
		"email": "dup@clinic.test", "password": "hunter22",
	}, "")
	first.Body.Close()
	second := postJSON(t, srv.URL+"/api/auth/register", map[string]string{
		"email": "dup@clinic.test", "password": "hunter22",
	}, "")
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", second.StatusCode)
	}
}
