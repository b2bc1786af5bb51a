package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/middleware"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

type Router struct {
	submissions *services.SubmissionService
	reports     *services.ReportService
	auth        *services.AuthService
	logger      *zap.Logger
}

func NewRouter(submissions *services.SubmissionService, reports *services.ReportService, auth *services.AuthService, logger *zap.Logger) *Router {
	return &Router{submissions: submissions, reports: reports, auth: auth, logger: logger}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/assessments", rt.handleSubmit)        // POST
	mux.HandleFunc("/api/auth/register", rt.handleRegister)    // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)          // POST
	mux.Handle("/api/alerts", middleware.RequireAuth(http.HandlerFunc(rt.handleAlerts)))          // GET
	mux.Handle("/api/reports/summary", middleware.RequireAuth(http.HandlerFunc(rt.handleSummary))) // GET
	mux.Handle("/api/export", middleware.RequireAuth(http.HandlerFunc(rt.handleExport)))          // GET
}

// POST /api/assessments
// { user_id, responses: [9 x 0..3], face_image?: base64, consent_research: bool }
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID          string `json:"user_id"`
		Responses       []int  `json:"responses"`
		FaceImage       string `json:"face_image,omitempty"`
		ConsentResearch bool   `json:"consent_research"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	var image []byte
	if req.FaceImage != "" {
		b, err := base64.StdEncoding.DecodeString(req.FaceImage)
		if err != nil {
			http.Error(w, "face_image must be base64", http.StatusBadRequest)
			return
		}
		image = b
	}
	result, err := rt.submissions.Submit(r.Context(), services.SubmitInput{
		UserID:            req.UserID,
		Responses:         services.QuestionnaireResponse(req.Responses),
		FaceImage:         image,
		ConsentToResearch: req.ConsentResearch,
	})
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/auth/register with { email, password, name }
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "counselor_id": res.CounselorID})
}

// POST /api/auth/login with { email, password }
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "counselor_id": res.CounselorID})
}

// GET /api/alerts?limit=n
func (rt *Router) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	alerts, err := rt.reports.Alerts(r.Context(), limit)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

// GET /api/reports/summary?since=RFC3339
func (rt *Router) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	since := time.Time{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "since must be RFC3339", http.StatusBadRequest)
			return
		}
		since = t
	}
	summary, err := rt.reports.Summary(r.Context(), since)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/export?kind=alerts serves a CSV download for compliance review.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "alerts"
	}
	switch kind {
	case "alerts":
		alerts, err := rt.reports.Alerts(r.Context(), 500)
		if err != nil {
			rt.writeError(w, err)
			return
		}
		b, err := services.ExportAlertsCSV(alerts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeCSV(w, "alerts.csv", b)
	default:
		http.Error(w, "unsupported export kind", http.StatusBadRequest)
	}
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.logger.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	status := http.StatusInternalServerError
	switch se.Code {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	case services.ErrorStorage:
		status = http.StatusBadGateway
	case services.ErrorEncryption, services.ErrorAudit:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request failed", zap.String("code", string(se.Code)), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"error": se.Code, "message": se.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, filename string, b []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(b)
}
