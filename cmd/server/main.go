package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/api"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/collab"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/db"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/middleware"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
	"github.com/Sontakkepratham/Mindlens-sub001/internal/utils"
)

func main() {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	addr := utils.SafeEnv("MINDLENS_ADDR", ":8080")
	dbPath := utils.SafeEnv("MINDLENS_DB", "mindlens.db")

	store, sqlDB, err := db.Open(dbPath)
	if err != nil {
		logger.Fatal("open database", zap.String("path", dbPath), zap.Error(err))
	}
	defer func() { _ = sqlDB.Close() }()

	ctx := context.Background()
	storage := newStorage(ctx, logger)
	analytics := newAnalytics(logger)
	notifier := newNotifier(logger)
	emotion := newEmotion(logger)

	safety := services.NewSafetyService(notifier, store, logger)
	submissions := services.NewSubmissionService(storage, emotion, analytics, safety, logger).WithRecorder(store)
	reports := services.NewReportService(store)
	auth := services.NewAuthService(store, middleware.SignToken)

	mux := http.NewServeMux()
	api.NewRouter(submissions, reports, auth, logger).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "Mindlens API"})
	})

	handler := middleware.SecureHeaders(middleware.NoStore(middleware.CORS(middleware.WithAuth(mux))))

	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	if utils.EnvBool("MINDLENS_DEV_LOG", false) {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return l
	}
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// Collaborators fall back to in-memory implementations when their backing
// service is not configured, so a bare binary still runs end to end.

func newStorage(ctx context.Context, logger *zap.Logger) services.StorageCollaborator {
	bucket := os.Getenv("MINDLENS_GCS_BUCKET")
	if bucket == "" {
		logger.Info("MINDLENS_GCS_BUCKET unset, using in-memory storage")
		return collab.NewMemoryStorage()
	}
	gcs, err := collab.NewGCSStorage(ctx, bucket, os.Getenv("MINDLENS_GCS_CREDENTIALS"))
	if err != nil {
		logger.Fatal("gcs storage", zap.Error(err))
	}
	return gcs
}

func newAnalytics(logger *zap.Logger) services.AnalyticsCollaborator {
	dsn := os.Getenv("MINDLENS_PG_DSN")
	if dsn == "" {
		logger.Info("MINDLENS_PG_DSN unset, using in-memory analytics")
		return collab.NewMemoryAnalytics()
	}
	pg, err := collab.NewPostgresAnalytics(dsn)
	if err != nil {
		logger.Fatal("postgres analytics", zap.Error(err))
	}
	return pg
}

func newNotifier(logger *zap.Logger) services.NotificationCollaborator {
	addr := os.Getenv("MINDLENS_REDIS_ADDR")
	if addr == "" {
		logger.Info("MINDLENS_REDIS_ADDR unset, using in-memory notifier")
		return collab.NewMemoryNotifier()
	}
	return collab.NewRedisNotifier(addr, os.Getenv("MINDLENS_REDIS_PASSWORD"), 0)
}

func newEmotion(logger *zap.Logger) services.EmotionAnalysisCollaborator {
	key := os.Getenv("MINDLENS_OPENAI_KEY")
	if key == "" {
		logger.Info("MINDLENS_OPENAI_KEY unset, using in-memory emotion analysis")
		return collab.NewMemoryEmotion()
	}
	return collab.NewOpenAIEmotion(key, os.Getenv("MINDLENS_OPENAI_BASE_URL"), os.Getenv("MINDLENS_OPENAI_MODEL"))
}
