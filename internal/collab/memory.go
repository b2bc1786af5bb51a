// Package collab holds the external collaborator implementations behind the
// narrow interfaces the services consume: cloud storage, analytics,
// notification fan-out, and emotion analysis. Every interface has an
// in-memory implementation for development and tests next to its real one.
package collab

import (
	"context"
	"sync"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

// MemoryStorage keeps uploaded payloads in process memory.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: map[string][]byte{}}
}

func (s *MemoryStorage) Upload(ctx context.Context, hint string, data []byte, metadata map[string]string) (string, error) {
	return s.put(hint, data)
}

func (s *MemoryStorage) UploadBlob(ctx context.Context, hint string, blob []byte) (string, error) {
	return s.put(hint, blob)
}

func (s *MemoryStorage) put(hint string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[hint] = append([]byte(nil), data...)
	return "mem://" + hint, nil
}

// Object returns a stored object by hint, for tests.
func (s *MemoryStorage) Object(hint string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[hint]
	return b, ok
}

// MemoryAnalytics collects de-identified records in memory.
type MemoryAnalytics struct {
	mu      sync.Mutex
	records []*services.DeidentifiedRecord
}

func NewMemoryAnalytics() *MemoryAnalytics {
	return &MemoryAnalytics{}
}

func (a *MemoryAnalytics) Insert(ctx context.Context, rec *services.DeidentifiedRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *rec
	a.records = append(a.records, &cp)
	return nil
}

func (a *MemoryAnalytics) Records() []*services.DeidentifiedRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*services.DeidentifiedRecord(nil), a.records...)
}

// MemoryNotifier records every dispatched notification. Used in development
// where no real notification channel is configured.
type MemoryNotifier struct {
	mu    sync.Mutex
	calls []string
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) NotifyEmergencyServices(ctx context.Context, alert *services.CrisisAlert) error {
	return n.record("notify_emergency_services:" + alert.ID)
}

func (n *MemoryNotifier) AlertCrisisCounselor(ctx context.Context, alert *services.CrisisAlert) error {
	return n.record("alert_crisis_counselor:" + alert.ID)
}

func (n *MemoryNotifier) NotifyCounselor(ctx context.Context, alert *services.CrisisAlert) error {
	return n.record("notify_counselor:" + alert.ID)
}

func (n *MemoryNotifier) DisplayEmergencyResources(ctx context.Context, userID string) error {
	return n.record("display_emergency_resources:" + userID)
}

func (n *MemoryNotifier) record(call string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
	return nil
}

func (n *MemoryNotifier) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

// MemoryEmotion returns a fixed "unknown" result with zero confidence, which
// downstream code treats the same as no analysis at all.
type MemoryEmotion struct{}

func NewMemoryEmotion() *MemoryEmotion {
	return &MemoryEmotion{}
}

func (e *MemoryEmotion) Analyze(ctx context.Context, image []byte) (*services.EmotionAnalysisResult, error) {
	return &services.EmotionAnalysisResult{PrimaryEmotion: "unknown", Confidence: 0, ModelVersion: "memory"}, nil
}
