package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDeidentifyStripsIdentity(t *testing.T) {
	check, err := Assess("user-secret-id", QuestionnaireResponse{2, 2, 2, 1, 1, 1, 1, 1, 0})
	if err != nil {
		t.Fatalf("Assess returned error: %v", err)
	}
	rec := Deidentify(check, SeverityLow, &EmotionAnalysisResult{PrimaryEmotion: "calm"}, time.Date(2026, 5, 6, 12, 0, 0, 0, time.UTC))

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	if strings.Contains(string(b), "user-secret-id") {
		t.Fatalf("deidentified record leaks user id: %s", b)
	}
	if strings.Contains(string(b), "responses") {
		t.Fatalf("deidentified record leaks response vector: %s", b)
	}
	if rec.Score != 11 || rec.Severity != SeverityLow || rec.PrimaryEmotion != "calm" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Date != "2026-05-06" {
		t.Fatalf("date = %q", rec.Date)
	}
	if !rec.Consent {
		t.Fatalf("record built without consent flag")
	}
}

func TestDeidentifyUnknownEmotion(t *testing.T) {
	check := &SafetyCheck{Score: 4}
	rec := Deidentify(check, SeverityLow, nil, time.Now())
	if rec.PrimaryEmotion != "unknown" {
		t.Fatalf("primary emotion = %q, want unknown", rec.PrimaryEmotion)
	}
	rec = Deidentify(check, SeverityLow, &EmotionAnalysisResult{}, time.Now())
	if rec.PrimaryEmotion != "unknown" {
		t.Fatalf("empty label should map to unknown, got %q", rec.PrimaryEmotion)
	}
}
