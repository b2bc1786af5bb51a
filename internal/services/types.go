package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// PHQ9Length is the number of items in a PHQ-9 questionnaire.
	PHQ9Length = 9
	// SelfHarmItemIndex is the position of the self-harm-ideation item.
	SelfHarmItemIndex = 8
	// MaxItemScore is the highest severity a single item can report.
	MaxItemScore = 3
)

// QuestionnaireResponse is an ordered vector of item severities, each 0..3.
// For PHQ-9 flows the length is exactly PHQ9Length and index
// SelfHarmItemIndex carries the self-harm-ideation answer.
type QuestionnaireResponse []int

// Severity is the ordered risk tier assigned to a safety check.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the position of s in the low < medium < high < critical
// order. Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// EmotionAnalysisResult is the output of the external emotion-analysis
// collaborator. It is opaque to the risk engine; an absent result means
// "unknown", never "benign".
type EmotionAnalysisResult struct {
	PrimaryEmotion   string   `json:"primary_emotion"`
	Confidence       float64  `json:"confidence"`
	SecondaryMarkers []string `json:"secondary_markers,omitempty"`
	ModelVersion     string   `json:"model_version,omitempty"`
}

// SafetyCheck is the immutable snapshot produced by one assessment.
// Re-assessment produces a new SafetyCheck; nothing mutates an existing one.
type SafetyCheck struct {
	UserID                  string   `json:"user_id"`
	Score                   int      `json:"score"`
	Indicators              []string `json:"indicators"`
	FlaggedIndices          []int    `json:"flagged_indices"`
	RequiresImmediateAction bool     `json:"requires_immediate_action"`
}

// CrisisAlert is the append-only audit record of one safety response.
// It is created by the safety service, persisted once, never updated.
type CrisisAlert struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Severity    Severity  `json:"severity"`
	Indicators  []string  `json:"indicators"`
	ActionTaken string    `json:"action_taken"`
	FailedCalls []string  `json:"failed_calls,omitempty"`
	Escalated   bool      `json:"escalated"`
	CreatedAt   time.Time `json:"created_at"`
}

// EncryptedPayload is ciphertext plus the nonce and algorithm tag needed to
// open it. The key is not part of the payload; destroying the key makes the
// payload permanently unreadable, which is the intended erasure property.
type EncryptedPayload struct {
	Ciphertext []byte
	Nonce      []byte
	Algorithm  string
}

// DeidentifiedRecord is the narrow research projection of an assessment.
// It must never carry the user id or the raw response vector.
type DeidentifiedRecord struct {
	Score          int      `json:"score"`
	Severity       Severity `json:"severity"`
	PrimaryEmotion string   `json:"primary_emotion"`
	Consent        bool     `json:"consent"`
	Date           string   `json:"date"` // YYYY-MM-DD
}

// AssessmentRecord is the de-identified metadata row kept locally for
// reporting. Raw answers are only ever stored in encrypted form.
type AssessmentRecord struct {
	SessionID string    `json:"session_id"`
	Score     int       `json:"score"`
	Severity  Severity  `json:"severity"`
	Escalated bool      `json:"escalated"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionResult aggregates the outcome of one submission.
type SubmissionResult struct {
	SessionID               string                 `json:"session_id"`
	Score                   int                    `json:"score"`
	Severity                Severity               `json:"severity"`
	Emotion                 *EmotionAnalysisResult `json:"emotion,omitempty"`
	StorageLocator          string                 `json:"storage_locator"`
	ImageLocator            string                 `json:"image_locator,omitempty"`
	AnalyticsForwarded      bool                   `json:"analytics_forwarded"`
	NotificationFailures    []string               `json:"notification_failures,omitempty"`
	RequiresImmediateAction bool                   `json:"requires_immediate_action"`
}

// Counselor is an account allowed to read alerts and reports.
type Counselor struct {
	ID        string
	Email     string
	Name      string
	PassHash  []byte
	CreatedAt time.Time
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
