package services

import "time"

// Deidentify projects an assessment onto the narrow record shared for
// research under consent. The projection carries the total score, tier,
// primary emotion, and date only, never the user id or the raw response
// vector. An absent emotion result is reported as "unknown".
func Deidentify(check *SafetyCheck, severity Severity, emotion *EmotionAnalysisResult, at time.Time) *DeidentifiedRecord {
	rec := &DeidentifiedRecord{
		Score:          check.Score,
		Severity:       severity,
		PrimaryEmotion: "unknown",
		Consent:        true,
		Date:           at.Format("2006-01-02"),
	}
	if emotion != nil && emotion.PrimaryEmotion != "" {
		rec.PrimaryEmotion = emotion.PrimaryEmotion
	}
	return rec
}
