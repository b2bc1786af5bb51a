package services

import "fmt"

// Risk indicator labels. Order of appearance in SafetyCheck.Indicators is
// fixed: self-harm, score band, severe-symptom count.
const (
	IndicatorSelfHarm       = "Self-harm ideation reported"
	IndicatorCriticalScore  = "Critical score detected"
	IndicatorHighRiskScore  = "High-risk score"
	IndicatorMultipleSevere = "Multiple severe symptoms reported"
)

const (
	criticalScoreThreshold = 20
	highRiskScoreThreshold = 15
	// severeSymptomCount is how many max-severity answers trigger the
	// multiple-severe-symptoms indicator.
	severeSymptomCount = 5
	// immediateIdeationLevel is the self-harm answer value that forces
	// immediate action on its own.
	immediateIdeationLevel = 2
)

// Assess scores a PHQ-9 response vector and derives the risk snapshot for
// it. It is pure: identical input always yields an identical SafetyCheck,
// and no I/O happens here. Malformed input (wrong length, out-of-range
// values) fails with a typed invalid error rather than being coerced; a
// silently-wrong risk score is a safety defect.
func Assess(userID string, responses QuestionnaireResponse) (*SafetyCheck, error) {
	if len(responses) != PHQ9Length {
		return nil, NewInvalidError(fmt.Sprintf("expected %d responses, got %d", PHQ9Length, len(responses)))
	}
	score := 0
	severe := 0
	for i, v := range responses {
		if v < 0 || v > MaxItemScore {
			return nil, NewInvalidError(fmt.Sprintf("response %d out of range: %d", i, v))
		}
		score += v
		if v == MaxItemScore {
			severe++
		}
	}

	var indicators []string
	var flagged []int
	if responses[SelfHarmItemIndex] >= 1 {
		indicators = append(indicators, IndicatorSelfHarm)
		flagged = append(flagged, SelfHarmItemIndex)
	}
	if score >= criticalScoreThreshold {
		indicators = append(indicators, IndicatorCriticalScore)
	} else if score >= highRiskScoreThreshold {
		indicators = append(indicators, IndicatorHighRiskScore)
	}
	if severe >= severeSymptomCount {
		indicators = append(indicators, IndicatorMultipleSevere)
	}

	return &SafetyCheck{
		UserID:                  userID,
		Score:                   score,
		Indicators:              indicators,
		FlaggedIndices:          flagged,
		RequiresImmediateAction: responses[SelfHarmItemIndex] >= immediateIdeationLevel || score >= criticalScoreThreshold,
	}, nil
}

// ClassifySeverity maps a safety check onto its tier. Evaluation order is
// strict (critical, high, medium, low) and the first match wins, so a
// check that qualifies as both high and medium classifies as high.
func ClassifySeverity(check *SafetyCheck) Severity {
	switch {
	case check.RequiresImmediateAction:
		return SeverityCritical
	case check.Score >= highRiskScoreThreshold:
		return SeverityHigh
	case len(check.Indicators) >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
