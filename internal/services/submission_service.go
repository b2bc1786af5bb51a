package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StorageCollaborator stores encrypted material and returns a locator for
// it. Implementations must not inspect the bytes.
type StorageCollaborator interface {
	Upload(ctx context.Context, locatorHint string, data []byte, metadata map[string]string) (string, error)
	UploadBlob(ctx context.Context, locatorHint string, blob []byte) (string, error)
}

// EmotionAnalysisCollaborator classifies a face image. The result is opaque
// input to the pipeline.
type EmotionAnalysisCollaborator interface {
	Analyze(ctx context.Context, image []byte) (*EmotionAnalysisResult, error)
}

// AnalyticsCollaborator receives de-identified research records.
type AnalyticsCollaborator interface {
	Insert(ctx context.Context, rec *DeidentifiedRecord) error
}

// AssessmentRecorder keeps de-identified submission metadata for reporting.
// Best-effort: a failed write is logged, never fatal.
type AssessmentRecorder interface {
	RecordAssessment(ctx context.Context, rec *AssessmentRecord) error
}

// SubmissionService orchestrates one assessment submission: encrypt, store,
// optionally analyze emotion, classify risk, run the safety response, and
// forward research data under consent.
type SubmissionService struct {
	storage   StorageCollaborator
	emotion   EmotionAnalysisCollaborator // optional
	analytics AnalyticsCollaborator       // optional
	safety    *SafetyService
	recorder  AssessmentRecorder // optional
	logger    *zap.Logger

	now           func() time.Time
	idGenerator   func() string
	newKey        func() (*SubmissionKey, error)
	safetyTimeout time.Duration
}

// SubmitInput is one assessment submission. FaceImage is optional raw image
// bytes; ConsentToResearch gates analytics forwarding only, never the safety
// response.
type SubmitInput struct {
	UserID            string
	Responses         QuestionnaireResponse
	FaceImage         []byte
	ConsentToResearch bool
}

func NewSubmissionService(storage StorageCollaborator, emotion EmotionAnalysisCollaborator, analytics AnalyticsCollaborator, safety *SafetyService, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		storage:       storage,
		emotion:       emotion,
		analytics:     analytics,
		safety:        safety,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		idGenerator:   func() string { return "sess_" + shortID(12) },
		newKey:        NewSubmissionKey,
		safetyTimeout: 30 * time.Second,
	}
}

// WithRecorder attaches the optional metadata recorder.
func (s *SubmissionService) WithRecorder(rec AssessmentRecorder) *SubmissionService {
	s.recorder = rec
	return s
}

// Submit runs the full pipeline for one submission.
//
// Ordering: the response vector is validated and scored before any I/O; the
// encrypted envelope is stored before emotion analysis and the safety
// response; the safety response always runs, on a context detached from
// caller cancellation, before analytics forwarding. Encryption, storage, and
// audit failures are fatal; emotion analysis and analytics forwarding
// degrade to a nil result and AnalyticsForwarded=false respectively.
//
// The per-submission key never leaves this call and is destroyed on return,
// so a retry after an error always re-encrypts under a fresh key.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*SubmissionResult, error) {
	check, err := Assess(in.UserID, in.Responses)
	if err != nil {
		return nil, err
	}

	sessionID := s.idGenerator()
	submittedAt := s.now()

	key, err := s.newKey()
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	plaintext, err := marshalEnvelope(in.UserID, sessionID, submittedAt, in.Responses, check.Score)
	if err != nil {
		return nil, NewEncryptionError("serialize assessment", err)
	}
	payload, err := key.Seal(plaintext)
	if err != nil {
		return nil, err
	}

	locator, err := s.storage.Upload(ctx, "assessments/"+sessionID, payload.Ciphertext, map[string]string{
		"algorithm":  payload.Algorithm,
		"nonce":      encodeNonce(payload.Nonce),
		"session_id": sessionID,
	})
	if err != nil {
		return nil, NewStorageError("upload assessment", err)
	}

	imageLocator, emotion, err := s.handleFaceImage(ctx, key, sessionID, in.FaceImage)
	if err != nil {
		return nil, err
	}

	// The safety response must outlive a caller that hangs up mid-request.
	safetyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.safetyTimeout)
	defer cancel()
	alert, err := s.safety.Respond(safetyCtx, check)
	if err != nil {
		return nil, err
	}

	analyticsForwarded := false
	if in.ConsentToResearch && s.analytics != nil {
		rec := Deidentify(check, alert.Severity, emotion, submittedAt)
		if err := s.analytics.Insert(ctx, rec); err != nil {
			s.logger.Warn("analytics forward failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		} else {
			analyticsForwarded = true
		}
	}

	if s.recorder != nil {
		rec := &AssessmentRecord{
			SessionID: sessionID,
			Score:     check.Score,
			Severity:  alert.Severity,
			Escalated: alert.Escalated,
			CreatedAt: submittedAt,
		}
		if err := s.recorder.RecordAssessment(ctx, rec); err != nil {
			s.logger.Warn("assessment metadata write failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}

	return &SubmissionResult{
		SessionID:               sessionID,
		Score:                   check.Score,
		Severity:                alert.Severity,
		Emotion:                 emotion,
		StorageLocator:          locator,
		ImageLocator:            imageLocator,
		AnalyticsForwarded:      analyticsForwarded,
		NotificationFailures:    append([]string(nil), alert.FailedCalls...),
		RequiresImmediateAction: check.RequiresImmediateAction,
	}, nil
}

// handleFaceImage stores the encrypted image under its own locator, then
// runs emotion analysis on the raw bytes. Only the encrypted form is ever
// persisted. An analysis failure degrades to a nil result; a storage failure
// is fatal like any other upload failure.
func (s *SubmissionService) handleFaceImage(ctx context.Context, key *SubmissionKey, sessionID string, image []byte) (string, *EmotionAnalysisResult, error) {
	if len(image) == 0 {
		return "", nil, nil
	}
	sealed, err := key.Seal(image)
	if err != nil {
		return "", nil, err
	}
	// Blob layout is nonce || ciphertext; the algorithm matches the
	// envelope upload's metadata tag.
	blob := make([]byte, 0, len(sealed.Nonce)+len(sealed.Ciphertext))
	blob = append(blob, sealed.Nonce...)
	blob = append(blob, sealed.Ciphertext...)
	locator, err := s.storage.UploadBlob(ctx, "face-images/"+sessionID, blob)
	if err != nil {
		return "", nil, NewStorageError("upload face image", err)
	}
	if s.emotion == nil {
		return locator, nil, nil
	}
	res, err := s.emotion.Analyze(ctx, image)
	if err != nil {
		s.logger.Warn("emotion analysis failed; treating result as unknown",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return locator, nil, nil
	}
	return locator, res, nil
}
