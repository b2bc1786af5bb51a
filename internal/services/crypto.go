package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// AlgorithmXChaCha20Poly1305 tags payloads sealed by this package.
const AlgorithmXChaCha20Poly1305 = "xchacha20poly1305"

// SubmissionKey is a single-use data-encryption key. It is owned by the one
// submission that generated it and is never persisted; once destroyed, every
// payload sealed under it is unrecoverable (the right-to-erasure property).
type SubmissionKey struct {
	material []byte
}

// NewSubmissionKey draws fresh key material. Keys are never reused across
// submissions.
func NewSubmissionKey() (*SubmissionKey, error) {
	b := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(b); err != nil {
		return nil, NewEncryptionError("generate submission key", err)
	}
	return &SubmissionKey{material: b}, nil
}

// Destroy zeroes the key material. Safe to call more than once.
func (k *SubmissionKey) Destroy() {
	for i := range k.material {
		k.material[i] = 0
	}
	k.material = nil
}

// Seal encrypts plaintext under the key with a fresh random nonce.
func (k *SubmissionKey) Seal(plaintext []byte) (*EncryptedPayload, error) {
	if len(k.material) == 0 {
		return nil, NewEncryptionError("submission key destroyed", nil)
	}
	aead, err := chacha20poly1305.NewX(k.material)
	if err != nil {
		return nil, NewEncryptionError("init cipher", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, NewEncryptionError("generate nonce", err)
	}
	return &EncryptedPayload{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Nonce:      nonce,
		Algorithm:  AlgorithmXChaCha20Poly1305,
	}, nil
}

// Open decrypts a payload sealed under this key. Used by review tooling and
// tests; the server itself never reads stored payloads back.
func (k *SubmissionKey) Open(p *EncryptedPayload) ([]byte, error) {
	if len(k.material) == 0 {
		return nil, NewEncryptionError("submission key destroyed", nil)
	}
	if p.Algorithm != AlgorithmXChaCha20Poly1305 {
		return nil, NewEncryptionError("unsupported algorithm "+p.Algorithm, nil)
	}
	aead, err := chacha20poly1305.NewX(k.material)
	if err != nil {
		return nil, NewEncryptionError("init cipher", err)
	}
	plaintext, err := aead.Open(nil, p.Nonce, p.Ciphertext, nil)
	if err != nil {
		return nil, NewEncryptionError("open payload", err)
	}
	return plaintext, nil
}

// assessmentEnvelope is the canonical plaintext form of one submission.
// Field order is fixed by the struct; encoding/json preserves it.
type assessmentEnvelope struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
	Responses []int  `json:"responses"`
	Score     int    `json:"score"`
}

func encodeNonce(nonce []byte) string {
	return base64.StdEncoding.EncodeToString(nonce)
}

func marshalEnvelope(userID, sessionID string, at time.Time, responses QuestionnaireResponse, score int) ([]byte, error) {
	return json.Marshal(assessmentEnvelope{
		UserID:    userID,
		SessionID: sessionID,
		Timestamp: at.Format(time.RFC3339),
		Responses: responses,
		Score:     score,
	})
}
