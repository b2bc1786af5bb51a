package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthStore persists counselor accounts.
type AuthStore interface {
	FindCounselorByEmail(email string) (*Counselor, error)
	AddCounselor(c *Counselor) error
}

// TokenSigner mints a bearer token for an authenticated counselor.
type TokenSigner func(uid, email, role string, ttl time.Duration) (string, error)

// RoleCounselor is the claim role granted to counselor accounts.
const RoleCounselor = "counselor"

// AuthService registers and authenticates the counselor accounts that read
// alerts and reports. Participants submitting assessments never log in.
type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token       string
	CounselorID string
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return "c" + shortID(7) },
		signToken: signer,
		tokenTTL:  12 * time.Hour,
	}
}

func (s *AuthService) Register(email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	existing, err := s.store.FindCounselorByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	id := s.idGen()
	c := &Counselor{ID: id, Email: email, Name: strings.TrimSpace(name), PassHash: hash, CreatedAt: s.now()}
	if err := s.store.AddCounselor(c); err != nil {
		return nil, err
	}
	return s.issue(c)
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	c, err := s.store.FindCounselorByEmail(email)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(c.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.issue(c)
}

func (s *AuthService) issue(c *Counselor) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(c.ID, c.Email, RoleCounselor, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, CounselorID: c.ID}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
