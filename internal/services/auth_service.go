package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AdminStore interface {
	FindAdminByEmail(email string) (*AdminUser, error)
	AddAdmin(u *AdminUser) error
}

type TokenSigner func(uid, email string, ttl time.Duration) (string, error)

// AdminAuthService verifies staff credentials against stored bcrypt hashes.
// There is no literal password comparison anywhere; no lockout/backoff is
// implemented.
type AdminAuthService struct {
	store     AdminStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

func NewAdminAuthService(store AdminStore, signer TokenSigner) *AdminAuthService {
	return &AdminAuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  24 * time.Hour,
	}
}

func (s *AdminAuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindAdminByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: u.ID, ExpiresAt: s.now().Add(s.tokenTTL)}, nil
}

// EnsureAdmin seeds a credential row if the email is not present yet. The
// clear password is hashed immediately and discarded.
func (s *AdminAuthService) EnsureAdmin(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.store.FindAdminByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.AddAdmin(&AdminUser{
		ID:        s.idGen("a", 7),
		Email:     email,
		PassHash:  hash,
		CreatedAt: s.now(),
	})
}

func (s *AdminAuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
