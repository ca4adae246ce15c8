package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/tcharles/user-auth-api/internal/user"
)

var (
	ErrAlreadyRegistered  = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUnauthenticated    = errors.New("unauthenticated")

	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

// Service orchestrates the credential store, password hasher and token
// issuer to implement the register, login and authenticate use cases.
type Service struct {
	users         user.Store
	hasher        *PasswordHasher
	tokens        TokenService
	tokenDuration time.Duration
}

func NewService(
	users user.Store,
	hasher *PasswordHasher,
	tokens TokenService,
	tokenDuration time.Duration,
) *Service {
	return &Service{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		tokenDuration: tokenDuration,
	}
}

// Register creates a new user and returns it with a freshly issued token.
// Exactly one record is written on success, none on any failure path.
func (s *Service) Register(ctx context.Context, name, email, password string) (*user.User, string, error) {
	if err := validateRegistration(name, email, password); err != nil {
		return nil, "", err
	}

	// Pre-check produces the friendly error in the common case; the unique
	// constraint below remains the authoritative duplicate signal.
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", ErrAlreadyRegistered
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// Lost a race with a concurrent registration for the same email.
			return nil, "", ErrAlreadyRegistered
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.CreateToken(newUser.ID, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return newUser, token, nil
}

// Login verifies credentials and issues a token. An unknown email and a
// wrong password fail differently, as the API contract requires.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" {
		return "", ErrUserNotFound
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existingUser.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existingUser.ID, s.tokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// Authenticate verifies a presented token and returns the identity it
// asserts. Any verification failure collapses to ErrUnauthenticated.
func (s *Service) Authenticate(tokenStr string) (uuid.UUID, error) {
	claims, err := s.tokens.VerifyToken(tokenStr)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return claims.UserID, nil
}

func validateRegistration(name, email, password string) error {
	if name == "" {
		return ErrNameRequired
	}
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
