package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mapgate/mapgate/internal/core/domain"
	"github.com/mapgate/mapgate/internal/core/ports"
)

// dummyHash is compared against when the username is unknown so that both
// rejection paths cost one bcrypt verification.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mapgate-dummy-password"), bcrypt.DefaultCost)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthService implements registration, credential checks and the session lifecycle.
type AuthService struct {
	users    ports.CredentialStore
	sessions ports.SessionStore
	secret   []byte
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(users ports.CredentialStore, sessions ports.SessionStore, secret string, ttl time.Duration, log zerolog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register validates the form, stopping at the first failing rule, and creates the user.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := validateRegistration(username, email, in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	_, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	id, err := s.users.Insert(ctx, username, email, string(hash))
	if err != nil {
		// Lost the race against a concurrent registration.
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", id).Str("username", username).Msg("user registered")

	return &domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}, nil
}

func validateRegistration(username, email, password, confirm string) error {
	switch {
	case username == "" || email == "" || password == "":
		return domain.ErrMissingFields
	case password != confirm:
		return domain.ErrPasswordMismatch
	case utf8.RuneCountInString(password) < domain.MinPasswordLength:
		return domain.ErrPasswordTooShort
	case len(password) > domain.MaxPasswordBytes:
		return domain.ErrPasswordTooLong
	case !utf8.ValidString(username) || !utf8.ValidString(email):
		return domain.ErrInvalidInput
	case utf8.RuneCountInString(username) > domain.MaxUsernameLength:
		return domain.ErrUsernameTooLong
	case utf8.RuneCountInString(email) > domain.MaxEmailLength:
		return domain.ErrEmailTooLong
	}
	return nil
}

// Authenticate returns the user when the password verifies. Unknown usernames
// and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		// A username the store cannot even hold names no account.
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// Establish starts a server-side session for user and returns the signed
// transport token to hand to the client.
func (s *AuthService) Establish(ctx context.Context, user *domain.User) (string, error) {
	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", fmt.Errorf("establish session: %w", err)
	}

	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("establish session: sign token: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("session_id", session.ID).Msg("session established")
	return token, nil
}

// Current resolves a transport token to its user. Any token that does not map
// to a live session of an existing user yields domain.ErrAuthenticationRequired.
// Backend outages are returned as domain.ErrStoreUnavailable.
func (s *AuthService) Current(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, domain.ErrAuthenticationRequired
	}

	session, err := s.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrAuthenticationRequired
		}
		return nil, err
	}
	if session.Expired(s.now()) || strconv.FormatInt(session.UserID, 10) != claims.Subject {
		return nil, domain.ErrAuthenticationRequired
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil {
				s.log.Warn().Err(delErr).Str("session_id", session.ID).Msg("failed to drop orphaned session")
			}
			return nil, domain.ErrAuthenticationRequired
		}
		return nil, err
	}
	return user, nil
}

// Terminate ends the session behind token. Unknown, expired or malformed
// tokens are already anonymous, so they are not an error.
func (s *AuthService) Terminate(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	s.log.Info().Str("session_id", claims.SessionID).Msg("session terminated")
	return nil
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	return claims, nil
}
