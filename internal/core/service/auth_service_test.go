package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mapgate/mapgate/internal/core/domain"
	"github.com/mapgate/mapgate/internal/core/ports"
)

type stubCredentialStore struct {
	users  map[int64]*domain.User
	nextID int64
	// insertErr, when set, is returned by Insert without touching users.
	insertErr error
}

func newStubCredentialStore() *stubCredentialStore {
	return &stubCredentialStore{users: make(map[int64]*domain.User), nextID: 1}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubCredentialStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubCredentialStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubCredentialStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubCredentialStore) Insert(_ context.Context, username, email, hash string) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	id := r.nextID
	r.nextID++
	r.users[id] = &domain.User{ID: id, Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	return id, nil
}

type stubSessionStore struct {
	sessions map[string]domain.Session
	findErr  error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess domain.Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newTestAuthService() (*AuthService, *stubCredentialStore, *stubSessionStore) {
	users := newStubCredentialStore()
	sessions := newStubSessionStore()
	return NewAuthService(users, sessions, "secret", time.Hour, zerolog.Nop()), users, sessions
}

func validInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "pass123",
		ConfirmPassword: "pass123",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, users, _ := newTestAuthService()

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	stored, err := users.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_ValidationShortCircuits(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(in *ports.RegisterInput)
		want   error
	}{
		{"empty username", func(in *ports.RegisterInput) { in.Username = "" }, domain.ErrMissingFields},
		{"empty email", func(in *ports.RegisterInput) { in.Email = "  " }, domain.ErrMissingFields},
		{"empty password", func(in *ports.RegisterInput) { in.Password = "" }, domain.ErrMissingFields},
		{"mismatch", func(in *ports.RegisterInput) { in.ConfirmPassword = "other12" }, domain.ErrPasswordMismatch},
		{"too short", func(in *ports.RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, domain.ErrPasswordTooShort},
		// mismatch is reported before length even when both rules fail
		{"short and mismatched", func(in *ports.RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abd" }, domain.ErrPasswordMismatch},
		// two characters, six bytes
		{"short cjk password", func(in *ports.RegisterInput) { in.Password, in.ConfirmPassword = "密码", "密码" }, domain.ErrPasswordTooShort},
		{"password over bcrypt limit", func(in *ports.RegisterInput) {
			in.Password = strings.Repeat("a", domain.MaxPasswordBytes+1)
			in.ConfirmPassword = in.Password
		}, domain.ErrPasswordTooLong},
		{"cjk password over bcrypt limit", func(in *ports.RegisterInput) {
			in.Password = strings.Repeat("密", 25)
			in.ConfirmPassword = in.Password
		}, domain.ErrPasswordTooLong},
		{"invalid utf-8 username", func(in *ports.RegisterInput) { in.Username = "al\xffce" }, domain.ErrInvalidInput},
		{"username too long", func(in *ports.RegisterInput) { in.Username = strings.Repeat("u", domain.MaxUsernameLength+1) }, domain.ErrUsernameTooLong},
		{"email too long", func(in *ports.RegisterInput) {
			in.Email = strings.Repeat("e", domain.MaxEmailLength-4) + "@x.io"
		}, domain.ErrEmailTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, users, _ := newTestAuthService()
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(users.users) != 0 {
				t.Fatalf("store mutated on invalid input")
			}
		})
	}
}

func TestAuthService_Register_ConflictDoesNotMutateStore(t *testing.T) {
	svc, users, _ := newTestAuthService()
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("seed register: %v", err)
	}

	sameUsername := validInput()
	sameUsername.Email = "other@example.com"
	sameEmail := validInput()
	sameEmail.Username = "bob"

	for _, in := range []ports.RegisterInput{sameUsername, sameEmail} {
		_, err := svc.Register(context.Background(), in)
		if !errors.Is(err, domain.ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
		if len(users.users) != 1 {
			t.Fatalf("expected 1 user, got %d", len(users.users))
		}
	}
}

func TestAuthService_Register_InsertRaceSurfacesConflict(t *testing.T) {
	svc, users, _ := newTestAuthService()
	users.insertErr = domain.ErrUserExists

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_StoreUnavailable(t *testing.T) {
	svc, users, _ := newTestAuthService()
	users.insertErr = domain.ErrStoreUnavailable

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAuthService_Authenticate_DoesNotDistinguishFailures(t *testing.T) {
	svc, _, _ := newTestAuthService()
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("seed register: %v", err)
	}

	_, unknownErr := svc.Authenticate(context.Background(), "ghost", "pass123")
	_, wrongErr := svc.Authenticate(context.Background(), "alice", "wrong-pass")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) || !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("rejections must be indistinguishable: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthService_RegisterLoginRoundTrip(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validInput()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	user, err := svc.Authenticate(ctx, "alice", "pass123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	token, err := svc.Establish(ctx, user)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	current, err := svc.Current(ctx, token)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	stored, _ := users.FindByUsername(ctx, "alice")
	if current.ID != stored.ID {
		t.Fatalf("session resolves to user %d, store has %d", current.ID, stored.ID)
	}
}

func TestAuthService_Current_RejectsBadTokens(t *testing.T) {
	svc, _, _ := newTestAuthService()
	other := NewAuthService(newStubCredentialStore(), newStubSessionStore(), "other-secret", time.Hour, zerolog.Nop())
	forged, err := other.Establish(context.Background(), &domain.User{ID: 1})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	for _, token := range []string{"", "not-a-jwt", forged} {
		if _, err := svc.Current(context.Background(), token); !errors.Is(err, domain.ErrAuthenticationRequired) {
			t.Fatalf("token %q: expected ErrAuthenticationRequired, got %v", token, err)
		}
	}
}

func TestAuthService_Current_ExpiredSession(t *testing.T) {
	svc, users, _ := newTestAuthService()
	id, _ := users.Insert(context.Background(), "alice", "a@example.com", "hash")

	token, err := svc.Establish(context.Background(), &domain.User{ID: id})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	if _, err := svc.Current(context.Background(), token); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestAuthService_Current_DeletedUserInvalidatesSession(t *testing.T) {
	svc, users, sessions := newTestAuthService()
	id, _ := users.Insert(context.Background(), "alice", "a@example.com", "hash")
	token, err := svc.Establish(context.Background(), &domain.User{ID: id})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	delete(users.users, id)

	if _, err := svc.Current(context.Background(), token); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("orphaned session was not removed")
	}
}

func TestAuthService_Current_SessionBackendDown(t *testing.T) {
	svc, users, sessions := newTestAuthService()
	id, _ := users.Insert(context.Background(), "alice", "a@example.com", "hash")
	token, _ := svc.Establish(context.Background(), &domain.User{ID: id})
	sessions.findErr = domain.ErrStoreUnavailable

	if _, err := svc.Current(context.Background(), token); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAuthService_Terminate_Idempotent(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()
	id, _ := users.Insert(ctx, "alice", "a@example.com", "hash")
	token, err := svc.Establish(ctx, &domain.User{ID: id})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Terminate(ctx, token); err != nil {
			t.Fatalf("Terminate call %d: %v", i+1, err)
		}
		if _, err := svc.Current(ctx, token); !errors.Is(err, domain.ErrAuthenticationRequired) {
			t.Fatalf("call %d: expected anonymous after terminate, got %v", i+1, err)
		}
	}

	if err := svc.Terminate(ctx, ""); err != nil {
		t.Fatalf("Terminate without token: %v", err)
	}
}

func TestValidateRegistration_TrimmedInputsOnly(t *testing.T) {
	if err := validateRegistration("alice", "a@example.com", "pass123", "pass123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateRegistration("alice", "a@example.com", strings.Repeat("x", 5), strings.Repeat("x", 5)); !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestValidateRegistration_Boundaries(t *testing.T) {
	accepted := []struct {
		name                      string
		username, email, password string
	}{
		{"six cjk characters", "alice", "a@example.com", "密码密码密码"},
		{"password at bcrypt limit", "alice", "a@example.com", strings.Repeat("a", domain.MaxPasswordBytes)},
		{"username at column width", strings.Repeat("用", domain.MaxUsernameLength), "a@example.com", "pass123"},
		{"email at column width", "alice", strings.Repeat("e", domain.MaxEmailLength-5) + "@x.io", "pass123"},
	}
	for _, tc := range accepted {
		if err := validateRegistration(tc.username, tc.email, tc.password, tc.password); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestAuthService_Register_PasswordAtBcryptLimit(t *testing.T) {
	svc, _, _ := newTestAuthService()
	in := validInput()
	in.Password = strings.Repeat("a", domain.MaxPasswordBytes)
	in.ConfirmPassword = in.Password

	user, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
}

type rejectingCredentialStore struct {
	*stubCredentialStore
}

func (rejectingCredentialStore) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, fmt.Errorf("%w: invalid byte sequence for encoding", domain.ErrInvalidInput)
}

func TestAuthService_Authenticate_UnstorableUsernameIsInvalidCredentials(t *testing.T) {
	store := rejectingCredentialStore{newStubCredentialStore()}
	svc := NewAuthService(store, newStubSessionStore(), "secret", time.Hour, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "al\xffce", "pass123")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
