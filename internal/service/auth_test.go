package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[int64]*model.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict(apperror.CodeUsernameTaken, "username", "taken")
		}
	}
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSessions(t *testing.T) *auth.SessionManager {
	t.Helper()
	sessions, err := auth.NewSessionManager("test-secret-at-least-16", time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sessions
}

// newTestAuthService returns an AuthService wired with fake dependencies.
// bcrypt runs at MinCost so the suite stays fast.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	return NewAuthService(repo, auth.NewPasswordService(bcrypt.MinCost), newTestSessions(t), discardLogger())
}

func assertCode(t *testing.T, err error, kind error, code apperror.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %v/%s", kind, code)
	}
	if !errors.Is(err, kind) {
		t.Errorf("error %q is not %v", err, kind)
	}
	if got := apperror.CodeOf(err); got != code {
		t.Errorf("code = %q, want %q", got, code)
	}
}

// =========================================================================
// Register
// =========================================================================

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != 1 {
		t.Errorf("ID = %d, want 1", user.ID)
	}

	stored := repo.users[user.ID]
	if stored.PasswordHash == "pw1" || stored.PasswordHash == "" {
		t.Errorf("password stored as %q, want a bcrypt hash", stored.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegister_ValidationOrder(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		kind     error
		code     apperror.Code
	}{
		{"both empty reports username", "", "", apperror.ErrValidation, apperror.CodeEmptyUsername},
		{"empty username", "", "pw", apperror.ErrValidation, apperror.CodeEmptyUsername},
		{"empty password", "bob", "", apperror.ErrValidation, apperror.CodeEmptyPassword},
		{"password too long", "bob", strings.Repeat("x", 73), apperror.ErrValidation, apperror.CodePasswordTooLong},
		{"taken", "alice", "other", apperror.ErrConflict, apperror.CodeUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc := newTestAuthService(t, repo)
			if _, err := svc.Register(context.Background(), "alice", "pw1"); err != nil {
				t.Fatalf("seed Register() error = %v", err)
			}

			_, err := svc.Register(context.Background(), tt.username, tt.password)
			assertCode(t, err, tt.kind, tt.code)

			if len(repo.users) != 1 {
				t.Errorf("users = %d, want 1 (failed registration must not write)", len(repo.users))
			}
		})
	}
}

func TestRegister_TakenMessageNamesUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	svc.Register(context.Background(), "alice", "pw1")

	_, err := svc.Register(context.Background(), "alice", "pw2")
	if err == nil || err.Error() != "User alice is already registered." {
		t.Errorf("error = %v, want the username in the message", err)
	}
}

func TestRegister_SeventyTwoBytePasswordAccepted(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "alice", strings.Repeat("x", 72)); err != nil {
		t.Errorf("Register() error = %v, want nil", err)
	}
}

func TestRegister_UsernameNotTrimmed(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	svc.Register(context.Background(), "alice", "pw1")

	user, err := svc.Register(context.Background(), " alice", "pw1")
	if err != nil {
		t.Fatalf("Register(\" alice\") error = %v", err)
	}
	if user.Username != " alice" {
		t.Errorf("Username = %q, want it stored as given", user.Username)
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("disk full")
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "alice", "pw1")
	if err == nil {
		t.Fatal("Register() error = nil, want store failure")
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		t.Errorf("store failure surfaced as domain error %v", appErr.Err)
	}
}

// =========================================================================
// Authenticate / Login
// =========================================================================

func TestAuthenticate(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	alice, _ := svc.Register(context.Background(), "alice", "pw1")

	t.Run("success", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), "alice", "pw1")
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if user.ID != alice.ID {
			t.Errorf("ID = %d, want %d", user.ID, alice.ID)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody", "pw1")
		assertCode(t, err, apperror.ErrUnauthenticated, apperror.CodeUnknownUsername)
	})

	t.Run("unknown username wins over any password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody", "")
		assertCode(t, err, apperror.ErrUnauthenticated, apperror.CodeUnknownUsername)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "alice", "nope")
		assertCode(t, err, apperror.ErrUnauthenticated, apperror.CodeWrongPassword)
	})

	t.Run("messages are identical", func(t *testing.T) {
		_, unknown := svc.Authenticate(context.Background(), "nobody", "pw1")
		_, wrong := svc.Authenticate(context.Background(), "alice", "nope")
		if unknown.Error() != wrong.Error() || wrong.Error() != InvalidCredentialsMessage {
			t.Errorf("messages = %q / %q, want both %q", unknown, wrong, InvalidCredentialsMessage)
		}
	})
}

func TestAuthenticate_CorruptHashIsNotWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	repo.CreateUser(context.Background(), &model.User{Username: "alice", PasswordHash: "garbage"})
	svc := newTestAuthService(t, repo)

	_, err := svc.Authenticate(context.Background(), "alice", "pw1")
	if err == nil {
		t.Fatal("Authenticate() error = nil, want failure")
	}
	if errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("corrupt hash reported as %v, want an internal error", err)
	}
}

func TestLogin_IssuesFreshSessions(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	svc.Register(context.Background(), "alice", "pw1")

	first, err := svc.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, err := svc.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	if first.Token == "" || first.Token == second.Token {
		t.Errorf("tokens = %q / %q, want distinct non-empty tokens", first.Token, second.Token)
	}
	if first.Session.ID == second.Session.ID {
		t.Errorf("session ids repeat: %q", first.Session.ID)
	}
}

func TestLogin_FailureIssuesNothing(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	svc.Register(context.Background(), "alice", "pw1")

	result, err := svc.Login(context.Background(), "alice", "bad")
	if err == nil || result != nil {
		t.Errorf("Login() = %v, %v; want nil result and an error", result, err)
	}
}

// =========================================================================
// ResolveCurrentUser
// =========================================================================

func TestResolveCurrentUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	svc.Register(context.Background(), "alice", "pw1")
	login, err := svc.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		user, err := svc.ResolveCurrentUser(context.Background(), login.Token)
		if err != nil {
			t.Fatalf("ResolveCurrentUser() error = %v", err)
		}
		if user == nil || user.Username != "alice" {
			t.Errorf("user = %+v, want alice", user)
		}
	})

	anonymous := map[string]string{
		"empty":    "",
		"garbage":  "not.a.token",
		"tampered": login.Token + "x",
	}
	for name, token := range anonymous {
		t.Run(name, func(t *testing.T) {
			user, err := svc.ResolveCurrentUser(context.Background(), token)
			if err != nil || user != nil {
				t.Errorf("ResolveCurrentUser() = %v, %v; want anonymous", user, err)
			}
		})
	}

	t.Run("user removed", func(t *testing.T) {
		delete(repo.users, login.User.ID)
		user, err := svc.ResolveCurrentUser(context.Background(), login.Token)
		if err != nil || user != nil {
			t.Errorf("ResolveCurrentUser() = %v, %v; want anonymous", user, err)
		}
	})
}

func TestResolveCurrentUser_StoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	svc.Register(context.Background(), "alice", "pw1")
	login, _ := svc.Login(context.Background(), "alice", "pw1")

	repo.getErr = errors.New("database is locked")
	if _, err := svc.ResolveCurrentUser(context.Background(), login.Token); err == nil {
		t.Error("ResolveCurrentUser() error = nil, want the store failure")
	}
}

func TestResolveCurrentUser_OtherSecretRejected(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	svc.Register(context.Background(), "alice", "pw1")

	other, _ := auth.NewSessionManager("another-secret-of-16+", time.Hour, false)
	forged, _, err := other.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	user, err := svc.ResolveCurrentUser(context.Background(), forged)
	if err != nil || user != nil {
		t.Errorf("ResolveCurrentUser(forged) = %v, %v; want anonymous", user, err)
	}
}
