// AuthService sits between the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt), SessionManager (tokens)
//
// It never touches cookies or requests: handlers move tokens in and out of
// HTTP, the service decides what they mean.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// InvalidCredentialsMessage is shown for both an unknown username and a
// wrong password, so the login form does not reveal which usernames exist.
const InvalidCredentialsMessage = "Incorrect username or password."

// AuthService handles registration, login and current-user resolution.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	sessions  *auth.SessionManager
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	sessions *auth.SessionManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		sessions:  sessions,
		logger:    logger,
	}
}

// AuthResult bundles the user and the freshly issued session token so the
// handler can set the cookie and redirect in one step.
type AuthResult struct {
	User    *model.User
	Token   string
	Session *auth.Session
}

// Register creates a new account.
//
// Rules are checked in order and the first failure wins; nothing is written
// on failure:
//  1. EmptyUsername
//  2. EmptyPassword
//  3. PasswordTooLong (bcrypt's 72-byte limit)
//  4. UsernameTaken
//
// The new user is NOT logged in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" {
		return nil, apperror.ValidationFailed(apperror.CodeEmptyUsername, "username", "Username is required.")
	}
	if password == "" {
		return nil, apperror.ValidationFailed(apperror.CodeEmptyPassword, "password", "Password is required.")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed(apperror.CodePasswordTooLong, "password",
			fmt.Sprintf("Password must be %d bytes or fewer.", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperror.Conflict(apperror.CodeUsernameTaken, "username",
			fmt.Sprintf("User %s is already registered.", username))
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking username %q: %w", username, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// A concurrent registration can still trip the UNIQUE constraint;
		// the repository reports that as the same UsernameTaken conflict.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate checks a username/password pair.
//
// UnknownUsername is checked first, then WrongPassword. Both carry
// InvalidCredentialsMessage; only their Code tells them apart.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login failed", slog.String("username", username), slog.String("reason", "unknown username"))
			return nil, apperror.Unauthenticated(apperror.CodeUnknownUsername, InvalidCredentialsMessage)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", slog.String("username", username), slog.String("reason", "wrong password"))
			return nil, apperror.Unauthenticated(apperror.CodeWrongPassword, InvalidCredentialsMessage)
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}

	return user, nil
}

// Login authenticates and issues a new session for the user. Any session
// the client held before is simply replaced by the new token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, session, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("session", session.ID),
	)
	return &AuthResult{User: user, Token: token, Session: session}, nil
}

// ResolveCurrentUser maps a session token to its user.
//
// It returns (nil, nil) for an anonymous caller: no token, a token that
// fails validation, or a token whose user id no longer exists. A non-nil
// error means the store itself failed.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.Parse(token)
	if err != nil {
		s.logger.Debug("discarding session", slog.String("reason", err.Error()))
		return nil, nil
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("session references a missing user", slog.Int64("userID", session.UserID))
			return nil, nil
		}
		return nil, fmt.Errorf("service/auth: loading session user %d: %w", session.UserID, err)
	}

	return user, nil
}
