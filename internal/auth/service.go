package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/user"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
	maxPasswordLen = 256
)

// ErrUnauthorized covers every credential failure: unknown username, wrong
// password, dead session. Callers must not distinguish between them.
var ErrUnauthorized = errors.New("auth: unauthorized")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("auth: invalid %s: %s", e.Field, e.Reason)
}

// Service owns account and session workflows. All storage access goes through
// the bridge.
type Service struct {
	bridge   *bridge.Bridge
	sessions SessionStore
	logger   *logging.Logger
}

func NewService(b *bridge.Bridge, sessions SessionStore, logger *logging.Logger) *Service {
	return &Service{bridge: b, sessions: sessions, logger: logger}
}

type RegisterParams struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
}

// Register validates the params, hashes the password and creates the account.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*user.User, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.DisplayName = strings.TrimSpace(params.DisplayName)
	params.Email = strings.TrimSpace(params.Email)

	if err := validateUsername(params.Username); err != nil {
		return nil, err
	}
	if params.DisplayName == "" {
		return nil, &ValidationError{Field: "display_name", Reason: "must not be empty"}
	}
	if err := validateEmail(params.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u, err := s.bridge.CreateUser(ctx, bridge.CreateUser{
		Username:     params.Username,
		DisplayName:  params.DisplayName,
		Email:        params.Email,
		PasswordHash: TrimPadding(hash),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login checks the credentials and mints a fresh session token. Unknown
// usernames and wrong passwords produce the same ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, string, error) {
	u, err := s.bridge.GetUserByUsername(ctx, bridge.GetUserByUsername{Username: strings.TrimSpace(username)})
	if errors.Is(err, user.ErrNotFound) {
		return nil, "", ErrUnauthorized
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := VerifyPassword(u.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash rejected", "user_id", u.ID, "error", err)
		return nil, "", ErrUnauthorized
	}
	if !ok {
		return nil, "", ErrUnauthorized
	}

	token, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("creating session: %w", err)
	}
	return u, token, nil
}

// Logout purges the session behind token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Purge(ctx, token)
}

// Authenticate resolves a session token to a user id.
func (s *Service) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return uuid.Nil, ErrUnauthorized
	}
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

// Account fetches the authenticated user's record.
func (s *Service) Account(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return s.bridge.GetUser(ctx, bridge.GetUser{ID: userID})
}

type UpdateAccountParams struct {
	Username    *string
	DisplayName *string
	Email       *string
	Password    *string
}

// UpdateAccount applies the provided fields to the caller's own account.
func (s *Service) UpdateAccount(ctx context.Context, userID uuid.UUID, params UpdateAccountParams) (*user.User, error) {
	fields := user.UpdateParams{}

	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		fields.Username = &username
	}
	if params.DisplayName != nil {
		name := strings.TrimSpace(*params.DisplayName)
		if name == "" {
			return nil, &ValidationError{Field: "display_name", Reason: "must not be empty"}
		}
		fields.DisplayName = &name
	}
	if params.Email != nil {
		email := strings.TrimSpace(*params.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		fields.Email = &email
	}
	if params.Password != nil {
		if err := validatePassword(*params.Password); err != nil {
			return nil, err
		}
		hash, err := HashPassword(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		trimmed := TrimPadding(hash)
		fields.PasswordHash = &trimmed
	}

	return s.bridge.UpdateUser(ctx, bridge.UpdateUser{ID: userID, Fields: fields})
}

// DeleteAccount removes the caller's account. Their links survive as orphans
// until the sweeper claims them.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID, token string) error {
	if _, err := s.bridge.DeleteUser(ctx, bridge.DeleteUser{ID: userID}); err != nil {
		return err
	}
	if err := s.sessions.Purge(ctx, token); err != nil {
		s.logger.Error("purging session after account deletion", "user_id", userID, "error", err)
	}
	s.logger.Info("account deleted", "user_id", userID)
	return nil
}

// UsernameAvailable is advisory. Registration can still conflict.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	return s.bridge.UsernameAvailable(ctx, bridge.UsernameAvailable{Username: strings.TrimSpace(username)})
}

// EmailAvailable is advisory, like UsernameAvailable.
func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	return s.bridge.EmailAvailable(ctx, bridge.EmailAvailable{Email: strings.TrimSpace(email)})
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen {
		return &ValidationError{Field: "username", Reason: fmt.Sprintf("must be at least %d characters", minUsernameLen)}
	}
	if len(username) > maxUsernameLen {
		return &ValidationError{Field: "username", Reason: fmt.Sprintf("must be at most %d characters", maxUsernameLen)}
	}
	for _, r := range username {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return &ValidationError{Field: "username", Reason: "may only contain lowercase letters, digits, '_' and '-'"}
		}
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	if len(password) > maxPasswordLen {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at most %d characters", maxPasswordLen)}
	}
	return nil
}
