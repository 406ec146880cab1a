package tokenstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/pkg/logger"
)

// Storage keys, shared by every backend.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserData     = "userData"
)

// Backend is a string key/value store holding one session's credentials.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Factory opens the backend of one namespace (a browser session).
type Factory func(namespace string) Backend

// Store persists the credential pair and the cached user profile. It never
// fails: storage errors and malformed data are logged and read as absence.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a Store on top of backend.
func New(backend Backend, l *slog.Logger) *Store {
	if l == nil {
		l = logger.Discard()
	}
	return &Store{backend: backend, logger: l}
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Store) AccessToken(ctx context.Context) string {
	return s.get(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) string {
	return s.get(ctx, KeyRefreshToken)
}

// SetAccessToken overwrites the access token.
func (s *Store) SetAccessToken(ctx context.Context, token string) {
	s.set(ctx, KeyAccessToken, token)
}

// SetRefreshToken overwrites the refresh token.
func (s *Store) SetRefreshToken(ctx context.Context, token string) {
	s.set(ctx, KeyRefreshToken, token)
}

// SetCredentials stores both tokens. An empty refresh token keeps the
// current one.
func (s *Store) SetCredentials(ctx context.Context, c domain.Credentials) {
	s.SetAccessToken(ctx, c.Access)
	if c.Refresh != "" {
		s.SetRefreshToken(ctx, c.Refresh)
	}
}

// ClearAuth removes both tokens. Calling it on an empty store is a no-op.
func (s *Store) ClearAuth(ctx context.Context) {
	s.delete(ctx, KeyAccessToken, KeyRefreshToken)
}

// User returns the cached profile, or nil when absent or unreadable.
func (s *Store) User(ctx context.Context) *domain.User {
	raw := s.get(ctx, KeyUserData)
	if raw == "" {
		return nil
	}

	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed cached profile", slog.String("error", err.Error()))
		return nil
	}
	return &u
}

// SetUser caches the profile snapshot.
func (s *Store) SetUser(ctx context.Context, u *domain.User) {
	if u == nil {
		s.DeleteUser(ctx)
		return
	}

	data, err := json.Marshal(u)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode profile", slog.String("error", err.Error()))
		return
	}
	s.set(ctx, KeyUserData, string(data))
}

// DeleteUser removes the cached profile.
func (s *Store) DeleteUser(ctx context.Context) {
	s.delete(ctx, KeyUserData)
}

// Clear removes the tokens and the cached profile.
func (s *Store) Clear(ctx context.Context) {
	s.delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUserData)
}

func (s *Store) get(ctx context.Context, key string) string {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "token store read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (s *Store) set(ctx context.Context, key, value string) {
	if err := s.backend.Set(ctx, key, value); err != nil {
		s.logger.ErrorContext(ctx, "token store write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) delete(ctx context.Context, keys ...string) {
	if err := s.backend.Delete(ctx, keys...); err != nil {
		s.logger.ErrorContext(ctx, "token store delete failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}
