package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
)

// Redirect targets for refused route access.
const (
	RedirectLogin = "/login"
	RedirectHome  = "/"
)

var (
	// ErrUnauthenticated refuses anonymous visitors.
	ErrUnauthenticated = &apperrors.AppError{
		Code:    "UNAUTHENTICATED",
		Message: "sign in required",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}
	// ErrForbidden refuses signed-in users whose role is not allowed.
	ErrForbidden = &apperrors.AppError{
		Code:    "FORBIDDEN",
		Message: "this area is not available for your role",
		Status:  http.StatusForbidden,
		Err:     apperrors.ErrForbidden,
	}
)

// Authorize checks the current visitor against roles. An empty role list
// only requires a signed-in user.
func (s *Session) Authorize(roles ...domain.Role) error {
	u := s.User()
	if u == nil {
		return ErrUnauthenticated
	}
	if !u.Role.In(roles...) {
		return ErrForbidden
	}
	return nil
}

// Gate adapts Authorize to string roles and returns the redirect target of
// a refusal.
func (s *Session) Gate(_ context.Context, roles ...string) (string, error) {
	rs := make([]domain.Role, len(roles))
	for i, r := range roles {
		rs[i] = domain.Role(r)
	}
	err := s.Authorize(rs...)
	return RedirectFor(err), err
}

// RedirectFor returns where a visitor refused with err should go: the login
// page when unauthenticated, home when the role is wrong.
func RedirectFor(err error) string {
	switch {
	case err == nil:
		return ""
	case apperrors.IsAuth(err):
		return RedirectLogin
	case errors.Is(err, apperrors.ErrForbidden):
		return RedirectHome
	default:
		return ""
	}
}
