// Package session holds the identity of one storefront visitor: the cached
// profile, the credential lifecycle and the identity-mutating calls.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/internal/gateway"
	"github.com/DavidAnato/AgriConnect/internal/tokenstore"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/logger"
	"github.com/DavidAnato/AgriConnect/pkg/validator"
)

// Backend paths of the authentication endpoints.
const (
	pathLogin                = "/authentication/login/"
	pathRegister             = "/authentication/register/"
	pathProfile              = "/authentication/profile/"
	pathActivateEmail        = "/authentication/activate-email/"
	pathResendActivation     = "/authentication/resend-activation/"
	pathPasswordResetRequest = "/authentication/password-reset-request/"
	pathPasswordResetConfirm = "/authentication/password-reset-confirm/"
	pathSetPassword          = "/authentication/set-password/"
	pathChangePassword       = "/authentication/change-password/"
	pathCheckEmailExists     = "/authentication/check-email-exists/"
	pathGoogleLogin          = "/authentication/google-login/"
)

// State is the coarse authentication state.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Payload is a raw JSON object returned by pass-through endpoints.
type Payload map[string]any

// Session is the identity of one visitor. It is safe for concurrent use.
type Session struct {
	gw     *gateway.Gateway
	store  *tokenstore.Store
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	user *domain.User
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the clock used to check cached token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a Session on top of gw and rehydrates the cached profile
// without network access. A cached refresh token that is a JWT past its
// expiry means the session cannot be resumed, so everything is discarded.
// The session drops to Anonymous whenever gw tears the credentials down.
func New(ctx context.Context, gw *gateway.Gateway, l *slog.Logger, opts ...Option) *Session {
	if l == nil {
		l = logger.Discard()
	}
	s := &Session{
		gw:     gw,
		store:  gw.Store(),
		logger: l,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rehydrate(ctx)
	gw.OnTeardown(func(context.Context) { s.setUser(nil) })
	return s
}

func (s *Session) rehydrate(ctx context.Context) {
	u := s.store.User(ctx)
	if u == nil {
		return
	}

	if refresh := s.store.RefreshToken(ctx); refresh != "" && s.expired(refresh) {
		s.logger.InfoContext(ctx, "discarding session with expired refresh token",
			slog.Int64("user_id", u.ID),
		)
		s.store.Clear(ctx)
		return
	}

	s.user = u
}

// expired reports whether token is a JWT whose exp claim has passed. The
// signature is not checked: only the backend can verify it. Opaque tokens
// are never considered expired.
func (s *Session) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time)
}

// User returns a copy of the current profile, or nil when anonymous.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// State returns the authentication state.
func (s *Session) State() State {
	if s.IsAuthenticated() {
		return Authenticated
	}
	return Anonymous
}

// IsAuthenticated reports whether a profile is present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) setUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Login exchanges email and password for credentials and a profile.
func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.InvalidInput("email and password are required")
	}
	return s.authenticate(ctx, pathLogin, map[string]string{"email": email, "password": password})
}

// GoogleLogin exchanges an OAuth authorization code like Login.
func (s *Session) GoogleLogin(ctx context.Context, code string) (*domain.User, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("authorization code is required")
	}
	return s.authenticate(ctx, pathGoogleLogin, map[string]string{"code": code})
}

func (s *Session) authenticate(ctx context.Context, path string, body any) (*domain.User, error) {
	resp, err := gateway.Fetch[domain.LoginResponse](ctx, s.gw, gateway.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	s.persist(ctx, domain.Credentials{Access: resp.Access, Refresh: resp.Refresh}, resp.User)
	logger.WithContext(ctx, s.logger).InfoContext(ctx, "signed in",
		slog.Int64("user_id", resp.User.ID),
		slog.String("role", string(resp.User.Role)),
	)
	u := *resp.User
	return &u, nil
}

func (s *Session) persist(ctx context.Context, creds domain.Credentials, u *domain.User) {
	s.store.SetAccessToken(ctx, creds.Access)
	s.store.SetRefreshToken(ctx, creds.Refresh)
	s.store.SetUser(ctx, u)
	s.setUser(u)
}

// Logout forgets the profile and the credentials. It does not call the
// backend.
func (s *Session) Logout(ctx context.Context) {
	s.setUser(nil)
	s.store.Clear(ctx)
}

// SignUp registers an account. It does not authenticate: the backend
// replies with the next step, usually email verification.
func (s *Session) SignUp(ctx context.Context, in domain.SignUpInput) (Payload, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	body := struct {
		Email           string      `json:"email"`
		Password        string      `json:"password"`
		FirstName       string      `json:"first_name"`
		LastName        string      `json:"last_name"`
		Role            domain.Role `json:"role"`
		PhoneNumber     string      `json:"phone_number,omitempty"`
		FarmName        string      `json:"farm_name,omitempty"`
		FarmAddress     string      `json:"farm_address,omitempty"`
		FarmDescription string      `json:"farm_description,omitempty"`
	}{in.Email, in.Password, in.FirstName, in.LastName, in.Role, in.PhoneNumber, in.FarmName, in.FarmAddress, in.FarmDescription}

	return s.post(ctx, pathRegister, body)
}

// UpdateUser applies a partial profile change and caches the snapshot the
// backend returns. The cached profile is replaced, never merged.
func (s *Session) UpdateUser(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	if upd.Empty() {
		return nil, apperrors.InvalidInput("nothing to update")
	}

	u, err := gateway.Fetch[domain.User](ctx, s.gw, gateway.Request{
		Method: http.MethodPatch,
		Path:   pathProfile,
		Body:   upd,
	})
	if err != nil {
		return nil, err
	}

	s.store.SetUser(ctx, &u)
	s.setUser(&u)
	return s.User(), nil
}

// VerifyEmail submits an activation code. When the backend confirms and the
// email is the cached profile's, the cached verified flag is set; nothing
// else in the profile changes.
func (s *Session) VerifyEmail(ctx context.Context, email, otp string) (Payload, error) {
	if email == "" || otp == "" {
		return nil, apperrors.InvalidInput("email and otp_code are required")
	}

	data, err := s.post(ctx, pathActivateEmail, map[string]string{"email": email, "otp_code": otp})
	if err != nil {
		return nil, err
	}

	if verified, _ := data["verified_email"].(bool); verified {
		s.mu.Lock()
		var updated *domain.User
		if s.user != nil && s.user.Email == email {
			u := *s.user
			u.VerifiedEmail = true
			s.user = &u
			updated = &u
		}
		s.mu.Unlock()

		if updated != nil {
			s.store.SetUser(ctx, updated)
		}
	}
	return data, nil
}

// ResendActivation asks for a new activation code.
func (s *Session) ResendActivation(ctx context.Context, email string) (Payload, error) {
	return s.post(ctx, pathResendActivation, map[string]string{"email": email})
}

// RequestPasswordReset sends a reset code to an email address or phone.
func (s *Session) RequestPasswordReset(ctx context.Context, emailOrPhone string) (Payload, error) {
	return s.post(ctx, pathPasswordResetRequest, map[string]string{"email_or_phone": emailOrPhone})
}

// ConfirmPasswordReset sets a new password using a reset code.
func (s *Session) ConfirmPasswordReset(ctx context.Context, newPassword, otp string) (Payload, error) {
	return s.post(ctx, pathPasswordResetConfirm, map[string]string{"new_password": newPassword, "otp_code": otp})
}

// SetPassword sets a password on an account created through OAuth.
func (s *Session) SetPassword(ctx context.Context, newPassword string) (Payload, error) {
	return gateway.Fetch[Payload](ctx, s.gw, gateway.Request{
		Method: http.MethodPut,
		Path:   pathSetPassword,
		Body:   map[string]string{"new_password": newPassword},
	})
}

// ChangePassword changes the password of the signed-in user and returns the
// backend's confirmation message.
func (s *Session) ChangePassword(ctx context.Context, current, next string) (string, error) {
	data, err := s.post(ctx, pathChangePassword, map[string]string{
		"current_password": current,
		"new_password":     next,
	})
	if err != nil {
		return "", err
	}
	msg, _ := data["message"].(string)
	return msg, nil
}

// CheckEmailExists reports whether an account already uses email.
func (s *Session) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	resp, err := gateway.Fetch[struct {
		Exists bool `json:"exists"`
	}](ctx, s.gw, gateway.Request{
		Method: http.MethodPost,
		Path:   pathCheckEmailExists,
		Body:   map[string]string{"email": email},
	})
	if err != nil {
		return false, err
	}
	return resp.Exists, nil
}

func (s *Session) post(ctx context.Context, path string, body any) (Payload, error) {
	return gateway.Fetch[Payload](ctx, s.gw, gateway.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}
