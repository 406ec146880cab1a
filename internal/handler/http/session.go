package http

import (
	"log/slog"
	"net/http"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/pkg/httputil"
)

// SessionHandler handles sign-in, registration and profile endpoints.
type SessionHandler struct {
	logger *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(logger *slog.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// --- Request DTOs ---

// LoginRequest is the JSON request body for password sign-in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries an OAuth authorization code.
type GoogleLoginRequest struct {
	Code string `json:"code" validate:"required"`
}

// VerifyEmailRequest submits an activation code.
type VerifyEmailRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OTPCode string `json:"otp_code" validate:"required"`
}

// EmailRequest names an account by email.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetRequest starts a password reset.
type PasswordResetRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
}

// PasswordResetConfirmRequest completes a password reset.
type PasswordResetConfirmRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
	OTPCode     string `json:"otp_code" validate:"required"`
}

// SetPasswordRequest sets a first password on an OAuth account.
type SetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePasswordRequest changes the password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
}

// sessionView is the identity summary sent to the browser.
type sessionView struct {
	State         string       `json:"state"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

// --- Handlers ---

// Current handles GET /api/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sess := workspaceFrom(r.Context()).Session
	httputil.WriteData(w, http.StatusOK, sessionView{
		State:         sess.State().String(),
		Authenticated: sess.IsAuthenticated(),
		User:          sess.User(),
	})
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	ws := workspaceFrom(r.Context())
	u, err := ws.Session.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	ws.Cart.Mount(r.Context())

	httputil.WriteData(w, http.StatusOK, u)
}

// GoogleLogin handles POST /api/session/google-login
func (h *SessionHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	ws := workspaceFrom(r.Context())
	u, err := ws.Session.GoogleLogin(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	ws.Cart.Mount(r.Context())

	httputil.WriteData(w, http.StatusOK, u)
}

// Logout handles POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	ws.Session.Logout(r.Context())
	ws.Cart.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// Register handles POST /api/session/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	data, err := workspaceFrom(r.Context()).Session.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, data)
}

// UpdateProfile handles PATCH /api/session/profile
func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	u, err := workspaceFrom(r.Context()).Session.UpdateUser(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, u)
}

// VerifyEmail handles POST /api/session/verify-email
func (h *SessionHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	data, err := workspaceFrom(r.Context()).Session.VerifyEmail(r.Context(), req.Email, req.OTPCode)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, data)
}

// ResendActivation handles POST /api/session/resend-activation
func (h *SessionHandler) ResendActivation(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	data, err := workspaceFrom(r.Context()).Session.ResendActivation(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, data)
}

// RequestPasswordReset handles POST /api/session/password-reset-request
func (h *SessionHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	data, err := workspaceFrom(r.Context()).Session.RequestPasswordReset(r.Context(), req.EmailOrPhone)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, data)
}

// ConfirmPasswordReset handles POST /api/session/password-reset-confirm
func (h *SessionHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	data, err := workspaceFrom(r.Context()).Session.ConfirmPasswordReset(r.Context(), req.NewPassword, req.OTPCode)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, data)
}

// SetPassword handles PUT /api/session/set-password
func (h *SessionHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	data, err := workspaceFrom(r.Context()).Session.SetPassword(r.Context(), req.NewPassword)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, data)
}

// ChangePassword handles POST /api/session/change-password
func (h *SessionHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	msg, err := workspaceFrom(r.Context()).Session.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"message": msg})
}

// CheckEmail handles POST /api/session/check-email
func (h *SessionHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	exists, err := workspaceFrom(r.Context()).Session.CheckEmailExists(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]bool{"exists": exists})
}
