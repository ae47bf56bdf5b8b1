package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/http/response"
	"bookvault/internal/security"
	"bookvault/internal/service"
	"bookvault/internal/session"
)

// AccountHandler owns the credential flows and the session lifecycle around
// them. Everything here is reachable without a session; the guard protects
// the rest of the application.
type AccountHandler struct {
	accounts      *service.AccountService
	sessions      session.Store
	audit         *service.AuditService
	jwt           *security.JWTManager
	authCookie    string
	sessionCookie string
	authTTL       time.Duration
	now           func() time.Time
}

func NewAccountHandler(
	accounts *service.AccountService,
	sessions session.Store,
	audit *service.AuditService,
	jwt *security.JWTManager,
	authCookie, sessionCookie string,
	authTTL time.Duration,
) *AccountHandler {
	return &AccountHandler{
		accounts:      accounts,
		sessions:      sessions,
		audit:         audit,
		jwt:           jwt,
		authCookie:    authCookie,
		sessionCookie: sessionCookie,
		authTTL:       authTTL,
		now:           time.Now,
	}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "Full name, email, and a password of at least 8 characters are required.", nil)
		return
	}

	user, err := h.accounts.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Error(w, r, http.StatusConflict, "EMAIL_TAKEN", err.Error(), nil)
			return
		}
		h.internalError(w, r, "register", err)
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]any{
		"user":                    user,
		"verification_email_sent": true,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotFound):
			response.Error(w, r, http.StatusUnauthorized, "EMAIL_NOT_REGISTERED", err.Error(), nil)
		case errors.Is(err, service.ErrEmailUnverified):
			response.Error(w, r, http.StatusForbidden, "EMAIL_UNVERIFIED", err.Error(), nil)
		case errors.Is(err, service.ErrIncorrectPassword):
			response.Error(w, r, http.StatusUnauthorized, "INCORRECT_PASSWORD", err.Error(), nil)
		default:
			h.internalError(w, r, "login", err)
		}
		return
	}

	if err := h.openSession(w, r, user); err != nil {
		h.internalError(w, r, "login", err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":    user,
		"message": fmt.Sprintf("Welcome back, %s! You have successfully logged in.", user.FullName),
	})
}

// Logout tears the session down and is safe to call without one. Security
// cookies are cleared wholesale so a half-broken session cannot survive.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sid := security.GetCookie(r, h.sessionCookie); sid != "" {
		if err := h.sessions.Delete(ctx, sid); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			slog.WarnContext(ctx, "session delete failed on logout", "error", err)
		}
	}

	actor := "Unknown"
	if raw := security.GetCookie(r, h.authCookie); raw != "" {
		if claims, err := h.jwt.ParseAuthToken(raw); err == nil {
			actor = claims.Subject
		}
	}
	h.audit.Log(ctx, "User Logout", service.WithActor(actor))

	security.ClearSecurityCookies(w, r)
	http.Redirect(w, r, "/account/logged-out", http.StatusFound)
}

func (h *AccountHandler) LoggedOut(w http.ResponseWriter, r *http.Request) {
	response.Message(w, r, http.StatusOK, "You have been logged out.")
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")

	err := h.accounts.VerifyEmail(r.Context(), email, token)
	switch {
	case err == nil:
		response.Message(w, r, http.StatusOK, "Your email has been verified successfully.")
	case errors.Is(err, service.ErrAlreadyVerified):
		response.Message(w, r, http.StatusOK, err.Error())
	default:
		response.Error(w, r, http.StatusBadRequest, "VERIFICATION_FAILED", err.Error(), nil)
	}
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AccountHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	err := h.accounts.ResendVerification(r.Context(), req.Email)
	switch {
	case err == nil:
		response.Message(w, r, http.StatusOK, "Verification email has been resent.")
	case errors.Is(err, service.ErrAlreadyVerified):
		response.Message(w, r, http.StatusOK, err.Error())
	default:
		response.Error(w, r, http.StatusBadRequest, "RESEND_FAILED", err.Error(), nil)
	}
}

func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	err := h.accounts.ForgotPassword(r.Context(), req.Email)
	var limited *service.RateLimitedError
	switch {
	case err == nil:
		response.Message(w, r, http.StatusOK, "If the email could be delivered, a password reset link is on its way.")
	case errors.As(err, &limited):
		if limited.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds()+0.5)))
		}
		response.Error(w, r, http.StatusTooManyRequests, "RESET_DENIED", limited.Message, nil)
	case errors.Is(err, service.ErrResetUnknownEmail):
		response.Error(w, r, http.StatusNotFound, "EMAIL_NOT_FOUND", err.Error(), nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong. Please try again later.", nil)
	}
}

// ChangePasswordForm backs the GET side of the emailed link: it confirms the
// link is well-formed so the client can render the form.
func (h *AccountHandler) ChangePasswordForm(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request. Please try again.", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"email": email, "token": token})
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if len(req.NewPassword) < 8 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "Password must be at least 8 characters long.", nil)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		response.Error(w, r, http.StatusBadRequest, "RESET_FAILED", err.Error(), nil)
		return
	}
	response.Message(w, r, http.StatusOK, "Your password has been changed successfully.")
}

// CheckEmailExists reads a raw email address from the body and answers with
// a bare JSON object, not the envelope, for the registration form's inline
// probe.
func (h *AccountHandler) CheckEmailExists(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 512))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	exists, message := h.accounts.EmailExists(r.Context(), string(body))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"exists": exists, "message": message})
}

func (h *AccountHandler) openSession(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	ctx := r.Context()
	sid := session.NewSessionID()
	record := &domain.SessionRecord{
		ID:           sid,
		UserID:       strconv.FormatUint(uint64(user.ID), 10),
		LastActivity: h.now().UTC().Format(time.RFC3339),
	}
	if err := h.sessions.Save(ctx, record); err != nil {
		return err
	}
	token, err := h.jwt.SignAuthToken(user.ID, user.FullName, h.authTTL)
	if err != nil {
		return err
	}
	// Session cookie carries no Max-Age: browser-session scoped, with the
	// idle timeout enforced server-side.
	security.SetCookie(w, r, h.sessionCookie, sid, 0)
	security.SetCookie(w, r, h.authCookie, token, int(h.authTTL.Seconds()))
	return nil
}

func (h *AccountHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), "account operation failed", "op", op, "error", err)
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
}
