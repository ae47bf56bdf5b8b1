package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"bookvault/internal/domain"
	"bookvault/internal/observability"
	"bookvault/internal/repository"
	"bookvault/internal/security"
)

// These errors carry the exact text shown to the user.
var (
	ErrEmailTaken        = errors.New("An account with this email address already exists.")
	ErrEmailNotFound     = errors.New("This email is not registered. Please create an account first.")
	ErrEmailUnverified   = errors.New("Please verify your email address before logging in.")
	ErrIncorrectPassword = errors.New("Incorrect password. Please try again.")
	ErrAlreadyVerified   = errors.New("Email is already verified.")
	ErrSamePassword      = errors.New("New password cannot be the same as your current password. Please choose a different password.")
	ErrResetTokenInvalid = errors.New("Invalid or expired reset token. Please request a new password reset.")
)

// ErrResetUnknownEmail deliberately discloses registration status on the
// forgot-password form, matching the rest of the account flows which are not
// enumeration-safe either.
var ErrResetUnknownEmail = errors.New("This email address is not registered. Please check your email or create an account first.")

// AccountService drives registration, login, email verification, and the
// password reset flow. It owns no transport concerns; handlers translate its
// errors into redirects and flash messages.
type AccountService struct {
	users     repository.UserRepository
	tokens    *TokenIssuer
	shortener *URLShortener
	limiter   *ResetRateLimiter
	email     *ThrottledEmailService
	audit     *AuditService
	baseURL   string
}

func NewAccountService(
	users repository.UserRepository,
	tokens *TokenIssuer,
	shortener *URLShortener,
	limiter *ResetRateLimiter,
	email *ThrottledEmailService,
	audit *AuditService,
	baseURL string,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		shortener: shortener,
		limiter:   limiter,
		email:     email,
		audit:     audit,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Register creates an unverified account and sends the verification email.
// A verification send failure does not undo the registration.
func (s *AccountService) Register(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, "User Registration",
		WithActor(strconv.FormatUint(uint64(user.ID), 10)),
		WithDescription(fmt.Sprintf("New user '%s' registered.", user.Email)),
	)

	if err := s.sendVerification(ctx, user); err != nil {
		slog.WarnContext(ctx, "verification email failed after registration", "email", user.Email, "error", err)
	}
	return user, nil
}

// Login authenticates a verified account. The three failure modes return
// distinct messages; the unknown-email and wrong-password cases are audited.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin("unknown_email")
			return nil, ErrEmailNotFound
		}
		return nil, err
	}
	if !user.EmailVerified {
		observability.RecordAuthLogin("unverified")
		return nil, ErrEmailUnverified
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		observability.RecordAuthLogin("bad_password")
		s.audit.Log(ctx, "Failed Login Attempt",
			WithActor(strconv.FormatUint(uint64(user.ID), 10)),
			WithDescription(fmt.Sprintf("Failed login attempt for user '%s'.", user.Email)),
		)
		return nil, ErrIncorrectPassword
	}

	observability.RecordAuthLogin("success")
	s.audit.Log(ctx, "User Login",
		WithActor(strconv.FormatUint(uint64(user.ID), 10)),
		WithDescription(fmt.Sprintf("User '%s' logged in successfully.", user.Email)),
	)
	return user, nil
}

// VerifyEmail confirms the account behind a verification link. Verifying an
// already-verified account is reported via ErrAlreadyVerified so the handler
// can phrase it as information rather than failure.
func (s *AccountService) VerifyEmail(ctx context.Context, email, token string) error {
	if email == "" || token == "" {
		return errors.New("Invalid verification link.")
	}
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errors.New("User not found.")
		}
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	switch err := s.tokens.Validate(user.ID, domain.PurposeEmailVerification, token); {
	case errors.Is(err, ErrTokenExpired):
		return errors.New("Verification token has expired. Please request a new verification email.")
	case errors.Is(err, ErrTokenInvalid):
		return errors.New("Invalid verification token.")
	case err != nil:
		return err
	}

	user.EmailVerified = true
	if err := s.users.Update(user); err != nil {
		return errors.New("Failed to verify email. Please try again.")
	}
	if err := s.tokens.Consume(user.ID, domain.PurposeEmailVerification); err != nil {
		slog.WarnContext(ctx, "verification token cleanup failed", "user_id", user.ID, "error", err)
	}
	s.audit.Log(ctx, "Email Verification",
		WithActor(strconv.FormatUint(uint64(user.ID), 10)),
		WithDescription(fmt.Sprintf("Email '%s' verified.", user.Email)),
	)
	return nil
}

// ResendVerification issues a fresh verification token, invalidating any
// previous one, and emails it.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("Email address is required.")
	}
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errors.New("User not found.")
		}
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return errors.New("Failed to resend verification email. Please try again.")
	}
	s.audit.Log(ctx, "Email Verification Resent",
		WithActor(strconv.FormatUint(uint64(user.ID), 10)),
		WithDescription(fmt.Sprintf("Verification email resent to '%s'.", user.Email)),
	)
	return nil
}

// ForgotPassword runs the rate-limited reset flow: issue a token, build the
// signed reset link, shorten it, and email the short link. A send failure is
// audited but still reported to the caller as sent.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if d := s.limiter.Check(ctx, email); !d.Allowed {
		return &RateLimitedError{Message: d.Message, RetryAfter: d.RetryAfter}
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Unknown addresses still consume rate limit budget.
			s.limiter.Record(ctx, email)
			return ErrResetUnknownEmail
		}
		return err
	}

	token, err := s.tokens.Issue(user.ID, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	link := s.resetLink(user.Email, token)
	if short, err := s.shortener.Create(ctx, link, "password_reset"); err == nil {
		link = fmt.Sprintf("%s/s/%s", s.baseURL, short.ShortCode)
	} else {
		slog.WarnContext(ctx, "short link creation failed, sending full link", "error", err)
	}

	if err := s.email.SendPasswordReset(ctx, user.Email, link); err != nil {
		s.audit.Log(ctx, "Password Reset Email Failed",
			WithActor(strconv.FormatUint(uint64(user.ID), 10)),
			WithDescription(fmt.Sprintf("Password reset email to '%s' failed: %v", user.Email, err)),
		)
		return nil
	}

	s.limiter.Record(ctx, email)
	s.audit.Log(ctx, "Password Reset Request",
		WithActor(strconv.FormatUint(uint64(user.ID), 10)),
		WithDescription(fmt.Sprintf("Password reset requested for '%s'.", user.Email)),
	)
	return nil
}

// ResetPassword completes the flow from the emailed link. The same-password
// check runs before token validation so the user learns about it even with a
// stale link open.
func (s *AccountService) ResetPassword(ctx context.Context, email, encodedToken, newPassword string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errors.New("Invalid request. Please try again.")
		}
		return err
	}
	if encodedToken == "" {
		return errors.New("Invalid reset token. Please request a new password reset.")
	}
	raw, err := base64.URLEncoding.DecodeString(encodedToken)
	if err != nil {
		return ErrResetTokenInvalid
	}

	if security.VerifyPassword(user.PasswordHash, newPassword) {
		return ErrSamePassword
	}

	if err := s.tokens.Validate(user.ID, domain.PurposePasswordReset, string(raw)); err != nil {
		if errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrTokenExpired) {
			s.audit.Log(ctx, "Password Reset Failed",
				WithActor(strconv.FormatUint(uint64(user.ID), 10)),
				WithDescription(fmt.Sprintf("Password reset for '%s' rejected: %v", user.Email, err)),
			)
			return ErrResetTokenInvalid
		}
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(user); err != nil {
		return err
	}
	if err := s.tokens.Consume(user.ID, domain.PurposePasswordReset); err != nil {
		slog.WarnContext(ctx, "reset token cleanup failed", "user_id", user.ID, "error", err)
	}

	s.audit.Log(ctx, "Password Reset Completed",
		WithActor(strconv.FormatUint(uint64(user.ID), 10)),
		WithDescription(fmt.Sprintf("Password successfully reset for user '%s'.", user.Email)),
	)
	return nil
}

// EmailExists backs the availability probe on the registration form.
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, string) {
	if strings.TrimSpace(email) == "" {
		return false, "Email is required"
	}
	_, err := s.users.FindByEmail(email)
	if err == nil {
		return true, "This email is already registered"
	}
	return false, "Email is available"
}

// FindUser loads a user by id, for the guard's sliding-session refresh and
// the handlers.
func (s *AccountService) FindUser(id uint) (*domain.User, error) {
	return s.users.FindByID(id)
}

func (s *AccountService) sendVerification(ctx context.Context, user *domain.User) error {
	token, err := s.tokens.Issue(user.ID, domain.PurposeEmailVerification)
	if err != nil {
		return err
	}
	return s.email.SendVerification(ctx, user.Email, token)
}

func (s *AccountService) resetLink(email, token string) string {
	return fmt.Sprintf("%s/account/change-password?email=%s&token=%s",
		s.baseURL,
		url.QueryEscape(email),
		base64.URLEncoding.EncodeToString([]byte(token)))
}
