package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"incident-reporting-system/pkg/apperror"
	"incident-reporting-system/pkg/mailer"
	"incident-reporting-system/pkg/security"
	"incident-reporting-system/pkg/validation"
	"incident-reporting-system/services/auth-service/models"
	"incident-reporting-system/services/auth-service/repository"
	"incident-reporting-system/services/auth-service/utils"

	"github.com/rs/zerolog"
)

const (
	msgUnknownEmail   = "No user is associated with this email address."
	msgInvalidReset   = "Invalid token or user ID."
	msgResetMismatch  = "Passwords do not match."
	resetEmailSubject = "Password Reset Request"
	resetLinkFormat   = "%s/reset-password/?uid=%s&token=%s"
)

type ConfirmResetInput struct {
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type PasswordReset struct {
	users     UserStore
	tokens    *utils.TokenIssuer
	mail      MailSender
	validator *validation.Validator
	log       zerolog.Logger
}

func NewPasswordReset(users UserStore, tokens *utils.TokenIssuer, mail MailSender, v *validation.Validator, log zerolog.Logger) *PasswordReset {
	return &PasswordReset{users: users, tokens: tokens, mail: mail, validator: v, log: log}
}

// RequestReset emails a reset link to the account owner. baseURL is the
// scheme and host the link points at, e.g. "https://incidents.example".
func (p *PasswordReset) RequestReset(ctx context.Context, email, baseURL string) error {
	email = strings.TrimSpace(email)
	if fields := p.validator.Struct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); fields != nil {
		return apperror.Validation(fields)
	}

	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ValidationField("email", msgUnknownEmail)
		}
		return apperror.Internal("Failed to process request", err)
	}

	link, err := p.ResetLink(user, baseURL)
	if err != nil {
		return apperror.Internal("Failed to generate token", err)
	}

	if err := p.mail.Send(mailer.Email{
		To:      []string{user.Email},
		Subject: resetEmailSubject,
		Body:    link,
	}); err != nil {
		return apperror.Internal("Failed to send password reset email", err)
	}

	resetEmailsSent.Inc()
	p.log.Info().Uint("user_id", user.ID).Msg("password reset email sent")
	return nil
}

// ResetLink builds the link embedded in the reset email.
func (p *PasswordReset) ResetLink(user *models.User, baseURL string) (string, error) {
	token, err := p.tokens.ResetToken(user.ID, user.Password)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(resetLinkFormat, strings.TrimRight(baseURL, "/"), security.EncodeUID(user.ID), token), nil
}

// ConfirmReset replaces the password when uid and token check out against
// the user's current password hash.
func (p *PasswordReset) ConfirmReset(ctx context.Context, uid, token string, in ConfirmResetInput) error {
	if fields := p.validator.Struct(in); fields != nil {
		return apperror.Validation(fields)
	}
	if in.NewPassword != in.ConfirmPassword {
		return apperror.ValidationField("non_field_errors", msgResetMismatch)
	}

	invalid := apperror.ValidationField("error", msgInvalidReset)

	id, err := security.DecodeUID(uid)
	if err != nil {
		passwordResets.WithLabelValues("invalid").Inc()
		return invalid
	}
	user, err := p.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			passwordResets.WithLabelValues("invalid").Inc()
			return invalid
		}
		return apperror.Internal("Failed to process request", err)
	}

	if problems := validation.GeneralPasswordProblems(in.NewPassword, user.Email); len(problems) > 0 {
		return apperror.ValidationField("new_password", strings.Join(problems, " "))
	}

	if err := p.tokens.VerifyResetToken(token, user.ID, user.Password); err != nil {
		passwordResets.WithLabelValues("invalid").Inc()
		return invalid
	}

	hash, err := security.HashPassword(in.NewPassword)
	if err != nil {
		return apperror.Internal("Failed to process request", err)
	}
	if err := p.users.SwapPassword(ctx, user.ID, user.Password, hash); err != nil {
		if errors.Is(err, repository.ErrStalePassword) {
			passwordResets.WithLabelValues("invalid").Inc()
			return invalid
		}
		return apperror.Internal("Failed to update password", err)
	}

	passwordResets.WithLabelValues("success").Inc()
	p.log.Info().Uint("user_id", user.ID).Msg("password reset")
	return nil
}
