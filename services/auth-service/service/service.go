// Package service holds the identity operations of the auth service:
// registration, login and the emailed password-reset flow.
package service

import (
	"context"

	"incident-reporting-system/pkg/mailer"
	"incident-reporting-system/services/auth-service/models"
)

type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindWithProfile(ctx context.Context, id uint) (*models.User, error)
	SwapPassword(ctx context.Context, id uint, oldHash, newHash string) error
}

type MailSender interface {
	Send(email mailer.Email) error
}
