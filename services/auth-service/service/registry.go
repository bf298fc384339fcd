package service

import (
	"context"
	"errors"
	"strings"

	"incident-reporting-system/pkg/apperror"
	"incident-reporting-system/pkg/security"
	"incident-reporting-system/pkg/validation"
	"incident-reporting-system/services/auth-service/models"
	"incident-reporting-system/services/auth-service/repository"

	"github.com/rs/zerolog"
)

const (
	msgPasswordMismatch = "Password fields didn't match."
	msgEmailExists      = "A user with this email already exists."
	msgInvalidMobile    = "Invalid mobile number."
)

type ProfileInput struct {
	UserType     string  `json:"user_type" validate:"required,oneof=Individual Enterprises Government"`
	Address      string  `json:"address" validate:"notblank"`
	Country      string  `json:"country" validate:"notblank,max=100"`
	State        string  `json:"state" validate:"notblank,max=100"`
	City         string  `json:"city" validate:"notblank,max=100"`
	Pincode      string  `json:"pincode" validate:"notblank,max=10"`
	MobileNumber string  `json:"mobile_number" validate:"notblank,max=15"`
	ISDCode      string  `json:"isd_code" validate:"notblank,max=5"`
	Fax          *string `json:"fax" validate:"omitempty,max=15"`
}

type RegisterInput struct {
	FirstName       string        `json:"first_name" validate:"notblank,max=150"`
	LastName        string        `json:"last_name" validate:"max=150"`
	Email           string        `json:"email" validate:"required,email,max=254"`
	Password        string        `json:"password" validate:"required,strong_password"`
	ConfirmPassword string        `json:"confirm_password" validate:"required"`
	Profile         *ProfileInput `json:"profile" validate:"required"`
}

type Registry struct {
	users     UserStore
	validator *validation.Validator
	log       zerolog.Logger
}

func NewRegistry(users UserStore, v *validation.Validator, log zerolog.Logger) *Registry {
	return &Registry{users: users, validator: v, log: log}
}

// Register validates the whole input before writing anything, then creates
// the user and profile atomically.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)

	if fields := r.validator.Struct(in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	fields := map[string]string{}
	if in.Password != in.ConfirmPassword {
		fields["password"] = msgPasswordMismatch
	}
	exists, err := r.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperror.Internal("Failed to process registration", err)
	}
	if exists {
		fields["email"] = msgEmailExists
	}
	if !validation.IsValidMobile(in.Profile.MobileNumber, in.Profile.ISDCode) {
		fields["mobile_number"] = msgInvalidMobile
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal("Failed to process registration", err)
	}

	user := &models.User{
		Username:  in.Email,
		Email:     in.Email,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	p := in.Profile
	profile := &models.Profile{
		UserType:     models.UserType(p.UserType),
		Address:      p.Address,
		Country:      p.Country,
		State:        p.State,
		City:         p.City,
		Pincode:      p.Pincode,
		ISDCode:      p.ISDCode,
		MobileNumber: p.MobileNumber,
		Fax:          p.Fax,
	}

	if err := r.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			r.log.Warn().Msg("concurrent registration with existing email")
			return nil, apperror.ValidationField("email", msgEmailExists)
		}
		return nil, apperror.Internal("Failed to save user", err)
	}

	usersRegistered.Inc()
	r.log.Info().Uint("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Me returns the caller's identity with the attached profile.
func (r *Registry) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := r.users.FindWithProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Internal("Failed to load user", err)
	}
	return user, nil
}
