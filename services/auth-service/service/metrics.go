package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	usersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_users_registered_total",
		Help: "Accounts created through registration",
	})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	resetEmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_password_reset_emails_total",
		Help: "Password reset emails dispatched",
	})

	passwordResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_password_resets_total",
		Help: "Password reset confirmations by outcome",
	}, []string{"outcome"})
)
