// Package handlers exposes the auth service over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"incident-reporting-system/pkg/middleware"
	"incident-reporting-system/pkg/response"
	"incident-reporting-system/services/auth-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Pinger reports whether the user database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	registry      *service.Registry
	auth          *service.Authenticator
	reset         *service.PasswordReset
	db            Pinger
	secret        []byte
	publicBaseURL string
	log           zerolog.Logger
}

type Options struct {
	Registry      *service.Registry
	Authenticator *service.Authenticator
	PasswordReset *service.PasswordReset
	DB            Pinger
	JWTSecret     []byte
	// PublicBaseURL overrides the scheme and host used in reset links.
	PublicBaseURL string
	Logger        zerolog.Logger
}

func New(opts Options) *Handler {
	return &Handler{
		registry:      opts.Registry,
		auth:          opts.Authenticator,
		reset:         opts.PasswordReset,
		db:            opts.DB,
		secret:        opts.JWTSecret,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		log:           opts.Logger,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(h.log))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.LoggerMiddleware(h.log))

	r.Post("/api/register/", h.register)
	r.Post("/api/login/", h.login)
	r.Post("/api/token/refresh/", h.refresh)
	r.With(middleware.AuthMiddleware(h.secret)).Get("/api/me/", h.me)
	r.Post("/forgot-password/", h.forgotPassword)
	r.Post("/reset-password/", h.resetPassword)

	r.Get("/health", h.health)
	r.Handle("/metrics", middleware.GetMetricsHandler())
	return r
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.LoggerFromContext(r.Context()).Warn().Err(err).Msg("invalid request payload")
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return false
	}
	return true
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !h.decode(w, r, &input) {
		return
	}

	user, err := h.registry.Register(r.Context(), input)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusCreated, "User registered successfully", user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &input) {
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(input.Email) == "" {
		fields["email"] = "This field is required."
	}
	if input.Password == "" {
		fields["password"] = "This field is required."
	}
	if len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	pair, err := h.auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Login successful", pair)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Refresh string `json:"refresh"`
	}
	if !h.decode(w, r, &input) {
		return
	}
	if input.Refresh == "" {
		response.ValidationError(w, map[string]string{"refresh": "This field is required."})
		return
	}

	access, err := h.auth.Refresh(r.Context(), input.Refresh)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Token refreshed", map[string]string{"access": access})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve user context", "")
		return
	}
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "Invalid or expired token", "")
		return
	}

	user, err := h.registry.Me(r.Context(), uint(id))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "User profile fetched", user)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if !h.decode(w, r, &input) {
		return
	}

	if err := h.reset.RequestReset(r.Context(), input.Email, h.baseURL(r)); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Password reset email has been sent.", nil)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var input service.ConfirmResetInput
	if !h.decode(w, r, &input) {
		return
	}

	q := r.URL.Query()
	if err := h.reset.ConfirmReset(r.Context(), q.Get("uid"), q.Get("token"), input); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Password has been reset successfully.", nil)
}

// baseURL is where reset links point: PUBLIC_BASE_URL when configured,
// otherwise the scheme and host the request arrived on.
func (h *Handler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.SplitN(proto, ",", 2)[0])
	}
	return scheme + "://" + r.Host
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":   "UP",
		"service":  "auth-service",
		"database": "connected",
	}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		health["status"] = "DOWN"
		health["database"] = "disconnected"
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, health)
}
