// Package handlers exposes the incident service over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"incident-reporting-system/pkg/middleware"
	"incident-reporting-system/pkg/response"
	"incident-reporting-system/services/incident-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const multipartMemory = 8 << 20

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	incidents   *service.Incidents
	attachments *service.Attachments
	deps        map[string]Pinger
	secret      []byte
	log         zerolog.Logger
}

// New wires the handler; deps are probed by /health under their map key.
func New(incidents *service.Incidents, attachments *service.Attachments, deps map[string]Pinger, secret []byte, log zerolog.Logger) *Handler {
	return &Handler{incidents: incidents, attachments: attachments, deps: deps, secret: secret, log: log}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(h.log))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.LoggerMiddleware(h.log))

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(h.secret))

		r.Get("/api/incident/", withRequester(h.list))
		r.Post("/api/incident/", withRequester(h.create))
		r.Get("/api/incidents/search/", withRequester(h.search))
		r.Get("/api/incidents/{id}/", withRequester(h.get))
		r.Put("/api/incidents/{id}/", withRequester(h.update))
		r.Post("/api/incidents/{id}/attachments/", withRequester(h.uploadAttachment))
		r.Get("/api/incidents/{id}/attachments/", withRequester(h.listAttachments))
	})

	r.Get("/health", h.health)
	r.Handle("/metrics", middleware.GetMetricsHandler())
	return r
}

func requester(r *http.Request) (service.Requester, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return service.Requester{}, false
	}
	return service.Requester{ID: claims.UserID, Email: claims.Email}, true
}

// withRequester resolves the caller before running fn.
func withRequester(fn func(w http.ResponseWriter, r *http.Request, who service.Requester)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, ok := requester(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		fn(w, r, who)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, who service.Requester) {
	incidents, err := h.incidents.List(r.Context(), who, r.URL.Query().Get("status"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Successfully Fetched", incidents)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, who service.Requester) {
	var input service.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	inc, err := h.incidents.Create(r.Context(), who, input)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusCreated, "Successfully Created", inc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, who service.Requester) {
	inc, err := h.incidents.Get(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Successfully Fetched", inc)
}

// update answers 201 on success; existing clients depend on it.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, who service.Requester) {
	id := chi.URLParam(r, "id")
	var input service.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		// A Closed incident answers the same way whatever the body holds.
		if err := h.incidents.CheckEditable(r.Context(), who, id); err != nil {
			response.FromError(w, h.log, err)
			return
		}
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	inc, err := h.incidents.Update(r.Context(), who, id, input)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusCreated, "Successfully Updated", inc)
}

// search answers 201 on success, like update.
func (h *Handler) search(w http.ResponseWriter, r *http.Request, who service.Requester) {
	inc, err := h.incidents.Search(r.Context(), who, r.URL.Query().Get("incident_id"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusCreated, "Successfully item searched", inc)
}

func (h *Handler) uploadAttachment(w http.ResponseWriter, r *http.Request, who service.Requester) {
	r.Body = http.MaxBytesReader(w, r.Body, h.attachments.MaxSize()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.ValidationError(w, map[string]string{"file": "File is too large."})
			return
		}
		response.Error(w, http.StatusBadRequest, "Invalid multipart payload", "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.ValidationError(w, map[string]string{"file": "No file was submitted."})
		return
	}
	defer file.Close()

	att, err := h.attachments.Add(r.Context(), who, chi.URLParam(r, "id"), service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusCreated, "Attachment uploaded", att)
}

func (h *Handler) listAttachments(w http.ResponseWriter, r *http.Request, who service.Requester) {
	atts, err := h.attachments.List(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Success(w, http.StatusOK, "Successfully Fetched", atts)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":  "UP",
		"service": "incident-service",
	}
	status := http.StatusOK
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			health[name] = "disconnected"
			health["status"] = "DOWN"
			status = http.StatusServiceUnavailable
			continue
		}
		health[name] = "connected"
	}
	response.JSON(w, status, health)
}
