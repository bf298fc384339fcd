package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"incident-reporting-system/pkg/apperror"
	"incident-reporting-system/pkg/validation"
	"incident-reporting-system/services/incident-service/models"
	"incident-reporting-system/services/incident-service/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxIDAttempts = 5

	msgIncidentNotFound = "Incident not found or you do not have permission to view this incident."
	msgIncidentClosed   = "You cannot edit a closed incident."
)

var ErrIDSpaceExhausted = errors.New("could not allocate a free incident id")

type CreateInput struct {
	OrganizationType string `json:"organization_type" validate:"required,oneof=Enterprise Government"`
	IncidentDetails  string `json:"incident_details" validate:"notblank"`
	Priority         string `json:"priority" validate:"required,oneof=High Medium Low"`
}

// UpdateInput is a partial edit; absent fields keep their stored value.
type UpdateInput struct {
	IncidentDetails *string `json:"incident_details" validate:"omitempty,notblank"`
	Priority        *string `json:"priority" validate:"omitempty,oneof=High Medium Low"`
	Status          *string `json:"status" validate:"omitempty,oneof=Open 'In progress' Closed"`
}

type Incidents struct {
	store     Store
	ids       *IDGenerator
	events    EventPublisher
	validator *validation.Validator
	now       func() time.Time
	log       zerolog.Logger
}

func NewIncidents(store Store, ids *IDGenerator, events EventPublisher, v *validation.Validator, log zerolog.Logger) *Incidents {
	return &Incidents{store: store, ids: ids, events: events, validator: v, now: time.Now, log: log}
}

// Create files a new Open incident owned by the requester.
func (s *Incidents) Create(ctx context.Context, requester Requester, in CreateInput) (*models.Incident, error) {
	if fields := s.validator.Struct(in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	now := s.now().UTC()
	inc := &models.Incident{
		ID:               uuid.NewString(),
		OrganizationType: models.OrganizationType(in.OrganizationType),
		ReporterID:       requester.ID,
		Reporter:         requester.Email,
		IncidentDetails:  in.IncidentDetails,
		Priority:         models.Priority(in.Priority),
		Status:           models.StatusOpen,
		ReportedAt:       now,
		UpdatedAt:        now,
	}

	for attempt := 1; ; attempt++ {
		incidentID, err := s.ids.Generate(ctx)
		if err != nil {
			return nil, apperror.Internal("Failed to generate incident id", err)
		}
		inc.IncidentID = incidentID

		err = s.store.Create(ctx, inc)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateIncidentID) {
			return nil, apperror.Internal("Failed to save incident", err)
		}

		incidentIDCollisions.Inc()
		s.log.Warn().Str("incident_id", incidentID).Int("attempt", attempt).Msg("incident id taken at insert, regenerating")
		if attempt == maxIDAttempts {
			return nil, apperror.Internal("Failed to save incident", ErrIDSpaceExhausted)
		}
	}

	incidentsCreated.WithLabelValues(string(inc.Priority)).Inc()
	s.log.Info().Str("incident_id", inc.IncidentID).Str("reporter_id", inc.ReporterID).Msg("incident created")
	s.publish(ctx, models.EventIncidentCreated, inc)
	return inc, nil
}

func (s *Incidents) Get(ctx context.Context, requester Requester, id string) (*models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	inc, err := s.store.FindOwned(ctx, id, requester.ID)
	if err != nil {
		return nil, notFoundOr(err, "Failed to fetch incident")
	}
	return inc, nil
}

// List returns the requester's incidents, optionally narrowed to one status.
func (s *Incidents) List(ctx context.Context, requester Requester, status string) ([]models.Incident, error) {
	if status != "" {
		if fields := s.validator.Struct(struct {
			Status string `json:"status" validate:"oneof=Open 'In progress' Closed"`
		}{status}); fields != nil {
			return nil, apperror.Validation(fields)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	incidents, err := s.store.ListByReporter(ctx, requester.ID, models.Status(status))
	if err != nil {
		return nil, apperror.Internal("Failed to fetch incidents", err)
	}
	return incidents, nil
}

// Update edits details, priority or status of an incident that is not Closed.
func (s *Incidents) Update(ctx context.Context, requester Requester, id string, in UpdateInput) (*models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	current, err := s.editable(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if fields := s.validator.Struct(in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	var changes repository.Changes
	changes.IncidentDetails = in.IncidentDetails
	if in.Priority != nil {
		p := models.Priority(*in.Priority)
		changes.Priority = &p
	}
	if in.Status != nil {
		st := models.Status(*in.Status)
		changes.Status = &st
	}
	if changes.Empty() {
		return current, nil
	}

	inc, err := s.store.UpdateOpen(ctx, id, requester.ID, changes, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrClosed) {
			return nil, apperror.InvalidOperation(msgIncidentClosed)
		}
		return nil, notFoundOr(err, "Failed to update incident")
	}

	incidentsUpdated.WithLabelValues(string(inc.Status)).Inc()
	s.log.Info().Str("incident_id", inc.IncidentID).Str("status", string(inc.Status)).Msg("incident updated")
	s.publish(ctx, models.EventIncidentUpdated, inc)
	return inc, nil
}

// CheckEditable reports NotFound for a foreign or missing incident and
// InvalidOperation for a Closed one, without reading any payload.
func (s *Incidents) CheckEditable(ctx context.Context, requester Requester, id string) error {
	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	_, err := s.editable(ctx, requester, id)
	return err
}

func (s *Incidents) editable(ctx context.Context, requester Requester, id string) (*models.Incident, error) {
	inc, err := s.store.FindOwned(ctx, id, requester.ID)
	if err != nil {
		return nil, notFoundOr(err, "Failed to fetch incident")
	}
	if inc.Status == models.StatusClosed {
		return nil, apperror.InvalidOperation(msgIncidentClosed)
	}
	return inc, nil
}

// Search looks an incident up by its human-readable id.
func (s *Incidents) Search(ctx context.Context, requester Requester, incidentID string) (*models.Incident, error) {
	incidentID = strings.TrimSpace(incidentID)
	if incidentID == "" {
		return nil, apperror.ValidationField("error", "incident_id query parameter is required.")
	}

	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	inc, err := s.store.FindOwnedByIncidentID(ctx, incidentID, requester.ID)
	if err != nil {
		return nil, notFoundOr(err, "Failed to fetch incident")
	}
	return inc, nil
}

// publish never fails the caller; the incident is already stored.
func (s *Incidents) publish(ctx context.Context, eventType string, inc *models.Incident) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, models.NewEvent(eventType, inc, s.now().UTC())); err != nil {
		eventPublishFailures.Inc()
		s.log.Warn().Err(err).Str("incident_id", inc.IncidentID).Msg("incident saved but failed to publish event")
	}
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(msgIncidentNotFound)
	}
	return apperror.Internal(msg, err)
}
