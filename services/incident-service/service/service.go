// Package service implements the incident lifecycle, identifier allocation
// and evidence attachments.
package service

import (
	"context"
	"io"
	"time"

	"incident-reporting-system/pkg/storage"
	"incident-reporting-system/services/incident-service/models"
	"incident-reporting-system/services/incident-service/repository"
)

const (
	singleTimeout = 5 * time.Second
	listTimeout   = 10 * time.Second
)

// Store is satisfied by repository.GormStore and repository.MongoStore.
type Store interface {
	Create(ctx context.Context, inc *models.Incident) error
	FindOwned(ctx context.Context, id, reporterID string) (*models.Incident, error)
	FindOwnedByIncidentID(ctx context.Context, incidentID, reporterID string) (*models.Incident, error)
	ListByReporter(ctx context.Context, reporterID string, status models.Status) ([]models.Incident, error)
	UpdateOpen(ctx context.Context, id, reporterID string, changes repository.Changes, now time.Time) (*models.Incident, error)
	ExistsByIncidentID(ctx context.Context, incidentID string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Requester is the authenticated caller.
type Requester struct {
	ID    string
	Email string
}
