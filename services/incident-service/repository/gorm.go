package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"incident-reporting-system/pkg/database"
	"incident-reporting-system/services/incident-service/models"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func MigrateGorm(db *gorm.DB) error {
	return db.AutoMigrate(&models.Incident{})
}

func (s *GormStore) Create(ctx context.Context, inc *models.Incident) error {
	if err := s.db.WithContext(ctx).Create(inc).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return ErrDuplicateIncidentID
		}
		return fmt.Errorf("failed to insert incident: %w", err)
	}
	return nil
}

func (s *GormStore) FindOwned(ctx context.Context, id, reporterID string) (*models.Incident, error) {
	return s.findOne(ctx, "id = ? AND reporter_id = ?", id, reporterID)
}

func (s *GormStore) FindOwnedByIncidentID(ctx context.Context, incidentID, reporterID string) (*models.Incident, error) {
	return s.findOne(ctx, "incident_id = ? AND reporter_id = ?", incidentID, reporterID)
}

func (s *GormStore) findOne(ctx context.Context, query string, args ...interface{}) (*models.Incident, error) {
	var inc models.Incident
	if err := s.db.WithContext(ctx).Where(query, args...).First(&inc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load incident: %w", err)
	}
	return &inc, nil
}

func (s *GormStore) ListByReporter(ctx context.Context, reporterID string, status models.Status) ([]models.Incident, error) {
	q := s.db.WithContext(ctx).Where("reporter_id = ?", reporterID)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}

	incidents := []models.Incident{}
	if err := q.Order("reported_at").Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	return incidents, nil
}

// UpdateOpen applies changes only while the stored status is not Closed.
func (s *GormStore) UpdateOpen(ctx context.Context, id, reporterID string, changes Changes, now time.Time) (*models.Incident, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Incident{}).
		Where("id = ? AND reporter_id = ? AND status <> ?", id, reporterID, string(models.StatusClosed)).
		Updates(changes.fields(now))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update incident: %w", res.Error)
	}

	inc, err := s.FindOwned(ctx, id, reporterID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 && inc.Status == models.StatusClosed {
		return nil, ErrClosed
	}
	return inc, nil
}

func (s *GormStore) ExistsByIncidentID(ctx context.Context, incidentID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Incident{}).Where("incident_id = ?", incidentID).Limit(1).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check incident id: %w", err)
	}
	return n > 0, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
