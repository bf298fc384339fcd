// Package repository stores incidents in postgres (gorm) or mongo. Every
// read and write below is scoped to the owning reporter.
package repository

import (
	"errors"
	"time"

	"incident-reporting-system/services/incident-service/models"
)

var (
	ErrNotFound            = errors.New("incident not found")
	ErrClosed              = errors.New("incident is closed")
	ErrDuplicateIncidentID = errors.New("incident id already taken")
)

// Changes holds a partial update; nil fields are left alone.
type Changes struct {
	IncidentDetails *string
	Priority        *models.Priority
	Status          *models.Status
}

func (c Changes) Empty() bool {
	return c.IncidentDetails == nil && c.Priority == nil && c.Status == nil
}

func (c Changes) fields(now time.Time) map[string]interface{} {
	fields := map[string]interface{}{"updated_at": now}
	if c.IncidentDetails != nil {
		fields["incident_details"] = *c.IncidentDetails
	}
	if c.Priority != nil {
		fields["priority"] = string(*c.Priority)
	}
	if c.Status != nil {
		fields["status"] = string(*c.Status)
	}
	return fields
}
