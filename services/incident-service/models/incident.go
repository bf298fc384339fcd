package models

import (
	"time"
)

type OrganizationType string

const (
	OrganizationEnterprise OrganizationType = "Enterprise"
	OrganizationGovernment OrganizationType = "Government"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In progress"
	StatusClosed     Status = "Closed"
)

// Incident is shared by the mongo and postgres stores, hence both tag sets.
type Incident struct {
	ID               string           `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	OrganizationType OrganizationType `gorm:"size:15;not null" bson:"organization_type" json:"organization_type"`
	IncidentID       string           `gorm:"size:15;uniqueIndex;not null" bson:"incident_id" json:"incident_id"`
	ReporterID       string           `gorm:"size:64;index;not null" bson:"reporter_id" json:"reporter_id"`
	Reporter         string           `gorm:"size:254" bson:"reporter" json:"reporter"`
	IncidentDetails  string           `gorm:"type:text;not null" bson:"incident_details" json:"incident_details"`
	Priority         Priority         `gorm:"size:10;not null" bson:"priority" json:"priority"`
	Status           Status           `gorm:"size:15;not null" bson:"status" json:"status"`
	ReportedAt       time.Time        `gorm:"not null" bson:"reported_at" json:"reported_at"`
	UpdatedAt        time.Time        `bson:"updated_at" json:"updated_at"`
}

const (
	EventIncidentCreated = "incident.created"
	EventIncidentUpdated = "incident.updated"
)

// IncidentEvent is the message published to the incident events queue.
type IncidentEvent struct {
	Type          string    `json:"type"`
	ID            string    `json:"id"`
	IncidentID    string    `json:"incident_id"`
	ReporterID    string    `json:"reporter_id"`
	ReporterEmail string    `json:"reporter_email"`
	Status        Status    `json:"status"`
	Priority      Priority  `json:"priority"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewEvent(eventType string, inc *Incident, at time.Time) IncidentEvent {
	return IncidentEvent{
		Type:          eventType,
		ID:            inc.ID,
		IncidentID:    inc.IncidentID,
		ReporterID:    inc.ReporterID,
		ReporterEmail: inc.Reporter,
		Status:        inc.Status,
		Priority:      inc.Priority,
		OccurredAt:    at,
	}
}
