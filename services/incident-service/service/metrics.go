package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	incidentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incidents_created_total",
		Help: "Incidents reported, by priority",
	}, []string{"priority"})

	incidentsUpdated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incidents_updated_total",
		Help: "Incident edits, by resulting status",
	}, []string{"status"})

	incidentIDCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "incident_id_collisions_total",
		Help: "Inserts rejected because the generated incident id was taken",
	})

	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "incident_event_publish_failures_total",
		Help: "Incident events that could not be published",
	})

	attachmentsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "incident_attachments_uploaded_total",
		Help: "Evidence files stored",
	})
)
