// Package worker turns incident events into emails to the reporter.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"incident-reporting-system/pkg/mailer"
	"incident-reporting-system/services/incident-service/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notification_events_processed_total",
	Help: "Incident events consumed, by outcome",
}, []string{"outcome"})

var errMalformed = errors.New("malformed incident event")

type MailSender interface {
	Send(email mailer.Email) error
}

type Worker struct {
	mail MailSender
	log  zerolog.Logger
}

func New(mail MailSender, log zerolog.Logger) *Worker {
	return &Worker{mail: mail, log: log}
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.log.Warn().Msg("delivery channel closed")
				return
			}
			w.process(d)
		}
	}
}

// process acks malformed and delivered messages and drops the ones whose
// email could not be sent.
func (w *Worker) process(d amqp.Delivery) {
	err := w.Handle(d.Body)
	switch {
	case err == nil:
		eventsProcessed.WithLabelValues("sent").Inc()
		w.ack(d)
	case errors.Is(err, errMalformed):
		eventsProcessed.WithLabelValues("malformed").Inc()
		w.log.Warn().Err(err).Msg("discarding incident event")
		w.ack(d)
	default:
		eventsProcessed.WithLabelValues("failed").Inc()
		w.log.Error().Err(err).Msg("failed to notify reporter")
		if err := d.Nack(false, false); err != nil {
			w.log.Error().Err(err).Msg("failed to nack message")
		}
	}
}

func (w *Worker) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		w.log.Error().Err(err).Msg("failed to ack message")
	}
}

// Handle decodes one event and emails its reporter.
func (w *Worker) Handle(body []byte) error {
	var event models.IncidentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if event.IncidentID == "" || strings.TrimSpace(event.ReporterEmail) == "" {
		return fmt.Errorf("%w: missing incident_id or reporter_email", errMalformed)
	}

	if err := w.mail.Send(compose(event)); err != nil {
		return fmt.Errorf("failed to send notification for %s: %w", event.IncidentID, err)
	}
	w.log.Info().Str("incident_id", event.IncidentID).Str("type", event.Type).Msg("reporter notified")
	return nil
}

func compose(event models.IncidentEvent) mailer.Email {
	var subject, lead string
	switch event.Type {
	case models.EventIncidentCreated:
		subject = fmt.Sprintf("Incident %s reported", event.IncidentID)
		lead = "Your incident has been recorded."
	default:
		subject = fmt.Sprintf("Incident %s updated", event.IncidentID)
		lead = "Your incident has been updated."
	}

	body := fmt.Sprintf("%s\n\nIncident ID: %s\nStatus: %s\nPriority: %s\n",
		lead, event.IncidentID, event.Status, event.Priority)
	return mailer.Email{
		To:      []string{event.ReporterEmail},
		Subject: subject,
		Body:    body,
	}
}
