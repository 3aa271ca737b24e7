package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/jobsetu/jobsetu-api/internal/dto"
	"github.com/jobsetu/jobsetu-api/internal/models"
	"github.com/jobsetu/jobsetu-api/internal/observability"
	"github.com/jobsetu/jobsetu-api/internal/repository"
	"github.com/jobsetu/jobsetu-api/pkg/mailer"
)

const (
	outboxBatchSize   = 20
	outboxMaxAttempts = 5
)

// OutboxDispatcher drains pending outbox events on an interval. Each event is
// delivered to the message broker, turned into an in-app notification, and
// mailed to the candidate. Failures are retried on the next tick up to a
// bounded attempt count; they never surface to the request that produced the
// event.
type OutboxDispatcher struct {
	outbox        repository.OutboxRepository
	notifications NotificationService
	nats          *nats.Conn
	subjectBase   string
	mailer        mailer.Mailer
	interval      time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewOutboxDispatcher constructs the dispatcher. The NATS connection may be
// nil; broker publishing is then skipped.
func NewOutboxDispatcher(outbox repository.OutboxRepository, notifications NotificationService, natsConn *nats.Conn, subjectBase string, mail mailer.Mailer, interval time.Duration, logger zerolog.Logger) *OutboxDispatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if subjectBase == "" {
		subjectBase = "jobsetu"
	}

	return &OutboxDispatcher{
		outbox:        outbox,
		notifications: notifications,
		nats:          natsConn,
		subjectBase:   subjectBase,
		mailer:        mail,
		interval:      interval,
		logger:        logger.With().Str("component", "outbox_dispatcher").Logger(),
		now:           time.Now,
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (d *OutboxDispatcher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.DispatchPending(ctx)
			}
		}
	}()
}

// DispatchPending processes one batch of pending events. Exported so tests
// and manual sweeps can drive the dispatcher without the ticker.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) {
	events, err := d.outbox.ListPending(ctx, outboxBatchSize)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to list pending outbox events")
		return
	}

	for _, event := range events {
		if err := d.deliver(ctx, event); err != nil {
			d.logger.Warn().Err(err).Str("event_id", event.EventID).Msg("outbox delivery failed")
			observability.OutboxDeliveries().WithLabelValues("failed").Inc()
			if markErr := d.outbox.MarkAttemptFailed(ctx, event.ID, err.Error(), outboxMaxAttempts); markErr != nil {
				d.logger.Error().Err(markErr).Str("event_id", event.EventID).Msg("failed to record outbox failure")
			}
			continue
		}

		observability.OutboxDeliveries().WithLabelValues("delivered").Inc()
		if err := d.outbox.MarkDelivered(ctx, event.ID, d.now()); err != nil {
			d.logger.Error().Err(err).Str("event_id", event.EventID).Msg("failed to mark outbox event delivered")
		}
	}
}

func (d *OutboxDispatcher) deliver(ctx context.Context, event models.OutboxEvent) error {
	if err := d.publish(event); err != nil {
		return err
	}

	switch event.Type {
	case models.EventApplicationCreated:
		return d.deliverApplicationCreated(ctx, event)
	case models.EventCreditsPurchased:
		return d.deliverCreditsPurchased(ctx, event)
	default:
		d.logger.Warn().Str("type", event.Type).Msg("unknown outbox event type, broker publish only")
		return nil
	}
}

func (d *OutboxDispatcher) publish(event models.OutboxEvent) error {
	if d.nats == nil {
		return nil
	}

	subject := fmt.Sprintf("%s.%s", d.subjectBase, event.Type)
	if err := d.nats.Publish(subject, event.Payload); err != nil {
		return fmt.Errorf("nats publish failed: %w", err)
	}

	return nil
}

func (d *OutboxDispatcher) deliverApplicationCreated(ctx context.Context, event models.OutboxEvent) error {
	var payload ApplicationEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("invalid application event payload: %w", err)
	}

	if _, err := d.notifications.Create(ctx, dto.NotificationCreateRequest{
		UserID:  fmt.Sprintf("employer:%d", payload.EmployerID),
		Type:    models.EventApplicationCreated,
		Message: fmt.Sprintf("%s applied to %s", payload.CandidateName, payload.JobTitle),
	}); err != nil {
		return fmt.Errorf("failed to create employer notification: %w", err)
	}

	if payload.CandidateEmail != "" {
		subject := fmt.Sprintf("Application received for %s", payload.JobTitle)
		body := fmt.Sprintf("Hi %s,\n\nYour application for %s has been submitted successfully.\n", payload.CandidateName, payload.JobTitle)
		if err := d.mailer.Send(ctx, payload.CandidateEmail, subject, body); err != nil {
			return fmt.Errorf("failed to mail candidate: %w", err)
		}
	}

	return nil
}

func (d *OutboxDispatcher) deliverCreditsPurchased(ctx context.Context, event models.OutboxEvent) error {
	var payload struct {
		CandidateEmail string `json:"candidate_email"`
		CandidateName  string `json:"candidate_name"`
		Credits        int    `json:"credits"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("invalid credits event payload: %w", err)
	}

	if payload.CandidateEmail == "" {
		return nil
	}

	subject := "Credits added to your account"
	body := fmt.Sprintf("Hi %s,\n\n%d application credits were added to your account.\n", payload.CandidateName, payload.Credits)
	if err := d.mailer.Send(ctx, payload.CandidateEmail, subject, body); err != nil {
		return fmt.Errorf("failed to mail candidate: %w", err)
	}

	return nil
}
