package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jobsetu/jobsetu-api/internal/models"
)

// OutboxRepository manages the transactional outbox consumed by the
// background dispatcher.
type OutboxRepository interface {
	Create(ctx context.Context, event *models.OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkDelivered(ctx context.Context, id uint, at time.Time) error
	// MarkAttemptFailed records a delivery failure; once attempts reach
	// maxAttempts the event is parked as failed and no longer retried.
	MarkAttemptFailed(ctx context.Context, id uint, cause string, maxAttempts int) error
}

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository instantiates a GORM-backed repository.
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Create(ctx context.Context, event *models.OutboxEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var events []models.OutboxEvent
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.OutboxPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.OutboxDelivered,
			"delivered_at": at,
		}).Error
}

func (r *outboxRepository) MarkAttemptFailed(ctx context.Context, id uint, cause string, maxAttempts int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.OutboxEvent
		if err := tx.First(&event, id).Error; err != nil {
			return err
		}

		event.Attempts++
		event.LastError = cause
		if event.Attempts >= maxAttempts {
			event.Status = models.OutboxFailed
		}

		return tx.Save(&event).Error
	})
}
