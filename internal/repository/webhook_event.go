package repository

import (
	"context"
	"time"

	"checkout-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	InsertIfAbsent(ctx context.Context, eventID, eventType string) (bool, error)
}

type webhookEventRepoImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepoImpl{db: db}
}

// InsertIfAbsent records the event id, reporting false when the gateway has
// already delivered it. The conditional insert makes the check race-safe
// against concurrent redeliveries.
func (r *webhookEventRepoImpl) InsertIfAbsent(ctx context.Context, eventID, eventType string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WebhookEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}
