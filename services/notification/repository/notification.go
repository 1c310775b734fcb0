package repository

import (
	"context"
	"fmt"
	"tutoring/domain"

	"gorm.io/gorm"
)

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) domain.NotificationRepo {
	return &notificationRepo{
		db: db,
	}
}

func (np *notificationRepo) GetAllReminderHistory(ctx context.Context) (*[]domain.PaymentReminderHistory, error) {
	var histories []domain.PaymentReminderHistory

	if err := np.db.WithContext(ctx).
		Preload("Student").
		Preload("Parent").
		Preload("Payment").
		Order("created_at DESC").
		Find(&histories).Error; err != nil {
		return nil, fmt.Errorf("could not get reminder history: %w", err)
	}

	return &histories, nil
}
