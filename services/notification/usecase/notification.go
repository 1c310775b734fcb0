package usecase

import (
	"context"
	"time"
	"tutoring/domain"
)

type notificationUC struct {
	repo    domain.NotificationRepo
	TimeOut time.Duration
}

func NewNotificationUseCase(repo domain.NotificationRepo, timeOut time.Duration) domain.NotificationUseCase {
	return &notificationUC{
		repo:    repo,
		TimeOut: timeOut,
	}
}

func (nuc *notificationUC) GetAllReminderHistory(ctx context.Context) (*[]domain.PaymentReminderHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, nuc.TimeOut)
	defer cancel()

	datas, err := nuc.repo.GetAllReminderHistory(ctx)
	if err != nil {
		return nil, err
	}
	return datas, nil
}
