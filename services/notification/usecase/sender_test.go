package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
	"tutoring/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deadlineSender struct {
	deadline time.Time
	hasDL    bool
	err      error
}

func (d *deadlineSender) SendOverdueReminder(ctx context.Context, payment domain.Payment) error {
	d.deadline, d.hasDL = ctx.Deadline()
	return d.err
}

func TestSenderUseCaseBoundsEachReminder(t *testing.T) {
	repo := &deadlineSender{}
	uc := NewSenderUseCase(repo, 2*time.Second)

	before := time.Now()
	require.NoError(t, uc.SendOverdueReminder(context.Background(), domain.Payment{PaymentID: uuid.New()}))
	require.True(t, repo.hasDL)
	assert.WithinDuration(t, before.Add(2*time.Second), repo.deadline, time.Second)

	repo.err = errors.New("smtp down")
	assert.EqualError(t, uc.SendOverdueReminder(context.Background(), domain.Payment{}), "smtp down")
}

type stubNotificationRepo struct {
	data *[]domain.PaymentReminderHistory
	err  error
}

func (s *stubNotificationRepo) GetAllReminderHistory(ctx context.Context) (*[]domain.PaymentReminderHistory, error) {
	return s.data, s.err
}

func TestGetAllReminderHistory(t *testing.T) {
	histories := []domain.PaymentReminderHistory{{ReminderHistoryID: 1, EmailStatus: true}}
	uc := NewNotificationUseCase(&stubNotificationRepo{data: &histories}, time.Second)

	got, err := uc.GetAllReminderHistory(context.Background())
	require.NoError(t, err)
	assert.Len(t, *got, 1)

	uc = NewNotificationUseCase(&stubNotificationRepo{err: errors.New("boom")}, time.Second)
	_, err = uc.GetAllReminderHistory(context.Background())
	assert.Error(t, err)
}
