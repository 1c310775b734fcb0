package usecase

import (
	"context"
	"time"
	"tutoring/domain"
)

type senderUC struct {
	senderRepo domain.ReminderSender
	TimeOut    time.Duration
}

// NewSenderUseCase bounds every reminder by timeOut so a slow SMTP or
// WhatsApp round trip cannot stall the overdue batch.
func NewSenderUseCase(repo domain.ReminderSender, timeOut time.Duration) domain.ReminderSender {
	return &senderUC{
		senderRepo: repo,
		TimeOut:    timeOut,
	}
}

func (suc *senderUC) SendOverdueReminder(ctx context.Context, payment domain.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, suc.TimeOut)
	defer cancel()

	return suc.senderRepo.SendOverdueReminder(ctx, payment)
}
