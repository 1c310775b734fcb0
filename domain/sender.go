package domain

import "context"

// ReminderSender notifies a student's parent that a payment went overdue.
type ReminderSender interface {
	SendOverdueReminder(ctx context.Context, payment Payment) error
}
