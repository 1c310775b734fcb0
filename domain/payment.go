package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound            = errors.New("group not found")
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrActivePaymentExists      = errors.New("an active payment already exists for this student and group")
	ErrInvalidPaymentTransition = errors.New("payment status does not allow this transition")
	ErrInvalidGroupConfig       = errors.New("invalid group payment configuration")
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentOverdue   PaymentStatus = "OVERDUE"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// ActivePaymentStatuses are the statuses that still expect money.
var ActivePaymentStatuses = []PaymentStatus{PaymentPending, PaymentOverdue}

type CycleStatus string

const (
	CycleUpToDate CycleStatus = "A_JOUR"
	CyclePending  CycleStatus = "EN_ATTENTE"
	CycleOverdue  CycleStatus = "EN_RETARD"
)

type Payment struct {
	PaymentID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"payment_id"`
	StudentID uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_student_group" json:"student_id"`
	Student   Student         `gorm:"foreignKey:StudentID;references:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	GroupID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_student_group" json:"group_id"`
	Group     Group           `gorm:"foreignKey:GroupID;references:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TeacherID int             `gorm:"not null" json:"teacher_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"amount"`
	Status    PaymentStatus   `gorm:"type:payment_status_enum;not null;index" json:"status"`
	DueDate   time.Time       `gorm:"not null;index" json:"due_date"`
	PaidDate  *time.Time      `json:"paid_date"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}

// IsStale reports whether a pending payment is more than grace past its due date.
func (p *Payment) IsStale(now time.Time, grace time.Duration) bool {
	return p.Status == PaymentPending && now.Sub(p.DueDate) > grace
}

type PaymentCycleResult struct {
	StudentID            uuid.UUID       `json:"student_id"`
	GroupID              uuid.UUID       `json:"group_id"`
	AttendedSessions     int             `json:"attended_sessions"`
	CompletedCycles      int             `json:"completed_cycles"`
	TotalSessionsInCycle int             `json:"total_sessions_in_cycle"`
	PaymentThreshold     int             `json:"payment_threshold"`
	SessionFee           decimal.Decimal `json:"session_fee"`
	CurrentStatus        CycleStatus     `json:"current_status"`
	AmountDue            decimal.Decimal `json:"amount_due"`
	NextDueDate          *time.Time      `json:"next_due_date"`
	Configured           bool            `json:"configured"`
}

type EnsurePaymentRequest struct {
	StudentID string `json:"student_id" valid:"required~Student ID is required,uuid~Student ID must be a UUID"`
	GroupID   string `json:"group_id" valid:"required~Group ID is required,uuid~Group ID must be a UUID"`
	TeacherID int    `json:"teacher_id" valid:"required~Teacher ID is required"`
}

type MarkPaidRequest struct {
	PaidDate *time.Time `json:"paid_date"`
}

type PaymentRepo interface {
	FindGroupConfig(ctx context.Context, groupID uuid.UUID) (*GroupPaymentConfig, error)
	UpdateGroupConfig(ctx context.Context, groupID uuid.UUID, update GroupConfigUpdate) error
	CountAttendance(ctx context.Context, studentID, groupID uuid.UUID, status AttendanceStatus) (int, error)
	// FindPayments returns every payment of the pair when no status is given.
	FindPayments(ctx context.Context, studentID, groupID uuid.UUID, statuses ...PaymentStatus) ([]Payment, error)
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*Payment, error)
	CreatePayment(ctx context.Context, payment *Payment) error
	// TransitionPayment moves a payment to status `to` only if its current
	// status is one of `from`. It reports whether a row changed.
	TransitionPayment(ctx context.Context, paymentID uuid.UUID, from []PaymentStatus, to PaymentStatus, at time.Time) (bool, error)
	FindActiveStudentIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	FindStalePendingPayments(ctx context.Context, dueBefore time.Time) ([]Payment, error)
}

type PaymentUseCase interface {
	ComputeStatus(ctx context.Context, studentID, groupID uuid.UUID) (*PaymentCycleResult, error)
	CalculateStatus(ctx context.Context, studentID, groupID uuid.UUID) (*PaymentCycleResult, error)
	EnsurePendingPayment(ctx context.Context, studentID, groupID uuid.UUID, teacherID int) (bool, error)
	EnsureInitialPendingPayment(ctx context.Context, studentID, groupID uuid.UUID, teacherID int) error
	RefreshGroupPaymentStatuses(ctx context.Context, groupID uuid.UUID) (int, error)
	PromoteStaleReminders(ctx context.Context) (int, error)
	GroupSummary(ctx context.Context, groupID uuid.UUID) ([]PaymentCycleResult, error)
	MarkPaymentPaid(ctx context.Context, paymentID uuid.UUID, paidAt time.Time) error
	CancelPayment(ctx context.Context, paymentID uuid.UUID) error
	UpdateGroupConfig(ctx context.Context, groupID uuid.UUID, update GroupConfigUpdate) error
}
