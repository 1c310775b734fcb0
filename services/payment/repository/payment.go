package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tutoring/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) domain.PaymentRepo {
	return &paymentRepository{
		db: db,
	}
}

func (pr *paymentRepository) FindGroupConfig(ctx context.Context, groupID uuid.UUID) (*domain.GroupPaymentConfig, error) {
	var group domain.Group
	err := pr.db.WithContext(ctx).Where("group_id = ? AND deleted_at IS NULL", groupID).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("could not fetch group %s: %w", groupID, err)
	}
	return group.PaymentConfig(), nil
}

func (pr *paymentRepository) UpdateGroupConfig(ctx context.Context, groupID uuid.UUID, update domain.GroupConfigUpdate) error {
	fields := map[string]interface{}{}
	if update.SessionFee != nil {
		fields["session_fee"] = *update.SessionFee
	}
	if update.MonthlyFee != nil {
		fields["monthly_fee"] = *update.MonthlyFee
	}
	if update.PaymentThreshold != nil {
		fields["payment_threshold"] = *update.PaymentThreshold
	}
	if len(fields) == 0 {
		return nil
	}

	res := pr.db.WithContext(ctx).Model(&domain.Group{}).
		Where("group_id = ? AND deleted_at IS NULL", groupID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("could not update group %s: %w", groupID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func (pr *paymentRepository) CountAttendance(ctx context.Context, studentID, groupID uuid.UUID, status domain.AttendanceStatus) (int, error) {
	var count int64
	err := pr.db.WithContext(ctx).Model(&domain.Attendance{}).
		Joins("JOIN sessions ON sessions.session_id = attendances.session_id").
		Where("attendances.student_id = ? AND sessions.group_id = ? AND attendances.status = ?", studentID, groupID, string(status)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("could not count attendance: %w", err)
	}
	return int(count), nil
}

func (pr *paymentRepository) FindPayments(ctx context.Context, studentID, groupID uuid.UUID, statuses ...domain.PaymentStatus) ([]domain.Payment, error) {
	var payments []domain.Payment
	query := pr.db.WithContext(ctx).Where("student_id = ? AND group_id = ?", studentID, groupID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statusStrings(statuses))
	}
	if err := query.Order("due_date ASC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("could not fetch payments: %w", err)
	}
	return payments, nil
}

func (pr *paymentRepository) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	var payment domain.Payment
	err := pr.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("could not fetch payment %s: %w", paymentID, err)
	}
	return &payment, nil
}

func (pr *paymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	if err := pr.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrActivePaymentExists
		}
		return fmt.Errorf("could not create payment: %w", err)
	}
	return nil
}

func (pr *paymentRepository) TransitionPayment(ctx context.Context, paymentID uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus, at time.Time) (bool, error) {
	fields := map[string]interface{}{
		"status":     string(to),
		"updated_at": at,
	}
	if to == domain.PaymentPaid {
		fields["paid_date"] = at
	}

	res := pr.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("payment_id = ? AND status IN ?", paymentID, statusStrings(from)).
		Updates(fields)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, domain.ErrActivePaymentExists
		}
		return false, fmt.Errorf("could not update payment %s: %w", paymentID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (pr *paymentRepository) FindActiveStudentIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := pr.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("group_id = ? AND is_active = ?", groupID, true).
		Order("enrolled_at ASC").
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("could not fetch students of group %s: %w", groupID, err)
	}
	return ids, nil
}

func (pr *paymentRepository) FindStalePendingPayments(ctx context.Context, dueBefore time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := pr.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", string(domain.PaymentPending), dueBefore).
		Order("due_date ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("could not fetch stale payments: %w", err)
	}
	return payments, nil
}

func statusStrings(statuses []domain.PaymentStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// isUniqueViolation recognises duplicate-key errors from either postgres driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
