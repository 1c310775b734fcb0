package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tutoring/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	day = 24 * time.Hour

	// amounts are stored as numeric(12,3)
	moneyPlaces = 3
)

type paymentUC struct {
	repo     domain.PaymentRepo
	reminder domain.ReminderSender
	log      *logrus.Logger
	TimeOut  time.Duration
	now      func() time.Time
	dueIn    time.Duration
	grace    time.Duration
	locks    *keyLock
}

// Option configures the payment usecase.
type Option func(*paymentUC)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(uc *paymentUC) { uc.now = now }
}

// WithDueDays sets how far in the future a new payment falls due.
func WithDueDays(days int) Option {
	return func(uc *paymentUC) {
		if days > 0 {
			uc.dueIn = time.Duration(days) * day
		}
	}
}

// WithGraceDays sets how long past its due date a pending payment may stay
// unpaid before it counts as overdue.
func WithGraceDays(days int) Option {
	return func(uc *paymentUC) {
		if days >= 0 {
			uc.grace = time.Duration(days) * day
		}
	}
}

// WithReminderSender sets who is told about payments turning overdue.
func WithReminderSender(sender domain.ReminderSender) Option {
	return func(uc *paymentUC) { uc.reminder = sender }
}

func NewPaymentUseCase(repo domain.PaymentRepo, log *logrus.Logger, timeOut time.Duration, opts ...Option) domain.PaymentUseCase {
	uc := &paymentUC{
		repo:    repo,
		log:     log,
		TimeOut: timeOut,
		now:     time.Now,
		dueIn:   30 * day,
		grace:   30 * day,
		locks:   newKeyLock(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// cycleState is everything the status rules need for one student in one group.
type cycleState struct {
	fee             decimal.Decimal
	threshold       int
	attended        int
	completedCycles int
	unpaid          int
	active          []domain.Payment
}

func pairKey(studentID, groupID uuid.UUID) string {
	return studentID.String() + ":" + groupID.String()
}

func (uc *paymentUC) fields(studentID, groupID uuid.UUID) logrus.Fields {
	return logrus.Fields{
		"student_id": studentID.String(),
		"group_id":   groupID.String(),
	}
}

// loadConfig returns the group config and effective fee, or nil when the group
// is missing or has no usable fee.
func (uc *paymentUC) loadConfig(ctx context.Context, groupID uuid.UUID) (*domain.GroupPaymentConfig, decimal.Decimal, error) {
	cfg, err := uc.repo.FindGroupConfig(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return nil, decimal.Zero, nil
		}
		return nil, decimal.Zero, err
	}

	fee, ok := cfg.EffectiveSessionFee()
	if !ok {
		return nil, decimal.Zero, nil
	}
	return cfg, fee, nil
}

func (uc *paymentUC) loadCycleState(ctx context.Context, studentID, groupID uuid.UUID) (*cycleState, error) {
	cfg, fee, err := uc.loadConfig(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		uc.log.WithFields(uc.fields(studentID, groupID)).Warn("Group has no usable payment configuration")
		return nil, nil
	}

	attended, err := uc.repo.CountAttendance(ctx, studentID, groupID, domain.AttendancePresent)
	if err != nil {
		return nil, err
	}

	paid, err := uc.repo.FindPayments(ctx, studentID, groupID, domain.PaymentPaid)
	if err != nil {
		return nil, err
	}

	active, err := uc.repo.FindPayments(ctx, studentID, groupID, domain.ActivePaymentStatuses...)
	if err != nil {
		return nil, err
	}

	st := &cycleState{
		fee:             fee,
		threshold:       cfg.Threshold(),
		attended:        attended,
		completedCycles: len(paid),
		active:          active,
	}

	paidSessions := st.completedCycles * st.threshold
	st.unpaid = attended - paidSessions
	if st.unpaid < 0 {
		uc.log.WithFields(uc.fields(studentID, groupID)).WithFields(logrus.Fields{
			"attended":      attended,
			"paid_sessions": paidSessions,
		}).Warn("More sessions paid than attended, clamping unpaid sessions to zero")
		st.unpaid = 0
	}

	return st, nil
}

func (uc *paymentUC) neutralResult(studentID, groupID uuid.UUID) *domain.PaymentCycleResult {
	return &domain.PaymentCycleResult{
		StudentID:     studentID,
		GroupID:       groupID,
		CurrentStatus: domain.CycleUpToDate,
		AmountDue:     decimal.Zero,
		SessionFee:    decimal.Zero,
		Configured:    false,
	}
}

// evaluate applies the status rules. It also returns the pending payments
// that are past their grace period when they decided an EN_RETARD status.
func (uc *paymentUC) evaluate(studentID, groupID uuid.UUID, st *cycleState, now time.Time) (*domain.PaymentCycleResult, []domain.Payment) {
	res := &domain.PaymentCycleResult{
		StudentID:            studentID,
		GroupID:              groupID,
		AttendedSessions:     st.attended,
		CompletedCycles:      st.completedCycles,
		TotalSessionsInCycle: st.unpaid,
		PaymentThreshold:     st.threshold,
		SessionFee:           st.fee.Round(moneyPlaces),
		Configured:           true,
	}

	var stale []domain.Payment
	switch {
	case st.unpaid == 0:
		res.CurrentStatus = domain.CycleUpToDate
	case st.unpaid >= st.threshold:
		res.CurrentStatus = domain.CyclePending
		if hasStatus(st.active, domain.PaymentOverdue) {
			res.CurrentStatus = domain.CycleOverdue
			break
		}
		for _, p := range st.active {
			if p.IsStale(now, uc.grace) {
				stale = append(stale, p)
			}
		}
		if len(stale) > 0 {
			res.CurrentStatus = domain.CycleOverdue
		}
	default:
		res.CurrentStatus = domain.CyclePending
	}

	pendingSum := decimal.Zero
	for _, p := range st.active {
		pendingSum = pendingSum.Add(p.Amount)
	}
	switch {
	case pendingSum.IsPositive():
		res.AmountDue = pendingSum
	case st.unpaid > 0:
		res.AmountDue = st.fee.Mul(decimal.NewFromInt(int64(st.unpaid))).Round(moneyPlaces)
	default:
		res.AmountDue = decimal.Zero
	}

	if earliest := earliestDue(st.active); earliest != nil {
		res.NextDueDate = earliest
	} else if st.unpaid >= st.threshold {
		due := now.Add(uc.dueIn)
		res.NextDueDate = &due
	}

	return res, stale
}

func hasStatus(payments []domain.Payment, status domain.PaymentStatus) bool {
	for _, p := range payments {
		if p.Status == status {
			return true
		}
	}
	return false
}

func earliestDue(payments []domain.Payment) *time.Time {
	var earliest *time.Time
	for i := range payments {
		due := payments[i].DueDate
		if earliest == nil || due.Before(*earliest) {
			earliest = &due
		}
	}
	return earliest
}

// ComputeStatus reports the payment cycle of a student without writing anything.
func (uc *paymentUC) ComputeStatus(ctx context.Context, studentID, groupID uuid.UUID) (*domain.PaymentCycleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.TimeOut)
	defer cancel()

	st, err := uc.loadCycleState(ctx, studentID, groupID)
	if err != nil {
		return nil, fmt.Errorf("compute payment status: %w", err)
	}
	if st == nil {
		return uc.neutralResult(studentID, groupID), nil
	}

	res, _ := uc.evaluate(studentID, groupID, st, uc.now())
	return res, nil
}

// CalculateStatus is ComputeStatus followed by promoting the stale pending
// payments that made the student EN_RETARD.
func (uc *paymentUC) CalculateStatus(ctx context.Context, studentID, groupID uuid.UUID) (*domain.PaymentCycleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.TimeOut)
	defer cancel()

	st, err := uc.loadCycleState(ctx, studentID, groupID)
	if err != nil {
		return nil, fmt.Errorf("calculate payment status: %w", err)
	}
	if st == nil {
		return uc.neutralResult(studentID, groupID), nil
	}

	now := uc.now()
	res, stale := uc.evaluate(studentID, groupID, st, now)
	for _, p := range stale {
		if _, err := uc.promote(ctx, p, now); err != nil {
			return nil, fmt.Errorf("calculate payment status: %w", err)
		}
	}
	return res, nil
}

func (uc *paymentUC) promote(ctx context.Context, p domain.Payment, now time.Time) (bool, error) {
	ok, err := uc.repo.TransitionPayment(ctx, p.PaymentID, []domain.PaymentStatus{domain.PaymentPending}, domain.PaymentOverdue, now)
	if err != nil || !ok {
		return false, err
	}

	p.Status = domain.PaymentOverdue
	uc.log.WithFields(uc.fields(p.StudentID, p.GroupID)).WithField("payment_id", p.PaymentID.String()).Info("Payment marked overdue")

	if uc.reminder != nil {
		if err := uc.reminder.SendOverdueReminder(ctx, p); err != nil {
			uc.log.WithError(err).WithField("payment_id", p.PaymentID.String()).Warn("Overdue reminder not delivered")
		}
	}
	return true, nil
}

func (uc *paymentUC) EnsurePendingPayment(ctx context.Context, studentID, groupID uuid.UUID, teacherID int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.TimeOut)
	defer cancel()

	unlock := uc.locks.Lock(pairKey(studentID, groupID))
	defer unlock()

	st, err := uc.loadCycleState(ctx, studentID, groupID)
	if err != nil {
		return false, fmt.Errorf("ensure pending payment: %w", err)
	}
	if st == nil || st.unpaid < st.threshold || len(st.active) > 0 {
		return false, nil
	}

	return uc.createCyclePayment(ctx, studentID, groupID, teacherID, st.fee, st.threshold)
}

func (uc *paymentUC) EnsureInitialPendingPayment(ctx context.Context, studentID, groupID uuid.UUID, teacherID int) error {
	ctx, cancel := context.WithTimeout(ctx, uc.TimeOut)
	defer cancel()

	unlock := uc.locks.Lock(pairKey(studentID, groupID))
	defer unlock()

	cfg, fee, err := uc.loadConfig(ctx, groupID)
	if err != nil {
		return fmt.Errorf("ensure initial payment: %w", err)
	}
	if cfg == nil {
		return nil
	}

	existing, err := uc.repo.FindPayments(ctx, studentID, groupID)
	if err != nil {
		return fmt.Errorf("ensure initial payment: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	if _, err := uc.createCyclePayment(ctx, studentID, groupID, teacherID, fee, cfg.Threshold()); err != nil {
		return fmt.Errorf("ensure initial payment: %w", err)
	}
	return nil
}

// createCyclePayment bills one full cycle. Losing a race against another
// writer is reported as not created.
func (uc *paymentUC) createCyclePayment(ctx context.Context, studentID, groupID uuid.UUID, teacherID int, fee decimal.Decimal, threshold int) (bool, error) {
	payment := &domain.Payment{
		StudentID: studentID,
		GroupID:   groupID,
		TeacherID: teacherID,
		Amount:    fee.Mul(decimal.NewFromInt(int64(threshold))).Round(moneyPlaces),
		Status:    domain.PaymentPending,
		DueDate:   uc.now().Add(uc.dueIn),
	}

	if err := uc.repo.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrActivePaymentExists) {
			return false, nil
		}
		return false, err
	}

	uc.log.WithFields(uc.fields(studentID, groupID)).WithFields(logrus.Fields{
		"payment_id": payment.PaymentID.String(),
		"amount":     payment.Amount.StringFixed(3),
	}).Info("Pending payment created")
	return true, nil
}

// RefreshGroupPaymentStatuses runs EnsurePendingPayment for every active
// student of the group. A failing student is logged and skipped.
func (uc *paymentUC) RefreshGroupPaymentStatuses(ctx context.Context, groupID uuid.UUID) (int, error) {
	cfg, err := uc.repo.FindGroupConfig(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("refresh group payments: %w", err)
	}

	studentIDs, err := uc.repo.FindActiveStudentIDs(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("refresh group payments: %w", err)
	}

	created := 0
	for _, studentID := range studentIDs {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		ok, err := uc.EnsurePendingPayment(ctx, studentID, groupID, cfg.TeacherID)
		if err != nil {
			uc.log.WithError(err).WithFields(uc.fields(studentID, groupID)).Warn("Payment refresh failed for student")
			continue
		}
		if ok {
			created++
		}
	}

	return created, nil
}

// PromoteStaleReminders marks every pending payment past its grace period as
// overdue and sends the matching reminder.
func (uc *paymentUC) PromoteStaleReminders(ctx context.Context) (int, error) {
	now := uc.now()
	stale, err := uc.repo.FindStalePendingPayments(ctx, now.Add(-uc.grace))
	if err != nil {
		return 0, fmt.Errorf("promote stale payments: %w", err)
	}

	promoted := 0
	for _, p := range stale {
		if err := ctx.Err(); err != nil {
			return promoted, err
		}

		ok, err := uc.promote(ctx, p, now)
		if err != nil {
			uc.log.WithError(err).WithField("payment_id", p.PaymentID.String()).Warn("Could not mark payment overdue")
			continue
		}
		if ok {
			promoted++
		}
	}

	return promoted, nil
}

func (uc *paymentUC) GroupSummary(ctx context.Context, groupID uuid.UUID) ([]domain.PaymentCycleResult, error) {
	if _, err := uc.repo.FindGroupConfig(ctx, groupID); err != nil {
		return nil, fmt.Errorf("group summary: %w", err)
	}

	studentIDs, err := uc.repo.FindActiveStudentIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group summary: %w", err)
	}

	results := make([]domain.PaymentCycleResult, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		res, err := uc.ComputeStatus(ctx, studentID, groupID)
		if err != nil {
			uc.log.WithError(err).WithFields(uc.fields(studentID, groupID)).Warn("Payment status unavailable for student")
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func (uc *paymentUC) MarkPaymentPaid(ctx context.Context, paymentID uuid.UUID, paidAt time.Time) error {
	if paidAt.IsZero() {
		paidAt = uc.now()
	}
	return uc.closePayment(ctx, paymentID, domain.PaymentPaid, paidAt)
}

func (uc *paymentUC) CancelPayment(ctx context.Context, paymentID uuid.UUID) error {
	return uc.closePayment(ctx, paymentID, domain.PaymentCancelled, uc.now())
}

func (uc *paymentUC) closePayment(ctx context.Context, paymentID uuid.UUID, to domain.PaymentStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, uc.TimeOut)
	defer cancel()

	payment, err := uc.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	ok, err := uc.repo.TransitionPayment(ctx, paymentID, domain.ActivePaymentStatuses, to, at)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidPaymentTransition, payment.Status, to)
	}

	uc.log.WithFields(uc.fields(payment.StudentID, payment.GroupID)).WithFields(logrus.Fields{
		"payment_id": paymentID.String(),
		"status":     string(to),
	}).Info("Payment closed")
	return nil
}

func (uc *paymentUC) UpdateGroupConfig(ctx context.Context, groupID uuid.UUID, update domain.GroupConfigUpdate) error {
	if update.SessionFee != nil && update.SessionFee.IsNegative() {
		return fmt.Errorf("%w: session fee must not be negative", domain.ErrInvalidGroupConfig)
	}
	if update.MonthlyFee != nil && update.MonthlyFee.IsNegative() {
		return fmt.Errorf("%w: monthly fee must not be negative", domain.ErrInvalidGroupConfig)
	}
	if update.PaymentThreshold != nil && *update.PaymentThreshold < 1 {
		return fmt.Errorf("%w: payment threshold must be at least 1", domain.ErrInvalidGroupConfig)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.TimeOut)
	defer cancel()

	return uc.repo.UpdateGroupConfig(ctx, groupID, update)
}
