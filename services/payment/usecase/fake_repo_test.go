package usecase

import (
	"context"
	"sort"
	"sync"
	"time"
	"tutoring/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type pair struct {
	student uuid.UUID
	group   uuid.UUID
}

// fakePaymentRepo is an in-memory domain.PaymentRepo.
type fakePaymentRepo struct {
	mu          sync.RWMutex
	groups      map[uuid.UUID]*domain.GroupPaymentConfig
	attendance  map[pair]int
	payments    []domain.Payment
	enrollments map[uuid.UUID][]uuid.UUID
	countErr    map[uuid.UUID]error
	creates     int
	// racer, when set, inserts a competing active payment right before the
	// next CreatePayment, as a second writer would.
	racer func(payment domain.Payment) domain.Payment
}

var _ domain.PaymentRepo = (*fakePaymentRepo)(nil)

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		groups:      make(map[uuid.UUID]*domain.GroupPaymentConfig),
		attendance:  make(map[pair]int),
		enrollments: make(map[uuid.UUID][]uuid.UUID),
		countErr:    make(map[uuid.UUID]error),
	}
}

func (f *fakePaymentRepo) FindGroupConfig(ctx context.Context, groupID uuid.UUID) (*domain.GroupPaymentConfig, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cfg, ok := f.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (f *fakePaymentRepo) UpdateGroupConfig(ctx context.Context, groupID uuid.UUID, update domain.GroupConfigUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if update.SessionFee != nil {
		fee := *update.SessionFee
		cfg.SessionFee = &fee
	}
	if update.MonthlyFee != nil {
		fee := *update.MonthlyFee
		cfg.MonthlyFee = &fee
	}
	if update.PaymentThreshold != nil {
		th := *update.PaymentThreshold
		cfg.PaymentThreshold = &th
	}
	return nil
}

func (f *fakePaymentRepo) CountAttendance(ctx context.Context, studentID, groupID uuid.UUID, status domain.AttendanceStatus) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err, ok := f.countErr[studentID]; ok {
		return 0, err
	}
	if status != domain.AttendancePresent {
		return 0, nil
	}
	return f.attendance[pair{studentID, groupID}], nil
}

func (f *fakePaymentRepo) FindPayments(ctx context.Context, studentID, groupID uuid.UUID, statuses ...domain.PaymentStatus) ([]domain.Payment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []domain.Payment
	for _, p := range f.payments {
		if p.StudentID != studentID || p.GroupID != groupID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, p.Status) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (f *fakePaymentRepo) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range f.payments {
		if p.PaymentID == paymentID {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (f *fakePaymentRepo) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	// Widen the read-then-write window so unserialized callers would collide.
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.racer != nil {
		f.payments = append(f.payments, f.racer(*payment))
		f.racer = nil
	}
	if containsStatus(domain.ActivePaymentStatuses, payment.Status) {
		for _, p := range f.payments {
			if p.StudentID == payment.StudentID && p.GroupID == payment.GroupID && containsStatus(domain.ActivePaymentStatuses, p.Status) {
				return domain.ErrActivePaymentExists
			}
		}
	}
	if payment.PaymentID == uuid.Nil {
		payment.PaymentID = uuid.New()
	}
	f.payments = append(f.payments, *payment)
	f.creates++
	return nil
}

func (f *fakePaymentRepo) TransitionPayment(ctx context.Context, paymentID uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		p := &f.payments[i]
		if p.PaymentID != paymentID {
			continue
		}
		if !containsStatus(from, p.Status) {
			return false, nil
		}
		p.Status = to
		p.UpdatedAt = at
		if to == domain.PaymentPaid {
			paid := at
			p.PaidDate = &paid
		}
		return true, nil
	}
	return false, nil
}

func (f *fakePaymentRepo) FindActiveStudentIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]uuid.UUID(nil), f.enrollments[groupID]...), nil
}

func (f *fakePaymentRepo) FindStalePendingPayments(ctx context.Context, dueBefore time.Time) ([]domain.Payment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []domain.Payment
	for _, p := range f.payments {
		if p.Status == domain.PaymentPending && p.DueDate.Before(dueBefore) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) addGroup(sessionFee, monthlyFee *decimal.Decimal, threshold *int) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.groups[id] = &domain.GroupPaymentConfig{
		GroupID:          id,
		TeacherID:        7,
		SessionFee:       sessionFee,
		MonthlyFee:       monthlyFee,
		PaymentThreshold: threshold,
	}
	return id
}

func (f *fakePaymentRepo) enroll(groupID uuid.UUID, attended int) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.enrollments[groupID] = append(f.enrollments[groupID], id)
	f.attendance[pair{id, groupID}] = attended
	return id
}

func (f *fakePaymentRepo) setAttendance(studentID, groupID uuid.UUID, attended int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attendance[pair{studentID, groupID}] = attended
}

func (f *fakePaymentRepo) addPayment(studentID, groupID uuid.UUID, status domain.PaymentStatus, amount int64, due time.Time) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.payments = append(f.payments, domain.Payment{
		PaymentID: id,
		StudentID: studentID,
		GroupID:   groupID,
		TeacherID: 7,
		Amount:    decimal.NewFromInt(amount),
		Status:    status,
		DueDate:   due,
	})
	return id
}

func (f *fakePaymentRepo) all(studentID, groupID uuid.UUID) []domain.Payment {
	out, _ := f.FindPayments(context.Background(), studentID, groupID)
	return out
}

func containsStatus(statuses []domain.PaymentStatus, s domain.PaymentStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type fakeReminderSender struct {
	mu   sync.Mutex
	sent []uuid.UUID
	err  error
}

func (f *fakeReminderSender) SendOverdueReminder(ctx context.Context, payment domain.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payment.PaymentID)
	return f.err
}
