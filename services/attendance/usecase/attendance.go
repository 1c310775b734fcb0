package usecase

import (
	"context"
	"fmt"
	"time"
	"tutoring/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type attendanceUC struct {
	repo     domain.AttendanceRepo
	payments domain.PaymentUseCase
	log      *logrus.Logger
	TimeOut  time.Duration
}

func NewAttendanceUseCase(repo domain.AttendanceRepo, payments domain.PaymentUseCase, log *logrus.Logger, timeOut time.Duration) domain.AttendanceUseCase {
	return &attendanceUC{
		repo:     repo,
		payments: payments,
		log:      log,
		TimeOut:  timeOut,
	}
}

func (auc *attendanceUC) CreateSession(ctx context.Context, groupID uuid.UUID, sessionDate time.Time) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, auc.TimeOut)
	defer cancel()

	if _, err := auc.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	if sessionDate.IsZero() {
		sessionDate = time.Now()
	}
	session := &domain.Session{
		GroupID:     groupID,
		SessionDate: sessionDate,
	}
	if err := auc.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RecordAttendance replaces the attendance of a session, then lets the
// payment cycle catch up for the whole group. Every student must be actively
// enrolled in the session's group. A failed refresh does not undo the
// attendance.
func (auc *attendanceUC) RecordAttendance(ctx context.Context, sessionID uuid.UUID, records []domain.Attendance) error {
	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.StudentID]; dup {
			return fmt.Errorf("%w: student %s listed twice", domain.ErrInvalidAttendance, r.StudentID)
		}
		seen[r.StudentID] = struct{}{}
		if r.Status != domain.AttendancePresent && r.Status != domain.AttendanceAbsent {
			return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidAttendance, r.Status)
		}
	}

	writeCtx, cancel := context.WithTimeout(ctx, auc.TimeOut)
	defer cancel()

	session, err := auc.repo.GetSession(writeCtx, sessionID)
	if err != nil {
		return err
	}

	enrolled, err := auc.repo.FindActiveStudentIDs(writeCtx, session.GroupID)
	if err != nil {
		return err
	}
	active := make(map[uuid.UUID]struct{}, len(enrolled))
	for _, id := range enrolled {
		active[id] = struct{}{}
	}
	for _, r := range records {
		if _, ok := active[r.StudentID]; !ok {
			return fmt.Errorf("%w: student %s is not enrolled in group %s", domain.ErrInvalidAttendance, r.StudentID, session.GroupID)
		}
	}

	if err := auc.repo.ReplaceSessionAttendance(writeCtx, sessionID, records); err != nil {
		return err
	}

	created, err := auc.payments.RefreshGroupPaymentStatuses(ctx, session.GroupID)
	if err != nil {
		auc.log.WithError(err).WithField("group_id", session.GroupID.String()).Warn("Payment refresh after attendance failed")
		return nil
	}
	auc.log.WithFields(logrus.Fields{
		"session_id": sessionID.String(),
		"group_id":   session.GroupID.String(),
		"records":    len(records),
		"created":    created,
	}).Info("Attendance recorded")
	return nil
}

func (auc *attendanceUC) EnrollStudent(ctx context.Context, groupID, studentID uuid.UUID) error {
	writeCtx, cancel := context.WithTimeout(ctx, auc.TimeOut)
	defer cancel()

	group, err := auc.repo.GetGroup(writeCtx, groupID)
	if err != nil {
		return err
	}

	if err := auc.repo.UpsertEnrollment(writeCtx, &domain.Enrollment{
		GroupID:   groupID,
		StudentID: studentID,
		IsActive:  true,
	}); err != nil {
		return err
	}

	if err := auc.payments.EnsureInitialPendingPayment(ctx, studentID, groupID, group.TeacherID); err != nil {
		return fmt.Errorf("student enrolled but initial payment failed: %w", err)
	}
	return nil
}
