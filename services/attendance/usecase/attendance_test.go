package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
	"tutoring/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAttendanceRepo struct {
	groups      map[uuid.UUID]*domain.Group
	sessions    map[uuid.UUID]*domain.Session
	records     map[uuid.UUID][]domain.Attendance
	enrollments []domain.Enrollment
}

var _ domain.AttendanceRepo = (*memAttendanceRepo)(nil)

func newMemAttendanceRepo() *memAttendanceRepo {
	return &memAttendanceRepo{
		groups:   make(map[uuid.UUID]*domain.Group),
		sessions: make(map[uuid.UUID]*domain.Session),
		records:  make(map[uuid.UUID][]domain.Attendance),
	}
}

func (m *memAttendanceRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	session.SessionID = uuid.New()
	m.sessions[session.SessionID] = session
	return nil
}

func (m *memAttendanceRepo) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *memAttendanceRepo) ReplaceSessionAttendance(ctx context.Context, sessionID uuid.UUID, records []domain.Attendance) error {
	m.records[sessionID] = append([]domain.Attendance(nil), records...)
	return nil
}

func (m *memAttendanceRepo) UpsertEnrollment(ctx context.Context, enrollment *domain.Enrollment) error {
	m.enrollments = append(m.enrollments, *enrollment)
	return nil
}

func (m *memAttendanceRepo) FindActiveStudentIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, e := range m.enrollments {
		if e.GroupID == groupID && e.IsActive {
			ids = append(ids, e.StudentID)
		}
	}
	return ids, nil
}

func (m *memAttendanceRepo) enroll(groupID uuid.UUID, active bool) uuid.UUID {
	id := uuid.New()
	m.enrollments = append(m.enrollments, domain.Enrollment{GroupID: groupID, StudentID: id, IsActive: active})
	return id
}

func (m *memAttendanceRepo) GetGroup(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	g, ok := m.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return g, nil
}

// recordingPayments implements domain.PaymentUseCase for the calls attendance makes.
type recordingPayments struct {
	domain.PaymentUseCase
	refreshed  []uuid.UUID
	initial    []uuid.UUID
	teacherID  int
	refreshErr error
}

func (r *recordingPayments) RefreshGroupPaymentStatuses(ctx context.Context, groupID uuid.UUID) (int, error) {
	r.refreshed = append(r.refreshed, groupID)
	return 1, r.refreshErr
}

func (r *recordingPayments) EnsureInitialPendingPayment(ctx context.Context, studentID, groupID uuid.UUID, teacherID int) error {
	r.initial = append(r.initial, studentID)
	r.teacherID = teacherID
	return nil
}

func setup(t *testing.T) (*memAttendanceRepo, *recordingPayments, *test.Hook, domain.AttendanceUseCase) {
	t.Helper()
	repo := newMemAttendanceRepo()
	payments := &recordingPayments{}
	logger, hook := test.NewNullLogger()
	return repo, payments, hook, NewAttendanceUseCase(repo, payments, logger, time.Second)
}

func TestRecordAttendanceRefreshesGroup(t *testing.T) {
	repo, payments, _, uc := setup(t)
	groupID := uuid.New()
	repo.groups[groupID] = &domain.Group{GroupID: groupID, TeacherID: 3}

	session, err := uc.CreateSession(context.Background(), groupID, time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	records := []domain.Attendance{
		{StudentID: repo.enroll(groupID, true), Status: domain.AttendancePresent},
		{StudentID: repo.enroll(groupID, true), Status: domain.AttendanceAbsent},
	}
	require.NoError(t, uc.RecordAttendance(context.Background(), session.SessionID, records))
	assert.Len(t, repo.records[session.SessionID], 2)
	assert.Equal(t, []uuid.UUID{groupID}, payments.refreshed)
}

func TestRecordAttendanceKeepsRecordsWhenRefreshFails(t *testing.T) {
	repo, payments, hook, uc := setup(t)
	groupID := uuid.New()
	sessionID := uuid.New()
	repo.sessions[sessionID] = &domain.Session{SessionID: sessionID, GroupID: groupID}
	payments.refreshErr = errors.New("db gone")

	err := uc.RecordAttendance(context.Background(), sessionID, []domain.Attendance{{StudentID: repo.enroll(groupID, true), Status: domain.AttendancePresent}})
	require.NoError(t, err)
	assert.Len(t, repo.records[sessionID], 1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Payment refresh after attendance failed", hook.LastEntry().Message)
}

func TestRecordAttendanceRejectsBadInput(t *testing.T) {
	repo, payments, _, uc := setup(t)
	sessionID := uuid.New()
	repo.sessions[sessionID] = &domain.Session{SessionID: sessionID, GroupID: uuid.New()}
	studentID := uuid.New()

	err := uc.RecordAttendance(context.Background(), sessionID, []domain.Attendance{
		{StudentID: studentID, Status: domain.AttendancePresent},
		{StudentID: studentID, Status: domain.AttendanceAbsent},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAttendance)

	err = uc.RecordAttendance(context.Background(), sessionID, []domain.Attendance{{StudentID: studentID, Status: "LATE"}})
	assert.ErrorIs(t, err, domain.ErrInvalidAttendance)

	err = uc.RecordAttendance(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Empty(t, payments.refreshed)
}

func TestRecordAttendanceRejectsUnenrolledStudent(t *testing.T) {
	repo, payments, _, uc := setup(t)
	groupID := uuid.New()
	sessionID := uuid.New()
	repo.sessions[sessionID] = &domain.Session{SessionID: sessionID, GroupID: groupID}
	enrolled := repo.enroll(groupID, true)
	inactive := repo.enroll(groupID, false)
	otherGroup := repo.enroll(uuid.New(), true)

	for _, studentID := range []uuid.UUID{uuid.New(), inactive, otherGroup} {
		err := uc.RecordAttendance(context.Background(), sessionID, []domain.Attendance{
			{StudentID: enrolled, Status: domain.AttendancePresent},
			{StudentID: studentID, Status: domain.AttendancePresent},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAttendance)
	}
	assert.Empty(t, repo.records[sessionID])
	assert.Empty(t, payments.refreshed)
}

func TestEnrollStudentCreatesInitialPayment(t *testing.T) {
	repo, payments, _, uc := setup(t)
	groupID := uuid.New()
	studentID := uuid.New()
	repo.groups[groupID] = &domain.Group{GroupID: groupID, TeacherID: 9}

	require.NoError(t, uc.EnrollStudent(context.Background(), groupID, studentID))
	require.Len(t, repo.enrollments, 1)
	assert.True(t, repo.enrollments[0].IsActive)
	assert.Equal(t, []uuid.UUID{studentID}, payments.initial)
	assert.Equal(t, 9, payments.teacherID)

	assert.ErrorIs(t, uc.EnrollStudent(context.Background(), uuid.New(), studentID), domain.ErrGroupNotFound)
}
