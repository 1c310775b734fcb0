package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidAttendance = errors.New("invalid attendance records")
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

type Session struct {
	SessionID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"session_id"`
	GroupID     uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	Group       Group     `gorm:"foreignKey:GroupID;references:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	SessionDate time.Time `gorm:"not null" json:"session_date"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.SessionID == uuid.Nil {
		s.SessionID = uuid.New()
	}
	return nil
}

type Attendance struct {
	AttendanceID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"attendance_id"`
	SessionID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_session_student" json:"session_id"`
	Session      Session          `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	StudentID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_session_student;index" json:"student_id"`
	Student      Student          `gorm:"foreignKey:StudentID;references:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Status       AttendanceStatus `gorm:"type:attendance_status_enum;not null" json:"status"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.AttendanceID == uuid.Nil {
		a.AttendanceID = uuid.New()
	}
	return nil
}

type CreateSessionRequest struct {
	GroupID     string    `json:"group_id" valid:"required~Group ID is required,uuid~Group ID must be a UUID"`
	SessionDate time.Time `json:"session_date"`
}

type AttendanceEntry struct {
	StudentID string           `json:"student_id" valid:"required~Student ID is required,uuid~Student ID must be a UUID"`
	Status    AttendanceStatus `json:"status" valid:"required~Status is required,in(PRESENT|ABSENT)~Status must be PRESENT or ABSENT"`
}

type RecordAttendanceRequest struct {
	Records []AttendanceEntry `json:"records" valid:"required~Records are required"`
}

type EnrollRequest struct {
	GroupID   string `json:"group_id" valid:"required~Group ID is required,uuid~Group ID must be a UUID"`
	StudentID string `json:"student_id" valid:"required~Student ID is required,uuid~Student ID must be a UUID"`
}

type AttendanceRepo interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	ReplaceSessionAttendance(ctx context.Context, sessionID uuid.UUID, records []Attendance) error
	UpsertEnrollment(ctx context.Context, enrollment *Enrollment) error
	GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error)
	FindActiveStudentIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

type AttendanceUseCase interface {
	CreateSession(ctx context.Context, groupID uuid.UUID, sessionDate time.Time) (*Session, error)
	RecordAttendance(ctx context.Context, sessionID uuid.UUID, records []Attendance) error
	EnrollStudent(ctx context.Context, groupID, studentID uuid.UUID) error
}
