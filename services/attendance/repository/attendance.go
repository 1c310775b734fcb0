package repository

import (
	"context"
	"errors"
	"fmt"
	"tutoring/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) domain.AttendanceRepo {
	return &attendanceRepository{
		db: db,
	}
}

func (ar *attendanceRepository) GetGroup(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	var group domain.Group
	err := ar.db.WithContext(ctx).Where("group_id = ? AND deleted_at IS NULL", groupID).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("could not fetch group %s: %w", groupID, err)
	}
	return &group, nil
}

func (ar *attendanceRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := ar.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}
	return nil
}

func (ar *attendanceRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := ar.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("could not fetch session %s: %w", sessionID, err)
	}
	return &session, nil
}

// ReplaceSessionAttendance deletes the session's records and writes the new
// set in one transaction.
func (ar *attendanceRepository) ReplaceSessionAttendance(ctx context.Context, sessionID uuid.UUID, records []domain.Attendance) error {
	return ar.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session domain.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", sessionID).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSessionNotFound
			}
			return fmt.Errorf("could not lock session %s: %w", sessionID, err)
		}

		if err := tx.Where("session_id = ?", sessionID).Delete(&domain.Attendance{}).Error; err != nil {
			return fmt.Errorf("could not clear attendance: %w", err)
		}

		if len(records) == 0 {
			return nil
		}
		for i := range records {
			records[i].SessionID = sessionID
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("could not save attendance: %w", err)
		}
		return nil
	})
}

func (ar *attendanceRepository) FindActiveStudentIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := ar.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("group_id = ? AND is_active = ?", groupID, true).
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("could not fetch enrolled students: %w", err)
	}
	return ids, nil
}

func (ar *attendanceRepository) UpsertEnrollment(ctx context.Context, enrollment *domain.Enrollment) error {
	err := ar.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true, "updated_at": gorm.Expr("NOW()")}),
	}).Create(enrollment).Error
	if err != nil {
		return fmt.Errorf("could not enroll student: %w", err)
	}
	return nil
}
