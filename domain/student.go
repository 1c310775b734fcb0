package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Student struct {
	StudentID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"student_id"`
	Name      string     `gorm:"type:varchar(150);not null;" json:"name" valid:"required~Name is required"`
	Gender    string     `gorm:"type:gender_enum;not null" json:"gender" valid:"required~Gender is required,in(male|female)~Invalid gender"`
	Telephone *string    `gorm:"type:varchar(15)" json:"telephone"`
	ParentID  *uuid.UUID `gorm:"type:uuid" json:"parent_id"`
	Parent    *Parent    `gorm:"references:ParentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"parent,omitempty" valid:"-"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.StudentID == uuid.Nil {
		s.StudentID = uuid.New()
	}
	return nil
}
