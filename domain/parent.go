package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Parent struct {
	ParentID  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"parent_id"`
	Name      string     `gorm:"type:varchar(150);not null;" json:"name" valid:"required~Name is required"`
	Gender    string     `gorm:"type:gender_enum;not null" json:"gender" valid:"required~Gender is required,in(male|female)~Invalid gender"`
	Telephone string     `gorm:"type:varchar(15);not null;" json:"telephone" valid:"required~Telephone is required"`
	Email     *string    `gorm:"type:varchar(255)" json:"email" valid:"email~Invalid email format,optional"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

func (p *Parent) BeforeCreate(tx *gorm.DB) error {
	if p.ParentID == uuid.Nil {
		p.ParentID = uuid.New()
	}
	return nil
}
