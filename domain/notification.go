package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PaymentReminderHistory struct {
	ReminderHistoryID int       `gorm:"primaryKey;autoIncrement" json:"reminder_history_id"`
	PaymentID         uuid.UUID `gorm:"type:uuid;not null;index" json:"payment_id"`
	Payment           Payment   `gorm:"foreignKey:PaymentID;references:PaymentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"payment"`
	StudentID         uuid.UUID `gorm:"type:uuid;not null" json:"student_id"`
	Student           Student   `gorm:"foreignKey:StudentID;references:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	ParentID          uuid.UUID `gorm:"type:uuid;not null;index" json:"parent_id"`
	Parent            Parent    `gorm:"foreignKey:ParentID;references:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"parent"`
	WhatsappStatus    bool      `gorm:"not null" json:"whatsapp"`
	EmailStatus       bool      `gorm:"not null" json:"email"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NotificationRepo interface {
	GetAllReminderHistory(ctx context.Context) (*[]PaymentReminderHistory, error)
}

type NotificationUseCase interface {
	GetAllReminderHistory(ctx context.Context) (*[]PaymentReminderHistory, error)
}
