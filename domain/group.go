package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultPaymentThreshold is the number of attended sessions billed per
// payment cycle when a group does not set its own.
const DefaultPaymentThreshold = 8

type Group struct {
	GroupID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"group_id"`
	Name             string              `gorm:"type:varchar(150);not null" json:"name" valid:"required~Name is required"`
	TeacherID        int                 `gorm:"not null;index" json:"teacher_id"`
	Teacher          User                `gorm:"foreignKey:TeacherID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	SessionFee       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"session_fee"`
	MonthlyFee       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"monthly_fee"`
	PaymentThreshold *int                `json:"payment_threshold"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        *time.Time          `gorm:"index" json:"deleted_at"`
}

func (Group) TableName() string {
	return "study_groups"
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.GroupID == uuid.Nil {
		g.GroupID = uuid.New()
	}
	return nil
}

// PaymentConfig extracts the billing settings of the group.
func (g *Group) PaymentConfig() *GroupPaymentConfig {
	cfg := &GroupPaymentConfig{
		GroupID:          g.GroupID,
		TeacherID:        g.TeacherID,
		PaymentThreshold: g.PaymentThreshold,
	}
	if g.SessionFee.Valid {
		fee := g.SessionFee.Decimal
		cfg.SessionFee = &fee
	}
	if g.MonthlyFee.Valid {
		fee := g.MonthlyFee.Decimal
		cfg.MonthlyFee = &fee
	}
	return cfg
}

type GroupPaymentConfig struct {
	GroupID          uuid.UUID        `json:"group_id"`
	TeacherID        int              `json:"teacher_id"`
	SessionFee       *decimal.Decimal `json:"session_fee"`
	MonthlyFee       *decimal.Decimal `json:"monthly_fee"`
	PaymentThreshold *int             `json:"payment_threshold"`
}

// Threshold returns the configured cycle length, falling back to
// DefaultPaymentThreshold when it is absent or not positive.
func (c *GroupPaymentConfig) Threshold() int {
	if c.PaymentThreshold == nil || *c.PaymentThreshold <= 0 {
		return DefaultPaymentThreshold
	}
	return *c.PaymentThreshold
}

// EffectiveSessionFee returns the per-session price. A positive session fee
// wins, otherwise the monthly fee is spread over one cycle. The quotient is
// not rounded, so callers round the billed product. The second value is
// false when neither is usable.
func (c *GroupPaymentConfig) EffectiveSessionFee() (decimal.Decimal, bool) {
	if c.SessionFee != nil && c.SessionFee.IsPositive() {
		return *c.SessionFee, true
	}
	if c.MonthlyFee != nil && c.MonthlyFee.IsPositive() {
		return c.MonthlyFee.Div(decimal.NewFromInt(int64(c.Threshold()))), true
	}
	return decimal.Zero, false
}

type GroupConfigUpdate struct {
	SessionFee       *decimal.Decimal `json:"session_fee"`
	MonthlyFee       *decimal.Decimal `json:"monthly_fee"`
	PaymentThreshold *int             `json:"payment_threshold"`
}

type Enrollment struct {
	GroupID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"group_id"`
	StudentID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"student_id"`
	Student    Student   `gorm:"foreignKey:StudentID;references:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Group      Group     `gorm:"foreignKey:GroupID;references:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
