package domain

import "time"

type User struct {
	UserID    int        `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Username  string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Name      string     `gorm:"type:varchar(150);not null" json:"name"`
	Password  string     `gorm:"type:varchar(255);not null" json:"-"`
	Role      string     `gorm:"type:role_enum;not null" json:"role"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)
