package config

import (
	"fmt"
	"os"
	"time"
	"tutoring/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GetDatabaseURL builds the database connection string.
func GetDatabaseURL() string {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		GetEnvOrDefault("DB_HOST", "localhost"), GetEnvOrDefault("DB_PORT", "5432"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_DATABASE"))
	return dsn
}

// BootDB initializes the database connection and runs migrations.
func BootDB() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return db, err
	}

	GetLogrusInstance().Info("DB initialized")
	return db, nil
}

var enumTypes = []struct {
	name   string
	values string
}{
	{"gender_enum", "'male', 'female'"},
	{"role_enum", "'admin', 'teacher'"},
	{"attendance_status_enum", "'PRESENT', 'ABSENT'"},
	{"payment_status_enum", "'PENDING', 'PAID', 'OVERDUE', 'CANCELLED'"},
}

func autoMigrate(db *gorm.DB) error {
	// Enum types must exist before the tables that use them
	for _, e := range enumTypes {
		if err := db.Exec(fmt.Sprintf(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = '%s') THEN
			CREATE TYPE %s AS ENUM (%s);
		END IF;
	END $$`, e.name, e.name, e.values)).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", e.name, err)
		}
	}

	// Tables without foreign keys first
	if err := db.AutoMigrate(
		&domain.Parent{},
		&domain.User{},
	); err != nil {
		return fmt.Errorf("failed to migrate base tables: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Student{},
		&domain.Group{},
		&domain.Enrollment{},
		&domain.Session{},
		&domain.Attendance{},
		&domain.Payment{},
		&domain.PaymentReminderHistory{},
	); err != nil {
		return fmt.Errorf("failed to migrate relational tables: %w", err)
	}

	// At most one PENDING/OVERDUE payment per student and group
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_active_student_group
		ON payments (student_id, group_id)
		WHERE status IN ('PENDING', 'OVERDUE')`).Error; err != nil {
		return fmt.Errorf("failed to create active payment index: %w", err)
	}

	return seedAdmin(db)
}

func seedAdmin(db *gorm.DB) error {
	var existingAdmin domain.User
	err := db.Where("role = ? AND deleted_at IS NULL", domain.RoleAdmin).First(&existingAdmin).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("could not look up admin account: %w", err)
	}

	GetLogrusInstance().Info("Creating default admin account")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is missing, cannot seed admin account")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("could not hash password: %w", err)
	}

	now := time.Now()
	admin := domain.User{
		Username:  GetEnvOrDefault("ADMIN_USERNAME", "admin"),
		Name:      GetEnvOrDefault("ADMIN_NAME", "Administrator"),
		Password:  string(hashedPassword),
		Role:      domain.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("could not create admin account: %w", err)
	}
	GetLogrusInstance().Info("Admin account created")
	return nil
}
