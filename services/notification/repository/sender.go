package repository

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"
	"tutoring/config"
	"tutoring/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"gorm.io/gorm"
)

var errNoChannel = errors.New("reminder could not be delivered on any channel")

type senderRepository struct {
	db           *gorm.DB
	client       smtp.Auth
	emailSender  string
	contactPhone string
	smtpAddress  string
	meowClient   *whatsmeow.Client
	language     string
	countryCode  string
	currency     string
	appName      string
	log          *logrus.Logger
}

// NewSenderRepository builds the overdue reminder sender. meow may be nil,
// reminders then only go out by email.
func NewSenderRepository(db *gorm.DB, client smtp.Auth, smtpAddress, contactPhone, emailSender string, meow *whatsmeow.Client, log *logrus.Logger) domain.ReminderSender {
	return &senderRepository{
		db:           db,
		client:       client,
		emailSender:  emailSender,
		contactPhone: contactPhone,
		smtpAddress:  smtpAddress,
		meowClient:   meow,
		language:     config.GetEnvOrDefault("MESSENGER_LANGUAGE", "fr"),
		countryCode:  config.GetEnvOrDefault("COUNTRY_CODE", "216"),
		currency:     config.GetEnvOrDefault("CURRENCY_LABEL", "DT"),
		appName:      config.GetEnvOrDefault("APP_NAME", "TUTORA"),
		log:          log,
	}
}

type reminderDetails struct {
	student   domain.Student
	parent    domain.Parent
	groupName string
}

func (m *senderRepository) fetchReminderDetails(ctx context.Context, payment domain.Payment) (*reminderDetails, error) {
	var student domain.Student
	err := m.db.WithContext(ctx).
		Where("student_id = ? AND deleted_at IS NULL", payment.StudentID).
		Preload("Parent").
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student %s not found", payment.StudentID)
		}
		return nil, fmt.Errorf("could not fetch student details: %w", err)
	}
	if student.Parent == nil || student.Parent.DeletedAt != nil {
		return nil, fmt.Errorf("student %s has no parent contact", payment.StudentID)
	}

	var group domain.Group
	if err := m.db.WithContext(ctx).Where("group_id = ?", payment.GroupID).First(&group).Error; err != nil {
		return nil, fmt.Errorf("could not fetch group details: %w", err)
	}

	return &reminderDetails{
		student:   student,
		parent:    *student.Parent,
		groupName: group.Name,
	}, nil
}

func (m *senderRepository) SendOverdueReminder(ctx context.Context, payment domain.Payment) error {
	details, err := m.fetchReminderDetails(ctx, payment)
	if err != nil {
		return err
	}

	subject, body := composeReminder(reminderText{
		language:     m.language,
		appName:      m.appName,
		parentName:   details.parent.Name,
		parentGender: details.parent.Gender,
		studentName:  details.student.Name,
		groupName:    details.groupName,
		amount:       formatAmount(payment.Amount, m.currency),
		dueDate:      payment.DueDate,
		contactPhone: m.contactPhone,
	})

	emailSuccess := false
	if details.parent.Email != nil && *details.parent.Email != "" {
		if err := m.sendEmail(*details.parent.Email, subject, body); err != nil {
			m.log.WithError(err).WithField("payment_id", payment.PaymentID.String()).Warn("Reminder email failed")
		} else {
			emailSuccess = true
		}
	}

	whatsappSuccess := false
	if m.meowClient != nil && m.meowClient.IsConnected() {
		if err := m.sendWA(ctx, details.parent.Telephone, body); err != nil {
			m.log.WithError(err).WithField("payment_id", payment.PaymentID.String()).Warn("Reminder WhatsApp failed")
		} else {
			whatsappSuccess = true
		}
	}

	if err := m.logReminderHistory(ctx, payment, details.parent, whatsappSuccess, emailSuccess); err != nil {
		return err
	}

	if !emailSuccess && !whatsappSuccess {
		return errNoChannel
	}
	return nil
}

func (m *senderRepository) sendEmail(to, subject, body string) error {
	to = headerValue(to)
	msg := buildEmail(m.emailSender, to, subject, body)

	err := smtp.SendMail(m.smtpAddress, m.client, m.emailSender, []string{to}, []byte(msg))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildEmail(from, to, subject, body string) string {
	return "From: " + headerValue(from) + "\r\n" +
		"To: " + headerValue(to) + "\r\n" +
		"Subject: " + headerValue(subject) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
		body
}

// headerValue drops line breaks so a value cannot start a new header.
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

func (m *senderRepository) sendWA(ctx context.Context, telephone, body string) error {
	jid := types.NewJID(formatPhone(m.countryCode, telephone), types.DefaultUserServer)

	conversationMessage := &waE2E.Message{
		Conversation: &body,
	}

	if _, err := m.meowClient.SendMessage(ctx, jid, conversationMessage); err != nil {
		return fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	return nil
}

func (m *senderRepository) logReminderHistory(ctx context.Context, payment domain.Payment, parent domain.Parent, whatsappSuccess, emailSuccess bool) error {
	history := &domain.PaymentReminderHistory{
		PaymentID:      payment.PaymentID,
		StudentID:      payment.StudentID,
		ParentID:       parent.ParentID,
		WhatsappStatus: whatsappSuccess,
		EmailStatus:    emailSuccess,
	}

	if err := m.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("could not log reminder history: %w", err)
	}
	return nil
}

// formatPhone turns a local or international number into the digits-only
// form WhatsApp expects, prefixed by the country code.
func formatPhone(countryCode, telephone string) string {
	var b strings.Builder
	for _, r := range telephone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	digits = strings.TrimPrefix(digits, "00")
	if strings.HasPrefix(digits, countryCode) && len(digits) > 8 {
		return digits
	}
	return countryCode + strings.TrimPrefix(digits, "0")
}

func formatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(3) + " " + currency
}

type reminderText struct {
	language     string
	appName      string
	parentName   string
	parentGender string
	studentName  string
	groupName    string
	amount       string
	dueDate      time.Time
	contactPhone string
}

func composeReminder(t reminderText) (string, string) {
	due := t.dueDate.Format("02/01/2006")

	if strings.EqualFold(t.language, "en") {
		title := "Mrs."
		if t.parentGender == "male" {
			title = "Mr."
		}
		subject := fmt.Sprintf("Overdue payment for %s", t.studentName)
		body := fmt.Sprintf(`%s 🔔

Dear %s %s,

The payment of %s for the lessons of %s in the group "%s" was due on %s and has not been received yet.

Please settle it at your earliest convenience. If you have already paid or have any question, contact us at %s.

Thank you for your cooperation.

Sincerely,
%s Team`, t.appName, title, t.parentName, t.amount, t.studentName, t.groupName, due, t.contactPhone, t.appName)
		return subject, body
	}

	title := "Madame"
	if t.parentGender == "male" {
		title = "Monsieur"
	}
	subject := fmt.Sprintf("Paiement en retard pour %s", t.studentName)
	body := fmt.Sprintf(`%s 🔔

%s %s,

Le paiement de %s pour les séances de %s dans le groupe "%s" était attendu le %s et n'a pas encore été reçu.

Merci de le régler dans les meilleurs délais. Si vous avez déjà payé ou pour toute question, contactez-nous au %s.

Merci de votre collaboration.

Cordialement,
L'équipe %s`, t.appName, title, t.parentName, t.amount, t.studentName, t.groupName, due, t.contactPhone, t.appName)
	return subject, body
}
