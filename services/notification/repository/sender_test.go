package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		name        string
		countryCode string
		telephone   string
		want        string
	}{
		{"local tunisian", "216", "98 123 456", "21698123456"},
		{"international plus", "216", "+216 98-123-456", "21698123456"},
		{"international double zero", "216", "0021698123456", "21698123456"},
		{"trunk zero", "62", "081234567890", "6281234567890"},
		{"national number starting like the code", "216", "21612345", "21621612345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatPhone(tt.countryCode, tt.telephone))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "80.000 DT", formatAmount(decimal.NewFromInt(80), "DT"))
	assert.Equal(t, "33.333 DT", formatAmount(decimal.RequireFromString("33.3333"), "DT"))
}

func TestComposeReminder(t *testing.T) {
	text := reminderText{
		appName:      "TUTORA",
		parentName:   "Ben Salah",
		parentGender: "male",
		studentName:  "Yasmine",
		groupName:    "Maths 3e",
		amount:       "80.000 DT",
		dueDate:      time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC),
		contactPhone: "71 000 000",
	}

	subject, body := composeReminder(text)
	assert.Equal(t, "Paiement en retard pour Yasmine", subject)
	assert.Contains(t, body, "Monsieur Ben Salah,")
	assert.Contains(t, body, "80.000 DT")
	assert.Contains(t, body, "05/04/2024")
	assert.Contains(t, body, `"Maths 3e"`)
	assert.Contains(t, body, "71 000 000")

	text.language = "EN"
	text.parentGender = "female"
	subject, body = composeReminder(text)
	assert.Equal(t, "Overdue payment for Yasmine", subject)
	assert.Contains(t, body, "Dear Mrs. Ben Salah,")
	assert.Contains(t, body, "was due on 05/04/2024")
}

func TestBuildEmailKeepsHeadersOnOneLine(t *testing.T) {
	msg := buildEmail(
		"school@example.com",
		"parent@example.com\r\nBcc: victim@example.com",
		"Paiement en retard pour Ali\nBcc: other@example.com",
		"line one\nline two",
	)

	head, body, found := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, found)
	assert.Equal(t, "line one\nline two", body)

	lines := strings.Split(head, "\r\n")
	assert.Equal(t, []string{
		"From: school@example.com",
		"To: parent@example.comBcc: victim@example.com",
		"Subject: Paiement en retard pour AliBcc: other@example.com",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}, lines)
	assert.NotContains(t, head, "\n"+"Bcc")
}
