package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TUTORA_STR", "  hello ")
	t.Setenv("TUTORA_INT", "42")
	t.Setenv("TUTORA_BAD_INT", "forty")
	t.Setenv("TUTORA_BOOL", "false")
	t.Setenv("TUTORA_DUR", "15s")
	t.Setenv("TUTORA_DUR_SECONDS", "7")

	assert.Equal(t, "hello", GetEnvOrDefault("TUTORA_STR", "x"))
	assert.Equal(t, "x", GetEnvOrDefault("TUTORA_MISSING", "x"))
	assert.Equal(t, 42, GetEnvInt("TUTORA_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TUTORA_BAD_INT", 1))
	assert.False(t, GetEnvBool("TUTORA_BOOL", true))
	assert.True(t, GetEnvBool("TUTORA_MISSING", true))
	assert.Equal(t, 15*time.Second, GetEnvDuration("TUTORA_DUR", time.Second))
	assert.Equal(t, 7*time.Second, GetEnvDuration("TUTORA_DUR_SECONDS", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("TUTORA_MISSING", time.Second))
}

func TestPaymentDefaults(t *testing.T) {
	assert.Equal(t, 30, GetPaymentDueDays())
	assert.Equal(t, 30, GetOverdueGraceDays())
	assert.Equal(t, "@every 1h", GetOverdueCronSpec())

	t.Setenv("OVERDUE_GRACE_DAYS", "10")
	assert.Equal(t, 10, GetOverdueGraceDays())
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, green, statusColor(200))
	assert.Equal(t, green, statusColor(201))
	assert.Equal(t, yellow, statusColor(202))
	assert.Equal(t, yellow, statusColor(304))
	assert.Equal(t, red, statusColor(404))
	assert.Equal(t, red, statusColor(500))
	assert.Equal(t, reset, statusColor(100))
}
