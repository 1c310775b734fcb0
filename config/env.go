package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func GetEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetEnvDuration accepts Go duration strings ("10s") or a bare number of seconds.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func GetContextTimeout() time.Duration {
	return GetEnvDuration("CONTEXT_TIMEOUT", 10*time.Second)
}

func GetPaymentDueDays() int {
	return GetEnvInt("PAYMENT_DUE_DAYS", 30)
}

func GetOverdueGraceDays() int {
	return GetEnvInt("OVERDUE_GRACE_DAYS", 30)
}
