package config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sirupsen/logrus"
)

var logrusInstance *logrus.Logger

func GetLogrusInstance() *logrus.Logger {
	if logrusInstance == nil {
		logrusInstance = logrus.New()
		logrusInstance.SetFormatter(&logrus.JSONFormatter{})
		logrusInstance.SetOutput(os.Stdout)

		level, err := logrus.ParseLevel(GetEnvOrDefault("LOG_LEVEL", "info"))
		if err != nil {
			level = logrus.InfoLevel
		}
		logrusInstance.SetLevel(level)
	}
	return logrusInstance
}

const (
	green  = "\033[32m" // Green for 200 OK
	yellow = "\033[33m" // Yellow for 300 series
	red    = "\033[31m" // Red for 400 and 500 series
	reset  = "\033[0m"  // Reset to default color
)

func statusColor(statusCode int) string {
	switch {
	case statusCode >= fiber.StatusOK && statusCode < fiber.StatusMultipleChoices:
		if statusCode == fiber.StatusAccepted {
			return yellow
		}
		return green
	case statusCode >= fiber.StatusMultipleChoices && statusCode < fiber.StatusBadRequest:
		return yellow
	case statusCode >= fiber.StatusBadRequest:
		return red
	default:
		return reset
	}
}

func PrintLogInfo(username *string, statusCode int, functionName string) {
	// Handle a nil `username` by using a placeholder
	user := "Unknown"
	if username != nil {
		user = *username
	}

	logMsg := fmt.Sprintf("User: %s, (%s) => Status: %s[%d] - %s%s", user, functionName, statusColor(statusCode), statusCode, http.StatusText(statusCode), reset)
	log.Info(logMsg)
}
