package config

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

func GetFiberListenAddress() string {
	return fmt.Sprintf("%s:%s", GetFiberHttpHost(), GetFiberHttpPort())
}

func GetFiberConfig() fiber.Config {
	return fiber.Config{
		DisableStartupMessage: false,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		Prefork:               false,
		ServerHeader:          GetAppName(),
		AppName:               GetAppName(),
		ReadTimeout:           time.Second * 60,
		CaseSensitive:         true,
	}
}

func GetAppName() string {
	return GetEnvOrDefault("APP_NAME", "TUTORA")
}

func GetFiberHttpHost() string {
	return GetEnvOrDefault("HTTP_HOST", "0.0.0.0")
}

func GetFiberHttpPort() string {
	return GetEnvOrDefault("HTTP_PORT", "8000")
}
