package delivery

import (
	"tutoring/config"
	"tutoring/domain"
	"tutoring/middleware"

	"github.com/gofiber/fiber/v2"
)

type notificationHandler struct {
	nuc domain.NotificationUseCase
}

func NewNotificationDelivery(app *fiber.App, uc domain.NotificationUseCase) {
	handler := &notificationHandler{
		nuc: uc,
	}

	route := app.Group("/notification")
	route.Get("/reminders", middleware.AuthRequired(), middleware.RoleRequired(domain.RoleAdmin), handler.GetAllReminderHistory)
}

func (nh *notificationHandler) GetAllReminderHistory(c *fiber.Ctx) error {
	userToken, _ := c.Locals("user").(*domain.Claims)

	datas, err := nh.nuc.GetAllReminderHistory(c.Context())
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "GetAllReminderHistory")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to retrieve reminder history",
			"error":   err.Error(),
			"data":    nil,
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "GetAllReminderHistory")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Reminder history retrieved successfully",
		"data":    datas,
	})
}
