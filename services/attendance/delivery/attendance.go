package delivery

import (
	"errors"
	"tutoring/config"
	"tutoring/domain"
	"tutoring/middleware"

	"github.com/asaskevich/govalidator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type attendanceHandler struct {
	auc domain.AttendanceUseCase
}

func NewAttendanceDelivery(app *fiber.App, uc domain.AttendanceUseCase) {
	handler := &attendanceHandler{
		auc: uc,
	}

	route := app.Group("/attendance", middleware.AuthRequired(), middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher))
	route.Post("/session", handler.CreateSession)
	route.Post("/session/:session_id", handler.RecordAttendance)
	route.Post("/enroll", handler.EnrollStudent)
}

func username(c *fiber.Ctx) *string {
	if claims, ok := c.Locals("user").(*domain.Claims); ok {
		return &claims.Username
	}
	return nil
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrGroupNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAttendance):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, status int, fn, message string, err error) error {
	config.PrintLogInfo(username(c), status, fn)
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
		"data":    nil,
	})
}

func (ah *attendanceHandler) CreateSession(c *fiber.Ctx) error {
	var req domain.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "CreateSession", "Invalid request", errors.New("invalid request body"))
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "CreateSession", "Invalid request", err)
	}

	session, err := ah.auc.CreateSession(c.Context(), uuid.MustParse(req.GroupID), req.SessionDate)
	if err != nil {
		return fail(c, errorStatus(err), "CreateSession", "Failed to create session", err)
	}

	config.PrintLogInfo(username(c), fiber.StatusCreated, "CreateSession")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Session created successfully",
		"data":    session,
	})
}

func (ah *attendanceHandler) RecordAttendance(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "RecordAttendance", "Invalid parameters", errors.New("session_id must be a UUID"))
	}

	var req domain.RecordAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "RecordAttendance", "Invalid request", errors.New("invalid request body"))
	}

	records := make([]domain.Attendance, 0, len(req.Records))
	for _, entry := range req.Records {
		if _, err := govalidator.ValidateStruct(entry); err != nil {
			return fail(c, fiber.StatusBadRequest, "RecordAttendance", "Invalid request", err)
		}
		records = append(records, domain.Attendance{
			StudentID: uuid.MustParse(entry.StudentID),
			Status:    entry.Status,
		})
	}

	if err := ah.auc.RecordAttendance(c.Context(), sessionID, records); err != nil {
		return fail(c, errorStatus(err), "RecordAttendance", "Failed to record attendance", err)
	}

	config.PrintLogInfo(username(c), fiber.StatusOK, "RecordAttendance")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Attendance recorded successfully",
		"data":    nil,
	})
}

func (ah *attendanceHandler) EnrollStudent(c *fiber.Ctx) error {
	var req domain.EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "EnrollStudent", "Invalid request", errors.New("invalid request body"))
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "EnrollStudent", "Invalid request", err)
	}

	if err := ah.auc.EnrollStudent(c.Context(), uuid.MustParse(req.GroupID), uuid.MustParse(req.StudentID)); err != nil {
		return fail(c, errorStatus(err), "EnrollStudent", "Failed to enroll student", err)
	}

	config.PrintLogInfo(username(c), fiber.StatusOK, "EnrollStudent")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Student enrolled successfully",
		"data":    nil,
	})
}
