package delivery

import (
	"errors"
	"time"
	"tutoring/config"
	"tutoring/domain"
	"tutoring/middleware"

	"github.com/asaskevich/govalidator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type paymentHandler struct {
	puc domain.PaymentUseCase
}

func NewPaymentDelivery(app *fiber.App, uc domain.PaymentUseCase) {
	handler := &paymentHandler{
		puc: uc,
	}

	route := app.Group("/payment", middleware.AuthRequired())
	route.Get("/status/:group_id/:student_id", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.GetStatus)
	route.Post("/status/:group_id/:student_id/refresh", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.RefreshStatus)
	route.Post("/ensure", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.EnsurePendingPayment)
	route.Post("/initial", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.EnsureInitialPendingPayment)
	route.Post("/group/:group_id/refresh", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.RefreshGroup)
	route.Get("/group/:group_id/summary", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.GroupSummary)
	route.Put("/group/:group_id/config", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.UpdateGroupConfig)
	route.Put("/:payment_id/paid", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.MarkPaid)
	route.Put("/:payment_id/cancel", middleware.RoleRequired(domain.RoleAdmin, domain.RoleTeacher), handler.Cancel)
	route.Post("/overdue/promote", middleware.RoleRequired(domain.RoleAdmin), handler.PromoteOverdue)
}

func username(c *fiber.Ctx) *string {
	if claims, ok := c.Locals("user").(*domain.Claims); ok {
		return &claims.Username
	}
	return nil
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrGroupNotFound), errors.Is(err, domain.ErrPaymentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPaymentTransition), errors.Is(err, domain.ErrActivePaymentExists):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidGroupConfig):
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

func ok(c *fiber.Ctx, status int, fn, message string, data interface{}) error {
	config.PrintLogInfo(username(c), status, fn)
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func pairParams(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	groupID, err := uuid.Parse(c.Params("group_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("group_id must be a UUID")
	}
	studentID, err := uuid.Parse(c.Params("student_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("student_id must be a UUID")
	}
	return groupID, studentID, nil
}

func (ph *paymentHandler) GetStatus(c *fiber.Ctx) error {
	groupID, studentID, err := pairParams(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "GetPaymentStatus", "Invalid parameters", err)
	}

	data, err := ph.puc.ComputeStatus(c.Context(), studentID, groupID)
	if err != nil {
		return fail(c, errorStatus(err), "GetPaymentStatus", "Failed to compute payment status", err)
	}

	return ok(c, fiber.StatusOK, "GetPaymentStatus", "Payment status retrieved successfully", data)
}

func (ph *paymentHandler) RefreshStatus(c *fiber.Ctx) error {
	groupID, studentID, err := pairParams(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "RefreshPaymentStatus", "Invalid parameters", err)
	}

	data, err := ph.puc.CalculateStatus(c.Context(), studentID, groupID)
	if err != nil {
		return fail(c, errorStatus(err), "RefreshPaymentStatus", "Failed to calculate payment status", err)
	}

	return ok(c, fiber.StatusOK, "RefreshPaymentStatus", "Payment status refreshed successfully", data)
}

func parseEnsureRequest(c *fiber.Ctx) (uuid.UUID, uuid.UUID, int, error) {
	var req domain.EnsurePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return uuid.Nil, uuid.Nil, 0, errors.New("invalid request body")
	}
	if _, err := govalidator.ValidateStruct(req); err != nil {
		return uuid.Nil, uuid.Nil, 0, err
	}
	return uuid.MustParse(req.StudentID), uuid.MustParse(req.GroupID), req.TeacherID, nil
}

func (ph *paymentHandler) EnsurePendingPayment(c *fiber.Ctx) error {
	studentID, groupID, teacherID, err := parseEnsureRequest(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "EnsurePendingPayment", "Invalid request", err)
	}

	created, err := ph.puc.EnsurePendingPayment(c.Context(), studentID, groupID, teacherID)
	if err != nil {
		return fail(c, errorStatus(err), "EnsurePendingPayment", "Failed to ensure pending payment", err)
	}

	status := fiber.StatusOK
	message := "No payment needed"
	if created {
		status = fiber.StatusCreated
		message = "Pending payment created"
	}
	return ok(c, status, "EnsurePendingPayment", message, fiber.Map{"created": created})
}

func (ph *paymentHandler) EnsureInitialPendingPayment(c *fiber.Ctx) error {
	studentID, groupID, teacherID, err := parseEnsureRequest(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "EnsureInitialPendingPayment", "Invalid request", err)
	}

	if err := ph.puc.EnsureInitialPendingPayment(c.Context(), studentID, groupID, teacherID); err != nil {
		return fail(c, errorStatus(err), "EnsureInitialPendingPayment", "Failed to ensure initial payment", err)
	}

	return ok(c, fiber.StatusOK, "EnsureInitialPendingPayment", "Initial payment ensured", nil)
}

func (ph *paymentHandler) RefreshGroup(c *fiber.Ctx) error {
	groupID, err := uuid.Parse(c.Params("group_id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "RefreshGroupPayments", "Invalid parameters", errors.New("group_id must be a UUID"))
	}

	created, err := ph.puc.RefreshGroupPaymentStatuses(c.Context(), groupID)
	if err != nil {
		return fail(c, errorStatus(err), "RefreshGroupPayments", "Failed to refresh group payments", err)
	}

	return ok(c, fiber.StatusOK, "RefreshGroupPayments", "Group payments refreshed", fiber.Map{"created": created})
}

func (ph *paymentHandler) GroupSummary(c *fiber.Ctx) error {
	groupID, err := uuid.Parse(c.Params("group_id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "GroupPaymentSummary", "Invalid parameters", errors.New("group_id must be a UUID"))
	}

	data, err := ph.puc.GroupSummary(c.Context(), groupID)
	if err != nil {
		return fail(c, errorStatus(err), "GroupPaymentSummary", "Failed to build group summary", err)
	}

	return ok(c, fiber.StatusOK, "GroupPaymentSummary", "Group summary retrieved successfully", data)
}

func (ph *paymentHandler) UpdateGroupConfig(c *fiber.Ctx) error {
	groupID, err := uuid.Parse(c.Params("group_id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "UpdateGroupConfig", "Invalid parameters", errors.New("group_id must be a UUID"))
	}

	var req domain.GroupConfigUpdate
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "UpdateGroupConfig", "Invalid request", errors.New("invalid request body"))
	}

	if err := ph.puc.UpdateGroupConfig(c.Context(), groupID, req); err != nil {
		return fail(c, errorStatus(err), "UpdateGroupConfig", "Failed to update group configuration", err)
	}

	return ok(c, fiber.StatusOK, "UpdateGroupConfig", "Group configuration updated", nil)
}

func (ph *paymentHandler) MarkPaid(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("payment_id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "MarkPaymentPaid", "Invalid parameters", errors.New("payment_id must be a UUID"))
	}

	var req domain.MarkPaidRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "MarkPaymentPaid", "Invalid request", errors.New("invalid request body"))
		}
	}

	var paidAt time.Time
	if req.PaidDate != nil {
		paidAt = *req.PaidDate
	}
	if err := ph.puc.MarkPaymentPaid(c.Context(), paymentID, paidAt); err != nil {
		return fail(c, errorStatus(err), "MarkPaymentPaid", "Failed to mark payment as paid", err)
	}

	return ok(c, fiber.StatusOK, "MarkPaymentPaid", "Payment marked as paid", nil)
}

func (ph *paymentHandler) Cancel(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("payment_id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "CancelPayment", "Invalid parameters", errors.New("payment_id must be a UUID"))
	}

	if err := ph.puc.CancelPayment(c.Context(), paymentID); err != nil {
		return fail(c, errorStatus(err), "CancelPayment", "Failed to cancel payment", err)
	}

	return ok(c, fiber.StatusOK, "CancelPayment", "Payment cancelled", nil)
}

func (ph *paymentHandler) PromoteOverdue(c *fiber.Ctx) error {
	promoted, err := ph.puc.PromoteStaleReminders(c.Context())
	if err != nil {
		return fail(c, errorStatus(err), "PromoteOverdue", "Failed to promote overdue payments", err)
	}

	return ok(c, fiber.StatusOK, "PromoteOverdue", "Overdue payments promoted", fiber.Map{"promoted": promoted})
}
