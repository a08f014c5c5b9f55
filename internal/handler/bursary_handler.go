package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/service"
	"github.com/noah-isme/scholar-ledger-api/internal/utils"
)

// BursaryHandler exposes fee heads, payments and balances.
type BursaryHandler struct {
	service service.BursaryService
	logger  zerolog.Logger
}

// NewBursaryHandler constructs the handler.
func NewBursaryHandler(service service.BursaryService, logger zerolog.Logger) *BursaryHandler {
	return &BursaryHandler{
		service: service,
		logger:  logger.With().Str("component", "bursary_handler").Logger(),
	}
}

// Register attaches bursary routes to the router group.
func (h *BursaryHandler) Register(router fiber.Router) {
	router.Get("/fees", h.listFees)
	router.Post("/fees", h.createFee)
	router.Delete("/fees/:id", h.deleteFee)
	router.Get("/payments", h.listPayments)
	router.Post("/payments", h.recordPayment)
	router.Delete("/payments/:id", h.deletePayment)
	router.Get("/students/:studentId/balance", h.studentBalance)
	router.Get("/classes/:classId/balances", h.classBalances)
}

func (h *BursaryHandler) listFees(c *fiber.Ctx) error {
	fees, err := h.service.ListFeeHeads(c.UserContext(), scopeFromQuery(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list fee heads")
	}
	return utils.SendSuccess(c, "fee heads", fees)
}

func (h *BursaryHandler) createFee(c *fiber.Ctx) error {
	var payload dto.FeeHeadCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	fee, err := h.service.CreateFeeHead(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create fee head")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "fee head created", fee)
}

func (h *BursaryHandler) deleteFee(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteFeeHead(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete fee head")
	}
	return utils.SendSuccess(c, "fee head deleted", nil)
}

func (h *BursaryHandler) listPayments(c *fiber.Ctx) error {
	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	payments, err := h.service.ListPayments(c.UserContext(), dto.PaymentListRequest{StudentID: studentID, Scope: scopeFromQuery(c)})
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list payments")
	}
	return utils.SendSuccess(c, "payments", payments)
}

func (h *BursaryHandler) recordPayment(c *fiber.Ctx) error {
	var payload dto.PaymentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	payment, err := h.service.RecordPayment(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to record payment")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "payment recorded", payment)
}

func (h *BursaryHandler) deletePayment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeletePayment(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete payment")
	}
	return utils.SendSuccess(c, "payment deleted", nil)
}

func (h *BursaryHandler) studentBalance(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	balance, err := h.service.StudentBalance(c.UserContext(), studentID, scopeFromQuery(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to resolve balance")
	}
	return utils.SendSuccess(c, "student balance", balance)
}

func (h *BursaryHandler) classBalances(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	balances, err := h.service.ClassBalances(c.UserContext(), classID, scopeFromQuery(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to resolve class balances")
	}
	return utils.SendSuccess(c, "class balances", balances)
}
