package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/service"
	"github.com/noah-isme/scholar-ledger-api/internal/utils"
)

// ScoreHandler exposes score entry endpoints for a student's term record.
type ScoreHandler struct {
	service service.ScoreService
	logger  zerolog.Logger
}

// NewScoreHandler constructs the handler.
func NewScoreHandler(service service.ScoreService, logger zerolog.Logger) *ScoreHandler {
	return &ScoreHandler{
		service: service,
		logger:  logger.With().Str("component", "score_handler").Logger(),
	}
}

// Register attaches score routes to the router group.
func (h *ScoreHandler) Register(router fiber.Router) {
	router.Get("/:studentId", h.get)
	router.Put("/:studentId/rows", h.updateRow)
	router.Put("/:studentId/traits", h.updateTraits)
	router.Put("/:studentId/attendance", h.updateAttendance)
	router.Put("/:studentId/remarks", h.updateRemarks)
}

func (h *ScoreHandler) get(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.GetRecord(c.UserContext(), studentID, scopeFromQuery(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load score record")
	}
	return utils.SendSuccess(c, "score record", record)
}

func (h *ScoreHandler) updateRow(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ScoreRowRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.UpdateRow(c.UserContext(), studentID, scopeFromQuery(c), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update score row")
	}
	return utils.SendSuccess(c, "score row updated", record)
}

func (h *ScoreHandler) updateTraits(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TraitsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.UpdateTraits(c.UserContext(), studentID, scopeFromQuery(c), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update traits")
	}
	return utils.SendSuccess(c, "traits updated", record)
}

func (h *ScoreHandler) updateAttendance(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AttendanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.UpdateAttendance(c.UserContext(), studentID, scopeFromQuery(c), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update attendance")
	}
	return utils.SendSuccess(c, "attendance updated", record)
}

func (h *ScoreHandler) updateRemarks(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RemarksRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.UpdateRemarks(c.UserContext(), studentID, scopeFromQuery(c), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update remarks")
	}
	return utils.SendSuccess(c, "remarks updated", record)
}
