package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholar-ledger-api/internal/service"
	"github.com/noah-isme/scholar-ledger-api/internal/utils"
)

// ReportHandler serves report cards and class rankings.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report routes to the router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/students/:studentId", h.reportCard)
	router.Get("/classes/:classId/ranking", h.classRanking)
}

func (h *ReportHandler) reportCard(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	card, err := h.service.ReportCard(c.UserContext(), studentID, scopeFromQuery(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to build report card")
	}
	return utils.SendSuccess(c, "report card", card)
}

func (h *ReportHandler) classRanking(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ranking, err := h.service.ClassRanking(c.UserContext(), classID, scopeFromQuery(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to rank class")
	}
	return utils.SendSuccess(c, "class ranking", ranking)
}
