package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/middleware"
	"github.com/noah-isme/scholar-ledger-api/internal/service"
	"github.com/noah-isme/scholar-ledger-api/internal/utils"
)

// ClassHandler exposes class endpoints.
type ClassHandler struct {
	service service.RosterService
	logger  zerolog.Logger
}

// NewClassHandler constructs the handler.
func NewClassHandler(service service.RosterService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches class routes to the router group.
func (h *ClassHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", middleware.RequireRole(middleware.RoleAdmin), h.create)
	router.Get("/:id", h.get)
	router.Get("/:id/subjects", h.subjects)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	classes, err := h.service.ListClasses(c.UserContext())
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list classes")
	}
	return utils.SendSuccess(c, "classes", classes)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	class, err := h.service.CreateClass(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create class")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	class, err := h.service.GetClass(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load class")
	}
	return utils.SendSuccess(c, "class", class)
}

func (h *ClassHandler) subjects(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	subjects, err := h.service.ClassSubjects(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load class subjects")
	}
	return utils.SendSuccess(c, "class subjects", subjects)
}

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	service service.RosterService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.RosterService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", middleware.RequireRole(middleware.RoleAdmin), h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id/class", middleware.RequireRole(middleware.RoleAdmin), h.changeClass)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	students, err := h.service.ListStudents(c.UserContext(), dto.StudentListRequest{
		ClassID: classID,
		Search:  strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list students")
	}
	return utils.SendSuccess(c, "students", students)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.CreateStudent(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	student, err := h.service.GetStudent(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load student")
	}
	return utils.SendSuccess(c, "student", student)
}

func (h *StudentHandler) changeClass(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.StudentClassUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.ChangeClass(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to change class")
	}
	return utils.SendSuccess(c, "student class updated", student)
}
