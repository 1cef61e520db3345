package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/service"
	"github.com/sarthi-labs/hireflow-api/internal/utils"
)

// SubmissionHandler manages coding-assessment submission endpoints.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grading     service.GradingService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(submissions service.SubmissionService, grading service.GradingService, validator *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		grading:     grading,
		validator:   validator,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/statistics", h.statistics)
	router.Post("/questions", h.submitQuestion)
	router.Post("/final", h.finalSubmit)
	router.Get("/:id", h.get)
}

// create starts (or returns) the candidate's assessment attempt.
func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.GetOrCreate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission ready", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	if driveID := c.Query("drive_id"); driveID != "" {
		submissions, err := h.submissions.ListByDrive(c.Context(), driveID)
		if err != nil {
			return h.handleError(c, err)
		}
		return utils.SendSuccess(c, "submissions retrieved", submissions)
	}

	candidateID := c.Query("candidate_id")
	if candidateID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "drive_id or candidate_id is required")
	}

	submissions, err := h.submissions.ListByCandidate(c.Context(), candidateID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	submission, err := h.submissions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

// submitQuestion grades one question's code against its test cases.
func (h *SubmissionHandler) submitQuestion(c *fiber.Ctx) error {
	var payload dto.QuestionSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.grading.Grade(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question graded", result)
}

// finalSubmit freezes the assessment and its statistics.
func (h *SubmissionHandler) finalSubmit(c *fiber.Ctx) error {
	var payload dto.FinalSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.FinalSubmit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment submitted", submission)
}

func (h *SubmissionHandler) statistics(c *fiber.Ctx) error {
	candidateID := c.Query("candidate_id")
	driveID := c.Query("drive_id")
	if candidateID == "" || driveID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "candidate_id and drive_id are required")
	}

	statistics, err := h.submissions.GetStatistics(c.Context(), candidateID, driveID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "statistics retrieved", statistics)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrDriveNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "drive not found")
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "coding question not found")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "assessment already submitted")
	case errors.Is(err, service.ErrQuestionNotInDrive),
		errors.Is(err, service.ErrUnsupportedLanguage):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
