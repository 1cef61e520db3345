package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/service"
	"github.com/sarthi-labs/hireflow-api/internal/utils"
	"github.com/sarthi-labs/hireflow-api/pkg/storage"
)

// DriveHandler manages drive lifecycle endpoints.
type DriveHandler struct {
	drives    service.DriveService
	state     service.DriveStateService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDriveHandler builds a drive handler instance.
func NewDriveHandler(drives service.DriveService, state service.DriveStateService, validator *validator.Validate, logger zerolog.Logger) *DriveHandler {
	return &DriveHandler{
		drives:    drives,
		state:     state,
		validator: validator,
		logger:    logger.With().Str("component", "drive_handler").Logger(),
	}
}

// Register attaches the read and candidate-facing routes.
func (h *DriveHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/progress", h.progress)
	router.Get("/:id/candidates", h.listCandidates)
	router.Get("/:id/questions", h.listQuestions)
	router.Post("/:id/candidates/:candidateId/resume", h.uploadResume)
}

// RegisterManagement attaches the routes that mutate drives.
func (h *DriveHandler) RegisterManagement(router fiber.Router) {
	router.Post("", h.create)
	router.Patch("/:id/status", h.updateStatus)
	router.Post("/:id/candidates", h.enroll)
}

func (h *DriveHandler) create(c *fiber.Ctx) error {
	var payload dto.DriveCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	drive, err := h.drives.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "drive created", drive)
}

func (h *DriveHandler) list(c *fiber.Ctx) error {
	drives, err := h.drives.List(c.Context(), c.Query("company_id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "drives retrieved", drives)
}

func (h *DriveHandler) get(c *fiber.Ctx) error {
	drive, err := h.drives.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "drive retrieved", drive)
}

func (h *DriveHandler) progress(c *fiber.Ctx) error {
	progress, err := h.drives.GetProgress(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "drive progress retrieved", progress)
}

func (h *DriveHandler) updateStatus(c *fiber.Ctx) error {
	var payload dto.DriveStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.state.Advance(c.Context(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	if outcome.Round != nil {
		return utils.SendSuccess(c, "round transition applied", outcome.Round)
	}
	return utils.SendSuccess(c, "drive status updated", outcome.Status)
}

func (h *DriveHandler) enroll(c *fiber.Ctx) error {
	var payload dto.CandidateEnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	candidate, err := h.drives.Enroll(c.Context(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "candidate enrolled", candidate)
}

func (h *DriveHandler) listCandidates(c *fiber.Ctx) error {
	var shortlisted *string
	if value := c.Query("shortlisted"); value != "" {
		shortlisted = &value
	}

	candidates, err := h.drives.ListCandidates(c.Context(), c.Params("id"), shortlisted)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "candidates retrieved", candidates)
}

func (h *DriveHandler) listQuestions(c *fiber.Ctx) error {
	questions, err := h.drives.ListQuestions(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	responses := make([]dto.CodingQuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, dto.NewCodingQuestionResponse(question))
	}

	return utils.SendSuccess(c, "coding questions retrieved", responses)
}

func (h *DriveHandler) uploadResume(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer file.Close()

	candidate, err := h.drives.UploadResume(c.Context(), c.Params("id"), c.Params("candidateId"), fileHeader.Filename, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "resume uploaded", candidate)
}

func (h *DriveHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrDriveNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "drive not found")
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "candidate not found")
	case errors.Is(err, service.ErrDuplicateJobCode):
		return utils.SendError(c, fiber.StatusConflict, "job code already in use")
	case errors.Is(err, service.ErrCandidateAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "candidate already enrolled")
	case errors.Is(err, service.ErrDriveCompleted):
		return utils.SendError(c, fiber.StatusConflict, "drive already completed")
	case errors.Is(err, service.ErrResumeStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "resume storage unavailable")
	case errors.Is(err, storage.ErrUnsupportedResumeType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidQuestion),
		errors.Is(err, service.ErrInvalidExperienceRange),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRound),
		errors.Is(err, service.ErrRoundNumberRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
