package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/models"
	"github.com/sarthi-labs/hireflow-api/internal/observability"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
	"github.com/sarthi-labs/hireflow-api/pkg/ai"
)

// Round-level pseudo statuses accepted by the status update endpoint. They
// trigger round transitions instead of changing the drive status itself.
const (
	TransitionRoundScheduling = "ROUND_SCHEDULING"
	TransitionRoundCompleted  = "ROUND_COMPLETED"
)

// ErrInvalidStatus indicates an unknown status value was requested.
var ErrInvalidStatus = errors.New("invalid drive status")

// ErrInvalidRound indicates the round number is outside the drive's catalog.
var ErrInvalidRound = errors.New("invalid round number")

// ErrRoundNumberRequired indicates a completion request without a round number.
var ErrRoundNumberRequired = errors.New("round number is required")

// ErrDriveCompleted indicates the drive already reached its terminal status.
var ErrDriveCompleted = errors.New("drive already completed")

var knownStatuses = map[string]struct{}{
	models.DriveStatusCreated:            {},
	models.DriveStatusResumeUploaded:     {},
	models.DriveStatusResumeShortlisted:  {},
	models.DriveStatusEmailSent:          {},
	models.DriveStatusSelectionEmailSent: {},
	models.DriveStatusCompleted:          {},
}

// AdvanceOutcome is the result of one status update request. Exactly one of
// Status and Round is set, depending on the transition kind.
type AdvanceOutcome struct {
	Status *dto.StatusUpdateResponse
	Round  *dto.RoundTransitionResponse
}

// DriveStateService owns the drive lifecycle state machine: drive statuses,
// round scheduling and completion, and the resume-shortlisting transition.
type DriveStateService interface {
	Advance(ctx context.Context, driveID string, payload dto.DriveStatusUpdateRequest) (AdvanceOutcome, error)
}

type driveStateService struct {
	drives     repository.DriveRepository
	candidates repository.DriveCandidateRepository
	projector  CandidateRoundProjector
	dispatcher InviteDispatcher
	scorer     ai.ShortlistScorer
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewDriveStateService constructs the drive state machine service.
func NewDriveStateService(drives repository.DriveRepository, candidates repository.DriveCandidateRepository, projector CandidateRoundProjector, dispatcher InviteDispatcher, scorer ai.ShortlistScorer, validate *validator.Validate, logger zerolog.Logger) DriveStateService {
	return &driveStateService{
		drives:     drives,
		candidates: candidates,
		projector:  projector,
		dispatcher: dispatcher,
		scorer:     scorer,
		validator:  validate,
		logger:     logger.With().Str("component", "drive_state_service").Logger(),
		tracer:     otel.Tracer("github.com/sarthi-labs/hireflow-api/internal/service/drive_state"),
	}
}

func (s *driveStateService) Advance(ctx context.Context, driveID string, payload dto.DriveStatusUpdateRequest) (AdvanceOutcome, error) {
	if err := s.validator.Struct(payload); err != nil {
		return AdvanceOutcome{}, err
	}

	drive, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		if repository.IsNotFound(err) {
			return AdvanceOutcome{}, ErrDriveNotFound
		}
		return AdvanceOutcome{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "drive.advance", trace.WithAttributes(
		attribute.String("drive.id", driveID),
		attribute.String("drive.transition", payload.Status),
	))
	defer span.End()

	switch payload.Status {
	case TransitionRoundScheduling:
		outcome, err := s.scheduleRound(spanCtx, drive, payload)
		if err != nil {
			span.RecordError(err)
		}
		return outcome, err
	case TransitionRoundCompleted:
		outcome, err := s.completeRound(spanCtx, drive, payload)
		if err != nil {
			span.RecordError(err)
		}
		return outcome, err
	case models.DriveStatusResumeShortlisted:
		outcome, err := s.shortlistResumes(spanCtx, drive)
		if err != nil {
			span.RecordError(err)
		}
		return outcome, err
	default:
		outcome, err := s.setStatus(spanCtx, drive, payload.Status)
		if err != nil {
			span.RecordError(err)
		}
		return outcome, err
	}
}

// setStatus is the generic transition: record the status and advance the
// display stage pointer by one, clamped to the last stage.
func (s *driveStateService) setStatus(ctx context.Context, drive models.Drive, status string) (AdvanceOutcome, error) {
	if _, ok := knownStatuses[status]; !ok {
		return AdvanceOutcome{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if drive.IsTerminal() {
		return AdvanceOutcome{}, ErrDriveCompleted
	}

	fields := map[string]interface{}{
		"status":        status,
		"current_stage": drive.NextStageIndex(),
	}
	if err := s.drives.UpdateFields(ctx, drive.ID, fields); err != nil {
		return AdvanceOutcome{}, err
	}

	s.logger.Info().Str("drive_id", drive.ID).Str("status", status).Msg("drive status updated")
	return AdvanceOutcome{Status: &dto.StatusUpdateResponse{DriveID: drive.ID, Status: status}}, nil
}

func (s *driveStateService) scheduleRound(ctx context.Context, drive models.Drive, payload dto.DriveStatusUpdateRequest) (AdvanceOutcome, error) {
	number := drive.CurrentRound + 1
	if payload.RoundNumber != nil {
		number = *payload.RoundNumber
	}

	round, ok := drive.RoundByNumber(number)
	if !ok {
		return AdvanceOutcome{}, fmt.Errorf("%w: %d", ErrInvalidRound, number)
	}

	// An explicit round_type wins; the catalog only fills the gap when the
	// request omits it.
	roundType := payload.RoundType
	if roundType == "" {
		roundType = round.Type
	}

	roundFields := map[string]interface{}{
		"status":    models.RoundStatusInProgress,
		"scheduled": true,
	}
	if err := s.drives.UpdateRoundFields(ctx, drive.ID, number, roundFields); err != nil {
		return AdvanceOutcome{}, err
	}

	if err := s.drives.UpdateFields(ctx, drive.ID, map[string]interface{}{"current_round": number}); err != nil {
		return AdvanceOutcome{}, err
	}

	// Fan-out is best effort relative to the drive update: a partial failure
	// leaves candidates behind but never rolls back the drive.
	if _, err := s.projector.Apply(ctx, drive.ID, number, roundFields); err != nil {
		s.logger.Error().Err(err).Str("drive_id", drive.ID).Int("round", number).Msg("round scheduling fan-out failed")
	}

	kind := InviteKindInterview
	if round.IsCoding() {
		kind = InviteKindAssessment
	}
	job := InviteJob{
		DriveID:     drive.ID,
		RoundNumber: number,
		RoundType:   roundType,
		Kind:        kind,
	}
	if err := s.dispatcher.Enqueue(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("drive_id", drive.ID).Int("round", number).Msg("failed to enqueue round invites")
	}

	return AdvanceOutcome{Round: &dto.RoundTransitionResponse{
		DriveID:     drive.ID,
		RoundNumber: number,
		RoundType:   roundType,
	}}, nil
}

func (s *driveStateService) completeRound(ctx context.Context, drive models.Drive, payload dto.DriveStatusUpdateRequest) (AdvanceOutcome, error) {
	if payload.RoundNumber == nil {
		return AdvanceOutcome{}, ErrRoundNumberRequired
	}
	number := *payload.RoundNumber

	round, ok := drive.RoundByNumber(number)
	if !ok {
		return AdvanceOutcome{}, fmt.Errorf("%w: %d", ErrInvalidRound, number)
	}

	roundFields := map[string]interface{}{
		"status":    models.RoundStatusCompleted,
		"completed": true,
	}
	if err := s.drives.UpdateRoundFields(ctx, drive.ID, number, roundFields); err != nil {
		return AdvanceOutcome{}, err
	}

	if _, err := s.projector.Apply(ctx, drive.ID, number, roundFields); err != nil {
		s.logger.Error().Err(err).Str("drive_id", drive.ID).Int("round", number).Msg("round completion fan-out failed")
	}

	response := dto.RoundTransitionResponse{
		DriveID:     drive.ID,
		RoundNumber: number,
		RoundType:   round.Type,
	}
	if next, ok := drive.RoundByNumber(number + 1); ok {
		nextNumber := next.Number
		response.NextRound = &nextNumber
		response.NextRoundType = next.Type
	}

	s.logger.Info().Str("drive_id", drive.ID).Int("round", number).Msg("round completed")
	return AdvanceOutcome{Round: &response}, nil
}

// shortlistResumes scores every enrolled candidate, records the verdicts, and
// initializes per-round state rows for the shortlisted ones. This is the only
// place candidate round rows are created.
func (s *driveStateService) shortlistResumes(ctx context.Context, drive models.Drive) (AdvanceOutcome, error) {
	if drive.IsTerminal() {
		return AdvanceOutcome{}, ErrDriveCompleted
	}

	candidates, err := s.candidates.ListByDrive(ctx, drive.ID, repository.DriveCandidateFilter{})
	if err != nil {
		return AdvanceOutcome{}, err
	}

	for _, candidate := range candidates {
		decision, err := s.scorer.Score(ctx, ai.ShortlistInput{
			Role:          drive.Role,
			Skills:        drive.Skills,
			CandidateName: candidate.Name,
			ResumeText:    candidate.ResumeText,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("candidate_id", candidate.CandidateID).Msg("shortlist scoring failed, leaving candidate undecided")
			continue
		}

		verdict := models.ShortlistNo
		if decision.Shortlist {
			verdict = models.ShortlistYes
		}
		if err := s.candidates.SetShortlisted(ctx, candidate.ID, verdict); err != nil {
			return AdvanceOutcome{}, err
		}
		observability.ShortlistDecisions().WithLabelValues(verdict).Inc()

		if decision.Shortlist && len(candidate.Rounds) == 0 {
			rounds := models.InitializeCandidateRounds(candidate.ID, drive.Rounds)
			if err := s.candidates.CreateRounds(ctx, rounds); err != nil {
				return AdvanceOutcome{}, err
			}
		}
	}

	fields := map[string]interface{}{
		"status":        models.DriveStatusResumeShortlisted,
		"current_stage": drive.NextStageIndex(),
	}
	if err := s.drives.UpdateFields(ctx, drive.ID, fields); err != nil {
		return AdvanceOutcome{}, err
	}

	s.logger.Info().Str("drive_id", drive.ID).Int("candidates", len(candidates)).Msg("resume shortlisting completed")
	return AdvanceOutcome{Status: &dto.StatusUpdateResponse{DriveID: drive.ID, Status: models.DriveStatusResumeShortlisted}}, nil
}
