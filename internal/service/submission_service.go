package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/models"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
)

// ErrSubmissionNotFound indicates the submission cannot be located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAlreadySubmitted indicates the assessment was already finalized.
var ErrAlreadySubmitted = errors.New("assessment already submitted")

// SubmissionService owns the lifecycle of coding-assessment submissions:
// idempotent creation, finalization and statistics reads.
type SubmissionService interface {
	GetOrCreate(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id string) (dto.SubmissionResponse, error)
	ListByDrive(ctx context.Context, driveID string) ([]dto.SubmissionResponse, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]dto.SubmissionResponse, error)
	FinalSubmit(ctx context.Context, payload dto.FinalSubmitRequest) (dto.SubmissionResponse, error)
	GetStatistics(ctx context.Context, candidateID, driveID string) (dto.StatisticsResponse, error)
}

// SubmissionConfig tunes submission-side caching.
type SubmissionConfig struct {
	StatisticsCacheTTL time.Duration
}

type submissionService struct {
	submissions repository.SubmissionRepository
	drives      repository.DriveRepository
	questions   repository.CodingQuestionRepository
	statistics  StatisticsAggregator
	redis       *redis.Client
	validator   *validator.Validate
	logger      zerolog.Logger
	config      SubmissionConfig
}

// NewSubmissionService constructs a submission service. The Redis client is
// optional; without it statistics reads always hit the database.
func NewSubmissionService(submissions repository.SubmissionRepository, drives repository.DriveRepository, questions repository.CodingQuestionRepository, statistics StatisticsAggregator, redisClient *redis.Client, validate *validator.Validate, logger zerolog.Logger, cfg SubmissionConfig) SubmissionService {
	if cfg.StatisticsCacheTTL <= 0 {
		cfg.StatisticsCacheTTL = 30 * time.Second
	}

	return &submissionService{
		submissions: submissions,
		drives:      drives,
		questions:   questions,
		statistics:  statistics,
		redis:       redisClient,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		config:      cfg,
	}
}

// lookupOrCreateSubmission returns the submission for the (candidate, drive)
// pair, creating the row on first use. Finalization, grading and the explicit
// start-assessment call all go through here, so the first code run works
// without a prior create. Creation snapshots the drive's question count; the
// unique pair index resolves concurrent first calls.
func lookupOrCreateSubmission(ctx context.Context, submissions repository.SubmissionRepository, questions repository.CodingQuestionRepository, candidateID, driveID string) (models.Submission, error) {
	existing, err := submissions.GetByCandidateAndDrive(ctx, candidateID, driveID)
	if err == nil {
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return models.Submission{}, err
	}

	total, err := questions.CountByDrive(ctx, driveID)
	if err != nil {
		return models.Submission{}, err
	}

	submission := models.Submission{
		CandidateID:    candidateID,
		DriveID:        driveID,
		TotalQuestions: int(total),
		Status:         models.SubmissionStatusPending,
		StartedAt:      time.Now().UTC(),
	}
	if err := submissions.Create(ctx, &submission); err != nil {
		// A concurrent first call may have won the unique-pair race.
		if won, lookupErr := submissions.GetByCandidateAndDrive(ctx, candidateID, driveID); lookupErr == nil {
			return won, nil
		}
		return models.Submission{}, err
	}
	return submission, nil
}

// GetOrCreate returns the candidate's submission for the drive, creating it on
// first call. At most one submission exists per (candidate, drive) pair.
func (s *submissionService) GetOrCreate(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	existing, err := s.submissions.GetByCandidateAndDrive(ctx, payload.CandidateID, payload.DriveID)
	if err == nil {
		return dto.NewSubmissionResponse(existing), nil
	}
	if !repository.IsNotFound(err) {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.drives.GetByID(ctx, payload.DriveID); err != nil {
		if repository.IsNotFound(err) {
			return dto.SubmissionResponse{}, ErrDriveNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission, err := lookupOrCreateSubmission(ctx, s.submissions, s.questions, payload.CandidateID, payload.DriveID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Str("submission_id", submission.ID).Str("drive_id", payload.DriveID).Msg("submission started")
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id string) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByDrive(ctx context.Context, driveID string) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByDrive(ctx, driveID)
	if err != nil {
		return nil, err
	}
	return newSubmissionResponses(submissions), nil
}

func (s *submissionService) ListByCandidate(ctx context.Context, candidateID string) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return newSubmissionResponses(submissions), nil
}

// FinalSubmit freezes the assessment. A missing submission is started on the
// spot, so a candidate who never ran code still ends up with a frozen empty
// record. Statistics are recomputed first so the frozen record carries final
// counters. Finalizing twice is a no-op.
func (s *submissionService) FinalSubmit(ctx context.Context, payload dto.FinalSubmitRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByCandidateAndDrive(ctx, payload.CandidateID, payload.DriveID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return dto.SubmissionResponse{}, err
		}
		if _, driveErr := s.drives.GetByID(ctx, payload.DriveID); driveErr != nil {
			if repository.IsNotFound(driveErr) {
				return dto.SubmissionResponse{}, ErrDriveNotFound
			}
			return dto.SubmissionResponse{}, driveErr
		}
		submission, err = lookupOrCreateSubmission(ctx, s.submissions, s.questions, payload.CandidateID, payload.DriveID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	if submission.IsFinalized() {
		return dto.NewSubmissionResponse(submission), nil
	}

	if err := s.statistics.Recompute(ctx, submission.ID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":       models.SubmissionStatusCompleted,
		"submitted_at": now,
	}
	if err := s.submissions.UpdateFields(ctx, submission.ID, fields); err != nil {
		return dto.SubmissionResponse{}, err
	}

	finalized, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Str("submission_id", submission.ID).Msg("assessment finalized")
	return dto.NewSubmissionResponse(finalized), nil
}

func (s *submissionService) GetStatistics(ctx context.Context, candidateID, driveID string) (dto.StatisticsResponse, error) {
	cacheKey := statisticsCacheKey(candidateID, driveID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StatisticsResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				return response, nil
			}
		}
	}

	submission, err := s.submissions.GetByCandidateAndDrive(ctx, candidateID, driveID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.StatisticsResponse{}, ErrSubmissionNotFound
		}
		return dto.StatisticsResponse{}, err
	}

	response := dto.NewStatisticsResponse(submission)

	if s.redis != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.redis.Set(ctx, cacheKey, payload, s.config.StatisticsCacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to cache statistics")
			}
		}
	}

	return response, nil
}

func newSubmissionResponses(submissions []models.Submission) []dto.SubmissionResponse {
	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission))
	}
	return responses
}
