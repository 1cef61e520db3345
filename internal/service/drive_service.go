package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/models"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
	"github.com/sarthi-labs/hireflow-api/internal/schemas"
	"github.com/sarthi-labs/hireflow-api/pkg/storage"
)

// ErrResumeStorageUnavailable indicates no resume storage backend is configured.
var ErrResumeStorageUnavailable = errors.New("resume storage unavailable")

// ErrDriveNotFound indicates the drive cannot be located.
var ErrDriveNotFound = errors.New("drive not found")

// ErrDuplicateJobCode indicates a drive with the same job code already exists.
var ErrDuplicateJobCode = errors.New("job code already in use")

// ErrInvalidQuestion indicates a coding question failed schema validation.
var ErrInvalidQuestion = errors.New("invalid coding question")

// ErrCandidateAlreadyEnrolled indicates the candidate is already part of the drive.
var ErrCandidateAlreadyEnrolled = errors.New("candidate already enrolled")

// ErrCandidateNotFound indicates the candidate is not enrolled in the drive.
var ErrCandidateNotFound = errors.New("candidate not found")

// ErrInvalidExperienceRange indicates experience_min exceeds experience_max.
var ErrInvalidExperienceRange = errors.New("invalid experience range")

var defaultStages = []string{
	models.DriveStatusCreated,
	models.DriveStatusResumeUploaded,
	models.DriveStatusResumeShortlisted,
	models.DriveStatusEmailSent,
	models.DriveStatusSelectionEmailSent,
	models.DriveStatusCompleted,
}

// DriveService exposes drive creation, reads and candidate enrollment.
type DriveService interface {
	Create(ctx context.Context, payload dto.DriveCreateRequest) (dto.DriveResponse, error)
	Get(ctx context.Context, id string) (dto.DriveResponse, error)
	List(ctx context.Context, companyID string) ([]dto.DriveResponse, error)
	GetProgress(ctx context.Context, id string) (dto.DriveProgressResponse, error)
	Enroll(ctx context.Context, driveID string, payload dto.CandidateEnrollRequest) (dto.CandidateResponse, error)
	ListCandidates(ctx context.Context, driveID string, shortlisted *string) ([]dto.CandidateResponse, error)
	ListQuestions(ctx context.Context, driveID string) ([]models.CodingQuestion, error)
	UploadResume(ctx context.Context, driveID, candidateID, fileName string, file io.Reader) (dto.CandidateResponse, error)
}

type driveService struct {
	drives     repository.DriveRepository
	candidates repository.DriveCandidateRepository
	questions  repository.CodingQuestionRepository
	resumes    storage.ResumeUploader
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewDriveService constructs a drive service. The resume uploader is optional;
// without it resume uploads are rejected.
func NewDriveService(drives repository.DriveRepository, candidates repository.DriveCandidateRepository, questions repository.CodingQuestionRepository, resumes storage.ResumeUploader, validate *validator.Validate, logger zerolog.Logger) DriveService {
	return &driveService{
		drives:     drives,
		candidates: candidates,
		questions:  questions,
		resumes:    resumes,
		validator:  validate,
		logger:     logger.With().Str("component", "drive_service").Logger(),
	}
}

func (s *driveService) Create(ctx context.Context, payload dto.DriveCreateRequest) (dto.DriveResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DriveResponse{}, err
	}

	if payload.ExperienceMin != nil && payload.ExperienceMax != nil && *payload.ExperienceMin > *payload.ExperienceMax {
		return dto.DriveResponse{}, ErrInvalidExperienceRange
	}

	for i, question := range payload.CodingQuestions {
		if err := schemas.ValidateCodingQuestion(question); err != nil {
			return dto.DriveResponse{}, fmt.Errorf("%w: question %d: %v", ErrInvalidQuestion, i+1, err)
		}
	}

	if _, err := s.drives.GetByJobCode(ctx, payload.JobCode); err == nil {
		return dto.DriveResponse{}, ErrDuplicateJobCode
	} else if !repository.IsNotFound(err) {
		return dto.DriveResponse{}, err
	}

	jobType := payload.JobType
	if jobType == "" {
		jobType = models.JobTypeFullTime
	}

	drive := models.Drive{
		CompanyID:          payload.CompanyID,
		JobCode:            payload.JobCode,
		Role:               payload.Role,
		Location:           payload.Location,
		CandidatesToHire:   payload.CandidatesToHire,
		JobType:            jobType,
		InternshipDuration: payload.InternshipDuration,
		Skills:             datatypes.NewJSONSlice(payload.Skills),
		ExperienceType:     payload.ExperienceType,
		ExperienceMin:      payload.ExperienceMin,
		ExperienceMax:      payload.ExperienceMax,
		Status:             models.DriveStatusCreated,
		Stages:             datatypes.NewJSONSlice(defaultStages),
		StartDate:          payload.StartDate,
		EndDate:            payload.EndDate,
	}

	for i, round := range payload.Rounds {
		drive.Rounds = append(drive.Rounds, models.DriveRound{
			Number:      i + 1,
			Type:        round.Type,
			Description: round.Description,
			Deadline:    round.Deadline,
			Status:      models.RoundStatusPending,
		})
	}

	if err := s.drives.Create(ctx, &drive); err != nil {
		return dto.DriveResponse{}, err
	}

	if len(payload.CodingQuestions) > 0 {
		questions := make([]models.CodingQuestion, 0, len(payload.CodingQuestions))
		for _, question := range payload.CodingQuestions {
			questions = append(questions, newCodingQuestion(drive.ID, question))
		}
		if err := s.questions.CreateBatch(ctx, questions); err != nil {
			return dto.DriveResponse{}, err
		}
	}

	s.logger.Info().Str("drive_id", drive.ID).Str("job_code", drive.JobCode).Msg("drive created")
	return dto.NewDriveResponse(drive), nil
}

func (s *driveService) Get(ctx context.Context, id string) (dto.DriveResponse, error) {
	drive, err := s.drives.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.DriveResponse{}, ErrDriveNotFound
		}
		return dto.DriveResponse{}, err
	}
	return dto.NewDriveResponse(drive), nil
}

func (s *driveService) List(ctx context.Context, companyID string) ([]dto.DriveResponse, error) {
	var (
		drives []models.Drive
		err    error
	)
	if companyID != "" {
		drives, err = s.drives.ListByCompany(ctx, companyID)
	} else {
		drives, err = s.drives.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DriveResponse, 0, len(drives))
	for _, drive := range drives {
		responses = append(responses, dto.NewDriveResponse(drive))
	}
	return responses, nil
}

func (s *driveService) GetProgress(ctx context.Context, id string) (dto.DriveProgressResponse, error) {
	drive, err := s.drives.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.DriveProgressResponse{}, ErrDriveNotFound
		}
		return dto.DriveProgressResponse{}, err
	}

	candidates, err := s.candidates.ListByDrive(ctx, id, repository.DriveCandidateFilter{})
	if err != nil {
		return dto.DriveProgressResponse{}, err
	}

	details := make([]dto.RoundProgress, 0, len(drive.Rounds))
	for _, round := range drive.Rounds {
		progress := dto.RoundProgress{
			RoundNumber:     round.Number,
			RoundType:       round.Type,
			Status:          round.Status,
			TotalCandidates: len(candidates),
		}

		for _, candidate := range candidates {
			state, ok := candidate.RoundByNumber(round.Number)
			if !ok {
				continue
			}
			if state.Scheduled {
				progress.ScheduledCount++
			}
			if state.Completed {
				progress.CompletedCount++
			}
			if state.Result == models.RoundResultPassed {
				progress.PassedCount++
			}
		}

		if len(candidates) > 0 {
			progress.CompletionPercentage = roundTwo(100 * float64(progress.CompletedCount) / float64(len(candidates)))
		}
		details = append(details, progress)
	}

	return dto.DriveProgressResponse{
		DriveID:         drive.ID,
		JobCode:         drive.JobCode,
		Role:            drive.Role,
		OverallStatus:   drive.Status,
		CurrentRound:    drive.CurrentRound,
		TotalRounds:     len(drive.Rounds),
		TotalCandidates: len(candidates),
		RoundDetails:    details,
	}, nil
}

func (s *driveService) Enroll(ctx context.Context, driveID string, payload dto.CandidateEnrollRequest) (dto.CandidateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CandidateResponse{}, err
	}

	if _, err := s.drives.GetByID(ctx, driveID); err != nil {
		if repository.IsNotFound(err) {
			return dto.CandidateResponse{}, ErrDriveNotFound
		}
		return dto.CandidateResponse{}, err
	}

	if _, err := s.candidates.GetByDriveAndCandidate(ctx, driveID, payload.CandidateID); err == nil {
		return dto.CandidateResponse{}, ErrCandidateAlreadyEnrolled
	} else if !repository.IsNotFound(err) {
		return dto.CandidateResponse{}, err
	}

	candidate := models.DriveCandidate{
		DriveID:     driveID,
		CandidateID: payload.CandidateID,
		Name:        payload.Name,
		Email:       payload.Email,
		ResumeURL:   payload.ResumeURL,
		ResumeText:  payload.ResumeText,
	}
	if err := s.candidates.Create(ctx, &candidate); err != nil {
		return dto.CandidateResponse{}, err
	}

	return dto.NewCandidateResponse(candidate), nil
}

func (s *driveService) ListCandidates(ctx context.Context, driveID string, shortlisted *string) ([]dto.CandidateResponse, error) {
	if _, err := s.drives.GetByID(ctx, driveID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDriveNotFound
		}
		return nil, err
	}

	candidates, err := s.candidates.ListByDrive(ctx, driveID, repository.DriveCandidateFilter{Shortlisted: shortlisted})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		responses = append(responses, dto.NewCandidateResponse(candidate))
	}
	return responses, nil
}

func (s *driveService) ListQuestions(ctx context.Context, driveID string) ([]models.CodingQuestion, error) {
	if _, err := s.drives.GetByID(ctx, driveID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDriveNotFound
		}
		return nil, err
	}
	return s.questions.ListByDrive(ctx, driveID)
}

// UploadResume stores the candidate's resume file and records its URL. When a
// drive receives its first resume it moves to the resumeUploaded status.
func (s *driveService) UploadResume(ctx context.Context, driveID, candidateID, fileName string, file io.Reader) (dto.CandidateResponse, error) {
	if s.resumes == nil {
		return dto.CandidateResponse{}, ErrResumeStorageUnavailable
	}

	drive, err := s.drives.GetByID(ctx, driveID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.CandidateResponse{}, ErrDriveNotFound
		}
		return dto.CandidateResponse{}, err
	}

	candidate, err := s.candidates.GetByDriveAndCandidate(ctx, driveID, candidateID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.CandidateResponse{}, ErrCandidateNotFound
		}
		return dto.CandidateResponse{}, err
	}

	url, err := s.resumes.Upload(ctx, fileName, file)
	if err != nil {
		return dto.CandidateResponse{}, err
	}

	if err := s.candidates.UpdateFields(ctx, candidate.ID, map[string]interface{}{"resume_url": url}); err != nil {
		return dto.CandidateResponse{}, err
	}
	candidate.ResumeURL = url

	if drive.Status == models.DriveStatusCreated {
		fields := map[string]interface{}{
			"status":        models.DriveStatusResumeUploaded,
			"current_stage": drive.NextStageIndex(),
		}
		if err := s.drives.UpdateFields(ctx, drive.ID, fields); err != nil {
			s.logger.Error().Err(err).Str("drive_id", drive.ID).Msg("failed to advance drive after resume upload")
		}
	}

	return dto.NewCandidateResponse(candidate), nil
}

func newCodingQuestion(driveID string, payload dto.CodingQuestionRequest) models.CodingQuestion {
	cases := make([]models.TestCase, 0, len(payload.TestCases))
	for _, testCase := range payload.TestCases {
		kind := testCase.Type
		if kind == "" {
			kind = models.TestCasePublic
		}
		cases = append(cases, models.TestCase{
			Input:  testCase.Input,
			Output: testCase.Output,
			Type:   kind,
		})
	}

	return models.CodingQuestion{
		DriveID:       driveID,
		Title:         payload.Title,
		Description:   payload.Description,
		Constraints:   payload.Constraints,
		Difficulty:    payload.Difficulty,
		Tags:          datatypes.NewJSONSlice(payload.Tags),
		TimeLimitMS:   payload.TimeLimitMS,
		MemoryLimitKB: payload.MemoryLimitKB,
		TestCases:     datatypes.NewJSONSlice(cases),
	}
}
