package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/models"
	"github.com/sarthi-labs/hireflow-api/internal/observability"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
	"github.com/sarthi-labs/hireflow-api/pkg/judge"
)

// ErrQuestionNotFound indicates the coding question cannot be located.
var ErrQuestionNotFound = errors.New("coding question not found")

// ErrQuestionNotInDrive indicates the question belongs to a different drive.
var ErrQuestionNotInDrive = errors.New("question does not belong to drive")

// ErrUnsupportedLanguage indicates the requested language has no judge mapping.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// GradingConfig tunes the grading engine.
type GradingConfig struct {
	// MaxConcurrency bounds the number of test cases judged in parallel per
	// grading request. Values below one run cases sequentially.
	MaxConcurrency int
}

// GradingService grades one question submission against its test cases.
type GradingService interface {
	Grade(ctx context.Context, payload dto.QuestionSubmitRequest) (dto.GradingResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	questions   repository.CodingQuestionRepository
	judge       judge.Client
	statistics  StatisticsAggregator
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	config      GradingConfig
}

// NewGradingService constructs a grading service.
func NewGradingService(submissions repository.SubmissionRepository, questions repository.CodingQuestionRepository, judgeClient judge.Client, statistics StatisticsAggregator, validate *validator.Validate, logger zerolog.Logger, cfg GradingConfig) GradingService {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}

	return &gradingService{
		submissions: submissions,
		questions:   questions,
		judge:       judgeClient,
		statistics:  statistics,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/sarthi-labs/hireflow-api/internal/service/grading"),
		config:      cfg,
	}
}

func (s *gradingService) Grade(ctx context.Context, payload dto.QuestionSubmitRequest) (dto.GradingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradingResponse{}, err
	}

	languageID, err := judge.LanguageID(payload.Language)
	if err != nil {
		return dto.GradingResponse{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, payload.Language)
	}

	// The first code run starts the submission; no explicit create is needed.
	submission, err := lookupOrCreateSubmission(ctx, s.submissions, s.questions, payload.CandidateID, payload.DriveID)
	if err != nil {
		return dto.GradingResponse{}, err
	}
	if submission.IsFinalized() {
		return dto.GradingResponse{}, ErrAlreadySubmitted
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.GradingResponse{}, ErrQuestionNotFound
		}
		return dto.GradingResponse{}, err
	}
	if question.DriveID != payload.DriveID {
		return dto.GradingResponse{}, ErrQuestionNotInDrive
	}

	if err := s.upsertAttempt(ctx, submission.ID, question.ID, payload); err != nil {
		return dto.GradingResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "grading.grade", trace.WithAttributes(
		attribute.String("submission.id", submission.ID),
		attribute.String("question.id", question.ID),
		attribute.String("language", payload.Language),
	))
	defer span.End()

	results := s.runTestCases(spanCtx, payload.SourceCode, languageID, question.TestCases)
	outcome := summarize(results)
	maskPrivateCases(results)

	fields := map[string]interface{}{
		"status":            models.SubmissionStatusCompleted,
		"result":            outcome.Result,
		"test_cases_passed": outcome.Passed,
		"total_test_cases":  len(results),
		"execution_time_ms": outcome.TotalTimeMS,
		"memory_used_mb":    outcome.MaxMemoryMB,
		"error_message":     errorLog(results),
		"test_case_results": datatypes.NewJSONSlice(results),
	}
	if err := s.submissions.UpdateQuestionFields(ctx, submission.ID, question.ID, fields); err != nil {
		span.RecordError(err)
		s.markAttemptErrored(ctx, submission.ID, question.ID, err)
		return dto.GradingResponse{}, err
	}

	observability.GradingsTotal().WithLabelValues(outcome.Result).Inc()

	if err := s.statistics.Recompute(ctx, submission.ID); err != nil {
		s.logger.Error().Err(err).Str("submission_id", submission.ID).Msg("failed to recompute statistics after grading")
	}

	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("question_id", question.ID).
		Str("result", outcome.Result).
		Int("passed", outcome.Passed).
		Int("total", len(results)).
		Msg("question graded")

	return dto.GradingResponse{
		Success:         outcome.Result == models.SubmissionResultAccepted,
		Result:          outcome.Result,
		TestCasesPassed: outcome.Passed,
		TotalTestCases:  len(results),
		Results:         results,
	}, nil
}

// upsertAttempt records the attempt in the running state before judging. The
// (submission, question) pair is stable; re-submissions overwrite in place and
// keep the question_number assigned on first attempt.
func (s *gradingService) upsertAttempt(ctx context.Context, submissionID, questionID string, payload dto.QuestionSubmitRequest) error {
	_, err := s.submissions.GetQuestion(ctx, submissionID, questionID)
	if err == nil {
		return s.submissions.UpdateQuestionFields(ctx, submissionID, questionID, map[string]interface{}{
			"status":      models.SubmissionStatusRunning,
			"source_code": payload.SourceCode,
			"language":    payload.Language,
			"time_taken":  payload.TimeTaken,
		})
	}
	if !repository.IsNotFound(err) {
		return err
	}

	attempted, err := s.submissions.CountQuestions(ctx, submissionID)
	if err != nil {
		return err
	}

	attempt := models.QuestionSubmission{
		SubmissionID:   submissionID,
		QuestionID:     questionID,
		QuestionNumber: int(attempted) + 1,
		SourceCode:     payload.SourceCode,
		Language:       payload.Language,
		Status:         models.SubmissionStatusRunning,
		TimeTaken:      payload.TimeTaken,
	}
	return s.submissions.CreateQuestion(ctx, &attempt)
}

func (s *gradingService) markAttemptErrored(ctx context.Context, submissionID, questionID string, cause error) {
	fields := map[string]interface{}{
		"status":        models.SubmissionStatusError,
		"result":        models.SubmissionResultError,
		"error_message": cause.Error(),
	}
	if err := s.submissions.UpdateQuestionFields(ctx, submissionID, questionID, fields); err != nil {
		s.logger.Error().Err(err).Str("submission_id", submissionID).Msg("failed to mark attempt errored")
	}
}

// runTestCases judges every case and returns results in catalog order. Cases
// run under a bounded worker pool; ordering is preserved by indexing into a
// pre-sized slice, so concurrency never changes the outcome.
func (s *gradingService) runTestCases(ctx context.Context, sourceCode string, languageID int, cases []models.TestCase) []models.TestCaseResult {
	results := make([]models.TestCaseResult, len(cases))

	sem := make(chan struct{}, s.config.MaxConcurrency)
	var wg sync.WaitGroup
	for i, testCase := range cases {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, tc models.TestCase) {
			defer wg.Done()
			defer func() { <-sem }()
			results[index] = s.runTestCase(ctx, sourceCode, languageID, index+1, tc)
		}(i, testCase)
	}
	wg.Wait()

	return results
}

func (s *gradingService) runTestCase(ctx context.Context, sourceCode string, languageID, number int, testCase models.TestCase) models.TestCaseResult {
	result := models.TestCaseResult{
		TestCaseNumber: number,
		Type:           testCase.Type,
		Stdin:          testCase.Input,
		Expected:       testCase.Output,
	}

	// A case without an expected output cannot be judged at all.
	if strings.TrimSpace(testCase.Output) == "" {
		result.Result = models.SubmissionResultInvalid
		result.StatusDescription = models.SubmissionResultInvalid
		return result
	}

	judged, err := s.judge.SubmitAndWait(ctx, sourceCode, languageID, testCase.Input)
	if err != nil {
		// Transport failures count against this case only; the rest of the
		// run proceeds.
		s.logger.Warn().Err(err).Int("test_case", number).Msg("judge execution failed")
		result.Result = models.SubmissionResultError
		result.StatusDescription = models.SubmissionResultError
		result.Stderr = err.Error()
		return result
	}

	result.StatusID = judged.Status.ID
	result.StatusDescription = judged.Status.Description
	result.Stdout = judged.Stdout
	result.Stderr = combineJudgeErrors(judged)
	result.Time = judged.Time
	result.Memory = judged.Memory

	switch {
	case judged.Status.ID == judge.StatusAccepted && outputsMatch(judged.Stdout, testCase.Output):
		result.Result = models.SubmissionResultAccepted
	case judged.Status.ID == judge.StatusAccepted:
		result.Result = models.SubmissionResultWrongAnswer
	default:
		result.Result = judged.Status.Description
	}

	return result
}

type gradingOutcome struct {
	Result      string
	Passed      int
	TotalTimeMS int64
	MaxMemoryMB float64
}

// summarize folds per-case results into the overall verdict: all pass means
// Accepted, a partial pass means Wrong Answer, and a full miss reports the
// first case's classification.
func summarize(results []models.TestCaseResult) gradingOutcome {
	outcome := gradingOutcome{Result: models.SubmissionResultError}

	for _, result := range results {
		if result.Result == models.SubmissionResultAccepted {
			outcome.Passed++
		}
		if seconds, err := strconv.ParseFloat(result.Time, 64); err == nil {
			outcome.TotalTimeMS += int64(seconds * 1000)
		}
		if mb := result.Memory / 1024; mb > outcome.MaxMemoryMB {
			outcome.MaxMemoryMB = mb
		}
	}
	outcome.MaxMemoryMB = roundTwo(outcome.MaxMemoryMB)

	switch {
	case len(results) == 0:
	case outcome.Passed == len(results):
		outcome.Result = models.SubmissionResultAccepted
	case outcome.Passed > 0:
		outcome.Result = models.SubmissionResultWrongAnswer
	default:
		outcome.Result = results[0].Result
	}

	return outcome
}

// maskPrivateCases hides the data of private test cases in place. The
// classification, timing and memory figures stay visible.
func maskPrivateCases(results []models.TestCaseResult) {
	for i := range results {
		if results[i].Type != models.TestCasePrivate {
			continue
		}
		results[i].Stdin = models.HiddenValue
		results[i].Expected = models.HiddenValue
		results[i].Stdout = models.HiddenValue
		if results[i].Stderr != "" {
			results[i].Stderr = models.HiddenValue
		}
	}
}

// errorLog joins per-case error output into one message. It runs after
// masking, so private case data never leaks through the aggregate.
func errorLog(results []models.TestCaseResult) string {
	var lines []string
	for _, result := range results {
		if result.Stderr == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("TC %d Error: %s", result.TestCaseNumber, result.Stderr))
	}
	return strings.Join(lines, "\n")
}

func combineJudgeErrors(judged judge.Result) string {
	if judged.Stderr != "" {
		return judged.Stderr
	}
	return judged.CompileOutput
}

func outputsMatch(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}
