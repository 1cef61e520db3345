package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/handler"
	"github.com/sarthi-labs/hireflow-api/internal/models"
)

type stubSubmissionService struct {
	statistics dto.StatisticsResponse
}

func (s stubSubmissionService) GetOrCreate(context.Context, dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, nil
}

func (s stubSubmissionService) Get(context.Context, string) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, nil
}

func (s stubSubmissionService) ListByDrive(context.Context, string) ([]dto.SubmissionResponse, error) {
	return nil, nil
}

func (s stubSubmissionService) ListByCandidate(context.Context, string) ([]dto.SubmissionResponse, error) {
	return nil, nil
}

func (s stubSubmissionService) FinalSubmit(context.Context, dto.FinalSubmitRequest) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, nil
}

func (s stubSubmissionService) GetStatistics(context.Context, string, string) (dto.StatisticsResponse, error) {
	return s.statistics, nil
}

type stubGradingService struct{}

func (stubGradingService) Grade(context.Context, dto.QuestionSubmitRequest) (dto.GradingResponse, error) {
	return dto.GradingResponse{}, nil
}

func TestSubmissionStatisticsContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "submission_statistics.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	submitted := time.Now().UTC()
	statistics := dto.StatisticsResponse{
		SubmissionID:      "a9c9c2f8-0e6a-4a3a-9f0e-6d6a36d9a001",
		CandidateID:       "cand-1",
		DriveID:           "b2d6e3a0-55bb-44a0-8f2c-b64c8e7d1002",
		Status:            models.SubmissionStatusCompleted,
		TotalQuestions:    2,
		QuestionsSolved:   1,
		ProblemsAttempted: 2,
		ScorePercentage:   50,
		TotalTimeTaken:    840,
		StartedAt:         submitted.Add(-time.Hour),
		SubmittedAt:       &submitted,
		QuestionBreakdown: []dto.QuestionBreakdown{
			{QuestionNumber: 1, QuestionID: "q-1", Result: models.SubmissionResultAccepted, TestCasesPassed: 3, TotalTestCases: 3, TimeTaken: 500, ExecutionTimeMS: 120, MemoryUsedMB: 12.5},
			{QuestionNumber: 2, QuestionID: "q-2", Result: models.SubmissionResultWrongAnswer, TestCasesPassed: 1, TotalTestCases: 3, TimeTaken: 340, ExecutionTimeMS: 80, MemoryUsedMB: 10.1},
		},
	}

	h := handler.NewSubmissionHandler(stubSubmissionService{statistics: statistics}, stubGradingService{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	h.Register(app.Group("/api/v1/submissions"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/statistics?candidate_id=cand-1&drive_id=drive-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
