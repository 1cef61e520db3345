package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-labs/hireflow-api/internal/dto"
	"github.com/sarthi-labs/hireflow-api/internal/handler"
	"github.com/sarthi-labs/hireflow-api/internal/models"
	"github.com/sarthi-labs/hireflow-api/internal/service"
)

type mockSubmissionService struct {
	submission dto.SubmissionResponse
	statistics dto.StatisticsResponse
	err        error

	lastCreate dto.SubmissionCreateRequest
	lastFinal  dto.FinalSubmitRequest
}

func (m *mockSubmissionService) GetOrCreate(_ context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	m.lastCreate = payload
	return m.submission, m.err
}

func (m *mockSubmissionService) Get(_ context.Context, id string) (dto.SubmissionResponse, error) {
	return m.submission, m.err
}

func (m *mockSubmissionService) ListByDrive(_ context.Context, driveID string) ([]dto.SubmissionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.SubmissionResponse{m.submission}, nil
}

func (m *mockSubmissionService) ListByCandidate(_ context.Context, candidateID string) ([]dto.SubmissionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.SubmissionResponse{m.submission}, nil
}

func (m *mockSubmissionService) FinalSubmit(_ context.Context, payload dto.FinalSubmitRequest) (dto.SubmissionResponse, error) {
	m.lastFinal = payload
	return m.submission, m.err
}

func (m *mockSubmissionService) GetStatistics(_ context.Context, candidateID, driveID string) (dto.StatisticsResponse, error) {
	return m.statistics, m.err
}

type mockGradingService struct {
	response dto.GradingResponse
	err      error
	last     dto.QuestionSubmitRequest
}

func (m *mockGradingService) Grade(_ context.Context, payload dto.QuestionSubmitRequest) (dto.GradingResponse, error) {
	m.last = payload
	return m.response, m.err
}

func newSubmissionApp(submissions service.SubmissionService, grading service.GradingService) *fiber.App {
	app := fiber.New()
	h := handler.NewSubmissionHandler(submissions, grading, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))
	h.Register(app.Group("/api/v1/submissions"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func jsonBody(t *testing.T, payload interface{}) io.Reader {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestSubmissionHandlerCreate(t *testing.T) {
	svc := &mockSubmissionService{submission: dto.SubmissionResponse{ID: "sub-1", CandidateID: "cand-1", DriveID: "drive-1"}}
	app := newSubmissionApp(svc, &mockGradingService{})

	resp := postJSON(t, app, "/api/v1/submissions", dto.SubmissionCreateRequest{CandidateID: "cand-1", DriveID: "drive-1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "sub-1", response.Data.ID)
	require.Equal(t, "cand-1", svc.lastCreate.CandidateID)
}

func TestSubmissionHandlerSubmitQuestion(t *testing.T) {
	grading := &mockGradingService{response: dto.GradingResponse{
		Success:         true,
		Result:          models.SubmissionResultAccepted,
		TestCasesPassed: 2,
		TotalTestCases:  2,
	}}
	app := newSubmissionApp(&mockSubmissionService{}, grading)

	resp := postJSON(t, app, "/api/v1/submissions/questions", dto.QuestionSubmitRequest{
		CandidateID: "cand-1",
		DriveID:     "drive-1",
		QuestionID:  "q-1",
		SourceCode:  "print(1)",
		Language:    "python",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                `json:"success"`
		Data    dto.GradingResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, models.SubmissionResultAccepted, response.Data.Result)
	require.Equal(t, "q-1", grading.last.QuestionID)
}

func TestSubmissionHandlerStatisticsRequiresBothIDs(t *testing.T) {
	app := newSubmissionApp(&mockSubmissionService{}, &mockGradingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/statistics?candidate_id=cand-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerStatisticsRouteWinsOverGet(t *testing.T) {
	svc := &mockSubmissionService{statistics: dto.StatisticsResponse{SubmissionID: "sub-1", QuestionsSolved: 2}}
	app := newSubmissionApp(svc, &mockGradingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/statistics?candidate_id=cand-1&drive_id=drive-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.StatisticsResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, "sub-1", response.Data.SubmissionID)
}

func TestSubmissionHandlerListRequiresFilter(t *testing.T) {
	app := newSubmissionApp(&mockSubmissionService{}, &mockGradingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "submission missing", err: service.ErrSubmissionNotFound, statusCode: fiber.StatusNotFound},
		{name: "already submitted", err: service.ErrAlreadySubmitted, statusCode: fiber.StatusConflict},
		{name: "unsupported language", err: service.ErrUnsupportedLanguage, statusCode: fiber.StatusBadRequest},
		{name: "question outside drive", err: service.ErrQuestionNotInDrive, statusCode: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSubmissionApp(&mockSubmissionService{err: tc.err}, &mockGradingService{err: tc.err})

			resp := postJSON(t, app, "/api/v1/submissions/final", dto.FinalSubmitRequest{CandidateID: "cand-1", DriveID: "drive-1"})
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
