package handler_test

import (
	"context"
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

type mockDriveService struct {
	drive      dto.DriveResponse
	candidate  dto.CandidateResponse
	candidates []dto.CandidateResponse
	questions  []models.CodingQuestion
	progress   dto.DriveProgressResponse
	err        error

	lastCreate dto.DriveCreateRequest
	lastEnroll dto.CandidateEnrollRequest
}

func (m *mockDriveService) Create(_ context.Context, payload dto.DriveCreateRequest) (dto.DriveResponse, error) {
	m.lastCreate = payload
	return m.drive, m.err
}

func (m *mockDriveService) Get(_ context.Context, id string) (dto.DriveResponse, error) {
	return m.drive, m.err
}

func (m *mockDriveService) List(_ context.Context, companyID string) ([]dto.DriveResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.DriveResponse{m.drive}, nil
}

func (m *mockDriveService) GetProgress(_ context.Context, id string) (dto.DriveProgressResponse, error) {
	return m.progress, m.err
}

func (m *mockDriveService) Enroll(_ context.Context, driveID string, payload dto.CandidateEnrollRequest) (dto.CandidateResponse, error) {
	m.lastEnroll = payload
	return m.candidate, m.err
}

func (m *mockDriveService) ListCandidates(_ context.Context, driveID string, shortlisted *string) ([]dto.CandidateResponse, error) {
	return m.candidates, m.err
}

func (m *mockDriveService) ListQuestions(_ context.Context, driveID string) ([]models.CodingQuestion, error) {
	return m.questions, m.err
}

func (m *mockDriveService) UploadResume(_ context.Context, driveID, candidateID, fileName string, file io.Reader) (dto.CandidateResponse, error) {
	return m.candidate, m.err
}

type mockDriveStateService struct {
	outcome service.AdvanceOutcome
	err     error
	last    dto.DriveStatusUpdateRequest
}

func (m *mockDriveStateService) Advance(_ context.Context, driveID string, payload dto.DriveStatusUpdateRequest) (service.AdvanceOutcome, error) {
	m.last = payload
	return m.outcome, m.err
}

func newDriveApp(drives service.DriveService, state service.DriveStateService) *fiber.App {
	app := fiber.New()
	h := handler.NewDriveHandler(drives, state, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))
	group := app.Group("/api/v1/drives")
	h.Register(group)
	h.RegisterManagement(group)
	return app
}

func TestDriveHandlerCreate(t *testing.T) {
	svc := &mockDriveService{drive: dto.DriveResponse{ID: "drive-1", JobCode: "ACME-1"}}
	app := newDriveApp(svc, &mockDriveStateService{})

	resp := postJSON(t, app, "/api/v1/drives", dto.DriveCreateRequest{
		CompanyID:        "acme",
		JobCode:          "ACME-1",
		Role:             "Backend Engineer",
		CandidatesToHire: 2,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool              `json:"success"`
		Data    dto.DriveResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "drive-1", response.Data.ID)
	require.Equal(t, "ACME-1", svc.lastCreate.JobCode)
}

func TestDriveHandlerStatusUpdateReturnsRoundOutcome(t *testing.T) {
	next := 2
	state := &mockDriveStateService{outcome: service.AdvanceOutcome{
		Round: &dto.RoundTransitionResponse{DriveID: "drive-1", RoundNumber: 1, RoundType: "coding", NextRound: &next},
	}}
	app := newDriveApp(&mockDriveService{}, state)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/drives/drive-1/status", jsonBody(t, dto.DriveStatusUpdateRequest{Status: "ROUND_COMPLETED"}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.RoundTransitionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, 1, response.Data.RoundNumber)
	require.NotNil(t, response.Data.NextRound)
	require.Equal(t, "ROUND_COMPLETED", state.last.Status)
}

func TestDriveHandlerStatusUpdateReturnsStatusOutcome(t *testing.T) {
	state := &mockDriveStateService{outcome: service.AdvanceOutcome{
		Status: &dto.StatusUpdateResponse{DriveID: "drive-1", Status: models.DriveStatusEmailSent},
	}}
	app := newDriveApp(&mockDriveService{}, state)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/drives/drive-1/status", jsonBody(t, dto.DriveStatusUpdateRequest{Status: models.DriveStatusEmailSent}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.StatusUpdateResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, models.DriveStatusEmailSent, response.Data.Status)
}

func TestDriveHandlerQuestionsMaskPrivateCases(t *testing.T) {
	svc := &mockDriveService{questions: []models.CodingQuestion{
		{
			ID:      "q-1",
			DriveID: "drive-1",
			Title:   "Two Sum",
			TestCases: []models.TestCase{
				{Input: "1 2", Output: "3", Type: models.TestCasePublic},
				{Input: "secret", Output: "secret", Type: models.TestCasePrivate},
			},
		},
	}}
	app := newDriveApp(svc, &mockDriveStateService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drives/drive-1/questions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data []dto.CodingQuestionResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data, 1)
	require.Equal(t, "1 2", response.Data[0].TestCases[0].Input)
	require.Equal(t, models.HiddenValue, response.Data[0].TestCases[1].Input)
	require.Equal(t, models.HiddenValue, response.Data[0].TestCases[1].Output)
}

func TestDriveHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "drive missing", err: service.ErrDriveNotFound, statusCode: fiber.StatusNotFound},
		{name: "duplicate job code", err: service.ErrDuplicateJobCode, statusCode: fiber.StatusConflict},
		{name: "invalid status", err: service.ErrInvalidStatus, statusCode: fiber.StatusBadRequest},
		{name: "drive completed", err: service.ErrDriveCompleted, statusCode: fiber.StatusConflict},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newDriveApp(&mockDriveService{err: tc.err}, &mockDriveStateService{err: tc.err})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/drives/drive-1", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
