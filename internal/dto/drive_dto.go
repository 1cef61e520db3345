package dto

import (
	"time"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

// RoundSpecRequest describes one round of the drive being created.
type RoundSpecRequest struct {
	Type        string     `json:"type" validate:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// TestCaseRequest describes one test case of an inline coding question.
type TestCaseRequest struct {
	Input  string `json:"input"`
	Output string `json:"output" validate:"required"`
	Type   string `json:"type" validate:"omitempty,oneof=public private"`
}

// CodingQuestionRequest describes an inline coding question of a drive.
type CodingQuestionRequest struct {
	Title         string            `json:"title" validate:"required"`
	Description   string            `json:"description"`
	Constraints   string            `json:"constraints"`
	Difficulty    string            `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Tags          []string          `json:"tags,omitempty"`
	TimeLimitMS   *int              `json:"time_limit_ms,omitempty" validate:"omitempty,gt=0"`
	MemoryLimitKB *int              `json:"memory_limit_kb,omitempty" validate:"omitempty,gt=0"`
	TestCases     []TestCaseRequest `json:"test_cases" validate:"required,min=1,dive"`
}

// DriveCreateRequest is the payload for creating a hiring drive.
type DriveCreateRequest struct {
	CompanyID          string                  `json:"company_id" validate:"required"`
	JobCode            string                  `json:"job_code" validate:"required"`
	Role               string                  `json:"role" validate:"required"`
	Location           string                  `json:"location"`
	CandidatesToHire   int                     `json:"candidates_to_hire" validate:"required,gte=1"`
	JobType            string                  `json:"job_type" validate:"omitempty,oneof=full-time internship"`
	InternshipDuration string                  `json:"internship_duration"`
	Skills             []string                `json:"skills"`
	ExperienceType     string                  `json:"experience_type" validate:"omitempty,oneof=fresher experienced"`
	ExperienceMin      *int                    `json:"experience_min" validate:"omitempty,gte=0"`
	ExperienceMax      *int                    `json:"experience_max" validate:"omitempty,gte=0"`
	StartDate          *time.Time              `json:"start_date"`
	EndDate            *time.Time              `json:"end_date"`
	Rounds             []RoundSpecRequest      `json:"rounds" validate:"omitempty,dive"`
	CodingQuestions    []CodingQuestionRequest `json:"coding_questions" validate:"omitempty,dive"`
}

// DriveStatusUpdateRequest requests a state-machine transition by name.
type DriveStatusUpdateRequest struct {
	Status      string `json:"status" validate:"required"`
	RoundNumber *int   `json:"round_number" validate:"omitempty,gte=1"`
	RoundType   string `json:"round_type"`
}

// CandidateEnrollRequest enrolls a candidate into a drive.
type CandidateEnrollRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	ResumeURL   string `json:"resume_url"`
	ResumeText  string `json:"resume_text"`
}

// DriveProgress summarizes a drive's round progression for list views.
type DriveProgress struct {
	CurrentRound int     `json:"current_round"`
	TotalRounds  int     `json:"total_rounds"`
	Percentage   float64 `json:"percentage"`
}

// RoundResponse serializes one round of a drive.
type RoundResponse struct {
	ID          string     `json:"id"`
	RoundNumber int        `json:"round_number"`
	RoundType   string     `json:"round_type"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      string     `json:"status"`
	Scheduled   bool       `json:"scheduled"`
	Completed   bool       `json:"completed"`
}

// DriveResponse serializes a drive for API clients.
type DriveResponse struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"company_id"`
	JobCode            string          `json:"job_code"`
	Role               string          `json:"role"`
	Location           string          `json:"location"`
	CandidatesToHire   int             `json:"candidates_to_hire"`
	JobType            string          `json:"job_type"`
	InternshipDuration string          `json:"internship_duration,omitempty"`
	Skills             []string        `json:"skills"`
	ExperienceType     string          `json:"experience_type"`
	ExperienceMin      *int            `json:"experience_min,omitempty"`
	ExperienceMax      *int            `json:"experience_max,omitempty"`
	Status             string          `json:"status"`
	CurrentRound       int             `json:"current_round"`
	Stages             []string        `json:"stages"`
	CurrentStage       int             `json:"current_stage"`
	Rounds             []RoundResponse `json:"rounds"`
	Progress           DriveProgress   `json:"progress"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// StatusUpdateResponse acknowledges a generic status transition.
type StatusUpdateResponse struct {
	DriveID string `json:"drive_id"`
	Status  string `json:"status"`
}

// RoundTransitionResponse reports the outcome of a round-level transition.
type RoundTransitionResponse struct {
	DriveID       string `json:"drive_id"`
	RoundNumber   int    `json:"round_number"`
	RoundType     string `json:"round_type"`
	NextRound     *int   `json:"next_round,omitempty"`
	NextRoundType string `json:"next_round_type,omitempty"`
}

// RoundProgress reports per-round candidate statistics.
type RoundProgress struct {
	RoundNumber          int     `json:"round_number"`
	RoundType            string  `json:"round_type"`
	Status               string  `json:"status"`
	ScheduledCount       int     `json:"scheduled_count"`
	CompletedCount       int     `json:"completed_count"`
	PassedCount          int     `json:"passed_count"`
	TotalCandidates      int     `json:"total_candidates"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// DriveProgressResponse is the detailed progress view of a drive.
type DriveProgressResponse struct {
	DriveID         string          `json:"drive_id"`
	JobCode         string          `json:"job_code"`
	Role            string          `json:"role"`
	OverallStatus   string          `json:"overall_status"`
	CurrentRound    int             `json:"current_round"`
	TotalRounds     int             `json:"total_rounds"`
	TotalCandidates int             `json:"total_candidates"`
	RoundDetails    []RoundProgress `json:"round_details"`
}

// CandidateRoundResponse serializes a candidate's state for one round.
type CandidateRoundResponse struct {
	RoundID       string   `json:"round_id"`
	RoundNumber   int      `json:"round_number"`
	RoundType     string   `json:"round_type"`
	Status        string   `json:"status"`
	Scheduled     bool     `json:"scheduled"`
	Completed     bool     `json:"completed"`
	Result        string   `json:"result,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	InterviewLink string   `json:"interview_link,omitempty"`
}

// CandidateResponse serializes a drive enrollment.
type CandidateResponse struct {
	ID                string                   `json:"id"`
	DriveID           string                   `json:"drive_id"`
	CandidateID       string                   `json:"candidate_id"`
	Name              string                   `json:"name"`
	Email             string                   `json:"email"`
	ResumeURL         string                   `json:"resume_url,omitempty"`
	ResumeShortlisted string                   `json:"resume_shortlisted"`
	RoundsStatus      []CandidateRoundResponse `json:"rounds_status"`
}

// TestCaseResponse serializes one test case. Private case data is masked.
type TestCaseResponse struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Type   string `json:"type"`
}

// CodingQuestionResponse serializes a coding question for candidates.
type CodingQuestionResponse struct {
	ID            string             `json:"id"`
	DriveID       string             `json:"drive_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Constraints   string             `json:"constraints,omitempty"`
	Difficulty    string             `json:"difficulty"`
	Tags          []string           `json:"tags"`
	TimeLimitMS   *int               `json:"time_limit_ms,omitempty"`
	MemoryLimitKB *int               `json:"memory_limit_kb,omitempty"`
	TestCases     []TestCaseResponse `json:"test_cases"`
}

// NewCodingQuestionResponse builds a question DTO with private cases masked.
func NewCodingQuestionResponse(question models.CodingQuestion) CodingQuestionResponse {
	cases := make([]TestCaseResponse, 0, len(question.TestCases))
	for _, testCase := range question.TestCases {
		view := TestCaseResponse{
			Input:  testCase.Input,
			Output: testCase.Output,
			Type:   testCase.Type,
		}
		if testCase.IsPrivate() {
			view.Input = models.HiddenValue
			view.Output = models.HiddenValue
		}
		cases = append(cases, view)
	}

	return CodingQuestionResponse{
		ID:            question.ID,
		DriveID:       question.DriveID,
		Title:         question.Title,
		Description:   question.Description,
		Constraints:   question.Constraints,
		Difficulty:    question.Difficulty,
		Tags:          question.Tags,
		TimeLimitMS:   question.TimeLimitMS,
		MemoryLimitKB: question.MemoryLimitKB,
		TestCases:     cases,
	}
}

// NewRoundResponse builds a round DTO from a model.
func NewRoundResponse(round models.DriveRound) RoundResponse {
	return RoundResponse{
		ID:          round.ID,
		RoundNumber: round.Number,
		RoundType:   round.Type,
		Description: round.Description,
		Deadline:    round.Deadline,
		Status:      round.Status,
		Scheduled:   round.Scheduled,
		Completed:   round.Completed,
	}
}

// NewDriveResponse builds a drive DTO from a model.
func NewDriveResponse(drive models.Drive) DriveResponse {
	rounds := make([]RoundResponse, 0, len(drive.Rounds))
	for _, round := range drive.Rounds {
		rounds = append(rounds, NewRoundResponse(round))
	}

	percentage := 0.0
	if len(drive.Rounds) > 0 {
		percentage = float64(drive.CurrentRound) / float64(len(drive.Rounds)) * 100
	}

	return DriveResponse{
		ID:                 drive.ID,
		CompanyID:          drive.CompanyID,
		JobCode:            drive.JobCode,
		Role:               drive.Role,
		Location:           drive.Location,
		CandidatesToHire:   drive.CandidatesToHire,
		JobType:            drive.JobType,
		InternshipDuration: drive.InternshipDuration,
		Skills:             drive.Skills,
		ExperienceType:     drive.ExperienceType,
		ExperienceMin:      drive.ExperienceMin,
		ExperienceMax:      drive.ExperienceMax,
		Status:             drive.Status,
		CurrentRound:       drive.CurrentRound,
		Stages:             drive.Stages,
		CurrentStage:       drive.CurrentStage,
		Rounds:             rounds,
		Progress: DriveProgress{
			CurrentRound: drive.CurrentRound,
			TotalRounds:  len(drive.Rounds),
			Percentage:   percentage,
		},
		CreatedAt: drive.CreatedAt,
		UpdatedAt: drive.UpdatedAt,
	}
}

// NewCandidateResponse builds a candidate DTO from a model.
func NewCandidateResponse(candidate models.DriveCandidate) CandidateResponse {
	rounds := make([]CandidateRoundResponse, 0, len(candidate.Rounds))
	for _, round := range candidate.Rounds {
		rounds = append(rounds, CandidateRoundResponse{
			RoundID:       round.RoundID,
			RoundNumber:   round.Number,
			RoundType:     round.Type,
			Status:        round.Status,
			Scheduled:     round.Scheduled,
			Completed:     round.Completed,
			Result:        round.Result,
			Score:         round.Score,
			Feedback:      round.Feedback,
			InterviewLink: round.InterviewLink,
		})
	}

	return CandidateResponse{
		ID:                candidate.ID,
		DriveID:           candidate.DriveID,
		CandidateID:       candidate.CandidateID,
		Name:              candidate.Name,
		Email:             candidate.Email,
		ResumeURL:         candidate.ResumeURL,
		ResumeShortlisted: candidate.ResumeShortlisted,
		RoundsStatus:      rounds,
	}
}
