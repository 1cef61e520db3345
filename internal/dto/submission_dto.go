package dto

import (
	"time"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

// SubmissionCreateRequest starts (or returns) a candidate's assessment attempt.
type SubmissionCreateRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	DriveID     string `json:"drive_id" validate:"required"`
}

// QuestionSubmitRequest submits one question's code for grading.
type QuestionSubmitRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	DriveID     string `json:"drive_id" validate:"required"`
	QuestionID  string `json:"question_id" validate:"required"`
	SourceCode  string `json:"source_code" validate:"required,min=1"`
	Language    string `json:"language" validate:"required"`
	TimeTaken   int    `json:"time_taken" validate:"omitempty,gte=0"`
}

// FinalSubmitRequest marks the assessment as submitted.
type FinalSubmitRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	DriveID     string `json:"drive_id" validate:"required"`
}

// QuestionSubmissionResponse serializes one question attempt.
type QuestionSubmissionResponse struct {
	QuestionID      string                  `json:"question_id"`
	QuestionNumber  int                     `json:"question_number"`
	Language        string                  `json:"language"`
	Status          string                  `json:"status"`
	Result          string                  `json:"result,omitempty"`
	TestCasesPassed int                     `json:"test_cases_passed"`
	TotalTestCases  int                     `json:"total_test_cases"`
	ExecutionTimeMS int64                   `json:"execution_time"`
	MemoryUsedMB    float64                 `json:"memory_used"`
	TimeTaken       int                     `json:"time_taken"`
	TestCaseResults []models.TestCaseResult `json:"test_case_results"`
}

// SubmissionResponse serializes an assessment submission.
type SubmissionResponse struct {
	ID              string                       `json:"id"`
	CandidateID     string                       `json:"candidate_id"`
	DriveID         string                       `json:"drive_id"`
	TotalQuestions  int                          `json:"total_questions"`
	QuestionsSolved int                          `json:"questions_solved"`
	ScorePercentage float64                      `json:"score_percentage"`
	TotalTimeTaken  int                          `json:"total_time_taken"`
	Status          string                       `json:"status"`
	StartedAt       time.Time                    `json:"started_at"`
	SubmittedAt     *time.Time                   `json:"submitted_at,omitempty"`
	Questions       []QuestionSubmissionResponse `json:"question_submissions"`
}

// GradingResponse is returned after grading one question.
type GradingResponse struct {
	Success         bool                    `json:"success"`
	Result          string                  `json:"result"`
	TestCasesPassed int                     `json:"test_cases_passed"`
	TotalTestCases  int                     `json:"total_test_cases"`
	Results         []models.TestCaseResult `json:"results"`
}

// QuestionBreakdown summarizes one question inside a statistics view.
type QuestionBreakdown struct {
	QuestionNumber  int     `json:"question_number"`
	QuestionID      string  `json:"question_id"`
	Result          string  `json:"result,omitempty"`
	TestCasesPassed int     `json:"test_cases_passed"`
	TotalTestCases  int     `json:"total_test_cases"`
	TimeTaken       int     `json:"time_taken"`
	ExecutionTimeMS int64   `json:"execution_time"`
	MemoryUsedMB    float64 `json:"memory_used"`
}

// StatisticsResponse is the roll-up view of a submission.
type StatisticsResponse struct {
	SubmissionID      string              `json:"submission_id"`
	CandidateID       string              `json:"candidate_id"`
	DriveID           string              `json:"drive_id"`
	Status            string              `json:"status"`
	TotalQuestions    int                 `json:"total_questions"`
	QuestionsSolved   int                 `json:"questions_solved"`
	ProblemsAttempted int                 `json:"problems_attempted"`
	ScorePercentage   float64             `json:"score_percentage"`
	TotalTimeTaken    int                 `json:"total_time_taken"`
	StartedAt         time.Time           `json:"started_at"`
	SubmittedAt       *time.Time          `json:"submitted_at,omitempty"`
	QuestionBreakdown []QuestionBreakdown `json:"question_breakdown"`
}

// NewQuestionSubmissionResponse builds a question attempt DTO from a model.
func NewQuestionSubmissionResponse(question models.QuestionSubmission) QuestionSubmissionResponse {
	return QuestionSubmissionResponse{
		QuestionID:      question.QuestionID,
		QuestionNumber:  question.QuestionNumber,
		Language:        question.Language,
		Status:          question.Status,
		Result:          question.Result,
		TestCasesPassed: question.TestCasesPassed,
		TotalTestCases:  question.TotalTestCases,
		ExecutionTimeMS: question.ExecutionTimeMS,
		MemoryUsedMB:    question.MemoryUsedMB,
		TimeTaken:       question.TimeTaken,
		TestCaseResults: question.TestCaseResults,
	}
}

// NewSubmissionResponse builds a submission DTO from a model.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	questions := make([]QuestionSubmissionResponse, 0, len(submission.Questions))
	for _, question := range submission.Questions {
		questions = append(questions, NewQuestionSubmissionResponse(question))
	}

	return SubmissionResponse{
		ID:              submission.ID,
		CandidateID:     submission.CandidateID,
		DriveID:         submission.DriveID,
		TotalQuestions:  submission.TotalQuestions,
		QuestionsSolved: submission.QuestionsSolved,
		ScorePercentage: submission.ScorePercentage,
		TotalTimeTaken:  submission.TotalTimeTaken,
		Status:          submission.Status,
		StartedAt:       submission.StartedAt,
		SubmittedAt:     submission.SubmittedAt,
		Questions:       questions,
	}
}

// NewStatisticsResponse builds the roll-up view from a submission model.
func NewStatisticsResponse(submission models.Submission) StatisticsResponse {
	breakdown := make([]QuestionBreakdown, 0, len(submission.Questions))
	for _, question := range submission.Questions {
		breakdown = append(breakdown, QuestionBreakdown{
			QuestionNumber:  question.QuestionNumber,
			QuestionID:      question.QuestionID,
			Result:          question.Result,
			TestCasesPassed: question.TestCasesPassed,
			TotalTestCases:  question.TotalTestCases,
			TimeTaken:       question.TimeTaken,
			ExecutionTimeMS: question.ExecutionTimeMS,
			MemoryUsedMB:    question.MemoryUsedMB,
		})
	}

	return StatisticsResponse{
		SubmissionID:      submission.ID,
		CandidateID:       submission.CandidateID,
		DriveID:           submission.DriveID,
		Status:            submission.Status,
		TotalQuestions:    submission.TotalQuestions,
		QuestionsSolved:   submission.QuestionsSolved,
		ProblemsAttempted: len(submission.Questions),
		ScorePercentage:   submission.ScorePercentage,
		TotalTimeTaken:    submission.TotalTimeTaken,
		StartedAt:         submission.StartedAt,
		SubmittedAt:       submission.SubmittedAt,
		QuestionBreakdown: breakdown,
	}
}
