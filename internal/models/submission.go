package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission lifecycle states.
const (
	SubmissionStatusPending   = "pending"
	SubmissionStatusRunning   = "running"
	SubmissionStatusCompleted = "completed"
	SubmissionStatusError     = "error"
)

// Canonical grading results. Judge-reported failures keep the judge's own
// description (for example "Time Limit Exceeded"), so Result is not a closed
// enum beyond these values.
const (
	SubmissionResultAccepted    = "Accepted"
	SubmissionResultWrongAnswer = "Wrong Answer"
	SubmissionResultError       = "Error"
	SubmissionResultInvalid     = "Invalid Test Case"
)

// HiddenValue replaces private test-case data in any persisted or returned
// view. Classification and timing are never masked.
const HiddenValue = "[Hidden]"

// Submission is a candidate's complete attempt at a drive's coding assessment.
// Exactly one exists per (candidate, drive) pair.
type Submission struct {
	ID              string               `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID     string               `gorm:"size:64;not null;uniqueIndex:idx_submission_candidate_drive" json:"candidate_id"`
	DriveID         string               `gorm:"type:uuid;not null;uniqueIndex:idx_submission_candidate_drive" json:"drive_id"`
	TotalQuestions  int                  `gorm:"not null" json:"total_questions"`
	QuestionsSolved int                  `gorm:"default:0" json:"questions_solved"`
	ScorePercentage float64              `gorm:"default:0" json:"score_percentage"`
	TotalTimeTaken  int                  `gorm:"default:0" json:"total_time_taken"`
	Status          string               `gorm:"size:32;not null" json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	SubmittedAt     *time.Time           `json:"submitted_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Questions       []QuestionSubmission `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question_submissions,omitempty"`
}

// BeforeCreate assigns a UUID identifier when none is provided.
func (s *Submission) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsFinalized reports whether the candidate has submitted the assessment.
func (s Submission) IsFinalized() bool {
	return s.Status == SubmissionStatusCompleted
}

// QuestionSubmission is one question's attempt inside a submission.
// Re-submitting the same question overwrites this record in place.
type QuestionSubmission struct {
	ID              string                              `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID    string                              `gorm:"type:uuid;not null;uniqueIndex:idx_question_submission" json:"-"`
	QuestionID      string                              `gorm:"type:uuid;not null;uniqueIndex:idx_question_submission" json:"question_id"`
	QuestionNumber  int                                 `gorm:"not null" json:"question_number"`
	SourceCode      string                              `gorm:"type:text" json:"source_code"`
	Language        string                              `gorm:"size:32;not null" json:"language"`
	Status          string                              `gorm:"size:32;not null" json:"status"`
	Result          string                              `gorm:"size:64" json:"result,omitempty"`
	TestCasesPassed int                                 `gorm:"default:0" json:"test_cases_passed"`
	TotalTestCases  int                                 `gorm:"default:0" json:"total_test_cases"`
	ExecutionTimeMS int64                               `gorm:"default:0" json:"execution_time"`
	MemoryUsedMB    float64                             `gorm:"default:0" json:"memory_used"`
	ErrorMessage    string                              `gorm:"type:text" json:"error_message,omitempty"`
	TimeTaken       int                                 `gorm:"default:0" json:"time_taken"`
	TestCaseResults datatypes.JSONSlice[TestCaseResult] `json:"test_case_results"`
	CreatedAt       time.Time                           `json:"created_at"`
	UpdatedAt       time.Time                           `json:"updated_at"`
}

// BeforeCreate assigns a UUID identifier when none is provided.
func (q *QuestionSubmission) BeforeCreate(_ *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// IsSolved reports whether the question passed every test case.
func (q QuestionSubmission) IsSolved() bool {
	return q.Result == SubmissionResultAccepted
}

// TestCaseResult records the outcome of a single test case. For private cases
// Stdin, Expected, Stdout and Stderr hold HiddenValue instead of the real data.
type TestCaseResult struct {
	TestCaseNumber    int     `json:"test_case_number"`
	Type              string  `json:"type"`
	StatusID          int     `json:"status_id"`
	StatusDescription string  `json:"status_description"`
	Stdin             string  `json:"stdin"`
	Expected          string  `json:"expected"`
	Stdout            string  `json:"stdout"`
	Stderr            string  `json:"stderr,omitempty"`
	Time              string  `json:"time,omitempty"`
	Memory            float64 `json:"memory,omitempty"`
	Result            string  `json:"result"`
}
