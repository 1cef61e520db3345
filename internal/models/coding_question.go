package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Test case visibility. Private cases are masked in any client-facing view.
const (
	TestCasePublic  = "public"
	TestCasePrivate = "private"
)

// TestCase is one input/expected-output pair of a coding question.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Type   string `json:"type"`
}

// IsPrivate reports whether the case's data must be hidden from candidates.
func (t TestCase) IsPrivate() bool {
	return t.Type == TestCasePrivate
}

// CodingQuestion is one problem of a drive's coding assessment.
type CodingQuestion struct {
	ID            string                        `gorm:"type:uuid;primaryKey" json:"id"`
	DriveID       string                        `gorm:"type:uuid;not null;index" json:"drive_id"`
	Title         string                        `gorm:"size:255;not null" json:"title"`
	Description   string                        `gorm:"type:text" json:"description"`
	Constraints   string                        `gorm:"type:text" json:"constraints,omitempty"`
	Difficulty    string                        `gorm:"size:32" json:"difficulty"`
	Tags          datatypes.JSONSlice[string]   `json:"tags"`
	TimeLimitMS   *int                          `json:"time_limit_ms,omitempty"`
	MemoryLimitKB *int                          `json:"memory_limit_kb,omitempty"`
	TestCases     datatypes.JSONSlice[TestCase] `json:"test_cases"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

// BeforeCreate assigns a UUID identifier when none is provided.
func (q *CodingQuestion) BeforeCreate(_ *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}
