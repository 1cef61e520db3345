package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shortlist decision values. The empty string means the decision has not been
// made yet.
const (
	ShortlistYes = "yes"
	ShortlistNo  = "no"
)

// Per-candidate round outcomes. The empty string means no result yet.
const (
	RoundResultPassed = "passed"
	RoundResultFailed = "failed"
)

// DriveCandidate is a candidate's enrollment record in one specific drive.
type DriveCandidate struct {
	ID                string           `gorm:"type:uuid;primaryKey" json:"id"`
	DriveID           string           `gorm:"type:uuid;not null;uniqueIndex:idx_drive_candidate" json:"drive_id"`
	CandidateID       string           `gorm:"size:64;not null;uniqueIndex:idx_drive_candidate" json:"candidate_id"`
	Name              string           `gorm:"size:255" json:"name"`
	Email             string           `gorm:"size:255" json:"email"`
	ResumeURL         string           `gorm:"size:512" json:"resume_url,omitempty"`
	ResumeText        string           `gorm:"type:text" json:"-"`
	ResumeShortlisted string           `gorm:"size:8" json:"resume_shortlisted"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Rounds            []CandidateRound `gorm:"foreignKey:DriveCandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"rounds_status,omitempty"`
}

// BeforeCreate assigns a UUID identifier when none is provided.
func (c *DriveCandidate) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsShortlisted reports whether the candidate passed resume screening.
func (c DriveCandidate) IsShortlisted() bool {
	return c.ResumeShortlisted == ShortlistYes
}

// RoundByNumber returns the candidate's state for the given 1-based round number.
func (c DriveCandidate) RoundByNumber(number int) (CandidateRound, bool) {
	for _, round := range c.Rounds {
		if round.Number == number {
			return round, true
		}
	}
	return CandidateRound{}, false
}

// CandidateRound mirrors one DriveRound for a single candidate, augmented with
// the candidate's own outcome. RoundID is the stable join key back to the
// drive's round; Number is kept for ordering and positional compatibility.
type CandidateRound struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	DriveCandidateID string    `gorm:"type:uuid;not null;uniqueIndex:idx_candidate_round" json:"-"`
	RoundID          string    `gorm:"type:uuid;not null;uniqueIndex:idx_candidate_round" json:"round_id"`
	Number           int       `gorm:"not null" json:"round_number"`
	Type             string    `gorm:"size:64;not null" json:"round_type"`
	Status           string    `gorm:"size:32;not null" json:"status"`
	Scheduled        bool      `gorm:"default:false" json:"scheduled"`
	Completed        bool      `gorm:"default:false" json:"completed"`
	Result           string    `gorm:"size:16" json:"result,omitempty"`
	Score            *float64  `json:"score,omitempty"`
	Feedback         string    `gorm:"type:text" json:"feedback,omitempty"`
	InterviewLink    string    `gorm:"size:512" json:"interview_link,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID identifier when none is provided.
func (r *CandidateRound) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// InitializeCandidateRounds builds a candidate's per-round state from the
// drive's round catalog. Called once, at the moment the candidate is
// shortlisted.
func InitializeCandidateRounds(candidateID string, rounds []DriveRound) []CandidateRound {
	states := make([]CandidateRound, 0, len(rounds))
	for _, round := range rounds {
		states = append(states, CandidateRound{
			DriveCandidateID: candidateID,
			RoundID:          round.ID,
			Number:           round.Number,
			Type:             round.Type,
			Status:           RoundStatusPending,
		})
	}
	return states
}

func normalizeRoundType(roundType string) string {
	return strings.ToLower(strings.TrimSpace(roundType))
}
