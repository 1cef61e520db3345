package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DriveStatus values describe the lifecycle of a hiring drive.
const (
	DriveStatusCreated            = "driveCreated"
	DriveStatusResumeUploaded     = "resumeUploaded"
	DriveStatusResumeShortlisted  = "resumeShortlisted"
	DriveStatusEmailSent          = "emailSent"
	DriveStatusSelectionEmailSent = "selectionEmailSent"
	DriveStatusCompleted          = "completed"
)

// RoundStatus values describe the lifecycle of a single round.
const (
	RoundStatusPending    = "pending"
	RoundStatusInProgress = "in_progress"
	RoundStatusCompleted  = "completed"
)

// JobType values supported by a drive.
const (
	JobTypeFullTime   = "full-time"
	JobTypeInternship = "internship"
)

// Experience categories for a drive's target candidates.
const (
	ExperienceFresher     = "fresher"
	ExperienceExperienced = "experienced"
)

// Drive represents one hiring campaign with an ordered set of rounds.
type Drive struct {
	ID                 string                      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID          string                      `gorm:"size:64;not null;index" json:"company_id"`
	JobCode            string                      `gorm:"size:64;uniqueIndex;not null" json:"job_code"`
	Role               string                      `gorm:"size:255;not null" json:"role"`
	Location           string                      `gorm:"size:255" json:"location"`
	CandidatesToHire   int                         `gorm:"not null" json:"candidates_to_hire"`
	JobType            string                      `gorm:"size:32;not null" json:"job_type"`
	InternshipDuration string                      `gorm:"size:64" json:"internship_duration,omitempty"`
	Skills             datatypes.JSONSlice[string] `json:"skills"`
	ExperienceType     string                      `gorm:"size:32" json:"experience_type"`
	ExperienceMin      *int                        `json:"experience_min,omitempty"`
	ExperienceMax      *int                        `json:"experience_max,omitempty"`
	Status             string                      `gorm:"size:32;not null" json:"status"`
	CurrentRound       int                         `gorm:"default:0" json:"current_round"`
	Stages             datatypes.JSONSlice[string] `json:"stages"`
	CurrentStage       int                         `gorm:"default:0" json:"current_stage"`
	StartDate          *time.Time                  `json:"start_date,omitempty"`
	EndDate            *time.Time                  `json:"end_date,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
	Rounds             []DriveRound                `gorm:"foreignKey:DriveID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"rounds,omitempty"`
}

// BeforeCreate assigns a UUID identifier when none is provided.
func (d *Drive) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// RoundByNumber returns the round with the given 1-based number.
func (d Drive) RoundByNumber(number int) (DriveRound, bool) {
	for _, round := range d.Rounds {
		if round.Number == number {
			return round, true
		}
	}
	return DriveRound{}, false
}

// NextStageIndex advances the display stage pointer, clamped to the last stage.
func (d Drive) NextStageIndex() int {
	next := d.CurrentStage + 1
	if last := len(d.Stages) - 1; next > last {
		next = last
	}
	if next < 0 {
		next = 0
	}
	return next
}

// IsTerminal reports whether the drive has reached its final status.
func (d Drive) IsTerminal() bool {
	return d.Status == DriveStatusCompleted
}

// DriveRound is one stage of a drive's selection process. Rounds are keyed by
// their stable ID; Number provides the default ordering and must stay dense
// (1..N) within a drive.
type DriveRound struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	DriveID     string     `gorm:"type:uuid;not null;index" json:"drive_id"`
	Number      int        `gorm:"not null" json:"round_number"`
	Type        string     `gorm:"size:64;not null" json:"round_type"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      string     `gorm:"size:32;not null" json:"status"`
	Scheduled   bool       `gorm:"default:false" json:"scheduled"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID identifier when none is provided.
func (r *DriveRound) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsCoding reports whether the round is a coding assessment round.
func (r DriveRound) IsCoding() bool {
	return normalizeRoundType(r.Type) == "coding"
}
