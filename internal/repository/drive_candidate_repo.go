package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

// DriveCandidateFilter narrows candidate queries within a drive.
type DriveCandidateFilter struct {
	Shortlisted *string
}

// DriveCandidateRepository exposes persistence helpers for drive enrollments
// and their per-round states.
type DriveCandidateRepository interface {
	Create(ctx context.Context, candidate *models.DriveCandidate) error
	GetByID(ctx context.Context, id string) (models.DriveCandidate, error)
	GetByDriveAndCandidate(ctx context.Context, driveID, candidateID string) (models.DriveCandidate, error)
	ListByDrive(ctx context.Context, driveID string, filter DriveCandidateFilter) ([]models.DriveCandidate, error)
	SetShortlisted(ctx context.Context, id, decision string) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	CreateRounds(ctx context.Context, rounds []models.CandidateRound) error
	UpdateRoundFields(ctx context.Context, driveCandidateID string, roundNumber int, fields map[string]interface{}) error
	FanOutRoundUpdate(ctx context.Context, driveID string, roundNumber int, fields map[string]interface{}) (int64, error)
}

// NewDriveCandidateRepository constructs a drive candidate repository.
func NewDriveCandidateRepository(db *gorm.DB) DriveCandidateRepository {
	return &driveCandidateRepository{db: db}
}

type driveCandidateRepository struct {
	db *gorm.DB
}

func (r *driveCandidateRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.DriveCandidate{}).
		Preload("Rounds", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		})
}

func (r *driveCandidateRepository) Create(ctx context.Context, candidate *models.DriveCandidate) error {
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *driveCandidateRepository) GetByID(ctx context.Context, id string) (models.DriveCandidate, error) {
	var candidate models.DriveCandidate
	if err := r.baseQuery(ctx).First(&candidate, "drive_candidates.id = ?", id).Error; err != nil {
		return models.DriveCandidate{}, err
	}
	return candidate, nil
}

func (r *driveCandidateRepository) GetByDriveAndCandidate(ctx context.Context, driveID, candidateID string) (models.DriveCandidate, error) {
	var candidate models.DriveCandidate
	if err := r.baseQuery(ctx).
		Where("drive_id = ? AND candidate_id = ?", driveID, candidateID).
		First(&candidate).Error; err != nil {
		return models.DriveCandidate{}, err
	}
	return candidate, nil
}

func (r *driveCandidateRepository) ListByDrive(ctx context.Context, driveID string, filter DriveCandidateFilter) ([]models.DriveCandidate, error) {
	query := r.baseQuery(ctx).Where("drive_id = ?", driveID)

	if filter.Shortlisted != nil {
		query = query.Where("resume_shortlisted = ?", *filter.Shortlisted)
	}

	var candidates []models.DriveCandidate
	if err := query.Order("created_at ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *driveCandidateRepository) SetShortlisted(ctx context.Context, id, decision string) error {
	return r.db.WithContext(ctx).Model(&models.DriveCandidate{}).
		Where("id = ?", id).
		Update("resume_shortlisted", decision).Error
}

func (r *driveCandidateRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.DriveCandidate{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateRounds inserts a candidate's per-round state rows. Used once per
// candidate, when shortlisting initializes the array.
func (r *driveCandidateRepository) CreateRounds(ctx context.Context, rounds []models.CandidateRound) error {
	if len(rounds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rounds).Error
}

func (r *driveCandidateRepository) UpdateRoundFields(ctx context.Context, driveCandidateID string, roundNumber int, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.CandidateRound{}).
		Where("drive_candidate_id = ? AND number = ?", driveCandidateID, roundNumber).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FanOutRoundUpdate applies the given fields to the round state of every
// candidate of the drive in one statement. Candidates without an initialized
// round array simply have no matching row and are skipped. Returns the number
// of candidate rows updated.
func (r *driveCandidateRepository) FanOutRoundUpdate(ctx context.Context, driveID string, roundNumber int, fields map[string]interface{}) (int64, error) {
	enrolled := r.db.Model(&models.DriveCandidate{}).
		Select("id").
		Where("drive_id = ?", driveID)

	result := r.db.WithContext(ctx).Model(&models.CandidateRound{}).
		Where("number = ? AND drive_candidate_id IN (?)", roundNumber, enrolled).
		Updates(fields)

	return result.RowsAffected, result.Error
}
