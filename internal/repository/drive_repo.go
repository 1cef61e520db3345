package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

// DriveRepository exposes persistence helpers for drives and their rounds.
type DriveRepository interface {
	Create(ctx context.Context, drive *models.Drive) error
	GetByID(ctx context.Context, id string) (models.Drive, error)
	GetByJobCode(ctx context.Context, jobCode string) (models.Drive, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.Drive, error)
	List(ctx context.Context) ([]models.Drive, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateRoundFields(ctx context.Context, driveID string, roundNumber int, fields map[string]interface{}) error
}

// NewDriveRepository constructs a drive repository.
func NewDriveRepository(db *gorm.DB) DriveRepository {
	return &driveRepository{db: db}
}

type driveRepository struct {
	db *gorm.DB
}

func (r *driveRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Drive{}).
		Preload("Rounds", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		})
}

func (r *driveRepository) Create(ctx context.Context, drive *models.Drive) error {
	return r.db.WithContext(ctx).Create(drive).Error
}

func (r *driveRepository) GetByID(ctx context.Context, id string) (models.Drive, error) {
	var drive models.Drive
	if err := r.baseQuery(ctx).First(&drive, "drives.id = ?", id).Error; err != nil {
		return models.Drive{}, err
	}
	return drive, nil
}

func (r *driveRepository) GetByJobCode(ctx context.Context, jobCode string) (models.Drive, error) {
	var drive models.Drive
	if err := r.baseQuery(ctx).First(&drive, "job_code = ?", jobCode).Error; err != nil {
		return models.Drive{}, err
	}
	return drive, nil
}

func (r *driveRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Drive, error) {
	var drives []models.Drive
	if err := r.baseQuery(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&drives).Error; err != nil {
		return nil, err
	}
	return drives, nil
}

func (r *driveRepository) List(ctx context.Context) ([]models.Drive, error) {
	var drives []models.Drive
	if err := r.baseQuery(ctx).Order("created_at DESC").Find(&drives).Error; err != nil {
		return nil, err
	}
	return drives, nil
}

// UpdateFields performs a field-scoped partial update on the drive document.
func (r *driveRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Drive{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateRoundFields updates a single round of the drive, addressed by its
// 1-based number.
func (r *driveRepository) UpdateRoundFields(ctx context.Context, driveID string, roundNumber int, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.DriveRound{}).
		Where("drive_id = ? AND number = ?", driveID, roundNumber).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
