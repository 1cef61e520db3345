package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

// CodingQuestionRepository exposes persistence helpers for coding questions.
type CodingQuestionRepository interface {
	CreateBatch(ctx context.Context, questions []models.CodingQuestion) error
	GetByID(ctx context.Context, id string) (models.CodingQuestion, error)
	ListByDrive(ctx context.Context, driveID string) ([]models.CodingQuestion, error)
	CountByDrive(ctx context.Context, driveID string) (int64, error)
}

// NewCodingQuestionRepository constructs a coding question repository.
func NewCodingQuestionRepository(db *gorm.DB) CodingQuestionRepository {
	return &codingQuestionRepository{db: db}
}

type codingQuestionRepository struct {
	db *gorm.DB
}

func (r *codingQuestionRepository) CreateBatch(ctx context.Context, questions []models.CodingQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *codingQuestionRepository) GetByID(ctx context.Context, id string) (models.CodingQuestion, error) {
	var question models.CodingQuestion
	if err := r.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return models.CodingQuestion{}, err
	}
	return question, nil
}

func (r *codingQuestionRepository) ListByDrive(ctx context.Context, driveID string) ([]models.CodingQuestion, error) {
	var questions []models.CodingQuestion
	if err := r.db.WithContext(ctx).
		Where("drive_id = ?", driveID).
		Order("created_at ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *codingQuestionRepository) CountByDrive(ctx context.Context, driveID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CodingQuestion{}).
		Where("drive_id = ?", driveID).
		Count(&count).Error
	return count, err
}
