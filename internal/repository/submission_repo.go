package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

// SubmissionRepository exposes persistence helpers for assessment submissions
// and their per-question attempts.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (models.Submission, error)
	GetByCandidateAndDrive(ctx context.Context, candidateID, driveID string) (models.Submission, error)
	ListByDrive(ctx context.Context, driveID string) ([]models.Submission, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]models.Submission, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	GetQuestion(ctx context.Context, submissionID, questionID string) (models.QuestionSubmission, error)
	CountQuestions(ctx context.Context, submissionID string) (int64, error)
	ListQuestions(ctx context.Context, submissionID string) ([]models.QuestionSubmission, error)
	CreateQuestion(ctx context.Context, question *models.QuestionSubmission) error
	UpdateQuestionFields(ctx context.Context, submissionID, questionID string, fields map[string]interface{}) error
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_number ASC")
		})
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, "submissions.id = ?", id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetByCandidateAndDrive(ctx context.Context, candidateID, driveID string) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("candidate_id = ? AND drive_id = ?", candidateID, driveID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ListByDrive(ctx context.Context, driveID string) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("drive_id = ?", driveID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) ListByCandidate(ctx context.Context, candidateID string) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) GetQuestion(ctx context.Context, submissionID, questionID string) (models.QuestionSubmission, error) {
	var question models.QuestionSubmission
	if err := r.db.WithContext(ctx).
		Where("submission_id = ? AND question_id = ?", submissionID, questionID).
		First(&question).Error; err != nil {
		return models.QuestionSubmission{}, err
	}
	return question, nil
}

func (r *submissionRepository) CountQuestions(ctx context.Context, submissionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuestionSubmission{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error
	return count, err
}

func (r *submissionRepository) ListQuestions(ctx context.Context, submissionID string) ([]models.QuestionSubmission, error) {
	var questions []models.QuestionSubmission
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("question_number ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *submissionRepository) CreateQuestion(ctx context.Context, question *models.QuestionSubmission) error {
	return r.db.WithContext(ctx).Create(question).Error
}

// UpdateQuestionFields overwrites fields of the (submission, question) attempt
// in place. The pair is the stable identity; question_number never changes
// after first creation.
func (r *submissionRepository) UpdateQuestionFields(ctx context.Context, submissionID, questionID string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.QuestionSubmission{}).
		Where("submission_id = ? AND question_id = ?", submissionID, questionID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether the error is the store's record-missing error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
