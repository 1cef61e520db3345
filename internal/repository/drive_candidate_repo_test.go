package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Drive{},
		&models.DriveRound{},
		&models.DriveCandidate{},
		&models.CandidateRound{},
		&models.CodingQuestion{},
		&models.Submission{},
		&models.QuestionSubmission{},
	))
	return db
}

func seedDrive(t *testing.T, db *gorm.DB) models.Drive {
	t.Helper()
	drive := models.Drive{
		CompanyID: "acme",
		JobCode:   "ACME-" + t.Name(),
		Role:      "Backend Engineer",
		JobType:   models.JobTypeFullTime,
		Status:    models.DriveStatusCreated,
		Rounds: []models.DriveRound{
			{Number: 1, Type: "coding", Status: models.RoundStatusPending},
			{Number: 2, Type: "hr", Status: models.RoundStatusPending},
		},
	}
	require.NoError(t, db.Create(&drive).Error)
	return drive
}

func TestFanOutRoundUpdateSkipsUninitializedCandidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDriveCandidateRepository(db)
	drive := seedDrive(t, db)

	shortlisted := models.DriveCandidate{DriveID: drive.ID, CandidateID: "cand-1", Name: "Asha"}
	undecided := models.DriveCandidate{DriveID: drive.ID, CandidateID: "cand-2", Name: "Ravi"}
	require.NoError(t, repo.Create(context.Background(), &shortlisted))
	require.NoError(t, repo.Create(context.Background(), &undecided))

	// Only the shortlisted candidate has round rows.
	rounds := models.InitializeCandidateRounds(shortlisted.ID, drive.Rounds)
	require.NoError(t, repo.CreateRounds(context.Background(), rounds))

	updated, err := repo.FanOutRoundUpdate(context.Background(), drive.ID, 1, map[string]interface{}{
		"status":    models.RoundStatusInProgress,
		"scheduled": true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	refreshed, err := repo.GetByID(context.Background(), shortlisted.ID)
	require.NoError(t, err)
	state, ok := refreshed.RoundByNumber(1)
	require.True(t, ok)
	require.Equal(t, models.RoundStatusInProgress, state.Status)
	require.True(t, state.Scheduled)

	untouched, ok := refreshed.RoundByNumber(2)
	require.True(t, ok)
	require.Equal(t, models.RoundStatusPending, untouched.Status)
	require.False(t, untouched.Scheduled)
}

func TestFanOutRoundUpdateScopedToDrive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDriveCandidateRepository(db)
	drive := seedDrive(t, db)

	other := models.Drive{
		CompanyID: "acme",
		JobCode:   "OTHER-" + t.Name(),
		Role:      "Backend Engineer",
		JobType:   models.JobTypeFullTime,
		Status:    models.DriveStatusCreated,
		Rounds:    []models.DriveRound{{Number: 1, Type: "coding", Status: models.RoundStatusPending}},
	}
	require.NoError(t, db.Create(&other).Error)

	outsider := models.DriveCandidate{DriveID: other.ID, CandidateID: "cand-9"}
	require.NoError(t, repo.Create(context.Background(), &outsider))
	require.NoError(t, repo.CreateRounds(context.Background(), models.InitializeCandidateRounds(outsider.ID, other.Rounds)))

	updated, err := repo.FanOutRoundUpdate(context.Background(), drive.ID, 1, map[string]interface{}{
		"status": models.RoundStatusInProgress,
	})
	require.NoError(t, err)
	require.Zero(t, updated)

	refreshed, err := repo.GetByID(context.Background(), outsider.ID)
	require.NoError(t, err)
	state, _ := refreshed.RoundByNumber(1)
	require.Equal(t, models.RoundStatusPending, state.Status)
}

func TestListByDriveFiltersByShortlistDecision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDriveCandidateRepository(db)
	drive := seedDrive(t, db)

	yes := models.DriveCandidate{DriveID: drive.ID, CandidateID: "cand-1"}
	no := models.DriveCandidate{DriveID: drive.ID, CandidateID: "cand-2"}
	require.NoError(t, repo.Create(context.Background(), &yes))
	require.NoError(t, repo.Create(context.Background(), &no))
	require.NoError(t, repo.SetShortlisted(context.Background(), yes.ID, models.ShortlistYes))
	require.NoError(t, repo.SetShortlisted(context.Background(), no.ID, models.ShortlistNo))

	decision := models.ShortlistYes
	candidates, err := repo.ListByDrive(context.Background(), drive.ID, DriveCandidateFilter{Shortlisted: &decision})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "cand-1", candidates[0].CandidateID)

	all, err := repo.ListByDrive(context.Background(), drive.ID, DriveCandidateFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestUpdateRoundFieldsUnknownRoundIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDriveCandidateRepository(db)
	drive := seedDrive(t, db)

	candidate := models.DriveCandidate{DriveID: drive.ID, CandidateID: "cand-1"}
	require.NoError(t, repo.Create(context.Background(), &candidate))

	err := repo.UpdateRoundFields(context.Background(), candidate.ID, 1, map[string]interface{}{"status": models.RoundStatusCompleted})
	require.True(t, IsNotFound(err))
}
