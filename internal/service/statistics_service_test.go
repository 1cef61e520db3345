package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

func TestStatisticsRecomputeCountsSolvedQuestions(t *testing.T) {
	submissions := &stubSubmissionRepo{submission: models.Submission{
		ID:             "sub-1",
		CandidateID:    "cand-1",
		DriveID:        "drive-1",
		TotalQuestions: 3,
		Status:         models.SubmissionStatusPending,
		Questions: []models.QuestionSubmission{
			{ID: "a-1", Result: models.SubmissionResultAccepted, TimeTaken: 100},
			{ID: "a-2", Result: models.SubmissionResultWrongAnswer, TimeTaken: 250},
			{ID: "a-3", Result: models.SubmissionResultAccepted, TimeTaken: 50},
		},
	}}
	aggregator := NewStatisticsAggregator(submissions, nil, zerolog.Nop())

	require.NoError(t, aggregator.Recompute(context.Background(), "sub-1"))
	require.Equal(t, 2, submissions.updatedFields["questions_solved"])
	require.InDelta(t, 66.67, submissions.updatedFields["score_percentage"].(float64), 0.001)
	require.Equal(t, 400, submissions.updatedFields["total_time_taken"])
	// Status is owned by the submission service and never written here.
	require.NotContains(t, submissions.updatedFields, "status")
}

func TestStatisticsRecomputeZeroQuestions(t *testing.T) {
	submissions := &stubSubmissionRepo{submission: models.Submission{
		ID:     "sub-1",
		Status: models.SubmissionStatusPending,
	}}
	aggregator := NewStatisticsAggregator(submissions, nil, zerolog.Nop())

	require.NoError(t, aggregator.Recompute(context.Background(), "sub-1"))
	require.Equal(t, 0, submissions.updatedFields["questions_solved"])
	require.InDelta(t, 0.0, submissions.updatedFields["score_percentage"].(float64), 0.001)
}

func TestStatisticsRecomputeUnknownSubmission(t *testing.T) {
	aggregator := NewStatisticsAggregator(&stubSubmissionRepo{}, nil, zerolog.Nop())

	err := aggregator.Recompute(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestStatisticsRecomputeInvalidatesCache(t *testing.T) {
	server := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	key := statisticsCacheKey("cand-1", "drive-1")
	require.NoError(t, server.Set(key, "{}"))

	submissions := &stubSubmissionRepo{submission: models.Submission{
		ID:             "sub-1",
		CandidateID:    "cand-1",
		DriveID:        "drive-1",
		TotalQuestions: 1,
		Status:         models.SubmissionStatusPending,
	}}
	aggregator := NewStatisticsAggregator(submissions, redisClient, zerolog.Nop())

	require.NoError(t, aggregator.Recompute(context.Background(), "sub-1"))
	require.False(t, server.Exists(key))
}

func TestRoundTwo(t *testing.T) {
	require.InDelta(t, 33.33, roundTwo(100.0/3), 0.0001)
	require.InDelta(t, 66.67, roundTwo(200.0/3), 0.0001)
	require.InDelta(t, 50.0, roundTwo(50), 0.0001)
}
