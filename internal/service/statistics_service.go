package service

import (
	"context"
	"math"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sarthi-labs/hireflow-api/internal/observability"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
)

// StatisticsAggregator recomputes a submission's roll-up counters from its
// question attempts. It only ever writes questions_solved, score_percentage
// and total_time_taken; submission status belongs to the submission service.
type StatisticsAggregator interface {
	Recompute(ctx context.Context, submissionID string) error
}

type statisticsAggregator struct {
	submissions repository.SubmissionRepository
	redis       *redis.Client
	logger      zerolog.Logger
}

// NewStatisticsAggregator constructs the aggregator. The Redis client is
// optional; when present, cached statistics views are invalidated on recompute.
func NewStatisticsAggregator(submissions repository.SubmissionRepository, redisClient *redis.Client, logger zerolog.Logger) StatisticsAggregator {
	return &statisticsAggregator{
		submissions: submissions,
		redis:       redisClient,
		logger:      logger.With().Str("component", "statistics_aggregator").Logger(),
	}
}

func (a *statisticsAggregator) Recompute(ctx context.Context, submissionID string) error {
	submission, err := a.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrSubmissionNotFound
		}
		return err
	}

	solved := 0
	totalTime := 0
	for _, question := range submission.Questions {
		if question.IsSolved() {
			solved++
		}
		totalTime += question.TimeTaken
	}

	score := 0.0
	if submission.TotalQuestions > 0 {
		score = roundTwo(100 * float64(solved) / float64(submission.TotalQuestions))
	}

	fields := map[string]interface{}{
		"questions_solved": solved,
		"score_percentage": score,
		"total_time_taken": totalTime,
	}
	if err := a.submissions.UpdateFields(ctx, submissionID, fields); err != nil {
		return err
	}

	observability.StatisticsRecomputes().Inc()

	if a.redis != nil {
		if err := a.redis.Del(ctx, statisticsCacheKey(submission.CandidateID, submission.DriveID)).Err(); err != nil {
			a.logger.Warn().Err(err).Str("submission_id", submissionID).Msg("failed to invalidate statistics cache")
		}
	}

	return nil
}

func statisticsCacheKey(candidateID, driveID string) string {
	return "hireflow:stats:" + candidateID + ":" + driveID
}

func roundTwo(value float64) float64 {
	return math.Round(value*100) / 100
}
