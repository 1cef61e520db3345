package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sarthi-labs/hireflow-api/internal/observability"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
)

// CandidateRoundProjector propagates a drive-level round transition to the
// per-candidate round states of every enrolled candidate. Candidates whose
// round states were never initialized (not yet shortlisted) have no matching
// rows and are skipped.
type CandidateRoundProjector interface {
	Apply(ctx context.Context, driveID string, roundNumber int, fields map[string]interface{}) (int64, error)
}

type candidateRoundProjector struct {
	candidates repository.DriveCandidateRepository
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewCandidateRoundProjector constructs a projector backed by the candidate repository.
func NewCandidateRoundProjector(candidates repository.DriveCandidateRepository, logger zerolog.Logger) CandidateRoundProjector {
	return &candidateRoundProjector{
		candidates: candidates,
		logger:     logger.With().Str("component", "candidate_round_projector").Logger(),
		tracer:     otel.Tracer("github.com/sarthi-labs/hireflow-api/internal/service/projector"),
	}
}

func (p *candidateRoundProjector) Apply(ctx context.Context, driveID string, roundNumber int, fields map[string]interface{}) (int64, error) {
	spanCtx, span := p.tracer.Start(ctx, "candidate_rounds.fan_out", trace.WithAttributes(
		attribute.String("drive.id", driveID),
		attribute.Int("drive.round_number", roundNumber),
	))
	defer span.End()

	updated, err := p.candidates.FanOutRoundUpdate(spanCtx, driveID, roundNumber, fields)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	observability.RoundFanOutUpdated().Add(float64(updated))
	p.logger.Info().
		Str("drive_id", driveID).
		Int("round_number", roundNumber).
		Int64("updated", updated).
		Msg("round transition fanned out to candidates")

	return updated, nil
}
