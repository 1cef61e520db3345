package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sarthi-labs/hireflow-api/internal/models"
	"github.com/sarthi-labs/hireflow-api/internal/observability"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
)

// Invite kinds dispatched when a round is scheduled.
const (
	InviteKindAssessment = "assessment"
	InviteKindInterview  = "interview"
)

// InviteJob asks the dispatcher to invite every shortlisted candidate of a
// drive to a newly scheduled round.
type InviteJob struct {
	DriveID     string `json:"drive_id"`
	RoundNumber int    `json:"round_number"`
	RoundType   string `json:"round_type"`
	Kind        string `json:"kind"`
	Body        string `json:"body,omitempty"`
}

// RoundInvite is one concrete invite to one candidate.
type RoundInvite struct {
	DriveID     string
	RoundNumber int
	RoundType   string
	Kind        string
	Email       string
	Name        string
	Body        string
}

// InviteSender delivers one invite. Implementations may send email, push a
// webhook, or just log in development.
type InviteSender interface {
	Send(ctx context.Context, invite RoundInvite) error
}

// LogInviteSender logs invites instead of delivering them.
type LogInviteSender struct {
	logger zerolog.Logger
}

// NewLogInviteSender constructs a logging sender.
func NewLogInviteSender(logger zerolog.Logger) *LogInviteSender {
	return &LogInviteSender{logger: logger.With().Str("component", "invite_sender").Logger()}
}

// Send logs the invite and reports success.
func (l *LogInviteSender) Send(_ context.Context, invite RoundInvite) error {
	l.logger.Info().
		Str("drive_id", invite.DriveID).
		Int("round_number", invite.RoundNumber).
		Str("kind", invite.Kind).
		Str("email", invite.Email).
		Msg("round invite delivered")
	return nil
}

// DispatchConfig tunes the invite dispatch queue.
type DispatchConfig struct {
	Subject     string
	Queue       string
	MaxAttempts int
	Backoff     time.Duration
}

// InviteDispatcher queues round invites and works them off with bounded,
// fixed-backoff retries. Exhausted jobs are logged and dropped; dispatch
// failures never fail the transition that produced them.
type InviteDispatcher interface {
	Enqueue(ctx context.Context, job InviteJob) error
	Start(ctx context.Context)
}

type inviteDispatcher struct {
	candidates repository.DriveCandidateRepository
	sender     InviteSender
	nats       *nats.Conn
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
	config     DispatchConfig
}

// NewInviteDispatcher constructs an invite dispatcher. A nil NATS connection
// degrades to in-process delivery.
func NewInviteDispatcher(candidates repository.DriveCandidateRepository, sender InviteSender, natsConn *nats.Conn, logger zerolog.Logger, cfg DispatchConfig) InviteDispatcher {
	if cfg.Subject == "" {
		cfg.Subject = "hireflow.invites"
	}
	if cfg.Queue == "" {
		cfg.Queue = "hireflow-invite-workers"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Minute
	}

	return &inviteDispatcher{
		candidates: candidates,
		sender:     sender,
		nats:       natsConn,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "invite_dispatcher").Logger(),
		tracer:     otel.Tracer("github.com/sarthi-labs/hireflow-api/internal/service/dispatch"),
		config:     cfg,
	}
}

func (d *inviteDispatcher) Enqueue(ctx context.Context, job InviteJob) error {
	job.Body = strings.TrimSpace(d.sanitizer.Sanitize(job.Body))

	if d.nats == nil {
		go d.process(context.WithoutCancel(ctx), job)
		return nil
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.nats.Publish(d.config.Subject, payload)
}

func (d *inviteDispatcher) Start(ctx context.Context) {
	if d.nats == nil {
		return
	}

	sub, err := d.nats.QueueSubscribe(d.config.Subject, d.config.Queue, func(msg *nats.Msg) {
		var job InviteJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			d.logger.Warn().Err(err).Msg("invalid invite job payload")
			return
		}
		d.process(ctx, job)
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to subscribe to invite subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			d.logger.Warn().Err(err).Msg("failed to drain invite subscription")
		}
	}()
}

func (d *inviteDispatcher) process(ctx context.Context, job InviteJob) {
	spanCtx, span := d.tracer.Start(ctx, "invites.dispatch", trace.WithAttributes(
		attribute.String("drive.id", job.DriveID),
		attribute.Int("drive.round_number", job.RoundNumber),
		attribute.String("invite.kind", job.Kind),
	))
	defer span.End()

	shortlisted := models.ShortlistYes
	candidates, err := d.candidates.ListByDrive(spanCtx, job.DriveID, repository.DriveCandidateFilter{Shortlisted: &shortlisted})
	if err != nil {
		span.RecordError(err)
		d.logger.Error().Err(err).Str("drive_id", job.DriveID).Msg("failed to list candidates for invites")
		return
	}

	for _, candidate := range candidates {
		invite := RoundInvite{
			DriveID:     job.DriveID,
			RoundNumber: job.RoundNumber,
			RoundType:   job.RoundType,
			Kind:        job.Kind,
			Email:       candidate.Email,
			Name:        candidate.Name,
			Body:        job.Body,
		}
		d.deliverWithRetry(spanCtx, invite)
	}
}

func (d *inviteDispatcher) deliverWithRetry(ctx context.Context, invite RoundInvite) {
	var lastErr error
	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		if err := d.sender.Send(ctx, invite); err != nil {
			lastErr = err
			observability.DispatchAttempts().WithLabelValues("retry").Inc()
			d.logger.Warn().Err(err).
				Str("email", invite.Email).
				Int("attempt", attempt).
				Msg("invite delivery failed")

			if attempt < d.config.MaxAttempts {
				select {
				case <-ctx.Done():
					return
				case <-time.After(d.config.Backoff):
				}
			}
			continue
		}

		observability.DispatchAttempts().WithLabelValues("delivered").Inc()
		return
	}

	observability.DispatchAttempts().WithLabelValues("exhausted").Inc()
	d.logger.Error().Err(lastErr).
		Str("email", invite.Email).
		Int("attempts", d.config.MaxAttempts).
		Msg(fmt.Sprintf("invite delivery abandoned for round %d", invite.RoundNumber))
}
