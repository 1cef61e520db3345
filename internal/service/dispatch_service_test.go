package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-labs/hireflow-api/internal/models"
)

type stubInviteSender struct {
	mu        sync.Mutex
	delivered []RoundInvite
	failures  int
	done      chan struct{}
}

func (s *stubInviteSender) Send(_ context.Context, invite RoundInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--
		return errors.New("smtp unavailable")
	}
	s.delivered = append(s.delivered, invite)
	if s.done != nil {
		s.done <- struct{}{}
	}
	return nil
}

func (s *stubInviteSender) invites() []RoundInvite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RoundInvite(nil), s.delivered...)
}

func shortlistedCandidates() *stubCandidateRepo {
	return &stubCandidateRepo{
		candidates: []models.DriveCandidate{
			{ID: "dc-1", DriveID: "drive-1", CandidateID: "cand-1", Name: "Asha", Email: "asha@example.com"},
		},
		shortlisted: map[string]string{"dc-1": models.ShortlistYes},
	}
}

func TestDispatcherDeliversToShortlistedCandidates(t *testing.T) {
	sender := &stubInviteSender{done: make(chan struct{}, 1)}
	dispatcher := NewInviteDispatcher(shortlistedCandidates(), sender, nil, zerolog.Nop(), DispatchConfig{Backoff: time.Millisecond})

	err := dispatcher.Enqueue(context.Background(), InviteJob{
		DriveID:     "drive-1",
		RoundNumber: 1,
		RoundType:   "coding",
		Kind:        InviteKindAssessment,
		Body:        `Join <script>alert("x")</script>round one`,
	})
	require.NoError(t, err)

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("invite was not delivered")
	}

	invites := sender.invites()
	require.Len(t, invites, 1)
	require.Equal(t, "asha@example.com", invites[0].Email)
	require.Equal(t, InviteKindAssessment, invites[0].Kind)
	require.NotContains(t, invites[0].Body, "<script>")
	require.Contains(t, invites[0].Body, "round one")
}

func TestDispatcherRetriesBeforeDelivering(t *testing.T) {
	sender := &stubInviteSender{failures: 2}
	dispatcher := NewInviteDispatcher(shortlistedCandidates(), sender, nil, zerolog.Nop(), DispatchConfig{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	}).(*inviteDispatcher)

	dispatcher.process(context.Background(), InviteJob{DriveID: "drive-1", RoundNumber: 1, Kind: InviteKindInterview})

	invites := sender.invites()
	require.Len(t, invites, 1)
}

func TestDispatcherDropsJobAfterExhaustedRetries(t *testing.T) {
	sender := &stubInviteSender{failures: 10}
	dispatcher := NewInviteDispatcher(shortlistedCandidates(), sender, nil, zerolog.Nop(), DispatchConfig{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	}).(*inviteDispatcher)

	dispatcher.process(context.Background(), InviteJob{DriveID: "drive-1", RoundNumber: 1, Kind: InviteKindInterview})

	require.Empty(t, sender.invites())
}

func TestDispatcherSkipsNonShortlistedCandidates(t *testing.T) {
	candidates := &stubCandidateRepo{
		candidates: []models.DriveCandidate{
			{ID: "dc-1", DriveID: "drive-1", Email: "yes@example.com"},
			{ID: "dc-2", DriveID: "drive-1", Email: "no@example.com"},
		},
		shortlisted: map[string]string{
			"dc-1": models.ShortlistYes,
			"dc-2": models.ShortlistNo,
		},
	}
	sender := &stubInviteSender{}
	dispatcher := NewInviteDispatcher(candidates, sender, nil, zerolog.Nop(), DispatchConfig{Backoff: time.Millisecond}).(*inviteDispatcher)

	dispatcher.process(context.Background(), InviteJob{DriveID: "drive-1", RoundNumber: 1, Kind: InviteKindInterview})

	invites := sender.invites()
	require.Len(t, invites, 1)
	require.Equal(t, "yes@example.com", invites[0].Email)
}

func TestDispatcherDefaultsConfig(t *testing.T) {
	dispatcher := NewInviteDispatcher(shortlistedCandidates(), &stubInviteSender{}, nil, zerolog.Nop(), DispatchConfig{}).(*inviteDispatcher)

	require.Equal(t, "hireflow.invites", dispatcher.config.Subject)
	require.Equal(t, "hireflow-invite-workers", dispatcher.config.Queue)
	require.Equal(t, 3, dispatcher.config.MaxAttempts)
	require.Equal(t, time.Minute, dispatcher.config.Backoff)
}
