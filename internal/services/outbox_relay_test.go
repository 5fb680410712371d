package services

import (
	"context"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelay(outbox *fakeOutbox, gateway *fakeGateway) *OutboxRelay {
	return NewOutboxRelay(
		outbox, gateway, &fakeLeader{leader: true}, "instance-1",
		10*time.Millisecond, time.Second, time.Minute, 10,
		logger.Nop(),
	)
}

func bidEntry(id string) *domain.OutboxEntry {
	return &domain.OutboxEntry{
		ID:          id,
		Kind:        domain.OutboxHighestBid,
		AuctionID:   "auction-1",
		Amount:      600,
		Bidder:      "bob",
		NextAttempt: time.Now().Add(-time.Second),
		CreatedAt:   time.Now().Add(-time.Minute),
	}
}

func TestRelayDeliversPendingEntries(t *testing.T) {
	outbox := newFakeOutbox()
	gateway := &fakeGateway{}
	require.NoError(t, outbox.Enqueue(context.Background(), bidEntry("outbox-1")))
	require.NoError(t, outbox.Enqueue(context.Background(), &domain.OutboxEntry{
		ID:          "outbox-2",
		Kind:        domain.OutboxAuctionStatus,
		AuctionID:   "auction-2",
		Status:      domain.AuctionSold,
		NextAttempt: time.Now().Add(-time.Second),
	}))

	newRelay(outbox, gateway).ProcessPending(context.Background())

	require.Len(t, gateway.pushedBids, 1)
	assert.Equal(t, pushedBid{"auction-1", 600, "bob"}, gateway.pushedBids[0])
	require.Len(t, gateway.pushedStatuses, 1)
	assert.Equal(t, domain.AuctionSold, gateway.pushedStatuses[0])

	assert.ElementsMatch(t, []string{"outbox-1", "outbox-2"}, outbox.delivered)
}

func TestRelaySkipsEntriesNotYetDue(t *testing.T) {
	outbox := newFakeOutbox()
	gateway := &fakeGateway{}
	entry := bidEntry("outbox-1")
	entry.NextAttempt = time.Now().Add(time.Hour)
	require.NoError(t, outbox.Enqueue(context.Background(), entry))

	newRelay(outbox, gateway).ProcessPending(context.Background())

	assert.Empty(t, gateway.pushedBids)
	assert.Empty(t, outbox.delivered)
}

func TestRelayRecordsFailureWithBackoff(t *testing.T) {
	outbox := newFakeOutbox()
	gateway := &fakeGateway{pushBidErr: domain.ErrUpstreamUnavailable}
	require.NoError(t, outbox.Enqueue(context.Background(), bidEntry("outbox-1")))

	relay := newRelay(outbox, gateway)
	relay.ProcessPending(context.Background())

	assert.Empty(t, outbox.delivered)
	assert.Equal(t, 1, outbox.failures["outbox-1"])

	// The entry stays queued with its attempt count bumped.
	entry := outbox.entries[0]
	assert.Equal(t, 1, entry.Attempts)
	assert.True(t, entry.NextAttempt.After(time.Now()))
}

func TestRelayObsoleteEntriesRetired(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"higher bid already landed", domain.ErrBidTooLow},
		{"status already advanced", domain.ErrInvalidTransition},
		{"auction gone", domain.ErrAuctionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outbox := newFakeOutbox()
			gateway := &fakeGateway{pushBidErr: tt.err}
			require.NoError(t, outbox.Enqueue(context.Background(), bidEntry("outbox-1")))

			newRelay(outbox, gateway).ProcessPending(context.Background())

			// Retrying can never succeed; the debt is retired.
			assert.Equal(t, []string{"outbox-1"}, outbox.delivered)
			assert.Empty(t, outbox.failures)
		})
	}
}

func TestRelayBackoffDoublesAndCaps(t *testing.T) {
	relay := NewOutboxRelay(
		newFakeOutbox(), &fakeGateway{}, &fakeLeader{leader: true}, "instance-1",
		10*time.Millisecond, time.Second, 8*time.Second, 10,
		logger.Nop(),
	)

	assert.Equal(t, time.Second, relay.backoff(1))
	assert.Equal(t, 2*time.Second, relay.backoff(2))
	assert.Equal(t, 4*time.Second, relay.backoff(3))
	assert.Equal(t, 8*time.Second, relay.backoff(4))
	assert.Equal(t, 8*time.Second, relay.backoff(5))
	assert.Equal(t, 8*time.Second, relay.backoff(20))
}

func TestRelayStartRespectsLeadership(t *testing.T) {
	outbox := newFakeOutbox()
	gateway := &fakeGateway{}
	require.NoError(t, outbox.Enqueue(context.Background(), bidEntry("outbox-1")))

	relay := NewOutboxRelay(
		outbox, gateway, &fakeLeader{leader: false}, "instance-2",
		5*time.Millisecond, time.Second, time.Minute, 10,
		logger.Nop(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	relay.Start(ctx)

	// A follower never drains the outbox.
	assert.Empty(t, outbox.delivered)
	assert.Empty(t, gateway.pushedBids)
}
