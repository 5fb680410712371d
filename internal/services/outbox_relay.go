package services

import (
	"context"
	"errors"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// OutboxRelay drains the durable outbox of failed propagations and re-applies
// them against the Auction Authority with exponential backoff. Replays are
// safe because the receiving endpoints are idempotent. Only the elected
// leader instance runs the loop.
type OutboxRelay struct {
	outbox       domain.OutboxRepository
	auctions     domain.AuctionGateway
	leader       domain.LeaderElection
	instanceID   string
	pollInterval time.Duration
	baseBackoff  time.Duration
	maxBackoff   time.Duration
	batchSize    int
	log          logger.Logger
}

func NewOutboxRelay(
	outbox domain.OutboxRepository,
	auctions domain.AuctionGateway,
	leader domain.LeaderElection,
	instanceID string,
	pollInterval, baseBackoff, maxBackoff time.Duration,
	batchSize int,
	log logger.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		outbox:       outbox,
		auctions:     auctions,
		leader:       leader,
		instanceID:   instanceID,
		pollInterval: pollInterval,
		baseBackoff:  baseBackoff,
		maxBackoff:   maxBackoff,
		batchSize:    batchSize,
		log:          log,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) {
	r.log.Info("Starting outbox relay", "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			isLeader, err := r.leader.IsLeader(ctx, r.instanceID)
			if err != nil {
				r.log.Error("Failed to check leadership", "error", err)
				continue
			}
			if !isLeader {
				continue
			}
			r.ProcessPending(ctx)

		case <-ctx.Done():
			r.log.Info("Outbox relay stopped")
			return
		}
	}
}

func (r *OutboxRelay) ProcessPending(ctx context.Context) {
	entries, err := r.outbox.FetchDue(ctx, time.Now(), r.batchSize)
	if err != nil {
		r.log.Error("Failed to fetch outbox entries", "error", err)
		return
	}

	for _, entry := range entries {
		r.deliver(ctx, entry)
	}
}

func (r *OutboxRelay) deliver(ctx context.Context, entry *domain.OutboxEntry) {
	var err error
	switch entry.Kind {
	case domain.OutboxHighestBid:
		err = r.auctions.PushHighestBid(ctx, entry.AuctionID, entry.Amount, entry.Bidder)
	case domain.OutboxAuctionStatus:
		err = r.auctions.PushStatus(ctx, entry.AuctionID, entry.Status)
	default:
		r.log.Error("Unknown outbox kind", "id", entry.ID, "kind", entry.Kind)
		return
	}

	switch {
	case err == nil:
		r.log.Info("Outbox entry delivered", "id", entry.ID,
			"kind", entry.Kind, "auction_id", entry.AuctionID)
		r.markDelivered(ctx, entry.ID)

	case r.isObsolete(err):
		// The authority moved past this update (a higher bid landed, the
		// status already advanced, or the auction is gone). The debt no
		// longer exists; retrying can never succeed.
		r.log.Info("Outbox entry obsolete", "id", entry.ID,
			"kind", entry.Kind, "auction_id", entry.AuctionID, "reason", err)
		r.markDelivered(ctx, entry.ID)

	default:
		attempts := entry.Attempts + 1
		next := time.Now().Add(r.backoff(attempts))
		r.log.Warn("Outbox delivery failed", "id", entry.ID,
			"kind", entry.Kind, "auction_id", entry.AuctionID,
			"attempts", attempts, "next_attempt", next, "error", err)
		if recErr := r.outbox.RecordFailure(ctx, entry.ID, attempts, next); recErr != nil {
			r.log.Error("Failed to record outbox failure", "id", entry.ID, "error", recErr)
		}
	}
}

func (r *OutboxRelay) isObsolete(err error) bool {
	return errors.Is(err, domain.ErrBidTooLow) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrAuctionNotFound)
}

func (r *OutboxRelay) backoff(attempts int) time.Duration {
	d := r.baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= r.maxBackoff {
			return r.maxBackoff
		}
	}
	if d > r.maxBackoff {
		return r.maxBackoff
	}
	return d
}

func (r *OutboxRelay) markDelivered(ctx context.Context, id string) {
	if err := r.outbox.MarkDelivered(ctx, id); err != nil {
		r.log.Error("Failed to mark outbox entry delivered", "id", id, "error", err)
	}
}
