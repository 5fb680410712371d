package domain

import (
	"context"
	"time"
)

// Repository interfaces
type AuctionRepository interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	ListAuctions(ctx context.Context) ([]*Auction, error)
	// CompareAndSetHighestBid applies the highest-bid update only if the
	// auction is Live, amount exceeds the stored highest bid and amount is
	// at least the start price. Returns true when the row changed.
	CompareAndSetHighestBid(ctx context.Context, auctionID string, amount float64, bidder string) (bool, error)
	// UpdateStatus moves the auction to next only from the given prior
	// states. Returns true when the row changed.
	UpdateStatus(ctx context.Context, auctionID string, next AuctionStatus, from ...AuctionStatus) (bool, error)
}

type BidRepository interface {
	SaveBid(ctx context.Context, bid *Bid) error
	GetBidsByAuction(ctx context.Context, auctionID string) ([]*Bid, error)
}

type TransactionRepository interface {
	// SaveTransaction inserts the transaction; the unique auction key
	// rejects a second transaction for the same auction with
	// ErrAlreadySettled.
	SaveTransaction(ctx context.Context, tx *Transaction) error
	CompletedExists(ctx context.Context, auctionID string) (bool, error)
	GetByAuction(ctx context.Context, auctionID string) (*Transaction, error)
}

type ReviewRepository interface {
	// SaveReview inserts the review; the unique (auction, reviewer) key
	// rejects duplicates with ErrDuplicateReview.
	SaveReview(ctx context.Context, review *Review) error
	GetReviewsForUser(ctx context.Context, username string) ([]*Review, error)
	GetReviewsForAuction(ctx context.Context, auctionID string) ([]*Review, error)
	AverageRating(ctx context.Context, username string) (float64, int, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *OutboxEntry) error
	FetchDue(ctx context.Context, now time.Time, limit int) ([]*OutboxEntry, error)
	MarkDelivered(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id string, attempts int, nextAttempt time.Time) error
}

type SchedulerRepository interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	GetPendingJobs(ctx context.Context, before time.Time) ([]*ScheduledJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus) error
	CancelJobsForAuction(ctx context.Context, auctionID string) error
}

// AuctionGateway is the downstream services' view of the Auction Authority.
// Transport failures surface as ErrUpstreamUnavailable; business refusals as
// their own sentinels.
type AuctionGateway interface {
	GetSnapshot(ctx context.Context, auctionID string) (*AuctionSnapshot, error)
	PushHighestBid(ctx context.Context, auctionID string, amount float64, bidder string) error
	PushStatus(ctx context.Context, auctionID string, status AuctionStatus) error
}

// SettlementGateway is the Reputation Gate's view of the Settlement Processor.
type SettlementGateway interface {
	CompletedTransactionExists(ctx context.Context, auctionID string) (bool, error)
}

// PaymentProcessor decides whether a charge goes through. The reference
// implementation is a deterministic simulation.
type PaymentProcessor interface {
	Charge(ctx context.Context, card CardDetails, amount float64) (bool, error)
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *BidEvent) error

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	Username() string
	AuctionID() string
}

type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error
}
