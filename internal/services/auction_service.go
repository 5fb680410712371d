package services

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

const (
	minAuctionDuration = time.Minute
	maxAuctionDuration = 7 * 24 * time.Hour
)

// AuctionService is the authority over auction records: lifecycle status and
// the highest-bid snapshot every other service trusts.
type AuctionService struct {
	auctionRepo   domain.AuctionRepository
	schedulerRepo domain.SchedulerRepository
	eventPub      domain.EventPublisher
	log           logger.Logger
}

func NewAuctionService(
	auctionRepo domain.AuctionRepository,
	schedulerRepo domain.SchedulerRepository,
	eventPub domain.EventPublisher,
	log logger.Logger,
) *AuctionService {
	return &AuctionService{
		auctionRepo:   auctionRepo,
		schedulerRepo: schedulerRepo,
		eventPub:      eventPub,
		log:           log,
	}
}

type CreateAuctionInput struct {
	ProductName string
	Description string
	ImageURL    string
	StartPrice  float64
	Duration    time.Duration
}

func (s *AuctionService) CreateAuction(ctx context.Context, seller string, in CreateAuctionInput) (*domain.Auction, error) {
	if seller == "" {
		return nil, fmt.Errorf("%w: missing seller", domain.ErrValidation)
	}
	if in.ProductName == "" {
		return nil, fmt.Errorf("%w: missing product name", domain.ErrValidation)
	}
	if in.StartPrice <= 0 {
		return nil, fmt.Errorf("%w: start price must be positive", domain.ErrValidation)
	}
	if in.Duration < minAuctionDuration || in.Duration > maxAuctionDuration {
		return nil, fmt.Errorf("%w: duration must be between 1 minute and 7 days", domain.ErrValidation)
	}

	now := time.Now()
	auction := &domain.Auction{
		ID:             utils.GenerateID("auction"),
		ProductName:    in.ProductName,
		Description:    in.Description,
		ImageURL:       in.ImageURL,
		SellerUsername: seller,
		StartPrice:     in.StartPrice,
		Status:         domain.AuctionLive,
		StartTime:      now,
		EndTime:        now.Add(in.Duration),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.auctionRepo.CreateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("creating auction: %w", err)
	}

	job := &domain.ScheduledJob{
		ID:        utils.GenerateID("job"),
		AuctionID: auction.ID,
		JobType:   domain.JobEndAuction,
		RunAt:     auction.EndTime,
		Status:    domain.JobPending,
		CreatedAt: now,
	}
	if err := s.schedulerRepo.CreateJob(ctx, job); err != nil {
		// The auction exists either way; the sweeper picks up overdue
		// auctions only through jobs, so this must be visible.
		s.log.Error("Failed to schedule auction end", "auction_id", auction.ID, "error", err)
	}

	s.log.Info("Auction created", "auction_id", auction.ID, "seller", seller, "end_time", auction.EndTime)
	return auction, nil
}

func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.auctionRepo.GetAuction(ctx, auctionID)
}

func (s *AuctionService) ListAuctions(ctx context.Context) ([]*domain.Auction, error) {
	return s.auctionRepo.ListAuctions(ctx)
}

// RecordBid is the idempotent compare-and-set receiver for the Bid Ledger's
// write-back. The update lands only if the auction is Live and amount beats
// both the stored highest bid and the start price; re-delivery of an already
// applied (amount, bidder) pair is a no-op success so outbox replays are safe.
func (s *AuctionService) RecordBid(ctx context.Context, auctionID string, amount float64, bidder string) (*domain.AuctionSnapshot, error) {
	if auctionID == "" || bidder == "" {
		return nil, fmt.Errorf("%w: missing auction id or bidder", domain.ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", domain.ErrValidation)
	}

	changed, err := s.auctionRepo.CompareAndSetHighestBid(ctx, auctionID, amount, bidder)
	if err != nil {
		return nil, fmt.Errorf("updating highest bid: %w", err)
	}

	auction, err := s.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info("Highest bid updated", "auction_id", auctionID, "amount", amount, "bidder", bidder)
		return auction.Snapshot(), nil
	}

	// Already applied: last-value-wins on amount, not on call count.
	if auction.HighestBid == amount && auction.HighestBidder == bidder {
		return auction.Snapshot(), nil
	}

	if auction.Status != domain.AuctionLive {
		return nil, domain.ErrAuctionNotLive
	}
	return nil, fmt.Errorf("%w: current highest bid is %.2f", domain.ErrBidTooLow, auction.HighestBid)
}

// ChangeStatus applies a lifecycle transition with an explicit contract:
// Live->Ended, Live->Cancelled, Ended->Sold. Re-applying the current status
// is a no-op success so the settlement write-back can be retried.
func (s *AuctionService) ChangeStatus(ctx context.Context, auctionID string, next domain.AuctionStatus) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, next)
	}

	auction, err := s.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}

	if auction.Status == next {
		return nil
	}
	if !auction.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, auction.Status, next)
	}

	changed, err := s.auctionRepo.UpdateStatus(ctx, auctionID, next, auction.Status)
	if err != nil {
		return fmt.Errorf("updating auction status: %w", err)
	}
	if !changed {
		// Lost a race; idempotent if the other writer applied the same status.
		current, err := s.auctionRepo.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		if current.Status == next {
			return nil
		}
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, next)
	}

	s.log.Info("Auction status changed", "auction_id", auctionID, "from", auction.Status, "to", next)
	s.afterTransition(ctx, auctionID, next)
	return nil
}

// MarkEnded is used by the lifecycle sweeper when end_time passes.
func (s *AuctionService) MarkEnded(ctx context.Context, auctionID string) error {
	return s.ChangeStatus(ctx, auctionID, domain.AuctionEnded)
}

// Cancel is seller-initiated; only the owning seller (or an admin) may cancel.
func (s *AuctionService) Cancel(ctx context.Context, auctionID, requester string, isAdmin bool) error {
	auction, err := s.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if !isAdmin && auction.SellerUsername != requester {
		return domain.ErrForbidden
	}
	return s.ChangeStatus(ctx, auctionID, domain.AuctionCancelled)
}

func (s *AuctionService) afterTransition(ctx context.Context, auctionID string, next domain.AuctionStatus) {
	switch next {
	case domain.AuctionEnded, domain.AuctionCancelled:
		if err := s.schedulerRepo.CancelJobsForAuction(ctx, auctionID); err != nil {
			s.log.Error("Failed to cancel scheduled jobs", "auction_id", auctionID, "error", err)
		}
	}

	var eventType domain.BidEventType
	switch next {
	case domain.AuctionEnded, domain.AuctionCancelled:
		eventType = domain.AuctionEndedEvt
	case domain.AuctionSold:
		eventType = domain.AuctionSoldEvt
	default:
		return
	}

	event := &domain.BidEvent{
		Type:      eventType,
		AuctionID: auctionID,
		Timestamp: time.Now(),
	}
	if err := s.eventPub.PublishBidEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish auction event", "auction_id", auctionID, "type", eventType, "error", err)
	}
}
