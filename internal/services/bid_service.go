package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

// BidService owns the append-only bid ledger. Every placement decision is
// made against a fresh auction snapshot from the Auction Authority, then the
// accepted outcome is pushed back best-effort; the ledger write itself never
// rolls back.
type BidService struct {
	bidRepo  domain.BidRepository
	auctions domain.AuctionGateway
	outbox   domain.OutboxRepository
	eventPub domain.EventPublisher
	log      logger.Logger
}

func NewBidService(
	bidRepo domain.BidRepository,
	auctions domain.AuctionGateway,
	outbox domain.OutboxRepository,
	eventPub domain.EventPublisher,
	log logger.Logger,
) *BidService {
	return &BidService{
		bidRepo:  bidRepo,
		auctions: auctions,
		outbox:   outbox,
		eventPub: eventPub,
		log:      log,
	}
}

func (s *BidService) PlaceBid(ctx context.Context, auctionID, bidder string, amount float64) (*domain.Bid, error) {
	if auctionID == "" || bidder == "" {
		return nil, fmt.Errorf("%w: missing auction id or bidder", domain.ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", domain.ErrValidation)
	}

	snapshot, err := s.auctions.GetSnapshot(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if snapshot.Status != domain.AuctionLive {
		return nil, domain.ErrAuctionNotLive
	}
	if amount <= snapshot.HighestBid {
		return nil, fmt.Errorf("%w: current highest bid is %.2f", domain.ErrBidTooLow, snapshot.HighestBid)
	}
	if amount < snapshot.StartPrice {
		return nil, fmt.Errorf("%w: start price is %.2f", domain.ErrBidTooLow, snapshot.StartPrice)
	}
	if bidder == snapshot.HighestBidder {
		return nil, domain.ErrSameBidder
	}

	bid := &domain.Bid{
		ID:             utils.GenerateID("bid"),
		AuctionID:      auctionID,
		BidderUsername: bidder,
		Amount:         amount,
		Timestamp:      time.Now(),
	}
	if err := s.bidRepo.SaveBid(ctx, bid); err != nil {
		return nil, fmt.Errorf("saving bid: %w", err)
	}

	s.propagateBid(ctx, bid)
	return bid, nil
}

// propagateBid pushes the accepted bid to the Auction Authority. The ledger
// write has already committed and is never rolled back: a transport failure
// becomes consistency debt in the outbox, a BidTooLow answer means a
// concurrent higher bid won the compare-and-set race.
func (s *BidService) propagateBid(ctx context.Context, bid *domain.Bid) {
	err := s.auctions.PushHighestBid(ctx, bid.AuctionID, bid.Amount, bid.BidderUsername)
	if err == nil {
		event := &domain.BidEvent{
			Type:      domain.BidAccepted,
			AuctionID: bid.AuctionID,
			Bidder:    bid.BidderUsername,
			Amount:    bid.Amount,
			Timestamp: bid.Timestamp,
		}
		if pubErr := s.eventPub.PublishBidEvent(ctx, event); pubErr != nil {
			s.log.Error("Failed to publish bid event", "auction_id", bid.AuctionID, "error", pubErr)
		}
		return
	}

	if errors.Is(err, domain.ErrBidTooLow) {
		s.log.Info("Bid lost propagation race", "auction_id", bid.AuctionID,
			"bid_id", bid.ID, "amount", bid.Amount)
		return
	}

	s.log.Error("Consistency debt: bid propagation failed",
		"auction_id", bid.AuctionID, "bid_id", bid.ID,
		"amount", bid.Amount, "bidder", bid.BidderUsername,
		"attempted_at", time.Now(), "error", err)

	entry := &domain.OutboxEntry{
		ID:          utils.GenerateID("outbox"),
		Kind:        domain.OutboxHighestBid,
		AuctionID:   bid.AuctionID,
		Amount:      bid.Amount,
		Bidder:      bid.BidderUsername,
		NextAttempt: time.Now(),
		CreatedAt:   time.Now(),
	}
	if enqErr := s.outbox.Enqueue(ctx, entry); enqErr != nil {
		s.log.Error("Failed to enqueue outbox entry", "auction_id", bid.AuctionID, "error", enqErr)
	}
}

func (s *BidService) GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("%w: missing auction id", domain.ErrValidation)
	}
	return s.bidRepo.GetBidsByAuction(ctx, auctionID)
}
