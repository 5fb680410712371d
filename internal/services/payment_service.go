package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

// PaymentService settles ended auctions: it verifies against a fresh auction
// snapshot that the caller genuinely won, executes the payment decision and
// records at most one transaction per auction.
type PaymentService struct {
	txRepo    domain.TransactionRepository
	auctions  domain.AuctionGateway
	processor domain.PaymentProcessor
	outbox    domain.OutboxRepository
	log       logger.Logger
}

func NewPaymentService(
	txRepo domain.TransactionRepository,
	auctions domain.AuctionGateway,
	processor domain.PaymentProcessor,
	outbox domain.OutboxRepository,
	log logger.Logger,
) *PaymentService {
	return &PaymentService{
		txRepo:    txRepo,
		auctions:  auctions,
		processor: processor,
		outbox:    outbox,
		log:       log,
	}
}

type ProcessPaymentInput struct {
	AuctionID     string
	Card          domain.CardDetails
	PaymentMethod string
}

func (s *PaymentService) ProcessPayment(ctx context.Context, buyer string, in ProcessPaymentInput) (*domain.Transaction, error) {
	if buyer == "" || in.AuctionID == "" {
		return nil, fmt.Errorf("%w: missing auction id or buyer", domain.ErrValidation)
	}
	if in.Card.CardNumber == "" || in.Card.ExpirationDate == "" || in.Card.CVV == "" {
		return nil, fmt.Errorf("%w: incomplete card details", domain.ErrValidation)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "CreditCard"
	}

	snapshot, err := s.auctions.GetSnapshot(ctx, in.AuctionID)
	if err != nil {
		return nil, err
	}

	if snapshot.Status != domain.AuctionEnded {
		return nil, domain.ErrNotSettleable
	}
	if snapshot.HighestBidder != buyer {
		return nil, domain.ErrNotWinner
	}
	if snapshot.SellerUsername == "" {
		return nil, domain.ErrMissingSeller
	}

	accepted, err := s.processor.Charge(ctx, in.Card, snapshot.HighestBid)
	if err != nil {
		return nil, fmt.Errorf("executing payment: %w", err)
	}
	if !accepted {
		return nil, domain.ErrPaymentDeclined
	}

	// Amount is pinned to the snapshot observed above, not re-fetched.
	tx := &domain.Transaction{
		ID:             utils.GenerateID("tx"),
		AuctionID:      in.AuctionID,
		BuyerUsername:  buyer,
		SellerUsername: snapshot.SellerUsername,
		Amount:         snapshot.HighestBid,
		PaymentMethod:  in.PaymentMethod,
		Status:         domain.TransactionCompleted,
		Timestamp:      time.Now(),
	}
	if err := s.txRepo.SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.propagateSold(ctx, in.AuctionID)

	s.log.Info("Payment recorded", "auction_id", in.AuctionID,
		"buyer", buyer, "amount", tx.Amount)
	return tx, nil
}

// propagateSold pushes the Ended -> Sold transition. The transaction has
// already committed; a failure here leaves the auction showing Ended while
// money moved, so it is logged as consistency debt and queued for replay.
func (s *PaymentService) propagateSold(ctx context.Context, auctionID string) {
	err := s.auctions.PushStatus(ctx, auctionID, domain.AuctionSold)
	if err == nil {
		return
	}

	s.log.Error("Consistency debt: sold status propagation failed",
		"auction_id", auctionID, "intended_status", domain.AuctionSold,
		"attempted_at", time.Now(), "error", err)

	entry := &domain.OutboxEntry{
		ID:          utils.GenerateID("outbox"),
		Kind:        domain.OutboxAuctionStatus,
		AuctionID:   auctionID,
		Status:      domain.AuctionSold,
		NextAttempt: time.Now(),
		CreatedAt:   time.Now(),
	}
	if enqErr := s.outbox.Enqueue(ctx, entry); enqErr != nil {
		s.log.Error("Failed to enqueue outbox entry", "auction_id", auctionID, "error", enqErr)
	}
}

func (s *PaymentService) CompletedExists(ctx context.Context, auctionID string) (bool, error) {
	if auctionID == "" {
		return false, fmt.Errorf("%w: missing auction id", domain.ErrValidation)
	}
	return s.txRepo.CompletedExists(ctx, auctionID)
}

// GetTransaction returns the transaction for an auction, visible only to its
// buyer, its seller, or an admin.
func (s *PaymentService) GetTransaction(ctx context.Context, auctionID, requester string, isAdmin bool) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && requester != tx.BuyerUsername && requester != tx.SellerUsername {
		return nil, domain.ErrForbidden
	}
	return tx, nil
}

// SimulatedProcessor is the deterministic stand-in for an external payment
// gateway: card numbers ending in '0' decline, everything else clears.
type SimulatedProcessor struct{}

func NewSimulatedProcessor() *SimulatedProcessor {
	return &SimulatedProcessor{}
}

func (p *SimulatedProcessor) Charge(_ context.Context, card domain.CardDetails, _ float64) (bool, error) {
	return !strings.HasSuffix(card.CardNumber, "0"), nil
}
