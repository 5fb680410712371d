package services

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

const maxCommentLength = 500

// ReviewService gates reviews on an upstream settlement: a review exists only
// if the Settlement Processor confirms a completed transaction for the
// auction, and each participant reviews an auction at most once.
type ReviewService struct {
	reviewRepo  domain.ReviewRepository
	settlements domain.SettlementGateway
	log         logger.Logger
}

func NewReviewService(
	reviewRepo domain.ReviewRepository,
	settlements domain.SettlementGateway,
	log logger.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		settlements: settlements,
		log:         log,
	}
}

type SubmitReviewInput struct {
	AuctionID        string
	ReviewedUsername string
	ReviewType       domain.ReviewType
	Rating           int
	Comment          string
}

func (s *ReviewService) SubmitReview(ctx context.Context, reviewer string, in SubmitReviewInput) (*domain.Review, error) {
	if reviewer == "" || in.AuctionID == "" || in.ReviewedUsername == "" {
		return nil, fmt.Errorf("%w: missing auction id, reviewer or reviewed user", domain.ErrValidation)
	}
	if in.ReviewType != domain.SellerReview && in.ReviewType != domain.BuyerReview {
		return nil, fmt.Errorf("%w: review type must be Seller or Buyer", domain.ErrValidation)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}
	if len(in.Comment) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", domain.ErrValidation, maxCommentLength)
	}

	exists, err := s.settlements.CompletedTransactionExists(ctx, in.AuctionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNoSettlement
	}

	review := &domain.Review{
		ID:               utils.GenerateID("review"),
		AuctionID:        in.AuctionID,
		ReviewerUsername: reviewer,
		ReviewedUsername: in.ReviewedUsername,
		ReviewType:       in.ReviewType,
		Rating:           in.Rating,
		Comment:          in.Comment,
		Timestamp:        time.Now(),
	}

	// The unique (auction, reviewer) key is the arbiter; there is no
	// check-then-insert window.
	if err := s.reviewRepo.SaveReview(ctx, review); err != nil {
		return nil, err
	}

	s.log.Info("Review recorded", "auction_id", in.AuctionID,
		"reviewer", reviewer, "reviewed", in.ReviewedUsername, "rating", in.Rating)
	return review, nil
}

func (s *ReviewService) GetReviewsForUser(ctx context.Context, username string) ([]*domain.Review, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: missing username", domain.ErrValidation)
	}
	return s.reviewRepo.GetReviewsForUser(ctx, username)
}

func (s *ReviewService) GetReviewsForAuction(ctx context.Context, auctionID string) ([]*domain.Review, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("%w: missing auction id", domain.ErrValidation)
	}
	return s.reviewRepo.GetReviewsForAuction(ctx, auctionID)
}

func (s *ReviewService) AverageRating(ctx context.Context, username string) (float64, int, error) {
	if username == "" {
		return 0, 0, fmt.Errorf("%w: missing username", domain.ErrValidation)
	}
	return s.reviewRepo.AverageRating(ctx, username)
}
