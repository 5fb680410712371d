package domain

import (
	"time"
)

type AuctionStatus string

const (
	AuctionLive      AuctionStatus = "Live"
	AuctionEnded     AuctionStatus = "Ended"
	AuctionSold      AuctionStatus = "Sold"
	AuctionCancelled AuctionStatus = "Cancelled"
)

// CanTransition reports whether the lifecycle permits moving to next.
// Live -> Ended, Live -> Cancelled, Ended -> Sold. No transition is reversible.
func (s AuctionStatus) CanTransition(next AuctionStatus) bool {
	switch s {
	case AuctionLive:
		return next == AuctionEnded || next == AuctionCancelled
	case AuctionEnded:
		return next == AuctionSold
	default:
		return false
	}
}

func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionLive, AuctionEnded, AuctionSold, AuctionCancelled:
		return true
	}
	return false
}

type Auction struct {
	ID             string        `json:"id"`
	ProductName    string        `json:"product_name"`
	Description    string        `json:"description"`
	ImageURL       string        `json:"image_url,omitempty"`
	SellerUsername string        `json:"seller_username"`
	StartPrice     float64       `json:"start_price"`
	Status         AuctionStatus `json:"status"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	HighestBid     float64       `json:"highest_bid"`
	HighestBidder  string        `json:"highest_bidder,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// AuctionSnapshot is the foreign view of an auction held by downstream
// services. Fetched fresh per decision, never persisted.
type AuctionSnapshot struct {
	ID             string        `json:"id"`
	SellerUsername string        `json:"seller_username"`
	StartPrice     float64       `json:"start_price"`
	Status         AuctionStatus `json:"status"`
	HighestBid     float64       `json:"highest_bid"`
	HighestBidder  string        `json:"highest_bidder"`
	EndTime        time.Time     `json:"end_time"`
}

func (a *Auction) Snapshot() *AuctionSnapshot {
	return &AuctionSnapshot{
		ID:             a.ID,
		SellerUsername: a.SellerUsername,
		StartPrice:     a.StartPrice,
		Status:         a.Status,
		HighestBid:     a.HighestBid,
		HighestBidder:  a.HighestBidder,
		EndTime:        a.EndTime,
	}
}

type Bid struct {
	ID             string    `json:"id"`
	AuctionID      string    `json:"auction_id"`
	BidderUsername string    `json:"bidder_username"`
	Amount         float64   `json:"amount"`
	Timestamp      time.Time `json:"timestamp"`
}

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "Completed"
	TransactionFailed    TransactionStatus = "Failed"
	TransactionRefunded  TransactionStatus = "Refunded"
)

type Transaction struct {
	ID             string            `json:"id"`
	AuctionID      string            `json:"auction_id"`
	BuyerUsername  string            `json:"buyer_username"`
	SellerUsername string            `json:"seller_username"`
	Amount         float64           `json:"amount"`
	PaymentMethod  string            `json:"payment_method"`
	Status         TransactionStatus `json:"status"`
	Timestamp      time.Time         `json:"timestamp"`
}

type ReviewType string

const (
	SellerReview ReviewType = "Seller"
	BuyerReview  ReviewType = "Buyer"
)

type Review struct {
	ID               string     `json:"id"`
	AuctionID        string     `json:"auction_id"`
	ReviewerUsername string     `json:"reviewer_username"`
	ReviewedUsername string     `json:"reviewed_username"`
	ReviewType       ReviewType `json:"review_type"`
	Rating           int        `json:"rating"`
	Comment          string     `json:"comment"`
	Timestamp        time.Time  `json:"timestamp"`
}

// CardDetails carries the simulated payment instrument. Never persisted.
type CardDetails struct {
	CardNumber     string `json:"card_number"`
	ExpirationDate string `json:"expiration_date"`
	CVV            string `json:"cvv"`
}

type BidEvent struct {
	Type      BidEventType `json:"type"`
	AuctionID string       `json:"auction_id"`
	Bidder    string       `json:"bidder"`
	Amount    float64      `json:"amount"`
	Timestamp time.Time    `json:"timestamp"`
}

type BidEventType string

const (
	BidAccepted     BidEventType = "bid_accepted"
	AuctionEndedEvt BidEventType = "auction_ended"
	AuctionSoldEvt  BidEventType = "auction_sold"
)

// OutboxKind names a propagation that failed inline and waits for replay.
type OutboxKind string

const (
	OutboxHighestBid    OutboxKind = "highest_bid"
	OutboxAuctionStatus OutboxKind = "auction_status"
)

type OutboxEntry struct {
	ID          string
	Kind        OutboxKind
	AuctionID   string
	Amount      float64
	Bidder      string
	Status      AuctionStatus
	Attempts    int
	NextAttempt time.Time
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

type ScheduledJob struct {
	ID        string
	AuctionID string
	JobType   JobType
	RunAt     time.Time
	Status    JobStatus
	CreatedAt time.Time
}

type JobType string

const (
	JobEndAuction JobType = "end_auction"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuted  JobStatus = "executed"
	JobCancelled JobStatus = "cancelled"
)
