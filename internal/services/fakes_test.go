package services

import (
	"context"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
)

// In-memory test doubles. The auction repo mirrors the conditional-update
// semantics of the MySQL implementation so compare-and-set behavior can be
// exercised without a database.

type fakeAuctionRepo struct {
	mu        sync.Mutex
	auctions  map[string]*domain.Auction
	createErr error
}

func newFakeAuctionRepo() *fakeAuctionRepo {
	return &fakeAuctionRepo{auctions: make(map[string]*domain.Auction)}
}

func (f *fakeAuctionRepo) put(a *domain.Auction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.auctions[a.ID] = &cp
}

func (f *fakeAuctionRepo) CreateAuction(_ context.Context, auction *domain.Auction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.put(auction)
	return nil
}

func (f *fakeAuctionRepo) GetAuction(_ context.Context, auctionID string) (*domain.Auction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAuctionRepo) ListAuctions(_ context.Context) ([]*domain.Auction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Auction, 0, len(f.auctions))
	for _, a := range f.auctions {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAuctionRepo) CompareAndSetHighestBid(_ context.Context, auctionID string, amount float64, bidder string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.auctions[auctionID]
	if !ok {
		return false, nil
	}
	if a.Status != domain.AuctionLive || a.HighestBid >= amount || a.StartPrice > amount {
		return false, nil
	}
	a.HighestBid = amount
	a.HighestBidder = bidder
	a.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeAuctionRepo) UpdateStatus(_ context.Context, auctionID string, next domain.AuctionStatus, from ...domain.AuctionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.auctions[auctionID]
	if !ok {
		return false, nil
	}
	for _, prior := range from {
		if a.Status == prior {
			a.Status = next
			a.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

type fakeSchedulerRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.ScheduledJob
}

func newFakeSchedulerRepo() *fakeSchedulerRepo {
	return &fakeSchedulerRepo{jobs: make(map[string]*domain.ScheduledJob)}
}

func (f *fakeSchedulerRepo) CreateJob(_ context.Context, job *domain.ScheduledJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeSchedulerRepo) GetPendingJobs(_ context.Context, before time.Time) ([]*domain.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ScheduledJob
	for _, j := range f.jobs {
		if j.Status == domain.JobPending && !j.RunAt.After(before) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSchedulerRepo) UpdateJobStatus(_ context.Context, jobID string, status domain.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[jobID]; ok {
		j.Status = status
	}
	return nil
}

func (f *fakeSchedulerRepo) CancelJobsForAuction(_ context.Context, auctionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.AuctionID == auctionID && j.Status == domain.JobPending {
			j.Status = domain.JobCancelled
		}
	}
	return nil
}

type fakeBidRepo struct {
	mu      sync.Mutex
	bids    []*domain.Bid
	saveErr error
}

func (f *fakeBidRepo) SaveBid(_ context.Context, bid *domain.Bid) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *bid
	f.bids = append(f.bids, &cp)
	return nil
}

func (f *fakeBidRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]*domain.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Bid
	for _, b := range f.bids {
		if b.AuctionID == auctionID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeGateway is a programmable AuctionGateway for exercising the services
// that sit downstream of the auction authority.
type fakeGateway struct {
	mu sync.Mutex

	snapshot    *domain.AuctionSnapshot
	snapshotErr error

	pushBidErr    error
	pushStatusErr error

	pushedBids     []pushedBid
	pushedStatuses []domain.AuctionStatus
}

type pushedBid struct {
	auctionID string
	amount    float64
	bidder    string
}

func (f *fakeGateway) GetSnapshot(_ context.Context, _ string) (*domain.AuctionSnapshot, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	cp := *f.snapshot
	return &cp, nil
}

func (f *fakeGateway) PushHighestBid(_ context.Context, auctionID string, amount float64, bidder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushBidErr != nil {
		return f.pushBidErr
	}
	f.pushedBids = append(f.pushedBids, pushedBid{auctionID, amount, bidder})
	return nil
}

func (f *fakeGateway) PushStatus(_ context.Context, auctionID string, status domain.AuctionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushStatusErr != nil {
		return f.pushStatusErr
	}
	f.pushedStatuses = append(f.pushedStatuses, status)
	return nil
}

type fakeOutbox struct {
	mu        sync.Mutex
	entries   []*domain.OutboxEntry
	delivered []string
	failures  map[string]int
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{failures: make(map[string]int)}
}

func (f *fakeOutbox) Enqueue(_ context.Context, entry *domain.OutboxEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeOutbox) FetchDue(_ context.Context, now time.Time, limit int) ([]*domain.OutboxEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.OutboxEntry
	for _, e := range f.entries {
		if e.DeliveredAt == nil && !e.NextAttempt.After(now) {
			cp := *e
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkDelivered(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			now := time.Now()
			e.DeliveredAt = &now
		}
	}
	f.delivered = append(f.delivered, id)
	return nil
}

func (f *fakeOutbox) RecordFailure(_ context.Context, id string, attempts int, nextAttempt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			e.Attempts = attempts
			e.NextAttempt = nextAttempt
		}
	}
	f.failures[id] = attempts
	return nil
}

type fakeTxRepo struct {
	mu  sync.Mutex
	txs map[string]*domain.Transaction
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{txs: make(map[string]*domain.Transaction)}
}

func (f *fakeTxRepo) SaveTransaction(_ context.Context, tx *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.txs[tx.AuctionID]; exists {
		return domain.ErrAlreadySettled
	}
	cp := *tx
	f.txs[tx.AuctionID] = &cp
	return nil
}

func (f *fakeTxRepo) CompletedExists(_ context.Context, auctionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[auctionID]
	return ok && tx.Status == domain.TransactionCompleted, nil
}

func (f *fakeTxRepo) GetByAuction(_ context.Context, auctionID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[auctionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []*domain.Review
}

func (f *fakeReviewRepo) SaveReview(_ context.Context, review *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.AuctionID == review.AuctionID && r.ReviewerUsername == review.ReviewerUsername {
			return domain.ErrDuplicateReview
		}
	}
	cp := *review
	f.reviews = append(f.reviews, &cp)
	return nil
}

func (f *fakeReviewRepo) GetReviewsForUser(_ context.Context, username string) ([]*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Review
	for _, r := range f.reviews {
		if r.ReviewedUsername == username {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) GetReviewsForAuction(_ context.Context, auctionID string) ([]*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Review
	for _, r := range f.reviews {
		if r.AuctionID == auctionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) AverageRating(_ context.Context, username string) (float64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, count int
	for _, r := range f.reviews {
		if r.ReviewedUsername == username {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

type fakeSettlements struct {
	exists bool
	err    error
}

func (f *fakeSettlements) CompletedTransactionExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*domain.BidEvent
}

func (f *fakePublisher) PublishBidEvent(_ context.Context, event *domain.BidEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *event
	f.events = append(f.events, &cp)
	return nil
}

type fakeLeader struct {
	leader bool
}

func (f *fakeLeader) BecomeLeader(_ context.Context, _ string) (bool, error) { return f.leader, nil }
func (f *fakeLeader) IsLeader(_ context.Context, _ string) (bool, error)     { return f.leader, nil }
func (f *fakeLeader) ReleaseLeadership(_ context.Context, _ string) error    { return nil }
