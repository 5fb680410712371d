package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBidRepo struct {
	bids []*domain.Bid
}

func (s *stubBidRepo) SaveBid(_ context.Context, bid *domain.Bid) error {
	cp := *bid
	s.bids = append(s.bids, &cp)
	return nil
}

func (s *stubBidRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]*domain.Bid, error) {
	var out []*domain.Bid
	for _, b := range s.bids {
		if b.AuctionID == auctionID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type stubGateway struct {
	snapshot *domain.AuctionSnapshot
}

func (s *stubGateway) GetSnapshot(context.Context, string) (*domain.AuctionSnapshot, error) {
	cp := *s.snapshot
	return &cp, nil
}
func (s *stubGateway) PushHighestBid(context.Context, string, float64, string) error { return nil }
func (s *stubGateway) PushStatus(context.Context, string, domain.AuctionStatus) error {
	return nil
}

type stubOutbox struct{}

func (stubOutbox) Enqueue(context.Context, *domain.OutboxEntry) error { return nil }
func (stubOutbox) FetchDue(context.Context, time.Time, int) ([]*domain.OutboxEntry, error) {
	return nil, nil
}
func (stubOutbox) MarkDelivered(context.Context, string) error             { return nil }
func (stubOutbox) RecordFailure(context.Context, string, int, time.Time) error { return nil }

func newBidServer(t *testing.T, snapshot *domain.AuctionSnapshot) (*mux.Router, *stubBidRepo) {
	t.Helper()
	bidRepo := &stubBidRepo{}
	svc := services.NewBidService(bidRepo, &stubGateway{snapshot: snapshot}, stubOutbox{}, stubPublisher{}, logger.Nop())

	r := mux.NewRouter()
	NewBidHandler(svc, logger.Nop()).Register(r, testSecret)
	return r, bidRepo
}

func liveTestSnapshot() *domain.AuctionSnapshot {
	return &domain.AuctionSnapshot{
		ID:             "auction-1",
		SellerUsername: "carol",
		StartPrice:     100,
		Status:         domain.AuctionLive,
		HighestBid:     500,
		HighestBidder:  "alice",
		EndTime:        time.Now().Add(time.Hour),
	}
}

func TestPlaceBidEndpoint(t *testing.T) {
	r, bidRepo := newBidServer(t, liveTestSnapshot())

	body := `{"auction_id":"auction-1","amount":600}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "bob", auth.RoleBuyer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var bid domain.Bid
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bid))
	assert.Equal(t, "bob", bid.BidderUsername)
	assert.Equal(t, 600.0, bid.Amount)
	assert.Len(t, bidRepo.bids, 1)
}

func TestPlaceBidEndpointRequiresBuyerRole(t *testing.T) {
	r, _ := newBidServer(t, liveTestSnapshot())

	body := `{"auction_id":"auction-1","amount":600}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "carol", auth.RoleSeller))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaceBidEndpointTooLow(t *testing.T) {
	r, bidRepo := newBidServer(t, liveTestSnapshot())

	body := `{"auction_id":"auction-1","amount":400}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "bob", auth.RoleBuyer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, bidRepo.bids)
}

func TestPlaceBidEndpointEndedAuction(t *testing.T) {
	snapshot := liveTestSnapshot()
	snapshot.Status = domain.AuctionEnded
	r, _ := newBidServer(t, snapshot)

	body := `{"auction_id":"auction-1","amount":600}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bids", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "bob", auth.RoleBuyer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBidHistoryEndpoint(t *testing.T) {
	r, bidRepo := newBidServer(t, liveTestSnapshot())
	bidRepo.SaveBid(context.Background(), &domain.Bid{
		ID: "bid-1", AuctionID: "auction-1", BidderUsername: "alice", Amount: 500,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids/auction-1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "bob", auth.RoleBuyer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var bids []*domain.Bid
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bids))
	require.Len(t, bids, 1)
	assert.Equal(t, "bid-1", bids[0].ID)
}
