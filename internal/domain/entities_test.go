package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[AuctionStatus][]AuctionStatus{
		AuctionLive:  {AuctionEnded, AuctionCancelled},
		AuctionEnded: {AuctionSold},
	}

	all := []AuctionStatus{AuctionLive, AuctionEnded, AuctionSold, AuctionCancelled}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []AuctionStatus{AuctionLive, AuctionEnded, AuctionSold, AuctionCancelled} {
		assert.True(t, s.Valid())
	}
	assert.False(t, AuctionStatus("Paused").Valid())
	assert.False(t, AuctionStatus("").Valid())
}

func TestSnapshotCopiesFields(t *testing.T) {
	a := &Auction{
		ID:             "auction-1",
		SellerUsername: "carol",
		StartPrice:     100,
		Status:         AuctionLive,
		HighestBid:     500,
		HighestBidder:  "alice",
	}

	snap := a.Snapshot()
	assert.Equal(t, a.ID, snap.ID)
	assert.Equal(t, a.SellerUsername, snap.SellerUsername)
	assert.Equal(t, a.HighestBid, snap.HighestBid)

	// Mutating the snapshot never touches the source record.
	snap.HighestBid = 999
	assert.Equal(t, 500.0, a.HighestBid)
}
