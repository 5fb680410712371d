package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// LiveFeed is what the listener needs from the websocket layer.
type LiveFeed interface {
	BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error
	CloseConnectionsForAuction(auctionID string)
}

// EventListener bridges the redis bid-event bus onto the websocket live feed.
type EventListener struct {
	feed LiveFeed
	log  logger.Logger
}

func NewEventListener(feed LiveFeed, log logger.Logger) *EventListener {
	return &EventListener{
		feed: feed,
		log:  log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToBidEvents(ctx, el.handleBidEvent)
}

func (el *EventListener) handleBidEvent(event *domain.BidEvent) error {
	switch event.Type {
	case domain.BidAccepted:
		return el.feed.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
			"type":        "bid_update",
			"current_bid": event.Amount,
			"bidder":      event.Bidder,
			"timestamp":   event.Timestamp,
		})

	case domain.AuctionEndedEvt:
		err := el.feed.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
			"type":      "auction_ended",
			"timestamp": event.Timestamp,
		})
		el.feed.CloseConnectionsForAuction(event.AuctionID)
		return err

	case domain.AuctionSoldEvt:
		return el.feed.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
			"type":      "auction_sold",
			"timestamp": event.Timestamp,
		})
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}
