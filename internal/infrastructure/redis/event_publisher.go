package redis

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"

	"github.com/go-redis/redis/v8"
)

const bidEventsChannel = "bid_events"

type RedisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (r *RedisEventPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	eventData := fmt.Sprintf("%s:%s:%s:%.2f:%d",
		event.AuctionID, event.Type, event.Bidder, event.Amount, event.Timestamp.Unix())

	return r.client.Publish(ctx, bidEventsChannel, eventData).Err()
}
