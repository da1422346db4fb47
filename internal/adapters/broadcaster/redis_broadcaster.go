package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroadcaster implements the broadcaster interface on Redis
// pub/sub. Each auction gets its own channel ("auction:<id>"); each
// subscribed client holds one pubsub connection whose messages are
// forwarded onto the client's local event channel.
type RedisBroadcaster struct {
	client         *redis.Client
	eventChannels  map[string]chan outbound.Event // clientID -> local channel
	pubsubs        map[string]*redis.PubSub       // clientID -> pubsub connection
	clientAuctions map[string]map[string]bool     // clientID -> auctionID -> subscribed
	mu             sync.RWMutex
	logger         zerolog.Logger
}

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

func NewBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:         params.RedisClient,
		eventChannels:  make(map[string]chan outbound.Event),
		pubsubs:        make(map[string]*redis.PubSub),
		clientAuctions: make(map[string]map[string]bool),
		logger:         params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}
}

func channelName(auctionID uuid.UUID) string {
	return fmt.Sprintf("auction:%s", auctionID.String())
}

// Subscribe subscribes a client to events for a specific auction
func (r *RedisBroadcaster) Subscribe(ctx context.Context, auctionID uuid.UUID, clientID string, eventChan chan outbound.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clientAuctions[clientID][auctionID.String()] {
		return nil
	}

	if r.eventChannels[clientID] == nil {
		r.eventChannels[clientID] = eventChan
	}
	if r.clientAuctions[clientID] == nil {
		r.clientAuctions[clientID] = make(map[string]bool)
	}
	r.clientAuctions[clientID][auctionID.String()] = true

	pubsub, exists := r.pubsubs[clientID]
	if !exists {
		pubsub = r.client.Subscribe(ctx)
		r.pubsubs[clientID] = pubsub
		go r.forwardMessages(pubsub, clientID, eventChan)
	}

	if err := pubsub.Subscribe(ctx, channelName(auctionID)); err != nil {
		r.logger.Error().Err(err).
			Str("client_id", clientID).
			Str("auction_id", auctionID.String()).
			Msg("Failed to subscribe to Redis channel")
		return err
	}

	r.logger.Info().
		Str("client_id", clientID).
		Str("auction_id", auctionID.String()).
		Msg("Client subscribed to auction")
	return nil
}

// Unsubscribe removes a client's subscription to an auction, tearing
// down the pubsub connection once the last subscription is gone.
func (r *RedisBroadcaster) Unsubscribe(ctx context.Context, auctionID uuid.UUID, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auctions, exists := r.clientAuctions[clientID]
	if !exists {
		return nil
	}
	delete(auctions, auctionID.String())

	if len(auctions) == 0 {
		delete(r.clientAuctions, clientID)

		// The event channel belongs to the ws handler; dropping the
		// reference is enough here. Closing it too would race the
		// handler's own teardown on disconnect.
		delete(r.eventChannels, clientID)

		if pubsub, ok := r.pubsubs[clientID]; ok {
			if err := pubsub.Close(); err != nil {
				r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub")
			}
			delete(r.pubsubs, clientID)
		}
	} else if pubsub, ok := r.pubsubs[clientID]; ok {
		if err := pubsub.Unsubscribe(ctx, channelName(auctionID)); err != nil {
			r.logger.Error().Err(err).
				Str("client_id", clientID).
				Str("auction_id", auctionID.String()).
				Msg("Error unsubscribing from Redis channel")
		}
	}

	r.logger.Info().
		Str("client_id", clientID).
		Str("auction_id", auctionID.String()).
		Msg("Client unsubscribed from auction")
	return nil
}

// Publish publishes an event to all subscribers of an auction via Redis
func (r *RedisBroadcaster) Publish(ctx context.Context, auctionID uuid.UUID, event outbound.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result := r.client.Publish(ctx, channelName(auctionID), eventJSON)
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	r.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("auction_id", auctionID.String()).
		Int64("subscriber_count", result.Val()).
		Msg("Published event to auction")

	return nil
}

// IsSubscribed checks if a client is subscribed to an auction
func (r *RedisBroadcaster) IsSubscribed(ctx context.Context, auctionID uuid.UUID, clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.clientAuctions[clientID][auctionID.String()]
}

// forwardMessages forwards Redis pubsub messages onto the client's
// local event channel until the pubsub connection is closed.
func (r *RedisBroadcaster) forwardMessages(pubsub *redis.PubSub, clientID string, localChan chan outbound.Event) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Str("client_id", clientID).Msg("Redis message forwarder panic")
		}
	}()

	for msg := range pubsub.Channel() {
		var event outbound.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to unmarshal broadcast event")
			continue
		}

		select {
		case localChan <- event:
		default:
			r.logger.Warn().
				Str("client_id", clientID).
				Str("event_type", string(event.Type)).
				Msg("Client event channel full, dropping event")
		}
	}
}
