// Package redispub relays emits between server processes over Redis
// Pub/Sub, in the manner of socket.io's redis adapter.
package redispub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay-server/internal/core"
)

const defaultChannel = "chatrelay:emits"

// Relay publishes envelopes to a Redis channel and listens for
// envelopes published by peer processes.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	log     zerolog.Logger
}

// New connects to Redis at addr. origin identifies this process so its
// own publishes can be filtered out on receipt.
func New(addr, origin string, logger *zerolog.Logger) (*Relay, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Relay{
		client:  client,
		channel: defaultChannel,
		origin:  origin,
		log:     logger.With().Str("component", "relay").Logger(),
	}, nil
}

// Publish forwards one envelope to peer processes.
func (r *Relay) Publish(ctx context.Context, env core.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}
	return nil
}

// Listen subscribes to the relay channel and hands every peer envelope
// to deliver. Blocks until ctx is canceled.
func (r *Relay) Listen(ctx context.Context, deliver func(core.Envelope)) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env core.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn().Err(err).Msg("malformed relay envelope")
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			deliver(env)
		}
	}
}

// Close releases the Redis connection.
func (r *Relay) Close() error {
	return r.client.Close()
}
