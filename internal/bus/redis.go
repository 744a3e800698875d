package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// channel carries every room envelope; each server instance subscribes and
// delivers to its locally connected rooms.
const channel = "taskhub.rooms"

// Redis is a Backplane over Redis pub/sub, for multi-instance deployments
// where the sender and the receiver may be connected to different processes.
type Redis struct {
	client *redis.Client
	pubsub *redis.PubSub
}

func NewRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

var _ Backplane = (*Redis)(nil)

func (r *Redis) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := r.client.Publish(ctx, channel, b).Err(); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}
	return nil
}

func (r *Redis) Start(ctx context.Context, h Handler) error {
	r.pubsub = r.client.Subscribe(ctx, channel)
	// Force the subscription before returning so no envelope is missed.
	if _, err := r.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		for msg := range r.pubsub.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("bus: bad envelope: %v", err)
				continue
			}
			h(env)
		}
	}()
	return nil
}

func (r *Redis) Close() error {
	if r.pubsub != nil {
		if err := r.pubsub.Close(); err != nil {
			return err
		}
	}
	return r.client.Close()
}
