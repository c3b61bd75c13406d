package watch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "watch:"

// RedisBroker implements Broker over Redis pub/sub, one channel per
// collection. Delivery order within a channel follows Redis emission order.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(addr string) *RedisBroker {
	return &RedisBroker{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshalling event: %w", err)
	}

	if err := b.client.Publish(ctx, channelPrefix+event.Collection, payload).Err(); err != nil {
		return fmt.Errorf("error publishing event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, collection string) (<-chan Event, func(), error) {
	sub := b.client.Subscribe(ctx, channelPrefix+collection)

	// Force the subscription to be established before returning, so a
	// caller never misses events published after Subscribe returns.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("error subscribing: %w", err)
	}

	out := make(chan Event)
	done := make(chan struct{})

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		close(done)
		_ = sub.Close()
	}

	return out, cancel, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
