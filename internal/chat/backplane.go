package chat

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"roomchat/internal/metrics"
)

// Backplane carries events between server processes. Losing it is a
// capability loss, not a failure: local fan-out keeps working and
// cross-process fan-out resumes when the channel comes back.
type Backplane interface {
	Publish(ctx context.Context, evt *Event) error
}

const backplaneChannel = "roomchat:events"

// RedisBackplane implements Backplane over Redis pub/sub. All rooms
// share one channel; receivers relay only to their own local members so
// extra traffic costs a decode, never a wrong delivery.
type RedisBackplane struct {
	client   *redis.Client
	degraded atomic.Bool
}

func NewRedisBackplane(client *redis.Client) *RedisBackplane {
	return &RedisBackplane{client: client}
}

func (b *RedisBackplane) Publish(ctx context.Context, evt *Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, backplaneChannel, data).Err(); err != nil {
		b.setDegraded(true)
		metrics.BackplaneDropped.Inc()
		return err
	}
	b.setDegraded(false)
	metrics.BackplanePublished.Inc()
	return nil
}

// Degraded reports whether the last interaction with Redis failed.
func (b *RedisBackplane) Degraded() bool {
	return b.degraded.Load()
}

func (b *RedisBackplane) setDegraded(v bool) {
	if b.degraded.Swap(v) == v {
		return
	}
	if v {
		metrics.BackplaneDegraded.Set(1)
		log.Warn().Msg("backplane unreachable, fan-out is local only")
	} else {
		metrics.BackplaneDegraded.Set(0)
		log.Info().Msg("backplane reachable again")
	}
}

// Run subscribes to the shared channel and hands every decoded event to
// handle. It blocks until ctx is cancelled, resubscribing with a small
// delay whenever the subscription dies.
func (b *RedisBackplane) Run(ctx context.Context, handle func(*Event)) {
	for {
		pubsub := b.client.Subscribe(ctx, backplaneChannel)
		ch := pubsub.Channel()

		for msg := range ch {
			b.setDegraded(false)
			evt := &Event{}
			if err := json.Unmarshal([]byte(msg.Payload), evt); err != nil {
				log.Warn().Err(err).Msg("dropping malformed backplane event")
				continue
			}
			handle(evt)
		}
		pubsub.Close()

		if ctx.Err() != nil {
			return
		}
		b.setDegraded(true)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
