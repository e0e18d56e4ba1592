package realtime

import (
	"Paddock/internal/pkg/consts"
	"context"
	log "log/slog"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

type redisChannel struct {
	rdb *redis.Client
}

// NewRedisChannel 基于 Redis Pub/Sub 的实时通道实现
func NewRedisChannel(rdb *redis.Client) Channel {
	return &redisChannel{rdb: rdb}
}

// Publish 同时发布到会话频道与运营端聚合频道
func (c *redisChannel) Publish(ctx context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pipe := c.rdb.Pipeline()
	pipe.Publish(ctx, consts.ConversationChannelKey+ev.ConversationID, data)
	pipe.Publish(ctx, consts.OperatorChannelKey, data)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *redisChannel) SubscribeConversation(ctx context.Context, convID string) (*Subscription, error) {
	return c.subscribe(ctx, consts.ConversationChannelKey+convID)
}

func (c *redisChannel) SubscribeOperator(ctx context.Context) (*Subscription, error) {
	return c.subscribe(ctx, consts.OperatorChannelKey)
}

func (c *redisChannel) subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, channel)

	// 确认订阅成功，失败时立即释放
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := NewSubscription(64, pubsub.Close)

	go func() {
		defer close(sub.events)
		ch := pubsub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.Warn("realtime: drop malformed event", "channel", channel, "err", err)
					continue
				}
				if !sub.Deliver(&ev) {
					select {
					case <-sub.Done():
						return
					default:
						log.Warn("realtime: slow subscriber, event dropped", "channel", channel)
					}
				}
			case <-sub.Done():
				return
			}
		}
	}()

	return sub, nil
}
