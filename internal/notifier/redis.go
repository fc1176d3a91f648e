package notifier

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/common/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier appends events to a capped Redis stream
type RedisNotifier struct {
	logger     *zap.Logger
	client     redis.UniversalClient
	streamName string
	maxLen     int64
}

var addrSeparators = regexp.MustCompile(`[;,]`)

// NewRedisNotifier connects to Redis and verifies the connection
func NewRedisNotifier(logger *zap.Logger, cfg config.NotifierRedisConfig) (*RedisNotifier, error) {
	var addrs []string
	for _, a := range addrSeparators.Split(cfg.Addr, -1) {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	opts := &redis.UniversalOptions{
		Addrs:    addrs,
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if cfg.ClusterType == cnst.RedisClusterTypeSentinel {
		opts.MasterName = cfg.MasterName
	}
	if cfg.ClusterType != cnst.RedisClusterTypeCluster {
		// can not set db in cluster mode
		opts.DB = cfg.DB
	}
	client := redis.NewUniversalClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisNotifier{
		logger:     logger.Named("notifier.redis"),
		client:     client,
		streamName: cfg.Stream,
		maxLen:     cfg.MaxLen,
	}, nil
}

// Notify implements Notifier.Notify
func (r *RedisNotifier) Notify(ctx context.Context, event Event) error {
	args := &redis.XAddArgs{
		Stream: r.streamName,
		Values: map[string]any{
			"event":      event.Action.String(),
			"session":    event.SessionID,
			"connection": event.ConnectionID,
			"timestamp":  event.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Action, err)
	}
	return nil
}

// Watch implements Watcher.Watch
func (r *RedisNotifier) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 10)

	go func() {
		defer close(ch)

		// only messages published after the call
		lastID := "$"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := r.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{r.streamName, lastID},
				Count:   10,
				Block:   time.Second,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.ErrClosed) {
					return
				}
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					r.logger.Error("failed to read from stream", zap.Error(err))
					time.Sleep(100 * time.Millisecond)
				}
				continue
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					lastID = msg.ID
					select {
					case ch <- eventFromValues(msg.Values):
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

func eventFromValues(values map[string]any) Event {
	str := func(k string) string {
		s, _ := values[k].(string)
		return s
	}
	ts, _ := time.Parse(time.RFC3339Nano, str("timestamp"))
	return Event{
		Action:       cnst.LifecycleAction(str("event")),
		SessionID:    str("session"),
		ConnectionID: str("connection"),
		Timestamp:    ts,
	}
}

// Close implements Notifier.Close
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
