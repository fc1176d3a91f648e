package notifier

import (
	"fmt"

	"github.com/amoylab/cryptogrammer/internal/common/config"

	"go.uber.org/zap"
)

// Type represents the type of notifier
type Type string

const (
	// TypeNone discards events
	TypeNone Type = "none"
	// TypeLog writes events to the logger
	TypeLog Type = "log"
	// TypeRedis appends events to a Redis stream
	TypeRedis Type = "redis"
	// TypeComposite logs and appends to Redis
	TypeComposite Type = "composite"
)

// NewNotifier creates a new notifier based on the configuration
func NewNotifier(logger *zap.Logger, cfg *config.NotifierConfig) (Notifier, error) {
	switch Type(cfg.Type) {
	case TypeNone, "":
		return NoopNotifier{}, nil
	case TypeLog:
		return NewLogNotifier(logger), nil
	case TypeRedis:
		return NewRedisNotifier(logger, cfg.Redis)
	case TypeComposite:
		r, err := NewRedisNotifier(logger, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewCompositeNotifier(NewLogNotifier(logger), r), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %s", cfg.Type)
	}
}
