package config

import (
	"fmt"
	"strings"
)

// ValidationError collects every problem found in a configuration
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid configuration")
	sb.WriteString("\n\n")
	for _, p := range e.Problems {
		sb.WriteString("--> ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Validate checks a configuration after defaults have been applied
func Validate(cfg *ServerConfig) error {
	var problems []string

	if cfg.Port < 1 || cfg.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", cfg.Port))
	}

	s := cfg.Session
	if s.ReapInterval <= 0 {
		problems = append(problems, "session.reap_interval must be positive")
	}
	if s.IdleTimeout <= 0 {
		problems = append(problems, "session.idle_timeout must be positive")
	}
	if s.IdleTimeout < s.ReapInterval {
		problems = append(problems, fmt.Sprintf("session.idle_timeout (%s) is shorter than session.reap_interval (%s)", s.IdleTimeout, s.ReapInterval))
	}
	if s.IDDigits < 1 || s.IDDigits > 18 {
		problems = append(problems, fmt.Sprintf("session.id_digits %d out of range [1, 18]", s.IDDigits))
	}
	if s.MaxIDAttempts < 1 {
		problems = append(problems, "session.max_id_attempts must be at least 1")
	}

	t := cfg.Transport
	if !strings.HasPrefix(t.Path, "/") {
		problems = append(problems, fmt.Sprintf("transport.path %q must start with /", t.Path))
	}
	if t.SendQueueSize < 1 {
		problems = append(problems, "transport.send_queue_size must be at least 1")
	}
	if t.PingInterval >= t.PongTimeout {
		problems = append(problems, "transport.ping_interval must be shorter than transport.pong_timeout")
	}

	switch cfg.Notifier.Type {
	case "none", "log":
	case "redis", "composite":
		if cfg.Notifier.Redis.Addr == "" {
			problems = append(problems, fmt.Sprintf("notifier.redis.addr is required for the %s notifier", cfg.Notifier.Type))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown notifier type %q", cfg.Notifier.Type))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
