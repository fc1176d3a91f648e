package notifier

import (
	"context"
	"errors"
)

// CompositeNotifier fans every event out to several notifiers
type CompositeNotifier struct {
	notifiers []Notifier
}

// NewCompositeNotifier creates a composite notifier
func NewCompositeNotifier(notifiers ...Notifier) *CompositeNotifier {
	return &CompositeNotifier{notifiers: notifiers}
}

// Notify implements Notifier.Notify. Every notifier is attempted.
func (c *CompositeNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range c.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watch implements Watcher.Watch using the first notifier that supports it
func (c *CompositeNotifier) Watch(ctx context.Context) (<-chan Event, error) {
	for _, n := range c.notifiers {
		if w, ok := n.(Watcher); ok {
			return w.Watch(ctx)
		}
	}
	return nil, errors.ErrUnsupported
}

// Close implements Notifier.Close
func (c *CompositeNotifier) Close() error {
	var errs []error
	for _, n := range c.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
