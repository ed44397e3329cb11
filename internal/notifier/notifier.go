package notifier

import "context"

// Notifier delivers a formatted message to operators.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// NoopNotifier drops every message. Used when Telegram is not configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string) error { return nil }
func (NoopNotifier) Name() string                       { return "noop" }
