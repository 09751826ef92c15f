package notify

import "context"

// Notifier defines the boundary to an external SMS delivery provider
type Notifier interface {
	Send(ctx context.Context, to, message string) error
}
