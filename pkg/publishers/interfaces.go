package publishers

import "context"

// Publisher delivers post events to one downstream sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// closer is implemented by sinks that hold client connections.
type closer interface {
	Close() error
}
