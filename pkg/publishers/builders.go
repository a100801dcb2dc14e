package publishers

import (
	"context"
	"fmt"
)

// Builder creates the Publisher for one catalog entry.
type Builder func(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error)

// Builders maps sink types to their Builder.
type Builders map[string]Builder

// DefaultBuilders knows every sink type the catalog accepts.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:      newWebhookPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newPubSubPublisher,
		TypeNATS:      newNATSPublisher,
	}
}

// Build creates the publisher for cfg.
func (b Builders) Build(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	build, ok := b[cfg.Type]
	if !ok || build == nil {
		return nil, fmt.Errorf("no builder for publisher type %q", cfg.Type)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return build(ctx, cfg, ensureLogger(log))
}

// BuildAll creates a publisher per entry. On failure the publishers already
// built are closed and nothing is returned.
func (b Builders) BuildAll(ctx context.Context, cfgs []SinkConfig, log Logger) ([]Publisher, error) {
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			_ = NewFanout(pubs, log).Close()
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
