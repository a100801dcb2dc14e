package publishers

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// natsPublisher publishes events on a NATS subject. The delivery key goes in
// Nats-Msg-Id so a JetStream stream on the subject drops re-announcements.
type natsPublisher struct {
	id      string
	subject string
	conn    *nats.Conn
	log     Logger
}

func newNATSPublisher(_ context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	n := cfg.NATS
	if n == nil {
		return nil, fmt.Errorf("publisher %q missing nats configuration", cfg.ID)
	}

	opts := []nats.Option{nats.Name("arcadia-forum-watcher/" + cfg.ID)}
	if n.CredentialsFile != "" {
		opts = append(opts, nats.UserCredentials(n.CredentialsFile))
	}
	conn, err := nats.Connect(n.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &natsPublisher{id: cfg.ID, subject: n.Subject, conn: conn, log: ensureLogger(log)}, nil
}

func (p *natsPublisher) ID() string   { return p.id }
func (p *natsPublisher) Type() string { return TypeNATS }

// Publish returns once the server has processed the message.
func (p *natsPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := evt.encode()
	if err != nil {
		return err
	}

	out := nats.NewMsg(p.subject)
	out.Data = msg.body
	for k, v := range msg.attrs {
		out.Header.Set(k, v)
	}
	out.Header.Set(nats.MsgIdHdr, msg.key)

	if err := p.conn.PublishMsg(out); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	p.log.DebugObj("nats publisher delivered event", "publisher_nats_delivery", map[string]any{
		"publisher_id": p.id,
		"post_id":      evt.PostID,
		"subject":      p.subject,
	})
	return nil
}

func (p *natsPublisher) Close() error {
	p.conn.Close()
	return nil
}
