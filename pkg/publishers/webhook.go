package publishers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/arcadia-forum/arcadia-client/pkg/httpclient"
)

// Webhook delivery headers.
const (
	HeaderEvent     = "X-Arcadia-Event"
	HeaderEventID   = "X-Arcadia-Event-Id"
	HeaderDelivery  = "X-Arcadia-Delivery"
	HeaderSignature = "X-Arcadia-Signature"
)

// webhookPublisher sends events as JSON over HTTP.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	secret  []byte
	http    httpclient.Doer
	log     Logger
}

func newWebhookPublisher(_ context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	w := cfg.Webhook
	if w == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	method, timeout := w.Method, w.TimeoutSeconds
	if method == "" {
		method = defaultWebhookMethod
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	pub := &webhookPublisher{
		id:      cfg.ID,
		method:  method,
		url:     w.URL,
		headers: w.Headers,
		http:    httpclient.NewRestyClient(time.Duration(timeout) * time.Second),
		log:     ensureLogger(log),
	}
	if w.Secret != "" {
		pub.secret = []byte(w.Secret)
	}
	return pub, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := evt.encode()
	if err != nil {
		return err
	}

	headers := make(map[string]string, len(w.headers)+5)
	for k, v := range w.headers {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"
	headers[HeaderEvent] = msg.attrs["kind"]
	headers[HeaderEventID] = msg.attrs["event_id"]
	headers[HeaderDelivery] = msg.key
	if w.secret != nil {
		headers[HeaderSignature] = Sign(w.secret, msg.body)
	}

	resp, err := w.http.Do(ctx, w.method, w.url, headers, msg.body)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("webhook responded %d: %s", code, snippet(resp.Body()))
	}

	w.log.DebugObj("webhook delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"post_id":      evt.PostID,
		"status":       resp.StatusCode(),
	})
	return nil
}

// Sign returns the signature header value for body: "sha256=" followed by the
// hex HMAC-SHA256 of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func snippet(body []byte) string {
	const limit = 256
	if len(body) > limit {
		body = body[:limit]
	}
	return strings.TrimSpace(string(body))
}
