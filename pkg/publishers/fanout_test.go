package publishers

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	delay  time.Duration
	calls  atomic.Int32
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishCountsDeliveriesAndJoinsErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: TypeHTTP}
	bad := &stubPublisher{id: "bad", typ: TypeSQS, err: errors.New("throttled")}
	fanout := NewFanout([]Publisher{ok, nil, bad}, nil)

	count, err := fanout.Publish(context.Background(), Event{PostID: 1})
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
	if err == nil || !strings.Contains(err.Error(), "sqs publisher[bad]: throttled") {
		t.Fatalf("unexpected error %v", err)
	}
	if ok.calls.Load() != 1 || bad.calls.Load() != 1 {
		t.Fatalf("every sink should be called once, got ok=%d bad=%d", ok.calls.Load(), bad.calls.Load())
	}
	if fanout.Size() != 2 {
		t.Fatalf("nil sinks should be dropped, size=%d", fanout.Size())
	}
}

func TestFanoutPublishesConcurrently(t *testing.T) {
	slow := []Publisher{
		&stubPublisher{id: "a", typ: TypeHTTP, delay: 200 * time.Millisecond},
		&stubPublisher{id: "b", typ: TypeHTTP, delay: 200 * time.Millisecond},
		&stubPublisher{id: "c", typ: TypeHTTP, delay: 200 * time.Millisecond},
	}
	start := time.Now()
	count, err := NewFanout(slow, nil).Publish(context.Background(), Event{PostID: 2})
	if err != nil || count != 3 {
		t.Fatalf("Publish = %d, %v", count, err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("sinks ran sequentially: %s", elapsed)
	}
}

func TestFanoutWithoutSinks(t *testing.T) {
	count, err := NewFanout(nil, nil).Publish(context.Background(), Event{})
	if count != 0 || err != nil {
		t.Fatalf("Publish = %d, %v", count, err)
	}
}

func TestFanoutCloseClosesSinks(t *testing.T) {
	pub := &stubPublisher{id: "p", typ: TypeGCPPubSub}
	if err := NewFanout([]Publisher{pub}, nil).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("sink was not closed")
	}
}

func TestDefaultBuildersBuildWebhook(t *testing.T) {
	pubs, err := DefaultBuilders().BuildAll(context.Background(), []SinkConfig{
		{ID: "hook", Type: TypeHTTP, Webhook: &WebhookConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].ID() != "hook" || pubs[0].Type() != TypeHTTP {
		t.Fatalf("unexpected publishers %v", pubs)
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	_, err := DefaultBuilders().BuildAll(context.Background(), []SinkConfig{
		{ID: "hook", Type: TypeHTTP, Webhook: &WebhookConfig{URL: "https://example.com"}},
		{ID: "k", Type: "kafka"},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), `"k"`) {
		t.Fatalf("expected error naming the failing entry, got %v", err)
	}
}
