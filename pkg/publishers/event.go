package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/google/uuid"
)

// EventPostCreated is the only event kind the watcher emits today.
const EventPostCreated = "post.created"

// Event is the payload published downstream for a newly observed post.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	PostID     int64     `json:"post_id"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt"`
	Author     string    `json:"author,omitempty"`
	Category   string    `json:"category,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Upvotes    int       `json:"upvotes"`
	Replies    int       `json:"replies"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewEvent builds a post.created Event for post as seen by source.
func NewEvent(source string, post domain.Post, excerpt, url string) Event {
	evt := Event{
		ID:         uuid.NewString(),
		Kind:       EventPostCreated,
		Source:     source,
		PostID:     post.ID,
		Title:      post.Title,
		Excerpt:    excerpt,
		Category:   post.Category,
		Tags:       post.Tags,
		Upvotes:    post.Upvotes,
		Replies:    post.Replies,
		URL:        url,
		CreatedAt:  post.CreatedAt.Time,
		ObservedAt: time.Now().UTC(),
	}
	if post.Author != nil {
		evt.Author = post.Author.Username
	}
	return evt
}

// DeliveryKey identifies the event across retries; sinks use it for deduplication.
func (e Event) DeliveryKey() string {
	return e.kind() + ":" + strconv.FormatInt(e.PostID, 10)
}

func (e Event) kind() string {
	if e.Kind == "" {
		return EventPostCreated
	}
	return e.Kind
}

// message is an event encoded once and handed to a sink.
type message struct {
	body  []byte
	attrs map[string]string
	key   string
}

// encode fills in a missing id or kind, so hand-built events are still
// routable.
func (e Event) encode() (message, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Kind == "" {
		e.Kind = EventPostCreated
	}
	body, err := json.Marshal(e)
	if err != nil {
		return message{}, fmt.Errorf("marshal %s event for post %d: %w", e.Kind, e.PostID, err)
	}

	attrs := map[string]string{
		"event_id": e.ID,
		"kind":     e.Kind,
		"post_id":  strconv.FormatInt(e.PostID, 10),
	}
	if e.Source != "" {
		attrs["source"] = e.Source
	}
	if e.Category != "" {
		attrs["category"] = e.Category
	}
	return message{body: body, attrs: attrs, key: e.DeliveryKey()}, nil
}
