package watcher

import (
	"context"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/arcadia-forum/arcadia-client/pkg/forumapi"
	"github.com/arcadia-forum/arcadia-client/pkg/publishers"
)

// PostLister lists forum posts; satisfied by *forumapi.PostsAPI.
type PostLister interface {
	List(ctx context.Context, params forumapi.ListParams) (*domain.PostList, error)
}

// EventPublisher publishes events downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which posts were already published.
type Deduper interface {
	SeenPost(id string) (bool, error)
	MarkPost(id string) error
}
