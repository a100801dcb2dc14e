package forumapi

import (
	"context"
	"net/http"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/arcadia-forum/arcadia-client/pkg/apiclient"
)

const postsPath = "/api/main/post/"

// ListParams are the listing knobs the backend documents.
// They are accepted but not sent: the listing endpoint is called without a query string.
type ListParams struct {
	Page     int
	PageSize int
	// Ordering is a sort field with optional "-" prefix, e.g. "-upvotes".
	Ordering string
}

// PostsAPI wraps the /api/main/post/ resource.
type PostsAPI struct {
	req Requester
}

func NewPostsAPI(req Requester) *PostsAPI {
	return &PostsAPI{req: req}
}

func postPath(id int64) string {
	return postsPath + idSegment(id) + "/"
}

// List fetches the post listing. params are ignored.
func (p *PostsAPI) List(ctx context.Context, params ListParams) (*domain.PostList, error) {
	_ = params
	var out domain.PostList
	if err := p.req.Do(ctx, postsPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PostsAPI) Get(ctx context.Context, id int64) (*domain.Post, error) {
	var out domain.Post
	if err := p.req.Do(ctx, postPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts input as the JSON body, unchanged.
func (p *PostsAPI) Create(ctx context.Context, input any) (*domain.Post, error) {
	return p.send(ctx, http.MethodPost, postsPath, input)
}

// Update replaces the post.
func (p *PostsAPI) Update(ctx context.Context, id int64, input any) (*domain.Post, error) {
	return p.send(ctx, http.MethodPut, postPath(id), input)
}

// Patch partially updates the post.
func (p *PostsAPI) Patch(ctx context.Context, id int64, input any) (*domain.Post, error) {
	return p.send(ctx, http.MethodPatch, postPath(id), input)
}

func (p *PostsAPI) Delete(ctx context.Context, id int64) error {
	return p.req.Do(ctx, postPath(id), &apiclient.Options{Method: http.MethodDelete}, nil)
}

// Upvote returns the post with its new upvote count.
func (p *PostsAPI) Upvote(ctx context.Context, id int64) (*domain.Post, error) {
	return p.send(ctx, http.MethodPost, postPath(id)+"upvote/", nil)
}

func (p *PostsAPI) send(ctx context.Context, method, path string, body any) (*domain.Post, error) {
	var out domain.Post
	if err := p.req.Do(ctx, path, &apiclient.Options{Method: method, Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
