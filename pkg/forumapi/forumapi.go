// Package forumapi exposes the forum's REST resources as narrow façades over
// the request client. Every method issues exactly one request.
package forumapi

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/arcadia-forum/arcadia-client/pkg/apiclient"
)

// Requester is the part of apiclient.Client the façades depend on.
type Requester interface {
	Do(ctx context.Context, endpoint string, opts *apiclient.Options, out any) error
}

// Service bundles the resource façades.
type Service struct {
	Posts    *PostsAPI
	Users    *UsersAPI
	Listings *ListingsAPI
}

// New wires all façades to the same requester.
func New(req Requester) *Service {
	return &Service{
		Posts:    NewPostsAPI(req),
		Users:    NewUsersAPI(req),
		Listings: NewListingsAPI(req),
	}
}

func idSegment(id int64) string {
	return strconv.FormatInt(id, 10)
}

// decodeList accepts either a bare JSON array or a {"results": [...]} envelope.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if domain.IsJSONArray(raw) {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var env struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}
