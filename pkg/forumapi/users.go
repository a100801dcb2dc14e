package forumapi

import (
	"context"
	"net/http"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/arcadia-forum/arcadia-client/pkg/apiclient"
)

const (
	registerPath      = "/api/user/register/"
	loginPath         = "/api/user/login/"
	currentUserPath   = "/api/user/current/"
	updateProfilePath = "/api/user/update/"
	userByIDPath      = "/api/user/get/"
)

// UsersAPI wraps the /api/user/ resource.
type UsersAPI struct {
	req Requester
}

func NewUsersAPI(req Requester) *UsersAPI {
	return &UsersAPI{req: req}
}

// Register creates an account and returns the user with a session token.
func (u *UsersAPI) Register(ctx context.Context, input any) (*domain.AuthResult, error) {
	return u.auth(ctx, registerPath, input)
}

// Login exchanges credentials for a session token. Storing it is up to the caller.
func (u *UsersAPI) Login(ctx context.Context, credentials any) (*domain.AuthResult, error) {
	return u.auth(ctx, loginPath, credentials)
}

// Profile returns the user the current token belongs to.
func (u *UsersAPI) Profile(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := u.req.Do(ctx, currentUserPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UsersAPI) UpdateProfile(ctx context.Context, input any) (*domain.User, error) {
	var out domain.User
	opts := &apiclient.Options{Method: http.MethodPut, Body: input}
	if err := u.req.Do(ctx, updateProfilePath, opts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckProfile fetches another user's public profile.
func (u *UsersAPI) CheckProfile(ctx context.Context, userID int64) (*domain.User, error) {
	var out domain.User
	if err := u.req.Do(ctx, userByIDPath+idSegment(userID)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UsersAPI) auth(ctx context.Context, path string, body any) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := u.req.Do(ctx, path, &apiclient.Options{Method: http.MethodPost, Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
