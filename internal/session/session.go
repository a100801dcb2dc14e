// Package session provides the auth token lookup used by the API client.
package session

import (
	"context"
	"strings"
)

// TokenKey is the storage key holding the auth token.
const TokenKey = "auth_token"

// Source yields the current auth token. An empty token means "not logged in".
type Source interface {
	Token(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

type staticSource string

func (s staticSource) Token(context.Context) (string, error) { return string(s), nil }

// Static returns a Source that always yields token.
func Static(token string) Source {
	return staticSource(strings.TrimSpace(token))
}

// Empty returns a Source that never yields a token.
func Empty() Source {
	return staticSource("")
}

// First returns the first non-empty token among sources.
func First(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			tok, err := src.Token(ctx)
			if err != nil {
				return "", err
			}
			if tok != "" {
				return tok, nil
			}
		}
		return "", nil
	})
}
