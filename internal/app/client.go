package app

import (
	"fmt"

	"github.com/arcadia-forum/arcadia-client/internal/config"
	"github.com/arcadia-forum/arcadia-client/internal/logger"
	"github.com/arcadia-forum/arcadia-client/internal/session"
	"github.com/arcadia-forum/arcadia-client/pkg/apiclient"
	"github.com/arcadia-forum/arcadia-client/pkg/forumapi"
)

// NewAPIClient builds the request client from config. The token source is
// consulted on every request; a configured api_token takes precedence over src.
func NewAPIClient(cfg *config.Config, src session.Source, log logger.Logger) (*apiclient.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	origin, err := apiclient.ResolveOrigin(cfg.APIURL, apiclient.StaticDomain(cfg.APIDomain))
	if err != nil {
		return nil, fmt.Errorf("resolve api origin: %w", err)
	}

	tokens := session.First(session.Static(cfg.APIToken), src)
	client, err := apiclient.New(origin,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithSession(tokens),
		apiclient.WithLogger(log),
		apiclient.WithDefaultHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}
	log.DebugObj("api client initialized", "api_client", map[string]any{
		"origin":          origin,
		"timeout_seconds": int(cfg.RequestTimeout.Seconds()),
	})
	return client, nil
}

// NewForumService builds the façades on top of NewAPIClient.
func NewForumService(cfg *config.Config, src session.Source, log logger.Logger) (*forumapi.Service, error) {
	client, err := NewAPIClient(cfg, src, log)
	if err != nil {
		return nil, err
	}
	return forumapi.New(client), nil
}
