package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

// DomainResolver supplies the fallback base origin when no explicit URL is configured.
type DomainResolver func() (string, error)

// StaticDomain returns a resolver that always yields domain.
func StaticDomain(domain string) DomainResolver {
	return func() (string, error) { return domain, nil }
}

// ResolveOrigin picks the base origin: envURL when set, otherwise the resolver's domain.
// Trailing slashes are removed so origin + "/api/..." never doubles them.
func ResolveOrigin(envURL string, resolver DomainResolver) (string, error) {
	if origin := normalizeOrigin(envURL); origin != "" {
		return origin, nil
	}
	if resolver == nil {
		return "", errors.New("no api url configured and no domain resolver")
	}
	domain, err := resolver()
	if err != nil {
		return "", fmt.Errorf("resolve api domain: %w", err)
	}
	origin := normalizeOrigin(domain)
	if origin == "" {
		return "", errors.New("domain resolver returned an empty origin")
	}
	return origin, nil
}

func normalizeOrigin(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
