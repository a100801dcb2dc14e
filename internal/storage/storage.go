// Package storage remembers which posts the watcher has already announced.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks ids of posts already published downstream. Implementations
// are safe for concurrent use.
type Store interface {
	SeenPost(id string) (bool, error)
	MarkPost(id string) error
	Close() error
}

// Backend names accepted by NewStore.
const (
	TypeBBolt  = "bbolt"
	TypeRedis  = "redis"
	TypeMemory = "memory"
	TypeNone   = "none"
)

// Options controls how long a post stays marked and how often expired marks
// are swept.
type Options struct {
	PostTTL         time.Duration
	CleanupInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.PostTTL <= 0 {
		o.PostTTL = 7 * 24 * time.Hour
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 12 * time.Hour
	}
	return o
}

// NewStore opens the backend named typ. location is the file path for bbolt
// and a redis:// URL for redis; other backends ignore it. "none" (or empty)
// never remembers anything, so every poll republishes.
func NewStore(typ, location string, opts Options) (Store, error) {
	opts = opts.withDefaults()
	location = strings.TrimSpace(location)

	switch strings.ToLower(strings.TrimSpace(typ)) {
	case TypeBBolt:
		if location == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(location, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case TypeRedis:
		if location == "" {
			return nil, fmt.Errorf("redis storage requires a url")
		}
		store, err := openRedis(location, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case TypeMemory:
		return newMemoryStore(opts), nil
	case "", TypeNone, "disabled":
		return forgetful{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// forgetful is the "none" backend.
type forgetful struct{}

func (forgetful) SeenPost(string) (bool, error) { return false, nil }
func (forgetful) MarkPost(string) error         { return nil }
func (forgetful) Close() error                  { return nil }
