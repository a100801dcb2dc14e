package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const sessionBucket = "session"

// FileStore keeps the auth token in a bbolt file.
type FileStore struct {
	db *bolt.DB
}

// OpenFileStore opens (or creates) the session file at path for reading and writing.
func OpenFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("session path is empty")
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session bucket: %w", err)
	}
	return &FileStore{db: db}, nil
}

// OpenReadOnly opens an existing session file under a shared lock.
func OpenReadOnly(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("session path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat session file: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	return &FileStore{db: db}, nil
}

// Close closes the underlying database.
func (s *FileStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Token returns the stored token, or "" when none is stored.
func (s *FileStore) Token(context.Context) (string, error) {
	if s == nil || s.db == nil {
		return "", nil
	}

	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		if v := bucket.Get([]byte(TokenKey)); v != nil {
			token = string(v)
		}
		return nil
	})
	return token, err
}

// SetToken stores token, replacing any previous value.
func (s *FileStore) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		return bucket.Put([]byte(TokenKey), []byte(token))
	})
}

// Clear removes the stored token.
func (s *FileStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		return bucket.Delete([]byte(TokenKey))
	})
}

// FileSource reads the token from the session file on every call and closes
// it again, so long-running processes never hold the file lock between
// requests. A missing file means no token.
func FileSource(path string) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		store, err := OpenReadOnly(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", nil
			}
			return "", err
		}
		defer store.Close()
		return store.Token(ctx)
	})
}
