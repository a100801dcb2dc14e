package watcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/arcadia-forum/arcadia-client/internal/logger"
	"github.com/arcadia-forum/arcadia-client/pkg/forumapi"
	"github.com/arcadia-forum/arcadia-client/pkg/publishers"
	"golang.org/x/time/rate"
)

// Options tunes how events are labelled and paced.
type Options struct {
	// Source is stamped on every event.
	Source string
	// PostBaseURL, when set, is joined with the post id to build event links.
	PostBaseURL string
	// Limiter paces publishing when a poll finds many new posts. Nil means no pacing.
	Limiter *rate.Limiter
}

// Result summarizes a single poll.
type Result struct {
	Listed    int
	Fresh     int
	Published int
}

// Service polls the post listing and publishes posts it has not seen before.
type Service struct {
	posts  PostLister
	pub    EventPublisher
	dedupe Deduper
	log    logger.Logger
	opts   Options
}

// NewService wires a watcher. A nil deduper publishes every listed post on every poll.
func NewService(posts PostLister, pub EventPublisher, dedupe Deduper, log logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	opts.PostBaseURL = strings.TrimRight(strings.TrimSpace(opts.PostBaseURL), "/")
	return &Service{
		posts:  posts,
		pub:    pub,
		dedupe: dedupe,
		log:    log,
		opts:   opts,
	}
}

// Poll lists posts once and publishes the unseen ones. A post is marked seen
// only after at least one sink accepted it.
func (s *Service) Poll(ctx context.Context) (Result, error) {
	if s == nil || s.posts == nil || s.pub == nil {
		return Result{}, fmt.Errorf("watcher service is not initialized")
	}

	list, err := s.posts.List(ctx, forumapi.ListParams{})
	if err != nil {
		return Result{}, fmt.Errorf("list posts: %w", err)
	}

	res := Result{Listed: len(list.Results)}
	fresh := s.filterUnseen(list.Results)
	res.Fresh = len(fresh)

	var errs []error
	for _, post := range fresh {
		select {
		case <-ctx.Done():
			return res, errors.Join(append(errs, ctx.Err())...)
		default:
		}
		if s.opts.Limiter != nil {
			if err := s.opts.Limiter.Wait(ctx); err != nil {
				return res, errors.Join(append(errs, err)...)
			}
		}

		if err := s.publishPost(ctx, post); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Published++
	}

	s.log.InfoObj("watch poll completed", "poll_result", map[string]any{
		"listed":    res.Listed,
		"fresh":     res.Fresh,
		"published": res.Published,
		"failed":    len(errs),
	})
	return res, errors.Join(errs...)
}

func (s *Service) publishPost(ctx context.Context, post domain.Post) error {
	id := postKey(post.ID)

	text, err := excerpt(post.Content)
	if err != nil {
		s.log.WarnObj("post excerpt failed", "excerpt_error", map[string]any{
			"post_id": post.ID,
			"error":   err.Error(),
		})
	}

	evt := publishers.NewEvent(s.opts.Source, post, text, s.postURL(id))
	delivered, err := s.pub.Publish(ctx, evt)
	if delivered == 0 {
		if err == nil {
			err = errors.New("no publisher accepted the event")
		}
		return fmt.Errorf("publish post %s: %w", id, err)
	}
	if err != nil {
		s.log.WarnObj("post partially published", "publish_error", map[string]any{
			"post_id":   post.ID,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}

	if s.dedupe != nil {
		if err := s.dedupe.MarkPost(id); err != nil {
			return fmt.Errorf("mark post %s seen: %w", id, err)
		}
	}
	return nil
}

// filterUnseen drops posts already recorded. Lookup failures keep the post.
func (s *Service) filterUnseen(posts []domain.Post) []domain.Post {
	if s.dedupe == nil {
		return posts
	}
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		seen, err := s.dedupe.SeenPost(postKey(p.ID))
		if err != nil {
			s.log.WarnObj("seen-post lookup failed", "dedupe_error", map[string]any{
				"post_id": p.ID,
				"error":   err.Error(),
			})
			out = append(out, p)
			continue
		}
		if !seen {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) postURL(id string) string {
	if s.opts.PostBaseURL == "" {
		return ""
	}
	return s.opts.PostBaseURL + "/" + id
}

func postKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
