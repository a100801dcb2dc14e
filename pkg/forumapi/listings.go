package forumapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
)

const (
	topicsPath       = "/api/topics"
	trendingTagsPath = "/api/tags/trending"
	categoriesPath   = "/api/categories"

	SortLatest       = "latest"
	SortPopular      = "popular"
	SortAlphabetical = "alphabetical"

	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"

	defaultTopicLimit    = 6
	defaultTagLimit      = 8
	defaultCategoryLimit = 6
)

// The first entry of each set is the default.
var (
	topicSorts    = []string{SortLatest, SortPopular}
	categorySorts = []string{SortPopular, SortAlphabetical}
	timeframes    = []string{"", TimeframeDay, TimeframeWeek, TimeframeMonth}
)

// ListingsAPI serves the landing page collections: topics, trending tags and categories.
type ListingsAPI struct {
	req Requester
}

func NewListingsAPI(req Requester) *ListingsAPI {
	return &ListingsAPI{req: req}
}

// Topics lists discussion topics sorted by "latest" (default) or "popular".
func (l *ListingsAPI) Topics(ctx context.Context, sort string, limit int) ([]domain.Topic, error) {
	sort, err := pickOption("sort", sort, topicSorts)
	if err != nil {
		return nil, err
	}
	path := withQuery(topicsPath, "sort", sort, "limit", strconv.Itoa(orDefault(limit, defaultTopicLimit)))
	return fetchList[domain.Topic](ctx, l.req, path)
}

// TrendingTags lists the most used tags. An empty timeframe leaves the window to the backend.
func (l *ListingsAPI) TrendingTags(ctx context.Context, limit int, timeframe string) ([]domain.Tag, error) {
	timeframe, err := pickOption("timeframe", timeframe, timeframes)
	if err != nil {
		return nil, err
	}
	kv := []string{"limit", strconv.Itoa(orDefault(limit, defaultTagLimit))}
	if timeframe != "" {
		kv = append(kv, "timeframe", timeframe)
	}
	return fetchList[domain.Tag](ctx, l.req, withQuery(trendingTagsPath, kv...))
}

// Categories lists forum categories sorted by "popular" (default) or "alphabetical".
func (l *ListingsAPI) Categories(ctx context.Context, sort string, limit int) ([]domain.Category, error) {
	sort, err := pickOption("sort", sort, categorySorts)
	if err != nil {
		return nil, err
	}
	path := withQuery(categoriesPath, "sort", sort, "limit", strconv.Itoa(orDefault(limit, defaultCategoryLimit)))
	return fetchList[domain.Category](ctx, l.req, path)
}

func fetchList[T any](ctx context.Context, req Requester, path string) ([]T, error) {
	var raw json.RawMessage
	if err := req.Do(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[T](raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

// pickOption lower-cases value and checks it against allowed. Empty means allowed[0].
func pickOption(name, value string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return allowed[0], nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("unsupported %s %q (want one of %s)", name, value, strings.Join(nonEmpty(allowed), ", "))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// withQuery appends key/value pairs in the given order.
func withQuery(path string, kv ...string) string {
	var b strings.Builder
	b.WriteString(path)
	for i := 0; i+1 < len(kv); i += 2 {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[i+1]))
	}
	return b.String()
}
