package forumapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/arcadia-forum/arcadia-client/internal/session"
	"github.com/arcadia-forum/arcadia-client/pkg/apiclient"
)

// recordedRequest is what the fake backend saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	Auth   string
}

// fakeBackend records every request and replies with a canned body per path.
type fakeBackend struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]string
	status    int
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(raw),
		Auth:   r.Header.Get("Authorization"),
	})
	body, ok := f.responses[r.URL.Path]
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		body = `{}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("backend received no requests")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newService(t *testing.T, backend *fakeBackend, src session.Source) *Service {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL, apiclient.WithSession(src))
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return New(client)
}

// Landing page fixtures, in the shape the front page renders.
const (
	topicsFixture = `[
  {
    "id": 1,
    "title": "Elden Ring - Strategies for Defeating Malenia",
    "description": "Share your strategies, builds, and tips for taking down one of the hardest bosses in Elden Ring.",
    "slug": "elden-ring-malenia-strategies",
    "category": {"name": "Action RPG", "slug": "action-rpg"},
    "postsCount": 126,
    "latestPost": {
      "author": {"username": "tarnished42"},
      "timeAgo": "2 hours ago",
      "excerpt": "I found that using the Mimic Tear ash summon along with a bleed build makes this fight much more manageable..."
    }
  },
  {
    "id": 2,
    "title": "Best Settings for Competitive Apex Legends",
    "description": "Optimize your gameplay with these recommended settings for competitive play in Apex Legends.",
    "slug": "apex-legends-competitive-settings",
    "category": {"name": "FPS", "slug": "fps"},
    "postsCount": 87,
    "latestPost": {
      "author": {"username": "wraith_main"},
      "timeAgo": "5 hours ago",
      "excerpt": "Turning down particle effects can significantly improve visibility during intense firefights..."
    }
  },
  {
    "id": 3,
    "title": "Starfield - Hidden Locations and Easter Eggs",
    "description": "Discover the secrets of the cosmos with this collection of hidden locations and easter eggs in Starfield.",
    "slug": "starfield-secrets",
    "category": {"name": "Open World", "slug": "open-world"},
    "postsCount": 54,
    "latestPost": {
      "author": {"username": "cosmic_explorer"},
      "timeAgo": "1 day ago",
      "excerpt": "Found a reference to Skyrim on one of the planets in the Narion system..."
    }
  },
  {
    "id": 4,
    "title": "The Most Efficient Farm Routes in Diablo IV",
    "description": "Maximize your legendary drops and XP gains with these optimized farming routes.",
    "slug": "diablo-4-farm-routes",
    "category": {"name": "ARPG", "slug": "arpg"},
    "postsCount": 112,
    "latestPost": {
      "author": {"username": "lilith_servant"},
      "timeAgo": "3 hours ago",
      "excerpt": "The Dry Steppes route consistently gives me about 4-5 legendaries per hour..."
    }
  },
  {
    "id": 5,
    "title": "Baldur's Gate 3 - Best Party Compositions",
    "description": "Discuss the most effective party compositions for different playstyles in Baldur's Gate 3.",
    "slug": "bg3-party-compositions",
    "category": {"name": "CRPG", "slug": "crpg"},
    "postsCount": 98,
    "latestPost": {
      "author": {"username": "laezel_fan"},
      "timeAgo": "12 hours ago",
      "excerpt": "I find that having at least one character with high charisma is essential for most dialogue options..."
    }
  },
  {
    "id": 6,
    "title": "Upcoming Game Releases - Summer 2025",
    "description": "Stay updated on all the major game releases coming this summer.",
    "slug": "summer-2025-releases",
    "category": {"name": "News", "slug": "news"},
    "postsCount": 31,
    "latestPost": {
      "author": {"username": "game_journalist"},
      "timeAgo": "1 day ago",
      "excerpt": "Just heard that the new Mass Effect title might be getting pushed back to fall..."
    }
  }
]`
	tagsFixture = `[
  {"name": "Elden Ring", "count": 532},
  {"name": "Baldur's Gate 3", "count": 417},
  {"name": "Starfield", "count": 389},
  {"name": "PS6", "count": 275},
  {"name": "Game Awards", "count": 201},
  {"name": "Diablo IV", "count": 184},
  {"name": "Xbox", "count": 156},
  {"name": "Nintendo", "count": 143}
]`
	categoriesFixture = `[
  {"name": "Action RPG", "slug": "action-rpg", "topics": 143},
  {"name": "FPS", "slug": "fps", "topics": 128},
  {"name": "Strategy", "slug": "strategy", "topics": 97},
  {"name": "MMORPG", "slug": "mmorpg", "topics": 85},
  {"name": "Indie Games", "slug": "indie", "topics": 76},
  {"name": "Gaming News", "slug": "news", "topics": 62}
]`
	postListFixture   = `{"count": 1, "next": null, "previous": null,
  "results": [{"id": 42, "title": "Patch notes", "content": "<p>Balance changes</p>", "upvotes": 3}]}`
)

func TestListIgnoresParams(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{"/api/main/post/": postListFixture}}
	svc := newService(t, backend, nil)

	list, err := svc.Posts.List(context.Background(), ListParams{Page: 2, PageSize: 50, Ordering: "-upvotes"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	req := backend.last(t)
	if req.Method != http.MethodGet || req.Path != "/api/main/post/" || req.Query != "" {
		t.Fatalf("unexpected request %+v", req)
	}
	if list.Count != 1 || len(list.Results) != 1 || list.Results[0].ID != 42 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestListAcceptsBareArray(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{"/api/main/post/": `[{"id": 1}, {"id": 2}]`}}
	svc := newService(t, backend, nil)

	list, err := svc.Posts.List(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Count != 2 || len(list.Results) != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestCreateSendsInputAsBody(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{"/api/main/post/": `{"id": 7, "title": "Hello"}`}}
	svc := newService(t, backend, nil)

	input := map[string]any{"title": "Hello", "content": "World"}
	post, err := svc.Posts.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	req := backend.last(t)
	if req.Method != http.MethodPost || req.Path != "/api/main/post/" {
		t.Fatalf("unexpected request %+v", req)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(req.Body), &sent); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if len(sent) != 2 || sent["title"] != "Hello" || sent["content"] != "World" {
		t.Fatalf("body %v does not equal input", sent)
	}
	if post.ID != 7 {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestDeleteUsesIDPath(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend, nil)

	if err := svc.Posts.Delete(context.Background(), 42); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	req := backend.last(t)
	if req.Method != http.MethodDelete || req.Path != "/api/main/post/42/" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Body != "" {
		t.Fatalf("delete should carry no body, got %q", req.Body)
	}
}

func TestPostRoutes(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend, nil)
	ctx := context.Background()
	input := domain.PostInput{Title: "t"}

	cases := []struct {
		name   string
		call   func() error
		method string
		path   string
		body   string
	}{
		{"get", func() error { _, err := svc.Posts.Get(ctx, 3); return err }, http.MethodGet, "/api/main/post/3/", ""},
		{"update", func() error { _, err := svc.Posts.Update(ctx, 3, input); return err }, http.MethodPut, "/api/main/post/3/", `{"title":"t"}`},
		{"patch", func() error { _, err := svc.Posts.Patch(ctx, 3, input); return err }, http.MethodPatch, "/api/main/post/3/", `{"title":"t"}`},
		{"upvote", func() error { _, err := svc.Posts.Upvote(ctx, 3); return err }, http.MethodPost, "/api/main/post/3/upvote/", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != nil {
				t.Fatalf("call: %v", err)
			}
			req := backend.last(t)
			if req.Method != tc.method || req.Path != tc.path || req.Body != tc.body {
				t.Fatalf("unexpected request %+v", req)
			}
		})
	}
}

func TestUserRoutes(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"/api/user/login/": `{"token": "abc", "user": {"id": 1, "username": "nova"}}`,
	}}
	svc := newService(t, backend, session.Static("abc"))
	ctx := context.Background()

	auth, err := svc.Users.Login(ctx, domain.Credentials{Username: "nova", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if auth.Token != "abc" || auth.User.Username != "nova" {
		t.Fatalf("unexpected auth %+v", auth)
	}
	if req := backend.last(t); req.Method != http.MethodPost || req.Path != "/api/user/login/" ||
		req.Body != `{"username":"nova","password":"pw"}` {
		t.Fatalf("unexpected login request %+v", req)
	}

	cases := []struct {
		name   string
		call   func() error
		method string
		path   string
	}{
		{"register", func() error {
			_, err := svc.Users.Register(ctx, domain.Registration{Username: "n", Email: "e", Password: "p"})
			return err
		}, http.MethodPost, "/api/user/register/"},
		{"profile", func() error { _, err := svc.Users.Profile(ctx); return err }, http.MethodGet, "/api/user/current/"},
		{"update", func() error {
			_, err := svc.Users.UpdateProfile(ctx, domain.ProfileUpdate{Bio: "hi"})
			return err
		}, http.MethodPut, "/api/user/update/"},
		{"check", func() error { _, err := svc.Users.CheckProfile(ctx, 7); return err }, http.MethodGet, "/api/user/get/7/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != nil {
				t.Fatalf("call: %v", err)
			}
			req := backend.last(t)
			if req.Method != tc.method || req.Path != tc.path {
				t.Fatalf("unexpected request %+v", req)
			}
			if req.Auth != "Bearer abc" {
				t.Fatalf("Authorization = %q", req.Auth)
			}
		})
	}
}

func TestListingsBuildQueries(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"/api/topics":        topicsFixture,
		"/api/tags/trending": `{"results": ` + tagsFixture + `}`,
		"/api/categories":    categoriesFixture,
	}}
	svc := newService(t, backend, nil)
	ctx := context.Background()

	topics, err := svc.Listings.Topics(ctx, "", 0)
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if q := backend.last(t).Query; q != "sort=latest&limit=6" {
		t.Fatalf("topics query = %q", q)
	}
	if len(topics) != 6 {
		t.Fatalf("expected 6 topics, got %d", len(topics))
	}
	first := topics[0]
	if first.Slug != "elden-ring-malenia-strategies" || first.Category.Slug != "action-rpg" || first.PostsCount != 126 {
		t.Fatalf("unexpected topic %+v", first)
	}
	if first.LatestPost == nil || first.LatestPost.Author == nil || first.LatestPost.Author.Username != "tarnished42" ||
		first.LatestPost.TimeAgo != "2 hours ago" {
		t.Fatalf("unexpected latest post %+v", first.LatestPost)
	}

	if _, err := svc.Listings.Topics(ctx, "Popular", 3); err != nil {
		t.Fatalf("Topics popular: %v", err)
	}
	if q := backend.last(t).Query; q != "sort=popular&limit=3" {
		t.Fatalf("topics query = %q", q)
	}

	tags, err := svc.Listings.TrendingTags(ctx, 0, "")
	if err != nil {
		t.Fatalf("TrendingTags: %v", err)
	}
	if q := backend.last(t).Query; q != "limit=8" {
		t.Fatalf("tags query = %q", q)
	}
	if len(tags) != 8 || tags[0].Name != "Elden Ring" || tags[0].Count != 532 {
		t.Fatalf("unexpected tags %+v", tags)
	}
	if _, err := svc.Listings.TrendingTags(ctx, 5, "week"); err != nil {
		t.Fatalf("TrendingTags week: %v", err)
	}
	if q := backend.last(t).Query; q != "limit=5&timeframe=week" {
		t.Fatalf("tags query = %q", q)
	}

	cats, err := svc.Listings.Categories(ctx, "", 0)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if q := backend.last(t).Query; q != "sort=popular&limit=6" {
		t.Fatalf("categories query = %q", q)
	}
	if len(cats) != 6 || cats[0].Slug != "action-rpg" || cats[0].Topics != 143 {
		t.Fatalf("unexpected categories %+v", cats)
	}
	if _, err := svc.Listings.Categories(ctx, "alphabetical", 6); err != nil {
		t.Fatalf("Categories alphabetical: %v", err)
	}
	if q := backend.last(t).Query; q != "sort=alphabetical&limit=6" {
		t.Fatalf("categories query = %q", q)
	}

	sent := backend.count()
	rejected := []func() error{
		func() error { _, err := svc.Listings.Topics(ctx, "random", 0); return err },
		func() error { _, err := svc.Listings.Topics(ctx, "alphabetical", 0); return err },
		func() error { _, err := svc.Listings.Categories(ctx, "latest", 0); return err },
		func() error { _, err := svc.Listings.TrendingTags(ctx, 0, "year"); return err },
	}
	for i, call := range rejected {
		if err := call(); err == nil {
			t.Fatalf("case %d: expected unsupported option error", i)
		}
	}
	if backend.count() != sent {
		t.Fatalf("rejected options must not reach the backend")
	}
}

func TestListingsReportElementDecodeError(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"/api/categories": `[{"name": "FPS", "slug": "fps", "topics": "many"}]`,
	}}
	svc := newService(t, backend, nil)

	_, err := svc.Listings.Categories(context.Background(), "", 0)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if !strings.Contains(err.Error(), "Category.topics") {
		t.Fatalf("expected the element error, got %v", err)
	}
}

func TestGetAcceptsNaiveTimestamps(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"/api/main/post/7/": `{"id": 7, "created_at": "2025-05-01T12:00:00", "author": {"id": 2, "username": "nova", "date_joined": "2024-01-02T03:04:05.678"}}`,
	}}
	svc := newService(t, backend, nil)

	post, err := svc.Posts.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !post.CreatedAt.Equal(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("CreatedAt = %v", post.CreatedAt.Time)
	}
	if post.Author == nil || post.Author.DateJoined.Year() != 2024 {
		t.Fatalf("unexpected author %+v", post.Author)
	}
}

func TestFacadeReturnsAPIError(t *testing.T) {
	backend := &fakeBackend{status: http.StatusUnauthorized}
	svc := newService(t, backend, nil)

	_, err := svc.Users.Profile(context.Background())
	if !apiclient.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 api error, got %v", err)
	}
}

func TestConcurrentFacadeCallsDoNotInterfere(t *testing.T) {
	backend := &fakeBackend{responses: map[string]string{
		"/api/main/post/5/": `{"id": 5, "title": "five"}`,
		"/api/user/get/9/":  `{"id": 9, "username": "nine"}`,
	}}
	svc := newService(t, backend, session.Static("tok"))
	ctx := context.Background()

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			post, err := svc.Posts.Get(ctx, 5)
			if err == nil && (post.ID != 5 || post.Title != "five") {
				t.Errorf("post mixed up: %+v", post)
			}
			errs <- err
		}()
		go func() {
			defer wg.Done()
			user, err := svc.Users.CheckProfile(ctx, 9)
			if err == nil && (user.ID != 9 || user.Username != "nine") {
				t.Errorf("user mixed up: %+v", user)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call failed: %v", err)
		}
	}
	if backend.count() != rounds*2 {
		t.Fatalf("expected %d requests, got %d", rounds*2, backend.count())
	}
}
