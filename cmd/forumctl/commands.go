package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arcadia-forum/arcadia-client/internal/app"
	"github.com/arcadia-forum/arcadia-client/internal/config"
	"github.com/arcadia-forum/arcadia-client/internal/domain"
	"github.com/arcadia-forum/arcadia-client/internal/logger"
	"github.com/arcadia-forum/arcadia-client/internal/session"
	"github.com/arcadia-forum/arcadia-client/pkg/forumapi"
	"github.com/spf13/pflag"
)

var errUsage = errors.New(strings.TrimSpace(usage))

// cli holds what every command needs. The forum service is built lazily so
// that usage errors never touch the session file.
type cli struct {
	cfg   *config.Config
	log   logger.Logger
	out   io.Writer
	forum *forumapi.Service
}

func newCLI(cfg *config.Config, log logger.Logger, out io.Writer) *cli {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &cli{cfg: cfg, log: log, out: out}
}

func (c *cli) service() (*forumapi.Service, error) {
	if c.forum != nil {
		return c.forum, nil
	}
	forum, err := app.NewForumService(c.cfg, session.FileSource(c.cfg.SessionPath), c.log)
	if err != nil {
		return nil, err
	}
	c.forum = forum
	return forum, nil
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "posts":
		return c.posts(ctx, args[1:])
	case "user":
		return c.user(ctx, args[1:])
	case "topics":
		return c.topics(ctx, args[1:])
	case "tags":
		return c.tags(ctx, args[1:])
	case "categories":
		return c.categories(ctx, args[1:])
	case "help", "-h", "--help":
		_, err := io.WriteString(c.out, usage)
		return err
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func (c *cli) posts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	forum, err := c.service()
	if err != nil {
		return err
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		fs := newFlagSet("posts list")
		page := fs.Int("page", 0, "page number")
		pageSize := fs.Int("page-size", 0, "page size")
		ordering := fs.String("ordering", "", "ordering field, '-' prefix for descending")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		list, err := forum.Posts.List(ctx, forumapi.ListParams{Page: *page, PageSize: *pageSize, Ordering: *ordering})
		return c.print(list, err)

	case "get", "delete", "upvote":
		id, err := singleID(sub, rest)
		if err != nil {
			return err
		}
		switch sub {
		case "get":
			return c.print(forum.Posts.Get(ctx, id))
		case "upvote":
			return c.print(forum.Posts.Upvote(ctx, id))
		default:
			if err := forum.Posts.Delete(ctx, id); err != nil {
				return err
			}
			return c.print(map[string]any{"deleted": id}, nil)
		}

	case "create", "update", "patch":
		fs := newFlagSet("posts " + sub)
		input := postFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if sub != "patch" && (input.Title == "" || input.Content == "") {
			return fmt.Errorf("posts %s requires --title and --content", sub)
		}
		if sub == "create" {
			if fs.NArg() != 0 {
				return fmt.Errorf("posts create takes no positional arguments")
			}
			return c.print(forum.Posts.Create(ctx, input))
		}
		id, err := singleID(sub, fs.Args())
		if err != nil {
			return err
		}
		if sub == "update" {
			return c.print(forum.Posts.Update(ctx, id, input))
		}
		return c.print(forum.Posts.Patch(ctx, id, input))

	default:
		return fmt.Errorf("unknown posts command %q", sub)
	}
}

func (c *cli) user(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sub, rest := args[0], args[1:]

	// logout only touches the local session file.
	if sub == "logout" {
		store, err := session.OpenFileStore(c.cfg.SessionPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return c.print(map[string]any{"logged_out": true}, nil)
	}

	forum, err := c.service()
	if err != nil {
		return err
	}

	switch sub {
	case "register":
		fs := newFlagSet("user register")
		var in domain.Registration
		fs.StringVar(&in.Username, "username", "", "account name")
		fs.StringVar(&in.Email, "email", "", "email address")
		fs.StringVar(&in.Password, "password", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if in.Username == "" || in.Email == "" || in.Password == "" {
			return fmt.Errorf("user register requires --username, --email and --password")
		}
		return c.print(forum.Users.Register(ctx, in))

	case "login":
		fs := newFlagSet("user login")
		var in domain.Credentials
		fs.StringVar(&in.Username, "username", "", "account name")
		fs.StringVar(&in.Password, "password", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if in.Username == "" || in.Password == "" {
			return fmt.Errorf("user login requires --username and --password")
		}
		res, err := forum.Users.Login(ctx, in)
		if err != nil {
			return err
		}
		if strings.TrimSpace(res.Token) == "" {
			return errors.New("login response carried no token")
		}
		if err := c.storeToken(res.Token); err != nil {
			return err
		}
		return c.print(res.User, nil)

	case "profile":
		return c.print(forum.Users.Profile(ctx))

	case "update":
		fs := newFlagSet("user update")
		var in domain.ProfileUpdate
		fs.StringVar(&in.Email, "email", "", "email address")
		fs.StringVar(&in.Avatar, "avatar", "", "avatar url")
		fs.StringVar(&in.Bio, "bio", "", "profile text")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return c.print(forum.Users.UpdateProfile(ctx, in))

	case "get":
		id, err := singleID("user get", rest)
		if err != nil {
			return err
		}
		return c.print(forum.Users.CheckProfile(ctx, id))

	default:
		return fmt.Errorf("unknown user command %q", sub)
	}
}

func (c *cli) storeToken(token string) error {
	store, err := session.OpenFileStore(c.cfg.SessionPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SetToken(token); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	c.log.InfoObj("session stored", "session", map[string]any{"path": c.cfg.SessionPath})
	return nil
}

func (c *cli) topics(ctx context.Context, args []string) error {
	fs := newFlagSet("topics")
	sort := fs.String("sort", forumapi.SortLatest, "latest or popular")
	limit := fs.Int("limit", 0, "number of topics")
	if err := fs.Parse(args); err != nil {
		return err
	}
	forum, err := c.service()
	if err != nil {
		return err
	}
	return c.print(forum.Listings.Topics(ctx, *sort, *limit))
}

func (c *cli) tags(ctx context.Context, args []string) error {
	fs := newFlagSet("tags")
	limit := fs.Int("limit", 0, "number of tags")
	timeframe := fs.String("timeframe", "", "day, week or month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	forum, err := c.service()
	if err != nil {
		return err
	}
	return c.print(forum.Listings.TrendingTags(ctx, *limit, *timeframe))
}

func (c *cli) categories(ctx context.Context, args []string) error {
	fs := newFlagSet("categories")
	sort := fs.String("sort", forumapi.SortPopular, "popular or alphabetical")
	limit := fs.Int("limit", 0, "number of categories")
	if err := fs.Parse(args); err != nil {
		return err
	}
	forum, err := c.service()
	if err != nil {
		return err
	}
	return c.print(forum.Listings.Categories(ctx, *sort, *limit))
}

// print writes v as indented JSON unless err is set.
func (c *cli) print(v any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func postFlags(fs *pflag.FlagSet) *domain.PostInput {
	var in domain.PostInput
	fs.StringVar(&in.Title, "title", "", "post title")
	fs.StringVar(&in.Content, "content", "", "post body")
	fs.StringVar(&in.Category, "category", "", "category slug")
	fs.StringArrayVar(&in.Tags, "tag", nil, "tag, repeatable")
	return &in
}

func singleID(cmd string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s expects exactly one ID", cmd)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: invalid ID %q", cmd, args[0])
	}
	return id, nil
}
