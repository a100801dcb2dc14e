package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/arcadia-forum/arcadia-client/internal/config"
	"github.com/arcadia-forum/arcadia-client/internal/logger"
)

const usage = `usage: forumctl <command> [flags]

posts list [--page N] [--page-size N] [--ordering FIELD]
posts get ID
posts create --title T --content C [--category C] [--tag T ...]
posts update ID --title T --content C [--category C] [--tag T ...]
posts patch ID [--title T] [--content C] [--category C] [--tag T ...]
posts delete ID
posts upvote ID
user register --username U --email E --password P
user login --username U --password P
user logout
user profile
user update [--email E] [--avatar URL] [--bio TEXT]
user get ID
topics [--sort latest|popular] [--limit N]
tags [--limit N] [--timeframe day|week|month]
categories [--sort popular|alphabetical] [--limit N]
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newCLI(cfg, log, stdout).dispatch(ctx, args)
}
