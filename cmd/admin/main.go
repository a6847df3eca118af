// Package main provides an operator CLI for the user directory and for
// minting development tokens.
//
// Usage:
//
//	admin user add -email alice@example.com -name Alice [-id alice]
//	admin token -user alice
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/budgetshare/internal/auth"
	"github.com/mmynk/budgetshare/internal/config"
	"github.com/mmynk/budgetshare/internal/models"
	"github.com/mmynk/budgetshare/internal/storage"
	"github.com/mmynk/budgetshare/internal/storage/backend"
	"github.com/mmynk/budgetshare/pkg/logging"
)

const usage = `usage:
  admin user add -email <email> -name <display name> [-id <user id>]
  admin token -user <user id or email>
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	switch args[0] {
	case "user":
		if len(args) < 2 || args[1] != "add" {
			fmt.Fprint(os.Stderr, usage)
			return errors.New("unknown user command")
		}
		return addUser(ctx, store, args[2:])
	case "token":
		return mintToken(ctx, store, auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration), args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func addUser(ctx context.Context, store storage.Store, args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	email := fs.String("email", "", "email address (required)")
	name := fs.String("name", "", "display name")
	id := fs.String("id", "", "user ID (default: random UUID)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	user := models.NewUser(*email, *name)
	if *id != "" {
		user.ID = *id
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}
	fmt.Printf("Added user %s <%s>\n", user.ID, user.Email)
	return nil
}

func mintToken(ctx context.Context, store storage.Store, jwtManager *auth.JWTManager, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	ref := fs.String("user", "", "user ID or email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ref == "" {
		return errors.New("-user is required")
	}

	user, err := store.GetUserByID(ctx, *ref)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = store.GetUserByEmail(ctx, models.NormalizeEmail(*ref))
	}
	if err != nil {
		return fmt.Errorf("look up user %q: %w", *ref, err)
	}

	token, err := jwtManager.Generate(user.ID, user.Email)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
