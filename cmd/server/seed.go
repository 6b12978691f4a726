package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/djportal/accounts"
	"github.com/sirupsen/logrus"
)

var (
	seedUsername = flag.String("seed-user", "", "register a user with this username, print a session token for it and exit")
	seedEmail    = flag.String("seed-email", "", "email of the user registered with -seed-user")
)

type userRegistrar interface {
	Register(ctx context.Context, username string, email accounts.Email) (accounts.User, error)
}

// seedSession registers a user and opens a session for it. Account sign-up
// and login live outside this service; this is the development path to a
// bearer token.
func seedSession(ctx context.Context, users userRegistrar, sessions accounts.SessionStore,
	username string, email string) (accounts.User, accounts.Session, error) {
	if username == "" {
		return accounts.User{}, accounts.Session{}, errors.New("empty username")
	}
	user, err := users.Register(ctx, username, accounts.Email(email))
	if err != nil {
		return accounts.User{}, accounts.Session{}, fmt.Errorf("register user: %w", err)
	}
	session, err := sessions.RegisterNew(ctx, user.Id, "127.0.0.1", "seed")
	if err != nil {
		return accounts.User{}, accounts.Session{}, fmt.Errorf("register session: %w", err)
	}
	logrus.
		WithField("user_id", user.Id).
		WithField("username", user.Username).
		Infoln("Seeded user.")
	return user, session, nil
}
