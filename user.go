package accounts

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type UserId int64

type Email string

type User struct {
	Id        UserId
	CreatedAt time.Time
	Username  string
	Email     Email
	Roles     Roles
	// Accounts are never deleted, only deactivated.
	IsActive bool
}

type UserStore interface {
	ById(ctx context.Context, userId UserId) (User, error)
}
