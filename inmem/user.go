package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/djportal/accounts"
)

type UserStore struct {
	// Optional. When set every registered user gets a default profile.
	Profiles *ProfileStore

	lastId int64
	users  map[accounts.UserId]accounts.User
	mutex  sync.RWMutex
}

func NewUserStore(profiles *ProfileStore) *UserStore {
	return &UserStore{
		Profiles: profiles,
		lastId:   0,
		users:    map[accounts.UserId]accounts.User{},
		mutex:    sync.RWMutex{},
	}
}

func (s *UserStore) Register(ctx context.Context, username string, email accounts.Email) (accounts.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastId++
	uid := accounts.UserId(s.lastId)
	user := accounts.User{
		Id:        uid,
		CreatedAt: time.Now(),
		Username:  username,
		Email:     email,
		Roles:     accounts.RolesByIds(accounts.DefaultRoleIds),
		IsActive:  true,
	}
	s.users[uid] = user

	if s.Profiles != nil {
		s.Profiles.Insert(accounts.NewProfile(uid, user.CreatedAt))
	}
	return user, nil
}

func (s *UserStore) ById(ctx context.Context, userId accounts.UserId) (accounts.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.users[userId]
	if !ok {
		return u, accounts.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) Update(ctx context.Context, user accounts.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.users[user.Id]; !ok {
		return accounts.ErrUserNotFound
	}
	s.users[user.Id] = user
	return nil
}
