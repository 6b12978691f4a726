package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/djportal/accounts"
)

type ProfileStore struct {
	// Optional. Receives the change history of every update.
	Changes *ChangeStore
	// Optional. Defaults to time.Now.
	Now func() time.Time

	profiles map[accounts.UserId]accounts.Profile
	mutex    sync.RWMutex
}

func NewProfileStore(changes *ChangeStore) *ProfileStore {
	return &ProfileStore{
		Changes:  changes,
		profiles: map[accounts.UserId]accounts.Profile{},
		mutex:    sync.RWMutex{},
	}
}

// Insert stores profile as is, replacing any profile of the same user.
func (s *ProfileStore) Insert(profile accounts.Profile) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.profiles[profile.UserId] = profile
}

func (s *ProfileStore) ByUserId(ctx context.Context, userId accounts.UserId) (accounts.Profile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, ok := s.profiles[userId]
	if !ok {
		return accounts.Profile{}, accounts.ErrProfileNotFound
	}
	return p, nil
}

func (s *ProfileStore) Update(ctx context.Context, profile accounts.Profile, expected time.Time,
	changes []accounts.FieldChange) (accounts.Profile, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored, ok := s.profiles[profile.UserId]
	if !ok {
		return accounts.Profile{}, accounts.ErrProfileNotFound
	}
	if !stored.LastUpdated.Equal(expected) {
		return accounts.Profile{}, accounts.ErrProfileStale
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	profile.LastUpdated = accounts.NextTimestamp(stored.LastUpdated, now())
	s.profiles[profile.UserId] = profile

	if s.Changes != nil {
		s.Changes.add(changes, profile.LastUpdated)
	}
	return profile, nil
}
