package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/djportal/accounts"
)

type ChangeStore struct {
	lastId  int64
	changes map[accounts.UserId][]accounts.FieldChange
	mutex   sync.RWMutex
}

func NewChangeStore() *ChangeStore {
	return &ChangeStore{
		lastId:  0,
		changes: make(map[accounts.UserId][]accounts.FieldChange),
		mutex:   sync.RWMutex{},
	}
}

func (s *ChangeStore) add(changes []accounts.FieldChange, at time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, change := range changes {
		s.lastId++
		change.Id = s.lastId
		change.CreatedAt = at
		s.changes[change.UserId] = append(s.changes[change.UserId], change)
	}
}

func (s *ChangeStore) ByUserId(ctx context.Context, userId accounts.UserId, beforeId int64, limit int32) ([]accounts.FieldChange, error) {
	if limit <= 0 {
		return []accounts.FieldChange{}, nil
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stored := s.changes[userId]
	result := make([]accounts.FieldChange, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(result) < int(limit); i-- {
		if beforeId >= 0 && stored[i].Id >= beforeId {
			continue
		}
		result = append(result, stored[i])
	}
	return result, nil
}
