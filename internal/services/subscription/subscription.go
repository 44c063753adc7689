package subscription

import (
	"sort"
	"sync"
)

// Store keeps the chats subscribed to the daily update. It lives only
// as long as the process.
type Store interface {
	// Add reports whether chatID was not subscribed before.
	Add(chatID int64) bool
	Remove(chatID int64) bool
	Contains(chatID int64) bool
	List() []int64
	Count() int
}

type memoryStore struct {
	mu    sync.RWMutex
	chats map[int64]struct{}
}

func NewMemoryStore() Store {
	return &memoryStore{chats: make(map[int64]struct{})}
}

func (s *memoryStore) Add(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; ok {
		return false
	}
	s.chats[chatID] = struct{}{}
	return true
}

func (s *memoryStore) Remove(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; !ok {
		return false
	}
	delete(s.chats, chatID)
	return true
}

func (s *memoryStore) Contains(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chats[chatID]
	return ok
}

// List returns a sorted snapshot.
func (s *memoryStore) List() []int64 {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *memoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}
