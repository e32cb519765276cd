package command

import "sync"

// State is a table shared by concurrent invocations, typically keyed by
// sender name.
type State[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewState[K comparable, V any]() *State[K, V] {
	return &State[K, V]{m: make(map[K]V)}
}

func (s *State[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *State[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *State[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// Update replaces the value under key with fn(old, present) atomically and
// returns the new value.
func (s *State[K, V]) Update(key K, fn func(old V, present bool) V) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.m[key]
	v := fn(old, ok)
	s.m[key] = v
	return v
}

func (s *State[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
