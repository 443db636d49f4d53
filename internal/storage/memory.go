package storage

import (
	"sort"
	"sync"

	"chorddht/internal/domain"
	"chorddht/internal/logger"
)

// Memory is an in-memory key-value store that implements Storage. It
// is concurrency-safe and is the only storage backend a node needs:
// the spec keeps no persistence requirement beyond process lifetime.
type Memory struct {
	lgr  logger.Logger
	sp   domain.Space
	mu   sync.RWMutex
	data map[string]domain.Resource // keyed by the raw string key
}

// NewMemory creates an empty in-memory store, bucketizing keys within
// the given identifier space.
func NewMemory(lgr logger.Logger, sp domain.Space) *Memory {
	return &Memory{lgr: lgr, sp: sp, data: make(map[string]domain.Resource)}
}

func (s *Memory) Put(key, value string) error {
	res := domain.Resource{Key: s.sp.Bucketize(key), RawKey: key, Value: value}
	s.mu.Lock()
	_, existed := s.data[key]
	s.data[key] = res
	s.mu.Unlock()
	if existed {
		s.lgr.Debug("put: key updated", logger.F("key", key))
	} else {
		s.lgr.Debug("put: key inserted", logger.F("key", key))
	}
	return nil
}

func (s *Memory) Get(key string) (string, error) {
	s.mu.RLock()
	res, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return "", domain.ErrResourceNotFound
	}
	return res.Value, nil
}

func (s *Memory) Delete(key string) error {
	s.mu.Lock()
	_, ok := s.data[key]
	if ok {
		delete(s.data, key)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.lgr.Debug("delete: key removed", logger.F("key", key))
	return nil
}

func (s *Memory) Between(from, to domain.ID) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for k, res := range s.data {
		if domain.Between(res.Key, from, to) || res.Key.Equal(to) {
			out[k] = res.Value
		}
	}
	return out
}

// Take removes and returns every resource in (from, to], for use
// during handoff: the keys are deleted locally in the same step, and
// the caller owns the returned pairs from then on.
func (s *Memory) Take(from, to domain.ID) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string)
	for k, res := range s.data {
		if domain.Between(res.Key, from, to) || res.Key.Equal(to) {
			out[k] = res.Value
			delete(s.data, k)
		}
	}
	return out
}

// DebugLog emits a structured DEBUG-level snapshot of the store's
// contents, sorted by key for deterministic output.
func (s *Memory) DebugLog() {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	s.lgr.Debug("storage snapshot", logger.F("count", len(keys)), logger.F("keys", keys))
}
