package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrRejected is returned by UpdateFunc when a validator vetoes the update.
var ErrRejected = errors.New("config update rejected by validator")

// Watcher is called after a config update has been committed.
type Watcher func(newCfg *Config, changed map[string]bool)

// Validator may veto a pending update by returning an error.
type Validator func(newCfg *Config, changed map[string]bool) error

// Store holds the live config and fans out changes to watchers.
type Store struct {
	v          atomic.Pointer[Config]
	commit     sync.Mutex // serializes read-modify-write updates
	mu         sync.RWMutex
	nextID     int
	watchers   map[int]Watcher
	validators map[int]Validator
}

func NewStore(cfg *Config) *Store {
	s := &Store{watchers: map[int]Watcher{}, validators: map[int]Validator{}}
	s.v.Store(cfg)
	return s
}

func (s *Store) Get() *Config {
	return s.v.Load()
}

func (s *Store) Update(newCfg *Config, changed map[string]bool) {
	s.v.Store(newCfg)
	s.mu.RLock()
	ws := make([]Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		ws = append(ws, w)
	}
	s.mu.RUnlock()
	for _, w := range ws {
		w(newCfg, changed)
	}
}

// Watch registers w and returns a func that unregisters it.
func (s *Store) Watch(w Watcher) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// AddValidator registers a validator. If any validator returns error on update, the update will be discarded.
func (s *Store) AddValidator(v Validator) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.validators[id] = v
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.validators, id)
		s.mu.Unlock()
	}
}

// UpdateValidated runs validators before committing the config. If any validator fails, no change is applied.
func (s *Store) UpdateValidated(newCfg *Config, changed map[string]bool) bool {
	s.commit.Lock()
	defer s.commit.Unlock()
	return s.validateAndCommit(newCfg, changed)
}

// UpdateFunc applies fn to a copy of the live config and commits the result through
// the validators. Concurrent calls are serialized, so each fn sees the previous
// commit. fn returns the changed keys; an error or an empty set commits nothing.
func (s *Store) UpdateFunc(fn func(next *Config) (map[string]bool, error)) (map[string]bool, error) {
	s.commit.Lock()
	defer s.commit.Unlock()
	next := cloneConfig(s.Get())
	changed, err := fn(next)
	if err != nil || len(changed) == 0 {
		return changed, err
	}
	if !s.validateAndCommit(next, changed) {
		return changed, ErrRejected
	}
	return changed, nil
}

func (s *Store) validateAndCommit(newCfg *Config, changed map[string]bool) bool {
	s.mu.RLock()
	vals := make([]Validator, 0, len(s.validators))
	for _, v := range s.validators {
		vals = append(vals, v)
	}
	s.mu.RUnlock()
	for _, v := range vals {
		if err := v(newCfg, changed); err != nil {
			configLogger.Sugar().Warnf("config update rejected: %v", err)
			return false
		}
	}
	s.Update(newCfg, changed)
	return true
}

func cloneConfig(in *Config) *Config {
	out := *in
	return &out
}

// ValidateRuntime rejects values the live server cannot apply.
func ValidateRuntime(c *Config, _ map[string]bool) error {
	if c.Paging.Size < 1 || c.Paging.Size > 100 {
		return fmt.Errorf("paging.size must be within 1..100, got %d", c.Paging.Size)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
