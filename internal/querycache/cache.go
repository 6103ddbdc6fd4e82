// Package querycache is the process-wide query/mutation cache that sits between the
// page handlers and the remote API.
//
// Reads go through Query, which serves a fresh entry directly and otherwise fetches
// once per key no matter how many callers ask concurrently. Writes go through Mutate,
// which invalidates the declared dependent keys on success and publishes one Event per
// invalidation to subscribers.
//
// Every invalidation bumps the key's generation. A fetch that started under an older
// generation may still answer its own callers, but its result is not stored, and later
// readers start a new fetch instead of joining the old one. The shared tier follows
// the same rule through versions: a value fetched before an invalidation is never
// written back. That is what makes "the next read after a successful mutation sees
// fresh data" hold, on this replica and on the others sharing the tier.
package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fontier-admin/internal/logx"
)

// Status of a query as seen by a view.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// MarshalText lets Status appear as its name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "loading":
		*s = StatusLoading
	case "success":
		*s = StatusSuccess
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("querycache: unknown status %q", b)
	}
	return nil
}

// Snapshot is the state of one query at the time it was read.
type Snapshot[T any] struct {
	Status    Status
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Stale     bool
	Fetching  bool
}

// Result returns the data and the error, in the usual Go shape.
func (s Snapshot[T]) Result() (T, error) { return s.Data, s.Err }

// Ready reports whether data is present and the last fetch succeeded.
func (s Snapshot[T]) Ready() bool { return s.Status == StatusSuccess }

// L2 is an optional shared cache tier (Redis) consulted before the remote API.
//
// Delete and DeleteKind move the version of what they drop. SetIfVersion stores val
// only while the key's version still equals the one Version returned before the
// value was fetched, and reports whether it did.
type L2 interface {
	Version(ctx context.Context, key Key) (string, error)
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	SetIfVersion(ctx context.Context, key Key, version string, val []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...Key) error
	DeleteKind(ctx context.Context, kind string) error
}

// Notifier forwards invalidation events to other replicas (RabbitMQ).
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type entry struct {
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	stale     bool
	gen       uint64
	inflight  int
	// set when the shared tier could not be invalidated; cleared by a remote fetch
	bypassL2 bool
}

// Cache is created once at startup and handed to every component that reads data.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group

	ttl      atomic.Int64
	l2       L2
	notifier Notifier
	origin   string
	logger   *logx.Logger
	now      func() time.Time
	closed   atomic.Bool

	subsMu  sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL adds time-based staleness on top of invalidation. Zero keeps entries fresh
// until invalidated.
func WithTTL(d time.Duration) Option { return func(c *Cache) { c.SetTTL(d) } }

// WithL2 enables the shared tier.
func WithL2(l2 L2) Option { return func(c *Cache) { c.l2 = l2 } }

// WithNotifier forwards local invalidations to other processes.
func WithNotifier(n Notifier) Option { return func(c *Cache) { c.notifier = n } }

// WithLogger overrides the cache logger.
func WithLogger(l *logx.Logger) Option { return func(c *Cache) { c.logger = l } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: map[Key]*entry{},
		subs:    map[int]func(Event){},
		origin:  uuid.NewString(),
		logger:  logx.GetScope("cache"),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Origin is the id stamped on events published by this cache.
func (c *Cache) Origin() string { return c.origin }

// SetTTL changes the staleness window at runtime.
func (c *Cache) SetTTL(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.ttl.Store(int64(d))
}

// TTL reports the current staleness window.
func (c *Cache) TTL() time.Duration { return time.Duration(c.ttl.Load()) }

// Close drops all entries and subscribers. Reads after Close still work but never cache.
func (c *Cache) Close() {
	c.closed.Store(true)
	c.mu.Lock()
	c.entries = map[Key]*entry{}
	c.mu.Unlock()
	c.subsMu.Lock()
	c.subs = map[int]func(Event){}
	c.subsMu.Unlock()
}

func (c *Cache) isStale(e *entry) bool {
	if e.stale {
		return true
	}
	ttl := c.TTL()
	return ttl > 0 && c.now().Sub(e.updatedAt) > ttl
}

// Query returns the cached value for key, fetching it when missing or stale.
// Concurrent callers for the same key and generation share one fetch. When ctx is done
// before the fetch completes the caller gets a Loading snapshot with ctx.Err(); the
// fetch itself keeps running and still populates the cache.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) Snapshot[T] {
	c.mu.Lock()
	e := c.entries[key]
	if e != nil && e.hasData && e.err == nil && !c.isStale(e) {
		if v, ok := e.data.(T); ok {
			snap := Snapshot[T]{Status: StatusSuccess, Data: v, HasData: true, UpdatedAt: e.updatedAt, Fetching: e.inflight > 0}
			c.mu.Unlock()
			return snap
		}
	}
	if e == nil {
		e = &entry{}
		if !c.closed.Load() {
			c.entries[key] = e
		}
	}
	gen := e.gen
	c.mu.Unlock()

	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := c.group.DoChan(flight, func() (any, error) {
		decode := func(raw []byte) (any, error) {
			var v T
			err := json.Unmarshal(raw, &v)
			return v, err
		}
		remote := func(fctx context.Context) (any, error) { return fetch(fctx) }
		return c.load(context.WithoutCancel(ctx), key, e, gen, decode, remote)
	})

	select {
	case <-ctx.Done():
		snap := Peek[T](c, key)
		snap.Status = StatusLoading
		snap.Err = ctx.Err()
		return snap
	case res := <-ch:
		if res.Err != nil {
			snap := Peek[T](c, key)
			snap.Status = StatusError
			snap.Err = res.Err
			return snap
		}
		v, _ := res.Val.(T)
		return Snapshot[T]{Status: StatusSuccess, Data: v, HasData: true, UpdatedAt: c.now()}
	}
}

// load runs one fetch for (key, gen) and records the outcome on e. With a shared tier
// the version is read first, then the tier, then the remote API; a remote value is
// written back only under that version.
func (c *Cache) load(ctx context.Context, key Key, e *entry, gen uint64, decode func([]byte) (any, error), remote func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if e.gen == gen && e.hasData && e.err == nil && !c.isStale(e) {
		// a flight for this generation finished between the caller's check and now
		v := e.data
		c.mu.Unlock()
		return v, nil
	}
	e.inflight++
	useL2 := c.l2 != nil && !e.bypassL2
	c.mu.Unlock()

	var (
		version string
		v       any
		fromL2  bool
		err     error
	)
	if useL2 {
		if version, err = c.l2.Version(ctx, key); err != nil {
			c.logger.Debug("l2 version failed", zap.String("key", key.String()), zap.Error(err))
			useL2 = false
		}
	}
	if useL2 {
		if raw, ok, gErr := c.l2.Get(ctx, key); gErr != nil {
			c.logger.Debug("l2 get failed", zap.String("key", key.String()), zap.Error(gErr))
		} else if ok {
			v, err = decode(raw)
			fromL2 = err == nil
		}
	}
	if !fromL2 {
		v, err = remote(ctx)
	}

	c.mu.Lock()
	e.inflight--
	current := e.gen == gen
	if err != nil {
		// stale-while-error: data from an earlier success stays visible next to the error
		if current {
			e.err = err
		}
		c.mu.Unlock()
		c.logger.Warn("query failed", zap.String("key", key.String()), zap.Error(err))
		return nil, err
	}
	if !current {
		// invalidated while in flight: answer this caller, keep whatever is newer
		c.mu.Unlock()
		return v, nil
	}
	e.data, e.hasData, e.err = v, true, nil
	e.updatedAt = c.now()
	e.stale = false
	if !fromL2 {
		e.bypassL2 = false
	}
	c.mu.Unlock()

	if useL2 && !fromL2 {
		if raw, mErr := json.Marshal(v); mErr == nil {
			if stored, sErr := c.l2.SetIfVersion(ctx, key, version, raw, c.TTL()); sErr != nil {
				c.logger.Debug("l2 set failed", zap.String("key", key.String()), zap.Error(sErr))
			} else if !stored {
				c.logger.Debug("l2 set skipped, invalidated meanwhile", zap.String("key", key.String()))
			}
		}
	}
	return v, nil
}

// Peek reports the state of key without fetching.
func Peek[T any](c *Cache, key Key) Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	if e == nil {
		return Snapshot[T]{Status: StatusIdle}
	}
	snap := Snapshot[T]{Err: e.err, UpdatedAt: e.updatedAt, Stale: c.isStale(e), Fetching: e.inflight > 0}
	if v, ok := e.data.(T); ok && e.hasData {
		snap.Data, snap.HasData = v, true
	}
	switch {
	case e.err != nil:
		snap.Status = StatusError
	case snap.HasData:
		snap.Status = StatusSuccess
	case e.inflight > 0:
		snap.Status = StatusLoading
	default:
		snap.Status = StatusIdle
	}
	return snap
}

// Keys lists the keys currently held, in no particular order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}
