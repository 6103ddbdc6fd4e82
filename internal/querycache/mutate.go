package querycache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event announces that a key (or a whole kind) was invalidated. Views subscribe and
// re-issue their reads.
type Event struct {
	ID     string    `json:"id"`
	Op     string    `json:"op"`
	Dep    Dep       `json:"dep"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// Subscribe registers fn for every invalidation event, local or remote. fn runs on the
// goroutine that performed the invalidation and must not block.
func (c *Cache) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()
	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

func (c *Cache) publish(ev Event) {
	c.subsMu.RLock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// mark bumps the generation of every entry matched by d and reports how many matched.
// bypassL2 makes the matched entries skip the shared tier until their next remote fetch.
func (c *Cache) mark(d Dep, bypassL2 bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if d.matches(k) {
			e.gen++
			e.stale = true
			e.bypassL2 = e.bypassL2 || bypassL2
			n++
		}
	}
	return n
}

// Invalidate clears deps from the shared tier, then marks them stale locally so their
// next read refetches, and publishes one event per dep. The shared tier goes first: a
// read that starts after the local mark can no longer find the old value there.
func (c *Cache) Invalidate(ctx context.Context, op string, deps ...Dep) {
	for _, d := range deps {
		l2Failed := false
		if c.l2 != nil {
			var err error
			if d.Wildcard {
				err = c.l2.DeleteKind(ctx, d.Key.Kind)
			} else {
				err = c.l2.Delete(ctx, d.Key)
			}
			if err != nil {
				l2Failed = true
				c.logger.Warn("l2 invalidate failed", zap.String("dep", d.String()), zap.Error(err))
			}
		}
		n := c.mark(d, l2Failed)
		ev := Event{ID: uuid.NewString(), Op: op, Dep: d, Origin: c.origin, At: c.now().UTC()}
		c.logger.Debug("invalidate", zap.String("op", op), zap.String("dep", d.String()), zap.Int("entries", n))
		c.publish(ev)
		if c.notifier != nil {
			if err := c.notifier.Notify(ctx, ev); err != nil {
				c.logger.Warn("notify invalidation failed", zap.String("dep", d.String()), zap.Error(err))
			}
		}
	}
}

// ApplyRemote applies an invalidation received from another replica. Events carrying
// this cache's own origin are ignored.
func (c *Cache) ApplyRemote(ev Event) bool {
	if ev.Origin == c.origin {
		return false
	}
	c.mark(ev.Dep, false)
	c.publish(ev)
	return true
}

// Mutate runs fn and, only when it succeeds, invalidates deps(result). A failed mutation
// invalidates nothing and returns fn's error unchanged. deps receives the result so
// dependents such as library(id) can be derived from the server's answer.
func Mutate[R any](ctx context.Context, c *Cache, op string, fn func(context.Context) (R, error), deps func(R) []Dep) (R, error) {
	res, err := fn(ctx)
	if err != nil {
		c.logger.Debug("mutation failed", zap.String("op", op), zap.Error(err))
		return res, err
	}
	if deps != nil {
		c.Invalidate(ctx, op, deps(res)...)
	}
	return res, nil
}

// Exec is Mutate for operations without a result.
func Exec(ctx context.Context, c *Cache, op string, fn func(context.Context) error, deps ...Dep) error {
	_, err := Mutate(ctx, c, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, func(struct{}) []Dep { return deps })
	return err
}
