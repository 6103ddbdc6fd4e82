// Package assign splits a relation into assigned and available items and drives the
// assign/unassign mutations behind the two-column relation editors.
package assign

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"fontier-admin/internal/domain"
	"fontier-admin/internal/logx"
	"fontier-admin/internal/querycache"
)

var (
	ErrUnknownItem = errors.New("item not found in relation source")
	ErrUnsupported = errors.New("relation has no removal endpoint")
	ErrBadTarget   = errors.New("target must be assigned or available")
)

// Side is one column of a relation editor.
type Side string

const (
	SideAssigned  Side = "assigned"
	SideAvailable Side = "available"
)

// ParseSide accepts the two column names.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideAssigned, SideAvailable:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadTarget, s)
}

// State of one (relation, anchor, item) triple.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Partition is the assigned/available split of a relation for one anchor.
type Partition[T any] struct {
	Ready     bool `json:"ready"`
	Assigned  []T  `json:"assigned"`
	Available []T  `json:"available"`
}

// Split computes available = all - assigned by id. Both outputs keep the order of their
// source list. When either list is not ready the partition is empty and not ready.
func Split[T domain.Identified](all, assigned []T, allReady, assignedReady bool) Partition[T] {
	if !allReady || !assignedReady {
		return Partition[T]{Assigned: []T{}, Available: []T{}}
	}
	ids := lo.SliceToMap(assigned, func(t T) (int, struct{}) { return t.Key(), struct{}{} })
	available := lo.Reject(all, func(t T, _ int) bool {
		_, ok := ids[t.Key()]
		return ok
	})
	return Partition[T]{
		Ready:     true,
		Assigned:  append([]T{}, assigned...),
		Available: available,
	}
}

// Relation describes one editable relation anchored on a client, library or group.
// Unassign is nil when the API offers no removal endpoint. Refresh drops the cached
// All list; when set, an id missing from that list is looked up once more after it.
type Relation[T domain.Identified] struct {
	Name     string
	All      func(ctx context.Context) querycache.Snapshot[[]T]
	Assigned func(ctx context.Context, anchor string) querycache.Snapshot[[]T]
	Assign   func(ctx context.Context, anchor string, item T) error
	Unassign func(ctx context.Context, anchor string, item T) error
	Refresh  func(ctx context.Context)
}

type lockRef struct {
	mu   sync.Mutex
	refs int
}

// Engine serializes mutations per (relation, anchor, item) and tracks which of them are
// pending. Mutations on different items run concurrently.
type Engine struct {
	mu      sync.Mutex
	locks   map[string]*lockRef
	pending map[string]int
	logger  *logx.Logger
}

// NewEngine creates an engine with no pending work.
func NewEngine() *Engine {
	return &Engine{
		locks:   map[string]*lockRef{},
		pending: map[string]int{},
		logger:  logx.GetScope("assign"),
	}
}

func slot(rel, anchor string, id int) string {
	return rel + "|" + anchor + "|" + strconv.Itoa(id)
}

// State reports whether a mutation for the triple is waiting or running.
func (e *Engine) State(rel, anchor string, id int) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.Ternary(e.pending[slot(rel, anchor, id)] > 0, Pending, Idle)
}

// run executes fn under the triple's lock. The triple is Pending from the moment the
// call arrives until its own fn returns.
func (e *Engine) run(ctx context.Context, key string, fn func(context.Context) error) error {
	e.mu.Lock()
	e.pending[key]++
	l := e.locks[key]
	if l == nil {
		l = &lockRef{}
		e.locks[key] = l
	}
	l.refs++
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if e.pending[key]--; e.pending[key] <= 0 {
			delete(e.pending, key)
		}
		if l.refs--; l.refs == 0 {
			delete(e.locks, key)
		}
		e.mu.Unlock()
	}()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Binding is a Relation attached to an Engine.
type Binding[T domain.Identified] struct {
	rel    Relation[T]
	engine *Engine
}

// Bind attaches rel to e.
func Bind[T domain.Identified](e *Engine, rel Relation[T]) *Binding[T] {
	return &Binding[T]{rel: rel, engine: e}
}

// Name of the bound relation.
func (b *Binding[T]) Name() string { return b.rel.Name }

// CanUnassign reports whether items can be moved back to available.
func (b *Binding[T]) CanUnassign() bool { return b.rel.Unassign != nil }

// Partition reads both lists through the cache and splits them.
func (b *Binding[T]) Partition(ctx context.Context, anchor string) Partition[T] {
	all := b.rel.All(ctx)
	assigned := b.rel.Assigned(ctx, anchor)
	return Split(all.Data, assigned.Data, all.Ready(), assigned.Ready())
}

// Errors returns the load errors of both lists, nil entries removed.
func (b *Binding[T]) Errors(ctx context.Context, anchor string) []error {
	return lo.Compact([]error{b.rel.All(ctx).Err, b.rel.Assigned(ctx, anchor).Err})
}

func (b *Binding[T]) lookup(ctx context.Context, id int) (T, error) {
	item, err := b.find(b.rel.All(ctx), id)
	if errors.Is(err, ErrUnknownItem) && b.rel.Refresh != nil {
		b.rel.Refresh(ctx)
		item, err = b.find(b.rel.All(ctx), id)
	}
	return item, err
}

func (b *Binding[T]) find(all querycache.Snapshot[[]T], id int) (T, error) {
	if !all.HasData {
		var zero T
		if all.Err != nil {
			return zero, all.Err
		}
		return zero, fmt.Errorf("%s: item source not loaded", b.rel.Name)
	}
	item, ok := lo.Find(all.Data, func(t T) bool { return t.Key() == id })
	if !ok {
		return item, fmt.Errorf("%s: id %d: %w", b.rel.Name, id, ErrUnknownItem)
	}
	return item, nil
}

// Assign moves item id to the assigned side of anchor.
func (b *Binding[T]) Assign(ctx context.Context, anchor string, id int) error {
	item, err := b.lookup(ctx, id)
	if err != nil {
		return err
	}
	return b.engine.run(ctx, slot(b.rel.Name, anchor, id), func(ctx context.Context) error {
		b.engine.logger.Debug("assign", zap.String("relation", b.rel.Name), zap.String("anchor", anchor), zap.Int("id", id))
		return b.rel.Assign(ctx, anchor, item)
	})
}

// Unassign moves item id back to available.
func (b *Binding[T]) Unassign(ctx context.Context, anchor string, id int) error {
	if b.rel.Unassign == nil {
		return fmt.Errorf("%s: %w", b.rel.Name, ErrUnsupported)
	}
	item, err := b.lookup(ctx, id)
	if err != nil {
		return err
	}
	return b.engine.run(ctx, slot(b.rel.Name, anchor, id), func(ctx context.Context) error {
		b.engine.logger.Debug("unassign", zap.String("relation", b.rel.Name), zap.String("anchor", anchor), zap.Int("id", id))
		return b.rel.Unassign(ctx, anchor, item)
	})
}

// Move is the drop handler: to=assigned assigns, to=available unassigns. Dropping an
// item on the side it already sits on does nothing and reports false.
func (b *Binding[T]) Move(ctx context.Context, anchor string, id int, to Side) (bool, error) {
	p := b.Partition(ctx, anchor)
	if p.Ready {
		onAssigned := lo.ContainsBy(p.Assigned, func(t T) bool { return t.Key() == id })
		if onAssigned == (to == SideAssigned) {
			return false, nil
		}
	}
	switch to {
	case SideAssigned:
		return true, b.Assign(ctx, anchor, id)
	case SideAvailable:
		return true, b.Unassign(ctx, anchor, id)
	default:
		return false, fmt.Errorf("%w: %q", ErrBadTarget, to)
	}
}

// State of one item under anchor.
func (b *Binding[T]) State(anchor string, id int) State {
	return b.engine.State(b.rel.Name, anchor, id)
}
