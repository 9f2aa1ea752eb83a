package actor

import (
	"sync"

	"github.com/nqn/loom/pkg/pool"
)

// Group binds a name to the pool.Pool an actor schedules its chunks on,
// named the way _examples/ConnorDoyle-spider/pkg/actor names its
// ActorSystem grouping: most programs share one Group across all actors,
// but isolating a noisy actor onto its own Group is one line.
//
// A Group's pool is frozen the first time any actor started on it runs its
// first chunk: reassigning the pool afterward would silently move already-
// scheduled chunks' ordering guarantees out from under actors that assumed
// a fixed pool, so SetPool rejects it with InvalidOperationError instead.
type Group struct {
	name string

	mu     sync.Mutex
	pool   pool.Pool
	frozen bool
}

// NewGroup creates a Group backed by a fresh pool.Pool built from cfg.
func NewGroup(name string, cfg pool.Config) *Group {
	if cfg.Name == "" {
		cfg.Name = name
	}
	return &Group{name: name, pool: pool.New(cfg)}
}

// NewGroupOnPool wraps an already-constructed pool.Pool, for callers that
// want actors to share a pool with unrelated work (e.g. dataflow operators).
func NewGroupOnPool(name string, p pool.Pool) *Group {
	return &Group{name: name, pool: p}
}

// Name returns the group's name.
func (g *Group) Name() string {
	return g.name
}

// SetPool reassigns the pool.Pool actors on this Group schedule chunks on.
// It fails with InvalidOperationError once the Group is frozen — i.e. once
// any actor started on it has run its first chunk.
func (g *Group) SetPool(p pool.Pool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return &InvalidOperationError{Op: "SetPool", Why: "group is frozen: an actor has already started on it"}
	}
	g.pool = p
	return nil
}

// currentPool returns the pool actors should schedule on, freezing the
// Group against further SetPool calls as a side effect. Called every time
// an actor on the Group submits a chunk or arms a react-timeout.
func (g *Group) currentPool() pool.Pool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true
	return g.pool
}

// Shutdown tears down the group's pool. Actors already spawned on it will
// fail to schedule further chunks; callers should Stop and Join actors
// before shutting down their group.
func (g *Group) Shutdown() {
	g.mu.Lock()
	p := g.pool
	g.mu.Unlock()
	p.Shutdown()
}

var (
	defaultGroupOnce sync.Once
	defaultGroup     *Group
)

// DefaultGroup returns the process-wide default Group, created lazily on
// the default pool.Pool (pool.Default()).
func DefaultGroup() *Group {
	defaultGroupOnce.Do(func() {
		defaultGroup = NewGroupOnPool("default", pool.Default())
	})
	return defaultGroup
}
