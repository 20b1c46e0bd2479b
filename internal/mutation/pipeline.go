// Package mutation runs writes against the query cache as an optimistic
// three-phase protocol: cancel in-flight reads and apply a projected value,
// commit to the server, then reconcile with the result or roll back.
package mutation

import (
	"context"
	"fmt"
	"sync"

	"github.com/prompt2production/needled-mobile-sub000/internal/cache"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
	"github.com/prompt2production/needled-mobile-sub000/internal/metrics"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// Lane identifies a serialization queue. Mutations on the same lane run one
// at a time in arrival order; different lanes overlap freely.
type Lane struct {
	Kind   string
	UserID string
	Date   models.LocalDate
}

func (l Lane) String() string {
	if l.Date.IsZero() {
		return fmt.Sprintf("%s/%s", l.Kind, l.UserID)
	}
	return fmt.Sprintf("%s/%s/%s", l.Kind, l.UserID, l.Date)
}

// HabitLane serializes habit toggles per (user, date).
func HabitLane(userID string, date models.LocalDate) Lane {
	return Lane{Kind: "habit", UserID: userID, Date: date}
}

// WeighInLane serializes weigh-in logs per (user, date).
func WeighInLane(userID string, date models.LocalDate) Lane {
	return Lane{Kind: "weighin", UserID: userID, Date: date}
}

// InjectionLane serializes injection logs per user. Every log advances the
// same dose cycle, so they never overlap.
func InjectionLane(userID string) Lane {
	return Lane{Kind: "injection", UserID: userID}
}

// Mutation describes one write. R is the server's response type.
type Mutation[R any] struct {
	Name string
	Lane Lane
	// Affects selects the cached entries this write touches. Each matching
	// entry has its in-flight read cancelled and is snapshotted before Apply.
	Affects func(cache.Key) bool
	// Apply writes the projected value into the affected entries.
	Apply func(tx *cache.Tx)
	// Commit performs the server write. It is not cancelled once Apply ran.
	Commit func(ctx context.Context) (R, error)
	// Reconcile replaces projected values with the server result.
	Reconcile func(tx *cache.Tx, result R)
	// Revert undoes only this write's fields in key. It is used during
	// rollback for entries another mutation has written since Apply; it
	// returns false when it cannot, and the entry is invalidated instead.
	Revert func(tx *cache.Tx, key cache.Key) bool
	// Invalidate selects broader aggregates to refetch after success.
	Invalidate func(cache.Key) bool
}

// Pipeline executes mutations against a store. It is safe for concurrent use.
type Pipeline struct {
	store *cache.Store

	mu    sync.Mutex
	lanes map[Lane]*laneQueue
}

type laneQueue struct {
	sem  chan struct{}
	refs int
}

// New creates a Pipeline writing into store.
func New(store *cache.Store) *Pipeline {
	return &Pipeline{
		store: store,
		lanes: make(map[Lane]*laneQueue),
	}
}

// Store returns the cache the pipeline writes into.
func (p *Pipeline) Store() *cache.Store {
	return p.store
}

func (p *Pipeline) acquire(ctx context.Context, lane Lane) (func(), error) {
	p.mu.Lock()
	q, ok := p.lanes[lane]
	if !ok {
		q = &laneQueue{sem: make(chan struct{}, 1)}
		p.lanes[lane] = q
	}
	q.refs++
	p.mu.Unlock()

	done := func() {
		p.mu.Lock()
		q.refs--
		if q.refs == 0 {
			delete(p.lanes, lane)
		}
		p.mu.Unlock()
	}

	select {
	case q.sem <- struct{}{}:
		return func() {
			<-q.sem
			done()
		}, nil
	case <-ctx.Done():
		done()
		return nil, ctx.Err()
	}
}

// Run executes m. It returns once the cache reflects either the server
// result or the exact pre-mutation state. The caller's context bounds only
// the wait for the lane; after the optimistic apply the write always runs
// to completion.
func Run[R any](ctx context.Context, p *Pipeline, m Mutation[R]) (R, error) {
	var zero R
	release, err := p.acquire(ctx, m.Lane)
	if err != nil {
		return zero, err
	}
	defer release()

	affects := m.Affects
	if affects == nil {
		affects = func(cache.Key) bool { return false }
	}

	var (
		snap    cache.Snapshot
		applied map[cache.Key]uint64
	)
	p.store.Transact(func(tx *cache.Tx) {
		keys := tx.Keys(affects)
		for _, k := range keys {
			tx.CancelInFlight(k)
		}
		snap = tx.Snapshot(keys...)
		if m.Apply != nil {
			m.Apply(tx)
		}
		applied = make(map[cache.Key]uint64, len(keys))
		for _, k := range keys {
			applied[k] = tx.Version(k)
		}
	})

	result, err := m.Commit(context.WithoutCancel(ctx))
	if err != nil {
		p.rollback(m.Name, m.Lane, snap, applied, m.Revert)
		metrics.Mutations.WithLabelValues(m.Name, metrics.OutcomeRolledBack).Inc()
		logger.Warn("Mutation rolled back", "mutation", m.Name, "lane", m.Lane.String(), "error", err)
		return zero, err
	}

	p.store.Transact(func(tx *cache.Tx) {
		if m.Reconcile != nil {
			m.Reconcile(tx, result)
		}
		if m.Invalidate != nil {
			for _, k := range tx.Keys(m.Invalidate) {
				tx.Invalidate(k)
			}
		}
	})
	metrics.Mutations.WithLabelValues(m.Name, metrics.OutcomeCommitted).Inc()
	logger.Debug("Mutation committed", "mutation", m.Name, "lane", m.Lane.String())
	return result, nil
}

func (p *Pipeline) rollback(name string, lane Lane, snap cache.Snapshot, applied map[cache.Key]uint64, revert func(*cache.Tx, cache.Key) bool) {
	p.store.Transact(func(tx *cache.Tx) {
		var overwritten []cache.Key
		tx.RestoreWhere(snap, func(k cache.Key) bool {
			if tx.Version(k) == applied[k] {
				return true
			}
			overwritten = append(overwritten, k)
			return false
		})
		for _, k := range overwritten {
			if revert != nil && revert(tx, k) {
				continue
			}
			logger.Debug("Invalidating entry written during rollback window", "mutation", name, "lane", lane.String(), "key", k.String())
			tx.Invalidate(k)
		}
	})
}
