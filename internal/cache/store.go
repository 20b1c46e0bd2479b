// Package cache is the client-side query store. Each Key holds one fetched
// result with its own staleness and in-flight state. Reads go through Fetch;
// the mutation pipeline writes through Transact.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
	"github.com/prompt2production/needled-mobile-sub000/internal/metrics"
)

// Entry is a snapshot of one cached query result.
type Entry struct {
	Key        Key
	Data       any
	IsLoading  bool // fetching with no data yet
	IsFetching bool // fetching, with or without data
	Err        error
	UpdatedAt  time.Time
	// Stale is set by Invalidate; the data stays visible until the next fetch.
	Stale bool
}

// HasData reports whether the entry holds a result.
func (e Entry) HasData() bool {
	return e.Data != nil
}

// Value returns the entry's data as T.
func Value[T any](e Entry) (T, bool) {
	v, ok := e.Data.(T)
	return v, ok
}

// Fetcher loads the authoritative value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Options configures a Store.
type Options struct {
	StaleTimes       map[Namespace]time.Duration
	DefaultStaleTime time.Duration
	// Retries is how many times a read is retried after a network error.
	Retries    int
	RetryDelay time.Duration
	Clock      func() time.Time
}

// Option is a functional option for configuring a Store.
type Option func(*Options)

// WithStaleTime overrides the staleness window for one namespace.
func WithStaleTime(ns Namespace, d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.StaleTimes[ns] = d
		}
	}
}

// WithRetry sets the read retry policy.
func WithRetry(retries int, delay time.Duration) Option {
	return func(o *Options) {
		if retries >= 0 {
			o.Retries = retries
		}
		if delay >= 0 {
			o.RetryDelay = delay
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

func defaultOptions() Options {
	stale := make(map[Namespace]time.Duration, len(DefaultStaleTimes))
	for ns, d := range DefaultStaleTimes {
		stale[ns] = d
	}
	return Options{
		StaleTimes:       stale,
		DefaultStaleTime: constants.DefaultStaleTime,
		Retries:          constants.DefaultRetryAttempts,
		RetryDelay:       constants.DefaultRetryDelay,
		Clock:            time.Now,
	}
}

type record struct {
	entry Entry
	// gen is bumped whenever the entry is written outside a fetch or its
	// in-flight read is cancelled. A fetch started under an older gen is ignored.
	gen uint64
}

// Store is safe for concurrent use. It is the only shared mutable state in
// the client; everything except the mutation pipeline treats it as read-only.
type Store struct {
	mu      sync.RWMutex
	records map[Key]*record
	flight  singleflight.Group
	opts    Options

	subMu   sync.Mutex
	subs    map[int]func(Key)
	nextSub int
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Store{
		records: make(map[Key]*record),
		opts:    options,
		subs:    make(map[int]func(Key)),
	}
}

func (s *Store) now() time.Time {
	return s.opts.Clock()
}

// StaleTime returns the staleness window for ns.
func (s *Store) StaleTime(ns Namespace) time.Duration {
	if d, ok := s.opts.StaleTimes[ns]; ok {
		return d
	}
	return s.opts.DefaultStaleTime
}

func (s *Store) fresh(e Entry) bool {
	if !e.HasData() || e.Stale || e.Err != nil {
		return false
	}
	return s.now().Sub(e.UpdatedAt) < s.StaleTime(e.Key.Namespace)
}

// recordLocked returns the record for key, creating it. Caller holds s.mu.
func (s *Store) recordLocked(key Key) *record {
	rec, ok := s.records[key]
	if !ok {
		rec = &record{entry: Entry{Key: key}}
		s.records[key] = rec
	}
	return rec
}

// Get returns the current entry for key. Missing keys return an empty entry.
func (s *Store) Get(key Key) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[key]; ok {
		return rec.entry
	}
	return Entry{Key: key}
}

// Keys returns every cached key for which match returns true.
func (s *Store) Keys(match func(Key) bool) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []Key
	for k := range s.records {
		if match == nil || match(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Fetch returns the cached entry when it is fresh, otherwise runs fetch.
// Concurrent fetches of the same key share one call. Network errors are
// retried; on failure the previous data stays visible with Err set.
// If the read is cancelled while in flight its result is dropped and the
// current entry is returned instead.
func (s *Store) Fetch(ctx context.Context, key Key, fetch Fetcher) (Entry, error) {
	s.mu.Lock()
	rec := s.recordLocked(key)
	if s.fresh(rec.entry) {
		entry := rec.entry
		s.mu.Unlock()
		metrics.CacheHits.WithLabelValues(string(key.Namespace)).Inc()
		return entry, nil
	}
	metrics.CacheMisses.WithLabelValues(string(key.Namespace)).Inc()
	gen := rec.gen
	started := !rec.entry.IsFetching
	if started {
		rec.entry.IsFetching = true
		rec.entry.IsLoading = !rec.entry.HasData()
	}
	s.mu.Unlock()
	if started {
		s.notify(key)
	}

	flightKey := fmt.Sprintf("%s@%d", key, gen)
	v, err, _ := s.flight.Do(flightKey, func() (interface{}, error) {
		data, fetchErr := s.fetchWithRetry(ctx, key, fetch)
		entry, applyErr := s.complete(key, gen, data, fetchErr)
		s.notify(key)
		return entry, applyErr
	})
	entry, _ := v.(Entry)
	return entry, err
}

func (s *Store) fetchWithRetry(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying cache fetch", "key", key.String(), "attempt", attempt, "error", lastErr)
			if s.opts.RetryDelay > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(s.opts.RetryDelay):
				}
			}
		}
		data, err := fetch(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !apperrors.IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// complete applies a fetch result unless the read was cancelled meanwhile.
func (s *Store) complete(key Key, gen uint64, data any, fetchErr error) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.recordLocked(key)
	if rec.gen != gen {
		metrics.CacheDiscarded.WithLabelValues(string(key.Namespace)).Inc()
		logger.Debug("Discarding cancelled cache fetch", "key", key.String())
		return rec.entry, nil
	}

	rec.entry.IsFetching = false
	rec.entry.IsLoading = false
	if fetchErr != nil {
		metrics.CacheFetchErrors.WithLabelValues(string(key.Namespace)).Inc()
		rec.entry.Err = fetchErr
		return rec.entry, fetchErr
	}

	rec.entry.Data = data
	rec.entry.Err = nil
	rec.entry.Stale = false
	rec.entry.UpdatedAt = s.now()
	return rec.entry, nil
}

// Set stores data for key as if freshly fetched and supersedes any read in flight.
func (s *Store) Set(key Key, data any) {
	s.Transact(func(tx *Tx) {
		tx.Set(key, data)
	})
}

// Invalidate marks key stale so the next Fetch goes to the network.
// The data stays visible meanwhile.
func (s *Store) Invalidate(key Key) {
	s.InvalidateWhere(func(k Key) bool { return k == key })
}

// InvalidateWhere marks every matching key stale.
func (s *Store) InvalidateWhere(match func(Key) bool) {
	var touched []Key
	s.mu.Lock()
	for k, rec := range s.records {
		if match(k) && !rec.entry.Stale {
			rec.entry.Stale = true
			touched = append(touched, k)
		}
	}
	s.mu.Unlock()
	for _, k := range touched {
		s.notify(k)
	}
}

// CancelInFlight makes any read currently in flight for key be ignored when
// it completes. The network call itself is not aborted.
func (s *Store) CancelInFlight(key Key) {
	s.mu.Lock()
	rec, ok := s.records[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	rec.gen++
	changed := rec.entry.IsFetching
	rec.entry.IsFetching = false
	rec.entry.IsLoading = false
	s.mu.Unlock()
	if changed {
		s.notify(key)
	}
}

// Clear drops every entry, e.g. on sign-out.
func (s *Store) Clear() {
	s.mu.Lock()
	keys := make([]Key, 0, len(s.records))
	for k, rec := range s.records {
		rec.gen++
		keys = append(keys, k)
	}
	s.records = make(map[Key]*record)
	s.mu.Unlock()
	for _, k := range keys {
		s.notify(k)
	}
}

// Subscribe registers fn to be called after any entry changes. fn runs on the
// goroutine that made the change and must not block. The returned func
// unsubscribes.
func (s *Store) Subscribe(fn func(Key)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(key Key) {
	s.subMu.Lock()
	fns := make([]func(Key), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}
