package list

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clsdenji/Spark/internal/domain"
	"github.com/clsdenji/Spark/internal/logger"
	"github.com/clsdenji/Spark/internal/storage"
)

const (
	// DefaultCap bounds how many entries a list keeps in memory and on disk.
	DefaultCap = 100
	// DefaultDebounce is the quiescence window before a mutation burst is
	// written to storage as a single blob.
	DefaultDebounce = 300 * time.Millisecond
)

// Options configure one list instance.
type Options struct {
	// Name identifies the list ("history", "saved") in storage keys and logs.
	Name string

	// Key overrides the storage key. Defaults to storage.ListKey(Name).
	Key string

	// Cap is the maximum number of entries; the oldest entries are evicted
	// past it. Defaults to DefaultCap.
	Cap int

	// Debounce is the persist quiescence window. Defaults to DefaultDebounce.
	Debounce time.Duration

	// NewID assigns an identifier to inputs that carry none. Defaults to
	// generated history IDs.
	NewID func(domain.PlaceInput) string

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// List is an ordered, deduplicated, capped sequence of places with a
// debounced write-behind mirror in storage and synchronous subscriber
// notification.
//
// Memory is the source of truth: every operation answers from the
// in-memory state immediately, and the storage adapter is only a
// best-effort durable copy. Mutations never fail; storage trouble is
// logged and swallowed.
//
// Subscriber callbacks run synchronously inside the mutating call and
// receive the post-mutation snapshot as their argument. They must not
// call back into the list.
type List struct {
	opts    Options
	adapter storage.Adapter
	logger  logger.Logger

	initOnce sync.Once
	ready    chan struct{}

	mu      sync.RWMutex
	entries []domain.Place
	version uint64 // mutation counter; the initial load applies only at zero
	loaded  bool   // initial load finished (applied or discarded)
	timer   *time.Timer
	gen     uint64 // invalidates fired-but-not-run debounce timers
	subs    []subscriber
	nextSub uint64

	// persistMu serializes storage writes so an older snapshot can never
	// land after a newer one.
	persistMu sync.Mutex
}

type subscriber struct {
	id uint64
	fn func([]domain.Place)
}

// New creates a list. It holds no entries until Initialize loads the
// mirror, but is usable immediately: mutations before the load finish
// win over loaded data.
func New(adapter storage.Adapter, log logger.Logger, opts Options) *List {
	if opts.Cap <= 0 {
		opts.Cap = DefaultCap
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Key == "" {
		opts.Key = storage.ListKey(opts.Name)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		now := opts.Now
		opts.NewID = func(domain.PlaceInput) string { return domain.NewHistoryID(now()) }
	}

	return &List{
		opts:    opts,
		adapter: adapter,
		logger:  log,
		ready:   make(chan struct{}),
	}
}

// NewHistory builds the search-history list: generated IDs, newest first.
func NewHistory(adapter storage.Adapter, log logger.Logger, cap int, debounce time.Duration) *List {
	return New(adapter, log, Options{
		Name:     "history",
		Cap:      cap,
		Debounce: debounce,
	})
}

// NewSaved builds the saved-spots list: deterministic IDs derived from
// coordinates, so toggling the same location always hits the same entry.
func NewSaved(adapter storage.Adapter, log logger.Logger, cap int, debounce time.Duration) *List {
	return New(adapter, log, Options{
		Name:     "saved",
		Cap:      cap,
		Debounce: debounce,
		NewID:    domain.SavedID,
	})
}

// Name returns the list's configured name.
func (l *List) Name() string { return l.opts.Name }

// Initialize starts the background load from storage. Safe to call more
// than once; only the first call loads.
func (l *List) Initialize(ctx context.Context) {
	l.initOnce.Do(func() {
		go l.load(ctx)
	})
}

// Ready is closed once the initial load has finished, whether or not it
// found anything.
func (l *List) Ready() <-chan struct{} { return l.ready }

// Loaded reports whether the initial load has finished.
func (l *List) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *List) load(ctx context.Context) {
	defer close(l.ready)

	var places []domain.Place

	blob, err := l.adapter.Get(ctx, l.opts.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// first run, nothing mirrored yet
	case err != nil:
		l.logger.Warn("failed to load list, starting empty",
			logger.String("list", l.opts.Name),
			logger.Error(err))
	default:
		places, err = storage.DecodePlaces(blob)
		if err != nil {
			l.logger.Warn("discarding unreadable list blob, starting empty",
				logger.String("list", l.opts.Name),
				logger.Error(err))
			places = nil
		}
	}

	if len(places) > l.opts.Cap {
		places = places[:l.opts.Cap]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.loaded = true
	if l.version > 0 {
		// A mutation beat the load. In-memory state is authoritative and
		// its debounced write will overwrite the mirror; the loaded data
		// is discarded and subscribers were already notified.
		l.logger.Debug("list mutated before load finished, keeping memory state",
			logger.String("list", l.opts.Name))
		return
	}

	l.entries = places
	l.notifyLocked(l.snapshotLocked())

	l.logger.Info("list loaded",
		logger.String("list", l.opts.Name),
		logger.Int("count", len(places)))
}

// Add builds a full entry from the input, replaces any entry with the
// same id or name, inserts it first and evicts past the cap. Returns the
// stored entry. Never fails: persistence is scheduled in the background.
func (l *List) Add(in domain.PlaceInput) domain.Place {
	id := in.ID
	if id == "" {
		id = l.opts.NewID(in)
	}
	entry := domain.NewPlace(in, id, l.opts.Now())

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.ID == entry.ID || e.Name == entry.Name {
			continue
		}
		kept = append(kept, e)
	}
	l.entries = append([]domain.Place{entry}, kept...)
	if len(l.entries) > l.opts.Cap {
		l.entries = l.entries[:l.opts.Cap]
	}

	l.afterMutationLocked()
	return entry
}

// Remove drops the entry with the given id. Removing an absent id still
// counts as a mutation: the mirror is rewritten and subscribers are
// notified with the (unchanged) snapshot.
func (l *List) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.ID == id {
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept

	l.afterMutationLocked()
}

// Toggle flips membership for the input's deterministic identity.
// Present removes it, absent inserts it first. Returns the affected
// entry and whether it is now in the list. Toggle is its own inverse.
func (l *List) Toggle(in domain.PlaceInput) (domain.Place, bool) {
	id := in.ID
	if id == "" {
		id = l.opts.NewID(in)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			l.afterMutationLocked()
			return e, false
		}
	}

	entry := domain.NewPlace(in, id, l.opts.Now())
	l.entries = append([]domain.Place{entry}, l.entries...)
	if len(l.entries) > l.opts.Cap {
		l.entries = l.entries[:l.opts.Cap]
	}

	l.afterMutationLocked()
	return entry, true
}

// Clear empties the list. The pending debounced write (if any) is
// cancelled and the mirror is deleted right away instead of waiting out
// the window: clearing is the user saying "forget this", and a crash
// must not resurrect it.
func (l *List) Clear() {
	l.mu.Lock()

	l.entries = nil
	l.version++
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.notifyLocked(l.snapshotLocked())

	l.mu.Unlock()

	go l.removeBlob()
}

// Snapshot returns a copy of the current entries, newest first. Empty
// until the initial load finishes unless mutations happened earlier.
func (l *List) Snapshot() []domain.Place {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Count returns the number of entries.
func (l *List) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Subscribe registers a callback invoked synchronously after every
// mutation with the post-mutation snapshot. If the initial load already
// finished, the callback is invoked immediately with the current
// snapshot. The returned function unsubscribes and is safe to call more
// than once.
func (l *List) Subscribe(fn func([]domain.Place)) func() {
	l.mu.Lock()

	id := l.nextSub
	l.nextSub++
	sub := subscriber{id: id, fn: fn}
	l.subs = append(l.subs, sub)

	if l.loaded {
		l.invoke(sub, l.snapshotLocked())
	}

	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Flush writes any pending debounced snapshot now. Used at shutdown so
// the last burst of mutations is not lost to the quiescence window.
func (l *List) Flush(ctx context.Context) {
	l.mu.Lock()
	pending := l.timer != nil
	if pending {
		l.timer.Stop()
		l.timer = nil
		l.gen++
	}
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	if !pending {
		return
	}
	l.persist(ctx, snapshot)
}

// afterMutationLocked runs the common tail of every mutation: bump the
// version, reset the debounce window and notify subscribers.
func (l *List) afterMutationLocked() {
	l.version++
	l.gen++
	gen := l.gen

	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.opts.Debounce, func() { l.flushTimer(gen) })

	l.notifyLocked(l.snapshotLocked())
}

// flushTimer runs when the debounce window elapses. A timer that fired
// while a newer mutation (or Clear, or Flush) held the lock is stale and
// must not write: its generation no longer matches.
func (l *List) flushTimer(gen uint64) {
	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.timer = nil
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	// Writes run without a deadline: the mirror is best effort and a
	// slow store only delays its own write.
	l.persist(context.Background(), snapshot)
}

func (l *List) persist(ctx context.Context, places []domain.Place) {
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	blob, err := storage.EncodePlaces(places)
	if err != nil {
		l.logger.Warn("failed to encode list",
			logger.String("list", l.opts.Name),
			logger.Error(err))
		return
	}

	if err := l.adapter.Set(ctx, l.opts.Key, blob); err != nil {
		l.logger.Warn("failed to persist list",
			logger.String("list", l.opts.Name),
			logger.Error(err))
		return
	}

	l.logger.Debug("list persisted",
		logger.String("list", l.opts.Name),
		logger.Int("count", len(places)))
}

func (l *List) removeBlob() {
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	if err := l.adapter.Remove(context.Background(), l.opts.Key); err != nil {
		l.logger.Warn("failed to delete list blob",
			logger.String("list", l.opts.Name),
			logger.Error(err))
		return
	}

	l.logger.Debug("list blob deleted", logger.String("list", l.opts.Name))
}

func (l *List) snapshotLocked() []domain.Place {
	out := make([]domain.Place, len(l.entries))
	copy(out, l.entries)
	return out
}

// notifyLocked delivers one snapshot to every subscriber in registration
// order. All subscribers see the same slice.
func (l *List) notifyLocked(snapshot []domain.Place) {
	for _, sub := range l.subs {
		l.invoke(sub, snapshot)
	}
}

// invoke isolates subscriber panics so one broken callback cannot take
// down the mutation or starve later subscribers.
func (l *List) invoke(sub subscriber, snapshot []domain.Place) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("list subscriber panicked",
				logger.String("list", l.opts.Name),
				logger.Any("panic", r))
		}
	}()
	sub.fn(snapshot)
}
