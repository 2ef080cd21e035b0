package list

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clsdenji/Spark/internal/domain"
	"github.com/clsdenji/Spark/internal/logger"
	"github.com/clsdenji/Spark/internal/storage"
)

const testDebounce = 40 * time.Millisecond

// trackingAdapter counts storage calls and can be told to fail writes.
type trackingAdapter struct {
	*storage.MemoryAdapter
	sets    atomic.Int32
	removes atomic.Int32
	failSet atomic.Bool
}

func newTrackingAdapter() *trackingAdapter {
	return &trackingAdapter{MemoryAdapter: storage.NewMemoryAdapter()}
}

func (a *trackingAdapter) Set(ctx context.Context, key string, blob []byte) error {
	if a.failSet.Load() {
		return errors.New("injected write failure")
	}
	a.sets.Add(1)
	return a.MemoryAdapter.Set(ctx, key, blob)
}

func (a *trackingAdapter) Remove(ctx context.Context, key string) error {
	a.removes.Add(1)
	return a.MemoryAdapter.Remove(ctx, key)
}

// gatedAdapter blocks Get until the gate is opened, to stage mutations
// that race the initial load.
type gatedAdapter struct {
	*storage.MemoryAdapter
	gate chan struct{}
}

func newGatedAdapter() *gatedAdapter {
	return &gatedAdapter{
		MemoryAdapter: storage.NewMemoryAdapter(),
		gate:          make(chan struct{}),
	}
}

func (a *gatedAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	<-a.gate
	return a.MemoryAdapter.Get(ctx, key)
}

func newTestList(t *testing.T, adapter storage.Adapter, opts Options) *List {
	t.Helper()
	if opts.Name == "" {
		opts.Name = "history"
	}
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	return New(adapter, logger.Nop(), opts)
}

func initTestList(t *testing.T, adapter storage.Adapter, opts Options) *List {
	t.Helper()
	l := newTestList(t, adapter, opts)
	l.Initialize(context.Background())
	select {
	case <-l.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("list did not finish loading")
	}
	return l
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func names(places []domain.Place) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.Name
	}
	return out
}

func TestAddOrdersNewestFirst(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	l.Add(domain.PlaceInput{Name: "Mall A"})
	l.Add(domain.PlaceInput{Name: "Mall B"})
	l.Add(domain.PlaceInput{Name: "Mall C"})

	got := names(l.Snapshot())
	want := []string{"Mall C", "Mall B", "Mall A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Snapshot() order = %v, want %v", got, want)
		}
	}
}

func TestAddDeduplicatesByName(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	l.Add(domain.PlaceInput{Name: "Mall A"})
	l.Add(domain.PlaceInput{Name: "Mall B"})
	l.Add(domain.PlaceInput{Name: "Mall A"})

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() has %v entries, want 2 (duplicate replaced)", len(snap))
	}
	if snap[0].Name != "Mall A" || snap[1].Name != "Mall B" {
		t.Errorf("Snapshot() order = %v, want re-added entry first", names(snap))
	}
}

func TestAddDeduplicatesByID(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	l.Add(domain.PlaceInput{ID: "fixed", Name: "Old Name"})
	l.Add(domain.PlaceInput{Name: "Other"})
	l.Add(domain.PlaceInput{ID: "fixed", Name: "New Name"})

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() has %v entries, want 2", len(snap))
	}
	if snap[0].ID != "fixed" || snap[0].Name != "New Name" {
		t.Errorf("Snapshot()[0] = %+v, want replaced entry with ID fixed", snap[0])
	}
}

func TestAddNeverExceedsCap(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{Cap: 3})

	for i := 0; i < 10; i++ {
		l.Add(domain.PlaceInput{Name: fmt.Sprintf("Place %d", i)})
	}

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot() has %v entries, want cap 3", len(snap))
	}
	want := []string{"Place 9", "Place 8", "Place 7"}
	for i := range want {
		if snap[i].Name != want[i] {
			t.Errorf("Snapshot()[%d] = %s, want %s (newest kept, oldest evicted)", i, snap[i].Name, want[i])
		}
	}
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	fixed := time.UnixMilli(1717000000000)
	l := initTestList(t, newTrackingAdapter(), Options{Now: func() time.Time { return fixed }})

	entry := l.Add(domain.PlaceInput{Name: "Mall A"})

	if entry.ID == "" {
		t.Error("Add() should assign an ID")
	}
	if entry.Timestamp != fixed.UnixMilli() {
		t.Errorf("Add() Timestamp = %v, want %v", entry.Timestamp, fixed.UnixMilli())
	}
}

func TestAddKeepsCallerID(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	entry := l.Add(domain.PlaceInput{ID: "caller-chose", Name: "Mall A"})

	if entry.ID != "caller-chose" {
		t.Errorf("Add() ID = %q, want caller-provided ID kept", entry.ID)
	}
}

func TestRemove(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	kept := l.Add(domain.PlaceInput{Name: "Keep"})
	gone := l.Add(domain.PlaceInput{Name: "Drop"})

	l.Remove(gone.ID)

	snap := l.Snapshot()
	if len(snap) != 1 || snap[0].ID != kept.ID {
		t.Errorf("Snapshot() after Remove = %v, want only %s", names(snap), kept.Name)
	}
}

func TestRemoveAbsentStillNotifiesAndPersists(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{})

	var notifications atomic.Int32
	unsub := l.Subscribe(func([]domain.Place) { notifications.Add(1) })
	defer unsub()
	base := notifications.Load() // immediate replay

	l.Remove("no-such-id")

	if notifications.Load() != base+1 {
		t.Errorf("Remove(absent) notifications = %v, want %v", notifications.Load(), base+1)
	}
	waitFor(t, "persist after absent remove", func() bool { return adapter.sets.Load() == 1 })
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{Name: "saved", NewID: domain.SavedID})

	in := domain.PlaceInput{Name: "Harbor Garage", Lat: domain.Coord(14.58), Lng: domain.Coord(120.98)}

	entry, saved := l.Toggle(in)
	if !saved {
		t.Fatal("first Toggle() = false, want true (inserted)")
	}
	if l.Count() != 1 {
		t.Fatalf("Count() = %v after first toggle, want 1", l.Count())
	}

	entryAgain, saved := l.Toggle(in)
	if saved {
		t.Fatal("second Toggle() = true, want false (removed)")
	}
	if entryAgain.ID != entry.ID {
		t.Errorf("Toggle() removed entry %q, want %q", entryAgain.ID, entry.ID)
	}
	if l.Count() != 0 {
		t.Errorf("Count() = %v after second toggle, want 0", l.Count())
	}
}

func TestToggleMatchesByDeterministicID(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{Name: "saved", NewID: domain.SavedID})

	// Same physical location, slightly different GPS fixes and names.
	l.Toggle(domain.PlaceInput{Name: "Harbor Garage", Lat: domain.Coord(14.5800012), Lng: domain.Coord(120.9800009)})
	_, saved := l.Toggle(domain.PlaceInput{Name: "Harbor Garage (North)", Lat: domain.Coord(14.5800008), Lng: domain.Coord(120.9800011)})

	if saved {
		t.Error("Toggle() on the same rounded location should remove, not insert")
	}
	if l.Count() != 0 {
		t.Errorf("Count() = %v, want 0", l.Count())
	}
}

func TestToggleInsertsFirst(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{Name: "saved", NewID: domain.SavedID})

	l.Toggle(domain.PlaceInput{Name: "First", Lat: domain.Coord(14.1), Lng: domain.Coord(121.1)})
	l.Toggle(domain.PlaceInput{Name: "Second", Lat: domain.Coord(14.2), Lng: domain.Coord(121.2)})

	snap := l.Snapshot()
	if snap[0].Name != "Second" {
		t.Errorf("Snapshot()[0] = %s, want most recently toggled first", snap[0].Name)
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{})

	for i := 0; i < 5; i++ {
		l.Add(domain.PlaceInput{Name: fmt.Sprintf("Burst %d", i)})
	}

	waitFor(t, "debounced persist", func() bool { return adapter.sets.Load() >= 1 })
	time.Sleep(3 * testDebounce)
	if got := adapter.sets.Load(); got != 1 {
		t.Errorf("burst of 5 mutations produced %v writes, want 1", got)
	}

	// A later mutation opens a new window and writes once more.
	l.Add(domain.PlaceInput{Name: "After"})
	waitFor(t, "second persist", func() bool { return adapter.sets.Load() == 2 })
}

func TestDebouncedBlobHoldsFinalState(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{})

	l.Add(domain.PlaceInput{Name: "Mall A"})
	l.Add(domain.PlaceInput{Name: "Mall B"})

	waitFor(t, "persist", func() bool { return adapter.sets.Load() >= 1 })

	blob, err := adapter.MemoryAdapter.Get(context.Background(), storage.ListKey("history"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	places, err := storage.DecodePlaces(blob)
	if err != nil {
		t.Fatalf("DecodePlaces() error = %v", err)
	}
	if len(places) != 2 || places[0].Name != "Mall B" {
		t.Errorf("persisted blob = %v, want final snapshot [Mall B, Mall A]", names(places))
	}
}

func TestFlushWritesPendingImmediately(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{Debounce: 10 * time.Second})

	l.Add(domain.PlaceInput{Name: "Mall A"})
	if adapter.sets.Load() != 0 {
		t.Fatal("write should still be pending inside the debounce window")
	}

	l.Flush(context.Background())

	if adapter.sets.Load() != 1 {
		t.Errorf("Flush() writes = %v, want 1", adapter.sets.Load())
	}

	// The pending timer was consumed; no second write follows.
	time.Sleep(3 * testDebounce)
	if adapter.sets.Load() != 1 {
		t.Errorf("writes after Flush() = %v, want still 1", adapter.sets.Load())
	}
}

func TestFlushWithoutPendingIsNoop(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{})

	l.Flush(context.Background())

	if adapter.sets.Load() != 0 {
		t.Errorf("Flush() with nothing pending wrote %v times, want 0", adapter.sets.Load())
	}
}

func TestClearDeletesBlobImmediately(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{})

	l.Add(domain.PlaceInput{Name: "Mall A"})
	waitFor(t, "persist", func() bool { return adapter.sets.Load() == 1 })

	l.Clear()

	if l.Count() != 0 {
		t.Errorf("Count() after Clear = %v, want 0", l.Count())
	}
	waitFor(t, "blob removal", func() bool { return adapter.removes.Load() == 1 })
	_, err := adapter.MemoryAdapter.Get(context.Background(), storage.ListKey("history"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after Clear error = %v, want ErrNotFound", err)
	}
}

func TestClearCancelsPendingWrite(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{})

	// Mutate and clear inside one debounce window: the delete must win
	// and the debounced write must never land.
	l.Add(domain.PlaceInput{Name: "Mall A"})
	l.Clear()

	waitFor(t, "blob removal", func() bool { return adapter.removes.Load() == 1 })
	time.Sleep(3 * testDebounce)

	if got := adapter.sets.Load(); got != 0 {
		t.Errorf("cancelled debounced write still ran %v times", got)
	}
	_, err := adapter.MemoryAdapter.Get(context.Background(), storage.ListKey("history"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after Clear error = %v, want ErrNotFound", err)
	}
}

func TestRoundTripThroughStorage(t *testing.T) {
	adapter := newTrackingAdapter()

	first := initTestList(t, adapter, Options{})
	first.Add(domain.PlaceInput{Name: "Mall A", Address: "North Ave", Lat: domain.Coord(14.65), Lng: domain.Coord(121.03)})
	first.Add(domain.PlaceInput{Name: "Mall B"})
	first.Flush(context.Background())

	second := initTestList(t, adapter, Options{})

	got := second.Snapshot()
	want := first.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("reloaded list has %v entries, want %v", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name || got[i].Timestamp != want[i].Timestamp {
			t.Errorf("reloaded entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	// Newest first: got[0] is Mall B (no coordinates), got[1] is Mall A.
	if got[0].Lat != nil {
		t.Errorf("entry without coordinates gained Lat %v after round trip", *got[0].Lat)
	}
	if got[1].Lat == nil || *got[1].Lat != 14.65 {
		t.Errorf("entry coordinates lost in round trip: %+v", got[1])
	}
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	adapter := newTrackingAdapter()
	seed := []byte("this is not json")
	if err := adapter.MemoryAdapter.Set(context.Background(), storage.ListKey("history"), seed); err != nil {
		t.Fatal(err)
	}

	l := initTestList(t, adapter, Options{})

	if l.Count() != 0 {
		t.Errorf("Count() after corrupt load = %v, want 0", l.Count())
	}

	// The list still works and the next write repairs the mirror.
	l.Add(domain.PlaceInput{Name: "Fresh"})
	waitFor(t, "repair write", func() bool { return adapter.sets.Load() >= 1 })
}

func TestLoadMissingKeyStartsEmpty(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	if l.Count() != 0 {
		t.Errorf("Count() on first run = %v, want 0", l.Count())
	}
}

func TestPersistFailureDoesNotAffectMemory(t *testing.T) {
	adapter := newTrackingAdapter()
	l := initTestList(t, adapter, Options{})
	adapter.failSet.Store(true)

	l.Add(domain.PlaceInput{Name: "Mall A"})
	time.Sleep(3 * testDebounce)

	if l.Count() != 1 {
		t.Errorf("Count() = %v, want 1 (memory unaffected by write failure)", l.Count())
	}

	// Once the store recovers, the next mutation writes the full state.
	adapter.failSet.Store(false)
	l.Add(domain.PlaceInput{Name: "Mall B"})
	waitFor(t, "recovered persist", func() bool { return adapter.sets.Load() >= 1 })

	blob, _ := adapter.MemoryAdapter.Get(context.Background(), storage.ListKey("history"))
	places, err := storage.DecodePlaces(blob)
	if err != nil {
		t.Fatalf("DecodePlaces() error = %v", err)
	}
	if len(places) != 2 {
		t.Errorf("recovered blob has %v entries, want 2", len(places))
	}
}

func TestMutationBeforeLoadWins(t *testing.T) {
	adapter := newGatedAdapter()
	seed, _ := storage.EncodePlaces([]domain.Place{{ID: "stale", Name: "Stale", Timestamp: 1}})
	if err := adapter.MemoryAdapter.Set(context.Background(), storage.ListKey("history"), seed); err != nil {
		t.Fatal(err)
	}

	l := newTestList(t, adapter, Options{})
	var notifications atomic.Int32
	l.Subscribe(func([]domain.Place) { notifications.Add(1) })

	l.Initialize(context.Background())
	l.Add(domain.PlaceInput{Name: "Fresh"}) // mutation while load is stuck

	close(adapter.gate)
	<-l.Ready()

	snap := l.Snapshot()
	if len(snap) != 1 || snap[0].Name != "Fresh" {
		t.Errorf("Snapshot() = %v, want only the fresh mutation (loaded data discarded)", names(snap))
	}
	if got := notifications.Load(); got != 1 {
		t.Errorf("notifications = %v, want 1 (load must not notify after a mutation already did)", got)
	}
}

func TestLoadNotifiesSubscribersOnce(t *testing.T) {
	adapter := newTrackingAdapter()
	seed, _ := storage.EncodePlaces([]domain.Place{{ID: "a", Name: "Mall A", Timestamp: 1}})
	if err := adapter.MemoryAdapter.Set(context.Background(), storage.ListKey("history"), seed); err != nil {
		t.Fatal(err)
	}

	l := newTestList(t, adapter, Options{})
	var mu sync.Mutex
	var got [][]string
	l.Subscribe(func(snapshot []domain.Place) {
		mu.Lock()
		got = append(got, names(snapshot))
		mu.Unlock()
	})

	l.Initialize(context.Background())
	<-l.Ready()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("subscriber invoked %v times, want once for the initial load", len(got))
	}
	if len(got[0]) != 1 || got[0][0] != "Mall A" {
		t.Errorf("load notification snapshot = %v, want [Mall A]", got[0])
	}
}

func TestSubscribeBeforeLoadDoesNotReplay(t *testing.T) {
	adapter := newGatedAdapter()
	l := newTestList(t, adapter, Options{})

	var notifications atomic.Int32
	l.Subscribe(func([]domain.Place) { notifications.Add(1) })

	if notifications.Load() != 0 {
		t.Error("Subscribe() before load must not replay")
	}

	l.Initialize(context.Background())
	close(adapter.gate)
	<-l.Ready()

	if notifications.Load() != 1 {
		t.Errorf("notifications after load = %v, want 1", notifications.Load())
	}
}

func TestLateSubscriberGetsImmediateSnapshot(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})
	l.Add(domain.PlaceInput{Name: "Mall A"})

	var snapshots [][]domain.Place
	l.Subscribe(func(snapshot []domain.Place) {
		snapshots = append(snapshots, snapshot)
	})

	if len(snapshots) != 1 {
		t.Fatalf("late subscriber invoked %v times on subscribe, want 1", len(snapshots))
	}
	if len(snapshots[0]) != 1 || snapshots[0][0].Name != "Mall A" {
		t.Errorf("late subscriber snapshot = %v, want current state", names(snapshots[0]))
	}
}

func TestNotificationOrderFollowsRegistration(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	var order []string
	l.Subscribe(func([]domain.Place) { order = append(order, "first") })
	l.Subscribe(func([]domain.Place) { order = append(order, "second") })
	l.Subscribe(func([]domain.Place) { order = append(order, "third") })
	order = order[:0] // drop the subscribe replays

	l.Add(domain.PlaceInput{Name: "Mall A"})

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("notified %v subscribers, want %v", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("notification order = %v, want %v", order, want)
		}
	}
}

func TestSubscriberPanicIsIsolated(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	var healthy atomic.Int32
	l.Subscribe(func([]domain.Place) { panic("subscriber bug") })
	l.Subscribe(func([]domain.Place) { healthy.Add(1) })
	base := healthy.Load()

	l.Add(domain.PlaceInput{Name: "Mall A"})
	l.Add(domain.PlaceInput{Name: "Mall B"})

	if got := healthy.Load(); got != base+2 {
		t.Errorf("healthy subscriber notified %v times, want %v (panics must not stop the pass)", got, base+2)
	}
	if l.Count() != 2 {
		t.Errorf("Count() = %v, want 2 (panic must not abort the mutation)", l.Count())
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	var notifications atomic.Int32
	unsub := l.Subscribe(func([]domain.Place) { notifications.Add(1) })
	base := notifications.Load()

	unsub()
	unsub() // second call is a no-op

	l.Add(domain.PlaceInput{Name: "Mall A"})

	if notifications.Load() != base {
		t.Errorf("unsubscribed callback still invoked")
	}
}

func TestUnsubscribeLeavesOthersIntact(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	var a, b atomic.Int32
	unsubA := l.Subscribe(func([]domain.Place) { a.Add(1) })
	l.Subscribe(func([]domain.Place) { b.Add(1) })
	baseB := b.Load()

	unsubA()
	l.Add(domain.PlaceInput{Name: "Mall A"})

	if b.Load() != baseB+1 {
		t.Errorf("remaining subscriber notified %v times, want %v", b.Load()-baseB, 1)
	}
	if a.Load() != 1 { // only the subscribe replay
		t.Errorf("unsubscribed callback invoked %v times, want 1", a.Load())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})
	l.Add(domain.PlaceInput{Name: "Mall A"})

	snap := l.Snapshot()
	snap[0].Name = "Tampered"

	if l.Snapshot()[0].Name != "Mall A" {
		t.Error("mutating a snapshot must not affect the list")
	}
}

func TestSnapshotEmptyIsNotNil(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{})

	if l.Snapshot() == nil {
		t.Error("Snapshot() of an empty list should be an empty slice, not nil")
	}
}

func TestConcurrentMutations(t *testing.T) {
	l := initTestList(t, newTrackingAdapter(), Options{Cap: 50})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Add(domain.PlaceInput{Name: fmt.Sprintf("g%d-%d", n, j)})
				_ = l.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if got := l.Count(); got > 50 {
		t.Errorf("Count() = %v, must never exceed cap 50", got)
	}
}

func TestNewHistoryGeneratesDistinctIDs(t *testing.T) {
	l := New(newTrackingAdapter(), logger.Nop(), Options{Name: "history", Debounce: testDebounce})
	l.Initialize(context.Background())
	<-l.Ready()

	a := l.Add(domain.PlaceInput{Name: "Mall A"})
	b := l.Add(domain.PlaceInput{Name: "Mall B"})

	if a.ID == b.ID {
		t.Errorf("history IDs collide: %q", a.ID)
	}
}
