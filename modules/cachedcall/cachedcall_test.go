package cachedcall_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sWski/plugin.audio.play.cz/common"
	"github.com/sWski/plugin.audio.play.cz/common/model"
	"github.com/sWski/plugin.audio.play.cz/modules/cachedcall"
)

type mockCache struct {
	mu    sync.Mutex
	store map[string][]byte
	sets  int
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (c *mockCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.store[key]
	return val, ok
}
func (c *mockCache) Set(key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.store[key] = value
}
func (c *mockCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

// countingGenres stands in for the network: it counts invocations.
type countingGenres struct {
	calls  int
	err    error
	genres []model.Genre
}

func (g *countingGenres) fetch(context.Context) ([]model.Genre, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.genres, nil
}

func TestCall_HitWithinTTL(t *testing.T) {
	api := &countingGenres{genres: []model.Genre{{ID: "1", Title: "Pop"}}}
	caller := cachedcall.New(newMockCache())
	ctx := context.Background()

	first, err := cachedcall.Call(ctx, caller, "getStyles", api.fetch, cachedcall.TTLWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cachedcall.Call(ctx, caller, "getStyles", api.fetch, cachedcall.TTLWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if api.calls != 1 {
		t.Errorf("expected 1 network call, got %d", api.calls)
	}
	if len(second) != 1 || second[0] != first[0] {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}
}

func TestCall_ExpiryRefreshes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	api := &countingGenres{genres: []model.Genre{{ID: "1", Title: "Pop"}}}
	caller := cachedcall.New(newMockCache(), cachedcall.WithClock(clock.Now))
	ctx := context.Background()

	if _, err := cachedcall.Call(ctx, caller, "getTopRadios", api.fetch, 5*time.Minute, true); err != nil {
		t.Fatal(err)
	}

	clock.now = clock.now.Add(4 * time.Minute)
	if _, err := cachedcall.Call(ctx, caller, "getTopRadios", api.fetch, 5*time.Minute, true); err != nil {
		t.Fatal(err)
	}
	if api.calls != 1 {
		t.Fatalf("expected cached value before TTL, got %d calls", api.calls)
	}

	clock.now = clock.now.Add(time.Minute)
	api.genres = []model.Genre{{ID: "2", Title: "Rock"}}
	got, err := cachedcall.Call(ctx, caller, "getTopRadios", api.fetch, 5*time.Minute, true)
	if err != nil {
		t.Fatal(err)
	}
	if api.calls != 2 {
		t.Errorf("expected exactly one more call after TTL, got %d calls", api.calls)
	}
	if got[0].ID != "2" {
		t.Errorf("expected refreshed value, got %v", got)
	}

	// the refreshed value is served again
	if _, err := cachedcall.Call(ctx, caller, "getTopRadios", api.fetch, 5*time.Minute, true); err != nil {
		t.Fatal(err)
	}
	if api.calls != 2 {
		t.Errorf("expected refreshed value to be cached, got %d calls", api.calls)
	}
}

func TestCall_FailureIsNotCached(t *testing.T) {
	cache := newMockCache()
	api := &countingGenres{err: &common.NetworkError{Message: "HTTP 502 Bad Gateway"}}
	caller := cachedcall.New(cache)
	ctx := context.Background()

	_, err := cachedcall.Call(ctx, caller, "getStyles", api.fetch, 0)
	var netErr *common.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if cache.sets != 0 {
		t.Errorf("failed call must not be stored, got %d sets", cache.sets)
	}

	api.err = nil
	api.genres = []model.Genre{{ID: "1", Title: "Pop"}}
	got, err := cachedcall.Call(ctx, caller, "getStyles", api.fetch, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.calls != 2 || len(got) != 1 {
		t.Errorf("expected retry on next call, got %d calls and %v", api.calls, got)
	}
}

func TestCall_ArgumentsSeparateEntries(t *testing.T) {
	caller := cachedcall.New(newMockCache())
	ctx := context.Background()
	calls := 0
	fetch := func(id string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			calls++
			return "streams of " + id, nil
		}
	}

	a, _ := cachedcall.Call(ctx, caller, "getAllStreams", fetch("a"), 0, "a")
	b, _ := cachedcall.Call(ctx, caller, "getAllStreams", fetch("b"), 0, "b")
	a2, _ := cachedcall.Call(ctx, caller, "getAllStreams", fetch("a"), 0, "a")

	if a != "streams of a" || b != "streams of b" || a2 != a {
		t.Errorf("unexpected results %q %q %q", a, b, a2)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCall_UnreadableEntryIsRecomputed(t *testing.T) {
	cache := newMockCache()
	caller := cachedcall.New(cache)
	cache.Set("playcz:"+cachedcall.Key("getStyles"), []byte("not json"), time.Hour)

	api := &countingGenres{genres: []model.Genre{{ID: "1", Title: "Pop"}}}
	got, err := cachedcall.Call(context.Background(), caller, "getStyles", api.fetch, 0)
	if err != nil {
		t.Fatal(err)
	}
	if api.calls != 1 || len(got) != 1 {
		t.Errorf("expected recompute, got %d calls and %v", api.calls, got)
	}
}

func TestCall_Invalidate(t *testing.T) {
	api := &countingGenres{genres: []model.Genre{{ID: "1", Title: "Pop"}}}
	caller := cachedcall.New(newMockCache())
	ctx := context.Background()

	_, _ = cachedcall.Call(ctx, caller, "getRegions", api.fetch, 0)
	caller.Invalidate("getRegions")
	_, _ = cachedcall.Call(ctx, caller, "getRegions", api.fetch, 0)

	if api.calls != 2 {
		t.Errorf("expected invalidate to force a call, got %d calls", api.calls)
	}
}

func TestCall_ConcurrentCallsShareOneFlight(t *testing.T) {
	caller := cachedcall.New(common.NewCacheStore())
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "pubpoint", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = cachedcall.Call(ctx, caller, "getStream", fetch, 0, "radio1", "mp3", "128")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 in-flight call, got %d", calls.Load())
	}
	for i, r := range results {
		if r != "pubpoint" {
			t.Errorf("result %d: got %q", i, r)
		}
	}
}

func TestCall_CancelledCallerDoesNotFailSharedFlight(t *testing.T) {
	caller := cachedcall.New(common.NewCacheStore())

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "http://icecast.play.cz/radio1.mp3", nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := cachedcall.Call(ctxA, caller, "getStream", fetch, 0, "radio1", "mp3", "128")
		errA <- err
	}()
	<-started

	type result struct {
		url string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		url, err := cachedcall.Call(context.Background(), caller, "getStream", fetch, 0, "radio1", "mp3", "128")
		resB <- result{url, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller: expected context.Canceled, got %v", err)
	}

	close(release)
	got := <-resB
	if got.err != nil {
		t.Fatalf("live caller: unexpected error %v", got.err)
	}
	if got.url != "http://icecast.play.cz/radio1.mp3" {
		t.Errorf("live caller: unexpected result %q", got.url)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 in-flight call, got %d", calls.Load())
	}

	// the shared result was stored despite the cancellation
	if _, err := cachedcall.Call(context.Background(), caller, "getStream", fetch, 0, "radio1", "mp3", "128"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected cached result, got %d calls", calls.Load())
	}
}

func TestCall_SurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	api := &countingGenres{genres: []model.Genre{{ID: "1", Title: "Pop"}}}

	disk, err := common.NewDiskStore(dir, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cachedcall.Call(ctx, cachedcall.New(disk), "getStyles", api.fetch, cachedcall.TTLWeek); err != nil {
		t.Fatal(err)
	}
	disk.Close()

	reopened, err := common.NewDiskStore(dir, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := cachedcall.Call(ctx, cachedcall.New(reopened), "getStyles", api.fetch, cachedcall.TTLWeek)
	if err != nil {
		t.Fatal(err)
	}
	if api.calls != 1 || len(got) != 1 || got[0].Title != "Pop" {
		t.Errorf("expected persisted hit, got %d calls and %v", api.calls, got)
	}
}

func TestKey(t *testing.T) {
	if cachedcall.Key("getRadios", "rock", "", false) != cachedcall.Key("getRadios", "rock", "", false) {
		t.Error("key must be deterministic")
	}
	if cachedcall.Key("getRadios", "rock", "7") == cachedcall.Key("getRadios", "7", "rock") {
		t.Error("key must be order sensitive")
	}
	if cachedcall.Key("getRadios", "x") == cachedcall.Key("getStyles", "x") {
		t.Error("key must depend on the operation")
	}
	if got := cachedcall.Key("getStream", "radio1", "mp3", "128"); got != `getStream:["radio1","mp3","128"]` {
		t.Errorf("unexpected key %s", got)
	}
	if got := cachedcall.Key("getStyles"); got != "getStyles:[]" {
		t.Errorf("unexpected key %s", got)
	}
}
