package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/observability"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	// Miss before any write
	_, hit, err := c.Get(ctx, "solve:abc")
	if err != nil || hit {
		t.Fatalf("expected clean miss, got hit=%v err=%v", hit, err)
	}

	// Roundtrip
	want := []byte(`{"font_size_px":22,"line_spacing":0.45}`)
	if err := c.Set(ctx, "solve:abc", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "solve:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit || string(got) != string(want) {
		t.Errorf("Get = %q hit=%v, want stored value", got, hit)
	}

	// Expired entries are treated as misses
	if err := c.Set(ctx, "solve:old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "solve:old"); hit {
		t.Error("expired entry should be a miss")
	}

	// Delete removes the entry; deleting again is not an error
	if err := c.Delete(ctx, "solve:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "solve:abc"); hit {
		t.Error("deleted entry should be a miss")
	}
	if err := c.Delete(ctx, "solve:abc"); err != nil {
		t.Errorf("deleting a missing key should not error: %v", err)
	}
}

func TestDigest(t *testing.T) {
	// Deterministic
	h1 := digest([]byte("hello"))
	if h1 != digest([]byte("hello")) {
		t.Error("digest should be deterministic")
	}

	// Different inputs produce different digests
	if h1 == digest([]byte("world")) {
		t.Error("different inputs should produce different digests")
	}

	// Full SHA-256 is 64 hex chars
	if len(h1) != 64 {
		t.Errorf("digest length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := SolveKeyOpts{
		Profile:  layout.ContentProfile{ItemCount: 40, GroupCount: 4},
		Geometry: oracle.DefaultGeometry(),
		Ranges:   layout.DefaultRanges(),
		Initial:  layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 2},
	}

	// Deterministic and prefixed
	k1 := k.SolveKey(base)
	if k1 != k.SolveKey(base) {
		t.Error("SolveKey should be deterministic")
	}
	if k1[:6] != "solve:" {
		t.Errorf("SolveKey should carry the solve: prefix: %s", k1)
	}

	// Every input field participates in the key
	variants := []SolveKeyOpts{base, base, base, base}
	variants[0].Profile.ItemCount = 41
	variants[1].Geometry.HeightPx = 900
	variants[2].Ranges.MaxIterations = 10
	variants[3].Initial.Columns = 3
	for i, v := range variants {
		if k.SolveKey(v) == k1 {
			t.Errorf("variant %d should produce a different key", i)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "doc:123:")

	opts := SolveKeyOpts{
		Profile: layout.ContentProfile{ItemCount: 10},
		Ranges:  layout.DefaultRanges(),
		Initial: layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 1},
	}

	key := scoped.SolveKey(opts)
	if key[:8] != "doc:123:" {
		t.Errorf("ScopedKeyer SolveKey should be prefixed: %s", key)
	}
	if key != "doc:123:"+inner.SolveKey(opts) {
		t.Errorf("ScopedKeyer should delegate to the inner keyer: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.SolveKey(SolveKeyOpts{})
	if key[:13] != "prefix:solve:" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingCacheHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestInstrumentedCache(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	wrapped := Instrument(c)
	defer wrapped.Close()

	wrapped.Get(ctx, "solve:x")
	wrapped.Set(ctx, "solve:x", []byte("v"), time.Hour)
	wrapped.Get(ctx, "solve:x")

	if hooks.misses != 1 || hooks.sets != 1 || hooks.hits != 1 {
		t.Errorf("hooks = %d hits / %d misses / %d sets, want 1/1/1",
			hooks.hits, hooks.misses, hooks.sets)
	}
}

func TestInstrumentNilInner(t *testing.T) {
	c := Instrument(nil)
	if _, hit, err := c.Get(context.Background(), "k"); hit || err != nil {
		t.Error("Instrument(nil) should behave like a null cache")
	}
}

func TestKeyType(t *testing.T) {
	if got := keyType("solve:abcdef"); got != "solve" {
		t.Errorf("keyType = %q, want solve", got)
	}
	if got := keyType("noprefix"); got != "noprefix" {
		t.Errorf("keyType = %q, want the whole key", got)
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(errors.New("corrupt entry")) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	fatal := errors.New("corrupt entry")
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return fatal
	})
	if err != fatal {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}

	// Exhausted attempts surface the last error
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Should surface the last error: %v", err)
	}
	if calls != 3 {
		t.Errorf("Should stop after the attempt budget: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRedisTransientClassification(t *testing.T) {
	// Backend failures become retryable and carry ErrNetwork
	err := transient(errors.New("dial tcp: connection refused"))
	if !IsRetryable(err) {
		t.Error("backend failures should be retryable")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("backend failures should wrap ErrNetwork: %v", err)
	}

	// Cancellation is never retried
	if IsRetryable(transient(context.Canceled)) {
		t.Error("context cancellation should not be retryable")
	}
	if IsRetryable(transient(context.DeadlineExceeded)) {
		t.Error("context deadline should not be retryable")
	}
}
