package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// countingRepository is an in-memory Repository that counts reads.
type countingRepository struct {
	current MonitoringSettings
	gets    int
	err     error
}

func (r *countingRepository) Get(context.Context) (MonitoringSettings, error) {
	r.gets++
	if r.err != nil {
		return MonitoringSettings{}, r.err
	}
	return r.current, nil
}

func (r *countingRepository) Update(_ context.Context, s MonitoringSettings) (MonitoringSettings, error) {
	if err := s.Validate(); err != nil {
		return MonitoringSettings{}, err
	}
	r.current = s
	return s, nil
}

func (r *countingRepository) Bootstrap(context.Context) error { return nil }

func setupCache(t *testing.T) (*miniredis.Miniredis, *countingRepository, *CachedRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	inner := &countingRepository{current: Defaults()}
	return mr, inner, NewCachedRepository(inner, rdb, time.Minute, nil)
}

func TestCachedRepository_GetCaches(t *testing.T) {
	mr, inner, cached := setupCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := cached.Get(ctx)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if s.UnlockDurationSeconds != 5 {
			t.Errorf("Get() = %+v", s)
		}
	}
	if inner.gets != 1 {
		t.Errorf("inner Get() calls = %d, want 1", inner.gets)
	}
	if !mr.Exists(CacheKey) {
		t.Error("snapshot not stored in redis")
	}
	if ttl := mr.TTL(CacheKey); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
}

func TestCachedRepository_UpdateInvalidates(t *testing.T) {
	_, inner, cached := setupCache(t)
	ctx := context.Background()

	if _, err := cached.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	s := Defaults()
	s.UnlockDurationSeconds = 12
	if _, err := cached.Update(ctx, s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := cached.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UnlockDurationSeconds != 12 {
		t.Errorf("stale snapshot after Update(): unlock = %d", got.UnlockDurationSeconds)
	}
	if inner.gets != 2 {
		t.Errorf("inner Get() calls = %d, want 2", inner.gets)
	}
}

func TestCachedRepository_UpdateErrorKeepsCache(t *testing.T) {
	mr, _, cached := setupCache(t)
	ctx := context.Background()

	if _, err := cached.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	bad := Defaults()
	bad.TempMin = 99
	if _, err := cached.Update(ctx, bad); err == nil {
		t.Fatal("Update() error = nil for invalid settings")
	}
	if !mr.Exists(CacheKey) {
		t.Error("failed Update() invalidated the cache")
	}
}

func TestCachedRepository_CorruptEntry(t *testing.T) {
	mr, inner, cached := setupCache(t)

	if err := mr.Set(CacheKey, "{not json"); err != nil {
		t.Fatalf("mr.Set() error = %v", err)
	}
	s, err := cached.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.TempMax != 28 || inner.gets != 1 {
		t.Errorf("Get() = %+v, inner gets = %d", s, inner.gets)
	}

	raw, err := mr.Get(CacheKey)
	if err != nil {
		t.Fatalf("mr.Get() error = %v", err)
	}
	var decoded MonitoringSettings
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Errorf("corrupt entry was not replaced: %v", err)
	}
}

func TestCachedRepository_RedisDown(t *testing.T) {
	mr, inner, cached := setupCache(t)
	mr.Close()

	s, err := cached.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() with redis down error = %v", err)
	}
	if s.HumMin != 40 || inner.gets != 1 {
		t.Errorf("Get() = %+v, inner gets = %d", s, inner.gets)
	}
}

func TestCachedRepository_InnerError(t *testing.T) {
	_, inner, cached := setupCache(t)
	inner.err = errors.New("database is locked")

	if _, err := cached.Get(context.Background()); !errors.Is(err, inner.err) {
		t.Errorf("Get() error = %v, want inner error", err)
	}
}

// interleavingRepository runs afterGet once the row has been read, before
// the caller gets the result back.
type interleavingRepository struct {
	*countingRepository
	afterGet func()
}

func (r *interleavingRepository) Get(ctx context.Context) (MonitoringSettings, error) {
	s, err := r.countingRepository.Get(ctx)
	if hook := r.afterGet; hook != nil {
		r.afterGet = nil
		hook()
	}
	return s, err
}

func TestCachedRepository_UpdateDuringMissWins(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return rdb
	}
	ctx := context.Background()

	store := &countingRepository{current: Defaults()}
	writer := NewCachedRepository(store, newClient(), time.Minute, nil)
	inner := &interleavingRepository{countingRepository: store}
	reader := NewCachedRepository(inner, newClient(), time.Minute, nil)

	inner.afterGet = func() {
		s := Defaults()
		s.UnlockDurationSeconds = 42
		if _, err := writer.Update(ctx, s); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}

	first, err := reader.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first.UnlockDurationSeconds != 5 {
		t.Errorf("first Get() unlock = %d, want the row read before the Update", first.UnlockDurationSeconds)
	}
	if mr.Exists(CacheKey) {
		t.Error("snapshot loaded before the Update was cached")
	}

	got, err := reader.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UnlockDurationSeconds != 42 {
		t.Errorf("Get() after completed Update unlock = %d, want 42", got.UnlockDurationSeconds)
	}
	if cached, err := reader.Get(ctx); err != nil || cached.UnlockDurationSeconds != 42 {
		t.Errorf("cached Get() = %+v, %v", cached, err)
	}
}

func TestCachedRepository_UpdateBumpsGeneration(t *testing.T) {
	mr, _, cached := setupCache(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if _, err := cached.Update(ctx, Defaults()); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		gen, err := mr.Get(GenerationKey)
		if err != nil {
			t.Fatalf("mr.Get(generation) error = %v", err)
		}
		if want := strconv.Itoa(i); gen != want {
			t.Errorf("generation = %s, want %s", gen, want)
		}
	}
}
