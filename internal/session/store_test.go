package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T, opts ...Option) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, opts...), mr
}

func implementations(t *testing.T) map[string]Store {
	rs, _ := newRedis(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestRoleAndMenuDefaults(t *testing.T) {
	ctx := context.Background()
	for name, s := range implementations(t) {
		role, err := s.Role(ctx, 1)
		if err != nil || role != RoleUnset {
			t.Fatalf("%s: default role = %q, %v", name, role, err)
		}
		if err := s.SetRole(ctx, 1, RoleClient); err != nil {
			t.Fatalf("%s: set role: %v", name, err)
		}
		if err := s.SetMenu(ctx, 1, "client"); err != nil {
			t.Fatalf("%s: set menu: %v", name, err)
		}
		role, _ = s.Role(ctx, 1)
		menu, _ := s.Menu(ctx, 1)
		if role != RoleClient || menu != "client" {
			t.Fatalf("%s: got role %q menu %q", name, role, menu)
		}
		if other, _ := s.Role(ctx, 2); other != RoleUnset {
			t.Fatalf("%s: role leaked to another chat: %q", name, other)
		}
	}
}

func TestTakePendingConsumesOnce(t *testing.T) {
	ctx := context.Background()
	for name, s := range implementations(t) {
		if err := s.SetPending(ctx, 7, Pending{Tag: TagReviewText, Rating: 4}); err != nil {
			t.Fatalf("%s: set pending: %v", name, err)
		}
		p, ok, err := s.TakePending(ctx, 7)
		if err != nil || !ok || p.Tag != TagReviewText || p.Rating != 4 || p.SetAt.IsZero() {
			t.Fatalf("%s: first take = %+v %v %v", name, p, ok, err)
		}
		if _, ok, _ := s.TakePending(ctx, 7); ok {
			t.Fatalf("%s: pending consumed twice", name)
		}
	}
}

func TestClearPending(t *testing.T) {
	ctx := context.Background()
	for name, s := range implementations(t) {
		_ = s.SetPending(ctx, 3, Pending{Tag: TagMasterSecret})
		if err := s.ClearPending(ctx, 3); err != nil {
			t.Fatalf("%s: clear: %v", name, err)
		}
		if _, ok, _ := s.TakePending(ctx, 3); ok {
			t.Fatalf("%s: pending survived clear", name)
		}
	}
}

func TestConcurrentTakeYieldsOneWinner(t *testing.T) {
	ctx := context.Background()
	for name, s := range implementations(t) {
		_ = s.SetPending(ctx, 11, Pending{Tag: TagUploadPrice})
		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, ok, err := s.TakePending(ctx, 11); err == nil && ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Fatalf("%s: %d takers won, want 1", name, wins)
		}
	}
}

func TestMemoryPendingTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithPendingTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()
	_ = s.SetPending(ctx, 1, Pending{Tag: TagReviewText, Rating: 5})
	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.TakePending(ctx, 1); ok {
		t.Fatalf("expired pending returned")
	}
}

func TestRedisPendingTTL(t *testing.T) {
	s, mr := newRedis(t, WithPendingTTL(time.Minute))
	ctx := context.Background()
	_ = s.SetPending(ctx, 1, Pending{Tag: TagUploadAvailability})
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.TakePending(ctx, 1); ok {
		t.Fatalf("expired pending returned")
	}
}

func TestRedisKeyPrefix(t *testing.T) {
	s, mr := newRedis(t, WithKeyPrefix("test"))
	ctx := context.Background()
	_ = s.SetRole(ctx, 5, RoleMaster)
	if got := mr.HGet("test:chat:5", "role"); got != "master" {
		t.Fatalf("hash field = %q", got)
	}
}
