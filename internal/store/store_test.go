package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/dice"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/game"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/scoring"
)

func sampleState(t *testing.T) game.State {
	t.Helper()
	eng := game.NewEngine(dice.NewSeededSource(1))
	s := eng.Start()
	s, err := eng.SetDieLock(s, 1, true)
	if err != nil {
		t.Fatalf("SetDieLock: %v", err)
	}
	card, err := s.Scorecard.Record(scoring.Chance, 17)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	s.Scorecard = card
	return s
}

// exerciseStore runs the same contract checks against any Store.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	s := sampleState(t)

	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before Save error = %v, want %v", err, ErrNotFound)
	}
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("Get mismatch (-want +got):\n%s", diff)
	}

	got.RollCount = 3
	again, _ := st.Get(ctx, s.ID)
	if again.RollCount != s.RollCount {
		t.Fatal("changing a returned state altered the stored one")
	}

	if err := st.Save(ctx, game.State{}); err == nil {
		t.Fatal("expected Save without ID to fail")
	}
	if err := st.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete error = %v, want %v", err, ErrNotFound)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

// TestRedisStore needs a reachable Redis; it is skipped unless REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable at %s: %v", addr, err)
	}
	exerciseStore(t, NewRedisStore(client, time.Minute))
}
