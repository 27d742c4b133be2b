package storage

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

func TestMemRegisterIdempotent(t *testing.T) {
	t.Parallel()
	st := newMemStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.Register(ctx, 42); err != nil {
			t.Fatalf("Register error: %v", err)
		}
	}

	ids, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("directory = %v, want [42]", ids)
	}
}

func TestMemConcurrentRegister(t *testing.T) {
	t.Parallel()
	st := newMemStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = st.Register(ctx, id)
		}(int64(i % 10))
	}
	wg.Wait()

	ids, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(ids) != 10 {
		t.Fatalf("directory size = %d, want 10", len(ids))
	}
}

func TestSQLiteRoundtrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "subs.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, id := range []int64{42, 99, 42} {
		if err := st.Register(ctx, id); err != nil {
			t.Fatalf("Register(%d) error: %v", id, err)
		}
	}

	ids, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	want := []int64{42, 99}
	if len(ids) != len(want) {
		t.Fatalf("directory = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("directory = %v, want %v", ids, want)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
