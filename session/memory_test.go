package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStorePutGetRemove(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	rec := Record{Token: "tok-1", LastActivity: now, Aux: []byte("aux")}
	if err := store.Put(ctx, "alice", rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Token != "tok-1" || !got.LastActivity.Equal(now) || string(got.Aux) != "aux" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, ok, _ := store.Get(ctx, "bob"); ok {
		t.Fatal("expected no record for bob")
	}

	if err := store.Remove(ctx, "alice"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "alice"); ok {
		t.Fatal("expected record gone after remove")
	}

	// removing again is a no-op
	if err := store.Remove(ctx, "alice"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "alice", Record{Token: "old"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "alice", Record{Token: "new"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Token != "new" {
		t.Fatalf("token = %q, want %q", got.Token, "new")
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
}

func TestMemoryStoreTouch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	if err := store.Put(ctx, "alice", Record{Token: "tok", LastActivity: base}); err != nil {
		t.Fatalf("put: %v", err)
	}

	later := base.Add(time.Minute)
	if err := store.Touch(ctx, "alice", later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _, _ := store.Get(ctx, "alice")
	if !got.LastActivity.Equal(later) {
		t.Fatalf("last activity = %v, want %v", got.LastActivity, later)
	}

	// an older timestamp never rolls LastActivity back
	if err := store.Touch(ctx, "alice", base); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _, _ = store.Get(ctx, "alice")
	if !got.LastActivity.Equal(later) {
		t.Fatalf("last activity rolled back to %v", got.LastActivity)
	}
}

func TestMemoryStoreTouchMissingIsContractViolation(t *testing.T) {
	store := NewMemoryStore()

	err := store.Touch(context.Background(), "ghost", time.Now())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestMemoryStoreAuxIsCopied(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	aux := []byte("mutable")
	if err := store.Put(ctx, "alice", Record{Token: "tok", Aux: aux}); err != nil {
		t.Fatalf("put: %v", err)
	}
	aux[0] = 'X'

	got, _, _ := store.Get(ctx, "alice")
	if string(got.Aux) != "mutable" {
		t.Fatalf("stored aux aliased caller slice: %q", got.Aux)
	}

	got.Aux[0] = 'Y'
	again, _, _ := store.Get(ctx, "alice")
	if string(again.Aux) != "mutable" {
		t.Fatalf("returned aux aliased stored slice: %q", again.Aux)
	}
}

func TestMemoryStoreConcurrentSameUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	if err := store.Put(ctx, "alice", Record{Token: "tok", LastActivity: base}); err != nil {
		t.Fatalf("put: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(3)
		offset := time.Duration(i) * time.Millisecond
		go func() {
			defer wg.Done()
			_ = store.Touch(ctx, "alice", base.Add(offset))
		}()
		go func() {
			defer wg.Done()
			_, _, _ = store.Get(ctx, "alice")
		}()
		go func() {
			defer wg.Done()
			_ = store.Put(ctx, "alice", Record{Token: "tok", LastActivity: base})
		}()
	}
	wg.Wait()

	if _, ok, _ := store.Get(ctx, "alice"); !ok {
		t.Fatal("record lost under concurrent access")
	}
}

func TestMemoryStoreConcurrentDistinctUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		username := fmt.Sprintf("user-%d", i)
		go func() {
			defer wg.Done()
			if err := store.Put(ctx, username, Record{Token: username, LastActivity: time.Now()}); err != nil {
				t.Errorf("put %s: %v", username, err)
			}
			got, ok, err := store.Get(ctx, username)
			if err != nil || !ok || got.Token != username {
				t.Errorf("get %s: ok=%v err=%v token=%q", username, ok, err, got.Token)
			}
		}()
	}
	wg.Wait()

	if store.Len() != 64 {
		t.Fatalf("len = %d, want 64", store.Len())
	}
}
