package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func alert(uid int) Alert {
	return Alert{UID: uid, Hotkey: "hk", Block: uint64(100 + uid)}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, alert(1)); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue()
	if got.UID != 1 {
		t.Errorf("expected uid 1, got %d", got.UID)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for uid := 0; uid < 2; uid++ {
		if err := q.Enqueue(ctx, alert(uid)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	if err := q.Enqueue(ctx, alert(2)); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_PreservesOrder(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()

	for uid := 0; uid < 10; uid++ {
		if err := q.Enqueue(ctx, alert(uid)); err != nil {
			t.Fatalf("enqueue %d: %v", uid, err)
		}
	}
	_ = q.Close()

	want := 0
	for a := range q.Dequeue() {
		if a.UID != want {
			t.Fatalf("expected uid %d, got %d", want, a.UID)
		}
		want++
	}
	if want != 10 {
		t.Errorf("expected 10 alerts, got %d", want)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()
	numGoroutines := 10
	numAlerts := 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numAlerts; j++ {
				if err := q.Enqueue(ctx, alert(id*numAlerts+j)); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	_ = q.Close()

	seen := make(map[int]bool)
	for a := range q.Dequeue() {
		seen[a.UID] = true
	}
	if len(seen) != numGoroutines*numAlerts {
		t.Errorf("expected %d distinct alerts, got %d", numGoroutines*numAlerts, len(seen))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, alert(1)); err != nil {
		t.Fatal(err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if err := q.Enqueue(ctx, alert(2)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after closing, got %v", err)
	}

	// Pending alerts survive the close.
	a, ok := <-q.Dequeue()
	if !ok || a.UID != 1 {
		t.Errorf("expected pending alert 1, got %v (ok=%v)", a.UID, ok)
	}
	if _, ok := <-q.Dequeue(); ok {
		t.Error("expected dequeue channel to be closed once drained")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
