package usecase

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("acc-1")
			counter++
			km.Unlock("acc-1")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("counter = %d, want 100", counter)
	}
}

func TestKeyedMutex_IndependentKeysDoNotBlock(t *testing.T) {
	km := newKeyedMutex()

	km.Lock("acc-1")
	defer km.Unlock("acc-1")

	done := make(chan struct{})
	go func() {
		km.Lock("acc-2")
		km.Unlock("acc-2")
		close(done)
	}()

	<-done
}

func TestKeyedMutex_DropsUnreferencedKeys(t *testing.T) {
	km := newKeyedMutex()

	km.Lock("acc-1")
	km.Unlock("acc-1")

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.locks) != 0 {
		t.Fatalf("expected key map drained, got %d entries", len(km.locks))
	}
}

func TestKeyedMutex_LockAll(t *testing.T) {
	km := newKeyedMutex()

	keys := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.LockAll(keys)
			counter++
			km.UnlockAll(keys)
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}
