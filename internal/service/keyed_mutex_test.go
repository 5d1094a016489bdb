package service

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex()

	const goroutines = 20
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("exam-1")
			defer km.Unlock("exam-1")
			counter++
		}()
	}
	wg.Wait()

	if counter != goroutines {
		t.Errorf("counter = %d, want %d", counter, goroutines)
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.locks) != 0 {
		t.Errorf("%d keys leaked after all unlocks", len(km.locks))
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	km.Lock("exam-1")
	defer km.Unlock("exam-1")

	// A different key must not block behind exam-1.
	done := make(chan struct{})
	go func() {
		km.Lock("exam-2")
		km.Unlock("exam-2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutexUnpairedUnlockPanics(t *testing.T) {
	km := newKeyedMutex()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unpaired unlock")
		}
	}()
	km.Unlock("never-locked")
}
