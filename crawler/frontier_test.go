package crawler

import (
	"testing"
	"time"
)

func TestFrontierFIFO(t *testing.T) {
	f := NewFrontier()
	f.Push("a", 0)
	f.Push("b", 1)
	f.Push("c", 2)

	for i, want := range []string{"a", "b", "c"} {
		it, ok := f.Pop(time.Millisecond)
		if !ok {
			t.Fatalf("pop %d: empty", i)
		}
		if it.URL != want {
			t.Errorf("pop %d = %q, want %q", i, it.URL, want)
		}
		f.Done()
	}
}

func TestFrontierPopTimesOut(t *testing.T) {
	f := NewFrontier()
	start := time.Now()
	_, ok := f.Pop(50 * time.Millisecond)
	if ok {
		t.Fatal("pop on empty frontier succeeded")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("pop returned after %v, want ~50ms", elapsed)
	}
}

func TestFrontierPopWakesOnPush(t *testing.T) {
	f := NewFrontier()
	go func() {
		time.Sleep(20 * time.Millisecond)
		f.Push("late", 0)
	}()
	it, ok := f.Pop(2 * time.Second)
	if !ok || it.URL != "late" {
		t.Fatalf("pop = %+v, %v", it, ok)
	}
	f.Done()
}

func TestFrontierIdle(t *testing.T) {
	f := NewFrontier()
	if !f.Idle() {
		t.Error("new frontier should be idle")
	}
	f.Push("a", 0)
	if f.Idle() {
		t.Error("queued item: not idle")
	}
	if _, ok := f.Pop(time.Millisecond); !ok {
		t.Fatal("pop failed")
	}
	if f.Idle() {
		t.Error("in-flight item: not idle")
	}
	f.Done()
	if !f.Idle() {
		t.Error("drained frontier should be idle")
	}
}
