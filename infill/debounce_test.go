package infill

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerExplicitRunsImmediately(t *testing.T) {
	d := NewDebouncer(time.Hour)
	ran := make(chan struct{})
	d.Trigger(true, func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("explicit trigger did not run")
	}
}

func TestDebouncerCoalescesAutomaticTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var fired atomic.Int32

	for i := 0; i < 5; i++ {
		d.Trigger(false, func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired = %d, want 1", got)
	}
}

func TestDebouncerExplicitCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var auto, explicit atomic.Int32

	d.Trigger(false, func() { auto.Add(1) })
	d.Trigger(true, func() { explicit.Add(1) })

	time.Sleep(150 * time.Millisecond)
	if auto.Load() != 0 {
		t.Error("superseded automatic trigger still fired")
	}
	if explicit.Load() != 1 {
		t.Error("explicit trigger did not fire")
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var fired atomic.Int32

	d.Trigger(false, func() { fired.Add(1) })
	d.Cancel()

	time.Sleep(150 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("fired = %d after Cancel, want 0", fired.Load())
	}
}
