package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestArm_FiresOnce(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Int32
	s.Arm(1, 10*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}
}

func TestArm_SupersedesPriorTimer(t *testing.T) {
	s := New()
	defer s.Stop()

	var firstFired, secondFired atomic.Bool
	s.Arm(1, 5*time.Millisecond, func() { firstFired.Store(true) })
	s.Arm(1, 30*time.Millisecond, func() { secondFired.Store(true) })

	time.Sleep(60 * time.Millisecond)
	if firstFired.Load() {
		t.Fatalf("superseded timer must not fire")
	}
	if !secondFired.Load() {
		t.Fatalf("replacement timer should have fired")
	}
}

func TestCancel_PreventsFire(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Bool
	s.Arm(1, 10*time.Millisecond, func() { fired.Store(true) })
	s.Cancel(1)

	time.Sleep(40 * time.Millisecond)
	if fired.Load() {
		t.Fatalf("cancelled timer must not fire")
	}
}

func TestCancelAll_StopsEveryStation(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Int32
	s.Arm(1, 10*time.Millisecond, func() { fired.Add(1) })
	s.Arm(2, 10*time.Millisecond, func() { fired.Add(1) })
	s.CancelAll()

	time.Sleep(40 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("fired = %d, want 0", fired.Load())
	}
}
