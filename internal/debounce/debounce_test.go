package debounce

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestScheduler_FiresAtDeadline(t *testing.T) {
	s := NewScheduler(epoch)
	key := Key{Actor: "right", Purpose: "buffer"}

	calls := 0
	s.Start(key, 250*time.Millisecond, func() { calls++ })

	if n := s.Advance(epoch.Add(100 * time.Millisecond)); n != 0 {
		t.Errorf("Advance(100ms) fired %d, want 0", n)
	}
	if !s.Pending(key) {
		t.Error("expected timer to be pending")
	}

	if n := s.Advance(epoch.Add(250 * time.Millisecond)); n != 1 {
		t.Errorf("Advance(250ms) fired %d, want 1", n)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if s.Pending(key) {
		t.Error("expected timer to be gone after firing")
	}

	s.Advance(epoch.Add(time.Second))
	if calls != 1 {
		t.Errorf("calls after second Advance = %d, want 1", calls)
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler(epoch)
	key := Key{Actor: "left", Purpose: "delay-clear"}

	fired := false
	s.Start(key, 100*time.Millisecond, func() { fired = true })

	if !s.Cancel(key) {
		t.Error("Cancel() = false, want true")
	}
	if s.Cancel(key) {
		t.Error("second Cancel() = true, want false")
	}

	s.Advance(epoch.Add(time.Second))
	if fired {
		t.Error("cancelled timer fired")
	}
}

func TestScheduler_StartReplaces(t *testing.T) {
	s := NewScheduler(epoch)
	key := Key{Actor: "right", Purpose: "buffer"}

	var got []string
	s.Start(key, 100*time.Millisecond, func() { got = append(got, "first") })
	s.Start(key, 300*time.Millisecond, func() { got = append(got, "second") })

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	s.Advance(epoch.Add(200 * time.Millisecond))
	if len(got) != 0 {
		t.Errorf("replaced timer fired: %v", got)
	}

	s.Advance(epoch.Add(300 * time.Millisecond))
	if len(got) != 1 || got[0] != "second" {
		t.Errorf("fired = %v, want [second]", got)
	}
}

func TestScheduler_DeadlineOrder(t *testing.T) {
	s := NewScheduler(epoch)

	var got []string
	s.Start(Key{"a", "late"}, 300*time.Millisecond, func() { got = append(got, "late") })
	s.Start(Key{"a", "early"}, 100*time.Millisecond, func() { got = append(got, "early") })
	s.Start(Key{"b", "tie"}, 100*time.Millisecond, func() { got = append(got, "tie") })

	if n := s.Advance(epoch.Add(time.Second)); n != 3 {
		t.Fatalf("Advance() fired %d, want 3", n)
	}

	want := []string{"early", "tie", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScheduler_CallbackCanCancelOthers(t *testing.T) {
	s := NewScheduler(epoch)
	other := Key{"right", "delay-clear"}

	otherFired := false
	s.Start(Key{"right", "buffer"}, 100*time.Millisecond, func() { s.Cancel(other) })
	s.Start(other, 200*time.Millisecond, func() { otherFired = true })

	s.Advance(epoch.Add(time.Second))
	if otherFired {
		t.Error("timer cancelled by an earlier callback still fired")
	}
}

func TestScheduler_CallbackStartWaitsForNextAdvance(t *testing.T) {
	s := NewScheduler(epoch)
	key := Key{"right", "again"}

	calls := 0
	var rearm func()
	rearm = func() {
		calls++
		s.Start(key, 0, rearm)
	}
	s.Start(key, 0, rearm)

	if n := s.Advance(epoch); n != 1 {
		t.Errorf("Advance() fired %d, want 1", n)
	}
	if !s.Pending(key) {
		t.Error("expected rearmed timer to be pending")
	}
	s.Advance(epoch)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestScheduler_CancelActor(t *testing.T) {
	s := NewScheduler(epoch)

	s.Start(Key{"left", "buffer"}, time.Second, func() {})
	s.Start(Key{"left", "delay-clear"}, time.Second, func() {})
	s.Start(Key{"right", "buffer"}, time.Second, func() {})

	if n := s.CancelActor("left"); n != 2 {
		t.Errorf("CancelActor() = %d, want 2", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if !s.Pending(Key{"right", "buffer"}) {
		t.Error("other actor's timer was cancelled")
	}
}

func TestScheduler_ClockNeverMovesBackwards(t *testing.T) {
	s := NewScheduler(epoch)
	s.Advance(epoch.Add(time.Second))
	s.Advance(epoch)

	if !s.Now().Equal(epoch.Add(time.Second)) {
		t.Errorf("Now() = %v, want %v", s.Now(), epoch.Add(time.Second))
	}

	s.Start(Key{"x", "y"}, 50*time.Millisecond, func() {})
	d, ok := s.Deadline(Key{"x", "y"})
	if !ok || !d.Equal(epoch.Add(1050*time.Millisecond)) {
		t.Errorf("Deadline() = %v, %v", d, ok)
	}
}
