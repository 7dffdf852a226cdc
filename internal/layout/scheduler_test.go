package layout

import "testing"

type countingFitter struct {
	fits int
}

func (c *countingFitter) FitColumns() {
	c.fits++
}

// TestFitSchedulerCoalesces verifies one flush per tick and one fit per target.
func TestFitSchedulerCoalesces(t *testing.T) {
	s := NewFitScheduler()
	a, b := &countingFitter{}, &countingFitter{}

	if !s.Request(a) {
		t.Fatalf("expected first request to ask for a flush")
	}
	if s.Request(a) || s.Request(b) {
		t.Fatalf("expected later requests to piggyback on the pending flush")
	}
	if !s.Pending() {
		t.Fatalf("expected a pending flush")
	}
	if got := s.Flush(); got != 2 {
		t.Fatalf("expected 2 fits, got %d", got)
	}
	if a.fits != 1 || b.fits != 1 {
		t.Fatalf("expected each fitter once, got a=%d b=%d", a.fits, b.fits)
	}
	if s.Pending() || s.Flush() != 0 {
		t.Fatalf("expected idle scheduler after flush")
	}
	if !s.Request(b) {
		t.Fatalf("expected a new flush after the previous one resolved")
	}
}
