package layout

// Fitter recomputes its column widths.
type Fitter interface {
	FitColumns()
}

// FitScheduler coalesces fit requests until the next event loop tick. It is
// owned by whatever runs the loop and is not safe for concurrent use.
type FitScheduler struct {
	dirty   []Fitter
	seen    map[Fitter]struct{}
	pending bool
}

// NewFitScheduler creates an idle scheduler.
func NewFitScheduler() *FitScheduler {
	return &FitScheduler{seen: map[Fitter]struct{}{}}
}

// Request marks f dirty. It returns true when the caller must arrange a
// Flush on the next tick, which happens only for the first request since
// the previous flush.
func (s *FitScheduler) Request(f Fitter) bool {
	if f == nil {
		return false
	}
	if _, ok := s.seen[f]; !ok {
		s.seen[f] = struct{}{}
		s.dirty = append(s.dirty, f)
	}
	if s.pending {
		return false
	}
	s.pending = true
	return true
}

// Pending reports whether a flush is outstanding.
func (s *FitScheduler) Pending() bool {
	return s.pending
}

// Flush fits each dirty target once, in request order, and returns how many ran.
func (s *FitScheduler) Flush() int {
	dirty := s.dirty
	s.dirty = nil
	s.seen = map[Fitter]struct{}{}
	s.pending = false
	for _, f := range dirty {
		f.FitColumns()
	}
	return len(dirty)
}
