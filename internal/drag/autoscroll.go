package drag

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultScrollInterval = 150 * time.Millisecond
	defaultScrollMargin   = 2
)

// autoScroller nudges the timeline viewport sideways while a drag
// hovers near its horizontal edges. It runs one goroutine per
// gesture, driven by a clock so tests control time.
type autoScroller struct {
	clk      clock.Clock
	interval time.Duration
	margin   int

	c *Controller

	mu   sync.Mutex
	done chan struct{}
}

// AutoScrollOption configures an autoScroller.
type AutoScrollOption func(*autoScroller)

// WithScrollClock swaps the wall clock, for tests.
func WithScrollClock(clk clock.Clock) AutoScrollOption {
	return func(s *autoScroller) {
		s.clk = clk
	}
}

// WithScrollInterval sets the tick period between edge nudges.
func WithScrollInterval(d time.Duration) AutoScrollOption {
	return func(s *autoScroller) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithScrollMargin sets how many columns from a viewport edge count
// as the scroll zone.
func WithScrollMargin(cols int) AutoScrollOption {
	return func(s *autoScroller) {
		if cols > 0 {
			s.margin = cols
		}
	}
}

// NewAutoScroller builds an edge scroller to pass to WithAutoScroll.
func NewAutoScroller(opts ...AutoScrollOption) *autoScroller {
	s := &autoScroller{
		clk:      clock.New(),
		interval: defaultScrollInterval,
		margin:   defaultScrollMargin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *autoScroller) bind(c *Controller) { s.c = c }

// start launches the ticker loop. Idempotent while running.
func (s *autoScroller) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	go s.loop(s.done)
}

// stop halts the ticker loop. Safe to call when not running.
func (s *autoScroller) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}
	close(s.done)
	s.done = nil
}

func (s *autoScroller) loop(done chan struct{}) {
	ticker := s.clk.Ticker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick scrolls one column toward whichever edge the pointer sits in,
// then re-resolves the drop target since the same pixel now maps to a
// different time.
func (s *autoScroller) tick() {
	sess := s.c.Session()
	if sess == nil {
		return
	}
	zone := s.c.viewport.EdgeZone(sess.Current.X, s.margin)
	if zone == 0 {
		return
	}
	s.c.viewport.ScrollBy(zone)
	s.c.resolve(sess.Current)
}
