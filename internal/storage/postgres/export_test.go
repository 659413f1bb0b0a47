package postgres

import "time"

// SetClock replaces the ring's clock.
func (n *NewsRing) SetClock(now func() time.Time) { n.now = now }
