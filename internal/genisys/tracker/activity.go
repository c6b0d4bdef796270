// Package tracker holds the two small per-station tables the executor
// owns by exclusive reference (§3 Ownership/lifecycle): when a station
// was last heard from, and what was last sent to it.
package tracker

import (
	"sync"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
)

// Activity records the monotonic tick of the last semantic receipt per
// station. The executor consults it when a timeout fires to decide
// whether the timeout is stale (§4.6).
type Activity struct {
	mu   sync.RWMutex
	last map[genisys.Station]clock.Tick
}

func NewActivity() *Activity {
	return &Activity{last: make(map[genisys.Station]clock.Tick)}
}

func (a *Activity) Record(station genisys.Station, tick clock.Tick) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[station] = tick
}

// LastReceipt reports the last recorded tick for station, if any.
func (a *Activity) LastReceipt(station genisys.Station) (clock.Tick, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	tick, ok := a.last[station]
	return tick, ok
}
