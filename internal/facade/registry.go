package facade

import (
	"sync"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/signal"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

// ControlIntentNotifier is the driver's setControls entry point
// (driver.Driver.SubmitControlIntentChanged), injected so Registry
// never imports the driver package.
type ControlIntentNotifier func(delta, full signal.Set)

// Option configures a Registry at construction.
type Option func(*Registry)

// WithControlIntentNotifier wires the registry's SetControls path to
// the driver. [DEFAULTS] A registry constructed without one only
// tracks state locally and never raises ControlIntentChanged — useful
// in tests.
func WithControlIntentNotifier(notify ControlIntentNotifier) Option {
	return func(r *Registry) { r.notify = notify }
}

// Registry is the external control/indication façade of §6: the
// application reads/writes through it, the core only ever sees it
// through the narrow ControlSupplier/IndicationApplier/StatusSetter
// interfaces it satisfies.
type Registry struct {
	mu          sync.RWMutex
	controls    map[genisys.Station]signal.Set
	indications map[genisys.Station]signal.Set
	notify      ControlIntentNotifier

	statusMu    sync.RWMutex
	status      state.Status
	subscribers []chan state.Status
}

// NewRegistry seeds an empty control/indication table for the given
// stations. The station set is fixed for the registry's lifetime,
// matching the core's "slave universe is fixed at construction" rule.
func NewRegistry(stations []genisys.Station, opts ...Option) *Registry {
	r := &Registry{
		controls:    make(map[genisys.Station]signal.Set, len(stations)),
		indications: make(map[genisys.Station]signal.Set, len(stations)),
	}
	for _, st := range stations {
		r.controls[st] = signal.Set{}
		r.indications[st] = signal.Set{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CurrentControls implements executor.ControlSupplier.
func (r *Registry) CurrentControls(station genisys.Station) signal.Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.controls[station]
}

// CurrentIndications is the application-facing read side; the core
// never calls this, only ApplyIndications writes to it.
func (r *Registry) CurrentIndications(station genisys.Station) signal.Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indications[station]
}

// ApplyIndications implements driver.IndicationApplier.
func (r *Registry) ApplyIndications(station genisys.Station, indications signal.Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indications[station] = indications
}

// SetControls is the application's write path for a station's
// materialized control set. It raises ControlIntentChanged via the
// injected notifier; per §4.4 the reducer marks every non-Failed slave
// pending regardless of which station's controls actually changed, so
// [FULL_SNAPSHOT] the delta/full carried on the event are the union
// across every station's control table, not just the one that changed
// here.
func (r *Registry) SetControls(station genisys.Station, next signal.Set) {
	r.mu.Lock()
	prev := r.controls[station]
	r.controls[station] = next
	full := r.unionControlsLocked()
	r.mu.Unlock()

	if r.notify == nil {
		return
	}
	r.notify(symmetricDifference(prev, next), full)
}

func (r *Registry) unionControlsLocked() signal.Set {
	var words []uint64
	for _, s := range r.controls {
		for i, w := range s.Words() {
			for len(words) <= i {
				words = append(words, 0)
			}
			words[i] |= w
		}
	}
	return signal.FromWords(words)
}

func symmetricDifference(a, b signal.Set) signal.Set {
	aw, bw := a.Words(), b.Words()
	n := len(aw)
	if len(bw) > n {
		n = len(bw)
	}
	words := make([]uint64, n)
	for i := 0; i < n; i++ {
		var wa, wb uint64
		if i < len(aw) {
			wa = aw[i]
		}
		if i < len(bw) {
			wb = bw[i]
		}
		words[i] = wa ^ wb
	}
	return signal.FromWords(words)
}

// SetStatus implements driver.StatusSetter: records the latest
// Status and fans it out to every subscriber's channel. [NON_BLOCKING_FANOUT]
// a slow subscriber misses intermediate updates rather than stalling
// the driver.
func (r *Registry) SetStatus(s state.Status) {
	r.statusMu.Lock()
	r.status = s
	subs := append([]chan state.Status(nil), r.subscribers...)
	r.statusMu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Status returns the most recently published Status.
func (r *Registry) Status() state.Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

// Subscribe registers a channel that receives every future Status
// publication (used by the ops server's websocket push). The returned
// func unsubscribes.
func (r *Registry) Subscribe(ch chan state.Status) (unsubscribe func()) {
	r.statusMu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.statusMu.Unlock()

	return func() {
		r.statusMu.Lock()
		defer r.statusMu.Unlock()
		for i, c := range r.subscribers {
			if c == ch {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				return
			}
		}
	}
}
