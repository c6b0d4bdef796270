package observability

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/webitel/genisys-master/internal/genisys/driver"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

// Record is one observed state transition, kept for the status/monitor
// CLI to render without reaching into the driver's live state.
type Record struct {
	Seq     uint64
	At      time.Time
	Event   event.Kind
	Station string
	From    state.GlobalState
	To      state.GlobalState
	Intents intent.Kind
}

// RingSink keeps the last N state transitions in memory, evicting the
// oldest once full. Grounded on the teacher's peer_enricher.go, which
// uses the same hashicorp/golang-lru/v2 cache as a bounded in-memory
// store fronting a slower backing resource — here the backing resource
// is the operator's eyes, not a downstream RPC, so there is no
// fallthrough fetch on miss.
type RingSink struct {
	cache *lru.Cache[uint64, Record]
	seq   atomic.Uint64
}

// NewRingSink builds a ring holding at most capacity records.
func NewRingSink(capacity int) (*RingSink, error) {
	cache, err := lru.New[uint64, Record](capacity)
	if err != nil {
		return nil, err
	}
	return &RingSink{cache: cache}, nil
}

func (r *RingSink) OnStateTransition(old, next state.State, trigger event.Event, intents intent.Set, at time.Time) {
	seq := r.seq.Add(1)
	r.cache.Add(seq, Record{
		Seq:     seq,
		At:      at,
		Event:   trigger.Kind,
		Station: trigger.Station.String(),
		From:    old.Global,
		To:      next.Global,
		Intents: intents.Kinds,
	})
}

func (r *RingSink) OnProtocolEvent(string)     {}
func (r *RingSink) OnTransportEvent(bool, error) {}
func (r *RingSink) OnError(error)              {}

// Recent returns up to the ring's capacity of the most recently
// recorded transitions, oldest first.
func (r *RingSink) Recent() []Record {
	keys := r.cache.Keys()
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		if rec, ok := r.cache.Peek(k); ok {
			out = append(out, rec)
		}
	}
	return out
}

var _ driver.Sink = (*RingSink)(nil)
