// Package executor interprets a single reducer step's intent set into
// zero-or-more outbound semantic message sends and timer operations
// (§4.5). It owns the send/activity trackers by exclusive reference
// and is the only component that talks to the scheduler and the
// transport-facing Sender.
package executor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/scheduler"
	"github.com/webitel/genisys-master/internal/genisys/signal"
	"github.com/webitel/genisys-master/internal/genisys/state"
	"github.com/webitel/genisys-master/internal/genisys/tracker"
)

// ControlSupplier is the external façade's read side (§6): the
// executor never stores controls itself, it asks for the current
// materialized set at send time.
type ControlSupplier interface {
	CurrentControls(station genisys.Station) signal.Set
}

// Sender is the minimal outbound transport surface the executor
// requires; concrete UDP send lives in internal/transport/udpwire.
type Sender interface {
	Send(req message.Request) error
}

// ProtocolEventSink is the subset of driver.Sink the executor depends
// on, declared locally so this package never imports driver (§9 "no
// internal cyclic references" generalized to this boundary, same as
// transport.Listener). It carries the "protocol events (timeout
// armed/fired, cadence delays)" channel of §6.
type ProtocolEventSink interface {
	OnProtocolEvent(message string)
}

// Config is the enumerated, non-dynamic timing/behavior policy of
// §4.6/§9. No hidden defaults: every field must be set explicitly by
// the composition root.
type Config struct {
	Stations                []genisys.Station
	SecurePolls             bool
	ControlCheckbackEnabled bool
	ResponseTimeout         time.Duration
	ControlCoalesceWindow   time.Duration
}

// Executor interprets intents. It is constructed with a state-snapshot
// reader closure and an event-submission closure rather than holding a
// back-reference to the driver (§9 "No internal cyclic references").
type Executor struct {
	cfg       Config
	sender    Sender
	controls  ControlSupplier
	scheduler *scheduler.Scheduler
	sends     *tracker.Send
	activity  *tracker.Activity
	clock     clock.Clock

	stateSupplier func() state.State
	submit        func(event.Event)
	reportError   func(error)
	sink          ProtocolEventSink

	breakersMu sync.Mutex
	breakers   map[genisys.Station]*gobreaker.CircuitBreaker

	coalesceMu    sync.Mutex
	coalesceTimer *time.Timer

	// responseTimeout and controlCoalesceWindow shadow the
	// corresponding Config fields as the hot-reloadable subset
	// config.WatchTimingPolicy updates; cfg's copies are the initial
	// values and are never read again after New.
	responseTimeout       atomic.Int64
	controlCoalesceWindow atomic.Int64
}

func New(
	cfg Config,
	sender Sender,
	controls ControlSupplier,
	sched *scheduler.Scheduler,
	sends *tracker.Send,
	activity *tracker.Activity,
	clk clock.Clock,
	stateSupplier func() state.State,
	submit func(event.Event),
	reportError func(error),
	sink ProtocolEventSink,
) *Executor {
	x := &Executor{
		cfg:           cfg,
		sender:        sender,
		controls:      controls,
		scheduler:     sched,
		sends:         sends,
		activity:      activity,
		clock:         clk,
		stateSupplier: stateSupplier,
		submit:        submit,
		reportError:   reportError,
		sink:          sink,
		breakers:      make(map[genisys.Station]*gobreaker.CircuitBreaker),
	}
	x.responseTimeout.Store(int64(cfg.ResponseTimeout))
	x.controlCoalesceWindow.Store(int64(cfg.ControlCoalesceWindow))
	return x
}

// UpdateTimingPolicy applies a hot-reloaded response timeout and
// control coalesce window, taking effect on the next timer armed for
// either; in-flight timers keep running under the policy they were
// armed with. config.WatchTimingPolicy is the composition root's
// caller of this method.
func (x *Executor) UpdateTimingPolicy(responseTimeout, controlCoalesceWindow time.Duration) {
	x.responseTimeout.Store(int64(responseTimeout))
	x.controlCoalesceWindow.Store(int64(controlCoalesceWindow))
}

// RecordActivity records the tick a semantic message was received from
// station, for the staleness check onTimeout performs. Exposed so the
// driver can feed it without reaching into the executor's privately
// owned activity tracker.
func (x *Executor) RecordActivity(station genisys.Station, tick clock.Tick) {
	x.activity.Record(station, tick)
}

// Execute interprets one intent set under the dominance rule of §4.5.
func (x *Executor) Execute(in intent.Set) {
	if in.Has(intent.SuspendAll) {
		x.scheduler.CancelAll()
		x.cancelCoalesce()
		return
	}
	if in.Has(intent.BeginInitialization) {
		for _, st := range x.cfg.Stations {
			x.sendRecall(st)
		}
		return
	}

	if in.Has(intent.SendRecall) {
		x.sendRecall(in.TargetStation)
	}
	if in.Has(intent.SendControls) {
		x.sendControls(in.TargetStation)
	}
	if in.Has(intent.PollNext) {
		x.pollNext(in.TargetStation)
	}
	if in.Has(intent.RetryCurrent) {
		x.retryCurrent(in.TargetStation)
	}
	if in.Has(intent.ScheduleControlDelivery) {
		x.armCoalesce()
	}
}

// HandleControlCheckback sends ExecuteControls immediately upon
// receipt of a ControlCheckback when checkback is enabled. The reducer
// has no ExecuteControls intent in its closed intent set (§4.2), so
// this is deliberately executor-side rather than reducer-emitted — the
// deviation §9's open question asks implementers to note when they
// cannot realize option (b). See DESIGN.md.
func (x *Executor) HandleControlCheckback(station genisys.Station) {
	if !x.cfg.ControlCheckbackEnabled {
		return
	}
	x.send(station, message.ExecuteControls(station))
}

func (x *Executor) sendRecall(station genisys.Station) {
	x.send(station, message.Recall(station))
	x.armTimeout(station)
}

func (x *Executor) sendControls(station genisys.Station) {
	controls := x.controls.CurrentControls(station)
	x.send(station, message.ControlData(station, controls))
	x.armTimeout(station)
}

func (x *Executor) pollNext(after genisys.Station) {
	next, ok := nextStation(x.cfg.Stations, after)
	if !ok {
		return
	}
	snap := x.stateSupplier()
	sl, known := snap.Slaves[next]
	var req message.Request
	if known && sl.AckPending {
		req = message.AcknowledgeAndPoll(next)
	} else {
		req = message.Poll(next, x.cfg.SecurePolls)
	}
	x.send(next, req)
	x.armTimeout(next)
}

func (x *Executor) retryCurrent(station genisys.Station) {
	req, ok := x.sends.Last(station)
	if !ok {
		return
	}
	x.send(station, req)
	x.armTimeout(station)
}

func (x *Executor) armCoalesce() {
	x.coalesceMu.Lock()
	defer x.coalesceMu.Unlock()
	if x.coalesceTimer != nil {
		x.coalesceTimer.Stop()
	}
	window := x.controlCoalesceWindowValue()
	x.coalesceTimer = time.AfterFunc(window, x.deliverPendingControls)
	x.notify("control coalesce window armed: " + window.String())
}

func (x *Executor) cancelCoalesce() {
	x.coalesceMu.Lock()
	defer x.coalesceMu.Unlock()
	if x.coalesceTimer != nil {
		x.coalesceTimer.Stop()
		x.coalesceTimer = nil
	}
}

func (x *Executor) deliverPendingControls() {
	x.notify("control coalesce window fired")
	snap := x.stateSupplier()
	for _, station := range x.cfg.Stations {
		sl, ok := snap.Slaves[station]
		if !ok || sl.Phase == state.Failed || !sl.ControlPending {
			continue
		}
		x.sendControls(station)
	}
}

func (x *Executor) armTimeout(station genisys.Station) {
	sentAt := x.clock.Now()
	x.notify("response timeout armed for " + station.String())
	x.scheduler.Arm(station, x.responseTimeoutValue(), func() {
		x.onTimeout(station, sentAt)
	})
}

// onTimeout runs on the scheduler's goroutine; its only effect is
// enqueueing an event, per §5's "each callback's sole effect is
// enqueueing an event" rule.
func (x *Executor) onTimeout(station genisys.Station, sentAt clock.Tick) {
	if last, ok := x.activity.LastReceipt(station); ok && last > sentAt {
		// A response arrived after this timeout was armed; stale (§4.6).
		return
	}
	x.notify("response timeout fired for " + station.String())
	x.submit(event.ResponseTimeout(x.clock.Now(), station))
}

func (x *Executor) notify(message string) {
	if x.sink != nil {
		x.sink.OnProtocolEvent(message)
	}
}

func (x *Executor) responseTimeoutValue() time.Duration {
	return time.Duration(x.responseTimeout.Load())
}

func (x *Executor) controlCoalesceWindowValue() time.Duration {
	return time.Duration(x.controlCoalesceWindow.Load())
}

func (x *Executor) send(station genisys.Station, req message.Request) {
	br := x.breakerFor(station)
	_, err := br.Execute(func() (any, error) {
		return nil, x.sender.Send(req)
	})
	x.sends.Record(station, req, x.clock.Now())
	if err != nil && x.reportError != nil {
		x.reportError(err)
	}
}

// breakerFor lazily creates a per-station circuit breaker. This is
// purely additive resilience around the outbound syscall: it never
// substitutes for, or suppresses, the reducer-owned consecutiveFailures
// escalation — a breaker trip still lets the send attempt return an
// error, which surfaces as a later ResponseTimeout exactly as an
// ordinary send failure would.
func (x *Executor) breakerFor(station genisys.Station) *gobreaker.CircuitBreaker {
	x.breakersMu.Lock()
	defer x.breakersMu.Unlock()
	br, ok := x.breakers[station]
	if !ok {
		br = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        station.String(),
			MaxRequests: 1,
			Interval:    0,
			Timeout:     x.responseTimeoutValue(),
		})
		x.breakers[station] = br
	}
	return br
}

// nextStation returns the configured station following after in
// rotation order, wrapping around. Reports false for an empty
// rotation or a station absent from it.
func nextStation(rotation []genisys.Station, after genisys.Station) (genisys.Station, bool) {
	if len(rotation) == 0 {
		return 0, false
	}
	for i, st := range rotation {
		if st == after {
			return rotation[(i+1)%len(rotation)], true
		}
	}
	return 0, false
}
