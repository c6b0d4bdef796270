// Package driver implements the single-threaded operational driver of
// §4.6/§5: it sequences events (dequeue → reduce → execute → loop),
// bridges transport callbacks and timer firings into events, and is
// the only component that advances the controller's state snapshot.
package driver

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/executor"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/reducer"
	"github.com/webitel/genisys-master/internal/genisys/signal"
	"github.com/webitel/genisys-master/internal/genisys/state"
	"github.com/webitel/genisys-master/internal/genisys/wire"
)

// tracerName is the instrumentation scope reported for every span
// driver.step starts. otel.Tracer returns a no-op tracer until a
// TracerProvider is registered globally, so this carries no cost when
// tracing isn't configured.
const tracerName = "github.com/webitel/genisys-master/internal/genisys/driver"

// queueCapacity approximates the "unbounded by design" queue of §5
// with a large bounded buffer; see Submit for the drop-and-report
// policy applied only to ResponseTimeout duplicates once it is full.
const queueCapacity = 4096

// Driver owns the current State snapshot exclusively and is the only
// writer to it (§3 Ownership/lifecycle).
type Driver struct {
	exec   *executor.Executor
	codec  wire.PayloadCodec
	clk    clock.Clock
	sink   Sink
	tracer trace.Tracer

	indications IndicationApplier
	statusOut   StatusSetter

	queue chan event.Event

	state    atomic.Pointer[state.State]
	lastSent atomic.Int32 // last published state.Status; Status values start at 1, so the zero value matches none
}

// New constructs a Driver seeded with the initial state. The executor
// must have been constructed with this Driver's LoadState/Submit as
// its state-supplier/event-sink closures (§9 "no internal cyclic
// references").
func New(
	initial state.State,
	exec *executor.Executor,
	codec wire.PayloadCodec,
	clk clock.Clock,
	sink Sink,
	indications IndicationApplier,
	statusOut StatusSetter,
) *Driver {
	d := &Driver{
		exec:        exec,
		codec:       codec,
		clk:         clk,
		sink:        sink,
		tracer:      otel.Tracer(tracerName),
		indications: indications,
		statusOut:   statusOut,
		queue:       make(chan event.Event, queueCapacity),
	}
	d.state.Store(&initial)
	return d
}

// LoadState returns the current snapshot; safe to call from any
// goroutine (it is the closure handed to the executor at construction).
func (d *Driver) LoadState() state.State {
	return *d.state.Load()
}

// Submit enqueues an event from any producer (transport callback,
// scheduler firing, façade control-intent callback). It returns at once
// while the queue has room. On a full queue a ResponseTimeout event is
// dropped (reported via the error sink); any other event blocks until
// the queue has room, so no transport-lifecycle or message event is lost.
func (d *Driver) Submit(e event.Event) {
	select {
	case d.queue <- e:
		return
	default:
	}
	if e.Kind == event.KindResponseTimeout {
		d.sink.OnError(errDroppedTimeout{station: e.Station})
		return
	}
	d.queue <- e
}

// Run processes events until ctx is cancelled. It is the sole goroutine
// that calls reducer.Apply and executor.Execute.
func (d *Driver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-d.queue:
			d.step(e)
		}
	}
}

func (d *Driver) step(e event.Event) {
	_, span := d.tracer.Start(context.Background(), "driver.step",
		trace.WithAttributes(
			attribute.String("event.kind", e.Kind.String()),
			attribute.String("station", e.Station.String()),
		),
	)
	defer span.End()

	old := d.LoadState()
	next, intents := reducer.Apply(old, e)
	d.state.Store(&next)

	span.SetAttributes(attribute.Int("intents", int(intents.Kinds)))

	if e.Kind == event.KindMessageReceived {
		d.exec.RecordActivity(e.Station, e.Tick)
	}

	d.sink.OnStateTransition(old, next, e, intents, time.Now())

	d.exec.Execute(intents)

	if e.Kind == event.KindMessageReceived && e.Message.Kind == message.KindControlCheckback {
		d.exec.HandleControlCheckback(e.Station)
	}

	d.publishStatus(next)
}

func (d *Driver) publishStatus(s state.State) {
	status := state.MapToStatus(s)
	prev := state.Status(d.lastSent.Swap(int32(status)))
	if prev != status {
		d.statusOut.SetStatus(status)
	}
}

// OnDatagram implements the transport Listener surface of §6: decode,
// apply indications, and submit MessageReceived. Activity is recorded
// later, when step processes that event.
func (d *Driver) OnDatagram(data []byte) {
	resp, err := wire.DecodeResponse(data, d.codec)
	if err != nil {
		// Wire-level and semantic-illegality errors are dropped at the
		// codec boundary per §4.1/§7; they never reach the reducer.
		d.sink.OnError(err)
		return
	}
	tick := d.clk.Now()
	if resp.Kind == message.KindIndicationData {
		d.indications.ApplyIndications(resp.Station, resp.Indications)
	}
	d.Submit(event.MessageReceived(tick, resp.Station, resp))
}

// OnTransportUp implements the transport Listener surface of §6.
func (d *Driver) OnTransportUp() {
	d.sink.OnTransportEvent(true, nil)
	d.Submit(event.TransportUp(d.clk.Now()))
}

// OnTransportDown implements the transport Listener surface of §6.
func (d *Driver) OnTransportDown(cause error) {
	d.sink.OnTransportEvent(false, cause)
	d.Submit(event.TransportDown(d.clk.Now()))
}

// SubmitControlIntentChanged is the façade's setControls path (§6): it
// becomes a ControlIntentChanged event on the driver's queue.
func (d *Driver) SubmitControlIntentChanged(delta, full signal.Set) {
	d.Submit(event.ControlIntentChanged(d.clk.Now(), delta, full))
}

type errDroppedTimeout struct {
	station genisys.Station
}

func (e errDroppedTimeout) Error() string {
	return "driver: dropped duplicate ResponseTimeout for " + e.station.String()
}
