package amqp

import (
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/signal"
)

type fakeRegistry struct {
	station  genisys.Station
	controls signal.Set
	calls    int
}

func (f *fakeRegistry) SetControls(station genisys.Station, controls signal.Set) {
	f.station, f.controls, f.calls = station, controls, f.calls+1
}

func TestBindControlIntentV1_AppliesDecodedSignals(t *testing.T) {
	reg := &fakeRegistry{}
	h := NewHandler(reg, slog.Default())
	fn := bindControlIntentV1(h)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"station":3,"signals":[0,2,5]}`))
	if err := fn(msg); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if reg.calls != 1 {
		t.Fatalf("calls = %d, want 1", reg.calls)
	}
	if reg.station != 3 {
		t.Fatalf("station = %d, want 3", reg.station)
	}
	want := signal.Set{}.With(0).With(2).With(5)
	if !reg.controls.Equal(want) {
		t.Fatalf("controls = %+v, want %+v", reg.controls, want)
	}
}

func TestBindControlIntentV1_MalformedPayloadIsAcked(t *testing.T) {
	reg := &fakeRegistry{}
	h := NewHandler(reg, slog.Default())
	fn := bindControlIntentV1(h)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`not json`))
	if err := fn(msg); err != nil {
		t.Fatalf("expected a nil (Ack) return for malformed payload, got %v", err)
	}
	if reg.calls != 0 {
		t.Fatalf("calls = %d, want 0 for malformed payload", reg.calls)
	}
}
