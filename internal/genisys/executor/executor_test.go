package executor

import (
	"sync"
	"testing"
	"time"

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

type fakeSender struct {
	mu   sync.Mutex
	sent []message.Request
}

func (f *fakeSender) Send(req message.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeSender) snapshot() []message.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]message.Request, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeControls struct{}

func (fakeControls) CurrentControls(genisys.Station) signal.Set { return signal.NewSet(8) }

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingSink) OnProtocolEvent(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingSink) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

func newTestExecutor(t *testing.T, stations []genisys.Station, snap func() state.State) (*Executor, *fakeSender) {
	t.Helper()
	x, sender, _ := newTestExecutorWithSink(t, stations, snap)
	return x, sender
}

func newTestExecutorWithSink(t *testing.T, stations []genisys.Station, snap func() state.State) (*Executor, *fakeSender, *recordingSink) {
	t.Helper()
	sender := &fakeSender{}
	sink := &recordingSink{}
	x := New(
		Config{Stations: stations, SecurePolls: false, ResponseTimeout: time.Second, ControlCoalesceWindow: time.Millisecond},
		sender,
		fakeControls{},
		scheduler.New(),
		tracker.NewSend(),
		tracker.NewActivity(),
		clock.NewFake(),
		snap,
		func(event.Event) {},
		func(error) {},
		sink,
	)
	return x, sender, sink
}

func TestExecute_BeginInitialization_SendsRecallToEveryStation(t *testing.T) {
	x, sender := newTestExecutor(t, []genisys.Station{1, 2, 3}, func() state.State { return state.State{} })

	x.Execute(intent.Set{}.WithGlobal(intent.BeginInitialization))

	got := sender.snapshot()
	if len(got) != 3 {
		t.Fatalf("got %d sends, want 3", len(got))
	}
	for i, st := range []genisys.Station{1, 2, 3} {
		if got[i].Kind != message.KindRecall || got[i].Station != st {
			t.Fatalf("send %d = %+v, want Recall(%d)", i, got[i], st)
		}
	}
}

func TestExecute_SuspendAllSendsNothing(t *testing.T) {
	x, sender := newTestExecutor(t, []genisys.Station{1}, func() state.State { return state.State{} })

	x.Execute(intent.Set{}.WithGlobal(intent.SuspendAll).WithGlobal(intent.BeginInitialization))

	if len(sender.snapshot()) != 0 {
		t.Fatalf("SuspendAll must dominate and suppress all sends")
	}
}

func TestExecute_PollNext_RotatesAndHonorsAckPending(t *testing.T) {
	snap := state.State{Slaves: map[genisys.Station]state.SlaveState{
		2: {Station: 2, AckPending: true},
	}}
	x, sender := newTestExecutor(t, []genisys.Station{1, 2, 3}, func() state.State { return snap })

	x.Execute(intent.Set{}.With(intent.PollNext, 1))

	got := sender.snapshot()
	if len(got) != 1 {
		t.Fatalf("got %d sends, want 1", len(got))
	}
	if got[0].Kind != message.KindAcknowledgeAndPoll || got[0].Station != 2 {
		t.Fatalf("got %+v, want AcknowledgeAndPoll(2)", got[0])
	}
}

func TestExecute_PollNext_PlainPollWhenNoAckPending(t *testing.T) {
	snap := state.State{Slaves: map[genisys.Station]state.SlaveState{
		1: {Station: 1},
	}}
	x, sender := newTestExecutor(t, []genisys.Station{1}, func() state.State { return snap })

	x.Execute(intent.Set{}.With(intent.PollNext, 1))

	got := sender.snapshot()
	if len(got) != 1 || got[0].Kind != message.KindPoll || got[0].Station != 1 {
		t.Fatalf("got %+v, want Poll(1)", got)
	}
}

func TestExecute_RetryCurrent_ReemitsLastSend(t *testing.T) {
	x, sender := newTestExecutor(t, []genisys.Station{1}, func() state.State { return state.State{} })

	x.Execute(intent.Set{}.With(intent.SendRecall, 1))
	x.Execute(intent.Set{}.With(intent.RetryCurrent, 1))

	got := sender.snapshot()
	if len(got) != 2 {
		t.Fatalf("got %d sends, want 2", len(got))
	}
	if got[0].Kind != got[1].Kind || got[0].Station != got[1].Station || got[0].Secure != got[1].Secure || !got[0].Controls.Equal(got[1].Controls) {
		t.Fatalf("retry did not re-emit the prior message: %+v vs %+v", got[0], got[1])
	}
}

func TestExecute_SendRecall_NotifiesSinkOfArmedTimeout(t *testing.T) {
	x, _, sink := newTestExecutorWithSink(t, []genisys.Station{1}, func() state.State { return state.State{} })

	x.Execute(intent.Set{}.With(intent.SendRecall, 1))

	got := sink.snapshot()
	if len(got) != 1 || got[0] == "" {
		t.Fatalf("got %v, want exactly one non-empty protocol event", got)
	}
}

func TestExecute_ScheduleControlDelivery_NotifiesSinkOfCoalesceArm(t *testing.T) {
	x, _, sink := newTestExecutorWithSink(t, []genisys.Station{1}, func() state.State { return state.State{} })

	x.Execute(intent.Set{}.WithGlobal(intent.ScheduleControlDelivery))

	got := sink.snapshot()
	if len(got) != 1 || got[0] == "" {
		t.Fatalf("got %v, want exactly one non-empty protocol event", got)
	}
}

func TestUpdateTimingPolicy_AppliesToSubsequentArm(t *testing.T) {
	x, _, sink := newTestExecutorWithSink(t, []genisys.Station{1}, func() state.State { return state.State{} })

	x.UpdateTimingPolicy(2*time.Second, 5*time.Millisecond)
	if got := x.responseTimeoutValue(); got != 2*time.Second {
		t.Fatalf("responseTimeoutValue = %v, want 2s", got)
	}
	if got := x.controlCoalesceWindowValue(); got != 5*time.Millisecond {
		t.Fatalf("controlCoalesceWindowValue = %v, want 5ms", got)
	}

	x.Execute(intent.Set{}.WithGlobal(intent.ScheduleControlDelivery))
	got := sink.snapshot()
	if len(got) != 1 || got[0] != "control coalesce window armed: 5ms" {
		t.Fatalf("got %v, want the updated window reflected in the notification", got)
	}
}
