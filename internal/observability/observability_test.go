package observability

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

func sampleTransition() (state.State, state.State, event.Event, intent.Set) {
	old := state.NewInitializing([]genisys.Station{1}, clock.Tick(0))
	next := old.WithGlobalState(state.Running, clock.Tick(1))
	trigger := event.MessageReceived(clock.Tick(1), 1, message.Acknowledge(1))
	in := intent.Set{}.With(intent.PollNext, 1)
	return old, next, trigger, in
}

func TestRingSink_RecordsAndEvictsOldest(t *testing.T) {
	ring, err := NewRingSink(2)
	if err != nil {
		t.Fatalf("new ring sink: %v", err)
	}
	for i := 0; i < 3; i++ {
		old, next, trigger, in := sampleTransition()
		ring.OnStateTransition(old, next, trigger, in, time.Now())
	}
	recent := ring.Recent()
	if len(recent) != 2 {
		t.Fatalf("recent len = %d, want 2 (capacity)", len(recent))
	}
	if recent[0].Seq != 2 || recent[1].Seq != 3 {
		t.Fatalf("expected the oldest record to have been evicted, got seqs %d,%d", recent[0].Seq, recent[1].Seq)
	}
}

func TestJournalSink_PersistsTransition(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	journal, err := NewJournalSink(dbPath)
	if err != nil {
		t.Fatalf("new journal sink: %v", err)
	}
	defer journal.Close()

	old, next, trigger, in := sampleTransition()
	journal.OnStateTransition(old, next, trigger, in, time.Now())

	var count int
	if err := journal.db.QueryRow(`SELECT COUNT(*) FROM transitions`).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

type recordingSink struct {
	transitions int
	protocol    []string
	transport   []bool
	errs        []error
}

func (r *recordingSink) OnStateTransition(state.State, state.State, event.Event, intent.Set, time.Time) {
	r.transitions++
}
func (r *recordingSink) OnProtocolEvent(message string)   { r.protocol = append(r.protocol, message) }
func (r *recordingSink) OnTransportEvent(up bool, _ error) { r.transport = append(r.transport, up) }
func (r *recordingSink) OnError(err error)                { r.errs = append(r.errs, err) }

func TestMultiSink_FansOutToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	multi := NewMultiSink(a, b)

	old, next, trigger, in := sampleTransition()
	multi.OnStateTransition(old, next, trigger, in, time.Now())
	multi.OnProtocolEvent("hello")
	multi.OnTransportEvent(true, nil)
	multi.OnError(errors.New("boom"))

	for _, s := range []*recordingSink{a, b} {
		if s.transitions != 1 || len(s.protocol) != 1 || len(s.transport) != 1 || len(s.errs) != 1 {
			t.Fatalf("sink did not receive every callback: %+v", s)
		}
	}
}

func TestLogSink_DoesNotPanic(t *testing.T) {
	sink := NewLogSink(slog.Default())
	old, next, trigger, in := sampleTransition()
	sink.OnStateTransition(old, next, trigger, in, time.Now())
	sink.OnProtocolEvent("hello")
	sink.OnTransportEvent(false, errors.New("down"))
	sink.OnError(errors.New("boom"))
}
