package observability

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/webitel/genisys-master/internal/genisys/driver"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

// JournalSink persists every state transition to a SQLite database,
// giving the operator a durable record across restarts that the
// in-memory RingSink cannot provide.
type JournalSink struct {
	db *sql.DB
}

// NewJournalSink opens (creating if necessary) a SQLite database at
// path and ensures the journal table exists.
func NewJournalSink(path string) (*JournalSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("observability: open journal db: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS transitions (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	at          TEXT NOT NULL,
	event_kind  TEXT NOT NULL,
	station     TEXT NOT NULL,
	from_state  TEXT NOT NULL,
	to_state    TEXT NOT NULL,
	intents     INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("observability: create journal schema: %w", err)
	}
	return &JournalSink{db: db}, nil
}

func (j *JournalSink) OnStateTransition(old, next state.State, trigger event.Event, intents intent.Set, at time.Time) {
	_, _ = j.db.Exec(
		`INSERT INTO transitions (at, event_kind, station, from_state, to_state, intents) VALUES (?, ?, ?, ?, ?, ?)`,
		at.Format(time.RFC3339Nano),
		trigger.Kind.String(),
		trigger.Station.String(),
		old.Global.String(),
		next.Global.String(),
		int64(intents.Kinds),
	)
}

func (j *JournalSink) OnProtocolEvent(string)       {}
func (j *JournalSink) OnTransportEvent(bool, error) {}
func (j *JournalSink) OnError(error)                {}

// Close releases the underlying database handle.
func (j *JournalSink) Close() error {
	return j.db.Close()
}

var _ driver.Sink = (*JournalSink)(nil)
