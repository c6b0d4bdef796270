package tracker

import (
	"sync"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
	"github.com/webitel/genisys-master/internal/genisys/message"
)

// sendRecord is the last outbound request sent to a station, and when.
type sendRecord struct {
	request message.Request
	sentAt  clock.Tick
}

// Send records the last outbound request per station, consulted by the
// executor's RetryCurrent handling (§4.5) to re-emit the same message
// rather than invent a new one.
type Send struct {
	mu   sync.RWMutex
	last map[genisys.Station]sendRecord
}

func NewSend() *Send {
	return &Send{last: make(map[genisys.Station]sendRecord)}
}

func (s *Send) Record(station genisys.Station, req message.Request, tick clock.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[station] = sendRecord{request: req, sentAt: tick}
}

// Last returns the most recently sent request to station, if any.
func (s *Send) Last(station genisys.Station) (message.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.last[station]
	return rec.request, ok
}

// SentAt returns the monotonic tick the last request was sent at.
func (s *Send) SentAt(station genisys.Station) (clock.Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.last[station]
	return rec.sentAt, ok
}
