package amqp

import "github.com/webitel/genisys-master/internal/genisys"

// ControlIntentV1 is the wire shape of an upstream control command: the
// full desired signal set for one station, addressed by bit index
// rather than byte/value pairs (the byte-level encoding is the wire
// codec's concern, not the bus message's).
type ControlIntentV1 struct {
	Station genisys.Station `json:"station"`
	Signals []int           `json:"signals"`
}
