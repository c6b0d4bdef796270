package wire

import (
	"errors"

	"github.com/webitel/genisys-master/internal/genisys"
)

// Header bytes, catalogued per §6. Values outside this set but inside
// the broader "valid for framing" range (0xF1..0xFE minus the
// terminator/escape/reserved bytes) are accepted by the framer but
// rejected as an unknown header once a Frame is handed to message
// decoding — that is semantic illegality, not a wire error.
const (
	HeaderAcknowledge        byte = 0xF1
	HeaderIndicationData     byte = 0xF2
	HeaderControlCheckback   byte = 0xF3
	HeaderAcknowledgeAndPoll byte = 0xFA
	HeaderPoll               byte = 0xFB
	HeaderControlData        byte = 0xFC
	HeaderRecall             byte = 0xFD
	HeaderExecuteControls    byte = 0xFE
)

const (
	escapeByte     byte = 0xF0
	terminatorByte byte = 0xF6
	reservedByte1  byte = 0xF7
	reservedByte2  byte = 0xF8
)

// Wire-level failure taxonomy (§7): recovered locally, datagram
// dropped, never reach the reducer.
var (
	ErrFraming = errors.New("genisys/wire: framing error")
	ErrEscape  = errors.New("genisys/wire: escape error")
	ErrCrc     = errors.New("genisys/wire: crc mismatch")

	// ErrUnknownHeader is semantic illegality (§7), not a wire error: a
	// structurally valid frame whose header names no catalogued
	// message kind. Decode returns it; callers drop the datagram the
	// same way, but it is reported distinctly from the wire taxonomy.
	ErrUnknownHeader = errors.New("genisys/wire: unknown header")
)

// Frame is the post-codec, pre-semantic representation of §3: header
// byte, station, payload bytes, and whether a CRC was present on the
// wire. No escape bytes, CRC bytes, or terminator leak past here.
type Frame struct {
	Header     byte
	Station    genisys.Station
	Payload    []byte
	CRCPresent bool
}

// isFramingHeader reports whether b is in the broader header range
// scanned for while looking for the start of a frame: 0xF1..0xFE minus
// the terminator and the two reserved bytes.
func isFramingHeader(b byte) bool {
	if b < 0xF1 || b > 0xFE {
		return false
	}
	return b != terminatorByte && b != reservedByte1 && b != reservedByte2
}

// isCatalogued reports whether b names one of the eight message kinds.
func isCatalogued(b byte) bool {
	switch b {
	case HeaderAcknowledge, HeaderIndicationData, HeaderControlCheckback,
		HeaderAcknowledgeAndPoll, HeaderPoll, HeaderControlData,
		HeaderRecall, HeaderExecuteControls:
		return true
	default:
		return false
	}
}

// isRequestHeader reports whether header b is a master→slave request header.
func isRequestHeader(b byte) bool {
	switch b {
	case HeaderAcknowledgeAndPoll, HeaderPoll, HeaderControlData, HeaderRecall, HeaderExecuteControls:
		return true
	default:
		return false
	}
}
