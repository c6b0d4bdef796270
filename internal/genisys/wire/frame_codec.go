package wire

import "github.com/webitel/genisys-master/internal/genisys"

// DecodeFrame implements the decode pipeline of §4.1: extract framed
// bytes, unescape, determine CRC presence by header rule, validate and
// strip the CRC, and split into a Frame. Any wire-level failure causes
// the whole datagram to be silently dropped by the caller; this
// function only classifies the failure.
func DecodeFrame(datagram []byte) (Frame, error) {
	raw, err := extractFramedBody(datagram)
	if err != nil {
		return Frame{}, err
	}

	body, err := unescapeBody(raw)
	if err != nil {
		return Frame{}, err
	}

	header := body[0]

	var crcPresent bool
	switch header {
	case HeaderAcknowledge:
		crcPresent = false
		if len(body) != 2 {
			return Frame{}, ErrFraming
		}
	case HeaderPoll:
		switch len(body) {
		case 2:
			crcPresent = false
		case 4:
			crcPresent = true
		default:
			return Frame{}, ErrFraming
		}
	default:
		crcPresent = true
		if len(body) < 4 {
			return Frame{}, ErrFraming
		}
	}

	station := body[1]
	if station == 0 {
		return Frame{}, ErrFraming
	}

	var payload []byte
	if crcPresent {
		crcFrom := body[:len(body)-2]
		gotLo, gotHi := body[len(body)-2], body[len(body)-1]
		got := uint16(gotLo) | uint16(gotHi)<<8
		want := CRC16(crcFrom)
		if got != want {
			return Frame{}, ErrCrc
		}
		payload = body[2 : len(body)-2]
	} else {
		payload = body[2:]
	}

	return Frame{
		Header:     header,
		Station:    genisys.Station(station),
		Payload:    append([]byte(nil), payload...),
		CRCPresent: crcPresent,
	}, nil
}

// EncodeFrame implements the encode pipeline of §4.1: assemble the
// body, append the CRC if required, escape everything but the header,
// append the terminator.
func EncodeFrame(f Frame) []byte {
	body := make([]byte, 0, 2+len(f.Payload)+2)
	body = append(body, f.Header, byte(f.Station))
	body = append(body, f.Payload...)

	if f.CRCPresent {
		crc := CRC16(body)
		body = append(body, byte(crc&0xFF), byte(crc>>8))
	}

	escaped := escapeBody(body)
	escaped = append(escaped, terminatorByte)
	return escaped
}
