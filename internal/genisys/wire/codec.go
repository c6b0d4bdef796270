// Package wire implements the bidirectional translation between raw
// datagram bytes and the semantic Message taxonomy (§4.1): framing,
// escaping, CRC, and header-driven dispatch. Payload bit-unpacking for
// indications/controls is delegated to an injected PayloadCodec, kept
// external per §4.1 "delegating payload bit-unpacking ... to an
// injected payload codec (external)".
package wire

import (
	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/signal"
)

// PayloadCodec bit-packs and unpacks the (byteAddress, byteValue) pairs
// of §6 into/from the domain-level signal.Set. The concrete
// implementation lives with the façade, which alone knows the
// signal↔bit-index mapping and the station's configured database size.
type PayloadCodec interface {
	EncodeControls(station genisys.Station, controls signal.Set) []byte
	DecodeControls(station genisys.Station, payload []byte) (signal.Set, error)
	EncodeIndications(station genisys.Station, indications signal.Set) []byte
	DecodeIndications(station genisys.Station, payload []byte) (signal.Set, error)
}

func headerForRequest(k message.Kind) byte {
	switch k {
	case message.KindPoll:
		return HeaderPoll
	case message.KindAcknowledgeAndPoll:
		return HeaderAcknowledgeAndPoll
	case message.KindRecall:
		return HeaderRecall
	case message.KindControlData:
		return HeaderControlData
	case message.KindExecuteControls:
		return HeaderExecuteControls
	default:
		return 0
	}
}

func headerForResponse(k message.Kind) byte {
	switch k {
	case message.KindAcknowledge:
		return HeaderAcknowledge
	case message.KindIndicationData:
		return HeaderIndicationData
	case message.KindControlCheckback:
		return HeaderControlCheckback
	default:
		return 0
	}
}

// EncodeRequest translates a master→slave Message into wire bytes.
func EncodeRequest(req message.Request, codec PayloadCodec) []byte {
	f := Frame{
		Header:     headerForRequest(req.Kind),
		Station:    req.Station,
		CRCPresent: req.RequiresCRC(),
	}
	if req.Kind == message.KindControlData {
		f.Payload = codec.EncodeControls(req.Station, req.Controls)
	}
	return EncodeFrame(f)
}

// DecodeRequest translates wire bytes into a master→slave Message.
// Production code never calls this (the master only sends requests);
// it exists for the codec round-trip property (§8 property 7).
func DecodeRequest(datagram []byte, codec PayloadCodec) (message.Request, error) {
	f, err := DecodeFrame(datagram)
	if err != nil {
		return message.Request{}, err
	}
	if !isRequestHeader(f.Header) || !isCatalogued(f.Header) {
		return message.Request{}, ErrUnknownHeader
	}

	switch f.Header {
	case HeaderPoll:
		return message.Poll(f.Station, f.CRCPresent), nil
	case HeaderAcknowledgeAndPoll:
		return message.AcknowledgeAndPoll(f.Station), nil
	case HeaderRecall:
		return message.Recall(f.Station), nil
	case HeaderControlData:
		controls, err := codec.DecodeControls(f.Station, f.Payload)
		if err != nil {
			return message.Request{}, err
		}
		return message.ControlData(f.Station, controls), nil
	case HeaderExecuteControls:
		return message.ExecuteControls(f.Station), nil
	default:
		return message.Request{}, ErrUnknownHeader
	}
}

// EncodeResponse translates a slave→master Message into wire bytes.
// Production code never calls this (the master only receives
// responses); it exists for the codec round-trip property (§8 property 7).
func EncodeResponse(resp message.Response, codec PayloadCodec) []byte {
	f := Frame{
		Header:     headerForResponse(resp.Kind),
		Station:    resp.Station,
		CRCPresent: resp.RequiresCRC(),
	}
	switch resp.Kind {
	case message.KindIndicationData:
		f.Payload = codec.EncodeIndications(resp.Station, resp.Indications)
	case message.KindControlCheckback:
		f.Payload = codec.EncodeControls(resp.Station, resp.Controls)
	}
	return EncodeFrame(f)
}

// DecodeResponse translates wire bytes into a slave→master Message.
// This is the one codec path the driver exercises in production: every
// inbound datagram is decoded through here before becoming a
// MessageReceived event.
func DecodeResponse(datagram []byte, codec PayloadCodec) (message.Response, error) {
	f, err := DecodeFrame(datagram)
	if err != nil {
		return message.Response{}, err
	}
	if isRequestHeader(f.Header) || !isCatalogued(f.Header) {
		return message.Response{}, ErrUnknownHeader
	}

	switch f.Header {
	case HeaderAcknowledge:
		return message.Acknowledge(f.Station), nil
	case HeaderIndicationData:
		indications, err := codec.DecodeIndications(f.Station, f.Payload)
		if err != nil {
			return message.Response{}, err
		}
		return message.IndicationData(f.Station, indications), nil
	case HeaderControlCheckback:
		controls, err := codec.DecodeControls(f.Station, f.Payload)
		if err != nil {
			return message.Response{}, err
		}
		return message.ControlCheckback(f.Station, controls), nil
	default:
		return message.Response{}, ErrUnknownHeader
	}
}
