package wire

import (
	"bytes"
	"testing"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/signal"
)

// rawPayloadCodec is a direct word-per-byte codec used only to make
// the round-trip tests independent of any signal map.
type rawPayloadCodec struct{}

func (rawPayloadCodec) EncodeControls(_ genisys.Station, s signal.Set) []byte {
	return packWords(s)
}

func (rawPayloadCodec) DecodeControls(_ genisys.Station, payload []byte) (signal.Set, error) {
	return unpackWords(payload), nil
}

func (rawPayloadCodec) EncodeIndications(_ genisys.Station, s signal.Set) []byte {
	return packWords(s)
}

func (rawPayloadCodec) DecodeIndications(_ genisys.Station, payload []byte) (signal.Set, error) {
	return unpackWords(payload), nil
}

func packWords(s signal.Set) []byte {
	var out []byte
	for i, w := range s.Words() {
		for k := 0; k < 8; k++ {
			b := byte(w >> (8 * k))
			if b != 0 {
				out = append(out, byte(i*8+k), b)
			}
		}
	}
	return out
}

func unpackWords(payload []byte) signal.Set {
	s := signal.NewSet(256)
	for i := 0; i+1 < len(payload); i += 2 {
		addr, val := payload[i], payload[i+1]
		for bit := 0; bit < 8; bit++ {
			if val&(1<<uint(bit)) != 0 {
				s = s.With(int(addr)*8 + bit)
			}
		}
	}
	return s
}

func TestFrameRoundTrip_Scenario_F(t *testing.T) {
	codec := rawPayloadCodec{}

	t.Run("Poll secure", func(t *testing.T) {
		req := message.Poll(5, true)
		wireBytes := EncodeRequest(req, codec)
		got, err := DecodeRequest(wireBytes, codec)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Kind != req.Kind || got.Station != req.Station || got.Secure != req.Secure || !got.Controls.Equal(req.Controls) {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, req)
		}
	})

	t.Run("Acknowledge", func(t *testing.T) {
		resp := message.Acknowledge(7)
		wireBytes := EncodeResponse(resp, codec)
		got, err := DecodeResponse(wireBytes, codec)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Kind != resp.Kind || got.Station != resp.Station || !got.Indications.Equal(resp.Indications) || !got.Controls.Equal(resp.Controls) {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, resp)
		}

		f, err := DecodeFrame(wireBytes)
		if err != nil {
			t.Fatalf("frame decode: %v", err)
		}
		if f.CRCPresent {
			t.Fatalf("acknowledge must never carry a CRC")
		}
	})

	t.Run("IndicationData with escape bytes", func(t *testing.T) {
		// Bits 0,1,4,5,6,7 make payload byte 0xF3, which must be escaped.
		set := signal.NewSet(32).With(0).With(1).With(4).With(5).With(6).With(7).With(15)
		resp := message.IndicationData(3, set)
		wireBytes := EncodeResponse(resp, codec)
		got, err := DecodeResponse(wireBytes, codec)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Station != resp.Station || got.Kind != resp.Kind {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, resp)
		}
		if !got.Indications.Equal(resp.Indications) {
			t.Fatalf("indications mismatch: got %+v want %+v", got.Indications, resp.Indications)
		}

		f, err := DecodeFrame(wireBytes)
		if err != nil {
			t.Fatalf("frame decode: %v", err)
		}
		if !f.CRCPresent {
			t.Fatalf("indication data must always carry a CRC")
		}
	})
}

func TestPollSecureDetectedByLength(t *testing.T) {
	codec := rawPayloadCodec{}

	secure := EncodeRequest(message.Poll(9, true), codec)
	insecure := EncodeRequest(message.Poll(9, false), codec)

	if bytes.Equal(secure, insecure) {
		t.Fatalf("secure and insecure polls must not encode identically")
	}

	sf, err := DecodeFrame(secure)
	if err != nil {
		t.Fatal(err)
	}
	if !sf.CRCPresent {
		t.Fatalf("secure poll must carry a CRC")
	}

	inf, err := DecodeFrame(insecure)
	if err != nil {
		t.Fatal(err)
	}
	if inf.CRCPresent {
		t.Fatalf("insecure poll must not carry a CRC")
	}
}

func TestDecodeFraming(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		_, err := DecodeFrame([]byte{0x00, 0x01, 0x02})
		if err != ErrFraming {
			t.Fatalf("got %v, want ErrFraming", err)
		}
	})

	t.Run("missing terminator", func(t *testing.T) {
		_, err := DecodeFrame([]byte{HeaderAcknowledge, 0x01})
		if err != ErrFraming {
			t.Fatalf("got %v, want ErrFraming", err)
		}
	})

	t.Run("trailing garbage ignored", func(t *testing.T) {
		codec := rawPayloadCodec{}
		wireBytes := EncodeResponse(message.Acknowledge(1), codec)
		wireBytes = append(wireBytes, 0xDE, 0xAD, 0xBE, 0xEF)
		got, err := DecodeResponse(wireBytes, codec)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Station != 1 {
			t.Fatalf("station mismatch: %+v", got)
		}
	})

	t.Run("dangling escape byte", func(t *testing.T) {
		wireBytes := []byte{HeaderAcknowledge, 0xF0, terminatorByte}
		_, err := DecodeFrame(wireBytes)
		if err != ErrEscape {
			t.Fatalf("got %v, want ErrEscape", err)
		}
	})

	t.Run("crc mismatch", func(t *testing.T) {
		codec := rawPayloadCodec{}
		wireBytes := EncodeResponse(message.IndicationData(2, signal.NewSet(8).With(0)), codec)
		corrupt := append([]byte(nil), wireBytes...)
		// Flip the byte just before the terminator (the CRC's high byte)
		// so the checksum no longer matches the payload.
		for i := range corrupt {
			if corrupt[i] == terminatorByte {
				corrupt[i-1] ^= 0xFF
				break
			}
		}
		_, err := DecodeResponse(corrupt, codec)
		if err != ErrCrc {
			t.Fatalf("got %v, want ErrCrc", err)
		}
	})
}
