package facade

import (
	"testing"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/signal"
)

func TestPayloadCodec_RoundTrip(t *testing.T) {
	codec := NewPayloadCodec(map[genisys.Station]int{1: 2})

	controls := signal.NewSet(16).With(0).With(8).With(15)
	encoded := codec.EncodeControls(1, controls)
	if len(encoded) != 4 {
		t.Fatalf("encoded length = %d, want 4 (2 bytes x 2 address/value pairs)", len(encoded))
	}

	decoded, err := codec.DecodeControls(1, encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(controls) {
		t.Fatalf("decoded = %+v, want %+v", decoded, controls)
	}
}

func TestPayloadCodec_DefaultDatabaseSize(t *testing.T) {
	codec := NewPayloadCodec(nil)
	encoded := codec.EncodeIndications(9, signal.NewSet(8).With(1))
	if len(encoded) != defaultDatabaseBytes*2 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), defaultDatabaseBytes*2)
	}
}

func TestPayloadCodec_MalformedPayload(t *testing.T) {
	codec := NewPayloadCodec(nil)
	_, err := codec.DecodeControls(1, []byte{0x00})
	if err != ErrMalformedPayload {
		t.Fatalf("got %v, want ErrMalformedPayload", err)
	}
}

func TestPayloadCodec_SkipsReservedAddresses(t *testing.T) {
	codec := NewPayloadCodec(nil)
	// Address 0xE0 is reserved for configuration (§6), not signal data.
	decoded, err := codec.DecodeControls(1, []byte{0xE0, 0xFF})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Count() != 0 {
		t.Fatalf("reserved address bytes must not produce signals, got count=%d", decoded.Count())
	}
}
