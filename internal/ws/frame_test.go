package ws

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

// maskedTextFrame builds a client-to-server frame: FIN+text, masked with key.
func maskedTextFrame(payload string, key [4]byte) []byte {
	n := len(payload)

	var frame []byte
	switch {
	case n <= 125:
		frame = []byte{finBit | OpcodeText, maskBit | byte(n)}
	case n <= 65535:
		frame = []byte{finBit | OpcodeText, maskBit | 126, 0, 0}
		binary.BigEndian.PutUint16(frame[2:], uint16(n))
	default:
		frame = make([]byte, 10)
		frame[0] = finBit | OpcodeText
		frame[1] = maskBit | 127
		binary.BigEndian.PutUint64(frame[2:], uint64(n))
	}

	frame = append(frame, key[:]...)
	for i := 0; i < n; i++ {
		frame = append(frame, payload[i]^key[i%4])
	}
	return frame
}

func TestEncodeTextLengthTiers(t *testing.T) {
	tests := []struct {
		name       string
		payloadLen int
		headerLen  int
	}{
		{"empty", 0, 2},
		{"short", 1, 2},
		{"maxShort", 125, 2},
		{"extended16", 126, 4},
		{"maxExtended16", 65535, 4},
		{"extended64", 65536, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := strings.Repeat("a", tt.payloadLen)
			frame := EncodeText([]byte(payload))

			if len(frame) != tt.headerLen+tt.payloadLen {
				t.Fatalf("frame length = %d, want %d", len(frame), tt.headerLen+tt.payloadLen)
			}
			if frame[0] != finBit|OpcodeText {
				t.Errorf("first byte = %#x, want FIN+text", frame[0])
			}
			if frame[1]&maskBit != 0 {
				t.Error("server frame must not set the mask bit")
			}
			if !bytes.Equal(frame[tt.headerLen:], []byte(payload)) {
				t.Error("payload bytes differ")
			}

			messages, rest, closed := DecodeFrames(frame)
			if closed || len(rest) != 0 {
				t.Fatalf("DecodeFrames() closed=%v rest=%d, want clean decode", closed, len(rest))
			}
			if len(messages) != 1 || messages[0] != payload {
				t.Errorf("DecodeFrames() did not round-trip the payload")
			}
		})
	}
}

func TestDecodeFramesUnmasksClientPayload(t *testing.T) {
	frame := maskedTextFrame(`{"type":"GET_PRODUCTS"}`, [4]byte{0x12, 0x34, 0x56, 0x78})

	messages, rest, closed := DecodeFrames(frame)
	if closed || len(rest) != 0 {
		t.Fatalf("DecodeFrames() closed=%v rest=%d", closed, len(rest))
	}
	if len(messages) != 1 || messages[0] != `{"type":"GET_PRODUCTS"}` {
		t.Errorf("DecodeFrames() = %q, want the unmasked payload", messages)
	}
}

func TestDecodeFramesMultipleInOneBuffer(t *testing.T) {
	var buf []byte
	buf = append(buf, maskedTextFrame("first", [4]byte{1, 2, 3, 4})...)
	buf = append(buf, maskedTextFrame("second", [4]byte{9, 8, 7, 6})...)
	buf = append(buf, EncodeText([]byte("third"))...)

	messages, rest, closed := DecodeFrames(buf)
	if closed || len(rest) != 0 {
		t.Fatalf("DecodeFrames() closed=%v rest=%d", closed, len(rest))
	}
	want := []string{"first", "second", "third"}
	if len(messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(messages), len(want))
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Errorf("messages[%d] = %q, want %q", i, messages[i], want[i])
		}
	}
}

func TestDecodeFramesKeepsPartialTail(t *testing.T) {
	full := maskedTextFrame("hello there", [4]byte{5, 5, 5, 5})

	for cut := 1; cut < len(full); cut++ {
		head := full[:cut]
		messages, rest, closed := DecodeFrames(head)
		if closed {
			t.Fatalf("cut=%d: unexpected close", cut)
		}
		if len(messages) != 0 {
			t.Fatalf("cut=%d: decoded %d messages from a partial frame", cut, len(messages))
		}
		if cut >= 2 && !bytes.Equal(rest, head) {
			t.Fatalf("cut=%d: tail does not preserve the partial frame", cut)
		}

		// Completing the buffer must decode exactly one message.
		messages, rest, closed = DecodeFrames(append(rest, full[cut:]...))
		if closed || len(rest) != 0 || len(messages) != 1 || messages[0] != "hello there" {
			t.Fatalf("cut=%d: resumed decode = (%q, %d, %v)", cut, messages, len(rest), closed)
		}
	}
}

func TestDecodeFramesCloseOpcode(t *testing.T) {
	var buf []byte
	buf = append(buf, maskedTextFrame("last words", [4]byte{1, 1, 1, 1})...)
	buf = append(buf, finBit|OpcodeClose, 0)
	buf = append(buf, maskedTextFrame("after close", [4]byte{2, 2, 2, 2})...)

	messages, rest, closed := DecodeFrames(buf)
	if !closed {
		t.Fatal("DecodeFrames() closed = false, want true")
	}
	if len(rest) != 0 {
		t.Errorf("rest = %d bytes, want none after close", len(rest))
	}
	if len(messages) != 1 || messages[0] != "last words" {
		t.Errorf("messages before close = %q, want [last words]", messages)
	}
}
