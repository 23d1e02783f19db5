// Package ws implements the server side of the WebSocket wire protocol from
// RFC 6455: frame encoding and decoding, the upgrade handshake, and the
// registry of live connections.
package ws

import "encoding/binary"

// Frame opcodes per RFC 6455 Section 5.2.
const (
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA
)

const (
	finBit  = 0x80
	maskBit = 0x80
)

// EncodeText wraps payload in a single unmasked FIN+text frame with the
// three-tier length encoding: 7-bit, 16-bit, or 64-bit big-endian.
func EncodeText(payload []byte) []byte {
	n := len(payload)

	var header []byte
	switch {
	case n <= 125:
		header = []byte{finBit | OpcodeText, byte(n)}
	case n <= 65535:
		header = make([]byte, 4)
		header[0] = finBit | OpcodeText
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:], uint16(n))
	default:
		header = make([]byte, 10)
		header[0] = finBit | OpcodeText
		header[1] = 127
		binary.BigEndian.PutUint64(header[2:], uint64(n))
	}

	frame := make([]byte, 0, len(header)+n)
	frame = append(frame, header...)
	frame = append(frame, payload...)
	return frame
}

// DecodeFrames walks buf, which may hold zero or more complete frames, and
// returns the unmasked text payloads it finds. Bytes belonging to a frame that
// extends past the buffer are returned in rest so the caller can carry them
// into the next read. A close frame stops decoding and sets closed.
func DecodeFrames(buf []byte) (messages []string, rest []byte, closed bool) {
	offset := 0
	for offset+2 <= len(buf) {
		b0 := buf[offset]
		b1 := buf[offset+1]
		opcode := b0 & 0x0F
		masked := b1&maskBit != 0
		payloadLen := uint64(b1 & 0x7F)
		headerLen := 2

		switch payloadLen {
		case 126:
			if offset+4 > len(buf) {
				return messages, buf[offset:], false
			}
			payloadLen = uint64(binary.BigEndian.Uint16(buf[offset+2 : offset+4]))
			headerLen += 2
		case 127:
			if offset+10 > len(buf) {
				return messages, buf[offset:], false
			}
			payloadLen = binary.BigEndian.Uint64(buf[offset+2 : offset+10])
			headerLen += 8
		}

		var mask [4]byte
		if masked {
			if offset+headerLen+4 > len(buf) {
				return messages, buf[offset:], false
			}
			copy(mask[:], buf[offset+headerLen:offset+headerLen+4])
			headerLen += 4
		}

		if uint64(len(buf)-offset-headerLen) < payloadLen {
			return messages, buf[offset:], false
		}

		if opcode == OpcodeClose {
			return messages, nil, true
		}

		payload := make([]byte, payloadLen)
		copy(payload, buf[offset+headerLen:offset+headerLen+int(payloadLen)])
		if masked {
			for i := range payload {
				payload[i] ^= mask[i%4]
			}
		}
		messages = append(messages, string(payload))

		offset += headerLen + int(payloadLen)
	}
	return messages, buf[offset:], false
}
