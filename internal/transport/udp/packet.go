// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Amplitude Count   | uint16         | 2            | Number of floats (N)    |
| Amplitudes        | []float32      | N * 4        | Band amplitudes, [0, 1] |
+-----------------------------------------------------------------------------+

Visual Layout:

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Amplitude   |       Amplitudes        |
|      (uint32)     |        (int64)        |     Count     |      (N * float32)      |
|                   |                       |    (uint16)   |                         |
+-------------------+-----------------------+---------------+-------------------------+
*/

// HeaderSize is the length of the fixed packet header.
const HeaderSize = 4 + 8 + 2

// MaxPayload is the largest UDP payload over IPv4.
const MaxPayload = 65507

// MaxAmplitudes is the most values that fit in one datagram.
const MaxAmplitudes = (MaxPayload - HeaderSize) / 4

// ErrShortPacket is returned when a packet is shorter than its header claims.
var ErrShortPacket = errors.New("short UDP packet")

// Packet is the decoded form of one datagram.
type Packet struct {
	Seq        uint32
	Timestamp  int64 // Nanoseconds since the Unix epoch.
	Amplitudes []float32
}

// AppendPacket appends the encoding of seq, timestamp and amplitudes to dst.
// Amplitudes past MaxAmplitudes are not encoded.
func AppendPacket(dst []byte, seq uint32, timestamp int64, amplitudes []float64) []byte {
	n := min(len(amplitudes), MaxAmplitudes)
	dst = binary.BigEndian.AppendUint32(dst, seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(timestamp))
	dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	for _, v := range amplitudes[:n] {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(v)))
	}
	return dst
}

// DecodePacket parses one datagram.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: %d bytes, header is %d", ErrShortPacket, len(b), HeaderSize)
	}

	p := Packet{
		Seq:       binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	count := int(binary.BigEndian.Uint16(b[12:14]))
	body := b[HeaderSize:]
	if len(body) < count*4 {
		return Packet{}, fmt.Errorf("%w: %d amplitudes need %d bytes, have %d", ErrShortPacket, count, count*4, len(body))
	}

	p.Amplitudes = make([]float32, count)
	for i := range p.Amplitudes {
		p.Amplitudes[i] = math.Float32frombits(binary.BigEndian.Uint32(body[i*4:]))
	}
	return p, nil
}
