package codec

import (
	"encoding/binary"
	"math"

	"golang.org/x/sys/cpu"
)

// ByteOrder is the wire byte order of a D-Bus message. It mirrors the
// teacher's fragments.ByteOrder: a thin wrapper over encoding/binary
// that also knows the D-Bus byte-order-mark byte ('l' or 'B').
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder

	// Flag returns the D-Bus wire byte-order-mark byte for this order
	// ('l' for little-endian, 'B' for big-endian).
	Flag() byte
}

type wrapStd struct {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (w wrapStd) String() string {
	return w.ByteOrder.String()
}

func (w wrapStd) Flag() byte {
	switch w.ByteOrder {
	case binary.BigEndian:
		return 'B'
	case binary.LittleEndian:
		return 'l'
	default:
		if cpu.IsBigEndian {
			return 'B'
		}
		return 'l'
	}
}

var (
	BigEndian    ByteOrder = wrapStd{binary.BigEndian, binary.BigEndian}
	LittleEndian ByteOrder = wrapStd{binary.LittleEndian, binary.LittleEndian}
)

// OrderForFlag returns the ByteOrder corresponding to a D-Bus wire
// byte-order-mark byte.
func OrderForFlag(b byte) (ByteOrder, bool) {
	switch b {
	case 'l':
		return LittleEndian, true
	case 'B':
		return BigEndian, true
	default:
		return nil, false
	}
}

// orderFor returns the ByteOrder to use for a payload whose
// isByteSwapped flag declares whether it was serialised in the
// opposite endianness from this process.
func orderFor(isByteSwapped bool) ByteOrder {
	native := LittleEndian
	if cpu.IsBigEndian {
		native = BigEndian
	}
	if !isByteSwapped {
		return native
	}
	if native == LittleEndian {
		return BigEndian
	}
	return LittleEndian
}

func readUint16(b []byte, order ByteOrder) uint16 { return order.Uint16(b) }
func readUint32(b []byte, order ByteOrder) uint32 { return order.Uint32(b) }
func readUint64(b []byte, order ByteOrder) uint64 { return order.Uint64(b) }
func readInt16(b []byte, order ByteOrder) int16   { return int16(order.Uint16(b)) }
func readInt32(b []byte, order ByteOrder) int32   { return int32(order.Uint32(b)) }
func readInt64(b []byte, order ByteOrder) int64   { return int64(order.Uint64(b)) }
func readDouble(b []byte, order ByteOrder) float64 {
	return math.Float64frombits(order.Uint64(b))
}

func writeUint16(b []byte, order ByteOrder, v uint16) { order.PutUint16(b, v) }
func writeUint32(b []byte, order ByteOrder, v uint32) { order.PutUint32(b, v) }
func writeUint64(b []byte, order ByteOrder, v uint64) { order.PutUint64(b, v) }
func writeInt16(b []byte, order ByteOrder, v int16)   { order.PutUint16(b, uint16(v)) }
func writeInt32(b []byte, order ByteOrder, v int32)   { order.PutUint32(b, uint32(v)) }
func writeInt64(b []byte, order ByteOrder, v int64)   { order.PutUint64(b, uint64(v)) }
func writeDouble(b []byte, order ByteOrder, v float64) {
	order.PutUint64(b, math.Float64bits(v))
}
