package wav

import (
	"encoding/binary"
	"math/bits"
)

// byteSwapper converts integers between host order and the little-endian
// order used on disk.
type byteSwapper interface {
	swap16(v uint16) uint16
	swap32(v uint32) uint32
}

type identitySwapper struct{}

func (identitySwapper) swap16(v uint16) uint16 { return v }
func (identitySwapper) swap32(v uint32) uint32 { return v }

type reverseSwapper struct{}

func (reverseSwapper) swap16(v uint16) uint16 { return bits.ReverseBytes16(v) }
func (reverseSwapper) swap32(v uint32) uint32 { return bits.ReverseBytes32(v) }

// diskOrder is picked once for the running host.
var diskOrder = hostSwapper(binary.NativeEndian)

func hostSwapper(order binary.ByteOrder) byteSwapper {
	var b [2]byte

	order.PutUint16(b[:], 1)

	if b[0] == 1 {
		return identitySwapper{}
	}

	return reverseSwapper{}
}

func le16(b []byte) uint16 {
	return diskOrder.swap16(binary.NativeEndian.Uint16(b))
}

func le32(b []byte) uint32 {
	return diskOrder.swap32(binary.NativeEndian.Uint32(b))
}

func putLE16(b []byte, v uint16) {
	binary.NativeEndian.PutUint16(b, diskOrder.swap16(v))
}

func putLE32(b []byte, v uint32) {
	binary.NativeEndian.PutUint32(b, diskOrder.swap32(v))
}
