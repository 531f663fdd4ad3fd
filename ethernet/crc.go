package ethernet

import (
	"encoding/binary"
	"hash/crc32"
)

// CRC32Search searches for a valid frame check sequence in data starting
// from minOffCRC. It computes the CRC incrementally, checking at each
// position whether it matches the next 4 bytes (little-endian FCS) found
// there. Returns the offset where a valid CRC was found, or -1 if none
// exists. Used by the signal bridge when a frame's exact length is unknown
// ahead of decoding (e.g. after Manchester decode, before a delimiter is
// located).
func CRC32Search(data []byte, minOffCRC int) (foundOffOrNegative int) {
	if minOffCRC < 0 {
		minOffCRC = 0
	}
	if len(data) < minOffCRC+4 {
		return -1
	}
	crc := crc32.Checksum(data[:minOffCRC], crc32.IEEETable)
	for off := minOffCRC; off <= len(data)-4; off++ {
		got := binary.LittleEndian.Uint32(data[off:])
		if crc == got {
			return off
		}
		crc = crc32.Update(crc, crc32.IEEETable, data[off:off+1])
	}
	return -1
}
