package ogg

// Ogg uses the non-reflected CRC-32 (polynomial 0x04c11db7, init 0, no final xor).
const crcPoly = 0x04c11db7

var crcTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ crcPoly
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return
}()

func crcUpdate(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

var zeroCRC [4]byte

// pageChecksum computes the checksum of an encoded page with its CRC field treated as zero.
func pageChecksum(raw []byte) uint32 {
	crc := crcUpdate(0, raw[:22])
	crc = crcUpdate(crc, zeroCRC[:])
	return crcUpdate(crc, raw[26:])
}
