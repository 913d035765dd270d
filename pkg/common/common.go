package common

// uint32 ==> []byte
func UintAsBytes(val uint32, buffer []byte, bigEndian bool) {
	Uint64AsBytes(uint64(val), buffer, bigEndian)
}

// uint64 ==> []byte, len(buffer) bytes are written
func Uint64AsBytes(val uint64, buffer []byte, bigEndian bool) {
	n := len(buffer)
	for i := 0; i < n; i++ {
		if bigEndian {
			v := val >> uint((n-i-1)<<3)
			buffer[i] = byte(v) & 0xff
		} else {
			buffer[i] = byte(val) & 0xff
			val = val >> 8
		}
	}
}

// bytes ==> uint32
func BytesAsUint32(buffer []byte, bigEndian bool) uint32 {
	return uint32(BytesAsUint64(buffer, bigEndian))
}

// bytes ==> uint64
func BytesAsUint64(buffer []byte, bigEndian bool) uint64 {
	ret := uint64(0)

	n := len(buffer)
	for i := 0; i < n; i++ {
		if bigEndian {
			ret = ret<<8 + uint64(buffer[i])
		} else {
			ret += uint64(buffer[i]) << uint(i*8)
		}
	}

	return ret
}

// reads a little endian length-prefixed string (vorbis/theora comment layout)
func ReadLengthPrefixed(b []byte) (s []byte, rest []byte, ok bool) {
	if len(b) < 4 {
		return nil, b, false
	}

	n := BytesAsUint32(b[:4], false)
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return nil, b, false
	}

	return b[:n], b[n:], true
}
