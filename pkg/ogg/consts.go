package ogg

import "github.com/pkg/errors"

const (
	headerSize  = 27
	maxSegments = 255
	maxLacing   = 255

	// MaxPageSize is the largest page the format can express.
	MaxPageSize = headerSize + maxSegments + maxSegments*maxLacing
)

// header type flags
const (
	FlagContinued uint8 = 0x01
	FlagBOS       uint8 = 0x02
	FlagEOS       uint8 = 0x04
)

var capturePattern = []byte("OggS")

var (
	// ErrNeedMoreData means no complete page is buffered yet. It is not a failure.
	ErrNeedMoreData = errors.New("need more data")

	ErrSerialMismatch = errors.New("page belongs to another logical stream")
	ErrBadVersion     = errors.New("unsupported page version")

	errBufferOverflow  = errors.New("wrote past the requested buffer")
	errTooManySegments = errors.New("packets need more than 255 lacing values")
	errNegativeBufSize = errors.New("negative buffer size")
)
