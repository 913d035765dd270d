package av

import (
	"strings"

	"github.com/pkg/errors"
)

// PixelFormat is the byte layout of VideoFrame.Pixels.
type PixelFormat int

const (
	YV12 PixelFormat = iota // planar Y, Cr, Cb 4:2:0
	IYUV                    // planar Y, Cb, Cr 4:2:0
	RGB                     // packed 24 bit R, G, B
	RGBA                    // packed 32 bit R, G, B, 0xFF
	BGR                     // packed 24 bit B, G, R
	BGRA                    // packed 32 bit B, G, R, 0xFF
)

var pixelFormatNames = [...]string{"YV12", "IYUV", "RGB", "RGBA", "BGR", "BGRA"}

var ErrInvalidPixelFormat = errors.New("invalid pixel format")

func (f PixelFormat) Valid() bool {
	return f >= YV12 && f <= BGRA
}

func (f PixelFormat) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return pixelFormatNames[f]
}

func (f PixelFormat) Planar() bool {
	return f == YV12 || f == IYUV
}

func (f PixelFormat) HasAlpha() bool {
	return f == RGBA || f == BGRA
}

// BytesPerPixel is the packed pixel size; 0 for planar formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case RGB, BGR:
		return 3
	case RGBA, BGRA:
		return 4
	default:
		return 0
	}
}

// FrameSize is the pixel buffer size a frame of this format needs.
// Planar formats reserve w*h*2 bytes.
func (f PixelFormat) FrameSize(width, height int) int {
	if f.Planar() {
		return width * height * 2
	}
	return width * height * f.BytesPerPixel()
}

func ParsePixelFormat(s string) (PixelFormat, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "RGB24":
		return RGB, nil
	case "RGBA32":
		return RGBA, nil
	case "BGR24":
		return BGR, nil
	case "BGRA32":
		return BGRA, nil
	}
	for i, name := range pixelFormatNames {
		if name == s {
			return PixelFormat(i), nil
		}
	}

	return 0, errors.Wrapf(ErrInvalidPixelFormat, "parse %q", s)
}

// VideoFrame is one decoded, display-ready picture.
type VideoFrame struct {
	PlayMS uint32  // presentation time
	FPS    float64 // 0 when the stream rate is unknown
	Width  int
	Height int
	Format PixelFormat
	Pixels []byte

	// ReuseBuffer lets the decoder write into Pixels when its capacity
	// already fits the frame instead of allocating a new buffer.
	ReuseBuffer bool
}

// FrameInterval is the nominal display duration of one frame in milliseconds.
func (f *VideoFrame) FrameInterval() uint32 {
	if f.FPS == 0 {
		return 0
	}
	return uint32(1000.0 / f.FPS)
}
