// Package codec defines the capability interfaces the decode session drives:
// header parsers that identify logical streams, and the video decode context
// allocated once all headers are in.
package codec

import (
	"github.com/pkg/errors"

	"oggplay/pkg/av"
)

// HeaderPackets is the number of header packets each supported codec sends
// before its first data packet.
const HeaderPackets = 3

type Kind int

const (
	_ Kind = iota
	KindVideo
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

func (k Kind) PacketType() av.AVPacketType {
	switch k {
	case KindVideo:
		return av.VideoType
	case KindAudio:
		return av.AudioType
	default:
		return 0
	}
}

var (
	// ErrNotFormat is returned for a first packet that belongs to another codec.
	ErrNotFormat = errors.New("not a header of this codec")

	ErrBadHeader  = errors.New("malformed header packet")
	ErrVersion    = errors.New("unsupported bitstream version")
	ErrDataPacket = errors.New("data packet before headers completed")
	ErrBadPacket  = errors.New("malformed data packet")

	ErrHeadersIncomplete = errors.New("headers incomplete")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrClosed            = errors.New("decoder closed")

	// ErrDupFrame means the packet was consumed but repeats the previous
	// picture. It is not a failure.
	ErrDupFrame = errors.New("duplicate frame")
)

// HeaderParser consumes the header packets of one logical stream.
type HeaderParser interface {
	Name() string
	Kind() Kind

	// HeaderIn feeds the next header packet. On the first packet it returns
	// ErrNotFormat if the stream belongs to another codec.
	HeaderIn(pkt *av.Packet) error
	HeadersDone() bool

	Header() av.StreamHeader
}

// Probe creates a fresh parser for a newly discovered logical stream.
type Probe func() HeaderParser

type ColorSpace int

const (
	ColorSpaceUnspecified ColorSpace = iota
	ColorSpaceRec470M                // NTSC
	ColorSpaceRec470BG               // PAL/SECAM
)

type Subsampling int

const (
	Subsampling420 Subsampling = iota
	SubsamplingReserved
	Subsampling422
	Subsampling444
)

// VideoInfo is the stream geometry and timing learnt from the headers.
type VideoInfo struct {
	FrameWidth  int
	FrameHeight int

	// visible rectangle, origin top-left
	PicWidth  int
	PicHeight int
	PicX      int
	PicY      int

	FPSNumerator   uint32
	FPSDenominator uint32

	ColorSpace  ColorSpace
	Subsampling Subsampling
}

// FrameRate is 0 when the denominator is 0.
func (vi *VideoInfo) FrameRate() float64 {
	if vi.FPSDenominator == 0 {
		return 0
	}
	return float64(vi.FPSNumerator) / float64(vi.FPSDenominator)
}

type VideoEngine interface {
	HeaderParser
	Info() *VideoInfo

	// Alloc creates the decode context. Headers must be complete.
	Alloc() (VideoDecoder, error)
}

type VideoDecoder interface {
	// SetGranulePos pins the position of the next packet passed to PacketIn.
	SetGranulePos(granulePos int64) error

	// PacketIn decodes one packet and returns its granule position. ErrDupFrame
	// means no new picture was produced; ErrBadPacket means the packet could
	// not be decoded and later packets may still be.
	PacketIn(pkt *av.Packet) (int64, error)

	// PictureOut returns the most recently decoded picture. It stays valid
	// until the next PacketIn.
	PictureOut() (*av.Picture, error)

	// GranuleTime converts a granule position to seconds; negative for an
	// invalid position.
	GranuleTime(granulePos int64) float64

	PostProcessingLevelMax() int
	SetPostProcessingLevel(level int) error

	Close() error
}

// Candidates tries each probe against the first packet of a stream and
// returns the first parser that accepts it, skipping kinds already bound.
func Candidates(probes []Probe, pkt *av.Packet, skip func(Kind) bool) (HeaderParser, error) {
	for _, probe := range probes {
		parser := probe()
		if skip != nil && skip(parser.Kind()) {
			continue
		}

		if err := parser.HeaderIn(pkt); err == nil {
			return parser, nil
		}
	}

	return nil, ErrNotFormat
}
