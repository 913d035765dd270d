package theora

import (
	"bytes"

	"github.com/pkg/errors"

	"oggplay/pkg/codec"
)

const (
	packetInfo    = 0x80
	packetComment = 0x81
	packetSetup   = 0x82

	identificationSize = 42
)

var magic = []byte("theora")

// Info is the content of the identification header.
type Info struct {
	codec.VideoInfo

	VersionMajor    uint8
	VersionMinor    uint8
	VersionSubminor uint8

	AspectNumerator   uint32
	AspectDenominator uint32
	TargetBitrate     uint32
	Quality           int

	KeyframeGranuleShift uint
}

func (i *Info) versionAtLeast(major, minor, subminor uint8) bool {
	if i.VersionMajor != major {
		return i.VersionMajor > major
	}
	if i.VersionMinor != minor {
		return i.VersionMinor > minor
	}
	return i.VersionSubminor >= subminor
}

// granuleBias is 1 for streams that count frames from one (3.2.1 and later).
func (i *Info) granuleBias() int64 {
	if i.versionAtLeast(3, 2, 1) {
		return 1
	}
	return 0
}

func isHeaderPacket(data []byte) bool {
	return len(data) >= 7 && data[0]&0x80 != 0 && bytes.Equal(data[1:7], magic)
}

func parseIdentification(data []byte, info *Info) error {
	if len(data) < identificationSize {
		return errors.Wrapf(codec.ErrBadHeader, "identification header len=%d", len(data))
	}

	r := newBitReader(data[7:])
	info.VersionMajor = uint8(r.readUint32(8))
	info.VersionMinor = uint8(r.readUint32(8))
	info.VersionSubminor = uint8(r.readUint32(8))
	if info.VersionMajor != 3 || info.VersionMinor > 2 {
		return errors.Wrapf(codec.ErrVersion, "theora %d.%d.%d", info.VersionMajor, info.VersionMinor, info.VersionSubminor)
	}

	fmbw := r.readInt(16)
	fmbh := r.readInt(16)
	if fmbw == 0 || fmbh == 0 {
		return errors.Wrap(codec.ErrBadHeader, "zero frame size")
	}
	info.FrameWidth = fmbw << 4
	info.FrameHeight = fmbh << 4

	info.PicWidth = r.readInt(24)
	info.PicHeight = r.readInt(24)
	info.PicX = r.readInt(8)
	picY := r.readInt(8)
	if info.PicX+info.PicWidth > info.FrameWidth || picY+info.PicHeight > info.FrameHeight {
		return errors.Wrapf(codec.ErrBadHeader, "picture %dx%d+%d+%d outside frame %dx%d",
			info.PicWidth, info.PicHeight, info.PicX, picY, info.FrameWidth, info.FrameHeight)
	}
	// the bitstream counts picture rows from the bottom
	info.PicY = info.FrameHeight - info.PicHeight - picY

	info.FPSNumerator = r.readUint32(32)
	info.FPSDenominator = r.readUint32(32)
	info.AspectNumerator = r.readUint32(24)
	info.AspectDenominator = r.readUint32(24)
	info.ColorSpace = codec.ColorSpace(r.readInt(8))
	info.TargetBitrate = r.readUint32(24)
	info.Quality = r.readInt(6)
	info.KeyframeGranuleShift = uint(r.readInt(5))
	info.Subsampling = codec.Subsampling(r.readInt(2))
	reserved := r.readInt(3)

	if info.Subsampling == codec.SubsamplingReserved {
		return errors.Wrap(codec.ErrBadHeader, "reserved pixel format")
	}
	if reserved != 0 {
		return errors.Wrap(codec.ErrBadHeader, "reserved bits set")
	}
	if r.overflow {
		return errors.Wrap(codec.ErrBadHeader, "identification header truncated")
	}

	return nil
}

// EncodeHeaders builds the three header packets for info, comment and setup
// data. The picture offset in info is top-origin.
func EncodeHeaders(info *Info, comment *codec.Comment, setup []byte) [][]byte {
	w := newBitWriter(identificationSize - 7)
	w.putUint32(8, uint32(info.VersionMajor))
	w.putUint32(8, uint32(info.VersionMinor))
	w.putUint32(8, uint32(info.VersionSubminor))
	w.putUint32(16, uint32(info.FrameWidth>>4))
	w.putUint32(16, uint32(info.FrameHeight>>4))
	w.putUint32(24, uint32(info.PicWidth))
	w.putUint32(24, uint32(info.PicHeight))
	w.putUint32(8, uint32(info.PicX))
	w.putUint32(8, uint32(info.FrameHeight-info.PicHeight-info.PicY))
	w.putUint32(32, info.FPSNumerator)
	w.putUint32(32, info.FPSDenominator)
	w.putUint32(24, info.AspectNumerator)
	w.putUint32(24, info.AspectDenominator)
	w.putUint32(8, uint32(info.ColorSpace))
	w.putUint32(24, info.TargetBitrate)
	w.putUint32(6, uint32(info.Quality))
	w.putUint32(5, uint32(info.KeyframeGranuleShift))
	w.putUint32(2, uint32(info.Subsampling))
	w.putUint32(3, 0)

	return [][]byte{
		headerPacket(packetInfo, w.bytes()),
		headerPacket(packetComment, codec.EncodeComment(comment)),
		headerPacket(packetSetup, setup),
	}
}

func headerPacket(typ byte, body []byte) []byte {
	b := make([]byte, 0, 7+len(body))
	b = append(b, typ)
	b = append(b, magic...)
	return append(b, body...)
}
