package theora

import (
	"github.com/pkg/errors"

	"oggplay/pkg/av"
	"oggplay/pkg/codec"
)

// MaxPostProcessingLevel is the strongest deblocking/deringing level.
const MaxPostProcessingLevel = 7

// Decoder tracks frame numbering for one stream and hands packet payloads to
// the backend.
type Decoder struct {
	info    *Info
	backend Backend
	pic     *av.Picture

	bias        int64
	keyframeNum int64 // index of the last keyframe
	curFrameNum int64 // index of the last decoded frame
	granulePos  int64

	ppLevel int
	decoded bool
	closed  bool
}

func newDecoder(info *Info, backend Backend) *Decoder {
	pic := av.NewPicture(info.FrameWidth, info.FrameHeight)
	pic.PicX = info.PicX
	pic.PicY = info.PicY
	pic.PicWidth = info.PicWidth
	pic.PicHeight = info.PicHeight

	return &Decoder{
		info:        info,
		backend:     backend,
		pic:         pic,
		bias:        info.granuleBias(),
		curFrameNum: -1,
		granulePos:  -1,
	}
}

func (d *Decoder) SetGranulePos(granulePos int64) error {
	if granulePos < 0 {
		return errors.Wrapf(codec.ErrInvalidArgument, "granule position %d", granulePos)
	}

	shift := d.info.KeyframeGranuleShift
	iframe := granulePos >> shift
	pframe := granulePos - iframe<<shift

	d.keyframeNum = iframe - d.bias
	// PacketIn advances to the pinned frame
	d.curFrameNum = d.keyframeNum + pframe - 1
	return nil
}

func (d *Decoder) PacketIn(pkt *av.Packet) (int64, error) {
	if d.closed {
		return -1, codec.ErrClosed
	}

	data := pkt.Data
	if len(data) > 0 && data[0]&0x80 != 0 {
		return -1, errors.Wrap(codec.ErrBadPacket, "header packet in data stream")
	}

	d.curFrameNum++

	if len(data) == 0 {
		d.updateGranulePos()
		return d.granulePos, codec.ErrDupFrame
	}

	keyframe := data[0]&0x40 == 0
	if keyframe {
		d.keyframeNum = d.curFrameNum
	} else if !d.decoded {
		// nothing to predict from yet
		d.updateGranulePos()
		return d.granulePos, codec.ErrDupFrame
	}

	if err := d.backend.DecodeFrame(data, keyframe, d.pic); err != nil {
		d.updateGranulePos()
		return -1, errors.Wrapf(codec.ErrBadPacket, "backend decode frame: %v", err)
	}

	d.decoded = true
	d.updateGranulePos()
	return d.granulePos, nil
}

func (d *Decoder) updateGranulePos() {
	d.granulePos = (d.keyframeNum+d.bias)<<d.info.KeyframeGranuleShift + (d.curFrameNum - d.keyframeNum)
}

func (d *Decoder) PictureOut() (*av.Picture, error) {
	if d.closed {
		return nil, codec.ErrClosed
	}
	if !d.decoded {
		return nil, errors.New("no picture decoded yet")
	}
	return d.pic, nil
}

func (d *Decoder) GranuleTime(granulePos int64) float64 {
	return GranuleTime(d.info, granulePos)
}

func (d *Decoder) PostProcessingLevelMax() int {
	return MaxPostProcessingLevel
}

func (d *Decoder) SetPostProcessingLevel(level int) error {
	if level < 0 || level > MaxPostProcessingLevel {
		return errors.Wrapf(codec.ErrInvalidArgument, "post-processing level %d", level)
	}

	if pp, ok := d.backend.(PostProcessor); ok {
		if err := pp.SetPostProcessingLevel(level); err != nil {
			return errors.Wrap(err, "backend set post-processing level")
		}
	}
	d.ppLevel = level
	return nil
}

// PostProcessingLevel is the level last set.
func (d *Decoder) PostProcessingLevel() int {
	return d.ppLevel
}

func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.backend.Close()
}

// GranuleTime is the end time in seconds of the frame at granulePos, or -1
// when the position is invalid.
func GranuleTime(info *Info, granulePos int64) float64 {
	if granulePos < 0 {
		return -1
	}
	if info.FPSNumerator == 0 {
		return 0
	}

	iframe := granulePos >> info.KeyframeGranuleShift
	pframe := granulePos - iframe<<info.KeyframeGranuleShift
	return float64(iframe+pframe) * float64(info.FPSDenominator) / float64(info.FPSNumerator)
}

// GranuleFrame is the zero-based frame index of granulePos.
func GranuleFrame(info *Info, granulePos int64) int64 {
	if granulePos < 0 {
		return -1
	}

	iframe := granulePos >> info.KeyframeGranuleShift
	pframe := granulePos - iframe<<info.KeyframeGranuleShift
	return iframe + pframe - info.granuleBias()
}
