// Package vorbis parses the three Vorbis I header packets so an audio logical
// stream can be identified and carried alongside the video.
package vorbis

import (
	"bytes"

	"github.com/pkg/errors"

	"oggplay/pkg/av"
	"oggplay/pkg/codec"
	"oggplay/pkg/common"
)

const (
	packetIdentification = 0x01
	packetComment        = 0x03
	packetSetup          = 0x05

	identificationSize = 30
)

var magic = []byte("vorbis")

// Info is the content of the identification header.
type Info struct {
	Version        uint32
	Channels       int
	SampleRate     int
	BitrateMaximum int32
	BitrateNominal int32
	BitrateMinimum int32
	BlockSizeShort int
	BlockSizeLong  int
}

type Header struct {
	info    Info
	comment *codec.Comment
	setup   []byte
	headers int
}

func New() *Header {
	return &Header{}
}

// Probe creates a fresh Vorbis header parser.
func Probe() codec.HeaderParser {
	return New()
}

func (h *Header) Name() string {
	return "vorbis"
}

func (h *Header) Kind() codec.Kind {
	return codec.KindAudio
}

func (h *Header) HeadersDone() bool {
	return h.headers == codec.HeaderPackets
}

func (h *Header) HeaderIn(pkt *av.Packet) error {
	data := pkt.Data

	if len(data) < 7 || !bytes.Equal(data[1:7], magic) {
		if h.headers == 0 {
			return codec.ErrNotFormat
		}
		if len(data) > 0 && data[0]&0x01 == 0 {
			return codec.ErrDataPacket
		}
		return errors.Wrap(codec.ErrBadHeader, "bad magic")
	}

	switch {
	case h.HeadersDone():
		return errors.Wrap(codec.ErrBadHeader, "headers already complete")

	case data[0] == packetIdentification && h.headers == 0:
		if !pkt.BOS {
			return errors.Wrap(codec.ErrBadHeader, "identification header not at beginning of stream")
		}
		if err := parseIdentification(data, &h.info); err != nil {
			return errors.Wrap(err, "parse identification header")
		}

	case data[0] == packetComment && h.headers == 1:
		c, rest, err := codec.ParseComment(data[7:])
		if err != nil {
			return errors.Wrap(err, "parse comment header")
		}
		if len(rest) < 1 || rest[0]&0x01 == 0 {
			return errors.Wrap(codec.ErrBadHeader, "comment header framing bit")
		}
		h.comment = c

	case data[0] == packetSetup && h.headers == 2:
		if len(data) == 7 {
			return errors.Wrap(codec.ErrBadHeader, "empty setup header")
		}
		h.setup = append([]byte(nil), data[7:]...)

	default:
		if h.headers == 0 {
			return codec.ErrNotFormat
		}
		return errors.Wrapf(codec.ErrBadHeader, "unexpected header type 0x%02x after %d headers", data[0], h.headers)
	}

	h.headers++
	return nil
}

func parseIdentification(data []byte, info *Info) error {
	if len(data) < identificationSize {
		return errors.Wrapf(codec.ErrBadHeader, "identification header len=%d", len(data))
	}

	b := data[7:]
	info.Version = common.BytesAsUint32(b[0:4], false)
	info.Channels = int(b[4])
	info.SampleRate = int(common.BytesAsUint32(b[5:9], false))
	info.BitrateMaximum = int32(common.BytesAsUint32(b[9:13], false))
	info.BitrateNominal = int32(common.BytesAsUint32(b[13:17], false))
	info.BitrateMinimum = int32(common.BytesAsUint32(b[17:21], false))
	info.BlockSizeShort = 1 << (b[21] & 0x0F)
	info.BlockSizeLong = 1 << (b[21] >> 4)

	switch {
	case info.Version != 0:
		return errors.Wrapf(codec.ErrVersion, "vorbis version %d", info.Version)
	case info.Channels == 0:
		return errors.Wrap(codec.ErrBadHeader, "zero channels")
	case info.SampleRate == 0:
		return errors.Wrap(codec.ErrBadHeader, "zero sample rate")
	case info.BlockSizeShort < 64 || info.BlockSizeLong < info.BlockSizeShort || info.BlockSizeLong > 8192:
		return errors.Wrapf(codec.ErrBadHeader, "block sizes %d/%d", info.BlockSizeShort, info.BlockSizeLong)
	case b[22]&0x01 == 0:
		return errors.Wrap(codec.ErrBadHeader, "identification header framing bit")
	}

	return nil
}

func (h *Header) Info() *Info {
	return &h.info
}

func (h *Header) Setup() []byte {
	return h.setup
}

func (h *Header) Header() av.StreamHeader {
	return h
}

func (h *Header) CodecName() string {
	return h.Name()
}

func (h *Header) Vendor() string {
	if h.comment == nil {
		return ""
	}
	return h.comment.Vendor
}

func (h *Header) Comments() []string {
	if h.comment == nil {
		return nil
	}
	return h.comment.Tags
}

func (h *Header) Channels() int {
	return h.info.Channels
}

func (h *Header) SampleRate() int {
	return h.info.SampleRate
}

// EncodeHeaders builds the three header packets. The setup body is opaque.
func EncodeHeaders(info *Info, comment *codec.Comment, setup []byte) [][]byte {
	id := make([]byte, identificationSize-7)
	common.UintAsBytes(info.Version, id[0:4], false)
	id[4] = byte(info.Channels)
	common.UintAsBytes(uint32(info.SampleRate), id[5:9], false)
	common.UintAsBytes(uint32(info.BitrateMaximum), id[9:13], false)
	common.UintAsBytes(uint32(info.BitrateNominal), id[13:17], false)
	common.UintAsBytes(uint32(info.BitrateMinimum), id[17:21], false)
	id[21] = log2(info.BlockSizeShort) | log2(info.BlockSizeLong)<<4
	id[22] = 1

	commentBody := append(codec.EncodeComment(comment), 1)

	return [][]byte{
		headerPacket(packetIdentification, id),
		headerPacket(packetComment, commentBody),
		headerPacket(packetSetup, setup),
	}
}

func log2(n int) byte {
	var b byte
	for n > 1 {
		n >>= 1
		b++
	}
	return b
}

func headerPacket(typ byte, body []byte) []byte {
	b := make([]byte, 0, 7+len(body))
	b = append(b, typ)
	b = append(b, magic...)
	return append(b, body...)
}
