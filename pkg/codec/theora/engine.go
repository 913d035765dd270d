// Package theora parses Theora headers and runs the per-stream decode
// context. Picture reconstruction is delegated to a Backend.
package theora

import (
	"github.com/pkg/errors"

	"oggplay/pkg/av"
	"oggplay/pkg/codec"
)

var ErrNoBackend = errors.New("no picture backend configured")

// Engine collects the three header packets of a Theora stream.
type Engine struct {
	info    Info
	comment *codec.Comment
	setup   []byte
	headers int

	newBackend BackendFactory
}

func New(opts ...engineOption) *Engine {
	return (&Engine{}).loadOptions(opts...)
}

func (e *Engine) loadOptions(opts ...engineOption) *Engine {
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type engineOption func(*Engine)

func WithBackend(f BackendFactory) engineOption {
	return func(e *Engine) {
		e.newBackend = f
	}
}

// NewProbe returns a probe creating engines with opts.
func NewProbe(opts ...engineOption) codec.Probe {
	return func() codec.HeaderParser {
		return New(opts...)
	}
}

func (e *Engine) Name() string {
	return "theora"
}

func (e *Engine) Kind() codec.Kind {
	return codec.KindVideo
}

func (e *Engine) HeadersDone() bool {
	return e.headers == codec.HeaderPackets
}

func (e *Engine) HeaderIn(pkt *av.Packet) error {
	data := pkt.Data

	if !isHeaderPacket(data) {
		switch {
		case e.headers == 0:
			return codec.ErrNotFormat
		case len(data) == 0 || data[0]&0x80 == 0:
			return codec.ErrDataPacket
		default:
			return errors.Wrap(codec.ErrBadHeader, "bad magic")
		}
	}

	switch {
	case e.HeadersDone():
		return errors.Wrap(codec.ErrBadHeader, "headers already complete")

	case data[0] == packetInfo && e.headers == 0:
		if err := parseIdentification(data, &e.info); err != nil {
			return errors.Wrap(err, "parse identification header")
		}

	case data[0] == packetComment && e.headers == 1:
		c, _, err := codec.ParseComment(data[7:])
		if err != nil {
			return errors.Wrap(err, "parse comment header")
		}
		e.comment = c

	case data[0] == packetSetup && e.headers == 2:
		e.setup = append([]byte(nil), data[7:]...)

	default:
		if e.headers == 0 {
			return codec.ErrNotFormat
		}
		return errors.Wrapf(codec.ErrBadHeader, "unexpected header type 0x%02x after %d headers", data[0], e.headers)
	}

	e.headers++
	return nil
}

func (e *Engine) Info() *codec.VideoInfo {
	return &e.info.VideoInfo
}

// TheoraInfo exposes the full identification header.
func (e *Engine) TheoraInfo() *Info {
	return &e.info
}

func (e *Engine) Header() av.StreamHeader {
	return e
}

func (e *Engine) CodecName() string {
	return e.Name()
}

func (e *Engine) Vendor() string {
	if e.comment == nil {
		return ""
	}
	return e.comment.Vendor
}

func (e *Engine) Comments() []string {
	if e.comment == nil {
		return nil
	}
	return e.comment.Tags
}

func (e *Engine) PictureSize() (int, int) {
	return e.info.PicWidth, e.info.PicHeight
}

func (e *Engine) FrameRate() float64 {
	return e.info.FrameRate()
}

func (e *Engine) Alloc() (codec.VideoDecoder, error) {
	if !e.HeadersDone() {
		return nil, codec.ErrHeadersIncomplete
	}
	if e.newBackend == nil {
		return nil, ErrNoBackend
	}

	backend, err := e.newBackend(&e.info, e.setup)
	if err != nil {
		return nil, errors.Wrap(err, "create picture backend")
	}

	return newDecoder(&e.info, backend), nil
}
