// Package player drives Ogg Theora/Vorbis playback: it negotiates the stream
// headers, decodes the video stream and hands out timestamped frames in the
// pixel format chosen at open time.
package player

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"oggplay/pkg/av"
	"oggplay/pkg/codec"
)

type playerState int

const (
	stateClosed playerState = iota
	stateOpened
	statePrepared
	stateFailed
)

// Player is the facade over one decode session. It is not safe for
// concurrent use; run one Player per goroutine.
type Player struct {
	cfg    *config
	logger *zap.Logger

	pixelPool sync.Pool

	state   playerState
	src     Source
	format  av.PixelFormat
	session *Session
}

func New(opts ...Option) *Player {
	p := &Player{
		cfg: newConfig(opts...),
	}
	p.cfg.pixelPool = &p.pixelPool
	p.logger = p.cfg.logger
	return p
}

// OpenFile opens path as the source and fixes the output pixel format.
func (p *Player) OpenFile(path string, format av.PixelFormat) (Status, error) {
	if p.state == stateOpened || p.state == statePrepared {
		return StatusError, ErrAlreadyOpen
	}

	src, err := OpenFileSource(path)
	if err != nil {
		p.logger.Error("open file failed", zap.String("path", path), zap.Error(err))
		return StatusError, err
	}

	st, err := p.Open(src, format)
	if err != nil {
		return st, err
	}

	p.logger.Info("file opened", zap.String("path", path), zap.Stringer("format", format))
	return st, nil
}

// Open takes ownership of src. src is closed by Close, or right away when
// the format is rejected.
func (p *Player) Open(src Source, format av.PixelFormat) (Status, error) {
	if p.state == stateOpened || p.state == statePrepared {
		return StatusError, ErrAlreadyOpen
	}
	if p.state == stateFailed {
		p.Close()
	}

	if !format.Valid() {
		if err := src.Close(); err != nil {
			p.logger.Warn("close source failed", zap.Error(err))
		}
		return StatusError, errors.Wrapf(av.ErrInvalidPixelFormat, "format %d", format)
	}

	p.src = src
	p.format = format
	p.state = stateOpened
	return StatusOK, nil
}

// Prepare negotiates the stream headers. A failure tears the session down;
// the player must be closed and reopened.
func (p *Player) Prepare() (Status, error) {
	switch p.state {
	case stateClosed:
		return StatusError, ErrNotOpen
	case statePrepared:
		return StatusError, ErrAlreadyPrepared
	case stateFailed:
		return StatusError, ErrSessionFailed
	}

	s, err := newSession(p.src, p.format, p.cfg)
	if err != nil {
		p.state = stateFailed
		return StatusError, errors.Wrap(err, "new session")
	}

	if err := s.Prepare(); err != nil {
		p.state = stateFailed
		return StatusError, errors.Wrap(err, "prepare session")
	}

	p.session = s
	p.state = statePrepared
	return StatusOK, nil
}

// GetFrame decodes the next frame into frame. StatusNoFrame means a
// duplicate frame, a skipped bad packet or end of stream; check IsDecoding to
// tell them apart. A nil frame is rejected without ending the session.
func (p *Player) GetFrame(frame *av.VideoFrame) (Status, error) {
	switch p.state {
	case stateClosed, stateOpened:
		return StatusError, ErrNotPrepared
	case stateFailed:
		return StatusError, ErrSessionFailed
	}

	if frame == nil {
		return StatusError, errors.Wrap(codec.ErrInvalidArgument, "nil frame")
	}

	st, err := p.session.DecodeNextFrame(frame)
	if st == StatusError {
		p.state = stateFailed
		p.session.Close()
	}
	return st, err
}

// IsDecoding reports whether a prepared session may still produce frames.
func (p *Player) IsDecoding() bool {
	return p.state == statePrepared && p.session.Active()
}

// AudioPacket pops the oldest audio packet collected while decoding video.
func (p *Player) AudioPacket() (*av.Packet, bool) {
	if p.session == nil {
		return nil, false
	}
	return p.session.AudioPacket()
}

// Info describes the negotiated streams; nil before Prepare succeeds.
func (p *Player) Info() *StreamInfo {
	if p.state != statePrepared {
		return nil
	}
	return p.session.Info()
}

// FreeFrame releases the pixel buffer of frame for reuse. It is safe to call
// on a frame without pixels.
func (p *Player) FreeFrame(frame *av.VideoFrame) {
	if frame == nil || frame.Pixels == nil {
		return
	}

	b := frame.Pixels[:0]
	p.pixelPool.Put(&b)
	frame.Pixels = nil
}

// Close releases the session and the source. It is idempotent.
func (p *Player) Close() error {
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}

	var err error
	if p.src != nil {
		err = p.src.Close()
		p.src = nil
	}

	p.state = stateClosed
	return errors.Wrap(err, "close source")
}
