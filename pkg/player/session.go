package player

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"oggplay/pkg/av"
	"oggplay/pkg/codec"
	"oggplay/pkg/convert"
	"oggplay/pkg/ogg"
)

type State int

const (
	StateAwaitingHeader State = iota
	StateReady
	StateDecoding
	StateStarved
	StateEndOfStream
	StateError
)

func (s State) String() string {
	switch s {
	case StateAwaitingHeader:
		return "awaiting header"
	case StateReady:
		return "ready"
	case StateDecoding:
		return "decoding"
	case StateStarved:
		return "starved"
	case StateEndOfStream:
		return "end of stream"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StreamInfo describes the streams a session bound during negotiation.
type StreamInfo struct {
	VideoSerial uint32
	Video       av.VideoHeader

	// zero values when audio is optional and absent
	AudioSerial uint32
	Audio       av.AudioHeader
}

// Session pulls bytes from a Source and turns the video stream into frames.
// It is not safe for concurrent use.
type Session struct {
	cfg    *config
	logger *zap.Logger

	src    Source
	format av.PixelFormat
	sync   *ogg.SyncState

	video       *ogg.Stream
	audio       *ogg.Stream
	videoParser codec.VideoEngine
	audioParser codec.HeaderParser
	decoder     codec.VideoDecoder

	fps   float64
	state State

	frames  uint64
	dups    uint64
	bad     uint64 // packets the decoder rejected
	dropped uint64 // pages with no bound stream
}

// NewSession creates a session in StateAwaitingHeader. The session reads
// from src but never closes it.
func NewSession(src Source, format av.PixelFormat, opts ...Option) (*Session, error) {
	return newSession(src, format, newConfig(opts...))
}

func newSession(src Source, format av.PixelFormat, cfg *config) (*Session, error) {
	if src == nil {
		return nil, errors.Wrap(codec.ErrInvalidArgument, "nil source")
	}
	if !format.Valid() {
		return nil, errors.Wrapf(av.ErrInvalidPixelFormat, "format %d", format)
	}

	return &Session{
		cfg:    cfg,
		logger: cfg.logger,
		src:    src,
		format: format,
		sync:   ogg.NewSyncState(),
		state:  StateAwaitingHeader,
	}, nil
}

func (s *Session) State() State {
	return s.state
}

// Active reports whether further frames may still be produced.
func (s *Session) Active() bool {
	switch s.state {
	case StateReady, StateDecoding, StateStarved:
		return true
	default:
		return false
	}
}

// Prepare negotiates the headers. On failure the session is torn down and
// stays in StateError.
func (s *Session) Prepare() error {
	if s.state != StateAwaitingHeader {
		return errors.Wrapf(ErrAlreadyPrepared, "state %s", s.state)
	}

	if err := s.negotiate(); err != nil {
		s.fail(err)
		return err
	}

	s.state = StateReady
	s.logger.Info("headers negotiated",
		zap.Uint32("video_serial", s.video.Serial()),
		zap.Int("width", s.videoParser.Info().PicWidth),
		zap.Int("height", s.videoParser.Info().PicHeight),
		zap.Float64("fps", s.fps),
		zap.Bool("audio", s.audio != nil),
		zap.Stringer("format", s.format))
	return nil
}

func (s *Session) Info() *StreamInfo {
	info := &StreamInfo{}
	if s.video != nil {
		info.VideoSerial = s.video.Serial()
		if h, ok := s.videoParser.Header().(av.VideoHeader); ok {
			info.Video = h
		}
	}
	if s.audio != nil {
		info.AudioSerial = s.audio.Serial()
		if h, ok := s.audioParser.Header().(av.AudioHeader); ok {
			info.Audio = h
		}
	}
	return info
}

// FrameRate is the negotiated rate, 0 when unknown.
func (s *Session) FrameRate() float64 {
	return s.fps
}

// DecodeNextFrame fills frame with the next picture. It returns StatusFrame
// when a picture was produced, StatusNoFrame for a duplicate frame, a packet
// the decoder rejected or at end of stream, and StatusError with the cause on
// failure.
func (s *Session) DecodeNextFrame(frame *av.VideoFrame) (Status, error) {
	switch s.state {
	case StateAwaitingHeader:
		return StatusError, ErrNotPrepared
	case StateEndOfStream:
		return StatusNoFrame, nil
	case StateError:
		return StatusError, ErrSessionFailed
	}
	if frame == nil {
		return StatusError, errors.Wrap(codec.ErrInvalidArgument, "nil frame")
	}

	pkt, err := s.nextVideoPacket()
	if err != nil {
		s.fail(err)
		return StatusError, err
	}
	if pkt == nil {
		s.logger.Info("end of stream",
			zap.Uint64("frames", s.frames),
			zap.Uint64("dup_frames", s.dups),
			zap.Uint64("bad_packets", s.bad),
			zap.Uint64("dropped_pages", s.dropped),
			zap.Int64("skipped_bytes", s.sync.Skipped()))
		return StatusNoFrame, nil
	}
	s.state = StateDecoding

	if pkt.GranulePos >= 0 {
		if err := s.decoder.SetGranulePos(pkt.GranulePos); err != nil {
			err = errors.Wrap(err, "set granule position")
			s.fail(err)
			return StatusError, err
		}
	}

	granulePos, err := s.decoder.PacketIn(pkt)
	switch errors.Cause(err) {
	case codec.ErrDupFrame:
		s.dups++
		return StatusNoFrame, nil
	case codec.ErrBadPacket:
		s.bad++
		s.logger.Debug("skip bad packet", zap.Int64("packet_no", pkt.PacketNo), zap.Error(err))
		return StatusNoFrame, nil
	}
	if err != nil {
		err = errors.Wrapf(err, "decode packet %d", pkt.PacketNo)
		s.fail(err)
		return StatusError, err
	}

	pic, err := s.decoder.PictureOut()
	if err != nil {
		err = errors.Wrap(err, "picture out")
		s.fail(err)
		return StatusError, err
	}

	if err := s.emit(frame, pic, granulePos); err != nil {
		s.fail(err)
		return StatusError, err
	}

	s.frames++
	return StatusFrame, nil
}

// nextVideoPacket returns nil at end of stream.
func (s *Session) nextVideoPacket() (*av.Packet, error) {
	for {
		if pkt, ok := s.video.PacketOut(); ok {
			return pkt, nil
		}
		s.state = StateStarved

		if page, err := s.sync.PageOut(); err == nil {
			s.routePage(page)
			continue
		}

		n, err := s.feed()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			s.state = StateEndOfStream
			return nil, nil
		}
	}
}

func (s *Session) emit(frame *av.VideoFrame, pic *av.Picture, granulePos int64) error {
	t := s.decoder.GranuleTime(granulePos)
	if t < 0 {
		t = 0
	}

	size := s.format.FrameSize(pic.PicWidth, pic.PicHeight)
	if frame.ReuseBuffer && cap(frame.Pixels) >= size {
		frame.Pixels = frame.Pixels[:size]
	} else {
		frame.Pixels = s.cfg.alloc(size)
	}

	frame.PlayMS = uint32(t * 1000)
	frame.FPS = s.fps
	frame.Width = pic.PicWidth
	frame.Height = pic.PicHeight
	frame.Format = s.format

	if err := convert.Frame(frame.Pixels, pic, s.format); err != nil {
		return errors.Wrap(err, "convert picture")
	}
	return nil
}

// AudioPacket pops the oldest undelivered audio packet. Packets are only
// collected while video is being decoded.
func (s *Session) AudioPacket() (*av.Packet, bool) {
	if s.audio == nil {
		return nil, false
	}
	return s.audio.PacketOut()
}

// feed reads one chunk from the source into the sync buffer. It returns 0 at
// end of stream. Data that arrives together with an error is kept; the error
// surfaces on the next read.
func (s *Session) feed() (int, error) {
	buf, err := s.sync.Buffer(s.cfg.readBufSize)
	if err != nil {
		return 0, errors.Wrap(err, "sync buffer")
	}

	n, err := s.src.Read(buf)
	if n > 0 {
		if err := s.sync.Wrote(n); err != nil {
			return 0, errors.Wrap(err, "sync wrote")
		}
		return n, nil
	}
	if err == nil || err == io.EOF {
		return 0, nil
	}
	return 0, errors.Wrap(err, "read source")
}

// routePage hands page to every bound stream; only the one with a matching
// serial accepts it.
func (s *Session) routePage(page *ogg.Page) {
	for _, st := range []*ogg.Stream{s.video, s.audio} {
		if st == nil {
			continue
		}

		err := st.PageIn(page)
		if err == nil {
			return
		}
		if err != ogg.ErrSerialMismatch {
			s.logger.Warn("drop page", zap.Uint32("serial", page.Serial),
				zap.Uint32("seq_no", page.SeqNo), zap.Error(err))
			s.dropped++
			return
		}
	}
	s.dropped++
}

func (s *Session) fail(err error) {
	s.logger.Error("decode session failed", zap.Stringer("state", s.state), zap.Error(err))
	s.teardown()
	s.state = StateError
}

func (s *Session) teardown() {
	if s.decoder != nil {
		if err := s.decoder.Close(); err != nil {
			s.logger.Warn("close video decoder failed", zap.Error(err))
		}
		s.decoder = nil
	}
	s.sync.Reset()
	s.video = nil
	s.audio = nil
}

// Close releases the decode context. The source is left to its owner.
func (s *Session) Close() error {
	s.teardown()
	if s.state != StateError {
		s.state = StateEndOfStream
	}
	return nil
}
