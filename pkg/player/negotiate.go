package player

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"oggplay/pkg/codec"
	"oggplay/pkg/ogg"
)

// negotiate runs the header handshake: identify the first video and audio
// streams from their BOS pages, collect all header packets, validate the
// video parameters and allocate the decode context.
func (s *Session) negotiate() error {
	if err := s.probeStreams(); err != nil {
		return errors.Wrap(err, "probe streams")
	}

	if s.video == nil {
		return errors.Wrap(ErrMissingStream, "no video stream")
	}
	if s.audio == nil && s.cfg.requireAudio {
		return errors.Wrap(ErrMissingStream, "no audio stream")
	}

	if err := s.readHeaders(); err != nil {
		return errors.Wrap(err, "read headers")
	}
	if err := s.validateVideo(); err != nil {
		return errors.Wrap(err, "validate video")
	}

	dec, err := s.videoParser.Alloc()
	if err != nil {
		return errors.Wrap(err, "alloc video decoder")
	}
	s.decoder = dec

	level := dec.PostProcessingLevelMax()
	if err := dec.SetPostProcessingLevel(level); err != nil {
		s.logger.Warn("set post-processing level failed", zap.Int("level", level), zap.Error(err))
	}

	if s.audio != nil {
		s.audio.SetMaxPackets(s.cfg.maxAudioPackets)
	}

	return nil
}

// probeStreams consumes pages until the first page that does not begin a
// logical stream. That page is routed to the streams found so far.
func (s *Session) probeStreams() error {
	for {
		n, err := s.feed()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrUnexpectedEOF
		}

		for {
			page, err := s.sync.PageOut()
			if err != nil {
				break
			}

			if !page.BOS() {
				s.routePage(page)
				return nil
			}
			s.probePage(page)
		}
	}
}

func (s *Session) probePage(page *ogg.Page) {
	st := ogg.NewStream(page.Serial)
	if err := st.PageIn(page); err != nil {
		s.logger.Debug("discard BOS page", zap.Uint32("serial", page.Serial), zap.Error(err))
		return
	}

	pkt, ok := st.PacketOut()
	if !ok {
		s.logger.Debug("discard BOS page without packet", zap.Uint32("serial", page.Serial))
		return
	}

	parser, err := codec.Candidates(s.cfg.probes, pkt, func(k codec.Kind) bool {
		switch k {
		case codec.KindVideo:
			return s.video != nil
		case codec.KindAudio:
			return s.audio != nil
		default:
			return true
		}
	})
	if err != nil {
		s.logger.Debug("discard logical stream", zap.Uint32("serial", page.Serial), zap.Error(err))
		return
	}

	st.SetPacketType(parser.Kind().PacketType())

	switch parser.Kind() {
	case codec.KindVideo:
		engine, ok := parser.(codec.VideoEngine)
		if !ok {
			s.logger.Warn("discard video stream", zap.Uint32("serial", page.Serial),
				zap.String("codec", parser.Name()), zap.Error(ErrNotVideoEngine))
			return
		}
		s.video = st
		s.videoParser = engine
	case codec.KindAudio:
		s.audio = st
		s.audioParser = parser
	}

	s.logger.Info("bind logical stream",
		zap.Uint32("serial", page.Serial),
		zap.String("codec", parser.Name()),
		zap.Stringer("kind", parser.Kind()))
}

// readHeaders alternates between draining header packets and routing pages
// until every bound stream has its headers.
func (s *Session) readHeaders() error {
	for {
		if err := drainHeaders(s.video, s.videoParser); err != nil {
			return err
		}
		if s.audio != nil {
			if err := drainHeaders(s.audio, s.audioParser); err != nil {
				return err
			}
		}
		if s.headersDone() {
			return nil
		}

		if page, err := s.sync.PageOut(); err == nil {
			s.routePage(page)
			continue
		}

		n, err := s.feed()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrUnexpectedEOF
		}
	}
}

func (s *Session) headersDone() bool {
	if !s.videoParser.HeadersDone() {
		return false
	}
	return s.audio == nil || s.audioParser.HeadersDone()
}

func drainHeaders(st *ogg.Stream, p codec.HeaderParser) error {
	for !p.HeadersDone() {
		pkt, ok := st.PacketOut()
		if !ok {
			return nil
		}
		if err := p.HeaderIn(pkt); err != nil {
			return errors.Wrapf(err, "%s header packet %d", p.Name(), pkt.PacketNo)
		}
	}
	return nil
}

func (s *Session) validateVideo() error {
	info := s.videoParser.Info()

	if info.FrameWidth > MaxFrameDimension || info.FrameHeight > MaxFrameDimension {
		return errors.Wrapf(ErrFrameTooLarge, "%dx%d", info.FrameWidth, info.FrameHeight)
	}

	switch info.ColorSpace {
	case codec.ColorSpaceUnspecified, codec.ColorSpaceRec470M, codec.ColorSpaceRec470BG:
	default:
		return errors.Wrapf(ErrUnsupportedColorSpace, "color space %d", info.ColorSpace)
	}

	if info.Subsampling != codec.Subsampling420 {
		return errors.Wrapf(ErrUnsupportedPixelFormat, "subsampling %d", info.Subsampling)
	}

	s.fps = info.FrameRate()
	return nil
}
