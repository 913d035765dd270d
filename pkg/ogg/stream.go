package ogg

import (
	"oggplay/pkg/av"
)

// Stream is one logical stream: a serial number bound to an ordered queue of
// reassembled packets.
type Stream struct {
	serial     uint32
	packetType av.AVPacketType
	maxPackets int // 0: unbounded

	started  bool
	nextSeq  uint32
	inPacket bool
	partial  []byte
	packetNo int64
	eos      bool

	packets []*av.Packet

	holes   int
	dropped int
}

func NewStream(serial uint32, opts ...streamOption) *Stream {
	return (&Stream{serial: serial}).loadOptions(opts...)
}

func (s *Stream) loadOptions(opts ...streamOption) *Stream {
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type streamOption func(*Stream)

// WithStreamMaxPackets bounds the queue; the oldest packet is dropped on overflow.
func WithStreamMaxPackets(n int) streamOption {
	return func(s *Stream) {
		s.maxPackets = n
	}
}

func (s *Stream) Serial() uint32 {
	return s.serial
}

func (s *Stream) PacketType() av.AVPacketType {
	return s.packetType
}

func (s *Stream) SetPacketType(typ av.AVPacketType) {
	s.packetType = typ
}

func (s *Stream) SetMaxPackets(n int) {
	s.maxPackets = n
	s.trim()
}

// Len is the number of complete packets waiting in the queue.
func (s *Stream) Len() int {
	return len(s.packets)
}

// EOS reports whether the last page of the stream has been seen.
func (s *Stream) EOS() bool {
	return s.eos
}

// Holes counts partial packets lost to page sequence gaps.
func (s *Stream) Holes() int {
	return s.holes
}

// Dropped counts packets evicted from a bounded queue.
func (s *Stream) Dropped() int {
	return s.dropped
}

// PageIn appends the packets of p to the queue. Pages of other logical
// streams are rejected with ErrSerialMismatch.
func (s *Stream) PageIn(p *Page) error {
	if p.Serial != s.serial {
		return ErrSerialMismatch
	}
	if p.Version != 0 {
		return ErrBadVersion
	}

	if s.started && p.SeqNo != s.nextSeq {
		s.losePartial()
	}
	s.started = true
	s.nextSeq = p.SeqNo + 1

	segs := p.Segments
	body := p.Body

	if p.Continued() {
		if !s.inPacket {
			// the start of this packet is gone, skip what is left of it
			for len(segs) > 0 {
				seg := segs[0]
				segs = segs[1:]
				body = body[seg:]
				if seg < maxLacing {
					break
				}
			}
		}
	} else if s.inPacket {
		s.losePartial()
	}

	var last *av.Packet
	first := true
	for _, seg := range segs {
		s.partial = append(s.partial, body[:seg]...)
		body = body[seg:]
		s.inPacket = true

		if seg == maxLacing {
			continue
		}

		pkt := av.NewPacket(
			av.WithPacketData(s.partial),
			av.WithPacketType(s.packetType),
			av.WithPacketSerial(s.serial),
			av.WithPacketNo(s.packetNo),
			av.WithPacketBOS(first && p.BOS()),
		)
		s.packetNo++
		s.partial = nil
		s.inPacket = false
		first = false

		s.push(pkt)
		last = pkt
	}

	if last != nil {
		last.GranulePos = p.GranulePos
		last.EOS = p.EOS()
	}
	if p.EOS() {
		s.eos = true
	}

	return nil
}

// PacketOut pops the oldest complete packet.
func (s *Stream) PacketOut() (*av.Packet, bool) {
	if len(s.packets) == 0 {
		return nil, false
	}

	pkt := s.packets[0]
	s.packets[0] = nil
	s.packets = s.packets[1:]
	return pkt, true
}

func (s *Stream) push(pkt *av.Packet) {
	s.packets = append(s.packets, pkt)
	s.trim()
}

func (s *Stream) trim() {
	if s.maxPackets <= 0 {
		return
	}
	for len(s.packets) > s.maxPackets {
		s.packets[0] = nil
		s.packets = s.packets[1:]
		s.dropped++
	}
}

func (s *Stream) losePartial() {
	if s.inPacket {
		s.partial = nil
		s.inPacket = false
	}
	s.holes++
}
