package ogg

import (
	"oggplay/pkg/common"

	"github.com/pkg/errors"
)

// Page is one framing unit of the container. It carries whole or partial
// packets of exactly one logical stream.
type Page struct {
	Version    uint8
	HeaderType uint8
	GranulePos int64
	Serial     uint32
	SeqNo      uint32
	Checksum   uint32

	Segments []uint8 // lacing values
	Body     []byte
}

func (p *Page) Continued() bool {
	return p.HeaderType&FlagContinued != 0
}

func (p *Page) BOS() bool {
	return p.HeaderType&FlagBOS != 0
}

func (p *Page) EOS() bool {
	return p.HeaderType&FlagEOS != 0
}

// Packets counts the packets that end on this page.
func (p *Page) Packets() int {
	n := 0
	for _, seg := range p.Segments {
		if seg < maxLacing {
			n++
		}
	}
	return n
}

func (p *Page) Size() int {
	return headerSize + len(p.Segments) + len(p.Body)
}

// Encode serializes the page and fills in its checksum.
func (p *Page) Encode() ([]byte, error) {
	if len(p.Segments) > maxSegments {
		return nil, errTooManySegments
	}

	bodyLen := 0
	for _, seg := range p.Segments {
		bodyLen += int(seg)
	}
	if bodyLen != len(p.Body) {
		return nil, errors.Errorf("lacing values sum to %d, body has %d bytes", bodyLen, len(p.Body))
	}

	raw := make([]byte, p.Size())
	copy(raw, capturePattern)
	raw[4] = p.Version
	raw[5] = p.HeaderType
	common.Uint64AsBytes(uint64(p.GranulePos), raw[6:14], false)
	common.UintAsBytes(p.Serial, raw[14:18], false)
	common.UintAsBytes(p.SeqNo, raw[18:22], false)
	raw[26] = uint8(len(p.Segments))
	copy(raw[headerSize:], p.Segments)
	copy(raw[headerSize+len(p.Segments):], p.Body)

	p.Checksum = pageChecksum(raw)
	common.UintAsBytes(p.Checksum, raw[22:26], false)

	return raw, nil
}

// decodePage parses a complete, checksum-verified page. The body is copied.
func decodePage(raw []byte) *Page {
	nsegs := int(raw[26])
	hdrLen := headerSize + nsegs

	p := &Page{
		Version:    raw[4],
		HeaderType: raw[5],
		GranulePos: int64(common.BytesAsUint64(raw[6:14], false)),
		Serial:     common.BytesAsUint32(raw[14:18], false),
		SeqNo:      common.BytesAsUint32(raw[18:22], false),
		Checksum:   common.BytesAsUint32(raw[22:26], false),
		Segments:   make([]uint8, nsegs),
		Body:       make([]byte, len(raw)-hdrLen),
	}
	copy(p.Segments, raw[headerSize:hdrLen])
	copy(p.Body, raw[hdrLen:])

	return p
}

// NewPage builds a page from options. Packets added with WithPagePackets are
// laced in order; every one of them ends on this page.
func NewPage(opts ...pageOption) (*Page, error) {
	return (&Page{}).loadOptions(opts...)
}

func (p *Page) loadOptions(opts ...pageOption) (*Page, error) {
	for _, opt := range opts {
		opt(p)
	}

	if len(p.Segments) > maxSegments {
		return nil, errTooManySegments
	}

	return p, nil
}

type pageOption func(*Page)

func WithPageSerial(serial uint32) pageOption {
	return func(p *Page) {
		p.Serial = serial
	}
}

func WithPageSeqNo(seqNo uint32) pageOption {
	return func(p *Page) {
		p.SeqNo = seqNo
	}
}

func WithPageGranulePos(granulePos int64) pageOption {
	return func(p *Page) {
		p.GranulePos = granulePos
	}
}

func WithPageHeaderType(flags uint8) pageOption {
	return func(p *Page) {
		p.HeaderType |= flags
	}
}

func WithPagePackets(packets ...[]byte) pageOption {
	return func(p *Page) {
		for _, pkt := range packets {
			p.Segments = append(p.Segments, Lacing(len(pkt), true)...)
			p.Body = append(p.Body, pkt...)
		}
	}
}

// WithPageSegments appends raw lacing values and body bytes, for packets that
// span pages.
func WithPageSegments(segments []uint8, body []byte) pageOption {
	return func(p *Page) {
		p.Segments = append(p.Segments, segments...)
		p.Body = append(p.Body, body...)
	}
}

// Lacing returns the lacing values for n bytes of packet data. When complete is
// false the packet continues on the next page, no terminating value is added
// and n must be a multiple of 255.
func Lacing(n int, complete bool) []uint8 {
	segs := make([]uint8, 0, n/maxLacing+1)
	for n >= maxLacing {
		segs = append(segs, maxLacing)
		n -= maxLacing
	}
	if complete {
		segs = append(segs, uint8(n))
	}
	return segs
}
