package av

type AVPacketType uint32

const (
	_ AVPacketType = iota
	AudioType
	VideoType
)

func (t AVPacketType) String() string {
	switch t {
	case AudioType:
		return "audio"
	case VideoType:
		return "video"
	default:
		return "unknown"
	}
}

// Packet is one compressed unit reassembled from the pages of a logical stream.
type Packet struct {
	Data []byte

	GranulePos int64 // -1 unless this packet completed its page
	PacketNo   int64
	Serial     uint32

	BOS bool
	EOS bool

	PacketType AVPacketType
}

func NewPacket(opts ...packetOption) *Packet {
	return (&Packet{GranulePos: -1}).loadOptions(opts...)
}

func (p *Packet) loadOptions(opts ...packetOption) *Packet {
	for _, opt := range opts {
		opt(p)
	}

	return p
}

type packetOption func(*Packet)

func WithPacketData(data []byte) packetOption {
	return func(p *Packet) {
		p.Data = data // no copy
	}
}

func WithPacketType(typ AVPacketType) packetOption {
	return func(p *Packet) {
		p.PacketType = typ
	}
}

func WithPacketGranulePos(granulePos int64) packetOption {
	return func(p *Packet) {
		p.GranulePos = granulePos
	}
}

func WithPacketNo(no int64) packetOption {
	return func(p *Packet) {
		p.PacketNo = no
	}
}

func WithPacketSerial(serial uint32) packetOption {
	return func(p *Packet) {
		p.Serial = serial
	}
}

func WithPacketBOS(bos bool) packetOption {
	return func(p *Packet) {
		p.BOS = bos
	}
}
