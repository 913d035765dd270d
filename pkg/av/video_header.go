package av

// StreamHeader is what a codec learns from the header packets of a logical stream.
type StreamHeader interface {
	CodecName() string
	Vendor() string
	Comments() []string
}

type VideoHeader interface {
	StreamHeader
	PictureSize() (width, height int) // visible region
	FrameRate() float64               // 0 for variable/unknown rate
}

type AudioHeader interface {
	StreamHeader
	Channels() int
	SampleRate() int
}
