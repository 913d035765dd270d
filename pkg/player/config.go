package player

import (
	"sync"

	"go.uber.org/zap"

	"oggplay/pkg/codec"
	"oggplay/pkg/codec/theora"
	"oggplay/pkg/codec/vorbis"
)

const (
	defaultReadBufSize     = 4096
	defaultMaxAudioPackets = 256

	// MaxFrameDimension bounds the coded frame size accepted from headers.
	MaxFrameDimension = 99999
)

type config struct {
	logger *zap.Logger

	probes          []codec.Probe
	backend         theora.BackendFactory
	requireAudio    bool
	readBufSize     int
	maxAudioPackets int

	pixelPool *sync.Pool // *[]byte
}

func newConfig(opts ...Option) *config {
	c := &config{
		requireAudio:    true,
		readBufSize:     defaultReadBufSize,
		maxAudioPackets: defaultMaxAudioPackets,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.readBufSize <= 0 {
		c.readBufSize = defaultReadBufSize
	}
	if c.probes == nil {
		c.probes = []codec.Probe{
			theora.NewProbe(theora.WithBackend(c.backend)),
			vorbis.Probe,
		}
	}

	return c
}

// alloc returns a pixel buffer of exactly size bytes, recycled when possible.
func (c *config) alloc(size int) []byte {
	if c.pixelPool != nil {
		if v := c.pixelPool.Get(); v != nil {
			if b := *v.(*[]byte); cap(b) >= size {
				return b[:size]
			}
		}
	}
	return make([]byte, size)
}

type Option func(*config)

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithProbes replaces the ordered list of codec probes tried against every
// new logical stream. The first probe that accepts a stream wins.
func WithProbes(probes ...codec.Probe) Option {
	return func(c *config) {
		c.probes = probes
	}
}

// WithVideoBackend sets the picture backend used by the default Theora probe.
func WithVideoBackend(f theora.BackendFactory) Option {
	return func(c *config) {
		c.backend = f
	}
}

// WithAudioOptional lets inputs without an audio stream negotiate.
func WithAudioOptional() Option {
	return func(c *config) {
		c.requireAudio = false
	}
}

func WithReadBufSize(n int) Option {
	return func(c *config) {
		c.readBufSize = n
	}
}

// WithMaxAudioPackets bounds the queue of undelivered audio packets; 0 or less
// leaves it unbounded.
func WithMaxAudioPackets(n int) Option {
	return func(c *config) {
		c.maxAudioPackets = n
	}
}
