// Package app runs the command line player: it loads the config, builds the
// logger and decodes every input concurrently, one Player per input.
package app

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"oggplay/pkg/av"
	"oggplay/pkg/codec/theora"
	"oggplay/pkg/player"
)

type App struct {
	configPath string
	config     *Config
	inputs     []string
	logger     *zap.Logger

	format  av.PixelFormat
	backend theora.BackendFactory
}

// Stats summarizes one decoded input.
type Stats struct {
	Input        string
	Frames       int
	Skipped      int // dropped by the pacer
	AudioPackets int
	LastPlayMS   uint32
}

func New(opts ...Option) (*App, error) {
	a, err := (&App{}).loadOptions(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load options")
	}

	return a, nil
}

func (a *App) loadOptions(opts ...Option) (*App, error) {
	for _, opt := range opts {
		opt(a)
	}

	if a.config == nil {
		if a.configPath == "" {
			var err error
			if a.configPath, err = getAbsConfigPath(); err != nil {
				return nil, errors.Wrap(err, "get abs config path while config path not assigned")
			}
		}

		cfg, err := loadConfig(a.configPath)
		if err != nil {
			return nil, errors.Wrap(err, "load config")
		}
		a.config = cfg
	}

	if len(a.inputs) > 0 {
		a.config.Inputs = a.inputs
	}

	if a.logger == nil {
		logger, err := newLogger(a.config.Log)
		if err != nil {
			return nil, errors.Wrap(err, "init logger")
		}
		a.logger = logger
	}

	if a.config.Format == "" {
		a.config.Format = av.RGB.String()
	}
	format, err := av.ParsePixelFormat(a.config.Format)
	if err != nil {
		return nil, errors.Wrap(err, "parse output format")
	}
	a.format = format

	if a.config.ReadBufSize <= 0 {
		a.config.ReadBufSize = 4096
	}

	if a.config.MaxAudioPackets <= 0 {
		a.config.MaxAudioPackets = 256
	}

	if a.backend == nil {
		a.backend = theora.NewSolidBackend(16, 128, 128)
	}

	return a, nil
}

type Option func(*App)

func WithConfigPath(configPath string) Option {
	return func(a *App) {
		a.configPath = configPath
	}
}

// WithConfig skips reading config.yaml.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithInputs replaces the inputs listed in the config.
func WithInputs(inputs ...string) Option {
	return func(a *App) {
		a.inputs = inputs
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

func WithVideoBackend(f theora.BackendFactory) Option {
	return func(a *App) {
		a.backend = f
	}
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close flushes buffered log entries. Call it before os.Exit, which skips
// deferred calls.
func (a *App) Close() error {
	return a.logger.Sync()
}

// Run decodes every input. The first failing input cancels the others.
func (a *App) Run(ctx context.Context) ([]Stats, error) {
	if len(a.config.Inputs) == 0 {
		return nil, errors.New("no inputs")
	}

	stats := make([]Stats, len(a.config.Inputs))

	g, ctx := errgroup.WithContext(ctx)
	for i, input := range a.config.Inputs {
		i, input := i, input
		g.Go(func() error {
			var err error
			stats[i], err = a.play(ctx, input)
			return errors.Wrapf(err, "play %s", input)
		})
	}

	err := g.Wait()
	return stats, err
}

func (a *App) playerOptions(logger *zap.Logger) []player.Option {
	opts := []player.Option{
		player.WithLogger(logger),
		player.WithVideoBackend(a.backend),
		player.WithReadBufSize(a.config.ReadBufSize),
		player.WithMaxAudioPackets(a.config.MaxAudioPackets),
	}
	if a.config.AudioOptional {
		opts = append(opts, player.WithAudioOptional())
	}
	return opts
}

func (a *App) play(ctx context.Context, input string) (Stats, error) {
	stats := Stats{Input: input}
	logger := a.logger.With(zap.String("input", input))

	p := player.New(a.playerOptions(logger)...)
	defer p.Close()

	if _, err := p.OpenFile(input, a.format); err != nil {
		return stats, errors.Wrap(err, "open file")
	}
	if _, err := p.Prepare(); err != nil {
		return stats, errors.Wrap(err, "prepare")
	}

	info := p.Info()
	w, h := info.Video.PictureSize()
	logger.Info("start decoding",
		zap.String("video_codec", info.Video.CodecName()),
		zap.String("video_vendor", info.Video.Vendor()),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float64("fps", info.Video.FrameRate()),
		zap.Bool("audio", info.Audio != nil))

	var pacer *Pacer
	if a.config.Realtime {
		pacer = NewPacer()
	}

	var frame av.VideoFrame
	for p.IsDecoding() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		st, err := p.GetFrame(&frame)
		if err != nil {
			return stats, errors.Wrap(err, "get frame")
		}

		for {
			if _, ok := p.AudioPacket(); !ok {
				break
			}
			stats.AudioPackets++
		}

		if st != player.StatusFrame {
			continue
		}

		show := true
		if pacer != nil {
			if show, err = pacer.Wait(ctx, frame.PlayMS, frame.FrameInterval()); err != nil {
				return stats, err
			}
		}
		if show {
			stats.Frames++
			logger.Debug("frame", zap.Uint32("play_ms", frame.PlayMS), zap.Int("bytes", len(frame.Pixels)))
		} else {
			stats.Skipped++
		}
		stats.LastPlayMS = frame.PlayMS

		p.FreeFrame(&frame)
	}

	logger.Info("decoding finished",
		zap.Int("frames", stats.Frames),
		zap.Int("skipped", stats.Skipped),
		zap.Int("audio_packets", stats.AudioPackets),
		zap.Uint32("last_play_ms", stats.LastPlayMS))
	return stats, nil
}
