package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"oggplay/pkg/av"
	"oggplay/pkg/codec"
	"oggplay/pkg/codec/theora"
	"oggplay/pkg/codec/vorbis"
	"oggplay/pkg/ogg"
	"oggplay/pkg/player"
)

// writeClip writes a clip with frames video packets and one audio packet.
func writeClip(t *testing.T, dir, name string, frames int) string {
	t.Helper()

	var buf bytes.Buffer
	seq := map[uint32]uint32{}
	page := func(serial uint32, flags uint8, granulePos int64, packets ...[]byte) {
		p, err := ogg.NewPage(
			ogg.WithPageSerial(serial),
			ogg.WithPageSeqNo(seq[serial]),
			ogg.WithPageGranulePos(granulePos),
			ogg.WithPageHeaderType(flags),
			ogg.WithPagePackets(packets...),
		)
		require.NoError(t, err)
		raw, err := p.Encode()
		require.NoError(t, err)
		buf.Write(raw)
		seq[serial]++
	}

	info := &theora.Info{
		VideoInfo: codec.VideoInfo{
			FrameWidth:     32,
			FrameHeight:    32,
			PicWidth:       32,
			PicHeight:      32,
			FPSNumerator:   30,
			FPSDenominator: 1,
		},
		VersionMajor:         3,
		VersionMinor:         2,
		VersionSubminor:      1,
		KeyframeGranuleShift: 6,
	}
	vh := theora.EncodeHeaders(info, &codec.Comment{Vendor: "app test"}, []byte{0x01})
	ah := vorbis.EncodeHeaders(&vorbis.Info{
		Channels:       1,
		SampleRate:     8000,
		BlockSizeShort: 256,
		BlockSizeLong:  256,
	}, &codec.Comment{}, []byte{0x01})

	page(1, ogg.FlagBOS, 0, vh[0])
	page(2, ogg.FlagBOS, 0, ah[0])
	page(1, 0, 0, vh[1], vh[2])
	page(2, 0, 0, ah[1], ah[2])
	page(2, 0, 256, []byte{0x00})
	for i := 0; i < frames; i++ {
		data := []byte{0x40}
		if i == 0 {
			data = []byte{0x00}
		}
		page(1, 0, 1<<6+int64(i), data)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestAppRun(t *testing.T) {
	dir := t.TempDir()
	first := writeClip(t, dir, "first.ogv", 3)
	second := writeClip(t, dir, "second.ogv", 5)

	a, err := New(
		WithConfig(&Config{Format: "bgra32"}),
		WithInputs(first, second),
		WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	assert.Equal(t, av.BGRA, a.format)
	assert.Equal(t, 4096, a.config.ReadBufSize)

	stats, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, first, stats[0].Input)
	assert.Equal(t, 3, stats[0].Frames)
	assert.Equal(t, 1, stats[0].AudioPackets)
	assert.Equal(t, uint32(100), stats[0].LastPlayMS)

	assert.Equal(t, 5, stats[1].Frames)
	assert.Equal(t, 0, stats[1].Skipped)
}

func TestAppRunFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeClip(t, dir, "good.ogv", 2)

	a, err := New(
		WithConfig(&Config{}),
		WithInputs(good, filepath.Join(dir, "missing.ogv")),
		WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)

	_, err = a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestAppEmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.ogv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	a, err := New(WithConfig(&Config{}), WithInputs(path), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	_, err = a.Run(context.Background())
	assert.Equal(t, player.ErrUnexpectedEOF, errors.Cause(err))
}

func TestAppOptionErrors(t *testing.T) {
	_, err := New(WithConfig(&Config{Format: "nv12"}), WithLogger(zap.NewNop()))
	assert.Equal(t, av.ErrInvalidPixelFormat, errors.Cause(err))

	a, err := New(WithConfig(&Config{}), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	_, err = a.Run(context.Background())
	assert.Error(t, err)

	_, err = New(WithConfigPath(t.TempDir()))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := `
format: IYUV
inputs:
  - a.ogv
  - b.ogv
readBufSize: 1024
audioOptional: true
maxAudioPackets: 16
realtime: true
log:
  path: logs/oggplay.log
  level: debug
  rotationTime: 1h
  age: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := loadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "IYUV", cfg.Format)
	assert.Equal(t, []string{"a.ogv", "b.ogv"}, cfg.Inputs)
	assert.Equal(t, 1024, cfg.ReadBufSize)
	assert.True(t, cfg.AudioOptional)
	assert.Equal(t, 16, cfg.MaxAudioPackets)
	assert.True(t, cfg.Realtime)
	assert.Equal(t, Log{Path: "logs/oggplay.log", Level: "debug", RotationTime: time.Hour, Age: 3}, cfg.Log)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(Log{})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger(Log{Level: "loud"})
	assert.Error(t, err)

	logPath := filepath.Join(t.TempDir(), "oggplay.log")
	logger, err = newLogger(Log{Path: logPath, Level: "info"})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"time":`)
}

func TestAppCloseFlushesLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "oggplay.log")
	a, err := New(
		WithConfig(&Config{Log: Log{Path: logPath, Level: "info"}}),
		WithInputs(filepath.Join(t.TempDir(), "missing.ogv")),
	)
	require.NoError(t, err)

	_, err = a.Run(context.Background())
	require.Error(t, err)
	a.Logger().Error("run player app", zap.Error(err))
	require.NoError(t, a.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"run player app"`)
	assert.Contains(t, string(data), "missing.ogv")
}
