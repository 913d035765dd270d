package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Format          string   // 输出像素格式: YV12 IYUV RGB RGBA BGR BGRA，默认 RGB
	Inputs          []string // 待解码的 ogg 文件
	ReadBufSize     int      // 每次从文件读取的字节数(默认4096)
	AudioOptional   bool     // 允许没有音频流的文件
	MaxAudioPackets int      // 未取走的音频包上限(默认256)

	// 按帧时间戳实时播放，落后超过一帧则跳帧
	Realtime bool

	// 日志配置
	Log Log
}

type Log struct {
	Path         string // 为空时输出到 stderr
	Level        string
	RotationTime time.Duration
	Age          int
}

func loadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read in config")
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	return cfg, nil
}

func getAbsConfigPath() (string, error) {
	binPath, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(filepath.Dir(binPath), "config")
	return configPath, nil
}
