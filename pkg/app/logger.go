package app

import (
	"os"
	"path"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(log Log) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if log.Level != "" {
		if err := level.UnmarshalText([]byte(log.Level)); err != nil {
			return nil, errors.Wrap(err, "invalid log level")
		}
	}

	if log.Path == "" {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		logger, err := cfg.Build()
		return logger, errors.Wrap(err, "build production logger")
	}

	logPath, err := getAbsLogPath(log.Path)
	if err != nil {
		return nil, errors.Wrap(err, "get abs log path")
	}

	age := log.Age
	if age <= 0 {
		age = 7
	}
	maxAge := time.Duration(age) * 24 * time.Hour

	rotationTime := log.RotationTime
	if rotationTime <= 0 {
		rotationTime = 24 * time.Hour
	}

	rotator, err := rotatelogs.New(
		logPath+"_%Y%m%d",
		rotatelogs.WithLinkName(logPath),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create log rotator")
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(rotator),
		level,
	)

	return zap.New(core, zap.AddCaller()), nil
}

func getAbsLogPath(p string) (string, error) {
	if path.IsAbs(p) {
		return p, nil
	}

	binPath, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return "", err
	}

	logPath := filepath.Join(filepath.Dir(binPath), p)
	return logPath, nil
}
