package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"oggplay/pkg/app"
)

func main() {
	configPath := flag.String("config", "", "directory holding config.yaml (default: ../config next to the binary)")
	flag.Parse()

	logger, _ := zap.NewProduction()

	opts := []app.Option{}
	if *configPath != "" {
		opts = append(opts, app.WithConfigPath(*configPath))
	}
	if inputs := flag.Args(); len(inputs) > 0 {
		opts = append(opts, app.WithInputs(inputs...))
	}

	a, err := app.New(opts...)
	if err != nil {
		logger.Error("create player app", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stats, err := a.Run(ctx)
	for _, st := range stats {
		a.Logger().Info("input done",
			zap.String("input", st.Input),
			zap.Int("frames", st.Frames),
			zap.Int("skipped", st.Skipped),
			zap.Uint32("last_play_ms", st.LastPlayMS))
	}
	if err != nil {
		a.Logger().Error("run player app", zap.Error(err))
		cancel()
		a.Close()
		os.Exit(1)
	}
}
