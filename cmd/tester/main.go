package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chorddht/internal/bootstrap"
	"chorddht/internal/client/tester"
	"chorddht/internal/client/tester/writer"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	zapfactory "chorddht/internal/logger/zap"
)

var defaultConfigPath = "config/tester/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := tester.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.New(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.NewZapAdapter(zapLog)
	} else {
		lgr = &logger.NopLogger{}
	}
	cfg.LogConfig(lgr)

	var w writer.Writer
	if cfg.CSV.Enabled {
		w, err = writer.NewCSVWriter(cfg.CSV.Path)
		if err != nil {
			lgr.Error("failed to initialize CSV writer", logger.F("err", err.Error()))
			return
		}
	} else {
		w = writer.NopWriter{}
	}
	defer func() { _ = w.Close() }()

	space, err := domain.NewSpace(cfg.DHT.IDBits, 2)
	if err != nil {
		lgr.Error("failed to initialize identifier space", logger.F("err", err.Error()))
		return
	}

	var boot bootstrap.Bootstrap
	if cfg.Bootstrap.Mode == "route53" {
		boot, err = bootstrap.NewRoute53Bootstrap(cfg.Bootstrap.Route53)
		if err != nil {
			lgr.Error("failed to initialize route53 bootstrap", logger.F("err", err.Error()))
			return
		}
	} else {
		boot = tester.NewDockerBootstrap(cfg.Bootstrap.Docker.ContainerSuffix, cfg.Bootstrap.Docker.Port, cfg.Bootstrap.Docker.Network)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		lgr.Warn("received termination signal", logger.F("signal", sig.String()))
		cancel()
	}()

	runner := tester.New(cfg, lgr.Named("runner"), w, boot, space)
	start := time.Now()
	if err := runner.Run(ctx); err != nil {
		lgr.Error("tester run failed", logger.F("err", err.Error()))
	}
	lgr.Info("tester finished", logger.F("elapsed", time.Since(start).String()))
}
