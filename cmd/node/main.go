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
	"chorddht/internal/chord"
	"chorddht/internal/config"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	zapfactory "chorddht/internal/logger/zap"
	"chorddht/internal/scheduler"
	"chorddht/internal/server"
	"chorddht/internal/storage"
	"chorddht/internal/telemetry"
	"chorddht/internal/transport"
	"chorddht/internal/transport/httptransport"
)

var defaultConfigPath = "config/node/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateConfig(); err != nil {
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

	lis, advertised, err := server.Listen(cfg.DHT.Mode, cfg.Node.Bind, cfg.Node.Host, cfg.Node.Port)
	if err != nil {
		lgr.Error("failed to initialize listener", logger.F("err", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = lis.Close() }()
	addr := lis.Addr().String()
	lgr.Debug("created listener", logger.F("addr", addr))

	sp, err := domain.NewSpace(cfg.DHT.IDBits, cfg.DHT.FaultTolerance.SuccessorListSize)
	if err != nil {
		lgr.Error("failed to initialize identifier space", logger.F("err", err.Error()))
		os.Exit(1)
	}
	lgr.Debug("identifier space initialized",
		logger.F("id_bits", sp.Bits), logger.F("byte_len", sp.ByteLen), logger.F("successor_list_size", sp.SuccListSize))

	var id domain.ID
	if cfg.Node.Id == "" {
		id = sp.Bucketize(advertised)
	} else {
		id, err = sp.FromHexString(cfg.Node.Id)
		if err != nil {
			lgr.Error("invalid node id in configuration", logger.F("err", err.Error()))
			os.Exit(1)
		}
	}
	self := &domain.Node{ID: id, Addr: advertised}
	lgr = lgr.Named("node").With(logger.FNode("self", *self))
	lgr.Info("node initializing")

	shutdownTracer := telemetry.InitTracer(cfg.Telemetry, "chorddht-node", id)
	defer shutdownTracer(context.Background())

	store := storage.NewMemory(lgr.Named("storage"), sp)
	httpClient := httptransport.NewClient(cfg.DHT.FaultTolerance.FailureTimeout)
	rpc := transport.NewClient(httpClient)
	n := chord.New(self, sp, rpc, store, lgr)

	s, err := server.New(lis, n, server.WithLogger(lgr.Named("server")))
	if err != nil {
		lgr.Error("failed to initialize server", logger.F("err", err.Error()))
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Start() }()
	lgr.Debug("server started")

	var register bootstrap.Bootstrap
	switch cfg.DHT.Bootstrap.Mode {
	case "static":
		register = bootstrap.NewStaticBootstrap(cfg.DHT.Bootstrap.Peers)
	case "dns":
		register, err = bootstrap.NewDNSBootstrap(cfg.DHT.Bootstrap, lgr.Named("bootstrap"))
		if err != nil {
			lgr.Error("failed to initialize DNS bootstrap", logger.F("err", err.Error()))
			s.Stop()
			os.Exit(1)
		}
	case "init":
		register = bootstrap.NewStaticBootstrap(nil)
	default:
		lgr.Error("unsupported bootstrap mode", logger.F("mode", cfg.DHT.Bootstrap.Mode))
		s.Stop()
		os.Exit(1)
	}

	discoverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	peers, err := register.Discover(discoverCtx)
	cancel()
	if err != nil {
		lgr.Error("failed to resolve bootstrap peers", logger.F("err", err.Error()))
		s.Stop()
		os.Exit(1)
	}
	lgr.Info("resolved bootstrap peers", logger.F("peers", peers))

	if len(peers) == 0 {
		if err := n.Create(); err != nil {
			lgr.Error("failed to create ring", logger.F("err", err.Error()))
			s.Stop()
			os.Exit(1)
		}
		lgr.Info("new ring created")
	} else {
		joined := false
		var joinErr error
		for _, peer := range peers {
			joinCtx, joinCancel := context.WithTimeout(context.Background(), 10*time.Second)
			joinErr = n.Join(joinCtx, peer)
			joinCancel()
			if joinErr == nil {
				joined = true
				break
			}
			lgr.Warn("join attempt failed, trying next peer", logger.F("peer", peer), logger.F("err", joinErr.Error()))
		}
		if !joined {
			lgr.Error("failed to join ring via any bootstrap peer", logger.F("err", joinErr.Error()))
			s.Stop()
			os.Exit(1)
		}
		lgr.Info("joined ring")
	}

	registerCtx, registerCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = register.Register(registerCtx, self)
	registerCancel()
	if err != nil {
		lgr.Warn("failed to register node with discovery backend", logger.F("err", err.Error()))
	} else {
		defer func() {
			deregisterCtx, deregisterCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer deregisterCancel()
			if err := register.Deregister(deregisterCtx, self); err != nil {
				lgr.Warn("failed to deregister node", logger.F("err", err.Error()))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	sched := scheduler.New(n, lgr.Named("scheduler"), cfg.DHT.Maintenance)
	sched.Start(ctx)
	lgr.Debug("maintenance scheduler started")

	select {
	case <-ctx.Done():
		lgr.Info("shutdown signal received, leaving ring gracefully")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := n.Shutdown(shutdownCtx); err != nil {
			lgr.Warn("graceful ring shutdown failed", logger.F("err", err.Error()))
		}
		cancel()

		done := make(chan struct{})
		go func() {
			s.GracefulStop(context.Background())
			close(done)
		}()
		select {
		case <-done:
			lgr.Info("server stopped gracefully")
		case <-time.After(5 * time.Second):
			lgr.Warn("graceful stop timed out, forcing shutdown")
			s.Stop()
		}

	case err := <-serveErr:
		lgr.Error("server terminated unexpectedly", logger.F("err", err.Error()))
		stop()
		os.Exit(1)
	}
}
