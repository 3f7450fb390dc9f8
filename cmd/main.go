package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/chat-service/config"
	"github.com/cwrk-planet/chat-service/internal/badgerstore"
	"github.com/cwrk-planet/chat-service/internal/fanout"
	"github.com/cwrk-planet/chat-service/internal/media"
	"github.com/cwrk-planet/chat-service/internal/notify"
	"github.com/cwrk-planet/chat-service/internal/pg"
	"github.com/cwrk-planet/chat-service/internal/postgres"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/store"
	grpcx "github.com/cwrk-planet/chat-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/chat-service/internal/transport/http"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"
	"github.com/cwrk-planet/chat-service/pkg/logger"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"
)

func main() {
	flags := pflag.NewFlagSet("chat-service", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to config.yaml (default: $CONFIG_PATH or ./config/config.yaml)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("parse flags: %v", err)
	}

	// --- config ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logging.level: %v", err)
	}
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     level,
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("chat-service stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// --- storage ---
	repo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Error("close storage", "err", err)
		}
	}()

	files, err := media.New(media.Options{
		Root:      cfg.Media.Root,
		URLPrefix: cfg.Media.URLPrefix,
		MaxSize:   cfg.Media.MaxUpload,
	})
	if err != nil {
		return err
	}

	// --- fan-out ---
	hub := fanout.NewHub()
	st := store.New(repo)
	st.Subscribe(notify.New(hub, files))

	// --- services ---
	chatSvc := service.NewChatService(st, files, service.Options{MaxContentLen: cfg.Chat.MaxContentLen})

	// --- WS ---
	// общий канал пишет сам и рассылает сам, поэтому мимо подписчиков хранилища
	wsServer := ws.NewServer(hub, st.Unobserved(), ws.Options{
		PingInterval:   cfg.WS.PingInterval,
		WriteTimeout:   cfg.WS.WriteTimeout,
		SendBuffer:     cfg.WS.SendBuffer,
		ReadLimit:      cfg.WS.ReadLimit,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:        httpx.NewHandler(chatSvc, files, cfg.Media.MaxUpload),
		WS:             wsServer,
		Media:          files.Handler(),
		MediaPrefix:    cfg.Media.URLPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	httpSrv := httpx.NewServer(httpx.Config{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, router)

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(cfg.GRPC.DefaultTimeout)),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	health := grpcx.Register(grpcServer, grpcx.NewServer(chatSvc, files))

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	// --- run both servers ---
	grpcErr := make(chan error, 1)
	go func() {
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			grpcErr <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case err := <-grpcErr:
			slog.Error("grpc stopped", "err", err)
			cancel()
		case <-runCtx.Done():
		}
	}()

	// Run блокирует до сигнала и сам делает Shutdown
	httpErr := httpSrv.Run(runCtx)

	// --- graceful shutdown ---
	health.Shutdown()
	stopGRPC(grpcServer, cfg.HTTP.ShutdownTimeout)
	return httpErr
}

// stopGRPC: GracefulStop с таймаутом, потом Stop.
func stopGRPC(gs *grpc.Server, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		slog.Error("grpc graceful stop timeout; forcing stop")
		gs.Stop()
	}
	slog.Info("grpc stopped")
}

func openRepository(ctx context.Context, cfg config.Storage) (store.Repository, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pg.NewPool(ctx, cfg.Postgres.ToPGConfig())
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		slog.Info("storage: postgres")
		return postgres.New(pool), nil
	default:
		repo, err := badgerstore.Open(badgerstore.Options{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("storage: badger", "path", cfg.Badger.Path, "in_memory", cfg.Badger.InMemory)
		return repo, nil
	}
}
