package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"gorm.io/gorm"

	"streamhub/internal/auth"
	"streamhub/internal/catalog"
	"streamhub/internal/config"
	grpcserver "streamhub/internal/grpc"
	"streamhub/internal/history"
	"streamhub/internal/httpapi"
	"streamhub/internal/logger"
	"streamhub/internal/tcpsync"
	"streamhub/internal/udpnotify"
	"streamhub/internal/upload"
	"streamhub/internal/user"
	"streamhub/internal/websocket"
	"streamhub/pkg/database"
	"streamhub/pkg/models"
)

const progressBuffer = 100

// setup loads config, starts logging and opens the migrated database.
func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	logger.InitLogger(level, cfg.Log.Dir)

	db, err := database.Open(cfg.Database.URL, cfg.Database.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return cfg, db, nil
}

// progressFeed builds the TCP progress feed and the channel the tracker
// offers events on. Both are nil when the feed is disabled, so nothing
// queues events that no one drains.
func progressFeed(rt config.RealtimeConfig) (chan models.ProgressUpdate, *tcpsync.Server) {
	if rt.TCPSyncAddr == "" {
		return nil, nil
	}
	ch := make(chan models.ProgressUpdate, progressBuffer)
	return ch, tcpsync.New(rt.TCPSyncAddr, ch)
}

func runServer() error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer logger.CloseLogger()
	defer database.Close(db)

	logger.Infof("streamhub %s starting", version)
	if err := seed(cfg, db); err != nil {
		return err
	}

	generated, err := cfg.Auth.EnsureSecrets()
	if err != nil {
		return err
	}
	for _, kind := range generated {
		logger.Warningf("no %s token secret configured, using a random one; tokens will not survive a restart", kind)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userTokens := auth.NewSigner(auth.KindUser, []byte(cfg.Auth.UserSecret), cfg.Auth.UserTokenTTL)
	adminTokens := auth.NewSigner(auth.KindAdmin, []byte(cfg.Auth.AdminSecret), cfg.Auth.AdminTokenTTL)

	progressCh, tcpServer := progressFeed(cfg.Realtime)
	hub := websocket.NewHub()
	udpServer := udpnotify.New(cfg.Realtime.UDPNotifyAddr)

	store := catalog.NewStore(db)
	query := catalog.NewQueryService(store)
	tracker := history.NewTracker(db, progressCh)

	var wg sync.WaitGroup
	background := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Errorf("%s stopped: %v", name, err)
			}
		}()
	}

	background("websocket hub", func() error { hub.Run(ctx); return nil })
	if cfg.Realtime.UDPNotifyAddr != "" {
		if err := udpServer.Listen(); err != nil {
			return fmt.Errorf("udp notices: %w", err)
		}
		background("udp notices", func() error { return udpServer.Serve(ctx) })
	}
	if tcpServer != nil {
		background("tcp progress feed", func() error { return tcpServer.Start(ctx) })
	}
	if cfg.Realtime.GRPCAddr != "" {
		grpcSrv := grpc.NewServer()
		grpcserver.RegisterCatalogServiceServer(grpcSrv, grpcserver.NewServer(query, tracker, userTokens))
		background("grpc", func() error {
			lis, err := net.Listen("tcp", cfg.Realtime.GRPCAddr)
			if err != nil {
				return err
			}
			logger.Infof("gRPC listening on %s", lis.Addr())
			go func() {
				<-ctx.Done()
				grpcSrv.GracefulStop()
			}()
			return grpcSrv.Serve(lis)
		})
	}

	gin.SetMode(cfg.Server.Mode)
	router := httpapi.NewRouter(httpapi.Deps{
		Auth:               auth.NewService(user.NewRepo(db), userTokens, adminTokens, cfg.Auth.BcryptCost),
		UserTokens:         userTokens,
		AdminTokens:        adminTokens,
		Query:              query,
		Admin:              catalog.NewAdminService(store, hub, udpServer),
		Tracker:            tracker,
		Uploads:            upload.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxSizeMB),
		Hub:                hub,
		Notifier:           udpServer,
		PublicDir:          cfg.Server.PublicDir,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warning("http shutdown:", err)
	}
	stop()
	wg.Wait()
	logger.Info("stopped")
	return nil
}
