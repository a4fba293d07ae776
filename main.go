package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/rungroop/config"
	"github.com/padraicbc/rungroop/db"
	"github.com/padraicbc/rungroop/handlers"
	applog "github.com/padraicbc/rungroop/logger"
	"github.com/padraicbc/rungroop/metrics"
	mw "github.com/padraicbc/rungroop/middleware"
	"github.com/padraicbc/rungroop/photo"
	"github.com/padraicbc/rungroop/races"
	"github.com/padraicbc/rungroop/repository"
	"github.com/padraicbc/rungroop/views"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	s3Client, err := photo.NewS3(ctx, photo.Options{
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
	})
	if err != nil {
		logger.Fatal("s3 client failed", zap.Error(err))
	}
	photos := photo.New(s3Client, cfg.S3Bucket, cfg.PhotoBaseURL, collector, logger.Named("photo"))

	raceSvc := races.NewService(photos, repository.NewRaces(bdb),
		races.WithLogger(logger.Named("races")),
		races.WithRecorder(collector),
		races.WithCleanupTimeout(cfg.PhotoCleanupTimeout),
	)
	h := handlers.New(raceSvc, repository.NewUsers(bdb), cfg.JWTKey(), logger.Named("http"))

	renderer, err := views.New()
	if err != nil {
		logger.Fatal("parse templates failed", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes+1<<20, 10)))
	e.Use(mw.Session(cfg.JWTKey()))

	e.GET("/metrics", echo.WrapHandler(collector.Handler()))
	h.Register(e)

	srv := &http.Server{
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errc := make(chan error, 1)
	if cfg.Debug {
		srv.Addr = cfg.Port
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		go func() { errc <- srv.ListenAndServe() }()
	} else {
		autoTLS := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(".cache"),
			HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
		}
		srv.Addr = ":443"
		srv.TLSConfig = autoTLS.TLSConfig()
		logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
		go func() { errc <- srv.ListenAndServeTLS("", "") }()
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	raceSvc.Wait()
}
