package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/ewaste-check/internal/auth"
	"github.com/example/ewaste-check/internal/classifier"
	"github.com/example/ewaste-check/internal/classifier/onnx"
	"github.com/example/ewaste-check/internal/config"
	"github.com/example/ewaste-check/internal/grpcclient"
	"github.com/example/ewaste-check/internal/handlers"
	"github.com/example/ewaste-check/internal/logging"
	"github.com/example/ewaste-check/internal/middleware"
	"github.com/example/ewaste-check/internal/pipeline"
	"github.com/example/ewaste-check/internal/repository"
	"github.com/example/ewaste-check/internal/seed"
	"github.com/example/ewaste-check/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.Server.Mode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := initDatabase(ctx, cfg, logger)
	repo := repository.New(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	redisClient := initRedis(redisCtx, cfg.Redis, logger)
	defer redisClient.Close()

	cls, closeClassifier := initClassifier(ctx, cfg.Classifier, logger)
	defer closeClassifier()
	cls = classifier.Limit(cls, cfg.Classifier.MaxConcurrent)

	if cfg.Classifier.ServeAddr != "" {
		grpcServer := serveClassifier(cfg.Classifier.ServeAddr, cls, logger)
		defer grpcServer.GracefulStop()
	}

	pipe := pipeline.New(usecase.NewBinLocator(repo), cls, logger)
	services := handlers.Services{
		Submissions: usecase.NewSubmissionUseCase(repo, usecase.NewRedisCache(redisClient), pipe, cfg.Redis.ResultTTL, logger),
		Analytics:   usecase.NewAnalyticsUseCase(repo, logger),
		Admin:       usecase.NewAdminUseCase(repo, seed.DefaultBins, logger),
	}

	authMiddleware := auth.JWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	router := newRouter(cfg, logger, services, authMiddleware)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	logger.Info("e-waste API listening", zap.String("addr", cfg.Server.Addr))
	if err := serveHTTPServer(server, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, logger *zap.Logger, services handlers.Services, authMiddleware gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery(), middleware.CORS())
	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	handlers.RegisterRoutes(r, services, authMiddleware, handlers.Config{
		MaxUploadSize: cfg.Server.MaxUploadBytes,
		AdminRole:     cfg.Auth.AdminRole,
	})
	return r
}

func initDatabase(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) *gorm.DB {
	logLevel := gormlogger.Info
	if cfg.Server.Mode == logging.ReleaseMode {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func initClassifier(ctx context.Context, cfg config.ClassifierConfig, zapLogger *zap.Logger) (classifier.Classifier, func()) {
	switch cfg.Backend {
	case config.BackendGRPC:
		cls, conn, err := grpcclient.DialClassifier(ctx, cfg.Addr, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to connect to classifier", zap.Error(err))
		}
		return cls, func() { conn.Close() }
	default:
		model, err := onnx.Load(onnx.Config{
			ModelPath:         cfg.ModelPath,
			LabelsPath:        cfg.LabelsPath,
			SharedLibraryPath: cfg.SharedLibraryPath,
			InputName:         cfg.InputName,
			OutputName:        cfg.OutputName,
			Width:             cfg.InputWidth,
			Height:            cfg.InputHeight,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to load classifier model", zap.Error(err))
		}
		return model, func() {
			if err := model.Close(); err != nil {
				zapLogger.Warn("failed to release classifier model", zap.Error(err))
			}
		}
	}
}

func serveClassifier(addr string, cls classifier.Classifier, logger *zap.Logger) *grpc.Server {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("failed to listen for classifier gRPC", zap.Error(err), zap.String("addr", addr))
	}

	server := grpc.NewServer()
	grpcclient.RegisterClassifierServer(server, cls, logger)
	go func() {
		if err := server.Serve(listener); err != nil {
			logger.Error("classifier gRPC server stopped", zap.Error(err))
		}
	}()

	logger.Info("classifier gRPC listening", zap.String("addr", addr))
	return server
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
