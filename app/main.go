package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nusantara-erp/internal/routes"
	"nusantara-erp/pkg/config"
	"nusantara-erp/pkg/database/postgresql"
	"nusantara-erp/pkg/database/redisdb"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/eventbus"
	applogger "nusantara-erp/pkg/logger"
	appmw "nusantara-erp/pkg/middleware"
	"nusantara-erp/pkg/service"
	"nusantara-erp/pkg/utils"
	"nusantara-erp/pkg/validation"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "internal server error", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger(logger.Named("http")))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := postgresql.Connect(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("could not connect to PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if err := postgresql.Migrate(ctx, dbConn, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	redisClient, err := redisdb.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("could not connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	bus := eventbus.New(logger.Named("eventbus"))
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	routes.InitRouter(e, dbConn, redisClient, bus, jwtSvc, routes.ForAll(logger), cfg)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := bus.Close(shutdownCtx); err != nil {
		logger.Warn("audit events still in flight at shutdown", zap.Error(err))
	}
}
