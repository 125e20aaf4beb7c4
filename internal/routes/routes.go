package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"nusantara-erp/internal/controllers"
	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/listeners"
	"nusantara-erp/internal/repositories"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/config"
	"nusantara-erp/pkg/eventbus"
	"nusantara-erp/pkg/filestorage"
	"nusantara-erp/pkg/metrics"
	"nusantara-erp/pkg/middleware"
	"nusantara-erp/pkg/pgdump"
	"nusantara-erp/pkg/service"
)

type Loggers struct {
	Main       *zap.Logger
	Auth       *zap.Logger
	Audit      *zap.Logger
	Backup     *zap.Logger
	Monitoring *zap.Logger
}

// ForAll returns a Loggers with every area pointing at logger.
func ForAll(logger *zap.Logger) *Loggers {
	return &Loggers{
		Main:       logger,
		Auth:       logger.Named("auth"),
		Audit:      logger.Named("audit"),
		Backup:     logger.Named("backup"),
		Monitoring: logger.Named("monitoring"),
	}
}

func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, bus *eventbus.Bus, jwtSvc service.JWTService, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: building routes")

	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Uploads.Dir)
	if err != nil {
		loggers.Main.Fatal("could not create file storage", zap.Error(err))
	}

	// --- 1. repositories ---
	txManager := repositories.NewTxManager(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	userRepo := repositories.NewUserRepository(dbConn, loggers.Auth)
	sessionRepo := repositories.NewSessionRepository(dbConn, loggers.Auth)
	loginHistoryRepo := repositories.NewLoginHistoryRepository(dbConn, loggers.Auth)
	auditRepo := repositories.NewAuditLogRepository(dbConn, loggers.Audit)
	backupRepo := repositories.NewBackupRepository(dbConn, loggers.Backup)
	budgetRepo := repositories.NewBudgetRepository(dbConn, loggers.Main)
	expenseRepo := repositories.NewExpenseRepository(dbConn, loggers.Main)
	subsidiaryRepo := repositories.NewSubsidiaryRepository(dbConn, loggers.Main)
	manpowerRepo := repositories.NewManpowerRepository(dbConn, loggers.Main)
	monitoringRepo := repositories.NewMonitoringRepository(dbConn)

	listeners.NewAuditPersistListener(auditRepo, loggers.Audit).Register(bus)

	// --- 2. services ---
	auditService := services.NewAuditService(auditRepo, bus, loggers.Audit)
	securityService := services.NewSecurityService(sessionRepo, cacheRepo, cfg.Auth, cfg.JWT.AccessTokenTTL, loggers.Auth)
	authService := services.NewAuthService(
		userRepo, sessionRepo, loginHistoryRepo, cacheRepo,
		securityService, jwtSvc, auditService, cfg.Auth, loggers.Auth,
	)
	dumpTool := pgdump.FromConfig(cfg.Backup, loggers.Backup)
	backupService := services.NewBackupService(backupRepo, dumpTool, dumpTool, cfg.Backup, loggers.Backup)
	budgetService := services.NewBudgetValidationService(budgetRepo, expenseRepo, loggers.Main)
	subsidiaryService := services.NewSubsidiaryService(subsidiaryRepo, fileStorage, loggers.Main)
	manpowerService := services.NewManpowerService(txManager, manpowerRepo, userRepo, loggers.Main)
	monitoringService := services.NewMonitoringService(
		metrics.NewSystemCollector(),
		monitoringRepo,
		sessionRepo,
		metrics.NewHistory(cfg.Monitoring.HistorySize, cfg.Monitoring.APIHistorySize),
		loggers.Monitoring,
	)

	// --- 3. controllers ---
	authCtrl := controllers.NewAuthController(authService, securityService, loggers.Auth)
	auditCtrl := controllers.NewAuditController(auditService, cfg.Audit.RetentionDays, loggers.Audit)
	backupCtrl := controllers.NewBackupController(backupService, loggers.Backup)
	budgetCtrl := controllers.NewBudgetValidationController(budgetService, loggers.Main)
	subsidiaryCtrl := controllers.NewSubsidiaryController(subsidiaryService, loggers.Main)
	manpowerCtrl := controllers.NewManpowerController(manpowerService, auditService, loggers.Main)
	monitoringCtrl := controllers.NewMonitoringController(monitoringService, loggers.Monitoring)

	// --- 4. routers ---
	e.Use(middleware.Monitoring(monitoringService))
	e.Use(middleware.AuditTrail(auditService, jwtSvc, loggers.Audit))

	authMW := middleware.NewAuthMiddleware(jwtSvc, securityService, loggers.Auth)
	adminOnly := middleware.RequireRoles(loggers.Auth, dto.RoleAdmin, dto.RoleSuperAdmin)

	api := e.Group("/api")
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authCtrl, authMW)
	runMonitoringRouter(e, secureGroup, monitoringCtrl)
	runAuditRouter(secureGroup, auditCtrl, adminOnly)
	runBackupRouter(secureGroup, backupCtrl, adminOnly)
	runBudgetValidationRouter(secureGroup, budgetCtrl)
	runSubsidiaryRouter(secureGroup, subsidiaryCtrl)
	runManpowerRouter(secureGroup, manpowerCtrl)

	loggers.Main.Info("InitRouter: routes ready")
}
