package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/mentorhub/internal/app/auth"
	appControllers "github.com/yigit/mentorhub/internal/app/controllers"
	appMigrations "github.com/yigit/mentorhub/internal/app/migrations"
	appRepos "github.com/yigit/mentorhub/internal/app/repositories"
	appRoutes "github.com/yigit/mentorhub/internal/app/routes"
	appServices "github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/config"
	"github.com/yigit/mentorhub/internal/db"
	appMiddleware "github.com/yigit/mentorhub/internal/middleware"
	pkgAuth "github.com/yigit/mentorhub/internal/pkg/auth"
	"github.com/yigit/mentorhub/internal/pkg/cache"
	"github.com/yigit/mentorhub/internal/pkg/email"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
	"github.com/yigit/mentorhub/internal/pkg/logger"
	"github.com/yigit/mentorhub/internal/pkg/qrcode"
	"github.com/yigit/mentorhub/internal/pkg/validation"
	"github.com/yigit/mentorhub/internal/pkg/websocket"
	"github.com/yigit/mentorhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Hub          *websocket.Hub
	Mailer       email.EmailService

	AuthService         appServices.AuthService
	UserService         appServices.UserService
	PeriodService       appServices.PeriodService
	PointReasonService  appServices.PointReasonService
	LeaderboardService  appServices.LeaderboardService
	LedgerService       appServices.LedgerService
	AttendanceService   appServices.AttendanceService
	EventService        appServices.EventService
	SyllabusService     appServices.SyllabusService
	WishService         appServices.WishService
	WeeklyReportService appServices.WeeklyReportService
	ReportService       appServices.ReportService

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Format == "text",
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL, applies migrations and seeds default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	if err := RunMigrations(ctx, dbPool, lgr); err != nil {
		dbPool.Close()
		return nil, err
	}

	if err := seed.CreateDefaultData(ctx, dbPool, seed.Options{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
	}, lgr); err != nil {
		// not fatal: the API still works without seed data
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// RunMigrations applies the embedded SQL migrations
func RunMigrations(ctx context.Context, conn db.DBTX, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(conn, appMigrations.Files(), lgr).Up(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Strs("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// SetupRedis connects to Redis when enabled. A nil client means caching and throttling are off.
func SetupRedis(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		lgr.Info().Msg("Redis disabled; leaderboard served from the database and check-ins are not throttled")
		return nil, nil
	}

	redisCfg := cache.DefaultConfig()
	redisCfg.Addr = cfg.Redis.Addr
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB

	client, err := cache.NewClient(ctx, redisCfg)
	if err != nil {
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return nil, err
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return client, nil
}

// BuildDependencies initializes repositories, services, and controllers.
// The websocket hub runs until ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, conn db.DBTX, rdb *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(conn)
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Mailer = email.NewEmailService(email.Config{
		APIKey:    cfg.Email.SendgridAPIKey,
		FromName:  cfg.Email.FromName,
		FromEmail: cfg.Email.FromEmail,
		BaseURL:   cfg.Server.BaseURL,
	}, logger.Component("email"))

	deps.Hub = websocket.NewHub(logger.Component("live"))
	go deps.Hub.Run(ctx)

	// interfaces stay nil, not typed-nil, when Redis is off
	var leaderboardCache appServices.LeaderboardCache
	var throttle appServices.CheckInThrottle
	if rdb != nil {
		leaderboardCache = cache.NewLeaderboard(rdb, helpers.ParseDuration(cfg.Redis.LeaderboardTTL, 10*time.Minute))
		throttle = cache.NewCheckInLimiter(rdb, cfg.Redis.CheckInMaxAttempts, helpers.ParseDuration(cfg.Redis.CheckInWindow, time.Minute))
	}

	repos := deps.Repos
	deps.AuthService = appServices.NewAuthService(repos.UserRepository, repos.TokenRepository, deps.JWTService, lgr)
	deps.UserService = appServices.NewUserService(repos.UserRepository, repos.TokenRepository, deps.AuthzService, deps.Mailer, lgr)
	deps.PeriodService = appServices.NewPeriodService(repos.PeriodRepository, lgr)
	deps.PointReasonService = appServices.NewPointReasonService(repos.PointReasonRepository)
	deps.LeaderboardService = appServices.NewLeaderboardService(repos.LedgerRepository, repos.PeriodRepository, repos.UserRepository, leaderboardCache, lgr)
	deps.LedgerService = appServices.NewLedgerService(
		repos.LedgerRepository,
		repos.PeriodRepository,
		repos.PointReasonRepository,
		repos.UserRepository,
		deps.AuthzService,
		deps.LeaderboardService,
		lgr,
	)
	deps.AttendanceService = appServices.NewAttendanceService(
		repos.AttendanceRepository,
		repos.PeriodRepository,
		repos.UserRepository,
		deps.AuthzService,
		deps.LeaderboardService,
		throttle,
		deps.Hub,
		qrcode.NewGenerator(cfg.Attendance.CheckInBaseURL, cfg.Attendance.QRSize),
		cfg.Location(),
		lgr,
	)
	deps.EventService = appServices.NewEventService(repos.EventRepository, repos.PeriodRepository, deps.AuthzService, deps.LeaderboardService, lgr)
	deps.SyllabusService = appServices.NewSyllabusService(repos.SyllabusRepository, repos.UserRepository, lgr)
	deps.WishService = appServices.NewWishService(repos.WishRepository, repos.PeriodRepository, deps.AuthzService, deps.LeaderboardService, deps.Mailer, lgr)
	deps.WeeklyReportService = appServices.NewWeeklyReportService(repos.WeeklyReportRepository, lgr)
	deps.ReportService = appServices.NewReportService(appServices.ReportDeps{
		Reports:       repos.ReportRepository,
		Periods:       repos.PeriodRepository,
		Users:         repos.UserRepository,
		Attendance:    repos.AttendanceRepository,
		Events:        repos.EventRepository,
		Wishes:        repos.WishRepository,
		WeeklyReports: repos.WeeklyReportRepository,
	}, deps.LeaderboardService, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(deps.AuthService, lgr),
		User:       appControllers.NewUserController(deps.UserService),
		Period:     appControllers.NewPeriodController(deps.PeriodService, deps.PointReasonService),
		Ledger:     appControllers.NewLedgerController(deps.LedgerService, deps.LeaderboardService),
		Attendance: appControllers.NewAttendanceController(deps.AttendanceService, deps.Hub, lgr),
		Event:      appControllers.NewEventController(deps.EventService),
		Syllabus:   appControllers.NewSyllabusController(deps.SyllabusService),
		Wish:       appControllers.NewWishController(deps.WishService),
		Report:     appControllers.NewReportController(deps.WeeklyReportService, deps.ReportService),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.Register(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router, nil
}
