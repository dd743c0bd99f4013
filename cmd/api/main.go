package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/jlpt-api/internal/config"
	"github.com/yourusername/jlpt-api/internal/handler"
	"github.com/yourusername/jlpt-api/internal/i18n"
	"github.com/yourusername/jlpt-api/internal/middleware"
	"github.com/yourusername/jlpt-api/internal/proxy"
	pgRepo "github.com/yourusername/jlpt-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/jlpt-api/internal/repository/redis"
	"github.com/yourusername/jlpt-api/internal/service"
	"github.com/yourusername/jlpt-api/internal/service/jlpt"
	ws "github.com/yourusername/jlpt-api/internal/websocket"
	"github.com/yourusername/jlpt-api/pkg/auth"
	"github.com/yourusername/jlpt-api/pkg/database"
	"github.com/yourusername/jlpt-api/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// Логгер еще не создан
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	isProduction := cfg.Server.IsRelease()
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключаемся к PostgreSQL и применяем миграции
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), !isProduction)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.MigrateDB(db, database.DefaultMigrationsSource, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	codeRepo := pgRepo.NewRedeemCodeRepo(db)
	cacheRepo, err := redisRepo.NewCacheRepo(redisClient, "jlpt:")
	if err != nil {
		log.Fatal("Failed to create cache repository", zap.Error(err))
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, log)
	if err != nil {
		log.Fatal("Failed to create JWT service", zap.Error(err))
	}

	// Сервисы
	examService := service.NewExamService(attemptRepo, log)
	authService := service.NewAuthService(userRepo, jwtService, log)
	billingService := service.NewBillingService(codeRepo, newEmailService(cfg.Email, log), cfg.Billing.CodePrefix, log)
	adminService := service.NewAdminService(userRepo, attemptRepo, codeRepo, log)
	chatService := service.NewChatService(newChatModel(ctx, cfg.AI, log), cfg.AI.MaxMessages, log)

	// Upstream прокси: общий транспорт, кеш только для словаря
	upstreamClient := &http.Client{}
	newForwarder := func(name string, u config.UpstreamConfig) *proxy.Forwarder {
		return &proxy.Forwarder{
			Name:         name,
			BaseURL:      u.BaseURL,
			APIKey:       u.APIKey,
			APIKeyHeader: u.APIKeyHeader,
			Timeout:      u.Timeout(),
			Client:       upstreamClient,
			Log:          log,
		}
	}
	jlptForwarder := newForwarder("jlpt", cfg.Upstream.JLPT)
	dictForwarder := newForwarder("dict", cfg.Upstream.Dict)
	dictForwarder.Cache = cacheRepo
	dictForwarder.CacheTTL = time.Duration(cfg.Cache.DictTTLSec) * time.Second
	tracauForwarder := newForwarder("tracau", cfg.Upstream.TraCau)

	// Обработчики
	examHandler := handler.NewExamHandler(examService, log)
	authHandler := handler.NewAuthHandler(authService, log)
	billingHandler := handler.NewBillingHandler(billingService, log)
	adminHandler := handler.NewAdminHandler(adminService, billingService, log)
	chatHandler := handler.NewChatHandler(chatService, log)
	i18nHandler := handler.NewI18nHandler(i18n.NewCatalog(), log)
	wsHandler := handler.NewWSHandler(examService, cfg.Server.CORSOrigins, ws.DefaultTick, log)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, log).WithUserLookup(userRepo)
	rateLimiter := middleware.NewRateLimiter(cacheRepo, log)

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", handler.Healthz(map[string]handler.Pinger{
		"postgres": postgresPinger(db),
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))
	router.GET("/ws/exam-timer", wsHandler.ExamTimer)

	api := router.Group("/api")
	{
		api.GET("/i18n/:lang", middleware.ValidateLanguageParam("lang"), i18nHandler.Get)

		// Аутентификация
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", authHandler.Me)
		}

		// Экзамены
		exams := api.Group("/exams")
		{
			exams.GET("/jlpt/:type/:level/start", middleware.ValidateExamRoute(jlpt.KindJLPT), examHandler.StartJLPT)
			exams.GET("/challenge/:level/start", middleware.ValidateExamRoute(jlpt.KindChallenge), examHandler.StartChallenge)
			exams.GET("/driving/:level/start", middleware.ValidateExamRoute(jlpt.KindDriving), examHandler.StartDriving)
			exams.POST("/submit", authMiddleware.OptionalAuth(), examHandler.Submit)
			exams.POST("/test-url", examHandler.TestURL)

			attempts := exams.Group("/attempts")
			attempts.Use(authMiddleware.RequireAuth())
			{
				attempts.GET("", examHandler.ListAttempts)
				attempts.GET("/:id", middleware.ExtractUintParam("id", "attemptID"), examHandler.GetAttempt)
			}
		}

		api.POST("/billing/redeem", authMiddleware.RequireAuth(), billingHandler.Redeem)
		api.POST("/chat", authMiddleware.RequireAuth(), rateLimiter.Limit(middleware.ChatRateLimitConfig()), chatHandler.Reply)

		// Администрирование
		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/role", middleware.ExtractUintParam("id", "targetUserID"), adminHandler.UpdateUserRole)
			admin.GET("/attempts/export", adminHandler.ExportAttempts)
			admin.POST("/codes", adminHandler.GenerateCodes)
			admin.GET("/codes", adminHandler.ListCodes)
			admin.GET("/codes/export", adminHandler.ExportCodes)
		}

		// Сторонние API
		api.Any("/jlpt/*path", handler.NewProxyHandler(jlptForwarder, log).Forward)
		api.Any("/dict/*path", handler.NewProxyHandler(dictForwarder, log).Forward)
		api.Any("/tracau/*path", handler.NewProxyHandler(tracauForwarder, log).Forward)
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Ожидаем SIGINT/SIGTERM или падения сервера
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("Failed to start server", zap.Error(err))
	}
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Shutdown не ждет hijacked соединения: останавливаем таймеры WebSocket
	cancel()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server exited properly")
}

// newEmailService выбирает Resend при наличии ключа, иначе письма только логируются
func newEmailService(cfg config.EmailConfig, log *zap.Logger) service.EmailService {
	if cfg.ResendAPIKey == "" {
		return service.NewNoopEmailService(log)
	}
	email, err := service.NewResendEmailService(cfg.ResendAPIKey, cfg.From)
	if err != nil {
		log.Warn("Resend is not configured, falling back to log-only email", zap.Error(err))
		return service.NewNoopEmailService(log)
	}
	return email
}

// newChatModel возвращает Gemini-модель или заглушку, если ключ не задан
func newChatModel(ctx context.Context, cfg config.AIConfig, log *zap.Logger) service.ChatModel {
	if cfg.APIKey == "" {
		log.Info("AI assistant disabled: no API key")
		return service.NoopChatModel{}
	}
	model, err := service.NewGenAIChatModel(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		log.Warn("AI assistant disabled", zap.Error(err))
		return service.NoopChatModel{}
	}
	return model
}

func postgresPinger(db *gorm.DB) handler.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
