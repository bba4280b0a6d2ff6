// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yunhetech/crypto-invest-backend/internal/common/config"
	"github.com/yunhetech/crypto-invest-backend/internal/common/crypto"
	"github.com/yunhetech/crypto-invest-backend/internal/common/metrics"
	adminHandler "github.com/yunhetech/crypto-invest-backend/internal/handler/admin"
	investHandler "github.com/yunhetech/crypto-invest-backend/internal/handler/invest"
	ledgerHandler "github.com/yunhetech/crypto-invest-backend/internal/handler/ledger"
	userHandler "github.com/yunhetech/crypto-invest-backend/internal/handler/user"
	withdrawHandler "github.com/yunhetech/crypto-invest-backend/internal/handler/withdraw"
	"github.com/yunhetech/crypto-invest-backend/internal/middleware"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
	"github.com/yunhetech/crypto-invest-backend/internal/scheduler"
	"github.com/yunhetech/crypto-invest-backend/internal/service/audit"
	"github.com/yunhetech/crypto-invest-backend/internal/service/distribution"
	investService "github.com/yunhetech/crypto-invest-backend/internal/service/invest"
	"github.com/yunhetech/crypto-invest-backend/internal/service/payout"
	"github.com/yunhetech/crypto-invest-backend/internal/service/referral"
	userService "github.com/yunhetech/crypto-invest-backend/internal/service/user"
	withdrawService "github.com/yunhetech/crypto-invest-backend/internal/service/withdraw"
	"github.com/yunhetech/crypto-invest-backend/pkg/chain"
	"github.com/yunhetech/crypto-invest-backend/pkg/notify"
)

// setupRouter 组装依赖、注册路由，并返回后台调度器
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) (*scheduler.Scheduler, error) {
	// 地址加密器
	cipher, err := crypto.NewCipher(cfg.Crypto.AESKey)
	if err != nil {
		return nil, err
	}

	// 链上客户端：未配置网关时使用 Mock（开发环境）
	var chainClient chain.Client
	if cfg.Chain.APIBaseURL != "" {
		chainClient = chain.NewHTTPClient(&chain.Config{
			BaseURL:          cfg.Chain.APIBaseURL,
			APIKey:           cfg.Chain.APIKey,
			TransferTimeout:  cfg.Chain.TransferTimeoutDuration(),
			MaxRetries:       cfg.Chain.MaxRetries,
			MinConfirmations: cfg.Chain.MinConfirmations,
		})
	} else {
		logger.Warn("Chain gateway not configured, using mock client")
		chainClient = chain.NewMockClient()
	}

	// 站内通知
	sender := notify.NewLogSender(logger)

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	botRepo := repository.NewBotRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	lostRepo := repository.NewLostCommissionRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	configRepo := repository.NewSystemConfigRepository(db)

	// 初始化服务
	uplineSvc := referral.NewUplineService(userRepo)
	distributeSvc := distribution.NewDistributeService(
		userRepo, packageRepo, earningRepo, lostRepo, uplineSvc, sender, db)
	settleSvc := distribution.NewSettleService(
		earningRepo, txnRepo, lostRepo, userRepo, configRepo, chainClient, &cfg.Chain)

	userSvc := userService.NewUserService(userRepo, cfg.Server.Name)
	investSvc := investService.NewInvestService(
		userRepo, packageRepo, botRepo, distributeSvc, settleSvc, chainClient, &cfg.Chain)
	withdrawSvc := withdrawService.NewWithdrawService(
		userRepo, earningRepo, txnRepo, withdrawalRepo, configRepo,
		cipher, chainClient, sender, &cfg.Business.Withdraw, &cfg.Chain)

	roiSvc := payout.NewRoiService(
		packageRepo, botRepo, configRepo, sender, db, cfg.Business.Roi.BatchSize)
	expireSvc := payout.NewExpirationService(
		packageRepo, botRepo, sender, db, cfg.Business.Roi.BatchSize)
	auditSvc := audit.NewAuditService(earningRepo, lostRepo, packageRepo, 0)

	// 初始化处理器
	userH := userHandler.NewHandler(userSvc)
	investH := investHandler.NewHandler(investSvc, packageRepo, botRepo)
	ledgerH := ledgerHandler.NewHandler(earningRepo, txnRepo)
	withdrawH := withdrawHandler.NewHandler(withdrawSvc)
	adminH := adminHandler.NewHandler(withdrawSvc, investSvc, auditSvc, withdrawalRepo, configRepo)

	// 指标采集
	m := metrics.Init(cfg.Server.Name)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Identity())
	if cfg.Metrics.Enabled {
		r.Use(m.GinMiddleware())
	}
	if redisClient != nil {
		r.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig(redisClient)))
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// 指标端点
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			public.POST("/users/register", userH.Register)
			public.GET("/tiers", investH.ListTiers)
		}

		// 用户端接口（经网关注入用户身份）
		user := v1.Group("")
		user.Use(middleware.RequireUser())
		{
			user.GET("/users/me", userH.GetProfile)
			user.POST("/users/wallet", userH.BindWallet)
			user.POST("/users/totp/enroll", userH.EnrollTotp)
			user.POST("/users/totp/confirm", userH.ConfirmTotp)

			user.POST("/packages", investH.CreatePackage)
			user.GET("/packages", investH.ListPackages)
			user.POST("/packages/:id/deposit", investH.ConfirmDeposit)

			user.POST("/bots", investH.CreateBot)
			user.GET("/bots", investH.ListBots)
			user.POST("/bots/:id/deposit", investH.ConfirmBotDeposit)

			user.GET("/earnings", ledgerH.ListEarnings)
			user.GET("/transactions", ledgerH.ListTransactions)

			user.GET("/withdrawals/available", withdrawH.GetAvailable)
			user.POST("/withdrawals", withdrawH.Apply)
			user.GET("/withdrawals", withdrawH.List)
		}

		// 运营端接口（经网关注入运营身份）
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/withdrawals", adminH.ListWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminH.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminH.RejectWithdrawal)
			admin.POST("/withdrawals/:id/complete", adminH.CompleteWithdrawal)

			admin.POST("/packages/:id/reject", adminH.RejectPackage)

			admin.POST("/audit", adminH.RunAudit)

			admin.GET("/configs", adminH.ListConfigs)
			admin.POST("/configs", adminH.SetConfig)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})

	// 后台定时任务
	taskHandler := scheduler.NewTaskHandler(roiSvc, expireSvc, auditSvc, redisClient)
	sched := scheduler.NewScheduler()

	roiInterval := time.Duration(cfg.Business.Roi.TickInterval) * time.Minute
	if roiInterval <= 0 {
		roiInterval = 10 * time.Minute
	}
	sched.AddTask("pay_roi", roiInterval, taskHandler.PayRoi)
	sched.AddTask("sweep_expirations", time.Hour, taskHandler.SweepExpirations)
	sched.AddTask("audit_commissions", 6*time.Hour, taskHandler.AuditCommissions)

	return sched, nil
}
