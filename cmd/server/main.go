package main

import (
	"time"

	"github.com/courtside/ces/internal/chain"
	"github.com/courtside/ces/internal/config"
	"github.com/courtside/ces/internal/database"
	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/logic"
	"github.com/courtside/ces/internal/notify"
	"github.com/courtside/ces/internal/router"
	"github.com/courtside/ces/internal/task"
	"github.com/courtside/ces/internal/token"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithRotation(level, logger.RotationConfig{Filename: cfg.Log.File})
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 选择价值转移媒介
	var bank token.TransferProvider
	var monitor *chain.TransferMonitor
	switch cfg.Engine.Provider {
	case "chain":
		client, err := chain.NewClient(cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize chain client: %v", err)
		}
		interval := time.Duration(cfg.Task.Interval) * time.Second
		monitor, err = chain.NewTransferMonitor(client, db, interval, cfg.Notify.PoolSize)
		if err != nil {
			logger.Fatal("Failed to initialize transfer monitor: %v", err)
		}
		bank = client
		logger.Info("Using on-chain transfer provider, escrow account %s", client.EscrowAddress())
	default:
		bank = token.NewLedgerBank(db, cfg.Engine.EscrowAddress)
		logger.Info("Using internal ledger transfer provider")
	}

	// 初始化通知器
	notifier, err := notify.New(db, cfg.Notify.Webhooks, cfg.Notify.PoolSize)
	if err != nil {
		logger.Fatal("Failed to initialize notifier: %v", err)
	}
	defer notifier.Close()

	// 初始化托管引擎
	engine := logic.NewEngine(db, bank, notifier, logic.Options{
		OwnerAddress:      cfg.Engine.OwnerAddress,
		ChallengeDuration: time.Duration(cfg.Engine.ChallengeDuration) * time.Second,
	})

	// 预置代币白名单
	if err := engine.Admin.Bootstrap(cfg.Engine.Tokens); err != nil {
		logger.Fatal("Failed to bootstrap supported tokens: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(engine)

	// 启动定时任务
	manager := task.Start(engine, notifier, cfg)
	defer manager.Stop()

	// 启动链上交易确认监控
	if monitor != nil {
		monitor.Start()
		defer monitor.Stop()
	}

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
