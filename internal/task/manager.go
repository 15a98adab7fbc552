package task

import (
	"github.com/courtside/ces/internal/config"
	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/logic"
	"github.com/courtside/ces/internal/notify"
	"github.com/go-co-op/gocron/v2"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	engine    *logic.Engine
	notifier  *notify.Notifier
	config    *config.Config
}

// Job 后台任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// NewManager 创建任务管理器
func NewManager(engine *logic.Engine, notifier *notify.Notifier, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		engine:    engine,
		notifier:  notifier,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(engine *logic.Engine, notifier *notify.Notifier, cfg *config.Config) *Manager {
	manager := NewManager(engine, notifier, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.register(NewFinalizeSweepJob(m.engine, m.config))
	m.register(NewNotifyDispatchJob(m.notifier, m.config))
}

// register 注册单个任务
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
