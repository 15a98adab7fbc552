package task

import (
	"time"

	"github.com/courtside/ces/internal/config"
	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/notify"
	"github.com/go-co-op/gocron/v2"
)

// NotifyDispatchJob 通知推送任务
type NotifyDispatchJob struct {
	notifier *notify.Notifier
	config   *config.Config
}

// NewNotifyDispatchJob 创建通知推送任务
func NewNotifyDispatchJob(notifier *notify.Notifier, cfg *config.Config) *NotifyDispatchJob {
	return &NotifyDispatchJob{notifier: notifier, config: cfg}
}

// GetName 任务名称
func (j *NotifyDispatchJob) GetName() string {
	return "notification_dispatcher"
}

// GetSchedule 调度配置
func (j *NotifyDispatchJob) GetSchedule() gocron.JobDefinition {
	interval := time.Duration(j.config.Task.Interval) * time.Second
	if interval > 10*time.Second {
		interval = 10 * time.Second
	}
	return gocron.DurationJob(interval)
}

// Execute 执行任务
func (j *NotifyDispatchJob) Execute() {
	if err := j.notifier.DispatchPending(); err != nil {
		logger.Error("Failed to dispatch notifications: %v", err)
	}
}
