package task

import (
	"errors"
	"time"

	"github.com/courtside/ces/internal/config"
	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// FinalizeSweepJob 结算完成扫描任务
// finalize 对任何调用者开放，这个任务代为触发质疑期已过的结算，
// 主理人不在线也不会卡住分账
type FinalizeSweepJob struct {
	engine *logic.Engine
	config *config.Config
}

// NewFinalizeSweepJob 创建结算扫描任务
func NewFinalizeSweepJob(engine *logic.Engine, cfg *config.Config) *FinalizeSweepJob {
	return &FinalizeSweepJob{engine: engine, config: cfg}
}

// GetName 任务名称
func (j *FinalizeSweepJob) GetName() string {
	return "settlement_finalize_sweeper"
}

// GetSchedule 调度配置
func (j *FinalizeSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *FinalizeSweepJob) Execute() {
	eventIds, err := j.engine.Settlement.FindDueSettlements()
	if err != nil {
		logger.Error("Failed to find due settlements: %v", err)
		return
	}

	if len(eventIds) == 0 {
		return
	}

	logger.Info("Finalize sweep found %d due settlements", len(eventIds))

	finalized := 0
	for _, eventId := range eventIds {
		err := j.engine.Settlement.FinalizeSettlement(eventId)
		if err != nil {
			// 扫描和执行之间被别人抢先完成属于正常情况
			if errors.Is(err, logic.ErrAlreadyFinalized) {
				continue
			}
			logger.Error("Failed to finalize settlement for event %d: %v", eventId, err)
			continue
		}
		finalized++
	}

	logger.Info("Finalize sweep completed, finalized %d events", finalized)
}
