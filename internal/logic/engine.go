package logic

import (
	"time"

	"github.com/courtside/ces/internal/notify"
	"github.com/courtside/ces/internal/token"
	"gorm.io/gorm"
)

// Engine 活动托管引擎，全部业务逻辑的入口
// 活动生命周期、费用收取、结算分账、质疑期与提款记账都在这里
type Engine struct {
	Event      *EventLogic
	Settlement *SettlementLogic
	Balance    *BalanceLogic
	Admin      *AdminLogic
}

// Options 引擎参数
type Options struct {
	OwnerAddress      string        // 管理员地址
	ChallengeDuration time.Duration // 质疑期时长
	Clock             Clock         // 为空时使用系统时钟
}

// NewEngine 创建托管引擎
// 同一活动的写操作共用一把活动锁，提款按 (活动, 身份) 加锁
func NewEngine(db *gorm.DB, bank token.TransferProvider, notifier *notify.Notifier, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}

	eventLocks := NewKeyedMutex()
	balanceLocks := NewKeyedMutex()

	admin := NewAdminLogic(db, opts.OwnerAddress)

	return &Engine{
		Event:      NewEventLogic(db, bank, admin, notifier, clock, eventLocks),
		Settlement: NewSettlementLogic(db, notifier, clock, opts.ChallengeDuration, eventLocks),
		Balance:    NewBalanceLogic(db, bank, balanceLocks),
		Admin:      admin,
	}
}
