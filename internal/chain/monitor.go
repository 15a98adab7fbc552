package chain

import (
	"context"
	"time"

	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// TransferMonitor 提款交易确认监控
// 轮询待确认的提款记录，交易达到确认区块数后标记成功，
// 回执失败的交易标记失败并告警（余额回滚需人工介入，交易已广播）
type TransferMonitor struct {
	client   *Client
	db       *gorm.DB
	interval time.Duration
	pool     *ants.Pool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewTransferMonitor 创建监控器
func NewTransferMonitor(client *Client, db *gorm.DB, interval time.Duration, poolSize int) (*TransferMonitor, error) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TransferMonitor{
		client:   client,
		db:       db,
		interval: interval,
		pool:     pool,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 启动监控循环
func (m *TransferMonitor) Start() {
	logger.Info("Transfer monitor started, interval %s", m.interval)
	go m.loop()
}

// Stop 停止监控
func (m *TransferMonitor) Stop() {
	m.cancel()
	m.pool.Release()
}

// loop 监控循环
func (m *TransferMonitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Transfer monitor stopped")
			return
		case <-ticker.C:
			if err := m.checkPendingClaims(); err != nil {
				logger.Error("Error checking pending claims: %v", err)
			}
		}
	}
}

// checkPendingClaims 检查待确认的提款交易
func (m *TransferMonitor) checkPendingClaims() error {
	var pending []model.ClaimRecordModel
	if err := m.db.Where("status = ? AND tx_hash <> ''", string(model.ClaimStatusPending)).
		Limit(100).
		Find(&pending).Error; err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	logger.Debug("Checking %d pending claim transactions", len(pending))

	for _, claim := range pending {
		claim := claim
		err := m.pool.Submit(func() {
			m.confirmClaim(&claim)
		})
		if err != nil {
			logger.Error("Failed to submit claim %s to pool: %v", claim.Reference, err)
		}
	}

	return nil
}

// confirmClaim 确认单笔提款交易
func (m *TransferMonitor) confirmClaim(claim *model.ClaimRecordModel) {
	confirmed, err := m.client.IsTransactionConfirmed(m.ctx, claim.TxHash)
	if err != nil {
		logger.Warn("Failed to check confirmation for claim %s (tx %s): %v",
			claim.Reference, claim.TxHash, err)
		return
	}
	if !confirmed {
		return
	}

	if err := m.db.Model(&model.ClaimRecordModel{}).
		Where("id = ?", claim.Id).
		Update("status", string(model.ClaimStatusSuccess)).Error; err != nil {
		logger.Error("Failed to mark claim %s confirmed: %v", claim.Reference, err)
		return
	}

	logger.Info("Claim %s confirmed on chain, tx %s", claim.Reference, claim.TxHash)
}
