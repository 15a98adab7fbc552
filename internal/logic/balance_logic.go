package logic

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/model"
	"github.com/courtside/ces/internal/token"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BalanceLogic 可提取余额与提款业务逻辑
type BalanceLogic struct {
	db    *gorm.DB
	bank  token.TransferProvider
	locks *KeyedMutex
}

// NewBalanceLogic 创建余额业务逻辑
func NewBalanceLogic(db *gorm.DB, bank token.TransferProvider, locks *KeyedMutex) *BalanceLogic {
	return &BalanceLogic{db: db, bank: bank, locks: locks}
}

// Withdrawable 查询可提取余额，没有记录时为零
func (b *BalanceLogic) Withdrawable(eventId int64, address string) (*big.Int, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var balance model.BalanceModel
	err = b.db.Where("event_id = ? AND address = ?", eventId, normalized).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return balance.Amount.BigInt(), nil
}

// ClaimFunds 提取余额：先清零记账，再发起外部转账
// 清零与转账之间的窗口由 (活动, 身份) 锁保护，嵌套重入只会看到零余额；
// 转账失败时恢复余额并把提款记录标记为失败
func (b *BalanceLogic) ClaimFunds(ctx context.Context, eventId int64, caller string) (*model.ClaimRecordModel, error) {
	claimer, err := NormalizeAddress(caller)
	if err != nil {
		return nil, err
	}

	unlock := b.locks.Lock(balanceKey(eventId, claimer))
	defer unlock()

	var balance model.BalanceModel
	err = b.db.Where("event_id = ? AND address = ?", eventId, claimer).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNothingToClaim
	}
	if err != nil {
		return nil, err
	}
	if balance.Amount.IsZero() {
		return nil, ErrNothingToClaim
	}

	amount := balance.Amount.BigInt()
	claim := model.ClaimRecordModel{
		Reference:    uuid.NewString(),
		EventId:      eventId,
		Address:      claimer,
		TokenAddress: balance.TokenAddress,
		Amount:       model.AmountFromBig(amount),
		Status:       string(model.ClaimStatusPending),
	}

	// 先清零，后转账
	err = b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&balance).Update("amount", model.NewAmount(0)).Error; err != nil {
			return err
		}
		return tx.Create(&claim).Error
	})
	if err != nil {
		return nil, fmt.Errorf("提款记账失败: %w", err)
	}

	txHash, transferErr := b.bank.Transfer(ctx, balance.TokenAddress, claimer, amount)
	if transferErr != nil {
		// 转账失败，恢复余额
		restoreErr := b.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&balance).Update("amount", model.AmountFromBig(amount)).Error; err != nil {
				return err
			}
			return tx.Model(&claim).Updates(map[string]interface{}{
				"status":      string(model.ClaimStatusFailed),
				"fail_reason": transferErr.Error(),
			}).Error
		})
		if restoreErr != nil {
			logger.Error("Failed to restore balance for event %d address %s after transfer failure: %v",
				eventId, claimer, restoreErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, transferErr)
	}

	// 即时终局的媒介直接标记成功，链上转账留待确认监控
	status := string(model.ClaimStatusPending)
	if b.bank.Synchronous() {
		status = string(model.ClaimStatusSuccess)
	}
	if err := b.db.Model(&claim).Updates(map[string]interface{}{
		"status":  status,
		"tx_hash": txHash,
	}).Error; err != nil {
		logger.Error("Failed to mark claim %s %s: %v", claim.Reference, status, err)
	}

	logger.Info("Claim %s paid out: event %d, address %s, amount %s",
		claim.Reference, eventId, claimer, amount.String())

	claim.Status = status
	claim.TxHash = txHash
	return &claim, nil
}

// GetClaims 获取活动的提款记录
func (b *BalanceLogic) GetClaims(eventId int64, page, pageSize int) ([]model.ClaimRecordModel, int64, error) {
	var total int64
	if err := b.db.Model(&model.ClaimRecordModel{}).
		Where("event_id = ?", eventId).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var claims []model.ClaimRecordModel
	offset := (page - 1) * pageSize
	if err := b.db.Where("event_id = ?", eventId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&claims).Error; err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

// creditBalance 给 (活动, 身份) 的可提取余额记账，不存在则创建
// 零金额不产生记录
func creditBalance(tx *gorm.DB, eventId int64, tokenAddress, address string, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}

	var balance model.BalanceModel
	err := tx.Where("event_id = ? AND address = ?", eventId, address).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = model.BalanceModel{
			EventId:      eventId,
			Address:      address,
			TokenAddress: tokenAddress,
			Amount:       model.AmountFromBig(amount),
		}
		return tx.Create(&balance).Error
	}
	if err != nil {
		return err
	}

	updated := new(big.Int).Add(balance.Amount.BigInt(), amount)
	return tx.Model(&balance).Update("amount", model.AmountFromBig(updated)).Error
}

// balanceKey 余额锁的 key
func balanceKey(eventId int64, address string) string {
	return fmt.Sprintf("balance:%d:%s", eventId, address)
}
