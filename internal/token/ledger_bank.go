package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/courtside/ces/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerBank 数据库内部账本实现的价值转移媒介
// 链下部署时替代链上代币合约，余额变更与托管记账共用同一个数据库
type LedgerBank struct {
	db            *gorm.DB
	escrowAddress string
	mu            sync.Mutex
}

// NewLedgerBank 创建内部账本
func NewLedgerBank(db *gorm.DB, escrowAddress string) *LedgerBank {
	return &LedgerBank{db: db, escrowAddress: escrowAddress}
}

// EscrowAddress 托管池账户标识
func (b *LedgerBank) EscrowAddress() string {
	return b.escrowAddress
}

// Synchronous 内部账本转账即时终局
func (b *LedgerBank) Synchronous() bool {
	return true
}

// Mint 给账户铸造余额，预充值入口
func (b *LedgerBank) Mint(tokenAddress, address string, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.db.Transaction(func(tx *gorm.DB) error {
		return b.credit(tx, tokenAddress, address, amount)
	})
}

// Approve 设置账户对托管池的授权额度
func (b *LedgerBank) Approve(tokenAddress, owner string, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var allowance model.LedgerAllowanceModel
	err := b.db.Where("token_address = ? AND owner = ?", tokenAddress, owner).First(&allowance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		allowance = model.LedgerAllowanceModel{
			TokenAddress: tokenAddress,
			Owner:        owner,
			Amount:       model.AmountFromBig(amount),
		}
		return b.db.Create(&allowance).Error
	}
	if err != nil {
		return err
	}
	allowance.Amount = model.AmountFromBig(amount)
	return b.db.Save(&allowance).Error
}

// BalanceOf 查询账户余额
func (b *LedgerBank) BalanceOf(tokenAddress, address string) (*big.Int, error) {
	var account model.LedgerAccountModel
	err := b.db.Where("token_address = ? AND address = ?", tokenAddress, address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return account.Balance.BigInt(), nil
}

// TransferFrom 从付款人账户划转到托管池，校验授权额度
func (b *LedgerBank) TransferFrom(ctx context.Context, tokenAddress, payer string, amount *big.Int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var allowance model.LedgerAllowanceModel
		err := tx.Where("token_address = ? AND owner = ?", tokenAddress, payer).First(&allowance).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && allowance.Amount.Cmp(amount) < 0) {
			return ErrInsufficientAllowance
		}
		if err != nil {
			return err
		}

		if err := b.debit(tx, tokenAddress, payer, amount); err != nil {
			return err
		}
		if err := b.credit(tx, tokenAddress, b.escrowAddress, amount); err != nil {
			return err
		}

		allowance.Amount = model.AmountFromBig(new(big.Int).Sub(allowance.Amount.BigInt(), amount))
		return tx.Save(&allowance).Error
	})
	if err != nil {
		return "", err
	}
	return ledgerReference(), nil
}

// Transfer 从托管池支付给收款人
func (b *LedgerBank) Transfer(ctx context.Context, tokenAddress, recipient string, amount *big.Int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := b.debit(tx, tokenAddress, b.escrowAddress, amount); err != nil {
			return err
		}
		return b.credit(tx, tokenAddress, recipient, amount)
	})
	if err != nil {
		return "", err
	}
	return ledgerReference(), nil
}

// debit 扣减账户余额，余额不足则失败
func (b *LedgerBank) debit(tx *gorm.DB, tokenAddress, address string, amount *big.Int) error {
	var account model.LedgerAccountModel
	err := tx.Where("token_address = ? AND address = ?", tokenAddress, address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInsufficientBalance
	}
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	account.Balance = model.AmountFromBig(new(big.Int).Sub(account.Balance.BigInt(), amount))
	return tx.Save(&account).Error
}

// credit 增加账户余额，账户不存在则创建
func (b *LedgerBank) credit(tx *gorm.DB, tokenAddress, address string, amount *big.Int) error {
	var account model.LedgerAccountModel
	err := tx.Where("token_address = ? AND address = ?", tokenAddress, address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = model.LedgerAccountModel{
			TokenAddress: tokenAddress,
			Address:      address,
			Balance:      model.AmountFromBig(amount),
		}
		return tx.Create(&account).Error
	}
	if err != nil {
		return err
	}
	account.Balance = model.AmountFromBig(new(big.Int).Add(account.Balance.BigInt(), amount))
	return tx.Save(&account).Error
}

// ledgerReference 内部转账参考号
func ledgerReference() string {
	return fmt.Sprintf("ledger-%s", uuid.NewString())
}
