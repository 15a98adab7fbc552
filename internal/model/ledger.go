package model

import (
	"time"
)

// LedgerAccountModel 内部账本账户，(代币, 地址) 唯一
// 链下部署时由 LedgerBank 作为价值转移媒介使用
type LedgerAccountModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TokenAddress string  `json:"token_address" gorm:"not null;uniqueIndex:idx_ledger_token_addr"`
	Address      string  `json:"address" gorm:"not null;uniqueIndex:idx_ledger_token_addr"`
	Balance      *Amount `json:"balance" gorm:"not null"`
}

// TableName 自定义表名
func (LedgerAccountModel) TableName() string {
	return "ledger_account"
}

// LedgerAllowanceModel 账户对托管池的授权额度
type LedgerAllowanceModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TokenAddress string  `json:"token_address" gorm:"not null;uniqueIndex:idx_allowance_token_owner"`
	Owner        string  `json:"owner" gorm:"not null;uniqueIndex:idx_allowance_token_owner"`
	Amount       *Amount `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (LedgerAllowanceModel) TableName() string {
	return "ledger_allowance"
}
