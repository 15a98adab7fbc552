package model

import (
	"time"
)

// BalanceModel 可提取余额，(活动, 身份) 唯一
// 由 finalize/cancel 记账写入，claim 成功后清零
type BalanceModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId      int64   `json:"event_id" gorm:"not null;uniqueIndex:idx_event_address"`
	Address      string  `json:"address" gorm:"not null;uniqueIndex:idx_event_address"`
	TokenAddress string  `json:"token_address" gorm:"not null"`
	Amount       *Amount `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (BalanceModel) TableName() string {
	return "balance"
}
