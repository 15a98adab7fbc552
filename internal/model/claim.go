package model

import (
	"time"
)

// ClaimRecordModel 提款记录
type ClaimRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reference    string  `json:"reference" gorm:"uniqueIndex;not null"`
	EventId      int64   `json:"event_id" gorm:"not null;index"`
	Address      string  `json:"address" gorm:"not null"`
	TokenAddress string  `json:"token_address" gorm:"not null"`
	Amount       *Amount `json:"amount" gorm:"not null"`
	Status       string  `json:"status" gorm:"default:'pending'"` // pending, success, failed
	TxHash       string  `json:"tx_hash"`
	FailReason   string  `json:"fail_reason" gorm:"type:text"`
}

// ClaimStatus 提款状态
type ClaimStatus string

const (
	ClaimStatusPending ClaimStatus = "pending" // 待转账
	ClaimStatusSuccess ClaimStatus = "success" // 成功
	ClaimStatusFailed  ClaimStatus = "failed"  // 失败，余额已回滚
)

// TableName 自定义表名
func (ClaimRecordModel) TableName() string {
	return "claim_record"
}
