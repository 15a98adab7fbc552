package model

import (
	"time"
)

// SettlementModel 结算提案，每个活动至多一条
type SettlementModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId           int64     `json:"event_id" gorm:"not null;uniqueIndex"`
	TotalExpense      *Amount   `json:"total_expense" gorm:"not null"`
	EvidenceRef       string    `json:"evidence_ref"` // 费用凭证指针（如内容哈希），引擎不校验
	InitiatedAt       time.Time `json:"initiated_at" gorm:"not null"`
	ChallengeDeadline time.Time `json:"challenge_deadline" gorm:"not null"`
}

// TableName 自定义表名
func (SettlementModel) TableName() string {
	return "settlement"
}
