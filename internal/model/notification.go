package model

import (
	"time"
)

// NotificationModel 状态变更通知，随引起变更的事务一并写入
// 每次状态迁移恰好一条，后台任务异步推送给订阅方
type NotificationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Uid        string `json:"uid" gorm:"uniqueIndex;not null"`
	EventId    int64  `json:"event_id" gorm:"not null;index"`
	Type       string `json:"type" gorm:"not null"`
	Data       string `json:"data" gorm:"type:text"`
	Dispatched bool   `json:"dispatched" gorm:"default:false;index"`
	// 已投递成功的订阅方（JSON 数组），部分失败重试时不重复投递
	DeliveredTo string `json:"delivered_to" gorm:"type:text"`
}

// 通知类型
const (
	NotificationEventCreated        = "EventCreated"
	NotificationPlayerJoined        = "PlayerJoined"
	NotificationSettlementInitiated = "SettlementInitiated"
	NotificationFundsDistributed    = "FundsDistributed"
	NotificationEventCancelled      = "EventCancelled"
)

// TableName 自定义表名
func (NotificationModel) TableName() string {
	return "notification"
}
