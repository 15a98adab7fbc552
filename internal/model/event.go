package model

import (
	"time"
)

// EventModel 羽毛球活动
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name        string `json:"name" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	Location    string `json:"location"`

	// 时间信息
	StartTime time.Time `json:"start_time" gorm:"not null"`
	Duration  int64     `json:"duration"` // 秒

	// 主理人与费用
	HostAddress  string  `json:"host_address" gorm:"not null;index"`
	TokenAddress string  `json:"token_address" gorm:"not null"`
	FeePerPerson *Amount `json:"fee_per_person" gorm:"not null"`

	// 人数与门槛
	MaxPlayers     int `json:"max_players" gorm:"not null"`
	MinPlayers     int `json:"min_players" gorm:"not null"`
	MinLevelMale   int `json:"min_level_male"`
	MinLevelFemale int `json:"min_level_female"`

	// 状态
	Status EventStatus `json:"status" gorm:"default:'open'"`
}

// EventStatus 活动状态
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"     // 草稿，仅存在于创建校验前，不落库
	EventStatusOpen      EventStatus = "open"      // 报名中
	EventStatusFull      EventStatus = "full"      // 已满员
	EventStatusActive    EventStatus = "active"    // 进行中，由 start_time 推导，不落库
	EventStatusSettling  EventStatus = "settling"  // 结算质疑期
	EventStatusCompleted EventStatus = "completed" // 已完成
	EventStatusCancelled EventStatus = "cancelled" // 已取消
)

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
