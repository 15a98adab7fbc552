package model

import (
	"time"
)

// PlayerModel 报名记录，(活动, 玩家) 唯一
type PlayerModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId    int64  `json:"event_id" gorm:"not null;uniqueIndex:idx_event_player"`
	Address    string `json:"address" gorm:"not null;uniqueIndex:idx_event_player"`
	HasPaid    bool   `json:"has_paid" gorm:"default:false"`
	IsApproved bool   `json:"is_approved" gorm:"default:false"`
}

// TableName 自定义表名
func (PlayerModel) TableName() string {
	return "player"
}
