package model

import (
	"time"
)

// TokenModel 代币白名单
type TokenModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string `json:"address" gorm:"uniqueIndex;not null"`
	Symbol  string `json:"symbol"`
	Enabled bool   `json:"enabled" gorm:"default:true"`
}

// TableName 自定义表名
func (TokenModel) TableName() string {
	return "supported_token"
}
