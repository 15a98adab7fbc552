package logic

import (
	"errors"

	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/model"
	"gorm.io/gorm"
)

// AdminLogic 管理配置：代币白名单与管理员身份
// 管理员地址来自配置，显式持有，不依赖全局单例
type AdminLogic struct {
	db           *gorm.DB
	ownerAddress string
}

// NewAdminLogic 创建管理逻辑
func NewAdminLogic(db *gorm.DB, ownerAddress string) *AdminLogic {
	normalized := ownerAddress
	if addr, err := NormalizeAddress(ownerAddress); err == nil {
		normalized = addr
	}
	return &AdminLogic{db: db, ownerAddress: normalized}
}

// SetSupportedToken 维护代币白名单，仅管理员可调用
func (a *AdminLogic) SetSupportedToken(caller, tokenAddress, symbol string, enabled bool) error {
	callerAddr, err := NormalizeAddress(caller)
	if err != nil {
		return err
	}
	if callerAddr != a.ownerAddress {
		return ErrNotOwner
	}

	addr, err := NormalizeAddress(tokenAddress)
	if err != nil {
		return err
	}

	var record model.TokenModel
	err = a.db.Where("address = ?", addr).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = model.TokenModel{
			Address: addr,
			Symbol:  symbol,
			Enabled: enabled,
		}
		if err := a.db.Create(&record).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else {
		updates := map[string]interface{}{"enabled": enabled}
		if symbol != "" {
			updates["symbol"] = symbol
		}
		if err := a.db.Model(&record).Updates(updates).Error; err != nil {
			return err
		}
	}

	logger.Info("Supported token %s set to enabled=%v by %s", addr, enabled, callerAddr)
	return nil
}

// IsSupported 代币是否在白名单内且启用
func (a *AdminLogic) IsSupported(tokenAddress string) (bool, error) {
	addr, err := NormalizeAddress(tokenAddress)
	if err != nil {
		return false, err
	}

	var count int64
	if err := a.db.Model(&model.TokenModel{}).
		Where("address = ? AND enabled = ?", addr, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListTokens 白名单列表
func (a *AdminLogic) ListTokens() ([]model.TokenModel, error) {
	var tokens []model.TokenModel
	if err := a.db.Order("id ASC").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// OwnerAddress 管理员地址
func (a *AdminLogic) OwnerAddress() string {
	return a.ownerAddress
}

// Bootstrap 启动时预置白名单代币
func (a *AdminLogic) Bootstrap(tokens []string) error {
	for _, t := range tokens {
		addr, err := NormalizeAddress(t)
		if err != nil {
			return err
		}
		var count int64
		if err := a.db.Model(&model.TokenModel{}).Where("address = ?", addr).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := a.db.Create(&model.TokenModel{Address: addr, Enabled: true}).Error; err != nil {
			return err
		}
		logger.Info("Bootstrapped supported token %s", addr)
	}
	return nil
}
