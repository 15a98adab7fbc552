package logic

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/model"
	"github.com/courtside/ces/internal/notify"
	"github.com/courtside/ces/internal/token"
	"gorm.io/gorm"
)

// EventLogic 活动生命周期业务逻辑
type EventLogic struct {
	db       *gorm.DB
	bank     token.TransferProvider
	admin    *AdminLogic
	notifier *notify.Notifier
	clock    Clock
	locks    *KeyedMutex
}

// NewEventLogic 创建活动业务逻辑
func NewEventLogic(db *gorm.DB, bank token.TransferProvider, admin *AdminLogic, notifier *notify.Notifier, clock Clock, locks *KeyedMutex) *EventLogic {
	return &EventLogic{
		db:       db,
		bank:     bank,
		admin:    admin,
		notifier: notifier,
		clock:    clock,
		locks:    locks,
	}
}

// CreateEvent 创建活动，主理人为调用者，初始状态为报名中
func (e *EventLogic) CreateEvent(event *model.EventModel, caller string) error {
	host, err := NormalizeAddress(caller)
	if err != nil {
		return err
	}

	if err := e.validateEvent(event); err != nil {
		return err
	}

	tokenAddress, err := NormalizeAddress(event.TokenAddress)
	if err != nil {
		return err
	}
	supported, err := e.admin.IsSupported(tokenAddress)
	if err != nil {
		return err
	}
	if !supported {
		return ErrTokenNotSupported
	}

	event.Id = 0
	event.HostAddress = host
	event.TokenAddress = tokenAddress
	event.Status = model.EventStatusOpen

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		return e.notifier.Record(tx, event.Id, model.NotificationEventCreated, map[string]interface{}{
			"event_id": event.Id,
			"host":     event.HostAddress,
			"name":     event.Name,
		})
	})
	if err != nil {
		return fmt.Errorf("创建活动失败: %w", err)
	}

	logger.Info("Event %d created by %s, fee %s, max players %d",
		event.Id, event.HostAddress, event.FeePerPerson.String(), event.MaxPlayers)
	return nil
}

// JoinEvent 报名参加活动，立即收取费用入托管池
// 收费与报名记录同进退：转账失败不落报名，落库失败退回费用
func (e *EventLogic) JoinEvent(ctx context.Context, eventId int64, caller string) error {
	player, err := NormalizeAddress(caller)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(eventKey(eventId))
	defer unlock()

	event, err := e.loadEvent(eventId)
	if err != nil {
		return err
	}

	switch event.Status {
	case model.EventStatusOpen:
	case model.EventStatusFull:
		return ErrEventFull
	default:
		return ErrInvalidStatus
	}
	if !e.clock.Now().Before(event.StartTime) {
		return ErrEventStarted
	}

	var existing model.PlayerModel
	err = e.db.Where("event_id = ? AND address = ?", eventId, player).First(&existing).Error
	if err == nil {
		return ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var paidCount int64
	if err := e.db.Model(&model.PlayerModel{}).
		Where("event_id = ? AND has_paid = ?", eventId, true).
		Count(&paidCount).Error; err != nil {
		return err
	}
	if paidCount >= int64(event.MaxPlayers) {
		return ErrEventFull
	}

	fee := event.FeePerPerson.BigInt()
	if _, err := e.bank.TransferFrom(ctx, event.TokenAddress, player, fee); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		registration := model.PlayerModel{
			EventId: eventId,
			Address: player,
			HasPaid: true,
		}
		if err := tx.Create(&registration).Error; err != nil {
			return err
		}

		if paidCount+1 == int64(event.MaxPlayers) {
			if err := tx.Model(event).Update("status", model.EventStatusFull).Error; err != nil {
				return err
			}
		}

		return e.notifier.Record(tx, eventId, model.NotificationPlayerJoined, map[string]interface{}{
			"event_id": eventId,
			"player":   player,
		})
	})
	if err != nil {
		// 已收费但报名未落库，退回费用
		if _, refundErr := e.bank.Transfer(ctx, event.TokenAddress, player, fee); refundErr != nil {
			logger.Error("Failed to refund %s after join failure for event %d: %v", player, eventId, refundErr)
		}
		return fmt.Errorf("报名失败: %w", err)
	}

	logger.Info("Player %s joined event %d, fee %s collected", player, eventId, fee.String())
	return nil
}

// ApprovePlayer 主理人审核玩家，通过者进入分账名单
func (e *EventLogic) ApprovePlayer(eventId int64, playerAddress, caller string) error {
	host, err := NormalizeAddress(caller)
	if err != nil {
		return err
	}
	player, err := NormalizeAddress(playerAddress)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(eventKey(eventId))
	defer unlock()

	event, err := e.loadEvent(eventId)
	if err != nil {
		return err
	}
	if event.HostAddress != host {
		return ErrNotHost
	}
	// 结算开始后名单冻结
	switch event.Status {
	case model.EventStatusSettling, model.EventStatusCompleted, model.EventStatusCancelled:
		return ErrInvalidStatus
	}

	var registration model.PlayerModel
	err = e.db.Where("event_id = ? AND address = ?", eventId, player).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPlayerNotFound
	}
	if err != nil {
		return err
	}
	if !registration.HasPaid {
		return ErrPlayerNotPaid
	}
	if registration.IsApproved {
		return ErrAlreadyApproved
	}

	if err := e.db.Model(&registration).Update("is_approved", true).Error; err != nil {
		return err
	}

	logger.Info("Player %s approved for event %d", player, eventId)
	return nil
}

// CancelEvent 主理人取消活动，所有已支付玩家的费用全额转为可提取余额
// 结算开始后不可取消
func (e *EventLogic) CancelEvent(eventId int64, caller string) error {
	host, err := NormalizeAddress(caller)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(eventKey(eventId))
	defer unlock()

	event, err := e.loadEvent(eventId)
	if err != nil {
		return err
	}
	if event.HostAddress != host {
		return ErrNotHost
	}
	if event.Status != model.EventStatusOpen && event.Status != model.EventStatusFull {
		return ErrInvalidStatus
	}

	var players []model.PlayerModel
	if err := e.db.Where("event_id = ? AND has_paid = ?", eventId, true).Find(&players).Error; err != nil {
		return err
	}

	fee := event.FeePerPerson.BigInt()
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(event).Update("status", model.EventStatusCancelled).Error; err != nil {
			return err
		}
		for _, p := range players {
			if err := creditBalance(tx, eventId, event.TokenAddress, p.Address, fee); err != nil {
				return err
			}
		}
		return e.notifier.Record(tx, eventId, model.NotificationEventCancelled, map[string]interface{}{
			"event_id":       eventId,
			"refunded_count": len(players),
			"fee_per_person": fee.String(),
		})
	})
	if err != nil {
		return fmt.Errorf("取消活动失败: %w", err)
	}

	logger.Info("Event %d cancelled, %d players refunded", eventId, len(players))
	return nil
}

// GetEvents 获取活动列表
func (e *EventLogic) GetEvents(status, host string, page, pageSize int) ([]model.EventModel, int64, error) {
	query := e.db.Model(&model.EventModel{})
	if status != "" {
		// 进行中是由开始时间推导的状态，没有对应的存储值，
		// 报名中/已满员同理要排除已推导为进行中的活动
		now := e.clock.Now()
		switch model.EventStatus(status) {
		case model.EventStatusActive:
			query = query.Where("status IN ? AND start_time <= ?",
				[]model.EventStatus{model.EventStatusOpen, model.EventStatusFull}, now)
		case model.EventStatusOpen, model.EventStatusFull:
			query = query.Where("status = ? AND start_time > ?", status, now)
		default:
			query = query.Where("status = ?", status)
		}
	}
	if host != "" {
		normalized, err := NormalizeAddress(host)
		if err != nil {
			return nil, 0, err
		}
		query = query.Where("host_address = ?", normalized)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.EventModel
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("id DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// GetEvent 获取活动详情
func (e *EventLogic) GetEvent(eventId int64) (*model.EventModel, error) {
	return e.loadEvent(eventId)
}

// GetEventStatus 获取活动当前状态，叠加时间推导的进行中状态
func (e *EventLogic) GetEventStatus(eventId int64) (model.EventStatus, error) {
	event, err := e.loadEvent(eventId)
	if err != nil {
		return "", err
	}
	return ComputedStatus(event, e.clock.Now()), nil
}

// GetPlayers 获取活动报名名单
func (e *EventLogic) GetPlayers(eventId int64) ([]model.PlayerModel, error) {
	if _, err := e.loadEvent(eventId); err != nil {
		return nil, err
	}

	var players []model.PlayerModel
	if err := e.db.Where("event_id = ?", eventId).Order("id ASC").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

// NextEventId 下一个活动ID
func (e *EventLogic) NextEventId() (int64, error) {
	var maxId int64
	if err := e.db.Model(&model.EventModel{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxId).Error; err != nil {
		return 0, err
	}
	return maxId + 1, nil
}

// GetEventStats 获取活动统计：报名人数、审核人数、托管池金额
func (e *EventLogic) GetEventStats(eventId int64) (map[string]interface{}, error) {
	event, err := e.loadEvent(eventId)
	if err != nil {
		return nil, err
	}

	var paidCount, approvedCount int64
	if err := e.db.Model(&model.PlayerModel{}).
		Where("event_id = ? AND has_paid = ?", eventId, true).
		Count(&paidCount).Error; err != nil {
		return nil, err
	}
	if err := e.db.Model(&model.PlayerModel{}).
		Where("event_id = ? AND has_paid = ? AND is_approved = ?", eventId, true, true).
		Count(&approvedCount).Error; err != nil {
		return nil, err
	}

	pool := new(big.Int).Mul(event.FeePerPerson.BigInt(), big.NewInt(paidCount))

	return map[string]interface{}{
		"event_id":       eventId,
		"status":         ComputedStatus(event, e.clock.Now()),
		"paid_count":     paidCount,
		"approved_count": approvedCount,
		"max_players":    event.MaxPlayers,
		"fee_per_person": event.FeePerPerson.String(),
		"escrow_pool":    pool.String(),
	}, nil
}

// loadEvent 加载活动记录
func (e *EventLogic) loadEvent(eventId int64) (*model.EventModel, error) {
	var event model.EventModel
	err := e.db.First(&event, eventId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// validateEvent 校验活动配置
func (e *EventLogic) validateEvent(event *model.EventModel) error {
	if event.Name == "" {
		return errors.New("活动名称不能为空")
	}
	if event.FeePerPerson == nil || event.FeePerPerson.Sign() <= 0 {
		return errors.New("人均费用必须大于0")
	}
	if event.MaxPlayers <= 0 {
		return errors.New("人数上限必须大于0")
	}
	if event.MaxPlayers < event.MinPlayers {
		return errors.New("人数上限不能小于人数下限")
	}
	return nil
}

// ComputedStatus 叠加时间推导的活动状态
// 报名中/已满员的活动到达开始时间即视为进行中，不回写存储
func ComputedStatus(event *model.EventModel, now time.Time) model.EventStatus {
	if event.Status == model.EventStatusOpen || event.Status == model.EventStatusFull {
		if !now.Before(event.StartTime) {
			return model.EventStatusActive
		}
	}
	return event.Status
}

// eventKey 活动锁的 key
func eventKey(eventId int64) string {
	return fmt.Sprintf("event:%d", eventId)
}
