package logic

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/model"
	"github.com/courtside/ces/internal/notify"
	"gorm.io/gorm"
)

// SettlementLogic 结算业务逻辑
// settle 只记录提案并开启质疑期，finalize 在质疑期结束后一次性完成分账记账
type SettlementLogic struct {
	db                *gorm.DB
	notifier          *notify.Notifier
	clock             Clock
	challengeDuration time.Duration
	locks             *KeyedMutex
}

// NewSettlementLogic 创建结算业务逻辑
func NewSettlementLogic(db *gorm.DB, notifier *notify.Notifier, clock Clock, challengeDuration time.Duration, locks *KeyedMutex) *SettlementLogic {
	if challengeDuration <= 0 {
		challengeDuration = 24 * time.Hour
	}
	return &SettlementLogic{
		db:                db,
		notifier:          notifier,
		clock:             clock,
		challengeDuration: challengeDuration,
		locks:             locks,
	}
}

// SettlePayment 主理人申报活动费用，开启质疑期
// 不移动任何资金，只创建结算提案并把活动置为结算中
func (s *SettlementLogic) SettlePayment(eventId int64, caller string, totalExpense *big.Int, evidenceRef string) error {
	host, err := NormalizeAddress(caller)
	if err != nil {
		return err
	}
	if totalExpense == nil || totalExpense.Sign() < 0 {
		return ErrInvalidExpense
	}

	unlock := s.locks.Lock(eventKey(eventId))
	defer unlock()

	event, err := s.loadEvent(eventId)
	if err != nil {
		return err
	}
	if event.HostAddress != host {
		return ErrNotHost
	}
	if event.Status != model.EventStatusOpen && event.Status != model.EventStatusFull {
		return ErrInvalidStatus
	}

	now := s.clock.Now()
	if now.Before(event.StartTime) {
		return ErrEventNotStarted
	}

	deadline := now.Add(s.challengeDuration)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		settlement := model.SettlementModel{
			EventId:           eventId,
			TotalExpense:      model.AmountFromBig(totalExpense),
			EvidenceRef:       evidenceRef,
			InitiatedAt:       now,
			ChallengeDeadline: deadline,
		}
		if err := tx.Create(&settlement).Error; err != nil {
			return err
		}
		if err := tx.Model(event).Update("status", model.EventStatusSettling).Error; err != nil {
			return err
		}
		return s.notifier.Record(tx, eventId, model.NotificationSettlementInitiated, map[string]interface{}{
			"event_id":           eventId,
			"total_expense":      totalExpense.String(),
			"evidence_ref":       evidenceRef,
			"challenge_deadline": deadline.UTC(),
		})
	})
	if err != nil {
		return fmt.Errorf("发起结算失败: %w", err)
	}

	logger.Info("Settlement initiated for event %d, expense %s, challenge until %s",
		eventId, totalExpense.String(), deadline.Format(time.RFC3339))
	return nil
}

// FinalizeSettlement 质疑期结束后完成分账，任何人都可以触发
//
// 记账规则：
//   - collected = 人均费用 × 已审核人数
//   - 主理人所得 = min(申报费用, collected)，不超过实收
//   - 盈余 = collected - 主理人所得，按已审核人数整除分退
//   - 整除余数记给主理人，不丢失任何价值
//   - 已支付未审核的玩家全额退费
//
// 活动置为已完成后再次调用直接失败，不会重复记账
func (s *SettlementLogic) FinalizeSettlement(eventId int64) error {
	unlock := s.locks.Lock(eventKey(eventId))
	defer unlock()

	event, err := s.loadEvent(eventId)
	if err != nil {
		return err
	}
	if event.Status == model.EventStatusCompleted {
		return ErrAlreadyFinalized
	}
	if event.Status != model.EventStatusSettling {
		return ErrInvalidStatus
	}

	var settlement model.SettlementModel
	err = s.db.Where("event_id = ?", eventId).First(&settlement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New("结算记录不存在")
	}
	if err != nil {
		return err
	}

	// 质疑期边界：到达截止时刻（含）即可完成
	if s.clock.Now().Before(settlement.ChallengeDeadline) {
		return ErrChallengeNotOver
	}

	var players []model.PlayerModel
	if err := s.db.Where("event_id = ? AND has_paid = ?", eventId, true).
		Order("id ASC").
		Find(&players).Error; err != nil {
		return err
	}

	var approved, unapproved []model.PlayerModel
	for _, p := range players {
		if p.IsApproved {
			approved = append(approved, p)
		} else {
			unapproved = append(unapproved, p)
		}
	}
	if len(approved) == 0 {
		return ErrNoApprovedPlayers
	}

	fee := event.FeePerPerson.BigInt()
	approvedCount := big.NewInt(int64(len(approved)))

	collected := new(big.Int).Mul(fee, approvedCount)
	hostPayout := new(big.Int).Set(settlement.TotalExpense.BigInt())
	if hostPayout.Cmp(collected) > 0 {
		hostPayout = new(big.Int).Set(collected)
	}
	surplus := new(big.Int).Sub(collected, hostPayout)
	refundEach := new(big.Int)
	remainder := new(big.Int)
	refundEach.QuoRem(surplus, approvedCount, remainder)

	// 余数记给主理人
	hostTotal := new(big.Int).Add(hostPayout, remainder)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := creditBalance(tx, eventId, event.TokenAddress, event.HostAddress, hostTotal); err != nil {
			return err
		}
		for _, p := range approved {
			if err := creditBalance(tx, eventId, event.TokenAddress, p.Address, refundEach); err != nil {
				return err
			}
		}
		for _, p := range unapproved {
			if err := creditBalance(tx, eventId, event.TokenAddress, p.Address, fee); err != nil {
				return err
			}
		}
		if err := tx.Model(event).Update("status", model.EventStatusCompleted).Error; err != nil {
			return err
		}
		return s.notifier.Record(tx, eventId, model.NotificationFundsDistributed, map[string]interface{}{
			"event_id":           eventId,
			"collected":          collected.String(),
			"host_payout":        hostTotal.String(),
			"refund_per_player":  refundEach.String(),
			"approved_players":   len(approved),
			"unapproved_players": len(unapproved),
		})
	})
	if err != nil {
		return fmt.Errorf("完成结算失败: %w", err)
	}

	logger.Info("Event %d finalized: collected %s, host payout %s, refund each %s, %d approved, %d unapproved",
		eventId, collected.String(), hostTotal.String(), refundEach.String(), len(approved), len(unapproved))
	return nil
}

// GetSettlement 获取结算提案
func (s *SettlementLogic) GetSettlement(eventId int64) (*model.SettlementModel, error) {
	if _, err := s.loadEvent(eventId); err != nil {
		return nil, err
	}

	var settlement model.SettlementModel
	err := s.db.Where("event_id = ?", eventId).First(&settlement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// FindDueSettlements 查找质疑期已过、仍处于结算中的活动
func (s *SettlementLogic) FindDueSettlements() ([]int64, error) {
	var eventIds []int64
	err := s.db.Model(&model.SettlementModel{}).
		Joins("JOIN event ON event.id = settlement.event_id").
		Where("event.status = ? AND settlement.challenge_deadline <= ?", model.EventStatusSettling, s.clock.Now()).
		Pluck("settlement.event_id", &eventIds).Error
	if err != nil {
		return nil, err
	}
	return eventIds, nil
}

// loadEvent 加载活动记录
func (s *SettlementLogic) loadEvent(eventId int64) (*model.EventModel, error) {
	var event model.EventModel
	err := s.db.First(&event, eventId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
