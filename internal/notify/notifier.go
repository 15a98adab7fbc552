package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/courtside/ces/internal/logger"
	"github.com/courtside/ces/internal/model"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Notifier 状态变更通知器
// 通知随业务事务一并落库（outbox），由后台任务经协程池推送给订阅方
type Notifier struct {
	db       *gorm.DB
	webhooks []string
	pool     *ants.Pool
	client   *http.Client
}

// New 创建通知器
func New(db *gorm.DB, webhooks []string, poolSize int) (*Notifier, error) {
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create notify pool: %w", err)
	}

	return &Notifier{
		db:       db,
		webhooks: webhooks,
		pool:     pool,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Record 在给定事务内写入一条通知，每次状态迁移恰好一条
func (n *Notifier) Record(tx *gorm.DB, eventId int64, notificationType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	notification := model.NotificationModel{
		Uid:     uuid.NewString(),
		EventId: eventId,
		Type:    notificationType,
		Data:    string(payload),
	}
	return tx.Create(&notification).Error
}

// DispatchPending 推送未发送的通知
// 没有订阅方时仅标记已发送；推送失败的通知留待下一轮重试
func (n *Notifier) DispatchPending() error {
	var pending []model.NotificationModel
	if err := n.db.Where("dispatched = ?", false).
		Order("id ASC").
		Limit(200).
		Find(&pending).Error; err != nil {
		return fmt.Errorf("failed to fetch pending notifications: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	logger.Debug("Dispatching %d pending notifications", len(pending))

	for _, notification := range pending {
		notification := notification
		err := n.pool.Submit(func() {
			n.dispatch(&notification)
		})
		if err != nil {
			logger.Error("Failed to submit notification %s to pool: %v", notification.Uid, err)
		}
	}

	return nil
}

// dispatch 推送单条通知，只投递尚未成功的订阅方
// 部分失败时记录已投递名单，下一轮重试不重复打扰已收到的订阅方
func (n *Notifier) dispatch(notification *model.NotificationModel) {
	body, err := json.Marshal(map[string]interface{}{
		"uid":      notification.Uid,
		"event_id": notification.EventId,
		"type":     notification.Type,
		"data":     json.RawMessage(notification.Data),
		"sent_at":  time.Now().UTC(),
	})
	if err != nil {
		logger.Error("Failed to marshal notification %s: %v", notification.Uid, err)
		return
	}

	delivered := decodeDelivered(notification.DeliveredTo)
	allDelivered := true
	changed := false
	for _, url := range n.webhooks {
		if delivered[url] {
			continue
		}
		resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			logger.Warn("Failed to deliver notification %s to %s: %v", notification.Uid, url, err)
			allDelivered = false
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			logger.Warn("Webhook %s returned status %d for notification %s", url, resp.StatusCode, notification.Uid)
			allDelivered = false
			continue
		}
		delivered[url] = true
		changed = true
	}

	updates := map[string]interface{}{}
	if changed {
		updates["delivered_to"] = encodeDelivered(delivered)
	}
	if allDelivered {
		updates["dispatched"] = true
	}
	if len(updates) == 0 {
		return
	}

	if err := n.db.Model(&model.NotificationModel{}).
		Where("id = ?", notification.Id).
		Updates(updates).Error; err != nil {
		logger.Error("Failed to mark notification %s delivered: %v", notification.Uid, err)
	}
}

// decodeDelivered 解析已投递名单
func decodeDelivered(raw string) map[string]bool {
	delivered := make(map[string]bool)
	if raw == "" {
		return delivered
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		logger.Warn("Failed to decode delivered list %q: %v", raw, err)
		return delivered
	}
	for _, url := range urls {
		delivered[url] = true
	}
	return delivered
}

// encodeDelivered 序列化已投递名单
func encodeDelivered(delivered map[string]bool) string {
	urls := make([]string, 0, len(delivered))
	for url := range delivered {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	data, err := json.Marshal(urls)
	if err != nil {
		logger.Error("Failed to encode delivered list: %v", err)
		return ""
	}
	return string(data)
}

// Close 释放协程池
func (n *Notifier) Close() {
	n.pool.Release()
}
