package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/courtside/ces/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newNotifyDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.NotificationModel{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func pendingCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.NotificationModel{}).
		Where("dispatched = ?", false).
		Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNotifierRecordAndDispatch(t *testing.T) {
	db := newNotifyDB(t)

	var received atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Uid     string          `json:"uid"`
			EventId int64           `json:"event_id"`
			Type    string          `json:"type"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad webhook payload: %v", err)
		}
		if payload.Uid == "" || payload.Type != model.NotificationPlayerJoined {
			t.Errorf("unexpected payload: %+v", payload)
		}
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := New(db, []string{server.URL}, 2)
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}
	defer notifier.Close()

	err = db.Transaction(func(tx *gorm.DB) error {
		return notifier.Record(tx, 7, model.NotificationPlayerJoined, map[string]interface{}{
			"event_id": 7,
			"player":   "0x3333333333333333333333333333333333333331",
		})
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if got := pendingCount(t, db); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}

	if err := notifier.DispatchPending(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	waitFor(t, func() bool { return pendingCount(t, db) == 0 })
	if received.Load() != 1 {
		t.Fatalf("webhook received %d deliveries, want 1", received.Load())
	}

	// 已发送的不再重复推送
	if err := notifier.DispatchPending(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if received.Load() != 1 {
		t.Fatalf("notification delivered twice: %d", received.Load())
	}
}

func TestNotifierFailedDeliveryRetries(t *testing.T) {
	db := newNotifyDB(t)

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 第一次失败，之后成功
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := New(db, []string{server.URL}, 2)
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}
	defer notifier.Close()

	err = db.Transaction(func(tx *gorm.DB) error {
		return notifier.Record(tx, 1, model.NotificationEventCreated, map[string]interface{}{"event_id": 1})
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	if err := notifier.DispatchPending(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
	// 投递失败，仍然待发
	waitFor(t, func() bool { return pendingCount(t, db) == 1 })

	if err := notifier.DispatchPending(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	waitFor(t, func() bool { return pendingCount(t, db) == 0 })
}

func TestNotifierPartialFailureNoDuplicateDelivery(t *testing.T) {
	db := newNotifyDB(t)

	// 一个订阅方第一次失败，另一个一直成功
	var flakyCalls, steadyCalls atomic.Int64
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if flakyCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer flaky.Close()
	steady := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		steadyCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer steady.Close()

	notifier, err := New(db, []string{flaky.URL, steady.URL}, 2)
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}
	defer notifier.Close()

	err = db.Transaction(func(tx *gorm.DB) error {
		return notifier.Record(tx, 1, model.NotificationFundsDistributed, map[string]interface{}{"event_id": 1})
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	if err := notifier.DispatchPending(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	waitFor(t, func() bool { return flakyCalls.Load() == 1 && steadyCalls.Load() == 1 })
	// 部分失败，仍然待发，但成功的订阅方已入已投递名单
	waitFor(t, func() bool {
		var n model.NotificationModel
		if err := db.First(&n).Error; err != nil {
			return false
		}
		return !n.Dispatched && n.DeliveredTo != ""
	})

	if err := notifier.DispatchPending(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	waitFor(t, func() bool { return pendingCount(t, db) == 0 })

	// 重试只补投失败的订阅方
	if got := steadyCalls.Load(); got != 1 {
		t.Fatalf("steady webhook delivered %d times, want 1", got)
	}
	if got := flakyCalls.Load(); got != 2 {
		t.Fatalf("flaky webhook called %d times, want 2", got)
	}
}

func TestNotifierNoWebhooksMarksDispatched(t *testing.T) {
	db := newNotifyDB(t)

	notifier, err := New(db, nil, 2)
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}
	defer notifier.Close()

	err = db.Transaction(func(tx *gorm.DB) error {
		return notifier.Record(tx, 1, model.NotificationEventCancelled, map[string]interface{}{"event_id": 1})
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	if err := notifier.DispatchPending(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	waitFor(t, func() bool { return pendingCount(t, db) == 0 })
}
