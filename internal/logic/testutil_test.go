package logic

import (
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/courtside/ces/internal/database"
	"github.com/courtside/ces/internal/model"
	"github.com/courtside/ces/internal/notify"
	"github.com/courtside/ces/internal/token"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	testOwner   = "0x00000000000000000000000000000000000000aa"
	testToken   = "0x1111111111111111111111111111111111111111"
	testHost    = "0x2222222222222222222222222222222222222222"
	testPlayer1 = "0x3333333333333333333333333333333333333331"
	testPlayer2 = "0x3333333333333333333333333333333333333332"
	testPlayer3 = "0x3333333333333333333333333333333333333333"
	testEscrow  = "0x00000000000000000000000000000000000000ee"
)

// fakeClock 可控时钟
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.now = t
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T) (*Engine, *token.LedgerBank, *fakeClock) {
	t.Helper()

	db := newTestDB(t)

	notifier, err := notify.New(db, nil, 2)
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}
	t.Cleanup(notifier.Close)

	bank := token.NewLedgerBank(db, mustAddr(t, testEscrow))
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}

	engine := NewEngine(db, bank, notifier, Options{
		OwnerAddress:      testOwner,
		ChallengeDuration: 24 * time.Hour,
		Clock:             clock,
	})
	if err := engine.Admin.Bootstrap([]string{testToken}); err != nil {
		t.Fatalf("failed to bootstrap tokens: %v", err)
	}

	return engine, bank, clock
}

func mustAddr(t *testing.T, s string) string {
	t.Helper()
	addr, err := NormalizeAddress(s)
	if err != nil {
		t.Fatalf("invalid test address %s: %v", s, err)
	}
	return addr
}

// seedPlayer 给玩家充值并授权托管池
func seedPlayer(t *testing.T, bank *token.LedgerBank, player string, amount *big.Int) {
	t.Helper()
	tokenAddr := mustAddr(t, testToken)
	addr := mustAddr(t, player)
	if err := bank.Mint(tokenAddr, addr, amount); err != nil {
		t.Fatalf("failed to mint for %s: %v", player, err)
	}
	if err := bank.Approve(tokenAddr, addr, amount); err != nil {
		t.Fatalf("failed to approve for %s: %v", player, err)
	}
}

func bankBalance(t *testing.T, bank *token.LedgerBank, address string) *big.Int {
	t.Helper()
	balance, err := bank.BalanceOf(mustAddr(t, testToken), mustAddr(t, address))
	if err != nil {
		t.Fatalf("failed to get balance of %s: %v", address, err)
	}
	return balance
}

// createTestEvent 创建一个开始于一天后的测试活动
func createTestEvent(t *testing.T, engine *Engine, clock *fakeClock, fee *big.Int, maxPlayers int) int64 {
	t.Helper()
	event := &model.EventModel{
		Name:         "Friday Doubles",
		Description:  "Weekly session",
		Location:     "Court 3",
		StartTime:    clock.Now().Add(24 * time.Hour),
		Duration:     7200,
		TokenAddress: testToken,
		FeePerPerson: model.AmountFromBig(fee),
		MaxPlayers:   maxPlayers,
		MinPlayers:   2,
	}
	if err := engine.Event.CreateEvent(event, testHost); err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event.Id
}

func ether(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(n), wei)
}
