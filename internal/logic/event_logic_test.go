package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtside/ces/internal/model"
)

func TestCreateEventValidation(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	start := clock.Now().Add(24 * time.Hour)

	cases := []struct {
		name  string
		event *model.EventModel
	}{
		{
			name: "empty name",
			event: &model.EventModel{
				StartTime: start, TokenAddress: testToken,
				FeePerPerson: model.NewAmount(10), MaxPlayers: 4,
			},
		},
		{
			name: "zero fee",
			event: &model.EventModel{
				Name: "x", StartTime: start, TokenAddress: testToken,
				FeePerPerson: model.NewAmount(0), MaxPlayers: 4,
			},
		},
		{
			name: "negative fee",
			event: &model.EventModel{
				Name: "x", StartTime: start, TokenAddress: testToken,
				FeePerPerson: model.NewAmount(-5), MaxPlayers: 4,
			},
		},
		{
			name: "zero max players",
			event: &model.EventModel{
				Name: "x", StartTime: start, TokenAddress: testToken,
				FeePerPerson: model.NewAmount(10), MaxPlayers: 0,
			},
		},
		{
			name: "max below min",
			event: &model.EventModel{
				Name: "x", StartTime: start, TokenAddress: testToken,
				FeePerPerson: model.NewAmount(10), MaxPlayers: 2, MinPlayers: 4,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := engine.Event.CreateEvent(tc.event, testHost); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestCreateEventUnsupportedToken(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	event := &model.EventModel{
		Name:         "x",
		StartTime:    clock.Now().Add(time.Hour),
		TokenAddress: "0x9999999999999999999999999999999999999999",
		FeePerPerson: model.NewAmount(10),
		MaxPlayers:   4,
	}
	if err := engine.Event.CreateEvent(event, testHost); !errors.Is(err, ErrTokenNotSupported) {
		t.Fatalf("expected ErrTokenNotSupported, got %v", err)
	}
}

func TestCreateEventBadHostAddress(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	event := &model.EventModel{
		Name:         "x",
		StartTime:    clock.Now().Add(time.Hour),
		TokenAddress: testToken,
		FeePerPerson: model.NewAmount(10),
		MaxPlayers:   4,
	}
	if err := engine.Event.CreateEvent(event, "not-an-address"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestJoinEventChargesFee(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))

	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if got := bankBalance(t, bank, testPlayer1); got.Cmp(ether(90)) != 0 {
		t.Fatalf("player balance = %s, want %s", got, ether(90))
	}
	if got := bankBalance(t, bank, testEscrow); got.Cmp(ether(10)) != 0 {
		t.Fatalf("escrow balance = %s, want %s", got, ether(10))
	}

	players, err := engine.Event.GetPlayers(eventId)
	if err != nil {
		t.Fatalf("get players failed: %v", err)
	}
	if len(players) != 1 || !players[0].HasPaid || players[0].IsApproved {
		t.Fatalf("unexpected roster: %+v", players)
	}
}

func TestJoinEventTwiceRejected(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))

	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	// 重复报名不得重复扣费
	if got := bankBalance(t, bank, testPlayer1); got.Cmp(ether(90)) != 0 {
		t.Fatalf("player charged twice: balance = %s", got)
	}
}

func TestJoinEventCapacity(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 2)
	for _, p := range []string{testPlayer1, testPlayer2, testPlayer3} {
		seedPlayer(t, bank, p, ether(100))
	}

	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1); err != nil {
		t.Fatalf("join 1 failed: %v", err)
	}
	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer2); err != nil {
		t.Fatalf("join 2 failed: %v", err)
	}

	event, err := engine.Event.GetEvent(eventId)
	if err != nil {
		t.Fatalf("get event failed: %v", err)
	}
	if event.Status != model.EventStatusFull {
		t.Fatalf("status = %s, want %s", event.Status, model.EventStatusFull)
	}

	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer3); !errors.Is(err, ErrEventFull) {
		t.Fatalf("expected ErrEventFull, got %v", err)
	}
	if got := bankBalance(t, bank, testPlayer3); got.Cmp(ether(100)) != 0 {
		t.Fatalf("rejected player was charged: balance = %s", got)
	}
}

func TestJoinEventInsufficientAllowance(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)

	// 有余额但没有授权
	if err := bank.Mint(mustAddr(t, testToken), mustAddr(t, testPlayer1), ether(100)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	players, err := engine.Event.GetPlayers(eventId)
	if err != nil {
		t.Fatalf("get players failed: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("registration created despite failed payment: %+v", players)
	}
}

func TestJoinEventAfterStart(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))

	clock.Advance(24 * time.Hour)
	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1); !errors.Is(err, ErrEventStarted) {
		t.Fatalf("expected ErrEventStarted, got %v", err)
	}
}

func TestJoinCancelledEvent(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))

	if err := engine.Event.CancelEvent(eventId, testHost); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestApprovePlayer(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))

	if err := engine.Event.JoinEvent(context.Background(), eventId, testPlayer1); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if err := engine.Event.ApprovePlayer(eventId, testPlayer1, testPlayer2); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := engine.Event.ApprovePlayer(eventId, testPlayer2, testHost); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}

	if err := engine.Event.ApprovePlayer(eventId, testPlayer1, testHost); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := engine.Event.ApprovePlayer(eventId, testPlayer1, testHost); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
}

func TestApprovePlayerFrozenAfterSettle(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))
	seedPlayer(t, bank, testPlayer2, ether(100))

	for _, p := range []string{testPlayer1, testPlayer2} {
		if err := engine.Event.JoinEvent(context.Background(), eventId, p); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}
	if err := engine.Event.ApprovePlayer(eventId, testPlayer1, testHost); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	clock.Advance(24 * time.Hour)
	if err := engine.Settlement.SettlePayment(eventId, testHost, ether(5), ""); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	if err := engine.Event.ApprovePlayer(eventId, testPlayer2, testHost); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus after settle, got %v", err)
	}
}

func TestCancelEventRefunds(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))
	seedPlayer(t, bank, testPlayer2, ether(100))

	for _, p := range []string{testPlayer1, testPlayer2} {
		if err := engine.Event.JoinEvent(context.Background(), eventId, p); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}

	if err := engine.Event.CancelEvent(eventId, testPlayer1); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := engine.Event.CancelEvent(eventId, testHost); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	event, err := engine.Event.GetEvent(eventId)
	if err != nil {
		t.Fatalf("get event failed: %v", err)
	}
	if event.Status != model.EventStatusCancelled {
		t.Fatalf("status = %s, want %s", event.Status, model.EventStatusCancelled)
	}

	for _, p := range []string{testPlayer1, testPlayer2} {
		withdrawable, err := engine.Balance.Withdrawable(eventId, p)
		if err != nil {
			t.Fatalf("withdrawable failed: %v", err)
		}
		if withdrawable.Cmp(ether(10)) != 0 {
			t.Fatalf("withdrawable for %s = %s, want %s", p, withdrawable, ether(10))
		}
	}

	if err := engine.Event.CancelEvent(eventId, testHost); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus on double cancel, got %v", err)
	}
}

func TestComputedStatusActive(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)

	status, err := engine.Event.GetEventStatus(eventId)
	if err != nil {
		t.Fatalf("get status failed: %v", err)
	}
	if status != model.EventStatusOpen {
		t.Fatalf("status = %s, want %s", status, model.EventStatusOpen)
	}

	clock.Advance(24 * time.Hour)
	status, err = engine.Event.GetEventStatus(eventId)
	if err != nil {
		t.Fatalf("get status failed: %v", err)
	}
	if status != model.EventStatusActive {
		t.Fatalf("status = %s, want %s", status, model.EventStatusActive)
	}

	// 推导状态不回写存储
	event, err := engine.Event.GetEvent(eventId)
	if err != nil {
		t.Fatalf("get event failed: %v", err)
	}
	if event.Status != model.EventStatusOpen {
		t.Fatalf("stored status = %s, want %s", event.Status, model.EventStatusOpen)
	}
}

func TestGetEventsStatusFilter(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)

	listByStatus := func(status string) []model.EventModel {
		events, _, err := engine.Event.GetEvents(status, "", 1, 10)
		if err != nil {
			t.Fatalf("list %q failed: %v", status, err)
		}
		return events
	}

	// 开始前：报名中，不是进行中
	if got := listByStatus("open"); len(got) != 1 || got[0].Id != eventId {
		t.Fatalf("open filter before start = %+v, want event %d", got, eventId)
	}
	if got := listByStatus("active"); len(got) != 0 {
		t.Fatalf("active filter before start = %+v, want empty", got)
	}

	// 开始后：推导为进行中，不再匹配报名中
	clock.Advance(24 * time.Hour)
	if got := listByStatus("active"); len(got) != 1 || got[0].Id != eventId {
		t.Fatalf("active filter after start = %+v, want event %d", got, eventId)
	}
	if got := listByStatus("open"); len(got) != 0 {
		t.Fatalf("open filter after start = %+v, want empty", got)
	}

	// 存储状态照常过滤
	if err := engine.Event.CancelEvent(eventId, testHost); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := listByStatus("cancelled"); len(got) != 1 || got[0].Id != eventId {
		t.Fatalf("cancelled filter = %+v, want event %d", got, eventId)
	}
	if got := listByStatus("active"); len(got) != 0 {
		t.Fatalf("active filter after cancel = %+v, want empty", got)
	}
}

func TestNextEventId(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	next, err := engine.Event.NextEventId()
	if err != nil {
		t.Fatalf("next id failed: %v", err)
	}
	if next != 1 {
		t.Fatalf("next id = %d, want 1", next)
	}

	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	next, err = engine.Event.NextEventId()
	if err != nil {
		t.Fatalf("next id failed: %v", err)
	}
	if next != eventId+1 {
		t.Fatalf("next id = %d, want %d", next, eventId+1)
	}
}

func TestGetEventStats(t *testing.T) {
	engine, bank, clock := newTestEngine(t)
	eventId := createTestEvent(t, engine, clock, ether(10), 4)
	seedPlayer(t, bank, testPlayer1, ether(100))
	seedPlayer(t, bank, testPlayer2, ether(100))

	for _, p := range []string{testPlayer1, testPlayer2} {
		if err := engine.Event.JoinEvent(context.Background(), eventId, p); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}
	if err := engine.Event.ApprovePlayer(eventId, testPlayer1, testHost); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	stats, err := engine.Event.GetEventStats(eventId)
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats["paid_count"].(int64) != 2 {
		t.Fatalf("paid_count = %v, want 2", stats["paid_count"])
	}
	if stats["approved_count"].(int64) != 1 {
		t.Fatalf("approved_count = %v, want 1", stats["approved_count"])
	}
	if stats["escrow_pool"].(string) != ether(20).String() {
		t.Fatalf("escrow_pool = %v, want %s", stats["escrow_pool"], ether(20))
	}
}
