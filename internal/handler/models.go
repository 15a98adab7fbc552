package handler

import (
	"time"

	"github.com/courtside/ces/internal/logic"
	"github.com/courtside/ces/internal/model"
)

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	Duration       int64     `json:"duration"`
	TokenAddress   string    `json:"token_address" binding:"required"`
	FeePerPerson   string    `json:"fee_per_person" binding:"required"`
	MaxPlayers     int       `json:"max_players" binding:"required"`
	MinPlayers     int       `json:"min_players"`
	MinLevelMale   int       `json:"min_level_male"`
	MinLevelFemale int       `json:"min_level_female"`
}

// ApprovePlayerRequest 审核玩家请求
type ApprovePlayerRequest struct {
	Player string `json:"player" binding:"required"`
}

// SettlePaymentRequest 发起结算请求
type SettlePaymentRequest struct {
	TotalExpense string `json:"total_expense" binding:"required"`
	EvidenceRef  string `json:"evidence_ref"`
}

// SetTokenRequest 代币白名单维护请求
type SetTokenRequest struct {
	Address string `json:"address" binding:"required"`
	Symbol  string `json:"symbol"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

// EventResponse 活动响应模型
type EventResponse struct {
	Id             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	StartTime      time.Time `json:"startTime"`
	Duration       int64     `json:"duration"`
	Host           string    `json:"host"`
	TokenAddress   string    `json:"tokenAddress"`
	FeePerPerson   string    `json:"feePerPerson"`
	MaxPlayers     int       `json:"maxPlayers"`
	MinPlayers     int       `json:"minPlayers"`
	MinLevelMale   int       `json:"minLevelMale"`
	MinLevelFemale int       `json:"minLevelFemale"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PlayerResponse 报名记录响应模型
type PlayerResponse struct {
	Address    string    `json:"address"`
	HasPaid    bool      `json:"hasPaid"`
	IsApproved bool      `json:"isApproved"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// SettlementResponse 结算提案响应模型
type SettlementResponse struct {
	EventId           int64     `json:"eventId"`
	TotalExpense      string    `json:"totalExpense"`
	EvidenceRef       string    `json:"evidenceRef"`
	InitiatedAt       time.Time `json:"initiatedAt"`
	ChallengeDeadline time.Time `json:"challengeDeadline"`
}

// ClaimResponse 提款记录响应模型
type ClaimResponse struct {
	Reference    string    `json:"reference"`
	EventId      int64     `json:"eventId"`
	Address      string    `json:"address"`
	TokenAddress string    `json:"tokenAddress"`
	Amount       string    `json:"amount"`
	Status       string    `json:"status"`
	TxHash       string    `json:"txHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// 转换函数

// ToEventResponse 将活动模型转换为响应模型，状态叠加时间推导
func ToEventResponse(event *model.EventModel, now time.Time) EventResponse {
	return EventResponse{
		Id:             event.Id,
		Name:           event.Name,
		Description:    event.Description,
		Location:       event.Location,
		StartTime:      event.StartTime,
		Duration:       event.Duration,
		Host:           event.HostAddress,
		TokenAddress:   event.TokenAddress,
		FeePerPerson:   event.FeePerPerson.String(),
		MaxPlayers:     event.MaxPlayers,
		MinPlayers:     event.MinPlayers,
		MinLevelMale:   event.MinLevelMale,
		MinLevelFemale: event.MinLevelFemale,
		Status:         string(logic.ComputedStatus(event, now)),
		CreatedAt:      event.CreatedAt,
		UpdatedAt:      event.UpdatedAt,
	}
}

// ToEventResponseList 将活动模型列表转换为响应模型列表
func ToEventResponseList(events []model.EventModel, now time.Time) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, event := range events {
		result[i] = ToEventResponse(&event, now)
	}
	return result
}

// ToPlayerResponse 将报名记录转换为响应模型
func ToPlayerResponse(player *model.PlayerModel) PlayerResponse {
	return PlayerResponse{
		Address:    player.Address,
		HasPaid:    player.HasPaid,
		IsApproved: player.IsApproved,
		JoinedAt:   player.CreatedAt,
	}
}

// ToPlayerResponseList 将报名记录列表转换为响应模型列表
func ToPlayerResponseList(players []model.PlayerModel) []PlayerResponse {
	result := make([]PlayerResponse, len(players))
	for i, player := range players {
		result[i] = ToPlayerResponse(&player)
	}
	return result
}

// ToSettlementResponse 将结算提案转换为响应模型
func ToSettlementResponse(settlement *model.SettlementModel) SettlementResponse {
	return SettlementResponse{
		EventId:           settlement.EventId,
		TotalExpense:      settlement.TotalExpense.String(),
		EvidenceRef:       settlement.EvidenceRef,
		InitiatedAt:       settlement.InitiatedAt,
		ChallengeDeadline: settlement.ChallengeDeadline,
	}
}

// ToClaimResponse 将提款记录转换为响应模型
func ToClaimResponse(claim *model.ClaimRecordModel) ClaimResponse {
	return ClaimResponse{
		Reference:    claim.Reference,
		EventId:      claim.EventId,
		Address:      claim.Address,
		TokenAddress: claim.TokenAddress,
		Amount:       claim.Amount.String(),
		Status:       claim.Status,
		TxHash:       claim.TxHash,
		CreatedAt:    claim.CreatedAt,
	}
}

// ToClaimResponseList 将提款记录列表转换为响应模型列表
func ToClaimResponseList(claims []model.ClaimRecordModel) []ClaimResponse {
	result := make([]ClaimResponse, len(claims))
	for i, claim := range claims {
		result[i] = ToClaimResponse(&claim)
	}
	return result
}
