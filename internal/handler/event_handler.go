package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/courtside/ces/internal/logic"
	"github.com/courtside/ces/internal/model"
	"github.com/gin-gonic/gin"
)

// EventHandler 活动相关接口
type EventHandler struct {
	eventLogic *logic.EventLogic
}

// NewEventHandler 创建活动接口
func NewEventHandler(eventLogic *logic.EventLogic) *EventHandler {
	return &EventHandler{eventLogic: eventLogic}
}

// CreateEvent 创建活动
func (h *EventHandler) CreateEvent(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	fee, err := model.NewAmountFromString(req.FeePerPerson)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的人均费用")
		return
	}

	event := model.EventModel{
		Name:           req.Name,
		Description:    req.Description,
		Location:       req.Location,
		StartTime:      req.StartTime,
		Duration:       req.Duration,
		TokenAddress:   req.TokenAddress,
		FeePerPerson:   fee,
		MaxPlayers:     req.MaxPlayers,
		MinPlayers:     req.MinPlayers,
		MinLevelMale:   req.MinLevelMale,
		MinLevelFemale: req.MinLevelFemale,
	}

	if err := h.eventLogic.CreateEvent(&event, caller); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", ToEventResponse(&event, time.Now()))
}

// JoinEvent 报名参加活动
func (h *EventHandler) JoinEvent(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	if err := h.eventLogic.JoinEvent(c.Request.Context(), eventId, caller); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "报名成功", nil)
}

// ApprovePlayer 审核玩家
func (h *EventHandler) ApprovePlayer(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	var req ApprovePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.eventLogic.ApprovePlayer(eventId, req.Player, caller); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "审核通过", nil)
}

// CancelEvent 取消活动
func (h *EventHandler) CancelEvent(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	if err := h.eventLogic.CancelEvent(eventId, caller); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动已取消", nil)
}

// GetEvents 获取活动列表
func (h *EventHandler) GetEvents(c *gin.Context) {
	status := c.Query("status")
	host := c.Query("host")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	events, total, err := h.eventLogic.GetEvents(status, host, page, pageSize)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"events": ToEventResponseList(events, time.Now()),
		"pagination": Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// GetEvent 获取活动详情
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	event, err := h.eventLogic.GetEvent(eventId)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", ToEventResponse(event, time.Now()))
}

// GetEventStatus 获取活动当前状态
func (h *EventHandler) GetEventStatus(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	status, err := h.eventLogic.GetEventStatus(eventId)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"event_id": eventId, "status": status})
}

// GetPlayers 获取报名名单
func (h *EventHandler) GetPlayers(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	players, err := h.eventLogic.GetPlayers(eventId)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"players": ToPlayerResponseList(players)})
}

// GetEventStats 获取活动统计
func (h *EventHandler) GetEventStats(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	stats, err := h.eventLogic.GetEventStats(eventId)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", stats)
}

// NextEventId 下一个活动ID
func (h *EventHandler) NextEventId(c *gin.Context) {
	nextId, err := h.eventLogic.NextEventId()
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"next_event_id": nextId})
}

// eventIdParam 解析路径中的活动ID
func eventIdParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return 0, false
	}
	return id, true
}
