package handler

import (
	"net/http"
	"strconv"

	"github.com/courtside/ces/internal/logic"
	"github.com/gin-gonic/gin"
)

// BalanceHandler 余额与提款相关接口
type BalanceHandler struct {
	balanceLogic *logic.BalanceLogic
}

// NewBalanceHandler 创建余额接口
func NewBalanceHandler(balanceLogic *logic.BalanceLogic) *BalanceHandler {
	return &BalanceHandler{balanceLogic: balanceLogic}
}

// GetWithdrawable 查询可提取余额
func (h *BalanceHandler) GetWithdrawable(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	amount, err := h.balanceLogic.Withdrawable(eventId, c.Param("address"))
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"event_id":     eventId,
		"address":      c.Param("address"),
		"withdrawable": amount.String(),
	})
}

// ClaimFunds 提取余额
func (h *BalanceHandler) ClaimFunds(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	claim, err := h.balanceLogic.ClaimFunds(c.Request.Context(), eventId, caller)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提款成功", ToClaimResponse(claim))
}

// GetClaims 获取活动提款记录
func (h *BalanceHandler) GetClaims(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	claims, total, err := h.balanceLogic.GetClaims(eventId, page, pageSize)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"claims": ToClaimResponseList(claims),
		"pagination": Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}
