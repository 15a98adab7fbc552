package handler

import (
	"math/big"
	"net/http"

	"github.com/courtside/ces/internal/logic"
	"github.com/gin-gonic/gin"
)

// SettlementHandler 结算相关接口
type SettlementHandler struct {
	settlementLogic *logic.SettlementLogic
}

// NewSettlementHandler 创建结算接口
func NewSettlementHandler(settlementLogic *logic.SettlementLogic) *SettlementHandler {
	return &SettlementHandler{settlementLogic: settlementLogic}
}

// SettlePayment 主理人申报费用，开启质疑期
func (h *SettlementHandler) SettlePayment(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	var req SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	expense, valid := new(big.Int).SetString(req.TotalExpense, 10)
	if !valid {
		ErrorResponse(c, http.StatusBadRequest, "无效的费用金额")
		return
	}

	if err := h.settlementLogic.SettlePayment(eventId, caller, expense, req.EvidenceRef); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "结算已发起，质疑期开始", nil)
}

// FinalizeSettlement 质疑期结束后完成分账，无需鉴权
func (h *SettlementHandler) FinalizeSettlement(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	if err := h.settlementLogic.FinalizeSettlement(eventId); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "结算完成，余额可提取", nil)
}

// GetSettlement 获取结算提案
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	eventId, ok := eventIdParam(c)
	if !ok {
		return
	}

	settlement, err := h.settlementLogic.GetSettlement(eventId)
	if err != nil {
		BusinessError(c, err)
		return
	}
	if settlement == nil {
		ErrorResponse(c, http.StatusNotFound, "结算尚未发起")
		return
	}

	SuccessResponse(c, http.StatusOK, "", ToSettlementResponse(settlement))
}
