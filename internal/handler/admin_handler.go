package handler

import (
	"net/http"

	"github.com/courtside/ces/internal/logic"
	"github.com/gin-gonic/gin"
)

// AdminHandler 管理接口：代币白名单
type AdminHandler struct {
	adminLogic *logic.AdminLogic
}

// NewAdminHandler 创建管理接口
func NewAdminHandler(adminLogic *logic.AdminLogic) *AdminHandler {
	return &AdminHandler{adminLogic: adminLogic}
}

// SetSupportedToken 维护代币白名单，仅管理员
func (h *AdminHandler) SetSupportedToken(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req SetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.adminLogic.SetSupportedToken(caller, req.Address, req.Symbol, *req.Enabled); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "白名单已更新", nil)
}

// ListTokens 白名单列表
func (h *AdminHandler) ListTokens(c *gin.Context) {
	tokens, err := h.adminLogic.ListTokens()
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"tokens": tokens})
}
