package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/handler/dto"
	"github.com/yourusername/jlpt-api/internal/middleware"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service"
)

// BillingHandler обрабатывает активацию кодов пользователем
type BillingHandler struct {
	billingService *service.BillingService
	log            *zap.Logger
}

// NewBillingHandler создает новый обработчик биллинга
func NewBillingHandler(billingService *service.BillingService, log *zap.Logger) *BillingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BillingHandler{billingService: billingService, log: log.Named("BillingHandler")}
}

// Redeem активирует код премиум-доступа
// POST /api/billing/redeem
func (h *BillingHandler) Redeem(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, h.log, apperrors.ErrUnauthorized)
		return
	}
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.billingService.Redeem(c.Request.Context(), userID, req.Code)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
