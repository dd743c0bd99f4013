package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/domain/repository"
	"github.com/yourusername/jlpt-api/internal/handler/dto"
	"github.com/yourusername/jlpt-api/internal/middleware"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/pkg/export"
	"github.com/yourusername/jlpt-api/internal/service"
)

// AdminHandler - статистика, пользователи, коды и выгрузки
type AdminHandler struct {
	adminService   *service.AdminService
	billingService *service.BillingService
	now            func() time.Time
	log            *zap.Logger
}

// NewAdminHandler создает новый обработчик админки
func NewAdminHandler(adminService *service.AdminService, billingService *service.BillingService, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{
		adminService:   adminService,
		billingService: billingService,
		now:            time.Now,
		log:            log.Named("AdminHandler"),
	}
}

// Stats возвращает сводную статистику
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.DashboardStats(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers возвращает страницу пользователей
// GET /api/admin/users?q&role&page&page_size
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := repository.UserFilter{
		Query: c.Query("q"),
		Role:  c.Query("role"),
	}

	users, total, err := h.adminService.ListUsers(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedUsersResponse(users, total, page, pageSize, h.now()))
}

// UpdateUserRole меняет роль пользователя
// PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	actorID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, h.log, apperrors.ErrUnauthorized)
		return
	}
	userID := c.MustGet("targetUserID").(uint)

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.adminService.UpdateUserRole(c.Request.Context(), actorID, userID, req.Role); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
}

// ExportAttempts выгружает попытки в CSV или Excel
// GET /api/admin/attempts/export?format=csv|xlsx
func (h *AdminHandler) ExportAttempts(c *gin.Context) {
	format, ok := h.exportFormat(c)
	if !ok {
		return
	}
	table, err := h.adminService.ExportAttempts(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	h.writeExport(c, table, format, "attempts")
}

// GenerateCodes выпускает партию кодов активации
// POST /api/admin/codes
func (h *AdminHandler) GenerateCodes(c *gin.Context) {
	adminID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, h.log, apperrors.ErrUnauthorized)
		return
	}
	var req dto.GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	codes, err := h.billingService.GenerateCodes(c.Request.Context(), adminID, req.Count, req.PlanDays, req.ExpiresAt)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"codes": dto.NewCodeResponses(codes, h.now())})
}

// ListCodes возвращает страницу кодов
// GET /api/admin/codes?state=active|redeemed|expired&page&page_size
func (h *AdminHandler) ListCodes(c *gin.Context) {
	page, pageSize := pagination(c)

	codes, total, err := h.billingService.ListCodes(c.Request.Context(), c.Query("state"), page, pageSize)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.PaginatedCodesResponse{
		Codes:   dto.NewCodeResponses(codes, h.now()),
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	})
}

// ExportCodes выгружает все коды
// GET /api/admin/codes/export?format=csv|xlsx
func (h *AdminHandler) ExportCodes(c *gin.Context) {
	format, ok := h.exportFormat(c)
	if !ok {
		return
	}
	table, err := h.adminService.ExportCodes(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	h.writeExport(c, table, format, "codes")
}

func (h *AdminHandler) exportFormat(c *gin.Context) (string, bool) {
	format := c.DefaultQuery("format", export.FormatCSV)
	if !export.IsSupported(format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported export format %q", format)})
		return "", false
	}
	return format, true
}

// writeExport пишет файл прямо в ответ
func (h *AdminHandler) writeExport(c *gin.Context, table export.Table, format, name string) {
	filename := fmt.Sprintf("%s_%s.%s", name, h.now().Format("2006-01-02"), format)
	c.Header("Content-Type", export.ContentType(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)

	if err := export.Write(c.Writer, format, table); err != nil {
		// Заголовки уже отправлены, остается только лог
		h.log.Error("Ошибка записи выгрузки", zap.String("format", format), zap.String("name", name), zap.Error(err))
	}
}
