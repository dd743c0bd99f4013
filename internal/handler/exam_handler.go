package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/handler/dto"
	"github.com/yourusername/jlpt-api/internal/middleware"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service"
)

// ExamHandler обрабатывает запросы экзаменов и истории попыток
type ExamHandler struct {
	examService *service.ExamService
	log         *zap.Logger
}

// NewExamHandler создает новый обработчик экзаменов
func NewExamHandler(examService *service.ExamService, log *zap.Logger) *ExamHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExamHandler{examService: examService, log: log.Named("ExamHandler")}
}

// StartJLPT собирает экзамен JLPT
// GET /api/exams/jlpt/:type/:level/start?timeMode&customTime&sections
func (h *ExamHandler) StartJLPT(c *gin.Context) {
	session, err := h.examService.StartJLPT(c.Param("type"), c.Param("level"), c.Request.URL.Query())
	h.respondSession(c, session, err)
}

// StartChallenge собирает экзамен-челлендж
// GET /api/exams/challenge/:level/start
func (h *ExamHandler) StartChallenge(c *gin.Context) {
	session, err := h.examService.StartChallenge(c.Param("level"), c.Request.URL.Query())
	h.respondSession(c, session, err)
}

// StartDriving собирает экзамен на права
// GET /api/exams/driving/:level/start
func (h *ExamHandler) StartDriving(c *gin.Context) {
	session, err := h.examService.StartDriving(c.Param("level"), c.Request.URL.Query())
	h.respondSession(c, session, err)
}

func (h *ExamHandler) respondSession(c *gin.Context, session *service.ExamSession, err error) {
	if err != nil {
		// Невалидный параметр маршрута или раздел - несуществующий экзамен
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExamSessionResponse(session))
}

// Submit проверяет ответы. Для аутентифицированного пользователя попытка сохраняется.
// POST /api/exams/submit
func (h *ExamHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var userID *uint
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}

	result, err := h.examService.Submit(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TestURL возвращает URL страницы теста
// POST /api/exams/test-url
func (h *ExamHandler) TestURL(c *gin.Context) {
	var req dto.TestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	url, err := h.examService.TestURL(req.ToInput())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ListAttempts возвращает историю попыток текущего пользователя
// GET /api/exams/attempts?page&page_size
func (h *ExamHandler) ListAttempts(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, h.log, apperrors.ErrUnauthorized)
		return
	}
	page, pageSize := pagination(c)

	attempts, total, err := h.examService.ListAttempts(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedAttemptsResponse(attempts, total, page, pageSize))
}

// GetAttempt возвращает попытку с разбором
// GET /api/exams/attempts/:id
func (h *ExamHandler) GetAttempt(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, h.log, apperrors.ErrUnauthorized)
		return
	}
	attemptID := c.MustGet("attemptID").(uint)

	detail, err := h.examService.GetAttempt(c.Request.Context(), userID, attemptID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
