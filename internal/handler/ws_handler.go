package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service"
	"github.com/yourusername/jlpt-api/internal/service/jlpt"
	"github.com/yourusername/jlpt-api/internal/websocket"
)

// WSHandler отдает обратный отсчет экзамена через WebSocket
type WSHandler struct {
	examService *service.ExamService
	upgrader    gorillaws.Upgrader
	tick        time.Duration
	log         *zap.Logger
}

// NewWSHandler создает обработчик таймера. allowedOrigins совпадает со списком CORS.
func NewWSHandler(examService *service.ExamService, allowedOrigins []string, tick time.Duration, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &WSHandler{
		examService: examService,
		tick:        tick,
		log:         log.Named("WSHandler"),
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originChecker(allowedOrigins),
	}
	return h
}

func (h *WSHandler) originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Если Origin пустой - это не браузерный клиент (мобильное приложение, curl и т.д.)
		if origin == "" {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		h.log.Warn("WebSocket: отклонен origin", zap.String("origin", origin))
		return false
	}
}

// ExamTimer проверяет параметры экзамена и запускает обратный отсчет
// GET /ws/exam-timer?kind&type&level&timeMode&customTime&sections
func (h *WSHandler) ExamTimer(c *gin.Context) {
	query := c.Request.URL.Query()
	kind := jlpt.ExamKind(strings.ToLower(query.Get("kind")))
	if kind == "" {
		kind = jlpt.KindJLPT
	}

	session, err := h.examService.Start(kind, query.Get("type"), query.Get("level"), query)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		handleError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.log.Warn("Ошибка upgrade соединения", zap.Error(err))
		return
	}

	timer := websocket.NewTimerSession(conn, session.TimeLimitMinutes, session.Config.IsUnlimited(), h.tick, h.log)
	if err := timer.Run(c.Request.Context()); err != nil && !errors.Is(err, c.Request.Context().Err()) {
		h.log.Debug("Таймер завершился с ошибкой", zap.Error(err))
	}
}
