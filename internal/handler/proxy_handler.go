package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/proxy"
)

// ProxyHandler пересылает запросы во внешний API как есть
type ProxyHandler struct {
	forwarder *proxy.Forwarder
	log       *zap.Logger
}

// NewProxyHandler создает обработчик для одного upstream
func NewProxyHandler(forwarder *proxy.Forwarder, log *zap.Logger) *ProxyHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProxyHandler{forwarder: forwarder, log: log.Named("Proxy." + forwarder.Name)}
}

// Forward обрабатывает GET|POST /api/<upstream>/*path
func (h *ProxyHandler) Forward(c *gin.Context) {
	body, err := h.forwarder.ReadBody(c.Request.Body)
	if err != nil {
		if errors.Is(err, proxy.ErrBodyTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		badRequest(c, err)
		return
	}

	resp, err := h.forwarder.Forward(
		c.Request.Context(),
		c.Request.Method,
		c.Param("path"),
		c.Request.URL.RawQuery,
		c.Request.Header,
		body,
	)
	if err != nil {
		if errors.Is(err, apperrors.ErrUpstream) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": h.forwarder.UnavailableMessage()})
			return
		}
		handleError(c, h.log, err)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if resp.Cached {
		c.Header("X-Cache", "HIT")
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
}
