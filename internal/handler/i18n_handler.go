package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/i18n"
)

// I18nHandler отдает таблицы переводов
type I18nHandler struct {
	catalog *i18n.Catalog
	log     *zap.Logger
}

// NewI18nHandler создает новый обработчик переводов
func NewI18nHandler(catalog *i18n.Catalog, log *zap.Logger) *I18nHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &I18nHandler{catalog: catalog, log: log.Named("I18nHandler")}
}

// Get возвращает плоскую таблицу переводов языка
// GET /api/i18n/:lang
func (h *I18nHandler) Get(c *gin.Context) {
	translations, err := h.catalog.Get(c.Param("lang"))
	if err != nil {
		if errors.Is(err, i18n.ErrLocaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		handleError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, translations)
}
