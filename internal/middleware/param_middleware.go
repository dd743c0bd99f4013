package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jlpt-api/internal/service/jlpt"
)

// ExtractUintParam создает middleware для извлечения и валидации числового параметра URL.
// paramName - имя параметра в URL (например, "id").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			return
		}
		// Сохраняем как uint для единообразия
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// ValidateExamRoute проверяет параметры маршрута экзамена (:type, :level) до обработчика.
// Невалидный параметр означает несуществующую страницу: 404.
func ValidateExamRoute(kind jlpt.ExamKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		level := c.Param("level")
		valid := false
		switch kind {
		case jlpt.KindJLPT:
			valid = jlpt.IsValidJLPTType(c.Param("type")) && jlpt.IsValidJLPTLevel(level)
		case jlpt.KindChallenge:
			valid = jlpt.IsValidJLPTLevel(level)
		case jlpt.KindDriving:
			valid = jlpt.IsValidDrivingLevel(level)
		}
		if !valid {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "exam not found"})
			return
		}
		c.Next()
	}
}

// ValidateLanguageParam отвечает 404 для неподдерживаемого языка в параметре paramName
func ValidateLanguageParam(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jlpt.IsValidLanguage(c.Param(paramName)) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "language not found"})
			return
		}
		c.Next()
	}
}
