package errors

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен или код истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (повторная регистрация, уже активированный код).
	ErrConflict = errors.New("resource state conflict")

	// ErrFeatureDisabled возвращается, когда функция не сконфигурирована (нет API ключа и т.п.).
	ErrFeatureDisabled = errors.New("feature disabled")

	// ErrUpstream используется, когда внешний API недоступен.
	ErrUpstream = errors.New("upstream unavailable")
)

// ValidationError описывает невалидный идентификатор (уровень, тип, раздел, язык)
// или невалидное значение во входных данных.
// errors.Is(err, ErrValidation) возвращает true для любой ValidationError.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// NewValidationError создает ValidationError
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: invalid %s %q", ErrValidation, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: invalid %s %q: %s", ErrValidation, e.Field, e.Value, e.Reason)
}

// Unwrap позволяет сравнивать через errors.Is с ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
