package jlpt

import (
	"errors"
	"net/url"
	"strings"
)

// TimeMode - режим ограничения времени экзамена
type TimeMode string

const (
	TimeModeDefault   TimeMode = "default"
	TimeModeCustom    TimeMode = "custom"
	TimeModeUnlimited TimeMode = "unlimited"
)

// UnlimitedMinutes - лимит, который отдается для режима unlimited
const UnlimitedMinutes = 999

// Ключи query-параметров
const (
	ParamTimeMode   = "timeMode"
	ParamCustomTime = "customTime"
	ParamSections   = "sections"
)

// ErrInvalidCustomTime возвращается ParseCustomTime, если customTime не является положительным целым
var ErrInvalidCustomTime = errors.New("invalid custom time")

// QueryValues - источник query-параметров. url.Values удовлетворяет интерфейсу.
type QueryValues interface {
	Get(key string) string
}

// ExamConfig - настройки времени и разделов одной попытки, полученные из URL
type ExamConfig struct {
	TimeMode   TimeMode `json:"time_mode"`
	CustomTime string   `json:"custom_time,omitempty"`
	Sections   []string `json:"sections"`
}

// ParseTimeMode возвращает режим времени; неизвестные и пустые значения дают TimeModeDefault
func ParseTimeMode(raw string) TimeMode {
	switch TimeMode(raw) {
	case TimeModeCustom:
		return TimeModeCustom
	case TimeModeUnlimited:
		return TimeModeUnlimited
	default:
		return TimeModeDefault
	}
}

// ParseSections разбивает строку по запятым и отбрасывает пустые элементы, сохраняя порядок
func ParseSections(raw string) []string {
	sections := []string{}
	if raw == "" {
		return sections
	}
	for _, s := range strings.Split(raw, ",") {
		if s != "" {
			sections = append(sections, s)
		}
	}
	return sections
}

// ResolveExamConfig строит ExamConfig из query-параметров
func ResolveExamConfig(q QueryValues) ExamConfig {
	return ExamConfig{
		TimeMode:   ParseTimeMode(q.Get(ParamTimeMode)),
		CustomTime: q.Get(ParamCustomTime),
		Sections:   ParseSections(q.Get(ParamSections)),
	}
}

// ParseCustomTime разбирает customTime по правилам parseInt: пробелы в начале,
// необязательный знак, затем ведущие цифры ("45min" -> 45, "4.5" -> 4).
// Значения без цифр и значения <= 0 дают ErrInvalidCustomTime.
func (c ExamConfig) ParseCustomTime() (int, error) {
	s := strings.TrimLeft(c.CustomTime, " \t\n\r\v\f")
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	value, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		// Значения больше UnlimitedMinutes все равно бессмысленны, насыщаем вместо переполнения
		if value <= UnlimitedMinutes*1000 {
			value = value*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 || negative || value <= 0 {
		return 0, ErrInvalidCustomTime
	}
	return value, nil
}

// GetTimeLimit возвращает лимит в минутах. Некорректный customTime молча заменяется defaultMinutes.
func (c ExamConfig) GetTimeLimit(defaultMinutes int) int {
	switch c.TimeMode {
	case TimeModeUnlimited:
		return UnlimitedMinutes
	case TimeModeCustom:
		minutes, err := c.ParseCustomTime()
		if err != nil {
			return defaultMinutes
		}
		return minutes
	default:
		return defaultMinutes
	}
}

// IsUnlimited сообщает, что попытка без ограничения времени
func (c ExamConfig) IsUnlimited() bool {
	return c.TimeMode == TimeModeUnlimited
}

// Query кодирует конфигурацию обратно в query-параметры для навигационных URL
func (c ExamConfig) Query() url.Values {
	q := url.Values{}
	if len(c.Sections) > 0 {
		q.Set(ParamSections, strings.Join(c.Sections, ","))
	}
	if c.TimeMode != "" && c.TimeMode != TimeModeDefault {
		q.Set(ParamTimeMode, string(c.TimeMode))
	}
	if c.TimeMode == TimeModeCustom && c.CustomTime != "" {
		q.Set(ParamCustomTime, c.CustomTime)
	}
	return q
}
