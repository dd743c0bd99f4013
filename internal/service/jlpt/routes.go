package jlpt

import (
	"net/url"
	"strings"
)

var (
	validLevels    = map[string]struct{}{"n1": {}, "n2": {}, "n3": {}, "n4": {}, "n5": {}}
	validTypes     = map[string]struct{}{"custom": {}, "official": {}}
	validLanguages = map[string]struct{}{"vi": {}, "en": {}, "ja": {}}
)

// SupportedLanguages - локали интерфейса
var SupportedLanguages = []string{"vi", "en", "ja"}

// IsValidJLPTLevel проверяет уровень n1..n5 без учета регистра
func IsValidJLPTLevel(level string) bool {
	_, ok := validLevels[strings.ToLower(level)]
	return ok
}

// IsValidJLPTType проверяет тип экзамена custom/official без учета регистра
func IsValidJLPTType(examType string) bool {
	_, ok := validTypes[strings.ToLower(examType)]
	return ok
}

// IsValidDrivingLevel проверяет honmen/karimen
func IsValidDrivingLevel(level string) bool {
	switch DrivingLevel(strings.ToLower(level)) {
	case DrivingHonmen, DrivingKarimen:
		return true
	}
	return false
}

// IsValidSection проверяет идентификатор раздела JLPT
func IsValidSection(section string) bool {
	for _, s := range AllSections {
		if s == section {
			return true
		}
	}
	return false
}

// IsValidLanguage проверяет код языка интерфейса
func IsValidLanguage(language string) bool {
	_, ok := validLanguages[language]
	return ok
}

// GenerateJLPTTestURL строит "/jlpt/{type}/{level}/test?{params}".
// language принимается для симметрии с GenerateChallengeTestURL и не используется.
func GenerateJLPTTestURL(examType, level string, params url.Values, language string) string {
	return "/jlpt/" + examType + "/" + level + "/test?" + params.Encode()
}

// GenerateChallengeTestURL строит "/{language}/challenge/{level}/test?{params}"; без языка префикс опускается
func GenerateChallengeTestURL(level string, params url.Values, language string) string {
	prefix := ""
	if language != "" {
		prefix = "/" + language
	}
	return prefix + "/challenge/" + level + "/test?" + params.Encode()
}

// ResultsParams - параметры страницы результатов
type ResultsParams struct {
	Type       string
	Level      string
	Sections   []string
	TimeMode   TimeMode
	CustomTime string
	SubType    string
}

// ExamResultsURL строит "/exam-results?type=..&level=..&sections=..&timeMode=..&customTime=..&subType=..".
// Порядок ключей фиксирован, пустые значения пропускаются.
func ExamResultsURL(p ResultsParams) string {
	pairs := [][2]string{
		{"type", p.Type},
		{"level", p.Level},
		{ParamSections, strings.Join(p.Sections, ",")},
		{ParamTimeMode, string(p.TimeMode)},
		{ParamCustomTime, p.CustomTime},
		{"subType", p.SubType},
	}

	var b strings.Builder
	b.WriteString("/exam-results")
	sep := "?"
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(kv[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[1]))
		sep = "&"
	}
	return b.String()
}

// LoginRedirectURL строит "/{language}/login?redirect={next}"
func LoginRedirectURL(language, next string) string {
	prefix := ""
	if language != "" {
		prefix = "/" + language
	}
	q := url.Values{}
	q.Set("redirect", next)
	return prefix + "/login?" + q.Encode()
}
