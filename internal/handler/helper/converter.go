package helper

import (
	"strings"

	"github.com/yourusername/jlpt-api/internal/service/jlpt"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	Letter jlpt.Option `json:"letter"`
	Text   string      `json:"text"`
}

// ConvertOptions превращает карту вариантов в упорядоченный список A-D.
// Отсутствующие буквы пропускаются.
func ConvertOptions(options map[jlpt.Option]string) []QuestionOption {
	converted := make([]QuestionOption, 0, len(options))
	for _, letter := range jlpt.OptionLetters {
		text, ok := options[letter]
		if !ok {
			continue
		}
		converted = append(converted, QuestionOption{Letter: letter, Text: text})
	}
	return converted
}

// NormalizeSections убирает пустые элементы из списка разделов, пришедшего в JSON
func NormalizeSections(sections []string) []string {
	return jlpt.ParseSections(strings.Join(sections, ","))
}
