package jlpt

// Option обозначает вариант ответа A-D
type Option string

// Варианты ответа
const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// OptionLetters задает канонический порядок вариантов
var OptionLetters = []Option{OptionA, OptionB, OptionC, OptionD}

// IsValid проверяет, что буква входит в A-D
func (o Option) IsValid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Идентификаторы разделов экзамена
const (
	SectionVocab     = "vocab"
	SectionGrammar   = "grammar"
	SectionReading   = "reading"
	SectionListening = "listening"
	SectionDriving   = "driving"
)

// AllSections - разделы JLPT в каноническом порядке
var AllSections = []string{SectionVocab, SectionGrammar, SectionReading, SectionListening}

// Question - вопрос сгенерированного набора. Существует только в памяти.
type Question struct {
	ID            int               `json:"id"`
	Prompt        string            `json:"prompt"`
	Options       map[Option]string `json:"options"`
	CorrectAnswer Option            `json:"correct_answer"`
	Section       string            `json:"section,omitempty"`
}

// AnswerMap - ответы пользователя: id вопроса -> выбранная буква
type AnswerMap map[int]Option

// ExamKind - семейство экзаменов
type ExamKind string

const (
	KindJLPT      ExamKind = "jlpt"
	KindChallenge ExamKind = "challenge"
	KindDriving   ExamKind = "driving"
)

// IsValid проверяет семейство экзамена
func (k ExamKind) IsValid() bool {
	switch k {
	case KindJLPT, KindChallenge, KindDriving:
		return true
	}
	return false
}
