package jlpt

import (
	"fmt"
	"strings"
)

// DrivingLevel - вид письменного экзамена на права
type DrivingLevel string

const (
	// DrivingHonmen - экзамен на полные права
	DrivingHonmen DrivingLevel = "honmen"
	// DrivingKarimen - экзамен на временные (ученические) права
	DrivingKarimen DrivingLevel = "karimen"
)

// sectionPlan - количество вопросов и время (мин) раздела для уровня
type sectionPlan struct {
	questions int
	minutes   int
}

// levelPlans задает раскладку разделов по уровням.
// Суммарное время: N1 165, N2 155, N3 140, N4 115, N5 90.
var levelPlans = map[string]map[string]sectionPlan{
	"n1": {SectionVocab: {12, 30}, SectionGrammar: {10, 30}, SectionReading: {8, 50}, SectionListening: {10, 55}},
	"n2": {SectionVocab: {12, 30}, SectionGrammar: {10, 25}, SectionReading: {8, 50}, SectionListening: {10, 50}},
	"n3": {SectionVocab: {10, 30}, SectionGrammar: {8, 35}, SectionReading: {6, 35}, SectionListening: {8, 40}},
	"n4": {SectionVocab: {8, 25}, SectionGrammar: {8, 25}, SectionReading: {5, 30}, SectionListening: {6, 35}},
	"n5": {SectionVocab: {8, 20}, SectionGrammar: {6, 20}, SectionReading: {4, 20}, SectionListening: {6, 30}},
}

var drivingPlans = map[DrivingLevel]sectionPlan{
	DrivingHonmen:  {95, 50},
	DrivingKarimen: {50, 30},
}

// bankItem - шаблон вопроса: основа, правильный вариант и три дистрактора
type bankItem struct {
	stem        string
	correct     string
	distractors [3]string
}

var sectionBanks = map[string][]bankItem{
	SectionVocab: {
		{"「学校」の読み方として正しいものはどれですか", "がっこう", [3]string{"がこう", "がっこ", "かっこう"}},
		{"「はやい」を漢字で書くとどれですか", "早い", [3]string{"速い時", "草い", "旱い"}},
		{"「しずか」の反対の意味の言葉はどれですか", "うるさい", [3]string{"きれい", "べんり", "ひま"}},
		{"「約束」に最も近い意味はどれですか", "決めたこと", [3]string{"忘れたこと", "習ったこと", "見たこと"}},
	},
	SectionGrammar: {
		{"明日は雨が（　）そうです。", "降る", [3]string{"降って", "降った", "降ら"}},
		{"日本語を勉強する（　）、日本へ来ました。", "ために", [3]string{"ように", "ところ", "ばかり"}},
		{"この本は読み（　）です。", "やすい", [3]string{"たい", "ながら", "すぎ"}},
		{"先生に作文を（　）もらいました。", "見て", [3]string{"見る", "見た", "見ない"}},
	},
	SectionReading: {
		{"本文によると、筆者が一番伝えたいことはどれですか", "毎日少しずつ続けることが大切だ", [3]string{"一度にたくさん覚えるべきだ", "試験の前だけ勉強すればよい", "教科書は必要ない"}},
		{"「それ」は何を指していますか", "駅前の新しい店", [3]string{"古い図書館", "友達の家", "会社の会議"}},
		{"この案内で正しいものはどれですか", "申し込みは金曜日まで", [3]string{"参加費は無料ではない", "子どもは参加できない", "会場は二階だ"}},
	},
	SectionListening: {
		{"男の人はこのあと何をしますか", "資料をコピーする", [3]string{"会議室を予約する", "電話をかける", "昼ご飯を食べる"}},
		{"女の人はどうして遅れましたか", "電車が止まったから", [3]string{"寝坊したから", "道に迷ったから", "雨が降ったから"}},
		{"二人はどこで会いますか", "駅の改札", [3]string{"喫茶店", "学校の前", "公園"}},
	},
	SectionDriving: {
		{"信号機の黄色の灯火では、停止位置で安全に停止できるときは停止しなければならない", "正しい", [3]string{"誤り", "状況による", "標識がある場合のみ"}},
		{"横断歩道に歩行者がいるときは、その手前で一時停止しなければならない", "正しい", [3]string{"誤り", "夜間のみ", "徐行すればよい"}},
		{"追い越しが禁止されている場所として正しいものはどれですか", "交差点とその手前30メートル以内", [3]string{"高速道路の全区間", "片側三車線の道路", "駐車場の出口"}},
		{"雨の日の運転で注意すべきことはどれですか", "車間距離を十分にとる", [3]string{"速度を上げる", "ライトを消す", "急ブレーキを多用する"}},
	},
}

// NormalizeLevel приводит уровень к нижнему регистру
func NormalizeLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}

// SectionQuestionCount возвращает количество вопросов раздела для уровня (0 для неизвестных)
func SectionQuestionCount(level, section string) int {
	return levelPlans[NormalizeLevel(level)][section].questions
}

// DefaultMinutes возвращает стандартное время для уровня и набора разделов.
// Пустой список разделов означает полный экзамен.
func DefaultMinutes(level string, sections []string) int {
	plan, ok := levelPlans[NormalizeLevel(level)]
	if !ok {
		return 0
	}
	total := 0
	for _, s := range effectiveSections(sections) {
		total += plan[s].minutes
	}
	return total
}

// DrivingDefaultMinutes возвращает стандартное время экзамена на права
func DrivingDefaultMinutes(level DrivingLevel) int {
	return drivingPlans[level].minutes
}

// GenerateQuestions детерминированно строит набор вопросов для уровня и разделов.
// Уровень должен быть проверен заранее; неизвестные разделы пропускаются.
func GenerateQuestions(level string, sections []string) []Question {
	level = NormalizeLevel(level)
	plan, ok := levelPlans[level]
	if !ok {
		return []Question{}
	}

	questions := []Question{}
	nextID := 1
	for _, section := range effectiveSections(sections) {
		sp, known := plan[section]
		if !known {
			continue
		}
		for n := 0; n < sp.questions; n++ {
			questions = append(questions, buildQuestion(nextID, n, section, strings.ToUpper(level)))
			nextID++
		}
	}
	return questions
}

// GenerateDrivingQuestions строит набор вопросов экзамена на права (honmen - 95, karimen - 50)
func GenerateDrivingQuestions(level DrivingLevel) []Question {
	plan, ok := drivingPlans[level]
	if !ok {
		return []Question{}
	}
	questions := make([]Question, 0, plan.questions)
	for n := 0; n < plan.questions; n++ {
		questions = append(questions, buildQuestion(n+1, n, SectionDriving, string(level)))
	}
	return questions
}

// effectiveSections возвращает все разделы, если список пуст
func effectiveSections(sections []string) []string {
	if len(sections) == 0 {
		return AllSections
	}
	return sections
}

func sectionIndex(section string) int {
	for i, s := range AllSections {
		if s == section {
			return i
		}
	}
	return len(AllSections)
}

// buildQuestion собирает вопрос из шаблона банка; позиция правильного ответа зависит только от id и раздела
func buildQuestion(id, n int, section, tag string) Question {
	bank := sectionBanks[section]
	item := bank[n%len(bank)]

	correctIdx := (id*3 + sectionIndex(section)) % len(OptionLetters)
	options := make(map[Option]string, len(OptionLetters))
	d := 0
	for i, letter := range OptionLetters {
		if i == correctIdx {
			options[letter] = item.correct
			continue
		}
		options[letter] = item.distractors[d]
		d++
	}

	return Question{
		ID:            id,
		Prompt:        fmt.Sprintf("[%s] %s (%d)", tag, item.stem, n+1),
		Options:       options,
		CorrectAnswer: OptionLetters[correctIdx],
		Section:       section,
	}
}
