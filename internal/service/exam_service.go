package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/domain/repository"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service/jlpt"
)

// ExamSession - собранный набор вопросов для одной попытки
type ExamSession struct {
	Kind             jlpt.ExamKind   `json:"kind"`
	Type             string          `json:"type,omitempty"`
	Level            string          `json:"level"`
	Config           jlpt.ExamConfig `json:"config"`
	TimeLimitMinutes int             `json:"time_limit_minutes"`
	PassMark         int             `json:"pass_mark"`
	Questions        []jlpt.Question `json:"questions"`
}

// SubmitInput - ответы пользователя вместе с параметрами экзамена, по которым набор строится заново
type SubmitInput struct {
	Kind    jlpt.ExamKind
	Type    string
	Level   string
	SubType string
	Config  jlpt.ExamConfig
	Answers jlpt.AnswerMap
}

// SubmitResult - итог проверки попытки
type SubmitResult struct {
	Result           jlpt.ExamResult       `json:"result"`
	Review           []jlpt.ReviewQuestion `json:"review"`
	ResultsURL       string                `json:"results_url"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	AttemptID        *uint                 `json:"attempt_id,omitempty"`
}

// AttemptDetail - сохраненная попытка с восстановленным разбором
type AttemptDetail struct {
	Attempt *entity.ExamAttempt   `json:"attempt"`
	Review  []jlpt.ReviewQuestion `json:"review"`
}

// NavigationInput - параметры для построения URL страницы теста
type NavigationInput struct {
	Kind     jlpt.ExamKind
	Type     string
	Level    string
	Language string
	Config   jlpt.ExamConfig
}

// ExamService собирает экзамены, проверяет ответы и ведет историю попыток
type ExamService struct {
	attemptRepo repository.AttemptRepository
	now         func() time.Time
	log         *zap.Logger
}

// NewExamService создает новый сервис экзаменов
func NewExamService(attemptRepo repository.AttemptRepository, log *zap.Logger) *ExamService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExamService{
		attemptRepo: attemptRepo,
		now:         time.Now,
		log:         log.Named("ExamService"),
	}
}

// StartJLPT собирает экзамен JLPT (тип custom/official, уровень n1..n5)
func (s *ExamService) StartJLPT(examType, level string, query jlpt.QueryValues) (*ExamSession, error) {
	return s.start(jlpt.KindJLPT, examType, level, jlpt.ResolveExamConfig(query))
}

// StartChallenge собирает экзамен-челлендж по уровню
func (s *ExamService) StartChallenge(level string, query jlpt.QueryValues) (*ExamSession, error) {
	return s.start(jlpt.KindChallenge, "", level, jlpt.ResolveExamConfig(query))
}

// StartDriving собирает экзамен на права (honmen/karimen). Разделы к нему не применяются.
func (s *ExamService) StartDriving(level string, query jlpt.QueryValues) (*ExamSession, error) {
	cfg := jlpt.ResolveExamConfig(query)
	cfg.Sections = []string{}
	return s.start(jlpt.KindDriving, "", level, cfg)
}

// Start выбирает сборку экзамена по семейству (используется таймером WebSocket)
func (s *ExamService) Start(kind jlpt.ExamKind, examType, level string, query jlpt.QueryValues) (*ExamSession, error) {
	switch kind {
	case jlpt.KindJLPT:
		return s.StartJLPT(examType, level, query)
	case jlpt.KindChallenge:
		return s.StartChallenge(level, query)
	case jlpt.KindDriving:
		return s.StartDriving(level, query)
	}
	return nil, apperrors.NewValidationError("kind", string(kind), "")
}

func (s *ExamService) start(kind jlpt.ExamKind, examType, level string, cfg jlpt.ExamConfig) (*ExamSession, error) {
	plan, err := planExam(kind, examType, level, cfg)
	if err != nil {
		return nil, err
	}
	return &ExamSession{
		Kind:             kind,
		Type:             plan.examType,
		Level:            plan.level,
		Config:           cfg,
		TimeLimitMinutes: cfg.GetTimeLimit(plan.defaultMinutes),
		PassMark:         plan.passMark,
		Questions:        plan.questions,
	}, nil
}

// Submit проверяет ответы и, если userID задан, сохраняет попытку в историю
func (s *ExamService) Submit(ctx context.Context, userID *uint, input SubmitInput) (*SubmitResult, error) {
	if input.Config.Sections == nil {
		input.Config.Sections = []string{}
	}
	if input.Config.TimeMode == "" {
		input.Config.TimeMode = jlpt.TimeModeDefault
	}
	if input.Kind == jlpt.KindDriving {
		input.Config.Sections = []string{}
	}

	plan, err := planExam(input.Kind, input.Type, input.Level, input.Config)
	if err != nil {
		return nil, err
	}
	if err := jlpt.ValidateAnswers(plan.questions, input.Answers); err != nil {
		return nil, err
	}

	result := jlpt.AggregateWithPassMark(plan.questions, input.Answers, plan.passMark)
	out := &SubmitResult{
		Result: result,
		Review: jlpt.BuildReview(plan.questions, input.Answers),
		ResultsURL: jlpt.ExamResultsURL(jlpt.ResultsParams{
			Type:       plan.resultsType(),
			Level:      plan.level,
			Sections:   input.Config.Sections,
			TimeMode:   input.Config.TimeMode,
			CustomTime: input.Config.CustomTime,
			SubType:    input.SubType,
		}),
		TimeLimitMinutes: input.Config.GetTimeLimit(plan.defaultMinutes),
	}

	if userID == nil {
		return out, nil
	}

	attempt := &entity.ExamAttempt{
		UserID:          *userID,
		ExamKind:        string(input.Kind),
		ExamType:        plan.examType,
		Level:           plan.level,
		SubType:         input.SubType,
		Sections:        entity.StringArray(input.Config.Sections),
		TimeMode:        string(input.Config.TimeMode),
		TimeLimitMin:    out.TimeLimitMinutes,
		TotalQuestions:  result.TotalQuestions,
		CorrectCount:    result.CorrectCount,
		IncorrectCount:  result.IncorrectCount,
		UnansweredCount: result.UnansweredCount,
		Percentage:      result.Percentage,
		Status:          string(result.Status),
		Answers:         toAnswerSheet(input.Answers),
		CreatedAt:       s.now(),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		s.log.Error("Ошибка сохранения попытки", zap.Uint("user_id", *userID), zap.Error(err))
		return nil, err
	}
	s.log.Info("Попытка сохранена",
		zap.Uint("user_id", *userID),
		zap.Uint("attempt_id", attempt.ID),
		zap.String("kind", attempt.ExamKind),
		zap.String("level", attempt.Level),
		zap.Int("percentage", attempt.Percentage))
	out.AttemptID = &attempt.ID
	return out, nil
}

// ListAttempts возвращает страницу истории попыток пользователя
func (s *ExamService) ListAttempts(ctx context.Context, userID uint, page, pageSize int) ([]entity.ExamAttempt, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.attemptRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
}

// GetAttempt возвращает попытку пользователя и заново строит разбор по сохраненным ответам
func (s *ExamService) GetAttempt(ctx context.Context, userID, attemptID uint) (*AttemptDetail, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	cfg := jlpt.ExamConfig{TimeMode: jlpt.TimeMode(attempt.TimeMode), Sections: []string(attempt.Sections)}
	plan, err := planExam(jlpt.ExamKind(attempt.ExamKind), attempt.ExamType, attempt.Level, cfg)
	if err != nil {
		// Попытка сохранена со старыми параметрами; отдаем ее без разбора
		s.log.Warn("Не удалось восстановить набор вопросов попытки", zap.Uint("attempt_id", attempt.ID), zap.Error(err))
		return &AttemptDetail{Attempt: attempt, Review: []jlpt.ReviewQuestion{}}, nil
	}
	return &AttemptDetail{
		Attempt: attempt,
		Review:  jlpt.BuildReview(plan.questions, fromAnswerSheet(attempt.Answers)),
	}, nil
}

// TestURL проверяет параметры и строит URL страницы теста
func (s *ExamService) TestURL(input NavigationInput) (string, error) {
	if input.Language != "" && !jlpt.IsValidLanguage(input.Language) {
		return "", apperrors.NewValidationError("language", input.Language, "")
	}
	if err := validateSections(input.Config.Sections); err != nil {
		return "", err
	}

	switch input.Kind {
	case jlpt.KindJLPT:
		if !jlpt.IsValidJLPTType(input.Type) {
			return "", apperrors.NewValidationError("type", input.Type, "")
		}
		if !jlpt.IsValidJLPTLevel(input.Level) {
			return "", apperrors.NewValidationError("level", input.Level, "")
		}
		return jlpt.GenerateJLPTTestURL(strings.ToLower(input.Type), jlpt.NormalizeLevel(input.Level), input.Config.Query(), input.Language), nil
	case jlpt.KindChallenge:
		if !jlpt.IsValidJLPTLevel(input.Level) {
			return "", apperrors.NewValidationError("level", input.Level, "")
		}
		return jlpt.GenerateChallengeTestURL(jlpt.NormalizeLevel(input.Level), input.Config.Query(), input.Language), nil
	default:
		return "", apperrors.NewValidationError("kind", string(input.Kind), "test url is available for jlpt and challenge")
	}
}

// examPlan - проверенные параметры экзамена и его детерминированный набор вопросов
type examPlan struct {
	kind           jlpt.ExamKind
	examType       string
	level          string
	defaultMinutes int
	passMark       int
	questions      []jlpt.Question
}

// resultsType - значение параметра type страницы результатов
func (p examPlan) resultsType() string {
	if p.kind == jlpt.KindJLPT {
		return p.examType
	}
	return string(p.kind)
}

// planExam проверяет параметры и собирает набор вопросов. Ошибки - ValidationError.
func planExam(kind jlpt.ExamKind, examType, level string, cfg jlpt.ExamConfig) (*examPlan, error) {
	switch kind {
	case jlpt.KindJLPT, jlpt.KindChallenge:
		if kind == jlpt.KindJLPT && !jlpt.IsValidJLPTType(examType) {
			return nil, apperrors.NewValidationError("type", examType, "")
		}
		if !jlpt.IsValidJLPTLevel(level) {
			return nil, apperrors.NewValidationError("level", level, "")
		}
		if err := validateSections(cfg.Sections); err != nil {
			return nil, err
		}
		plan := &examPlan{
			kind:           kind,
			level:          jlpt.NormalizeLevel(level),
			defaultMinutes: jlpt.DefaultMinutes(level, cfg.Sections),
			passMark:       jlpt.DefaultPassMark,
			questions:      jlpt.GenerateQuestions(level, cfg.Sections),
		}
		if kind == jlpt.KindJLPT {
			plan.examType = strings.ToLower(examType)
		}
		return plan, nil
	case jlpt.KindDriving:
		if !jlpt.IsValidDrivingLevel(level) {
			return nil, apperrors.NewValidationError("level", level, "")
		}
		dl := jlpt.DrivingLevel(jlpt.NormalizeLevel(level))
		return &examPlan{
			kind:           kind,
			level:          string(dl),
			defaultMinutes: jlpt.DrivingDefaultMinutes(dl),
			passMark:       jlpt.DrivingPassMark,
			questions:      jlpt.GenerateDrivingQuestions(dl),
		}, nil
	default:
		return nil, apperrors.NewValidationError("kind", string(kind), "")
	}
}

func validateSections(sections []string) error {
	for _, section := range sections {
		if !jlpt.IsValidSection(section) {
			return apperrors.NewValidationError("section", section, "")
		}
	}
	return nil
}

func toAnswerSheet(answers jlpt.AnswerMap) entity.AnswerSheet {
	sheet := make(entity.AnswerSheet, len(answers))
	for id, option := range answers {
		sheet[id] = string(option)
	}
	return sheet
}

func fromAnswerSheet(sheet entity.AnswerSheet) jlpt.AnswerMap {
	answers := make(jlpt.AnswerMap, len(sheet))
	for id, option := range sheet {
		answers[id] = jlpt.Option(option)
	}
	return answers
}
