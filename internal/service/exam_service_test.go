package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/service/jlpt"
)

func createTestExamService(repo *MockAttemptRepo) *ExamService {
	s := NewExamService(repo, nil)
	s.now = fixedClock
	return s
}

// correctAnswers отвечает правильно на первые n вопросов набора
func correctAnswers(questions []jlpt.Question, n int) jlpt.AnswerMap {
	answers := jlpt.AnswerMap{}
	for _, q := range questions[:n] {
		answers[q.ID] = q.CorrectAnswer
	}
	return answers
}

func TestExamService_StartJLPT_FullExam(t *testing.T) {
	// Arrange
	s := createTestExamService(new(MockAttemptRepo))

	// Act
	session, err := s.StartJLPT("Official", "N5", url.Values{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, jlpt.KindJLPT, session.Kind)
	assert.Equal(t, "official", session.Type, "Тип нормализуется к нижнему регистру")
	assert.Equal(t, "n5", session.Level)
	assert.Equal(t, 90, session.TimeLimitMinutes, "Полный N5 длится 90 минут")
	assert.Len(t, session.Questions, 24)
	assert.Equal(t, jlpt.DefaultPassMark, session.PassMark)
}

func TestExamService_StartJLPT_ConfigFromQuery(t *testing.T) {
	s := createTestExamService(new(MockAttemptRepo))

	testCases := []struct {
		name          string
		query         url.Values
		expectedLimit int
	}{
		{"custom время", url.Values{"timeMode": {"custom"}, "customTime": {"45"}, "sections": {"vocab"}}, 45},
		{"битое custom время - стандартное", url.Values{"timeMode": {"custom"}, "customTime": {"abc"}, "sections": {"vocab"}}, 20},
		{"без лимита", url.Values{"timeMode": {"unlimited"}, "sections": {"vocab"}}, jlpt.UnlimitedMinutes},
		{"неизвестный режим - стандартное", url.Values{"timeMode": {"CUSTOM"}, "customTime": {"45"}, "sections": {"vocab"}}, 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session, err := s.StartJLPT("custom", "n5", tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedLimit, session.TimeLimitMinutes)
			assert.Len(t, session.Questions, 8, "Только раздел vocab")
		})
	}
}

func TestExamService_Start_InvalidParams(t *testing.T) {
	s := createTestExamService(new(MockAttemptRepo))

	_, err := s.StartJLPT("mock", "n5", url.Values{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Неизвестный тип")

	_, err = s.StartJLPT("official", "n6", url.Values{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Неизвестный уровень")

	_, err = s.StartChallenge("n3", url.Values{"sections": {"vocab,kanji"}})
	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr), "Неизвестный раздел")
	assert.Equal(t, "section", vErr.Field)
	assert.Equal(t, "kanji", vErr.Value)

	_, err = s.StartDriving("n1", url.Values{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Уровень JLPT не подходит экзамену на права")
}

func TestExamService_StartDriving(t *testing.T) {
	s := createTestExamService(new(MockAttemptRepo))

	session, err := s.StartDriving("Honmen", url.Values{"sections": {"vocab"}})

	require.NoError(t, err)
	assert.Equal(t, "honmen", session.Level)
	assert.Len(t, session.Questions, 95)
	assert.Equal(t, 50, session.TimeLimitMinutes)
	assert.Equal(t, jlpt.DrivingPassMark, session.PassMark)
	assert.Empty(t, session.Config.Sections, "Разделы не применяются к экзамену на права")
}

func TestExamService_Submit_Anonymous(t *testing.T) {
	// Arrange
	repo := new(MockAttemptRepo)
	s := createTestExamService(repo)
	questions := jlpt.GenerateQuestions("n5", []string{"vocab"})
	answers := correctAnswers(questions, 7) // 7 из 8

	// Act
	out, err := s.Submit(context.Background(), nil, SubmitInput{
		Kind:    jlpt.KindJLPT,
		Type:    "custom",
		Level:   "n5",
		Config:  jlpt.ExamConfig{TimeMode: jlpt.TimeModeDefault, Sections: []string{"vocab"}},
		Answers: answers,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 8, out.Result.TotalQuestions)
	assert.Equal(t, 7, out.Result.CorrectCount)
	assert.Equal(t, 1, out.Result.UnansweredCount)
	assert.Equal(t, 88, out.Result.Percentage)
	assert.Equal(t, jlpt.StatusExcellent, out.Result.Status)
	assert.Len(t, out.Review, 8)
	assert.Equal(t, "/exam-results?type=custom&level=n5&sections=vocab&timeMode=default", out.ResultsURL)
	assert.Nil(t, out.AttemptID)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExamService_Submit_PersistsForUser(t *testing.T) {
	// Arrange
	repo := new(MockAttemptRepo)
	s := createTestExamService(repo)
	userID := uint(5)
	questions := jlpt.GenerateDrivingQuestions(jlpt.DrivingKarimen)
	answers := correctAnswers(questions, 44) // 88% < 90

	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *entity.ExamAttempt) bool {
		return a.UserID == userID && a.ExamKind == "driving" && a.Level == "karimen" &&
			a.CorrectCount == 44 && a.Percentage == 88 && a.Status == "failed" &&
			len(a.Answers) == 44 && a.CreatedAt.Equal(fixedNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.ExamAttempt).ID = 77
	}).Return(nil)

	// Act
	out, err := s.Submit(context.Background(), &userID, SubmitInput{
		Kind:    jlpt.KindDriving,
		Level:   "karimen",
		SubType: "signs",
		Answers: answers,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, jlpt.StatusFailed, out.Result.Status, "Экзамен на права требует 90%")
	assert.Equal(t, 90, out.Result.PassMark)
	require.NotNil(t, out.AttemptID)
	assert.Equal(t, uint(77), *out.AttemptID)
	assert.Equal(t, "/exam-results?type=driving&level=karimen&timeMode=default&subType=signs", out.ResultsURL)
	repo.AssertExpectations(t)
}

func TestExamService_Submit_RejectsForeignAnswers(t *testing.T) {
	s := createTestExamService(new(MockAttemptRepo))

	_, err := s.Submit(context.Background(), nil, SubmitInput{
		Kind:    jlpt.KindChallenge,
		Level:   "n5",
		Config:  jlpt.ExamConfig{Sections: []string{"vocab"}},
		Answers: jlpt.AnswerMap{999: jlpt.OptionA},
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Ответ на несуществующий вопрос")

	_, err = s.Submit(context.Background(), nil, SubmitInput{
		Kind:    jlpt.KindChallenge,
		Level:   "n5",
		Answers: jlpt.AnswerMap{1: "E"},
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Буква вне A-D")
}

func TestExamService_Submit_RepoError(t *testing.T) {
	repo := new(MockAttemptRepo)
	s := createTestExamService(repo)
	userID := uint(1)
	dbErr := errors.New("db down")
	repo.On("Create", mock.Anything, mock.Anything).Return(dbErr)

	_, err := s.Submit(context.Background(), &userID, SubmitInput{Kind: jlpt.KindChallenge, Level: "n4"})

	assert.ErrorIs(t, err, dbErr)
}

func TestExamService_ListAttempts_Pagination(t *testing.T) {
	repo := new(MockAttemptRepo)
	s := createTestExamService(repo)
	repo.On("ListByUser", mock.Anything, uint(3), 20, 40).Return([]entity.ExamAttempt{}, int64(41), nil)

	_, total, err := s.ListAttempts(context.Background(), 3, 3, 20)

	require.NoError(t, err)
	assert.Equal(t, int64(41), total)
	repo.AssertExpectations(t)
}

func TestExamService_GetAttempt_RebuildsReview(t *testing.T) {
	// Arrange
	repo := new(MockAttemptRepo)
	s := createTestExamService(repo)
	questions := jlpt.GenerateQuestions("n4", []string{"grammar"})
	first := questions[0]
	attempt := &entity.ExamAttempt{
		ID:       9,
		UserID:   3,
		ExamKind: "jlpt",
		ExamType: "custom",
		Level:    "n4",
		Sections: entity.StringArray{"grammar"},
		TimeMode: "default",
		Answers:  entity.AnswerSheet{first.ID: string(first.CorrectAnswer)},
	}
	repo.On("GetByID", mock.Anything, uint(3), uint(9)).Return(attempt, nil)

	// Act
	detail, err := s.GetAttempt(context.Background(), 3, 9)

	// Assert
	require.NoError(t, err)
	require.Len(t, detail.Review, len(questions))
	assert.True(t, detail.Review[0].IsCorrect)
	assert.False(t, detail.Review[1].IsAnswered)
}

func TestExamService_GetAttempt_NotFound(t *testing.T) {
	repo := new(MockAttemptRepo)
	s := createTestExamService(repo)
	repo.On("GetByID", mock.Anything, uint(3), uint(9)).Return(nil, apperrors.ErrNotFound)

	_, err := s.GetAttempt(context.Background(), 3, 9)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestExamService_TestURL(t *testing.T) {
	s := createTestExamService(new(MockAttemptRepo))
	cfg := jlpt.ExamConfig{TimeMode: jlpt.TimeModeCustom, CustomTime: "30", Sections: []string{"vocab", "grammar"}}

	testCases := []struct {
		name     string
		input    NavigationInput
		expected string
	}{
		{
			"jlpt игнорирует язык",
			NavigationInput{Kind: jlpt.KindJLPT, Type: "Official", Level: "N2", Language: "en", Config: cfg},
			"/jlpt/official/n2/test?customTime=30&sections=vocab%2Cgrammar&timeMode=custom",
		},
		{
			"challenge с языком",
			NavigationInput{Kind: jlpt.KindChallenge, Level: "n3", Language: "vi", Config: jlpt.ExamConfig{TimeMode: jlpt.TimeModeDefault}},
			"/vi/challenge/n3/test?",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.TestURL(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExamService_TestURL_Invalid(t *testing.T) {
	s := createTestExamService(new(MockAttemptRepo))

	inputs := []NavigationInput{
		{Kind: jlpt.KindJLPT, Type: "official", Level: "n2", Language: "fr"},
		{Kind: jlpt.KindJLPT, Type: "mock", Level: "n2"},
		{Kind: jlpt.KindChallenge, Level: "n0"},
		{Kind: jlpt.KindDriving, Level: "honmen"},
		{Kind: jlpt.KindJLPT, Type: "custom", Level: "n1", Config: jlpt.ExamConfig{Sections: []string{"kanji"}}},
	}
	for _, in := range inputs {
		_, err := s.TestURL(in)
		assert.True(t, errors.Is(err, apperrors.ErrValidation), "input %+v", in)
	}
}

func TestExamService_Start_DispatchByKind(t *testing.T) {
	s := createTestExamService(new(MockAttemptRepo))

	driving, err := s.Start(jlpt.KindDriving, "", "karimen", url.Values{"sections": {"vocab"}})
	require.NoError(t, err)
	assert.Equal(t, jlpt.KindDriving, driving.Kind)
	assert.Len(t, driving.Questions, 50)

	challenge, err := s.Start(jlpt.KindChallenge, "", "n4", url.Values{"timeMode": {"unlimited"}})
	require.NoError(t, err)
	assert.Equal(t, jlpt.UnlimitedMinutes, challenge.TimeLimitMinutes)

	_, err = s.Start(jlpt.ExamKind("quiz"), "", "n4", url.Values{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Неизвестное семейство экзамена - ошибка валидации")
}
