package service

import (
	"context"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetAllThemes(ctx context.Context) ([]quiz.Theme, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]quiz.Theme)
	return out, args.Error(1)
}

func (m *mockStore) SaveTheme(ctx context.Context, t *quiz.Theme) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockStore) DeleteTheme(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) GetQuestionsFor(ctx context.Context, themeID int64) ([]quiz.Question, error) {
	args := m.Called(ctx, themeID)
	out, _ := args.Get(0).([]quiz.Question)
	return out, args.Error(1)
}

func (m *mockStore) SaveQuestion(ctx context.Context, q *quiz.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockStore) DeleteQuestion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) GetAnswersFor(ctx context.Context, questionID int64) ([]quiz.Answer, error) {
	args := m.Called(ctx, questionID)
	out, _ := args.Get(0).([]quiz.Answer)
	return out, args.Error(1)
}

func (m *mockStore) SaveAnswer(ctx context.Context, a *quiz.Answer) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) DeleteAnswer(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) GetRandomQuestion(ctx context.Context) (quiz.Question, error) {
	args := m.Called(ctx)
	q, _ := args.Get(0).(quiz.Question)
	return q, args.Error(1)
}

func (m *mockStore) GetRandomQuestionFor(ctx context.Context, themeID int64) (quiz.Question, error) {
	args := m.Called(ctx, themeID)
	q, _ := args.Get(0).(quiz.Question)
	return q, args.Error(1)
}

func (m *mockStore) SaveSession(ctx context.Context, s *quiz.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStore) GetAllSessions(ctx context.Context) ([]quiz.Session, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]quiz.Session)
	return out, args.Error(1)
}

func (m *mockStore) GetRecentSessions(ctx context.Context, limit int) ([]quiz.Session, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]quiz.Session)
	return out, args.Error(1)
}

func (m *mockStore) AddUpdateListener(fn func()) { m.Called(fn) }

func (m *mockStore) Close() { m.Called() }

