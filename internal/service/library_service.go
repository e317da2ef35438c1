package service

import (
	"context"
	"strings"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/ArtemMoroz51/quizbox/internal/storage"
)

// LibraryService is the authoring surface over the store: list, save and
// delete themes, questions and answers.
type LibraryService interface {
	ListThemes(ctx context.Context) ([]quiz.Theme, error)
	SaveTheme(ctx context.Context, t quiz.Theme) (quiz.Theme, error)
	DeleteTheme(ctx context.Context, id int64) error

	ListQuestions(ctx context.Context, themeID int64) ([]quiz.Question, error)
	SaveQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error)
	SaveQuestionWithAnswers(ctx context.Context, q quiz.Question) (quiz.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error

	ListAnswers(ctx context.Context, questionID int64) ([]quiz.Answer, error)
	SaveAnswer(ctx context.Context, a quiz.Answer) (quiz.Answer, error)
	DeleteAnswer(ctx context.Context, id int64) error
}

type libraryService struct {
	st storage.Store
}

func NewLibraryService(st storage.Store) LibraryService {
	return &libraryService{st: st}
}

func (l *libraryService) ListThemes(ctx context.Context) ([]quiz.Theme, error) {
	return l.st.GetAllThemes(ctx)
}

func (l *libraryService) SaveTheme(ctx context.Context, t quiz.Theme) (quiz.Theme, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Questions = nil
	if err := quiz.ValidateTheme(t); err != nil {
		return quiz.Theme{}, err
	}
	if err := l.st.SaveTheme(ctx, &t); err != nil {
		return quiz.Theme{}, err
	}
	return t, nil
}

func (l *libraryService) DeleteTheme(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return l.st.DeleteTheme(ctx, id)
}

func (l *libraryService) ListQuestions(ctx context.Context, themeID int64) ([]quiz.Question, error) {
	if themeID <= 0 {
		return nil, ErrInvalidID
	}
	return l.st.GetQuestionsFor(ctx, themeID)
}

func trimQuestion(q quiz.Question) quiz.Question {
	q.Title = strings.TrimSpace(q.Title)
	q.Text = strings.TrimSpace(q.Text)
	return q
}

func trimAnswer(a quiz.Answer) quiz.Answer {
	a.Text = strings.TrimSpace(a.Text)
	return a
}

func (l *libraryService) SaveQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	q = trimQuestion(q)
	q.Answers = nil
	if err := quiz.ValidateQuestion(q); err != nil {
		return quiz.Question{}, err
	}
	if err := l.st.SaveQuestion(ctx, &q); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

// SaveQuestionWithAnswers saves q and then each of its answers under q's id.
// Everything is validated before the first write.
func (l *libraryService) SaveQuestionWithAnswers(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	q = trimQuestion(q)
	answers := make([]quiz.Answer, len(q.Answers))
	for i, a := range q.Answers {
		answers[i] = trimAnswer(a)
	}
	q.Answers = nil

	if err := quiz.ValidateQuestion(q); err != nil {
		return quiz.Question{}, err
	}
	for _, a := range answers {
		if err := quiz.ValidateAnswer(a); err != nil {
			return quiz.Question{}, err
		}
	}

	if err := l.st.SaveQuestion(ctx, &q); err != nil {
		return quiz.Question{}, err
	}
	for i := range answers {
		answers[i].QuestionID = q.ID
		if err := l.st.SaveAnswer(ctx, &answers[i]); err != nil {
			return quiz.Question{}, err
		}
	}
	q.Answers = answers
	return q, nil
}

func (l *libraryService) DeleteQuestion(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return l.st.DeleteQuestion(ctx, id)
}

func (l *libraryService) ListAnswers(ctx context.Context, questionID int64) ([]quiz.Answer, error) {
	if questionID <= 0 {
		return nil, ErrInvalidID
	}
	return l.st.GetAnswersFor(ctx, questionID)
}

func (l *libraryService) SaveAnswer(ctx context.Context, a quiz.Answer) (quiz.Answer, error) {
	a = trimAnswer(a)
	if err := quiz.ValidateAnswer(a); err != nil {
		return quiz.Answer{}, err
	}
	if err := l.st.SaveAnswer(ctx, &a); err != nil {
		return quiz.Answer{}, err
	}
	return a, nil
}

func (l *libraryService) DeleteAnswer(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return l.st.DeleteAnswer(ctx, id)
}
