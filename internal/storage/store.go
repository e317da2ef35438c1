package storage

import (
	"context"
	"sync"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
)

// Store is the persistence contract shared by every backend. Save methods
// insert entities whose IsNew is true and write the generated id back into
// them; otherwise they update by id.
type Store interface {
	GetAllThemes(ctx context.Context) ([]quiz.Theme, error)
	SaveTheme(ctx context.Context, t *quiz.Theme) error
	DeleteTheme(ctx context.Context, id int64) error

	GetQuestionsFor(ctx context.Context, themeID int64) ([]quiz.Question, error)
	SaveQuestion(ctx context.Context, q *quiz.Question) error
	DeleteQuestion(ctx context.Context, id int64) error

	GetAnswersFor(ctx context.Context, questionID int64) ([]quiz.Answer, error)
	SaveAnswer(ctx context.Context, a *quiz.Answer) error
	DeleteAnswer(ctx context.Context, id int64) error

	GetRandomQuestion(ctx context.Context) (quiz.Question, error)
	GetRandomQuestionFor(ctx context.Context, themeID int64) (quiz.Question, error)

	SaveSession(ctx context.Context, s *quiz.Session) error
	GetAllSessions(ctx context.Context) ([]quiz.Session, error)
	GetRecentSessions(ctx context.Context, limit int) ([]quiz.Session, error)

	// AddUpdateListener registers fn to be called synchronously after every
	// successful save or delete.
	AddUpdateListener(fn func())
	Close()
}

type listeners struct {
	mu  sync.Mutex
	fns []func()
}

func (l *listeners) add(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *listeners) notify() {
	l.mu.Lock()
	fns := make([]func(), len(l.fns))
	copy(fns, l.fns)
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
