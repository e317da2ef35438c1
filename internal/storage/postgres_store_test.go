package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	require.NoError(t, classify("op", nil))

	err := classify("get theme", pgx.ErrNoRows)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, IsUnavailable(err))

	err = classify("insert theme", &pgconn.PgError{Code: "23505", Message: "duplicate key"})
	require.Error(t, err)
	require.False(t, IsUnavailable(err))

	err = classify("list themes", context.DeadlineExceeded)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, IsUnavailable(err))

	err = classify("list themes", fmt.Errorf("read: %w", io.ErrUnexpectedEOF))
	require.True(t, IsUnavailable(err))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestNewPostgresStore_RejectsConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewPostgresStore(ctx, DBConfig{URL: "postgres://localhost/quiz", Driver: "mysql"}, nil)
	require.True(t, IsUnavailable(err))

	_, err = NewPostgresStore(ctx, DBConfig{URL: "  "}, nil)
	require.True(t, IsUnavailable(err))

	_, err = NewPostgresStore(ctx, DBConfig{URL: "postgres://localhost:notaport/quiz"}, nil)
	require.True(t, IsUnavailable(err))
}

// The checks below fail before any statement is sent, so no pool is needed.

func TestPostgresStore_OrphansRejected(t *testing.T) {
	s := newPostgresStore(nil, zap.NewNop())
	ctx := context.Background()

	q := quiz.NewQuestion(12, "", "Capital of Peru?")
	require.ErrorIs(t, s.SaveQuestion(ctx, &q), ErrNotAssociated)
	require.True(t, q.IsNew())

	a := quiz.NewAnswer(40, "Lima", true)
	require.ErrorIs(t, s.SaveAnswer(ctx, &a), ErrNotAssociated)
	require.True(t, a.IsNew())
}

func TestPostgresStore_UnknownDeletes(t *testing.T) {
	s := newPostgresStore(nil, zap.NewNop())
	ctx := context.Background()

	require.ErrorIs(t, s.DeleteTheme(ctx, 3), ErrNotFound)
	require.ErrorIs(t, s.DeleteQuestion(ctx, 3), ErrNotFound)
	require.ErrorIs(t, s.DeleteAnswer(ctx, 3), ErrNotFound)
	require.ErrorIs(t, s.DeleteTheme(ctx, quiz.NewID), ErrNotFound)
}

func TestPostgresStore_UnknownUpdates(t *testing.T) {
	s := newPostgresStore(nil, zap.NewNop())
	ctx := context.Background()

	th := quiz.Theme{ID: 99, Title: "Rivers"}
	err := s.SaveTheme(ctx, &th)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, IsUnavailable(err))

	// the parent theme is known, the question itself is not
	s.rememberTheme(1)
	q := quiz.Question{ID: 7, ThemeID: 1, Text: "Longest river?"}
	err = s.SaveQuestion(ctx, &q)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, IsUnavailable(err))

	s.rememberQuestions([]quiz.Question{{ID: 10, ThemeID: 1}})
	a := quiz.Answer{ID: 55, QuestionID: 10, Text: "Nile"}
	err = s.SaveAnswer(ctx, &a)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, IsUnavailable(err))
}

func TestPostgresStore_ValidationFirst(t *testing.T) {
	s := newPostgresStore(nil, zap.NewNop())
	ctx := context.Background()

	th := quiz.NewTheme("   ", "")
	var ve *quiz.ValidationError
	require.ErrorAs(t, s.SaveTheme(ctx, &th), &ve)
	require.Equal(t, "title", ve.Field)
}

func TestPostgresStore_SavedSessionImmutable(t *testing.T) {
	s := newPostgresStore(nil, zap.NewNop())

	sess := quiz.Session{ID: 4, StartedAt: time.Now()}
	require.ErrorIs(t, s.SaveSession(context.Background(), &sess), ErrImmutable)

	out, err := s.GetRecentSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestPostgresStore_ForgetCascades(t *testing.T) {
	s := newPostgresStore(nil, zap.NewNop())

	s.rememberTheme(1)
	s.rememberQuestions([]quiz.Question{
		{ID: 10, ThemeID: 1, Answers: []quiz.Answer{{ID: 100, QuestionID: 10}}},
		{ID: 11, ThemeID: 2, Answers: []quiz.Answer{{ID: 110, QuestionID: 11}}},
	})

	s.forgetTheme(1)
	require.False(t, s.knowsTheme(1))
	require.False(t, s.knowsQuestion(10))
	require.False(t, s.knowsAnswer(100))
	require.True(t, s.knowsQuestion(11))
	require.True(t, s.knowsAnswer(110))

	s.forgetQuestion(11)
	require.False(t, s.knowsAnswer(110))

	s.rememberTheme(5)
	s.ForgetAll()
	require.False(t, s.knowsTheme(5))
}

// Set QUIZBOX_TEST_DATABASE_URL to a disposable database to run this test.
func TestPostgresStore_Integration(t *testing.T) {
	url := os.Getenv("QUIZBOX_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("QUIZBOX_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewPostgresStore(ctx, DBConfig{URL: url}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(ctx, "TRUNCATE user_answers, quiz_sessions, answers, questions, theme RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	notified := 0
	s.AddUpdateListener(func() { notified++ })

	th := quiz.NewTheme("Chemistry", "elements")
	require.NoError(t, s.SaveTheme(ctx, &th))
	require.False(t, th.IsNew())

	q := quiz.NewQuestion(th.ID, "Symbols", "Symbol for gold?")
	require.NoError(t, s.SaveQuestion(ctx, &q))

	au := quiz.NewAnswer(q.ID, "Au", true)
	ag := quiz.NewAnswer(q.ID, "Ag", false)
	require.NoError(t, s.SaveAnswer(ctx, &au))
	require.NoError(t, s.SaveAnswer(ctx, &ag))
	require.Equal(t, 4, notified)

	themes, err := s.GetAllThemes(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 1)
	require.Len(t, themes[0].Questions, 1)
	require.Len(t, themes[0].Questions[0].Answers, 2)

	picked, err := s.GetRandomQuestionFor(ctx, th.ID)
	require.NoError(t, err)
	require.Equal(t, q.ID, picked.ID)

	_, err = s.GetRandomQuestionFor(ctx, th.ID+1000)
	require.ErrorIs(t, err, ErrNoQuestions)

	sess := quiz.NewSession(0)
	_, err = sess.Record(picked, []int64{au.ID})
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, &sess))
	require.False(t, sess.IsNew())

	recent, err := s.GetRecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, 1, quiz.Summarize(recent[0].Answers).Correct)

	s.ForgetAll()
	th.Title = "Chemistry basics"
	require.ErrorIs(t, s.SaveTheme(ctx, &th), ErrNotFound)
	_, err = s.GetAllThemes(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveTheme(ctx, &th))

	require.NoError(t, s.DeleteTheme(ctx, th.ID))
	answers, err := s.GetAnswersFor(ctx, q.ID)
	require.NoError(t, err)
	require.Empty(t, answers)

	err = s.DeleteTheme(ctx, th.ID)
	require.True(t, errors.Is(err, ErrNotFound))
}
