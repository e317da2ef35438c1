package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pick(questionID, answerID int64, correct bool) UserAnswer {
	return UserAnswer{QuestionID: questionID, AnswerID: answerID, Selected: true, Correct: correct}
}

func TestGrade(t *testing.T) {
	require.Equal(t, OutcomeCorrect, Grade([]UserAnswer{pick(1, 1, true)}))
	require.Equal(t, OutcomeCorrect, Grade([]UserAnswer{pick(1, 1, true), pick(1, 2, true)}))
	require.Equal(t, OutcomeIncorrect, Grade([]UserAnswer{pick(1, 3, false)}))
	require.Equal(t, OutcomeMixed, Grade([]UserAnswer{pick(1, 1, true), pick(1, 3, false)}))
	require.Equal(t, OutcomeUnanswered, Grade(nil))
	require.Equal(t, OutcomeUnanswered, Grade([]UserAnswer{{QuestionID: 1, AnswerID: 1, Correct: true}}))
}

func TestSummarize_MixedSelectionExcluded(t *testing.T) {
	answers := []UserAnswer{
		pick(1, 11, true),
		pick(2, 21, true),
		pick(2, 22, false),
	}

	s := Summarize(answers)
	require.Equal(t, 2, s.Answered)
	require.Equal(t, 1, s.Correct)
	require.Equal(t, 1, s.Total)
	require.Equal(t, 100.0, s.Rate)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	require.Equal(t, Summary{}, s)
	require.Equal(t, 0.0, s.Rate)
}

func TestSummarize_Rate(t *testing.T) {
	answers := []UserAnswer{
		pick(1, 11, true),
		pick(2, 21, false),
		pick(3, 31, true),
		pick(4, 41, false),
	}

	s := Summarize(answers)
	require.Equal(t, 4, s.Answered)
	require.Equal(t, 2, s.Correct)
	require.Equal(t, 4, s.Total)
	require.InDelta(t, 50.0, s.Rate, 1e-9)
}

func TestAggregate_SumsCounts(t *testing.T) {
	sessions := []Session{
		{ID: 1, Answers: []UserAnswer{pick(1, 1, true), pick(2, 2, false)}},
		{ID: 2, Answers: []UserAnswer{pick(1, 1, true), pick(3, 3, true), pick(4, 4, true)}},
		{ID: 3},
	}

	h := Aggregate(sessions)
	require.Equal(t, 3, h.Sessions)
	require.Equal(t, 5, h.Answered)
	require.Equal(t, 4, h.Correct)
	require.Equal(t, 5, h.Total)
	require.InDelta(t, 80.0, h.Rate, 1e-9)
	require.Len(t, h.PerSession, 3)
	require.InDelta(t, 50.0, h.PerSession[0].Rate, 1e-9)
	require.Equal(t, 0.0, h.PerSession[2].Rate)
}

func TestAggregate_NoSessions(t *testing.T) {
	h := Aggregate(nil)
	require.Equal(t, 0, h.Sessions)
	require.Equal(t, 0.0, h.Rate)
	require.NotNil(t, h.PerSession)
}

func TestRecent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: 1, StartedAt: base},
		{ID: 2, StartedAt: base.Add(2 * time.Hour)},
		{ID: 3, StartedAt: base.Add(time.Hour)},
		{ID: 4, StartedAt: base.Add(2 * time.Hour)},
	}

	got := Recent(sessions, 3)
	require.Len(t, got, 3)
	require.Equal(t, int64(4), got[0].ID)
	require.Equal(t, int64(2), got[1].ID)
	require.Equal(t, int64(3), got[2].ID)

	require.Equal(t, int64(1), sessions[0].ID)
	require.Len(t, Recent(sessions, 10), 4)
}
