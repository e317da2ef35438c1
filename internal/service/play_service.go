package service

import (
	"context"
	"time"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
)

type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseReady  Phase = "ready"
	PhaseAsking Phase = "asking"
)

type PlayConfig struct {
	// RecentSessions is how many sessions History reports individually.
	RecentSessions int
}

// AnswerOption is an answer as shown to the player, without its correct flag.
type AnswerOption struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      int64          `json:"id"`
	ThemeID int64          `json:"themeId"`
	Title   string         `json:"title,omitempty"`
	Text    string         `json:"text"`
	Options []AnswerOption `json:"options"`
}

func NewQuestionView(q quiz.Question) QuestionView {
	v := QuestionView{
		ID:      q.ID,
		ThemeID: q.ThemeID,
		Title:   q.Title,
		Text:    q.Text,
		Options: make([]AnswerOption, 0, len(q.Answers)),
	}
	for _, a := range q.Answers {
		v.Options = append(v.Options, AnswerOption{ID: a.ID, Text: a.Text})
	}
	return v
}

type PlayState struct {
	Phase     Phase         `json:"phase"`
	UserID    int64         `json:"userId,omitempty"`
	StartedAt int64         `json:"startedAt,omitempty"`
	Question  *QuestionView `json:"question,omitempty"`
	Summary   quiz.Summary  `json:"summary"`
}

type SubmitResult struct {
	QuestionID       int64        `json:"questionId"`
	Outcome          quiz.Outcome `json:"outcome"`
	CorrectAnswerIDs []int64      `json:"correctAnswerIds"`
	Summary          quiz.Summary `json:"summary"`
}

type StatsReport struct {
	quiz.History
	Recent []quiz.SessionSummary `json:"recent"`
}

// PlayService runs one play session at a time: it draws questions through the
// sampler, records the player's selections and persists the finished session.
type PlayService interface {
	Start(userID int64) PlayState
	Next(ctx context.Context, themeID int64) (QuestionView, error)
	Submit(ctx context.Context, questionID int64, answerIDs []int64) (SubmitResult, error)
	Current() PlayState
	Finish(ctx context.Context) (quiz.SessionSummary, error)
	History(ctx context.Context) (StatsReport, error)
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
