package service

import (
	"context"
	"sync"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/ArtemMoroz51/quizbox/internal/storage"
	"go.uber.org/zap"
)

type playService struct {
	st      storage.Store
	sampler *quiz.Sampler
	log     *zap.Logger
	cfg     PlayConfig

	mu      sync.Mutex
	session *quiz.Session
	asking  *quiz.Question
}

func NewPlayService(st storage.Store, sampler *quiz.Sampler, cfg PlayConfig, log *zap.Logger) PlayService {
	if cfg.RecentSessions <= 0 {
		cfg.RecentSessions = 10
	}
	if sampler == nil {
		sampler = quiz.NewSampler(0, nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &playService{st: st, sampler: sampler, log: log, cfg: cfg}
}

// Start discards any unfinished session and begins a new one with fresh
// sampler rotations.
func (p *playService) Start(userID int64) PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil && len(p.session.Answers) > 0 {
		p.log.Info("unfinished session discarded", zap.Int("answers", len(p.session.Answers)))
	}

	p.sampler.ResetAll()
	s := quiz.NewSession(userID)
	p.session = &s
	p.asking = nil

	p.log.Debug("play session started", zap.Int64("user_id", s.UserID))
	return p.stateLocked()
}

// Next draws a question from all themes when themeID is 0, otherwise from
// that theme only. The drawn question replaces any unanswered one.
func (p *playService) Next(ctx context.Context, themeID int64) (QuestionView, error) {
	if themeID < 0 {
		return QuestionView{}, ErrInvalidID
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return QuestionView{}, ErrNoSession
	}

	var (
		q  quiz.Question
		ok bool
	)
	if themeID == 0 {
		themes, err := p.st.GetAllThemes(ctx)
		if err != nil {
			return QuestionView{}, err
		}
		var all []quiz.Question
		for _, t := range themes {
			all = append(all, t.Questions...)
		}
		q, ok = p.sampler.Pick(all)
	} else {
		qs, err := p.st.GetQuestionsFor(ctx, themeID)
		if err != nil {
			return QuestionView{}, err
		}
		q, ok = p.sampler.PickForTheme(quiz.Theme{ID: themeID, Questions: qs})
	}
	if !ok {
		return QuestionView{}, storage.ErrNoQuestions
	}

	p.asking = &q
	return NewQuestionView(q), nil
}

func (p *playService) Submit(ctx context.Context, questionID int64, answerIDs []int64) (SubmitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return SubmitResult{}, ErrNoSession
	}
	if p.asking == nil {
		return SubmitResult{}, ErrBadPhase
	}
	if p.asking.ID != questionID {
		return SubmitResult{}, ErrWrongQuestion
	}

	rows, err := p.session.Record(*p.asking, answerIDs)
	if err != nil {
		return SubmitResult{}, err
	}
	q := *p.asking
	p.asking = nil

	return SubmitResult{
		QuestionID:       q.ID,
		Outcome:          quiz.Grade(rows),
		CorrectAnswerIDs: q.CorrectAnswerIDs(),
		Summary:          quiz.Summarize(p.session.Answers),
	}, nil
}

func (p *playService) Current() PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *playService) stateLocked() PlayState {
	if p.session == nil {
		return PlayState{Phase: PhaseIdle, Summary: quiz.Summarize(nil)}
	}

	st := PlayState{
		Phase:     PhaseReady,
		UserID:    p.session.UserID,
		StartedAt: unixOrZero(p.session.StartedAt),
		Summary:   quiz.Summarize(p.session.Answers),
	}
	if p.asking != nil {
		v := NewQuestionView(*p.asking)
		st.Question = &v
		st.Phase = PhaseAsking
	}
	return st
}

// Finish saves the session and ends it. A session without answers is dropped
// without saving. When saving fails the session stays open.
func (p *playService) Finish(ctx context.Context) (quiz.SessionSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return quiz.SessionSummary{}, ErrNoSession
	}

	sess := p.session
	if len(sess.Answers) > 0 {
		if err := p.st.SaveSession(ctx, sess); err != nil {
			p.log.Warn("save session failed", zap.Error(err))
			return quiz.SessionSummary{}, err
		}
	}

	p.session = nil
	p.asking = nil

	summary := quiz.SummarizeSession(*sess)
	p.log.Info("play session finished",
		zap.Int64("session_id", summary.SessionID),
		zap.Int("correct", summary.Correct),
		zap.Int("total", summary.Total),
	)
	return summary, nil
}

func (p *playService) History(ctx context.Context) (StatsReport, error) {
	sessions, err := p.st.GetAllSessions(ctx)
	if err != nil {
		return StatsReport{}, err
	}
	recent, err := p.st.GetRecentSessions(ctx, p.cfg.RecentSessions)
	if err != nil {
		return StatsReport{}, err
	}

	report := StatsReport{
		History: quiz.Aggregate(sessions),
		Recent:  make([]quiz.SessionSummary, 0, len(recent)),
	}
	for _, s := range recent {
		report.Recent = append(report.Recent, quiz.SummarizeSession(s))
	}
	return report, nil
}
