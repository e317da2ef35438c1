package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"go.uber.org/zap"
)

type State int

const (
	UsingPrimary State = iota
	UsingFallback
)

func (s State) String() string {
	switch s {
	case UsingPrimary:
		return "primary"
	case UsingFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Opener connects a backend.
type Opener func(ctx context.Context) (Store, error)

// HybridStore sends every operation to the primary backend until the primary
// reports ErrUnavailable. From then on it uses the fallback backend, retrying
// the failed operation there once, and stays on the fallback until Reconnect
// is called.
type HybridStore struct {
	openPrimary  Opener
	openFallback Opener
	log          *zap.Logger

	mu       sync.Mutex
	state    State
	primary  Store
	fallback Store
	closed   bool

	listeners listeners
}

var _ Store = (*HybridStore)(nil)

// NewHybridStore opens the primary backend, or the fallback if the primary
// cannot be opened. It fails only when neither backend opens.
func NewHybridStore(ctx context.Context, openPrimary, openFallback Opener, log *zap.Logger) (*HybridStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &HybridStore{
		openPrimary:  openPrimary,
		openFallback: openFallback,
		log:          log,
	}

	p, err := openPrimary(ctx)
	if err == nil {
		h.primary = p
		h.state = UsingPrimary
		p.AddUpdateListener(h.listeners.notify)
		log.Info("storage started", zap.Stringer("state", h.state))
		return h, nil
	}

	log.Warn("primary storage unavailable at startup", zap.Error(err))
	h.state = UsingFallback
	if _, ferr := h.ensureFallback(ctx); ferr != nil {
		return nil, fmt.Errorf("no storage available: primary: %v: fallback: %w", err, ferr)
	}
	log.Info("storage started", zap.Stringer("state", h.state))
	return h, nil
}

func (h *HybridStore) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ensureFallback opens the fallback on first use. Callers hold no lock.
func (h *HybridStore) ensureFallback(ctx context.Context) (Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ensureFallbackLocked(ctx)
}

func (h *HybridStore) ensureFallbackLocked(ctx context.Context) (Store, error) {
	if h.fallback != nil {
		return h.fallback, nil
	}
	fb, err := h.openFallback(ctx)
	if err != nil {
		return nil, err
	}
	fb.AddUpdateListener(h.listeners.notify)
	h.fallback = fb
	return fb, nil
}

// switchToFallback is the only transition out of UsingPrimary.
func (h *HybridStore) switchToFallback(ctx context.Context, cause error) (Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, unavailable("fallback storage", errClosed)
	}
	fb, err := h.ensureFallbackLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("fallback storage: %w", err)
	}
	if h.state == UsingFallback {
		return fb, nil
	}

	h.state = UsingFallback
	if h.primary != nil {
		h.primary.Close()
		h.primary = nil
	}
	h.log.Warn("primary storage failed, switched to fallback",
		zap.Stringer("state", h.state),
		zap.Error(cause),
	)
	return fb, nil
}

func (h *HybridStore) current() (Store, State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == UsingPrimary {
		return h.primary, h.state
	}
	return h.fallback, h.state
}

// Reconnect tries to open the primary again and, on success, routes all later
// operations to it. Nothing else ever moves the store back to the primary.
func (h *HybridStore) Reconnect(ctx context.Context) error {
	h.mu.Lock()
	state, closed := h.state, h.closed
	h.mu.Unlock()
	if closed {
		return unavailable("reconnect", errClosed)
	}
	if state == UsingPrimary {
		return nil
	}

	p, err := h.openPrimary(ctx)
	if err != nil {
		h.log.Warn("reconnect to primary storage failed", zap.Error(err))
		return err
	}
	p.AddUpdateListener(h.listeners.notify)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		p.Close()
		return unavailable("reconnect", errClosed)
	}
	old := h.primary
	h.primary = p
	h.state = UsingPrimary
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
	h.log.Info("reconnected to primary storage", zap.Stringer("state", UsingPrimary))
	h.listeners.notify()
	return nil
}

func (h *HybridStore) do(ctx context.Context, op string, fn func(Store) error) error {
	st, state := h.current()
	if st == nil {
		return unavailable(op, errClosed)
	}
	err := fn(st)
	if err == nil || state != UsingPrimary || !IsUnavailable(err) {
		return err
	}

	fb, ferr := h.switchToFallback(ctx, fmt.Errorf("%s: %w", op, err))
	if ferr != nil {
		return ferr
	}
	return fn(fb)
}

func (h *HybridStore) AddUpdateListener(fn func()) { h.listeners.add(fn) }

// Close releases both backends. Later operations fail with ErrUnavailable.
func (h *HybridStore) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.primary != nil {
		h.primary.Close()
		h.primary = nil
	}
	if h.fallback != nil {
		h.fallback.Close()
		h.fallback = nil
	}
}

func (h *HybridStore) GetAllThemes(ctx context.Context) ([]quiz.Theme, error) {
	var out []quiz.Theme
	err := h.do(ctx, "get all themes", func(s Store) error {
		var err error
		out, err = s.GetAllThemes(ctx)
		return err
	})
	return out, err
}

func (h *HybridStore) SaveTheme(ctx context.Context, t *quiz.Theme) error {
	return h.do(ctx, "save theme", func(s Store) error { return s.SaveTheme(ctx, t) })
}

func (h *HybridStore) DeleteTheme(ctx context.Context, id int64) error {
	return h.do(ctx, "delete theme", func(s Store) error { return s.DeleteTheme(ctx, id) })
}

func (h *HybridStore) GetQuestionsFor(ctx context.Context, themeID int64) ([]quiz.Question, error) {
	var out []quiz.Question
	err := h.do(ctx, "get questions", func(s Store) error {
		var err error
		out, err = s.GetQuestionsFor(ctx, themeID)
		return err
	})
	return out, err
}

func (h *HybridStore) SaveQuestion(ctx context.Context, q *quiz.Question) error {
	return h.do(ctx, "save question", func(s Store) error { return s.SaveQuestion(ctx, q) })
}

func (h *HybridStore) DeleteQuestion(ctx context.Context, id int64) error {
	return h.do(ctx, "delete question", func(s Store) error { return s.DeleteQuestion(ctx, id) })
}

func (h *HybridStore) GetAnswersFor(ctx context.Context, questionID int64) ([]quiz.Answer, error) {
	var out []quiz.Answer
	err := h.do(ctx, "get answers", func(s Store) error {
		var err error
		out, err = s.GetAnswersFor(ctx, questionID)
		return err
	})
	return out, err
}

func (h *HybridStore) SaveAnswer(ctx context.Context, a *quiz.Answer) error {
	return h.do(ctx, "save answer", func(s Store) error { return s.SaveAnswer(ctx, a) })
}

func (h *HybridStore) DeleteAnswer(ctx context.Context, id int64) error {
	return h.do(ctx, "delete answer", func(s Store) error { return s.DeleteAnswer(ctx, id) })
}

func (h *HybridStore) GetRandomQuestion(ctx context.Context) (quiz.Question, error) {
	var out quiz.Question
	err := h.do(ctx, "random question", func(s Store) error {
		var err error
		out, err = s.GetRandomQuestion(ctx)
		return err
	})
	return out, err
}

func (h *HybridStore) GetRandomQuestionFor(ctx context.Context, themeID int64) (quiz.Question, error) {
	var out quiz.Question
	err := h.do(ctx, "random question for theme", func(s Store) error {
		var err error
		out, err = s.GetRandomQuestionFor(ctx, themeID)
		return err
	})
	return out, err
}

func (h *HybridStore) SaveSession(ctx context.Context, sess *quiz.Session) error {
	return h.do(ctx, "save session", func(s Store) error { return s.SaveSession(ctx, sess) })
}

func (h *HybridStore) GetAllSessions(ctx context.Context) ([]quiz.Session, error) {
	var out []quiz.Session
	err := h.do(ctx, "get sessions", func(s Store) error {
		var err error
		out, err = s.GetAllSessions(ctx)
		return err
	})
	return out, err
}

func (h *HybridStore) GetRecentSessions(ctx context.Context, limit int) ([]quiz.Session, error) {
	var out []quiz.Session
	err := h.do(ctx, "get recent sessions", func(s Store) error {
		var err error
		out, err = s.GetRecentSessions(ctx, limit)
		return err
	})
	return out, err
}
