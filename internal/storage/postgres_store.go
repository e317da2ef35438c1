package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DBConfig struct {
	URL      string
	User     string
	Password string
	Driver   string
}

// PostgresStore keeps themes, questions and answers in three fixed tables.
// It only updates or deletes rows it has already seen through a read or an
// insert; the ids it has seen are kept in explicit per-kind maps.
type PostgresStore struct {
	db  *pgxpool.Pool
	log *zap.Logger

	mu        sync.Mutex
	themes    map[int64]struct{}
	questions map[int64]int64 // question id -> theme id
	answers   map[int64]int64 // answer id -> question id

	listeners listeners
}

func NewPostgresStore(ctx context.Context, cfg DBConfig, log *zap.Logger) (*PostgresStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "pgx", "postgres", "postgresql":
	default:
		return nil, unavailable("connect", fmt.Errorf("unsupported driver %q", cfg.Driver))
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, unavailable("connect", errors.New("database url is empty"))
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	poolCfg.MaxConns = 1
	if cfg.User != "" {
		poolCfg.ConnConfig.User = cfg.User
	}
	if cfg.Password != "" {
		poolCfg.ConnConfig.Password = cfg.Password
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, unavailable("connect", err)
	}

	s := newPostgresStore(db, log)
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, unavailable("ensure schema", err)
	}

	log.Info("relational storage connected", zap.String("host", poolCfg.ConnConfig.Host))
	return s, nil
}

func newPostgresStore(db *pgxpool.Pool, log *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:        db,
		log:       log,
		themes:    make(map[int64]struct{}),
		questions: make(map[int64]int64),
		answers:   make(map[int64]int64),
	}
}

// classify separates rejected statements from a broken connection. The server
// answering with an error means the connection works.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return unavailable(op, err)
}

func (s *PostgresStore) AddUpdateListener(fn func()) { s.listeners.add(fn) }

// ForgetAll drops every remembered id; later updates and deletes need a fresh read.
func (s *PostgresStore) ForgetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.themes = make(map[int64]struct{})
	s.questions = make(map[int64]int64)
	s.answers = make(map[int64]int64)
}

func (s *PostgresStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *PostgresStore) rememberTheme(id int64) {
	s.mu.Lock()
	s.themes[id] = struct{}{}
	s.mu.Unlock()
}

func (s *PostgresStore) rememberQuestions(qs []quiz.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range qs {
		s.questions[q.ID] = q.ThemeID
		for _, a := range q.Answers {
			s.answers[a.ID] = a.QuestionID
		}
	}
}

func (s *PostgresStore) rememberAnswers(as []quiz.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range as {
		s.answers[a.ID] = a.QuestionID
	}
}

func (s *PostgresStore) knowsTheme(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.themes[id]
	return ok
}

func (s *PostgresStore) knowsQuestion(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.questions[id]
	return ok
}

func (s *PostgresStore) knowsAnswer(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.answers[id]
	return ok
}

func (s *PostgresStore) forgetTheme(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.themes, id)
	for qid, tid := range s.questions {
		if tid != id {
			continue
		}
		delete(s.questions, qid)
		for aid, owner := range s.answers {
			if owner == qid {
				delete(s.answers, aid)
			}
		}
	}
}

func (s *PostgresStore) forgetQuestion(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.questions, id)
	for aid, owner := range s.answers {
		if owner == id {
			delete(s.answers, aid)
		}
	}
}

func (s *PostgresStore) forgetAnswer(id int64) {
	s.mu.Lock()
	delete(s.answers, id)
	s.mu.Unlock()
}

func (s *PostgresStore) GetAllThemes(ctx context.Context) ([]quiz.Theme, error) {
	rows, err := s.db.Query(ctx, sqlSelectThemes)
	if err != nil {
		return nil, classify("list themes", err)
	}
	themes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Theme, error) {
		var t quiz.Theme
		err := row.Scan(&t.ID, &t.Title, &t.Description)
		return t, err
	})
	if err != nil {
		return nil, classify("list themes", err)
	}

	questions, err := s.queryQuestions(ctx, sqlSelectQuestions)
	if err != nil {
		return nil, err
	}
	answers, err := s.queryAnswers(ctx, sqlSelectAnswers)
	if err != nil {
		return nil, err
	}
	attachAnswers(questions, answers)

	byTheme := make(map[int64][]quiz.Question, len(themes))
	for _, q := range questions {
		byTheme[q.ThemeID] = append(byTheme[q.ThemeID], q)
	}
	for i := range themes {
		themes[i].Questions = byTheme[themes[i].ID]
		s.rememberTheme(themes[i].ID)
	}
	s.rememberQuestions(questions)

	return themes, nil
}

func (s *PostgresStore) SaveTheme(ctx context.Context, t *quiz.Theme) error {
	if err := quiz.ValidateTheme(*t); err != nil {
		return err
	}
	if !t.IsNew() && !s.knowsTheme(t.ID) {
		return fmt.Errorf("theme %d: %w", t.ID, ErrNotFound)
	}

	if t.IsNew() {
		var id int64
		if err := s.db.QueryRow(ctx, sqlInsertTheme, t.Title, t.Description).Scan(&id); err != nil {
			return classify("insert theme", err)
		}
		t.ID = id
	} else {
		tag, err := s.db.Exec(ctx, sqlUpdateTheme, t.ID, t.Title, t.Description)
		if err != nil {
			return classify("update theme", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("theme %d: %w", t.ID, ErrNotFound)
		}
	}

	s.rememberTheme(t.ID)
	s.listeners.notify()
	return nil
}

func (s *PostgresStore) DeleteTheme(ctx context.Context, id int64) error {
	if id <= 0 || !s.knowsTheme(id) {
		return fmt.Errorf("theme %d: %w", id, ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, sqlDeleteTheme, id)
	if err != nil {
		return classify("delete theme", err)
	}
	s.forgetTheme(id)
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("theme %d: %w", id, ErrNotFound)
	}

	s.listeners.notify()
	return nil
}

func (s *PostgresStore) GetQuestionsFor(ctx context.Context, themeID int64) ([]quiz.Question, error) {
	questions, err := s.queryQuestions(ctx, sqlSelectQuestionsByTheme, themeID)
	if err != nil {
		return nil, err
	}
	answers, err := s.queryAnswers(ctx, sqlSelectAnswersByTheme, themeID)
	if err != nil {
		return nil, err
	}
	attachAnswers(questions, answers)

	s.rememberQuestions(questions)
	return questions, nil
}

func (s *PostgresStore) SaveQuestion(ctx context.Context, q *quiz.Question) error {
	if err := quiz.ValidateQuestion(*q); err != nil {
		return err
	}
	if !q.IsNew() && !s.knowsQuestion(q.ID) {
		return fmt.Errorf("question %d: %w", q.ID, ErrNotFound)
	}
	if !s.knowsTheme(q.ThemeID) {
		return fmt.Errorf("question: theme %d: %w", q.ThemeID, ErrNotAssociated)
	}

	if q.IsNew() {
		var id int64
		if err := s.db.QueryRow(ctx, sqlInsertQuestion, q.Title, q.Text, q.ThemeID).Scan(&id); err != nil {
			return classify("insert question", err)
		}
		q.ID = id
	} else {
		tag, err := s.db.Exec(ctx, sqlUpdateQuestion, q.ID, q.Title, q.Text, q.ThemeID)
		if err != nil {
			return classify("update question", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("question %d: %w", q.ID, ErrNotFound)
		}
	}

	s.mu.Lock()
	s.questions[q.ID] = q.ThemeID
	s.mu.Unlock()

	s.listeners.notify()
	return nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id int64) error {
	if id <= 0 || !s.knowsQuestion(id) {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, sqlDeleteQuestion, id)
	if err != nil {
		return classify("delete question", err)
	}
	s.forgetQuestion(id)
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}

	s.listeners.notify()
	return nil
}

func (s *PostgresStore) GetAnswersFor(ctx context.Context, questionID int64) ([]quiz.Answer, error) {
	answers, err := s.queryAnswers(ctx, sqlSelectAnswersByQuestion, questionID)
	if err != nil {
		return nil, err
	}
	s.rememberAnswers(answers)
	return answers, nil
}

func (s *PostgresStore) SaveAnswer(ctx context.Context, a *quiz.Answer) error {
	if err := quiz.ValidateAnswer(*a); err != nil {
		return err
	}
	if !a.IsNew() && !s.knowsAnswer(a.ID) {
		return fmt.Errorf("answer %d: %w", a.ID, ErrNotFound)
	}
	if !s.knowsQuestion(a.QuestionID) {
		return fmt.Errorf("answer: question %d: %w", a.QuestionID, ErrNotAssociated)
	}

	if a.IsNew() {
		var id int64
		if err := s.db.QueryRow(ctx, sqlInsertAnswer, a.Text, a.Correct, a.QuestionID).Scan(&id); err != nil {
			return classify("insert answer", err)
		}
		a.ID = id
	} else {
		tag, err := s.db.Exec(ctx, sqlUpdateAnswer, a.ID, a.Text, a.Correct, a.QuestionID)
		if err != nil {
			return classify("update answer", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("answer %d: %w", a.ID, ErrNotFound)
		}
	}

	s.mu.Lock()
	s.answers[a.ID] = a.QuestionID
	s.mu.Unlock()

	s.listeners.notify()
	return nil
}

func (s *PostgresStore) DeleteAnswer(ctx context.Context, id int64) error {
	if id <= 0 || !s.knowsAnswer(id) {
		return fmt.Errorf("answer %d: %w", id, ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, sqlDeleteAnswer, id)
	if err != nil {
		return classify("delete answer", err)
	}
	s.forgetAnswer(id)
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("answer %d: %w", id, ErrNotFound)
	}

	s.listeners.notify()
	return nil
}

func (s *PostgresStore) GetRandomQuestion(ctx context.Context) (quiz.Question, error) {
	return s.randomQuestion(ctx, sqlRandomQuestion)
}

func (s *PostgresStore) GetRandomQuestionFor(ctx context.Context, themeID int64) (quiz.Question, error) {
	return s.randomQuestion(ctx, sqlRandomQuestionForTheme, themeID)
}

func (s *PostgresStore) randomQuestion(ctx context.Context, query string, args ...any) (quiz.Question, error) {
	var q quiz.Question
	err := s.db.QueryRow(ctx, query, args...).Scan(&q.ID, &q.Title, &q.Text, &q.ThemeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return quiz.Question{}, ErrNoQuestions
	}
	if err != nil {
		return quiz.Question{}, classify("random question", err)
	}

	answers, err := s.queryAnswers(ctx, sqlSelectAnswersByQuestion, q.ID)
	if err != nil {
		return quiz.Question{}, err
	}
	q.Answers = answers

	s.rememberQuestions([]quiz.Question{q})
	return q, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess *quiz.Session) error {
	if !sess.IsNew() {
		return fmt.Errorf("session %d: %w", sess.ID, ErrImmutable)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classify("begin session", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, sqlInsertSession, sess.StartedAt, sess.UserID).Scan(&id); err != nil {
		return classify("insert session", err)
	}

	ids := make([]int64, len(sess.Answers))
	for i, ua := range sess.Answers {
		err := tx.QueryRow(ctx, sqlInsertUserAnswer, id, ua.QuestionID, ua.AnswerID, ua.Selected, ua.Correct).Scan(&ids[i])
		if err != nil {
			return classify("insert user answer", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("commit session", err)
	}

	sess.ID = id
	for i := range sess.Answers {
		sess.Answers[i].ID = ids[i]
		sess.Answers[i].SessionID = id
	}

	s.listeners.notify()
	return nil
}

func (s *PostgresStore) GetAllSessions(ctx context.Context) ([]quiz.Session, error) {
	return s.querySessions(ctx, sqlSelectSessions)
}

func (s *PostgresStore) GetRecentSessions(ctx context.Context, limit int) ([]quiz.Session, error) {
	if limit <= 0 {
		return []quiz.Session{}, nil
	}
	return s.querySessions(ctx, sqlSelectRecentSessions, limit)
}

func (s *PostgresStore) querySessions(ctx context.Context, query string, args ...any) ([]quiz.Session, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list sessions", err)
	}
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Session, error) {
		var sess quiz.Session
		err := row.Scan(&sess.ID, &sess.StartedAt, &sess.UserID)
		return sess, err
	})
	if err != nil {
		return nil, classify("list sessions", err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]int64, len(sessions))
	pos := make(map[int64]int, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
		pos[sess.ID] = i
	}

	rows, err = s.db.Query(ctx, sqlSelectUserAnswers, ids)
	if err != nil {
		return nil, classify("list user answers", err)
	}
	answers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.UserAnswer, error) {
		var ua quiz.UserAnswer
		err := row.Scan(&ua.ID, &ua.SessionID, &ua.QuestionID, &ua.AnswerID, &ua.Selected, &ua.Correct)
		return ua, err
	})
	if err != nil {
		return nil, classify("list user answers", err)
	}
	for _, ua := range answers {
		i := pos[ua.SessionID]
		sessions[i].Answers = append(sessions[i].Answers, ua)
	}

	return sessions, nil
}

func (s *PostgresStore) queryQuestions(ctx context.Context, query string, args ...any) ([]quiz.Question, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list questions", err)
	}
	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Question, error) {
		var q quiz.Question
		err := row.Scan(&q.ID, &q.Title, &q.Text, &q.ThemeID)
		return q, err
	})
	if err != nil {
		return nil, classify("list questions", err)
	}
	return questions, nil
}

func (s *PostgresStore) queryAnswers(ctx context.Context, query string, args ...any) ([]quiz.Answer, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list answers", err)
	}
	answers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Answer, error) {
		var a quiz.Answer
		err := row.Scan(&a.ID, &a.Text, &a.Correct, &a.QuestionID)
		return a, err
	})
	if err != nil {
		return nil, classify("list answers", err)
	}
	return answers, nil
}

func attachAnswers(questions []quiz.Question, answers []quiz.Answer) {
	pos := make(map[int64]int, len(questions))
	for i, q := range questions {
		pos[q.ID] = i
	}
	for _, a := range answers {
		if i, ok := pos[a.QuestionID]; ok {
			questions[i].Answers = append(questions[i].Answers, a)
		}
	}
}
