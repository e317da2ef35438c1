package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	themeFilePrefix   = "theme_"
	sessionFilePrefix = "session_"
	fileSuffix        = ".json"
	sessionsDir       = "sessions"
	countersFile      = "ids.json"
)

// idCounters is the highest id ever issued per kind. Deleted or unreadable
// entities keep their ids reserved.
type idCounters struct {
	Theme    int64 `json:"theme"`
	Question int64 `json:"question"`
	Answer   int64 `json:"answer"`
}

// FileStore keeps one JSON file per theme holding the whole theme with its
// questions and answers. Question and answer changes rewrite the owning
// theme file. New ids come after both the largest id on disk and the largest
// id recorded in ids.json, which is only safe while a single process writes
// to dir.
type FileStore struct {
	dir string
	log *zap.Logger

	mu        sync.Mutex
	listeners listeners
}

func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(dir, sessionsDir), 0o755); err != nil {
		return nil, unavailable("create storage dir", err)
	}
	log.Info("file storage ready", zap.String("dir", dir))
	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) AddUpdateListener(fn func()) { s.listeners.add(fn) }

func (s *FileStore) Close() {}

func (s *FileStore) themePath(id int64) string {
	return filepath.Join(s.dir, themeFilePrefix+strconv.FormatInt(id, 10)+fileSuffix)
}

func (s *FileStore) sessionPath(id int64) string {
	return filepath.Join(s.dir, sessionsDir, sessionFilePrefix+strconv.FormatInt(id, 10)+fileSuffix)
}

// fileIDs returns the numeric suffixes of every prefix_<n>.json file in dir.
func fileIDs(dir, prefix string) ([]int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, prefix), fileSuffix), 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		ids = append(ids, n)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func maxID(ids []int64) int64 {
	var m int64
	for _, id := range ids {
		if id > m {
			m = id
		}
	}
	return m
}

func (s *FileStore) readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// writeJSON replaces path atomically through a temp file in the same dir.
func (s *FileStore) writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileStore) loadTheme(id int64) (quiz.Theme, error) {
	var t quiz.Theme
	err := s.readJSON(s.themePath(id), &t)
	if errors.Is(err, fs.ErrNotExist) {
		return quiz.Theme{}, fmt.Errorf("theme %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return quiz.Theme{}, unavailable("read theme", err)
	}
	t.ID = id
	return t, nil
}

func (s *FileStore) writeTheme(t quiz.Theme) error {
	if err := s.writeJSON(s.themePath(t.ID), t); err != nil {
		return unavailable("write theme", err)
	}
	return nil
}

func (s *FileStore) loadCounters() idCounters {
	var c idCounters
	path := filepath.Join(s.dir, countersFile)
	if err := s.readJSON(path, &c); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("ignoring unreadable id counters", zap.String("path", path), zap.Error(err))
		return idCounters{}
	}
	return c
}

// reserve records id as issued before the entity holding it is written.
func (s *FileStore) reserve(update func(*idCounters)) error {
	c := s.loadCounters()
	update(&c)
	if err := s.writeJSON(filepath.Join(s.dir, countersFile), c); err != nil {
		return unavailable("write id counters", err)
	}
	return nil
}

// loadAll reads every theme file; unreadable files are logged and skipped.
func (s *FileStore) loadAll() ([]quiz.Theme, error) {
	ids, err := fileIDs(s.dir, themeFilePrefix)
	if err != nil {
		return nil, unavailable("list themes", err)
	}
	themes := make([]quiz.Theme, 0, len(ids))
	for _, id := range ids {
		t, err := s.loadTheme(id)
		if err != nil {
			s.log.Warn("skipping unreadable theme file",
				zap.Int64("theme_id", id),
				zap.String("path", s.themePath(id)),
				zap.Error(err),
			)
			continue
		}
		themes = append(themes, t)
	}
	return themes, nil
}

// locate finds the theme and position of a question.
func locate(themes []quiz.Theme, questionID int64) (int, int, bool) {
	for ti := range themes {
		for qi := range themes[ti].Questions {
			if themes[ti].Questions[qi].ID == questionID {
				return ti, qi, true
			}
		}
	}
	return 0, 0, false
}

func locateAnswer(themes []quiz.Theme, answerID int64) (int, int, int, bool) {
	for ti := range themes {
		for qi := range themes[ti].Questions {
			for ai := range themes[ti].Questions[qi].Answers {
				if themes[ti].Questions[qi].Answers[ai].ID == answerID {
					return ti, qi, ai, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

func themeIndex(themes []quiz.Theme, id int64) (int, bool) {
	for i := range themes {
		if themes[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func nextQuestionID(themes []quiz.Theme) int64 {
	var m int64
	for _, t := range themes {
		for _, q := range t.Questions {
			if q.ID > m {
				m = q.ID
			}
		}
	}
	return m + 1
}

func nextAnswerID(themes []quiz.Theme) int64 {
	var m int64
	for _, t := range themes {
		for _, q := range t.Questions {
			for _, a := range q.Answers {
				if a.ID > m {
					m = a.ID
				}
			}
		}
	}
	return m + 1
}

func (s *FileStore) GetAllThemes(ctx context.Context) ([]quiz.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadAll()
}

func (s *FileStore) SaveTheme(ctx context.Context, t *quiz.Theme) error {
	if err := quiz.ValidateTheme(*t); err != nil {
		return err
	}

	if err := s.saveTheme(t); err != nil {
		return err
	}
	s.listeners.notify()
	return nil
}

func (s *FileStore) saveTheme(t *quiz.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := quiz.Theme{ID: t.ID, Title: t.Title, Description: t.Description}
	if t.IsNew() {
		ids, err := fileIDs(s.dir, themeFilePrefix)
		if err != nil {
			return unavailable("list themes", err)
		}
		stored.ID = max(maxID(ids), s.loadCounters().Theme) + 1
		if err := s.reserve(func(c *idCounters) { c.Theme = stored.ID }); err != nil {
			return err
		}
	} else {
		existing, err := s.loadTheme(t.ID)
		if err != nil {
			return err
		}
		stored.Questions = existing.Questions
	}

	if err := s.writeTheme(stored); err != nil {
		return err
	}
	t.ID = stored.ID
	return nil
}

func (s *FileStore) DeleteTheme(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("theme %d: %w", id, ErrNotFound)
	}

	s.mu.Lock()
	err := os.Remove(s.themePath(id))
	s.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("theme %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return unavailable("delete theme", err)
	}

	s.listeners.notify()
	return nil
}

func (s *FileStore) GetQuestionsFor(ctx context.Context, themeID int64) ([]quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.loadTheme(themeID)
	if errors.Is(err, ErrNotFound) {
		return []quiz.Question{}, nil
	}
	if err != nil {
		return nil, err
	}
	if t.Questions == nil {
		return []quiz.Question{}, nil
	}
	return t.Questions, nil
}

func (s *FileStore) SaveQuestion(ctx context.Context, q *quiz.Question) error {
	if err := quiz.ValidateQuestion(*q); err != nil {
		return err
	}

	if err := s.saveQuestion(q); err != nil {
		return err
	}
	s.listeners.notify()
	return nil
}

func (s *FileStore) saveQuestion(q *quiz.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	themes, err := s.loadAll()
	if err != nil {
		return err
	}
	owner, ok := themeIndex(themes, q.ThemeID)
	if !ok {
		return fmt.Errorf("question: theme %d: %w", q.ThemeID, ErrNotAssociated)
	}

	stored := quiz.Question{ID: q.ID, ThemeID: q.ThemeID, Title: q.Title, Text: q.Text}
	if q.IsNew() {
		stored.ID = max(nextQuestionID(themes), s.loadCounters().Question+1)
		if err := s.reserve(func(c *idCounters) { c.Question = stored.ID }); err != nil {
			return err
		}
		themes[owner].Questions = append(themes[owner].Questions, stored)
		if err := s.writeTheme(themes[owner]); err != nil {
			return err
		}
		q.ID = stored.ID
		return nil
	}

	ti, qi, found := locate(themes, q.ID)
	if !found {
		return fmt.Errorf("question %d: %w", q.ID, ErrNotFound)
	}
	stored.Answers = themes[ti].Questions[qi].Answers

	if ti == owner {
		themes[ti].Questions[qi] = stored
		return s.writeTheme(themes[ti])
	}

	// moved to another theme
	themes[ti].Questions = append(themes[ti].Questions[:qi], themes[ti].Questions[qi+1:]...)
	themes[owner].Questions = append(themes[owner].Questions, stored)
	if err := s.writeTheme(themes[owner]); err != nil {
		return err
	}
	return s.writeTheme(themes[ti])
}

func (s *FileStore) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.deleteQuestion(id); err != nil {
		return err
	}
	s.listeners.notify()
	return nil
}

func (s *FileStore) deleteQuestion(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id <= 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	themes, err := s.loadAll()
	if err != nil {
		return err
	}
	ti, qi, ok := locate(themes, id)
	if !ok {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	themes[ti].Questions = append(themes[ti].Questions[:qi], themes[ti].Questions[qi+1:]...)
	return s.writeTheme(themes[ti])
}

func (s *FileStore) GetAnswersFor(ctx context.Context, questionID int64) ([]quiz.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	themes, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	ti, qi, ok := locate(themes, questionID)
	if !ok || themes[ti].Questions[qi].Answers == nil {
		return []quiz.Answer{}, nil
	}
	return themes[ti].Questions[qi].Answers, nil
}

func (s *FileStore) SaveAnswer(ctx context.Context, a *quiz.Answer) error {
	if err := quiz.ValidateAnswer(*a); err != nil {
		return err
	}

	if err := s.saveAnswer(a); err != nil {
		return err
	}
	s.listeners.notify()
	return nil
}

func (s *FileStore) saveAnswer(a *quiz.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	themes, err := s.loadAll()
	if err != nil {
		return err
	}
	ti, qi, ok := locate(themes, a.QuestionID)
	if !ok {
		return fmt.Errorf("answer: question %d: %w", a.QuestionID, ErrNotAssociated)
	}

	stored := *a
	if a.IsNew() {
		stored.ID = max(nextAnswerID(themes), s.loadCounters().Answer+1)
		if err := s.reserve(func(c *idCounters) { c.Answer = stored.ID }); err != nil {
			return err
		}
		themes[ti].Questions[qi].Answers = append(themes[ti].Questions[qi].Answers, stored)
		if err := s.writeTheme(themes[ti]); err != nil {
			return err
		}
		a.ID = stored.ID
		return nil
	}

	oti, oqi, oai, found := locateAnswer(themes, a.ID)
	if !found {
		return fmt.Errorf("answer %d: %w", a.ID, ErrNotFound)
	}
	if oti == ti && oqi == qi {
		themes[ti].Questions[qi].Answers[oai] = stored
		return s.writeTheme(themes[ti])
	}

	// moved to another question
	old := &themes[oti].Questions[oqi]
	old.Answers = append(old.Answers[:oai], old.Answers[oai+1:]...)
	themes[ti].Questions[qi].Answers = append(themes[ti].Questions[qi].Answers, stored)
	if err := s.writeTheme(themes[ti]); err != nil {
		return err
	}
	if oti == ti {
		return nil
	}
	return s.writeTheme(themes[oti])
}

func (s *FileStore) DeleteAnswer(ctx context.Context, id int64) error {
	if err := s.deleteAnswer(id); err != nil {
		return err
	}
	s.listeners.notify()
	return nil
}

func (s *FileStore) deleteAnswer(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id <= 0 {
		return fmt.Errorf("answer %d: %w", id, ErrNotFound)
	}
	themes, err := s.loadAll()
	if err != nil {
		return err
	}
	ti, qi, ai, ok := locateAnswer(themes, id)
	if !ok {
		return fmt.Errorf("answer %d: %w", id, ErrNotFound)
	}
	q := &themes[ti].Questions[qi]
	q.Answers = append(q.Answers[:ai], q.Answers[ai+1:]...)
	return s.writeTheme(themes[ti])
}

func (s *FileStore) GetRandomQuestion(ctx context.Context) (quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	themes, err := s.loadAll()
	if err != nil {
		return quiz.Question{}, err
	}
	var all []quiz.Question
	for _, t := range themes {
		all = append(all, t.Questions...)
	}
	if len(all) == 0 {
		return quiz.Question{}, ErrNoQuestions
	}
	return all[rand.Intn(len(all))], nil
}

func (s *FileStore) GetRandomQuestionFor(ctx context.Context, themeID int64) (quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.loadTheme(themeID)
	if errors.Is(err, ErrNotFound) || (err == nil && len(t.Questions) == 0) {
		return quiz.Question{}, ErrNoQuestions
	}
	if err != nil {
		return quiz.Question{}, err
	}
	return t.Questions[rand.Intn(len(t.Questions))], nil
}

func (s *FileStore) SaveSession(ctx context.Context, sess *quiz.Session) error {
	if !sess.IsNew() {
		return fmt.Errorf("session %d: %w", sess.ID, ErrImmutable)
	}
	if err := s.saveSession(sess); err != nil {
		return err
	}
	s.listeners.notify()
	return nil
}

func (s *FileStore) saveSession(sess *quiz.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadSessions()
	if err != nil {
		return err
	}

	var lastSession, lastAnswer int64
	for _, e := range existing {
		if e.ID > lastSession {
			lastSession = e.ID
		}
		for _, ua := range e.Answers {
			if ua.ID > lastAnswer {
				lastAnswer = ua.ID
			}
		}
	}

	stored := *sess
	stored.ID = lastSession + 1
	stored.Answers = make([]quiz.UserAnswer, len(sess.Answers))
	for i, ua := range sess.Answers {
		ua.ID = lastAnswer + int64(i) + 1
		ua.SessionID = stored.ID
		stored.Answers[i] = ua
	}

	if err := s.writeJSON(s.sessionPath(stored.ID), stored); err != nil {
		return unavailable("write session", err)
	}
	*sess = stored
	return nil
}

func (s *FileStore) loadSessions() ([]quiz.Session, error) {
	dir := filepath.Join(s.dir, sessionsDir)
	ids, err := fileIDs(dir, sessionFilePrefix)
	if err != nil {
		return nil, unavailable("list sessions", err)
	}
	sessions := make([]quiz.Session, 0, len(ids))
	for _, id := range ids {
		var sess quiz.Session
		if err := s.readJSON(s.sessionPath(id), &sess); err != nil {
			s.log.Warn("skipping unreadable session file",
				zap.Int64("session_id", id),
				zap.String("path", s.sessionPath(id)),
				zap.Error(err),
			)
			continue
		}
		sess.ID = id
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (s *FileStore) GetAllSessions(ctx context.Context) ([]quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

func (s *FileStore) GetRecentSessions(ctx context.Context, limit int) ([]quiz.Session, error) {
	if limit <= 0 {
		return []quiz.Session{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions()
	if err != nil {
		return nil, err
	}
	return quiz.Recent(sessions, limit), nil
}
