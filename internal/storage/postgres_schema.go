package storage

import "context"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS theme (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(200) NOT NULL DEFAULT '',
		text VARCHAR(1000) NOT NULL,
		theme_id BIGINT NOT NULL REFERENCES theme(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id BIGSERIAL PRIMARY KEY,
		text VARCHAR(500) NOT NULL,
		isCorrect BOOLEAN NOT NULL DEFAULT FALSE,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_sessions (
		id BIGSERIAL PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		user_id BIGINT NOT NULL DEFAULT -1
	)`,
	`CREATE TABLE IF NOT EXISTS user_answers (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES quiz_sessions(id) ON DELETE CASCADE,
		question_id BIGINT NOT NULL,
		answer_id BIGINT NOT NULL,
		selected BOOLEAN NOT NULL,
		correct BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_theme ON questions(theme_id)`,
	`CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_answers_session ON user_answers(session_id)`,
}

const (
	sqlSelectThemes = `SELECT id, title, description FROM theme ORDER BY id`
	sqlInsertTheme  = `INSERT INTO theme (title, description) VALUES ($1, $2) RETURNING id`
	sqlUpdateTheme  = `UPDATE theme SET title = $2, description = $3 WHERE id = $1`
	sqlDeleteTheme  = `DELETE FROM theme WHERE id = $1`

	sqlSelectQuestions        = `SELECT id, title, text, theme_id FROM questions ORDER BY id`
	sqlSelectQuestionsByTheme = `SELECT id, title, text, theme_id FROM questions WHERE theme_id = $1 ORDER BY id`
	sqlRandomQuestion         = `SELECT id, title, text, theme_id FROM questions ORDER BY random() LIMIT 1`
	sqlRandomQuestionForTheme = `SELECT id, title, text, theme_id FROM questions WHERE theme_id = $1 ORDER BY random() LIMIT 1`
	sqlInsertQuestion         = `INSERT INTO questions (title, text, theme_id) VALUES ($1, $2, $3) RETURNING id`
	sqlUpdateQuestion         = `UPDATE questions SET title = $2, text = $3, theme_id = $4 WHERE id = $1`
	sqlDeleteQuestion         = `DELETE FROM questions WHERE id = $1`

	sqlSelectAnswers           = `SELECT id, text, isCorrect, question_id FROM answers ORDER BY id`
	sqlSelectAnswersByQuestion = `SELECT id, text, isCorrect, question_id FROM answers WHERE question_id = $1 ORDER BY id`
	sqlSelectAnswersByTheme    = `
		SELECT a.id, a.text, a.isCorrect, a.question_id
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE q.theme_id = $1
		ORDER BY a.id`
	sqlInsertAnswer = `INSERT INTO answers (text, isCorrect, question_id) VALUES ($1, $2, $3) RETURNING id`
	sqlUpdateAnswer = `UPDATE answers SET text = $2, isCorrect = $3, question_id = $4 WHERE id = $1`
	sqlDeleteAnswer = `DELETE FROM answers WHERE id = $1`

	sqlSelectSessions       = `SELECT id, started_at, user_id FROM quiz_sessions ORDER BY started_at, id`
	sqlSelectRecentSessions = `SELECT id, started_at, user_id FROM quiz_sessions ORDER BY started_at DESC, id DESC LIMIT $1`
	sqlInsertSession        = `INSERT INTO quiz_sessions (started_at, user_id) VALUES ($1, $2) RETURNING id`
	sqlSelectUserAnswers    = `
		SELECT id, session_id, question_id, answer_id, selected, correct
		FROM user_answers
		WHERE session_id = ANY($1)
		ORDER BY id`
	sqlInsertUserAnswer = `
		INSERT INTO user_answers (session_id, question_id, answer_id, selected, correct)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
)

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
