package quiz

import "time"

const (
	// NewID marks an entity that has not been persisted yet.
	NewID int64 = -1
	// AnonymousUser is the user id of sessions played without a login.
	AnonymousUser int64 = -1
)

type Theme struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title" validate:"notblank,max=100"`
	Description string     `json:"description" validate:"max=500"`
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID      int64    `json:"id"`
	ThemeID int64    `json:"themeId"`
	Title   string   `json:"title" validate:"max=200"`
	Text    string   `json:"text" validate:"notblank,max=1000"`
	Answers []Answer `json:"answers,omitempty"`
}

type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text" validate:"notblank,max=500"`
	Correct    bool   `json:"correct"`
}

type Session struct {
	ID        int64        `json:"id"`
	StartedAt time.Time    `json:"startedAt"`
	UserID    int64        `json:"userId"`
	Answers   []UserAnswer `json:"answers"`
}

// UserAnswer is one answer option the user selected for a question during a session.
type UserAnswer struct {
	ID         int64 `json:"id"`
	SessionID  int64 `json:"sessionId"`
	QuestionID int64 `json:"questionId"`
	AnswerID   int64 `json:"answerId"`
	Selected   bool  `json:"selected"`
	Correct    bool  `json:"correct"`
}

func NewTheme(title, description string) Theme {
	return Theme{ID: NewID, Title: title, Description: description}
}

func NewQuestion(themeID int64, title, text string) Question {
	return Question{ID: NewID, ThemeID: themeID, Title: title, Text: text}
}

func NewAnswer(questionID int64, text string, correct bool) Answer {
	return Answer{ID: NewID, QuestionID: questionID, Text: text, Correct: correct}
}

func NewSession(userID int64) Session {
	if userID == 0 {
		userID = AnonymousUser
	}
	return Session{ID: NewID, StartedAt: time.Now(), UserID: userID}
}

func (t Theme) IsNew() bool      { return t.ID <= 0 }
func (q Question) IsNew() bool   { return q.ID <= 0 }
func (a Answer) IsNew() bool     { return a.ID <= 0 }
func (s Session) IsNew() bool    { return s.ID <= 0 }
func (u UserAnswer) IsNew() bool { return u.ID <= 0 }

// CorrectAnswerIDs returns the ids of every answer flagged correct, in answer order.
func (q Question) CorrectAnswerIDs() []int64 {
	ids := make([]int64, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.Correct {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func (q Question) answerByID(id int64) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return Answer{}, false
}

// Record appends one UserAnswer per selected option of q and returns the new rows.
// Ids that are not options of q are rejected with ErrInvalidAnswer.
func (s *Session) Record(q Question, selected []int64) ([]UserAnswer, error) {
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}

	seen := make(map[int64]struct{}, len(selected))
	rows := make([]UserAnswer, 0, len(selected))
	for _, id := range selected {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		a, ok := q.answerByID(id)
		if !ok {
			return nil, ErrInvalidAnswer
		}
		rows = append(rows, UserAnswer{
			ID:         NewID,
			SessionID:  s.ID,
			QuestionID: q.ID,
			AnswerID:   a.ID,
			Selected:   true,
			Correct:    a.Correct,
		})
	}

	s.Answers = append(s.Answers, rows...)
	return rows, nil
}
