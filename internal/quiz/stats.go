package quiz

import "sort"

type Outcome string

const (
	OutcomeCorrect    Outcome = "correct"
	OutcomeIncorrect  Outcome = "incorrect"
	OutcomeMixed      Outcome = "mixed"
	OutcomeUnanswered Outcome = "unanswered"
)

// Grade classifies one question from the rows recorded for it. Selecting only
// part of the correct set still counts as correct. Selections mixing correct
// and incorrect answers are graded mixed.
func Grade(rows []UserAnswer) Outcome {
	var right, wrong int
	for _, r := range rows {
		if !r.Selected {
			continue
		}
		if r.Correct {
			right++
		} else {
			wrong++
		}
	}

	switch {
	case right == 0 && wrong == 0:
		return OutcomeUnanswered
	case wrong == 0:
		return OutcomeCorrect
	case right == 0:
		return OutcomeIncorrect
	default:
		return OutcomeMixed
	}
}

// Summary counts graded questions. Total only includes questions graded
// correct or incorrect; Answered counts every distinct question seen.
type Summary struct {
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Rate     float64 `json:"rate"`
}

func Summarize(answers []UserAnswer) Summary {
	order := make([]int64, 0)
	byQuestion := make(map[int64][]UserAnswer)
	for _, a := range answers {
		if _, ok := byQuestion[a.QuestionID]; !ok {
			order = append(order, a.QuestionID)
		}
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	s := Summary{Answered: len(order)}
	for _, qid := range order {
		switch Grade(byQuestion[qid]) {
		case OutcomeCorrect:
			s.Correct++
			s.Total++
		case OutcomeIncorrect:
			s.Total++
		}
	}
	s.Rate = Rate(s.Correct, s.Total)
	return s
}

// Rate is correct/total as a percentage, 0 when total is 0.
func Rate(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

type SessionSummary struct {
	SessionID int64 `json:"sessionId"`
	UserID    int64 `json:"userId"`
	StartedAt int64 `json:"startedAt"`
	Summary
}

func SummarizeSession(s Session) SessionSummary {
	return SessionSummary{
		SessionID: s.ID,
		UserID:    s.UserID,
		StartedAt: s.StartedAt.Unix(),
		Summary:   Summarize(s.Answers),
	}
}

type History struct {
	Sessions   int              `json:"sessions"`
	Answered   int              `json:"answered"`
	Correct    int              `json:"correct"`
	Total      int              `json:"total"`
	Rate       float64          `json:"rate"`
	PerSession []SessionSummary `json:"perSession"`
}

// Aggregate sums per-session counts; the overall rate is computed from the
// sums, not averaged from session rates.
func Aggregate(sessions []Session) History {
	h := History{
		Sessions:   len(sessions),
		PerSession: make([]SessionSummary, 0, len(sessions)),
	}
	for _, s := range sessions {
		ss := SummarizeSession(s)
		h.Answered += ss.Answered
		h.Correct += ss.Correct
		h.Total += ss.Total
		h.PerSession = append(h.PerSession, ss)
	}
	h.Rate = Rate(h.Correct, h.Total)
	return h
}

// Recent returns up to n sessions, newest first. Ties on start time are broken
// by the higher id.
func Recent(sessions []Session, n int) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
