package quiz

// Content comparisons ignore ids and owner ids; identity comparisons only hold
// between two persisted entities.

func ThemeContentEquals(a, b Theme) bool {
	return a.Title == b.Title && a.Description == b.Description
}

func ThemeSameIdentity(a, b Theme) bool {
	return !a.IsNew() && !b.IsNew() && a.ID == b.ID
}

func QuestionContentEquals(a, b Question) bool {
	if a.Title != b.Title || a.Text != b.Text || len(a.Answers) != len(b.Answers) {
		return false
	}
	for i := range a.Answers {
		if !AnswerContentEquals(a.Answers[i], b.Answers[i]) {
			return false
		}
	}
	return true
}

func QuestionSameIdentity(a, b Question) bool {
	return !a.IsNew() && !b.IsNew() && a.ID == b.ID
}

func AnswerContentEquals(a, b Answer) bool {
	return a.Text == b.Text && a.Correct == b.Correct
}

func AnswerSameIdentity(a, b Answer) bool {
	return !a.IsNew() && !b.IsNew() && a.ID == b.ID
}
