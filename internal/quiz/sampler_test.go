package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeQuestions(ids ...int64) []Question {
	qs := make([]Question, 0, len(ids))
	for _, id := range ids {
		qs = append(qs, Question{ID: id, ThemeID: 1, Text: "q"})
	}
	return qs
}

func newTestSampler(limit int) *Sampler {
	return NewSampler(limit, rand.New(rand.NewSource(1)))
}

func TestNewSampler_Defaults(t *testing.T) {
	s := NewSampler(0, nil)
	require.Equal(t, DefaultRecentLimit, s.RecentLimit())
}

func TestSampler_Pick_Empty(t *testing.T) {
	s := newTestSampler(10)

	q, ok := s.Pick(nil)
	require.False(t, ok)
	require.Equal(t, Question{}, q)
}

func TestSampler_Pick_NoRepeatsWithinRound(t *testing.T) {
	s := newTestSampler(500)
	qs := makeQuestions(1, 2, 3, 4, 5, 6, 7, 8)

	seen := make(map[int64]bool)
	for i := 0; i < len(qs); i++ {
		q, ok := s.Pick(qs)
		require.True(t, ok)
		require.False(t, seen[q.ID], "question %d repeated", q.ID)
		seen[q.ID] = true
	}
	require.Len(t, seen, len(qs))

	q, ok := s.Pick(qs)
	require.True(t, ok)
	require.True(t, seen[q.ID])

	// the reset started a new round, so the rest of it is distinct again
	round := map[int64]bool{q.ID: true}
	for i := 1; i < len(qs); i++ {
		q, ok := s.Pick(qs)
		require.True(t, ok)
		require.False(t, round[q.ID])
		round[q.ID] = true
	}
}

func TestSampler_Pick_WindowSmallerThanPool(t *testing.T) {
	s := newTestSampler(3)
	qs := makeQuestions(1, 2, 3, 4, 5)

	var picks []int64
	for i := 0; i < 40; i++ {
		q, ok := s.Pick(qs)
		require.True(t, ok)
		picks = append(picks, q.ID)
	}

	for i := 1; i < len(picks); i++ {
		require.NotEqual(t, picks[i-1], picks[i])
	}
}

func TestSampler_Pick_SingleQuestion(t *testing.T) {
	s := newTestSampler(500)
	qs := makeQuestions(42)

	for i := 0; i < 3; i++ {
		q, ok := s.Pick(qs)
		require.True(t, ok)
		require.Equal(t, int64(42), q.ID)
	}
}

func TestSampler_Pick_DropsDeletedQuestions(t *testing.T) {
	s := newTestSampler(500)
	qs := makeQuestions(1, 2, 3, 4)

	first, ok := s.Pick(qs)
	require.True(t, ok)

	remaining := make([]Question, 0, len(qs))
	for _, q := range qs {
		if q.ID != first.ID {
			remaining = append(remaining, q)
		}
	}
	gone := remaining[0].ID
	remaining = remaining[1:]

	for i := 0; i < len(remaining); i++ {
		q, ok := s.Pick(remaining)
		require.True(t, ok)
		require.NotEqual(t, gone, q.ID)
	}
}

func TestSampler_PickForTheme_SeparateWindows(t *testing.T) {
	s := newTestSampler(500)
	a := Theme{ID: 1, Title: "a", Questions: makeQuestions(1, 2, 3)}
	b := Theme{ID: 2, Title: "b", Questions: makeQuestions(10, 11)}

	seenA := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		q, ok := s.PickForTheme(a)
		require.True(t, ok)
		require.False(t, seenA[q.ID])
		seenA[q.ID] = true

		if i < 2 {
			_, ok := s.PickForTheme(b)
			require.True(t, ok)
		}
	}

	// theme picks do not consume the global window
	global := make(map[int64]bool)
	all := append(makeQuestions(1, 2, 3), makeQuestions(10, 11)...)
	for i := 0; i < len(all); i++ {
		q, ok := s.Pick(all)
		require.True(t, ok)
		require.False(t, global[q.ID])
		global[q.ID] = true
	}
}

func TestSampler_PickForTheme_Empty(t *testing.T) {
	s := newTestSampler(500)

	_, ok := s.PickForTheme(Theme{ID: 3, Title: "empty"})
	require.False(t, ok)
}

func TestSampler_ResetAll(t *testing.T) {
	s := newTestSampler(500)
	qs := makeQuestions(1, 2)

	_, ok := s.Pick(qs)
	require.True(t, ok)
	s.ResetAll()

	seen := make(map[int64]bool)
	for i := 0; i < 2; i++ {
		q, ok := s.Pick(qs)
		require.True(t, ok)
		require.False(t, seen[q.ID])
		seen[q.ID] = true
	}
}

func TestSampler_ResetTheme(t *testing.T) {
	s := newTestSampler(500)
	th := Theme{ID: 1, Title: "a", Questions: makeQuestions(1, 2)}

	_, ok := s.PickForTheme(th)
	require.True(t, ok)
	s.ResetTheme(th.ID)

	seen := make(map[int64]bool)
	for i := 0; i < 2; i++ {
		q, ok := s.PickForTheme(th)
		require.True(t, ok)
		require.False(t, seen[q.ID])
		seen[q.ID] = true
	}
}
