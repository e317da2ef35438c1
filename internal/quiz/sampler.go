package quiz

import (
	"math/rand"
	"sync"
	"time"
)

const DefaultRecentLimit = 500

// rotation draws ids without replacement from pool and remembers the last
// limit draws so a refill skips them.
type rotation struct {
	pool   []int64
	recent []int64
	asked  map[int64]struct{}
}

func newRotation() *rotation {
	return &rotation{asked: make(map[int64]struct{})}
}

func (r *rotation) reset() {
	r.pool = r.pool[:0]
	r.recent = r.recent[:0]
	r.asked = make(map[int64]struct{})
}

func (r *rotation) prune(known map[int64]int) {
	kept := r.pool[:0]
	for _, id := range r.pool {
		if _, ok := known[id]; ok {
			kept = append(kept, id)
		}
	}
	r.pool = kept
}

func (r *rotation) refill(ids []int64, skipRecent bool) {
	for _, id := range ids {
		if skipRecent {
			if _, ok := r.asked[id]; ok {
				continue
			}
		}
		r.pool = append(r.pool, id)
	}
}

func (r *rotation) remember(id int64, limit int) {
	if len(r.recent) >= limit {
		oldest := r.recent[0]
		r.recent = r.recent[1:]
		delete(r.asked, oldest)
	}
	r.recent = append(r.recent, id)
	r.asked[id] = struct{}{}
}

// draw returns a random pool id, or false if the pool stays empty even after
// a full reset.
func (r *rotation) draw(ids []int64, known map[int64]int, limit int, rnd *rand.Rand) (int64, bool) {
	r.prune(known)
	if len(r.pool) == 0 {
		r.refill(ids, true)
	}
	if len(r.pool) == 0 {
		r.reset()
		r.refill(ids, false)
	}
	if len(r.pool) == 0 {
		return 0, false
	}

	i := rnd.Intn(len(r.pool))
	id := r.pool[i]
	r.pool[i] = r.pool[len(r.pool)-1]
	r.pool = r.pool[:len(r.pool)-1]

	r.remember(id, limit)
	return id, true
}

// Sampler hands out questions while avoiding the most recently served ones,
// both across all questions and per theme.
type Sampler struct {
	mu     sync.Mutex
	limit  int
	rnd    *rand.Rand
	global *rotation
	themes map[int64]*rotation
}

func NewSampler(recentLimit int, rnd *rand.Rand) *Sampler {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{
		limit:  recentLimit,
		rnd:    rnd,
		global: newRotation(),
		themes: make(map[int64]*rotation),
	}
}

func (s *Sampler) RecentLimit() int { return s.limit }

// Pick returns a question from questions that was not among the last
// RecentLimit picks, if possible. It returns false for an empty input.
func (s *Sampler) Pick(questions []Question) (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, known := index(questions)
	id, ok := s.global.draw(ids, known, s.limit, s.rnd)
	if !ok {
		return Question{}, false
	}
	return questions[known[id]], true
}

// PickForTheme is Pick scoped to the questions of one theme, with its own
// recency memory.
func (s *Sampler) PickForTheme(t Theme) (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.themes[t.ID]
	if !ok {
		r = newRotation()
		s.themes[t.ID] = r
	}

	ids, known := index(t.Questions)
	if id, ok := r.draw(ids, known, s.limit, s.rnd); ok {
		return t.Questions[known[id]], true
	}

	if len(t.Questions) == 0 {
		return Question{}, false
	}
	return t.Questions[s.rnd.Intn(len(t.Questions))], true
}

// ResetAll forgets every pool and recency window.
func (s *Sampler) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.global = newRotation()
	s.themes = make(map[int64]*rotation)
}

func (s *Sampler) ResetTheme(themeID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.themes, themeID)
}

// index maps question ids to their position; the first occurrence of a
// duplicate id wins.
func index(questions []Question) ([]int64, map[int64]int) {
	ids := make([]int64, 0, len(questions))
	known := make(map[int64]int, len(questions))
	for i, q := range questions {
		if _, dup := known[q.ID]; dup {
			continue
		}
		known[q.ID] = i
		ids = append(ids, q.ID)
	}
	return ids, known
}
