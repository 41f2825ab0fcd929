package match

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
)

// Matcher produces ranked partner candidates for a user. The ranking is a
// black box to the invitation flow; scores and justifications are opaque.
type Matcher interface {
	FindCandidates(ctx context.Context, userID, goal string, limit int) ([]study.Candidate, error)
}

// OnlineLister is the slice of the presence registry the matcher needs.
type OnlineLister interface {
	OnlineUsers() []string
}

// OnlineMatcher ranks currently-online users by study-goal overlap. It is a
// deliberately simple ranking; the Matcher port is where a smarter engine
// would plug in.
type OnlineMatcher struct {
	presence OnlineLister

	mu    sync.RWMutex
	goals map[string]string // userID -> declared study goal
}

var _ Matcher = (*OnlineMatcher)(nil)

// NewOnlineMatcher creates a matcher over the given presence view.
func NewOnlineMatcher(presence OnlineLister) *OnlineMatcher {
	return &OnlineMatcher{
		presence: presence,
		goals:    make(map[string]string),
	}
}

// SetGoal records a user's declared study goal at registration.
func (m *OnlineMatcher) SetGoal(userID, goal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if goal == "" {
		delete(m.goals, userID)
		return
	}
	m.goals[userID] = goal
}

// Goal returns a user's declared study goal, or "" when none was set.
func (m *OnlineMatcher) Goal(userID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.goals[userID]
}

// ClearGoal drops a user's goal on disconnect.
func (m *OnlineMatcher) ClearGoal(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.goals, userID)
}

// FindCandidates returns up to limit online users ranked by goal affinity,
// best first. The requester is never their own candidate.
func (m *OnlineMatcher) FindCandidates(_ context.Context, userID, goal string, limit int) ([]study.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}

	wanted := tokenize(goal)

	m.mu.RLock()
	candidates := make([]study.Candidate, 0)
	for _, online := range m.presence.OnlineUsers() {
		if online == userID {
			continue
		}
		score, shared := affinity(wanted, tokenize(m.goals[online]))
		candidates = append(candidates, study.Candidate{
			UserID:        online,
			Score:         score,
			Justification: justification(shared),
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UserID < candidates[j].UserID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// affinity scores a candidate: a small baseline for being online, plus one
// point per shared goal keyword.
func affinity(wanted, theirs []string) (float64, []string) {
	score := 0.1
	var shared []string
	for _, w := range wanted {
		for _, t := range theirs {
			if w == t {
				score += 1.0
				shared = append(shared, w)
				break
			}
		}
	}
	return score, shared
}

func justification(shared []string) string {
	if len(shared) == 0 {
		return "online now"
	}
	return "shared focus: " + strings.Join(shared, ", ")
}

func tokenize(goal string) []string {
	fields := strings.Fields(strings.ToLower(goal))
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?")
		if len(f) < 3 || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}
