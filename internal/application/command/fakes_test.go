package command

import (
	"context"
	"sync"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// store is an in-memory implementation of the roulette repositories.
type store struct {
	mu        sync.Mutex
	nextID    int64
	users     map[roulette.UserID]roulette.User
	roulettes map[roulette.RouletteID]*roulette.Roulette
	votes     map[roulette.RouletteID]map[roulette.UserID]roulette.Choice
	matches   []roulette.Match
	penalties roulette.PenaltyConfig
	finalizes int
}

func newStore() *store {
	return &store{
		users:     make(map[roulette.UserID]roulette.User),
		roulettes: make(map[roulette.RouletteID]*roulette.Roulette),
		votes:     make(map[roulette.RouletteID]map[roulette.UserID]roulette.Choice),
		penalties: roulette.DefaultPenaltyConfig(),
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

// UserRepository

func (s *store) Create(_ context.Context, u *roulette.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return shared.ErrUserAlreadyExists
		}
	}
	u.ID = roulette.UserID(s.id())
	s.users[u.ID] = *u
	for rid, r := range s.roulettes {
		if !r.IsFinalized() {
			s.votes[rid][u.ID] = roulette.ChoiceNone
		}
	}
	return nil
}

func (s *store) GetByID(_ context.Context, id roulette.UserID) (*roulette.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return &u, nil
}

func (s *store) GetByIDs(_ context.Context, ids []roulette.UserID) ([]roulette.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roulette.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	roulette.SortUsersByID(out)
	return out, nil
}

func (s *store) List(context.Context) ([]roulette.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]roulette.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	roulette.SortUsersByID(out)
	return out, nil
}

// RouletteRepository, reached through rouletteRepo to avoid name clashes.

type rouletteRepo struct{ *store }

func (r rouletteRepo) Create(_ context.Context, rl *roulette.Roulette) error {
	if err := rl.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rl.ID = roulette.RouletteID(r.id())
	cp := *rl
	r.roulettes[rl.ID] = &cp
	r.votes[rl.ID] = make(map[roulette.UserID]roulette.Choice)
	for uid := range r.users {
		r.votes[rl.ID][uid] = roulette.ChoiceNone
	}
	return nil
}

func (r rouletteRepo) GetByID(_ context.Context, id roulette.RouletteID) (*roulette.Roulette, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rl, ok := r.roulettes[id]
	if !ok {
		return nil, shared.ErrRouletteNotFound
	}
	cp := *rl
	return &cp, nil
}

func (r rouletteRepo) ListCurrent(_ context.Context, now time.Time) ([]roulette.Roulette, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []roulette.Roulette
	for _, rl := range r.roulettes {
		if !rl.CoffeeDeadline.Before(now) {
			out = append(out, *rl)
		}
	}
	return out, nil
}

func (r rouletteRepo) LastCompleted(context.Context) (*roulette.Roulette, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]roulette.Roulette, 0, len(r.roulettes))
	for _, rl := range r.roulettes {
		all = append(all, *rl)
	}
	return roulette.LastCompleted(all), nil
}

func (r rouletteRepo) FinalizeMatches(_ context.Context, req roulette.FinalizeRequest) error {
	if err := roulette.ValidateGroups(req.Groups); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rl, ok := r.roulettes[req.RouletteID]
	if !ok {
		return shared.ErrRouletteNotFound
	}
	if rl.IsFinalized() {
		return shared.ErrRouletteAlreadyFinalized
	}
	if !req.At.After(rl.VoteDeadline) {
		return shared.ErrVotingNotFinished
	}
	for _, g := range req.Groups {
		for _, id := range g {
			if _, ok := r.users[id]; !ok {
				return shared.ErrUserNotFound
			}
		}
	}
	for _, g := range req.Groups {
		r.matches = append(r.matches, roulette.GroupPairs(req.RouletteID, g)...)
	}
	at := req.At
	rl.MatchingsFoundOn = &at
	r.finalizes++
	return nil
}

// VoteRepository

type voteRepo struct{ *store }

func (v voteRepo) SetChoice(_ context.Context, rid roulette.RouletteID, uid roulette.UserID, c roulette.Choice) error {
	if !c.IsValid() {
		return shared.ErrInvalidVoteChoice
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	rl, ok := v.roulettes[rid]
	if !ok {
		return shared.ErrRouletteNotFound
	}
	if !rl.CanChangeVotes() {
		return shared.ErrVotesLocked
	}
	if _, ok := v.users[uid]; !ok {
		return shared.ErrUserNotFound
	}
	v.votes[rid][uid] = c
	return nil
}

func (v voteRepo) ListByRoulette(_ context.Context, rid roulette.RouletteID) ([]roulette.Vote, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []roulette.Vote
	for uid, c := range v.votes[rid] {
		out = append(out, roulette.Vote{RouletteID: rid, User: v.users[uid], Choice: c})
	}
	return out, nil
}

func (v voteRepo) ParticipatingUsers(_ context.Context, rid roulette.RouletteID) ([]roulette.User, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []roulette.User
	for uid, c := range v.votes[rid] {
		if c == roulette.ChoiceYes {
			out = append(out, v.users[uid])
		}
	}
	roulette.SortUsersByID(out)
	return out, nil
}

// MatchRepository

type matchRepo struct{ *store }

func (m matchRepo) History(context.Context) ([]roulette.PastMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]roulette.PastMatch, 0, len(m.matches))
	for _, mt := range m.matches {
		out = append(out, roulette.PastMatch{Match: mt, CompletedAt: *m.roulettes[mt.RouletteID].MatchingsFoundOn})
	}
	return out, nil
}

func (m matchRepo) ByRoulette(_ context.Context, rid roulette.RouletteID) ([]roulette.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []roulette.Match
	for _, mt := range m.matches {
		if mt.RouletteID == rid {
			out = append(out, mt)
		}
	}
	return out, nil
}

// GroupRepository

type groupRepo struct {
	exclusions []roulette.ExclusionGroup
	penalties  []roulette.PenaltyGroup
}

func (g *groupRepo) ExclusionGroups(context.Context) ([]roulette.ExclusionGroup, error) {
	return g.exclusions, nil
}

func (g *groupRepo) PenaltyGroups(context.Context) ([]roulette.PenaltyGroup, error) {
	return g.penalties, nil
}

func (g *groupRepo) SaveExclusionGroup(_ context.Context, eg *roulette.ExclusionGroup) error {
	g.exclusions = append(g.exclusions, *eg)
	return nil
}

func (g *groupRepo) SavePenaltyGroup(_ context.Context, pg *roulette.PenaltyGroup) error {
	g.penalties = append(g.penalties, *pg)
	return nil
}

// PenaltyRepository

type penaltyRepo struct{ *store }

func (p penaltyRepo) Get(context.Context) (roulette.PenaltyConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.penalties, nil
}

func (p penaltyRepo) Save(_ context.Context, cfg roulette.PenaltyConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.penalties = cfg
	return nil
}

// ProposalRepository

type proposalStore struct {
	mu      sync.Mutex
	items   map[roulette.RouletteID]roulette.Proposal
	saveErr error
}

func newProposalStore() *proposalStore {
	return &proposalStore{items: make(map[roulette.RouletteID]roulette.Proposal)}
}

func (p *proposalStore) Save(_ context.Context, pr *roulette.Proposal) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[pr.RouletteID] = *pr
	return nil
}

func (p *proposalStore) Get(_ context.Context, id roulette.RouletteID) (*roulette.Proposal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.items[id]
	if !ok {
		return nil, shared.ErrProposalNotFound
	}
	return &pr, nil
}

func (p *proposalStore) Delete(_ context.Context, id roulette.RouletteID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, id)
	return nil
}

// Event publisher and metrics

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type recordingMetrics struct {
	runs     int
	colors   map[string]int
	outcomes []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{colors: make(map[string]int)}
}

func (m *recordingMetrics) MatcherRun(time.Duration, int, int, float64) { m.runs++ }
func (m *recordingMetrics) GroupColor(c string)                         { m.colors[c]++ }
func (m *recordingMetrics) Finalize(o string)                           { m.outcomes = append(m.outcomes, o) }

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
