package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROPOSAL CACHE
// ══════════════════════════════════════════════════════════════════════════════

// DefaultProposalTTL is used when the configured TTL is not positive.
const DefaultProposalTTL = 24 * time.Hour

// ProposalCache implements roulette.ProposalRepository on Redis.
// One key per roulette; a new generation overwrites the previous proposal.
type ProposalCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewProposalCache creates a ProposalCache.
func NewProposalCache(cache *Cache, ttl time.Duration) *ProposalCache {
	if ttl <= 0 {
		ttl = DefaultProposalTTL
	}
	return &ProposalCache{cache: cache, ttl: ttl}
}

// ProposalKey generates the cache key for a roulette's proposal.
func ProposalKey(id roulette.RouletteID) string {
	return PrefixProposal + strconv.FormatInt(int64(id), 10)
}

// Save stores the proposal, replacing any earlier one.
func (p *ProposalCache) Save(ctx context.Context, proposal *roulette.Proposal) error {
	return p.cache.Set(ctx, ProposalKey(proposal.RouletteID), proposal, p.ttl)
}

// Get returns the stored proposal.
func (p *ProposalCache) Get(ctx context.Context, id roulette.RouletteID) (*roulette.Proposal, error) {
	var proposal roulette.Proposal
	if err := p.cache.Get(ctx, ProposalKey(id), &proposal); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrProposalNotFound
		}
		return nil, err
	}
	return &proposal, nil
}

// Delete removes the proposal.
func (p *ProposalCache) Delete(ctx context.Context, id roulette.RouletteID) error {
	return p.cache.Delete(ctx, ProposalKey(id))
}
