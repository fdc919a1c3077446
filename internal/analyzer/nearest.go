package analyzer

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/logs-analyzer/pkg/models"
	"github.com/thebtf/logs-analyzer/pkg/similarity"
)

// NearestPool selects which groups are candidates for an implicit group's
// nearest neighbor.
type NearestPool string

const (
	// PoolAll considers every other group, configured or implicit.
	PoolAll NearestPool = "all"
	// PoolConfigured considers configured groups only.
	PoolConfigured NearestPool = "configured"
)

// ParseNearestPool parses a pool name. The empty string selects PoolAll.
func ParseNearestPool(s string) (NearestPool, error) {
	switch NearestPool(s) {
	case "", PoolAll:
		return PoolAll, nil
	case PoolConfigured:
		return PoolConfigured, nil
	default:
		return "", fmt.Errorf("unknown nearest pool %q (want %q or %q)", s, PoolAll, PoolConfigured)
	}
}

// PostAnalyze links every implicit group to the group whose sample is closest
// to its own. Candidates are scanned in arena order and only a strictly
// smaller distance replaces the current best, so ties go to the earliest group.
// When the pool holds no candidate the link stays unset.
func (e *Engine) PostAnalyze(pool NearestPool) {
	linked := 0
	for _, g := range e.groups {
		if !g.Implicit {
			continue
		}

		best, bestDist := models.NoGroup, math.MaxInt
		for _, other := range e.groups {
			if other.ID == g.ID || (pool == PoolConfigured && other.Implicit) {
				continue
			}
			// Only a strictly smaller distance can win, so anything at or
			// above the current best is cut off early.
			d := similarity.BoundedDistance(g.Sample(), other.Sample(), bestDist-1)
			if d == similarity.Exceeded {
				continue
			}
			best, bestDist = other.ID, d
			if d == 0 {
				break
			}
		}

		g.Nearest, g.NearestDistance = best, 0
		if best != models.NoGroup {
			g.NearestDistance = bestDist
			linked++
		}
	}

	log.Debug().
		Str("pool", string(pool)).
		Int("implicit", e.unknown).
		Int("linked", linked).
		Msg("Nearest groups resolved")
}
