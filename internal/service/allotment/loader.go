package allotment

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
)

// loadQueue snapshots the eligible groups and orders them by leader rank.
// Equal ranks are served by group creation time, then by group id.
// It mutates nothing.
func (s *Service) loadQueue(ctx context.Context) ([]*domain.Group, error) {
	groups, err := s.dir.ListEligibleGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load eligible groups: %w", err)
	}

	for _, group := range groups {
		if group.Leader == nil {
			return nil, fmt.Errorf("%w: group %s has no leader record", domain.ErrDataInconsistency, group.ID)
		}

		if !group.Leader.HasRank() {
			return nil, fmt.Errorf("%w: leader %s of group %s has no numeric rank",
				domain.ErrDataInconsistency, group.Leader.ID, group.ID)
		}
	}

	queue := slices.DeleteFunc(slices.Clone(groups), func(g *domain.Group) bool {
		return !g.Eligible()
	})

	slices.SortStableFunc(queue, func(a, b *domain.Group) int {
		return cmp.Or(
			cmp.Compare(*a.Leader.Rank, *b.Leader.Rank),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})

	for position, group := range queue {
		logger.DebugKV(ctx, "Queued group",
			"position", position+1,
			"group_id", group.ID,
			"leader", group.Leader.Name,
			"rank", *group.Leader.Rank,
		)
	}

	return queue, nil
}
