package attack

import (
	"fmt"
	"math/rand"
)

// Set of schedulers picking the node that finds the next block.
const (
	SchedulerDeterministic = "deterministic"
	SchedulerSeeded        = "seeded"
)

// Scheduler picks the index of the node finding the next block given the
// hash share of every node. A node with a zero share is never picked. It
// returns -1 when no node holds any share.
type Scheduler interface {
	Next(shares []float64) int
}

// NewScheduler constructs the named scheduler.
func NewScheduler(kind string, seed int64) (Scheduler, error) {
	switch kind {
	case SchedulerDeterministic, "":
		return &roundRobin{}, nil

	case SchedulerSeeded:
		return &seeded{rng: rand.New(rand.NewSource(seed))}, nil
	}

	return nil, fmt.Errorf("scheduler %q does not exist", kind)
}

// =============================================================================

// roundRobin is a smooth weighted round robin over the hash shares. Over N
// rounds every node is picked in proportion to its share, ties go to the
// lowest index.
type roundRobin struct {
	current []float64
}

func (rr *roundRobin) Next(shares []float64) int {
	if len(rr.current) != len(shares) {
		rr.current = make([]float64, len(shares))
	}

	var total float64
	best := -1
	for i, share := range shares {
		if share <= 0 {
			continue
		}

		total += share
		rr.current[i] += share

		if best == -1 || rr.current[i] > rr.current[best] {
			best = i
		}
	}

	if best != -1 {
		rr.current[best] -= total
	}

	return best
}

// =============================================================================

// seeded picks nodes at random with a probability equal to their share.
type seeded struct {
	rng *rand.Rand
}

func (s *seeded) Next(shares []float64) int {
	var total float64
	for _, share := range shares {
		if share > 0 {
			total += share
		}
	}

	if total <= 0 {
		return -1
	}

	r := s.rng.Float64() * total

	last := -1
	var cumulative float64
	for i, share := range shares {
		if share <= 0 {
			continue
		}

		cumulative += share
		last = i
		if r < cumulative {
			return i
		}
	}

	return last
}
