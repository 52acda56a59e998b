// File: internal/segmentation/segmenter.go
package segmentation

import (
	"time"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
)

// DefaultGapThreshold is the idle time after which a new group starts.
const DefaultGapThreshold = 5 * time.Second

// Group is a contiguous, non-empty run of interactions that becomes one test case.
type Group struct {
	Interactions []schemas.Interaction
}

// Kind returns the most frequent interaction kind in the group. Ties go to
// the kind seen first.
func (g Group) Kind() schemas.InteractionKind {
	counts := make(map[schemas.InteractionKind]int)
	var best schemas.InteractionKind
	for _, in := range g.Interactions {
		k := in.Kind()
		counts[k]++
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// FirstText returns the first non-empty captured element text, if any.
func (g Group) FirstText() string {
	for _, in := range g.Interactions {
		if t := in.Text(); t != "" {
			return t
		}
	}
	return ""
}

// Segmenter splits an ordered interaction stream into groups in a single pass.
type Segmenter struct {
	// GapThreshold starts a new group when the delta to the previous
	// interaction is strictly greater than it.
	GapThreshold time.Duration
	// SplitOnKindChange starts a new group whenever the kind changes.
	SplitOnKindChange bool
}

// New builds a Segmenter from configuration.
func New(cfg config.SegmentationConfig) Segmenter {
	return Segmenter{GapThreshold: cfg.GapThreshold, SplitOnKindChange: cfg.SplitOnKindChange}
}

// Default returns the segmenter with the stock heuristics.
func Default() Segmenter {
	return Segmenter{GapThreshold: DefaultGapThreshold, SplitOnKindChange: true}
}

// Segment partitions interactions into contiguous groups. The concatenation
// of the returned groups equals the input. An empty input yields no groups.
func (s Segmenter) Segment(interactions []schemas.Interaction) []Group {
	var groups []Group
	gap := s.GapThreshold.Milliseconds()

	for i, in := range interactions {
		if i == 0 || s.breaksBetween(interactions[i-1], in, gap) {
			groups = append(groups, Group{})
		}
		last := &groups[len(groups)-1]
		last.Interactions = append(last.Interactions, in)
	}
	return groups
}

func (s Segmenter) breaksBetween(prev, next schemas.Interaction, gapMillis int64) bool {
	if s.SplitOnKindChange && prev.Kind() != next.Kind() {
		return true
	}
	return next.Timestamp-prev.Timestamp > gapMillis
}
