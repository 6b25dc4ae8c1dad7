// Package analytics orchestrates cross-entity analytic operations. The
// scoring algorithm itself is a capability resolved once at startup; the
// orchestrator only assembles normalized snapshots, delegates, and
// post-processes (sort, truncate) the result.
package analytics

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/sevaops/bskdash/dataset"
	"github.com/sevaops/bskdash/errors"
)

// ErrUnavailable indicates no scorer capability was configured at startup.
var ErrUnavailable = errors.New("analytics unavailable: no scorer configured")

// CenterScore is one scored training center. Lower scores mean worse
// performance, so ascending order lists underperformers first.
type CenterScore struct {
	BSKCode    string  `json:"bsk_code"`
	BSKName    string  `json:"bsk_name"`
	District   string  `json:"district"`
	Score      float64 `json:"score"`
	Provisions int     `json:"provisions"`
	Completed  int     `json:"completed"`
}

// Scorer scores every training center from a full normalized snapshot.
type Scorer interface {
	ScoreCenters(ctx context.Context, snap *dataset.Snapshot) ([]CenterScore, error)
}

// SortOrder selects result ordering by score.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ParseSortOrder validates a sort_order query value. Empty means ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", string(SortAscending):
		return SortAscending, nil
	case string(SortDescending):
		return SortDescending, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidRequest, "sort_order must be asc or desc, got %q", s)
	}
}

// Orchestrator wires the dataset cache to the scorer capability.
type Orchestrator struct {
	cache  *dataset.Cache
	scorer Scorer // nil when analytics is unavailable
	logger *zap.SugaredLogger
}

// NewOrchestrator creates an orchestrator. A nil scorer is allowed and puts
// the orchestrator into an explicit "analytics unavailable" state instead of
// silently swapping in a stub.
func NewOrchestrator(cache *dataset.Cache, scorer Scorer, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{cache: cache, scorer: scorer, logger: logger}
}

// Available reports whether a scorer capability is configured.
func (o *Orchestrator) Available() bool {
	return o.scorer != nil
}

// RankUnderperforming returns up to count scored centers ordered by score.
// Ties keep the scorer's relative order. Scorer failure surfaces as an
// orchestration failure with the underlying message, never a silent empty
// result.
func (o *Orchestrator) RankUnderperforming(ctx context.Context, count int, order SortOrder) ([]CenterScore, error) {
	if o.scorer == nil {
		return nil, ErrUnavailable
	}

	snap, err := o.cache.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "rank underperforming bsks: no dataset")
	}

	scores, err := o.scorer.ScoreCenters(ctx, snap)
	if err != nil {
		o.logger.Errorw("Scoring failed",
			"operation", "underperforming_bsks",
			"error", err)
		return nil, errors.Wrap(err, "rank underperforming bsks: scoring failed")
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if order == SortDescending {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Score < scores[j].Score
	})

	if count >= 0 && count < len(scores) {
		scores = scores[:count]
	}
	return scores, nil
}
