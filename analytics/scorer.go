package analytics

import (
	"context"
	"strings"

	"github.com/sevaops/bskdash/dataset"
)

// CompletionScorer is the built-in scorer: a center's score is its provision
// completion rate damped by delivery volume relative to the network average,
// so a center with two perfect provisions does not outrank one with two
// hundred mostly-good ones. Centers without any provisions score zero.
//
// Provisions referencing a BSK code absent from the center master are an
// upstream inconsistency; they are counted toward nothing here but are not
// treated as fatal.
type CompletionScorer struct{}

// ScoreCenters implements Scorer.
func (CompletionScorer) ScoreCenters(_ context.Context, snap *dataset.Snapshot) ([]CenterScore, error) {
	type tally struct {
		total     int
		completed int
	}
	byCenter := make(map[string]*tally, len(snap.Centers))
	for _, c := range snap.Centers {
		byCenter[c.BSKCode] = &tally{}
	}

	for _, p := range snap.Provisions {
		t, ok := byCenter[p.BSKCode]
		if !ok {
			// Dangling center reference, surfaced by volume mismatch only.
			continue
		}
		t.total++
		if isCompleted(p.Status) {
			t.completed++
		}
	}

	meanVolume := 0.0
	if len(snap.Centers) > 0 {
		meanVolume = float64(len(snap.Provisions)) / float64(len(snap.Centers))
	}

	scores := make([]CenterScore, 0, len(snap.Centers))
	for _, c := range snap.Centers {
		t := byCenter[c.BSKCode]
		score := 0.0
		if t.total > 0 {
			rate := float64(t.completed) / float64(t.total)
			volumeWeight := float64(t.total) / (float64(t.total) + meanVolume)
			score = rate * volumeWeight
		}
		scores = append(scores, CenterScore{
			BSKCode:    c.BSKCode,
			BSKName:    c.BSKName,
			District:   c.District,
			Score:      score,
			Provisions: t.total,
			Completed:  t.completed,
		})
	}
	return scores, nil
}

func isCompleted(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "complete", "success", "delivered":
		return true
	}
	return false
}
