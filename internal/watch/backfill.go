package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// BackfillSummary captures backfill execution metrics.
type BackfillSummary struct {
	TotalCandidates     int `json:"total"`
	SelectedForBackfill int `json:"selected"`
	EnqueueSucceeded    int `json:"enqueued"`
	EnqueueSkipped      int `json:"skipped"`
}

type candidate struct {
	path    string
	modTime time.Time
}

// Backfill enqueues audio already sitting in the inbox, oldest first so notes
// are created in recording order. limit <= 0 means no limit.
func (w *Watcher) Backfill(ctx context.Context, limit int) (BackfillSummary, error) {
	var summary BackfillSummary
	if !w.cfg.Enabled {
		return summary, nil
	}
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return summary, err
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !isAudio(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(w.cfg.Dir, e.Name()), modTime: info.ModTime()})
	}
	selected, summary := selectPending(candidates, limit)

	for _, c := range selected {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}
		if w.enqueue(ctx, c.path, "backfill") {
			summary.EnqueueSucceeded++
		} else {
			summary.EnqueueSkipped++
		}
	}
	log.Info().
		Int("total", summary.TotalCandidates).
		Int("selected", summary.SelectedForBackfill).
		Int("enqueued", summary.EnqueueSucceeded).
		Int("skipped", summary.EnqueueSkipped).
		Msg("inbox backfill")
	return summary, nil
}

func selectPending(candidates []candidate, limit int) ([]candidate, BackfillSummary) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].modTime.Before(candidates[j].modTime)
	})
	summary := BackfillSummary{TotalCandidates: len(candidates)}
	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}
	summary.SelectedForBackfill = len(candidates)
	return candidates, summary
}
