package media

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ReferenceFunc returns the set of media URLs still used by some note.
type ReferenceFunc func(ctx context.Context) (map[string]struct{}, error)

// StartOrphanSweeper removes files from store that no note references and
// that are older than retention, once per interval, until ctx is done.
// A non-positive interval disables it.
func StartOrphanSweeper(
	ctx context.Context,
	store *Store,
	refs ReferenceFunc,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := SweepOrphans(ctx, store, refs, retention)
				if err != nil {
					log.Error("failed to sweep orphaned media", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("swept orphaned media", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// SweepOrphans performs one pass of StartOrphanSweeper and reports how many
// files it deleted.
func SweepOrphans(ctx context.Context, store *Store, refs ReferenceFunc, retention time.Duration) (int, error) {
	used, err := refs(ctx)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(store.dir)
	if err != nil {
		return 0, err
	}

	cutoff := store.now().Add(-retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := used[URLPrefix+e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(store.dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
