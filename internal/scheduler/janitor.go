package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/recipe-finder/internal/imagestore"
	"go.uber.org/zap"
)

// ImageReferences lists the image URLs still held by recipes.
type ImageReferences interface {
	ReferencedImages(ctx context.Context) ([]string, error)
}

// SweepResult summarises one janitor pass.
type SweepResult struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Failed  int      `json:"failed"`
}

// Janitor collects stored images that no recipe references any more, such
// as those left behind when a best-effort release failed. Images younger
// than the grace period are skipped so an upload is never collected
// between being saved and its recipe row being written.
type Janitor struct {
	images imagestore.Store
	refs   ImageReferences
	grace  time.Duration
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

func NewJanitor(images imagestore.Store, refs ImageReferences, grace time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		images: images,
		refs:   refs,
		grace:  grace,
		logger: logger,
		now:    time.Now,
	}
}

// JanitorJobName identifies the image janitor in the scheduler.
const JanitorJobName = "image-janitor"

func (j *Janitor) Name() string { return JanitorJobName }

func (j *Janitor) Run(ctx context.Context) error {
	_, err := j.RunOnce(ctx)
	return err
}

// RunOnce performs a single sweep. Concurrent calls are serialised.
func (j *Janitor) RunOnce(ctx context.Context) (*SweepResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	referenced, err := j.refs.ReferencedImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load image references: %w", err)
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, url := range referenced {
		keep[url] = struct{}{}
	}

	objects, err := j.images.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(objects), Removed: []string{}}
	cutoff := j.now().Add(-j.grace)
	for _, obj := range objects {
		if _, ok := keep[obj.URL]; ok {
			continue
		}
		if obj.ModTime.After(cutoff) {
			continue
		}
		if err := j.images.Remove(ctx, obj.URL); err != nil {
			result.Failed++
			j.logger.Warn("failed to remove orphaned image", zap.String("url", obj.URL), zap.Error(err))
			continue
		}
		result.Removed = append(result.Removed, obj.URL)
	}

	if len(result.Removed) > 0 || result.Failed > 0 {
		j.logger.Info("image sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("removed", len(result.Removed)),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}
