package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/la-reminders/pkg/logger"
	"github.com/angelmondragon/la-reminders/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultOrphanGrace = 10 * time.Minute

type OrphanSweepJobParams struct {
	Logger    *logger.Logger
	Documents documentSweeper
	Reminders refLister
	Metrics   *metrics.ConsistencyMetrics
	Grace     time.Duration
}

type documentSweeper interface {
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
	Delete(ctx context.Context, ids []string) (int64, error)
}

type refLister interface {
	DocumentRefs(ctx context.Context) ([]string, error)
}

// NewOrphanSweepJob removes notification documents that no reminder
// references. Documents younger than the grace period are left alone so an
// in-flight create is never swept.
func NewOrphanSweepJob(params OrphanSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Documents == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminders repository required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultOrphanGrace
	}
	return &orphanSweepJob{
		logg:    params.Logger,
		docs:    params.Documents,
		refs:    params.Reminders,
		metrics: params.Metrics,
		grace:   grace,
		now:     time.Now,
	}, nil
}

type orphanSweepJob struct {
	logg    *logger.Logger
	docs    documentSweeper
	refs    refLister
	metrics *metrics.ConsistencyMetrics
	grace   time.Duration
	now     func() time.Time
}

func (j *orphanSweepJob) Name() string { return "orphan-sweep" }

func (j *orphanSweepJob) Run(ctx context.Context) error {
	// Documents are listed before references so a reminder created in
	// between is always seen.
	ids, err := j.docs.ListIDs(ctx)
	if err != nil {
		return err
	}
	refs, err := j.refs.DocumentRefs(ctx)
	if err != nil {
		return err
	}

	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[strings.ToLower(ref)] = struct{}{}
	}
	cutoff := j.now().Add(-j.grace)

	var orphans []string
	for _, id := range ids {
		if _, ok := referenced[id.Hex()]; ok {
			continue
		}
		if id.Timestamp().After(cutoff) {
			continue
		}
		orphans = append(orphans, id.Hex())
	}
	if len(orphans) == 0 {
		return nil
	}

	deleted, err := j.docs.Delete(ctx, orphans)
	if err != nil {
		return err
	}
	j.metrics.AddOrphans(int(deleted))
	j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
		"orphans": orphans,
		"deleted": deleted,
	}), "orphan notifications removed")
	return nil
}
