package bootstrap

import (
	"context"
	"time"

	"github.com/angelmondragon/la-reminders/internal/dispatch"
	"github.com/angelmondragon/la-reminders/internal/documents"
	"github.com/angelmondragon/la-reminders/internal/notifications"
	"github.com/angelmondragon/la-reminders/internal/reminders"
	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/angelmondragon/la-reminders/pkg/db"
	"github.com/angelmondragon/la-reminders/pkg/logger"
	"github.com/angelmondragon/la-reminders/pkg/metrics"
	"github.com/angelmondragon/la-reminders/pkg/migrate"
	pkgmongo "github.com/angelmondragon/la-reminders/pkg/mongo"
	"github.com/angelmondragon/la-reminders/pkg/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const closeTimeout = 5 * time.Second

// Stack holds every long-lived dependency a binary needs.
type Stack struct {
	DB          *db.Client
	Mongo       *pkgmongo.Client
	Documents   documents.Repository
	Reminders   reminders.Repository
	Dispatcher  *dispatch.Dispatcher
	Tasks       *tasks.Runner
	Consistency *metrics.ConsistencyMetrics
	Service     notifications.Service
}

// Open connects both stores, applies migrations when enabled and wires the
// notifications coordinator on top of them.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer) (*Stack, error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	mongoClient, err := pkgmongo.New(ctx, cfg.Mongo, logg)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}
	if err := mongoClient.EnsureSchema(ctx); err != nil {
		_ = mongoClient.Close(ctx, closeTimeout)
		_ = dbClient.Close()
		return nil, err
	}

	st := &Stack{
		DB:          dbClient,
		Mongo:       mongoClient,
		Documents:   documents.NewRepository(mongoClient.Collection(), cfg.Store.Timeout),
		Reminders:   reminders.NewRepository(dbClient.DB(), cfg.Store.Timeout),
		Tasks:       tasks.NewRunner(logg, cfg.Dispatch.TaskTimeout),
		Consistency: metrics.NewConsistencyMetrics(reg),
	}
	st.Dispatcher = dispatch.New(dispatch.NewCommandExecutor(cfg.Dispatch.CommandTimeout, logg), cfg.Dispatch, cfg.App.Name, logg)

	st.Service, err = notifications.NewService(st.Documents, st.Reminders, notifications.Options{
		Logger:   logg,
		Tasks:    st.Tasks,
		Notifier: st.Dispatcher,
		Metrics:  st.Consistency,
	})
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	return st, nil
}

// Close waits for background notifications and then disconnects the stores.
func (s *Stack) Close(ctx context.Context) error {
	var errs error
	if s.Tasks != nil {
		errs = multierr.Append(errs, s.Tasks.Wait(ctx))
	}
	if s.Mongo != nil {
		errs = multierr.Append(errs, s.Mongo.Close(ctx, closeTimeout))
	}
	if s.DB != nil {
		errs = multierr.Append(errs, s.DB.Close())
	}
	return errs
}
