package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ems-codex/brand-sentiment/internal/keywords"
	"github.com/ems-codex/brand-sentiment/internal/model"
	"github.com/ems-codex/brand-sentiment/internal/pipeline"
	"github.com/ems-codex/brand-sentiment/internal/store"
)

// newStore opens the configured warehouse driver with the DSN resolved from
// its secret source.
func newStore(ctx context.Context) (store.Store, error) {
	dsn, source, err := cfg.Store.ResolveDSN()
	if err != nil {
		return nil, err
	}
	zap.L().Info("store: resolved DSN",
		zap.String("driver", cfg.Store.Driver), zap.String("source", string(source)))

	tables := store.Tables{Source: cfg.Store.SourceTable, Target: cfg.Store.TargetTable}
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, dsn, tables)
	case "sqlite":
		return store.NewSQLite(dsn, tables)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}

// newBucket mounts the keyword buckets under the configured root.
func newBucket() keywords.Bucket {
	fsys := afero.NewBasePathFs(afero.NewOsFs(), cfg.Buckets.Root)
	return keywords.NewFSBucket(fsys, cfg.Buckets.Context, cfg.Buckets.Negatives)
}

// newRunner wires a pipeline Runner for the given datasets; an empty filter
// selects every configured client.
func newRunner(ctx context.Context, datasets []string) (*pipeline.Runner, func(), error) {
	st, err := newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	clients, err := selectClients(cfg.Clients, datasets)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	runner := pipeline.NewRunner(st, newBucket(), clients)
	return runner, func() { _ = st.Close() }, nil
}

// selectClients filters the configured client scopes by dataset name.
func selectClients(all []model.ClientScope, datasets []string) ([]model.ClientScope, error) {
	if len(datasets) == 0 {
		return all, nil
	}

	byDataset := make(map[string]model.ClientScope, len(all))
	for _, c := range all {
		byDataset[c.Dataset] = c
	}

	selected := make([]model.ClientScope, 0, len(datasets))
	for _, ds := range datasets {
		c, ok := byDataset[ds]
		if !ok {
			return nil, eris.Errorf("no configured client for dataset %q", ds)
		}
		selected = append(selected, c)
	}
	return selected, nil
}
