package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/partyload/internal/config"
)

// loadPool creates a pgxpool.Pool for relational loads and the load log.
func loadPool(ctx context.Context, lc config.LoadConfig) (*pgxpool.Pool, error) {
	if lc.DatabaseURL == "" {
		return nil, eris.New("load: no database_url configured (set load.database_url or PARTYLOAD_LOAD_DATABASE_URL)")
	}

	poolCfg, err := pgxpool.ParseConfig(lc.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "load: parse database url")
	}
	if lc.MaxConns > 0 {
		poolCfg.MaxConns = lc.MaxConns
	}
	if lc.MinConns > 0 {
		poolCfg.MinConns = lc.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "load: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "load: ping database")
	}

	zap.L().Debug("connected to database", zap.String("component", "cmd"), zap.Int32("max_conns", poolCfg.MaxConns))
	return pool, nil
}
