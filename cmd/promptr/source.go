package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/catalog/natskv"
	"github.com/mark3labs/promptr/internal/catalog/pgstore"
	"github.com/mark3labs/promptr/internal/config"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/nats"
	"github.com/mark3labs/promptr/internal/resolver"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// catalogSource is a Source that can also enumerate its records.
type catalogSource interface {
	catalog.Source
	catalog.Lister
}

// backend is an opened catalog store.
type backend struct {
	src   catalogSource
	mem   *catalog.Memory // set for the file store, which supports reload
	close func() error
}

// engine builds a resolver over the backend with the configured depth.
func (b *backend) engine(cfg *config.Config) *resolver.Engine {
	return resolver.New(b.src, resolver.WithMaxDepth(cfg.MaxDepth))
}

// openBackend opens the store selected by cfg.Store.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store {
	case config.StoreFile:
		mem, err := catalog.FromFile(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		logger.Debug("Loaded catalog %s", cfg.Catalog)
		return &backend{src: mem, mem: mem, close: func() error { return nil }}, nil

	case config.StoreNATS:
		kv, closeFn, err := openBucket(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{src: natskv.New(kv), close: closeFn}, nil

	case config.StorePostgres:
		pool, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{src: pgstore.New(pool), close: func() error { pool.Close(); return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// openBucket connects to NATS, embedded under data_dir unless nats_url is
// set, and opens the catalog bucket.
func openBucket(ctx context.Context, cfg *config.Config) (kv jetstream.KeyValue, closeFn func() error, err error) {
	var ns *server.Server
	var nc *natsgo.Conn
	if cfg.NATSURL == "" {
		ns, err = nats.StartEmbeddedNATS(filepath.Join(cfg.DataDir, "nats"))
		if err != nil {
			return nil, nil, err
		}
		nc, err = nats.ConnectInProcess(ns)
	} else {
		nc, err = nats.Connect(cfg.NATSURL)
	}
	if err != nil {
		_ = nats.Shutdown(nil, ns)
		return nil, nil, err
	}
	closeFn = func() error { return nats.Shutdown(nc, ns) }

	js, err := nats.CreateJetStream(nc)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	kv, err = nats.SetupCatalogBucket(ctx, js)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return kv, closeFn, nil
}

// openPostgres connects and applies pending migrations.
func openPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgstore.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pgstore.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
