package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog/log"
)

type DuckDBStorage struct {
	db                *sql.DB
	snapshotFrequency time.Duration
	snapshotPath      string
	restoreFirst      bool
	wg                sync.WaitGroup
	cancelSnapshot    context.CancelFunc
}

// NewDuckDBStorage opens the database at path. An empty path is an in-memory
// database.
func NewDuckDBStorage(path string, options ...DuckDBStorageOption) (*DuckDBStorage, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	d := &DuckDBStorage{
		db:             db,
		cancelSnapshot: func() {},
	}

	for _, option := range options {
		err := option.apply(d)
		if err != nil {
			log.Warn().Err(err).Msg("Error applying DuckDBStorage option")
		}
	}

	if err := d.loadExtensions(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load extensions: %w", err)
	}

	if d.restoreFirst {
		if err := d.restore(d.snapshotPath); err != nil {
			log.Warn().Err(err).Str("path", d.snapshotPath).Msg("Starting without a restored snapshot")
		}
	}

	if err := d.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}

	if d.snapshotFrequency > 0 && d.snapshotPath != "" {
		ctx, cancel := context.WithCancel(context.Background())
		d.cancelSnapshot = cancel
		d.wg.Add(1)
		go d.snapshotRoutine(ctx)
	}

	return d, nil
}

func (d *DuckDBStorage) initTables() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS host_seq START 1`,
		`CREATE TABLE IF NOT EXISTS hosts (
			hostname TEXT PRIMARY KEY,
			seq BIGINT DEFAULT nextval('host_seq'),
			added TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			location TEXT,
			chassis TEXT,
			os_version TEXT,
			bmc_address TEXT,
			is_vm BOOLEAN,
			ipv4_address TEXT,
			ipv6_address TEXT,
			data TEXT)`,
		`CREATE TABLE IF NOT EXISTS host_macs (hostname TEXT, mac_address TEXT)`,
	}
	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (d *DuckDBStorage) Close() error {
	return d.db.Close()
}

// parquet ships with the go-duckdb build, so LOAD needs no network access.
// Records are stored as JSON text and need no json extension.
func (d *DuckDBStorage) loadExtensions() error {
	_, err := d.db.Exec("LOAD parquet")
	if err != nil {
		log.Error().Err(err).Msg("Failed to load DuckDB extensions")
	}
	return err
}

// Shutdown takes a final snapshot when a snapshot path is set, stops the
// snapshot routine and closes the database.
func (d *DuckDBStorage) Shutdown(ctx context.Context) {
	if d.snapshotPath != "" {
		log.Info().Msg("Taking final snapshot before shutdown")
		if _, err := d.SnapshotParquet(ctx, d.snapshotPath); err != nil {
			log.Error().Err(err).Msg("Error taking final snapshot")
		}
	}

	log.Info().Msg("Stopping snapshot routine")
	d.cancelSnapshot()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("All goroutines finished cleanly")
	case <-ctx.Done():
		log.Warn().Msg("Timeout waiting for goroutines to finish")
	}

	log.Info().Msg("Closing database connection")
	if err := d.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}

	log.Info().Msg("DuckDB Shutdown complete")
}
