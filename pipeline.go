package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openchami/fleet-parity/internal/config"
	"github.com/openchami/fleet-parity/internal/puppetdata"
	"github.com/openchami/fleet-parity/internal/storage"
	"github.com/openchami/fleet-parity/internal/storage/duckdb"
	"github.com/openchami/fleet-parity/internal/storage/memory"
	"github.com/openchami/fleet-parity/pkg/fleet"
	"github.com/openchami/fleet-parity/pkg/journal"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/openchami/fleet-parity/pkg/parity"
	"github.com/openchami/fleet-parity/pkg/report"
	"github.com/rs/zerolog/log"
)

// pipeline reads the puppet data tree, builds the fleet, checks it and
// publishes the run to storage and the journal.
type pipeline struct {
	cfg     *config.Config
	storage storage.HostStorage
	journal *journal.Journal
}

func (p *pipeline) Run(ctx context.Context) (report.FleetExport, error) {
	start := time.Now()
	tree, err := puppetdata.Open(p.cfg.PuppetData,
		puppetdata.WithSites(p.cfg.Sites),
		puppetdata.WithVirtualChassis(p.cfg.VirtualChassis))
	if err != nil {
		return report.FleetExport{}, err
	}
	docs, err := tree.Documents()
	if err != nil {
		return report.FleetExport{}, err
	}
	if err := ctx.Err(); err != nil {
		return report.FleetExport{}, err
	}

	hosts, issues := fleet.NewBuilder(tree, tree, tree, fleet.WithOSTemplates(osTemplates(p.cfg))).Build(docs)

	var opts []parity.Option
	if p.cfg.Checks.Extended {
		opts = append(opts, parity.WithExtendedRules())
	}
	result := parity.NewChecker(opts...).Run(hosts)

	runID := uuid.NewString()
	if err := storage.ReplaceFleet(p.storage, hosts); err != nil {
		return report.FleetExport{}, fmt.Errorf("store fleet: %w", err)
	}
	if p.journal != nil {
		p.journal.RecordRun(runID, hosts.Len(), issues, result)
	}

	log.Info().
		Str("run_id", runID).
		Int("hosts", hosts.Len()).
		Int("issues", len(issues.Issues)).
		Int("violations", len(result.Violations)).
		Int("skipped", len(result.Skipped)).
		Dur("duration", time.Since(start)).
		Msg("Parity check complete")

	return report.New(runID, hosts, issues, result), nil
}

// osTemplates is the built-in template table with the configured entries on
// top.
func osTemplates(cfg *config.Config) map[string]nodes.OSVersion {
	templates := make(map[string]nodes.OSVersion, len(fleet.DefaultOSTemplates)+len(cfg.OSTemplates))
	for name, version := range fleet.DefaultOSTemplates {
		templates[name] = version
	}
	for name, version := range cfg.OSTemplates {
		templates[name] = nodes.OSVersion(version)
	}
	return templates
}

// hostStore is the configured HostStorage. db is set for the duckdb backend.
type hostStore struct {
	storage.HostStorage
	db *duckdb.DuckDBStorage
}

// openStorage opens the configured backend. With snapshots set the DuckDB
// backend exports periodically and on Shutdown.
func openStorage(cfg *config.Config, snapshots bool) (*hostStore, error) {
	if cfg.Storage.Backend != "duckdb" {
		return &hostStore{HostStorage: memory.NewInMemoryStorage()}, nil
	}

	var opts []duckdb.DuckDBStorageOption
	if snapshots && cfg.Storage.ExportDir != "" {
		opts = append(opts,
			duckdb.WithSnapshotPath(cfg.Storage.ExportDir),
			duckdb.WithCreateSnapshotDir(true),
			duckdb.WithSnapshotFrequency(cfg.Storage.SnapshotInterval))
		if cfg.Storage.Restore {
			opts = append(opts, duckdb.WithRestore(cfg.Storage.ExportDir))
		}
	}
	db, err := duckdb.NewDuckDBStorage(cfg.Storage.DuckDBPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("open duckdb storage: %w", err)
	}
	return &hostStore{HostStorage: db, db: db}, nil
}

func (s *hostStore) close(ctx context.Context, snapshots bool) {
	if s.db == nil {
		return
	}
	if snapshots {
		s.db.Shutdown(ctx)
		return
	}
	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}
}

func openJournal(cfg *config.Config) (*journal.Journal, error) {
	if cfg.Journal.Dir == "" {
		return nil, nil
	}
	j, err := journal.New(journal.Config{
		BaseDir:       cfg.Journal.Dir,
		DuckDBPath:    cfg.Journal.DuckDBPath,
		FlushInterval: cfg.Journal.FlushInterval,
		RetainInDB:    cfg.Journal.Retain,
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}
