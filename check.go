package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
)

func runCheck(args []string, stdout, stderr io.Writer) (int, error) {
	flags := newCommonFlags("check", stderr)
	output := flags.fs.StringP("output", "o", "text", "report format (text, json)")
	strict := flags.fs.Bool("strict", false, "exit 1 when any parity check fails")
	if err := flags.fs.Parse(args); err != nil {
		return exitError, err
	}
	if *output != "text" && *output != "json" {
		return exitError, fmt.Errorf("invalid output %q, should be 'text' or 'json'", *output)
	}

	cfg, err := flags.load()
	if err != nil {
		return exitError, err
	}
	if err := setupLogging(cfg.Logging, stderr); err != nil {
		return exitError, err
	}

	ctx := context.Background()
	store, err := openStorage(cfg, false)
	if err != nil {
		return exitError, err
	}
	defer store.close(ctx, false)

	j, err := openJournal(cfg)
	if err != nil {
		return exitError, err
	}

	p := &pipeline{cfg: cfg, storage: store, journal: j}
	export, err := p.Run(ctx)
	if j != nil {
		stopCtx, cancel := context.WithTimeout(ctx, time.Minute)
		if stopErr := j.Stop(stopCtx); stopErr != nil {
			log.Error().Err(stopErr).Msg("Error flushing journal")
		}
		cancel()
	}
	if err != nil {
		return exitError, err
	}

	if store.db != nil && cfg.Storage.ExportDir != "" {
		dir, err := store.db.SnapshotParquet(ctx, cfg.Storage.ExportDir)
		if err != nil {
			return exitError, fmt.Errorf("export: %w", err)
		}
		log.Info().Str("path", dir).Msg("Exported hosts as parquet")
	}

	if *output == "json" {
		err = export.WriteJSON(stdout)
	} else {
		err = export.WriteText(stdout)
	}
	if err != nil {
		return exitError, err
	}

	if *strict && export.Failed() {
		return exitViolations, nil
	}
	return exitOK, nil
}
