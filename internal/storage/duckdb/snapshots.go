package duckdb

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const snapshotLayout = "2006-01-02T15-04-05"

func (d *DuckDBStorage) snapshotRoutine(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.snapshotFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Snapshot routine stopped")
			return
		case <-ticker.C:
			snapCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			if _, err := d.SnapshotParquet(snapCtx, d.snapshotPath); err != nil {
				log.Error().Err(err).Msg("Error taking snapshot")
			}
			cancel()
		}
	}
}

// SnapshotParquet exports the database as parquet into a new timestamped
// directory under path and returns that directory.
func (d *DuckDBStorage) SnapshotParquet(ctx context.Context, path string) (string, error) {
	dir := filepath.Join(path, time.Now().Format(snapshotLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	escaped := strings.ReplaceAll(dir, "'", "''")
	_, err := d.db.ExecContext(ctx, fmt.Sprintf(`EXPORT DATABASE '%s' (FORMAT PARQUET)`, escaped))
	if err != nil {
		log.Error().Err(err).Msg("Error exporting DuckDB database to Parquet format")
		return "", err
	}
	log.Info().Str("path", dir).Msg("SnapshotParquet")
	return dir, nil
}

// RestoreParquet runs the schema.sql and load.sql written by EXPORT DATABASE.
func (d *DuckDBStorage) RestoreParquet(path string) error {
	schemaFile := filepath.Join(path, "schema.sql")
	if err := d.executeSQLFile(schemaFile); err != nil {
		return fmt.Errorf("error executing schema.sql: %w", err)
	}
	log.Info().Str("file", schemaFile).Msg("Executed schema.sql")

	loadFile := filepath.Join(path, "load.sql")
	if err := d.executeSQLFile(loadFile); err != nil {
		return fmt.Errorf("error executing load.sql: %w", err)
	}
	log.Info().Str("file", loadFile).Msg("Executed load.sql")
	return nil
}

func (d *DuckDBStorage) executeSQLFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var sb strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		sb.WriteString(line)
		sb.WriteString("\n")
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			if _, err := d.db.Exec(sb.String()); err != nil {
				return err
			}
			sb.Reset()
		}
	}
	return scanner.Err()
}

func (d *DuckDBStorage) restore(path string) error {
	log.Info().Str("path", path).Msg("Restoring snapshot")
	snapshotDir, err := findMostRecentSnapshotDir(path)
	if err != nil {
		return err
	}
	return d.RestoreParquet(snapshotDir)
}

// findMostRecentSnapshotDir picks the directory with the greatest name, which
// is the newest because names are timestamps.
func findMostRecentSnapshotDir(path string) (string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	if len(dirs) == 0 {
		return "", fmt.Errorf("no snapshot directories found in %s", path)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return filepath.Join(path, dirs[0]), nil
}
