package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/openchami/fleet-parity/pkg/fleet"
	"github.com/openchami/fleet-parity/pkg/parity"
	"github.com/sirupsen/logrus"
)

const (
	EventIssue     = "issue"
	EventViolation = "violation"
	EventRun       = "run"
)

const defaultFlushInterval = time.Hour

type Config struct {
	// BaseDir receives year=/month=/day=/hour= partitioned part files.
	BaseDir string
	// DuckDBPath is the events database. Empty means in memory.
	DuckDBPath        string
	FlushInterval     time.Duration
	RetainInDB        bool
	PopulateFromFiles bool
	Output            io.Writer
}

// Event is one line of a part file.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	RunID     string                 `json:"run_id"`
	EventType string                 `json:"event_type"`
	EventData map[string]interface{} `json:"event_data"`
}

// Journal records the issues and violations of each run as structured log
// lines and as rows in a DuckDB events table, and writes the table out to
// partitioned JSON files.
type Journal struct {
	db     *sql.DB
	log    *logrus.Logger
	config Config

	// mu serializes inserts with Flush so a flush marks only the rows it
	// wrote.
	mu           sync.Mutex
	shutdownChan chan struct{}
	done         chan struct{}
}

func New(config Config) (*Journal, error) {
	db, err := sql.Open("duckdb", config.DuckDBPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS events (
		timestamp TIMESTAMP,
		run_id TEXT,
		event_type TEXT,
		event_data TEXT,
		flushed BOOLEAN DEFAULT false
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	if config.FlushInterval <= 0 {
		config.FlushInterval = defaultFlushInterval
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(config.Output)

	j := &Journal{
		db:     db,
		log:    log,
		config: config,
	}

	if config.PopulateFromFiles {
		if err := j.populateDBFromFiles(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return j, nil
}

// LogEvent writes one event to the log output and the events table.
func (j *Journal) LogEvent(runID, eventType string, eventData map[string]interface{}) {
	timestamp := time.Now().UTC()

	j.log.WithFields(logrus.Fields{
		"event":      eventType,
		"run_id":     runID,
		"event_data": eventData,
	}).Info("Event logged")

	if err := j.insert(Event{Timestamp: timestamp, RunID: runID, EventType: eventType, EventData: eventData}, false); err != nil {
		j.log.WithError(err).Error("Failed to insert event into DuckDB")
	}
}

func (j *Journal) insert(e Event, flushed bool) error {
	data, err := json.Marshal(e.EventData)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.Exec(`INSERT INTO events (timestamp, run_id, event_type, event_data, flushed) VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp, e.RunID, e.EventType, string(data), flushed)
	return err
}

// RecordRun logs every issue and violation of a run followed by a run
// summary event.
func (j *Journal) RecordRun(runID string, hosts int, report fleet.Report, result parity.Result) {
	for _, issue := range report.Issues {
		j.LogEvent(runID, EventIssue, map[string]interface{}{
			"kind":    string(issue.Kind),
			"host":    issue.Host,
			"source":  issue.Source,
			"message": issue.Message,
		})
	}
	for _, v := range result.Violations {
		j.LogEvent(runID, EventViolation, map[string]interface{}{
			"rule":      string(v.Rule),
			"host":      v.Host,
			"interface": v.Interface,
			"message":   v.Message,
		})
	}
	j.LogEvent(runID, EventRun, map[string]interface{}{
		"hosts":      hosts,
		"issues":     len(report.Issues),
		"violations": len(result.Violations),
		"skipped":    len(result.Skipped),
	})
}

// Events returns the events of a run in insertion order. An empty runID
// returns every event.
func (j *Journal) Events(runID string) ([]Event, error) {
	query := `SELECT timestamp, run_id, event_type, event_data FROM events`
	var args []interface{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY rowid`

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Timestamp, &e.RunID, &e.EventType, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &e.EventData); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Flush appends every unflushed event to its hourly part file. Flushed events
// are deleted from the table unless RetainInDB is set.
func (j *Journal) Flush(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.config.BaseDir == "" {
		return nil
	}

	rows, err := j.db.QueryContext(ctx, `SELECT timestamp, run_id, event_type, event_data FROM events WHERE NOT flushed ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}

	eventFiles := make(map[string]*os.File)
	defer func() {
		for _, file := range eventFiles {
			file.Close()
		}
	}()

	var writeErr error
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Timestamp, &e.RunID, &e.EventType, &data); err != nil {
			rows.Close()
			return fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.EventData); err != nil {
			rows.Close()
			return fmt.Errorf("decode event data: %w", err)
		}

		file, err := j.partFile(eventFiles, e.Timestamp)
		if err != nil {
			writeErr = err
			break
		}
		line, err := json.Marshal(e)
		if err != nil {
			writeErr = err
			break
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			writeErr = err
			break
		}
	}
	rows.Close()
	if writeErr != nil {
		return fmt.Errorf("write events: %w", writeErr)
	}

	if j.config.RetainInDB {
		_, err = j.db.ExecContext(ctx, `UPDATE events SET flushed = true WHERE NOT flushed`)
	} else {
		_, err = j.db.ExecContext(ctx, `DELETE FROM events WHERE NOT flushed`)
	}
	if err != nil {
		return fmt.Errorf("mark events flushed: %w", err)
	}
	return nil
}

func (j *Journal) partFile(open map[string]*os.File, t time.Time) (*os.File, error) {
	dir := filepath.Join(j.config.BaseDir,
		fmt.Sprintf("year=%d", t.Year()),
		fmt.Sprintf("month=%02d", t.Month()),
		fmt.Sprintf("day=%02d", t.Day()),
		fmt.Sprintf("hour=%02d", t.Hour()))
	path := filepath.Join(dir, "part-00000.json")
	if file, ok := open[path]; ok {
		return file, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	open[path] = file
	return file, nil
}

func (j *Journal) populateDBFromFiles() error {
	files, err := filepath.Glob(filepath.Join(j.config.BaseDir, "*", "*", "*", "*", "part-*.json"))
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := j.loadFileIntoDB(file); err != nil {
			j.log.WithError(err).Errorf("Failed to load file %s into DuckDB", file)
		}
	}
	return nil
}

func (j *Journal) loadFileIntoDB(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	for decoder.More() {
		var e Event
		if err := decoder.Decode(&e); err != nil {
			return err
		}
		if err := j.insert(e, true); err != nil {
			return err
		}
	}
	return nil
}

// StartPeriodicFlush flushes every FlushInterval until Stop.
func (j *Journal) StartPeriodicFlush() {
	j.shutdownChan = make(chan struct{})
	j.done = make(chan struct{})
	ticker := time.NewTicker(j.config.FlushInterval)
	go func() {
		defer close(j.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := j.Flush(context.Background()); err != nil {
					j.log.WithError(err).Error("Periodic flush failed")
				}
			case <-j.shutdownChan:
				return
			}
		}
	}()
}

// Stop ends the periodic flush, flushes once more and closes the database.
func (j *Journal) Stop(ctx context.Context) error {
	if j.shutdownChan != nil {
		close(j.shutdownChan)
		<-j.done
		j.shutdownChan = nil
	}
	if err := j.Flush(ctx); err != nil {
		j.db.Close()
		return err
	}
	return j.db.Close()
}
