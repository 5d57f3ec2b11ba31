package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openchami/fleet-parity/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const usage = "expected 'check', 'serve', 'schemas' or 'validate' subcommands"

// Exit codes of the check subcommand.
const (
	exitOK         = 0
	exitViolations = 1
	exitError      = 2
)

// commonFlags are shared by the subcommands that read puppet data. A flag
// overrides the config file only when it is set on the command line.
type commonFlags struct {
	fs         *pflag.FlagSet
	configPath string
	puppetData string
	logLevel   string
	logFormat  string
	extended   bool
	backend    string
	duckdbPath string
	exportDir  string
	journalDir string
}

func newCommonFlags(name string, stderr io.Writer) *commonFlags {
	c := &commonFlags{fs: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	c.fs.SetOutput(stderr)
	c.fs.StringVarP(&c.configPath, "config", "c", "", "path to the fleet-parity YAML config")
	c.fs.StringVar(&c.puppetData, "puppet-data", "", "puppet_data checkout to read")
	c.fs.StringVar(&c.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	c.fs.StringVar(&c.logFormat, "log-format", "", "log format (console, json)")
	c.fs.BoolVar(&c.extended, "extended", false, "also run the extended parity rules")
	c.fs.StringVar(&c.backend, "storage", "", "host storage backend (memory, duckdb)")
	c.fs.StringVar(&c.duckdbPath, "duckdb-path", "", "DuckDB database file, empty for in memory")
	c.fs.StringVar(&c.exportDir, "export-dir", "", "directory for parquet exports of the DuckDB database")
	c.fs.StringVar(&c.journalDir, "journal-dir", "", "directory for the findings journal")
	return c
}

// load reads the config file and applies the flags that were set.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.fs.Changed("puppet-data") {
		cfg.PuppetData = c.puppetData
	}
	if c.fs.Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}
	if c.fs.Changed("log-format") {
		cfg.Logging.Format = c.logFormat
	}
	if c.fs.Changed("extended") {
		cfg.Checks.Extended = c.extended
	}
	if c.fs.Changed("storage") {
		cfg.Storage.Backend = c.backend
	}
	if c.fs.Changed("duckdb-path") {
		cfg.Storage.DuckDBPath = c.duckdbPath
	}
	if c.fs.Changed("export-dir") {
		cfg.Storage.ExportDir = c.exportDir
	}
	if c.fs.Changed("journal-dir") {
		cfg.Journal.Dir = c.journalDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig, w io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	}
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage)
		return exitError
	}

	var err error
	code := exitOK
	switch args[0] {
	case "check":
		code, err = runCheck(args[1:], stdout, stderr)
	case "serve":
		err = runServe(args[1:], stderr)
	case "schemas":
		err = runSchemas(args[1:], stdout, stderr)
	case "validate":
		code, err = runValidate(args[1:], stdout, stderr)
	default:
		fmt.Fprintln(stderr, usage)
		return exitError
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return exitError
	}
	return code
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
