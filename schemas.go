package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/openchami/fleet-parity/pkg/report"
	"github.com/spf13/pflag"
)

func runSchemas(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("schemas", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	schemaPath := fs.String("dir", "schemas/", "directory to store JSON schemas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return generateAndWriteSchemas(*schemaPath, stdout)
}

func generateAndWriteSchemas(path string, stdout io.Writer) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create schema directory: %w", err)
	}

	schemas := report.Schemas()
	filenames := make([]string, 0, len(schemas))
	for filename := range schemas {
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)

	for _, filename := range filenames {
		data, err := json.MarshalIndent(schemas[filename], "", "  ")
		if err != nil {
			return fmt.Errorf("failed to generate JSON schema for %v: %w", filename, err)
		}
		fullpath := filepath.Join(path, filename)
		if err := os.WriteFile(fullpath, data, 0644); err != nil {
			return fmt.Errorf("failed to write JSON schema to file %v: %w", fullpath, err)
		}
		fmt.Fprintf(stdout, "Schema written to %s\n", fullpath)
	}
	return nil
}
