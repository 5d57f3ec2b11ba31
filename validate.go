package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/openchami/fleet-parity/pkg/report"
	"github.com/spf13/pflag"
)

// runValidate checks a JSON export. A document that does not match the
// schema prints its problems and exits 1.
func runValidate(args []string, stdout, stderr io.Writer) (int, error) {
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return exitError, err
	}
	if fs.NArg() != 1 {
		return exitError, errors.New("expected exactly one file to validate")
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return exitError, err
	}

	err = report.Validate(data)
	var verr *report.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(stdout, "%s is not a valid fleet export:\n", path)
		for _, problem := range verr.Problems {
			fmt.Fprintf(stdout, "  %s\n", problem)
		}
		return exitViolations, nil
	}
	if err != nil {
		return exitError, err
	}
	fmt.Fprintf(stdout, "%s is a valid fleet export\n", path)
	return exitOK, nil
}
