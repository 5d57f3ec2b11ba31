package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/xeipuuv/gojsonschema"
)

const validationDraft = "http://json-schema.org/draft-07/schema#"

// Schemas returns the reflected schema of every exported document type,
// keyed by file name.
func Schemas() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"HostRecord.json":       jsonschema.Reflect(&nodes.HostRecord{}),
		"NetworkInterface.json": jsonschema.Reflect(&nodes.NetworkInterface{}),
		"FleetExport.json":      jsonschema.Reflect(&FleetExport{}),
	}
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document does not match the FleetExport schema: %s", strings.Join(e.Problems, "; "))
}

// Validate checks a JSON document against the FleetExport schema. A
// mismatch is returned as *ValidationError.
func Validate(document []byte) error {
	schema := jsonschema.Reflect(&FleetExport{})
	// gojsonschema validates up to draft 7; the reflected keywords are the
	// same. Without $id the $defs references resolve inside this document.
	schema.Version = validationDraft
	schema.ID = ""
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(raw), gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Problems = append(verr.Problems, desc.String())
	}
	return verr
}
