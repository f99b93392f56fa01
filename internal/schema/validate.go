// Package schema provides JSON schema validation for automatest configuration
// files and shape detection for runner reports.
package schema

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/automatest/schema"
)

var (
	configSchema   *jsonschema.Schema
	reportV2Schema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		for _, name := range []string{"config.schema.json", "report-v2.schema.json"} {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		var err error
		configSchema, err = compiler.Compile("config.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile config schema: %w", err)
			return
		}

		reportV2Schema, err = compiler.Compile("report-v2.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile report schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateConfig validates a decoded configuration document (as produced by
// yaml.v3 or encoding/json unmarshalling into any) against the config schema.
func ValidateConfig(v any) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	if err := configSchema.Validate(v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// IsReportV2 reports whether a decoded report document has the
// summary/executions shape. Any document that does not is treated as the
// stats/assertions generation.
func IsReportV2(v any) bool {
	if err := compileSchemas(); err != nil {
		return false
	}
	return reportV2Schema.Validate(v) == nil
}
