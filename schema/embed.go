// Package schema provides embedded JSON schemas for automatest configuration
// files and runner reports.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
