package testparser

import (
	"sort"
	"strings"
)

// Registry maps runner identifiers to their transcript parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry with all built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	// Postman CLI and newman share the same "cli" reporter format.
	postmanParser := &PostmanParser{}

	r.parsers["postman"] = postmanParser
	r.parsers["postman-cli"] = postmanParser
	r.parsers["newman"] = postmanParser

	return r
}

// GetParser returns a parser for the given runner identifier.
// Returns nil if no parser is found.
func (r *Registry) GetParser(runner string) Parser {
	return r.parsers[strings.ToLower(strings.TrimSpace(runner))]
}

// Runners returns the registered runner identifiers in sorted order.
func (r *Registry) Runners() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
