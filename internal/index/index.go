// Package index groups reconciled collection summaries by project and
// environment for rendering, mailing and the run history.
package index

import (
	"sort"
	"sync"

	"github.com/AndreyAkinshin/automatest/internal/result"
)

// Exec describes the runner invocation that produced a summary.
type Exec struct {
	Command        []string `json:"command,omitempty"`
	ExitCode       int      `json:"exit_code"`
	ReportPath     string   `json:"report_path,omitempty"`
	TranscriptPath string   `json:"transcript_path,omitempty"`
}

// Entry is the reconciled outcome of one collection within an environment.
type Entry struct {
	Collection string         `json:"collection"`
	Summary    result.Summary `json:"summary"`
	Exec       Exec           `json:"exec"`
}

// Group is every entry recorded for one (project, environment) pair.
type Group struct {
	Project     string  `json:"project"`
	Environment string  `json:"environment"`
	Entries     []Entry `json:"entries"`
}

// Totals aggregates counts across entries.
type Totals struct {
	Collections       int `json:"collections"`
	FailedCollections int `json:"failed_collections"`
	Requests          int `json:"requests"`
	FailedRequests    int `json:"failed_requests"`
	Tests             int `json:"tests"`
	FailedTests       int `json:"failed_tests"`
}

// OK reports whether every collection passed.
func (t Totals) OK() bool {
	return t.Collections > 0 && t.FailedCollections == 0
}

// Index stores entries keyed by project then environment.
// It is safe for concurrent use.
type Index struct {
	mu      sync.Mutex
	entries map[string]map[string][]Entry
}

// New creates an empty index.
func New() *Index {
	return &Index{entries: make(map[string]map[string][]Entry)}
}

// FromGroups rebuilds an index from previously exported groups.
func FromGroups(groups []Group) *Index {
	idx := New()
	for _, g := range groups {
		for _, e := range g.Entries {
			idx.Add(g.Project, g.Environment, e)
		}
	}
	return idx
}

// Add records an entry. Collections keep their insertion order.
func (x *Index) Add(project, environment string, e Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	envs, ok := x.entries[project]
	if !ok {
		envs = make(map[string][]Entry)
		x.entries[project] = envs
	}
	envs[environment] = append(envs[environment], e)
}

// Groups returns a snapshot of the index sorted by project then environment.
func (x *Index) Groups() []Group {
	x.mu.Lock()
	defer x.mu.Unlock()

	var groups []Group
	for _, project := range sortedKeys(x.entries) {
		envs := x.entries[project]
		envNames := make([]string, 0, len(envs))
		for env := range envs {
			envNames = append(envNames, env)
		}
		sort.Strings(envNames)

		for _, env := range envNames {
			entries := make([]Entry, len(envs[env]))
			copy(entries, envs[env])
			groups = append(groups, Group{Project: project, Environment: env, Entries: entries})
		}
	}
	return groups
}

// Totals aggregates counts across all entries.
func (x *Index) Totals() Totals {
	var t Totals
	for _, g := range x.Groups() {
		for _, e := range g.Entries {
			t.Collections++
			if !e.Summary.OK {
				t.FailedCollections++
			}
			t.Requests += e.Summary.TotalRequests
			t.FailedRequests += e.Summary.FailedRequests
			t.Tests += e.Summary.TotalTests
			t.FailedTests += e.Summary.FailedTests
		}
	}
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
