// Package report accumulates the outcome of one composition run: files
// written, variables substituted or missing, sections extracted, warnings
// and errors. A run succeeds iff the report holds no errors; the CLI exit
// code is derived from the report and nothing else.
package report

import (
	"encoding/json"
	"sort"
	"sync"
)

// Report is the mutable accumulator scoped to one run. It is safe for
// concurrent use: Phase 1 and Phase 2 workers append from multiple
// goroutines.
type Report struct {
	mu sync.Mutex

	filesWritten      map[string]bool
	varsSubstituted   map[string]bool
	varsMissing       map[string]bool
	sectionsExtracted map[string]bool
	warnings          []string
	errors            []string
}

// New creates an empty report for a run.
func New() *Report {
	return &Report{
		filesWritten:      make(map[string]bool),
		varsSubstituted:   make(map[string]bool),
		varsMissing:       make(map[string]bool),
		sectionsExtracted: make(map[string]bool),
	}
}

// RecordFile records an output path written during the run.
func (r *Report) RecordFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filesWritten[path] = true
}

// RecordVariable records a variable substitution attempt. Resolved
// variables land in the substituted set, unresolved ones in the missing
// set.
func (r *Report) RecordVariable(key string, resolved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resolved {
		r.varsSubstituted[key] = true
	} else {
		r.varsMissing[key] = true
	}
}

// RecordSectionExtracted records a document#section key actually pulled
// via section extraction.
func (r *Report) RecordSectionExtracted(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sectionsExtracted[key] = true
}

// RecordWarning appends a warning. Warnings never fail the run.
func (r *Report) RecordWarning(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}

// RecordError appends a hard error. Any recorded error fails the run.
func (r *Report) RecordError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// HasErrors reports whether any hard error was recorded.
func (r *Report) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors) > 0
}

// Summary is the serializable snapshot of a finished run.
type Summary struct {
	FilesWritten      []string `json:"files_written"`
	VariablesResolved []string `json:"variables_resolved"`
	VariablesMissing  []string `json:"variables_missing"`
	SectionsExtracted []string `json:"sections_extracted"`
	Warnings          []string `json:"warnings"`
	Errors            []string `json:"errors"`
	Success           bool     `json:"success"`
}

// Summary returns a sorted, stable snapshot of the report.
func (r *Report) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		FilesWritten:      sortedKeys(r.filesWritten),
		VariablesResolved: sortedKeys(r.varsSubstituted),
		VariablesMissing:  sortedKeys(r.varsMissing),
		SectionsExtracted: sortedKeys(r.sectionsExtracted),
		Warnings:          append([]string(nil), r.warnings...),
		Errors:            append([]string(nil), r.errors...),
	}
	s.Success = len(s.Errors) == 0
	return s
}

// MarshalJSON serializes the report as its summary.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Summary())
}

// VariablesMissing returns the sorted set of unresolved variable keys.
func (r *Report) VariablesMissing() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.varsMissing)
}

// Warnings returns a copy of the recorded warnings.
func (r *Report) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// Errors returns a copy of the recorded errors.
func (r *Report) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
