// Package report renders stored audit reports for terminals and files.
//
// JSON is the same document the HTTP API serves. YAML keeps the JSON field
// names and order. Markdown is a human summary: scores, priorities and the
// main heuristic signals as tables.
package report
