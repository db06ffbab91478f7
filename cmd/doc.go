// Package cmd implements the command-line interface for inboxtally.
//
// This package provides the following commands:
//   - classify: Classify recent Gmail messages and print a tally chart
//   - watch: Repeat the classify batch on an interval and serve Prometheus metrics
//   - version: Display version information
//
// The classify command is the default command when no subcommand is specified.
package cmd
