// Package logging assembles the structured slog loggers used by movcompress.
//
// Console output is a compact key=value format (or JSON) on stderr, and an
// optional log file always receives JSON. Context helpers tag records with the
// run ID and orchestrator stage so a whole run can be followed in the log file.
package logging
