// Package preflight checks the filesystem before an encode starts.
//
// A missing or read-only output directory fails the run up front instead of
// after ffmpeg has spent minutes encoding. Low free space is only reported as
// a warning.
package preflight
