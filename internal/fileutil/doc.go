// Package fileutil contains the path comparison and cleanup helpers the
// compressor relies on to never overwrite its input and never leave partial
// files behind.
package fileutil
