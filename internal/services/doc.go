// Package services defines shared utilities consumed by the compression
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the input path for
//     logging.
//   - Structured error markers plus the Wrap helper so the CLI can tell probe
//     failures, launch failures, and encoder failures apart and pick an exit
//     code.
//
// The ffmpeg subpackage holds the process runner that drives the encoder.
package services
