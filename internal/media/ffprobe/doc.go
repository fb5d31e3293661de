// Package ffprobe wraps ffprobe's JSON output.
//
// Inspect runs ffprobe and decodes streams and format metadata. Prober builds
// on it to answer the one question the compressor asks: how long is this
// file. Probe failures carry the services.ErrProbe marker.
package ffprobe
