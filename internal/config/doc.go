// Package config loads, normalizes, and validates movcompress configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours MOVCOMPRESS_FFMPEG / MOVCOMPRESS_FFPROBE overrides.
// A missing config file is normal; the defaults describe a working setup
// whenever ffmpeg and ffprobe are on PATH.
package config
