// Command movcompress re-encodes a MOV file into a smaller copy using ffmpeg.
//
//	movcompress [--high-compression] [--two-pass] [--large] <input.mov>
//
// The output is written next to the input with the configured suffix. The
// process exits 0 on success, 1 on failure, and 130 when interrupted.
package main
