// Package ffmpeg runs the encoder as a subprocess.
//
// Runner merges stdout and stderr into one stream, splits it on newlines and
// carriage returns, and hands each line to a callback while keeping the tail
// for error reports. The encoder runs in its own process group so an
// interrupt stops it together with anything it spawned.
package ffmpeg
