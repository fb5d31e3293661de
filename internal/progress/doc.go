// Package progress turns ffmpeg's free-form status output into a progress
// display.
//
// ParsePosition pulls the timeline position out of a line and ignores
// anything it cannot read. Reporter turns positions into a single redrawn bar
// (schollz/progressbar) when the probed duration is known, or a spinner with
// the encoded position when it is not. Without a terminal it logs sampled
// progress instead.
package progress
