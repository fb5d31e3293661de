// Package encoding turns a MOV file into a smaller H.264/AAC copy next to it.
//
// A Compressor walks a fixed state machine: probe the duration, run one CRF
// pass or two bitrate-targeted passes through ffmpeg, then report the size
// difference. Profiles decide the encoder settings and BuildArgs renders them
// into an argument list. Every failure leaves the run in StateFailed with the
// partial output and pass logs removed, and the returned error carries the
// services marker for the stage that failed.
package encoding
