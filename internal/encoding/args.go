package encoding

import (
	"os"
	"strconv"
)

// Pass selects which encoder invocation BuildArgs produces.
type Pass int

const (
	// PassSingle is a one-shot CRF encode.
	PassSingle Pass = iota
	// PassAnalysis is the first of two passes. It writes rate-control
	// statistics and discards the video.
	PassAnalysis
	// PassFinal is the second of two passes and produces the output file.
	PassFinal
)

func (p Pass) String() string {
	switch p {
	case PassAnalysis:
		return "pass 1"
	case PassFinal:
		return "pass 2"
	default:
		return "single pass"
	}
}

// progressLabel is the text shown in front of the progress bar.
func (p Pass) progressLabel() string {
	switch p {
	case PassAnalysis:
		return "pass 1/2"
	case PassFinal:
		return "pass 2/2"
	default:
		return "encoding"
	}
}

// BuildArgs returns the ffmpeg arguments (without the binary) for one pass of
// job. passLogPrefix is where two-pass statistics are written and read; it is
// ignored for single-pass jobs. A job without TwoPass always gets single-pass
// arguments regardless of pass.
func BuildArgs(job Job, pass Pass, passLogPrefix string) []string {
	if !job.TwoPass {
		pass = PassSingle
	}
	p := job.Profile

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", "error",
		"-stats",
		"-i", job.InputPath,
		"-c:v", videoCodec,
		"-preset", p.Preset,
	}
	if filter := p.ScaleFilter(); filter != "" {
		args = append(args, "-vf", filter)
	}

	switch pass {
	case PassAnalysis:
		return append(args,
			"-b:v", p.TwoPassBitrate,
			"-pass", "1",
			"-passlogfile", passLogPrefix,
			"-an",
			"-f", "null",
			os.DevNull,
		)
	case PassFinal:
		args = append(args,
			"-b:v", p.TwoPassBitrate,
			"-pass", "2",
			"-passlogfile", passLogPrefix,
		)
	default:
		args = append(args, "-crf", strconv.Itoa(p.CRF))
	}

	return append(args,
		"-c:a", audioCodec,
		"-b:a", p.AudioBitrate,
		"-movflags", "+faststart",
		job.OutputPath,
	)
}
