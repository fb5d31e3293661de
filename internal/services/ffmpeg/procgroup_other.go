//go:build !unix

package ffmpeg

import "os/exec"

func startInGroup(*exec.Cmd) {}

func reapGroup(*exec.Cmd) {}
