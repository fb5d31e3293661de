package encoding

import "fmt"

// ProfileName identifies a compression profile.
type ProfileName string

const (
	ProfileStandard ProfileName = "standard"
	ProfileHigh     ProfileName = "high"
)

// Profile holds the encoder settings for one size/quality tradeoff.
type Profile struct {
	Name ProfileName
	// CRF is the x264 constant rate factor used for single-pass encodes.
	CRF    int
	Preset string
	// AudioBitrate is passed to the AAC encoder, e.g. "128k".
	AudioBitrate string
	// MaxHeight caps the output height; zero leaves the resolution alone.
	MaxHeight int
	// TwoPassBitrate is the average video bitrate targeted by two-pass
	// encodes, which cannot use CRF.
	TwoPassBitrate string
}

const (
	videoCodec = "libx264"
	audioCodec = "aac"
)

// Standard keeps quality close to the source at a moderate speed.
var Standard = Profile{
	Name:           ProfileStandard,
	CRF:            23,
	Preset:         "medium",
	AudioBitrate:   "128k",
	TwoPassBitrate: "2500k",
}

// High trades encode time and resolution for a much smaller file.
var High = Profile{
	Name:           ProfileHigh,
	CRF:            30,
	Preset:         "veryslow",
	AudioBitrate:   "64k",
	MaxHeight:      720,
	TwoPassBitrate: "1000k",
}

// ProfileFor returns High when high is set and Standard otherwise.
func ProfileFor(high bool) Profile {
	if high {
		return High
	}
	return Standard
}

// ScaleFilter returns the -vf expression that limits the height to MaxHeight
// without upscaling smaller sources, or "" when the profile does not scale.
// Width follows the aspect ratio and is kept even for the encoder.
func (p Profile) ScaleFilter() string {
	if p.MaxHeight <= 0 {
		return ""
	}
	return fmt.Sprintf("scale=-2:'min(%d,ih)'", p.MaxHeight)
}

func (p Profile) String() string {
	return string(p.Name)
}
