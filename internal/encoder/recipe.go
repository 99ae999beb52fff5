// Package encoder turns a local input into per-resolution mp4 outputs with
// burned subtitles and an optional watermark, in CRF, two-pass, or hybrid
// mode, emitting duration-relative progress.
package encoder

import "strings"

// Mode selects the rate-control strategy.
type Mode string

const (
	ModeCRF     Mode = "crf"
	ModeTwoPass Mode = "2pass"
	ModeHybrid  Mode = "mixed" // two-pass for 360p, CRF for the rest
)

// AudioProfile selects the audio codec family.
type AudioProfile string

const (
	AudioHE AudioProfile = "he"  // HE-AAC v2
	AudioLC AudioProfile = "aac" // AAC-LC
)

// Resolutions in encode order, smallest first.
var ResolutionOrder = []string{"360p", "480p", "720p", "1080p"}

// Per-resolution constants.
var (
	heights = map[string]int{
		"360p": 360, "480p": 480, "720p": 720, "1080p": 1080,
	}
	twoPassVideoBitrate = map[string]string{
		"360p": "300k", "480p": "540k", "720p": "850k", "1080p": "2100k",
	}
	heAudioBitrate = map[string]string{
		"360p": "40k", "480p": "48k", "720p": "112k", "1080p": "128k",
	}
	lcAudioBitrate = map[string]string{
		"360p": "64k", "480p": "96k", "720p": "128k", "1080p": "160k",
	}
	watermarkFontSize = map[string]int{
		"360p": 14, "480p": 18, "720p": 24, "1080p": 30,
	}
)

// KnownResolution reports whether res is one of the four targets.
func KnownResolution(res string) bool {
	_, ok := heights[res]
	return ok
}

// SortResolutions orders a set of resolutions smallest first, dropping
// unknown entries.
func SortResolutions(in []string) []string {
	seen := make(map[string]bool, len(in))
	for _, r := range in {
		seen[r] = true
	}
	var out []string
	for _, r := range ResolutionOrder {
		if seen[r] {
			out = append(out, r)
		}
	}
	return out
}

// Style is the burned-subtitle style.
type Style struct {
	FontName string
	FontSize int
	MarginV  int
	Bold     bool
}

// Watermark is the optional on-screen text overlay.
type Watermark struct {
	Enabled  bool
	Text     string
	FontPath string
	Duration int // seconds the overlay stays on screen
}

// Recipe captures every encode parameter of a job, by value.
type Recipe struct {
	Resolutions  []string
	ResCRF       map[string]string // per-resolution CRF override
	CRF          string            // fallback CRF
	Mode         Mode
	Audio        AudioProfile
	VideoBitrate string // two-pass bitrate override; empty uses the ladder
	Style        Style
	Watermark    Watermark
}

// BitrateFor returns the two-pass video bitrate for a resolution.
func (r Recipe) BitrateFor(res string) string {
	if r.VideoBitrate != "" {
		return r.VideoBitrate
	}
	return twoPassVideoBitrate[res]
}

// CRFFor returns the CRF value for a resolution.
func (r Recipe) CRFFor(res string) string {
	if v, ok := r.ResCRF[res]; ok && v != "" {
		return v
	}
	if r.CRF != "" {
		return r.CRF
	}
	return "26"
}

// TwoPassFor reports whether res is encoded with two passes under the
// recipe's mode. Hybrid means two-pass for 360p only; an explicit two-pass
// recipe is honoured for every resolution.
func (r Recipe) TwoPassFor(res string) bool {
	switch r.Mode {
	case ModeTwoPass:
		return true
	case ModeHybrid:
		return res == "360p"
	default:
		return false
	}
}

// audioArgs returns the codec and bitrate arguments for a resolution.
func (r Recipe) audioArgs(res string) []string {
	if r.Audio == AudioHE {
		return []string{
			"-c:a", "libfdk_aac",
			"-profile:a", "aac_he_v2",
			"-ac", "2",
			"-b:a", heAudioBitrate[res],
		}
	}
	return []string{
		"-c:a", "aac",
		"-ac", "2",
		"-b:a", lcAudioBitrate[res],
	}
}

// ParseAudio normalises user input to an AudioProfile.
func ParseAudio(s string) AudioProfile {
	if strings.EqualFold(s, "he") {
		return AudioHE
	}
	return AudioLC
}

// ParseMode normalises user input to a Mode.
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "2pass", "twopass":
		return ModeTwoPass
	case "mixed", "hybrid":
		return ModeHybrid
	default:
		return ModeCRF
	}
}
