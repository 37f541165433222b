package settings

import (
	"fmt"
	"strings"
)

// Preset is a one-shot layout that fills geometry and size fields.
type Preset struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	RatioW   int    `json:"ratio_w"`
	RatioH   int    `json:"ratio_h"`
	LongSide int    `json:"long_side"`
	MinKB    int    `json:"min_kb"`
	MaxKB    int    `json:"max_kb"`
	Quality  int    `json:"quality"`
}

var Presets = []Preset{
	{Name: "ig-portrait", Label: "Instagram Feed (Portrait 4:5, 1080x1350)", RatioW: 4, RatioH: 5, LongSide: 1350, MaxKB: 900, Quality: 10},
	{Name: "ig-landscape", Label: "Instagram Feed (Landscape 5:4, 1350x1080)", RatioW: 5, RatioH: 4, LongSide: 1080, MaxKB: 900, Quality: 10},
	{Name: "ig-square", Label: "Instagram Square (1:1, 1080x1080)", RatioW: 1, RatioH: 1, LongSide: 1080, MaxKB: 900, Quality: 10},
	{Name: "ig-story", Label: "Instagram Story/Reel (9:16, 1080x1920)", RatioW: 9, RatioH: 16, LongSide: 1920, MaxKB: 1200, Quality: 10},
}

// RatioPresets are the aspect choices offered by the configure form.
var RatioPresets = []string{"4:5", "5:4", "1:1", "9:16", "16:9", RatioCustom}

const RatioCustom = "custom"

func FindPreset(name string) (Preset, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Presets {
		if p.Name == n {
			return p, true
		}
	}
	return Preset{}, false
}

// Apply overwrites the preset's fields and re-enables ratio enforcement.
func (p Preset) Apply(s *Settings) {
	s.Options.RatioW = p.RatioW
	s.Options.RatioH = p.RatioH
	s.Options.LongSide = p.LongSide
	s.Options.MinKB = p.MinKB
	s.Options.MaxKB = p.MaxKB
	s.Options.Quality = p.Quality
	s.Options.IgnoreRatio = false
	s.RatioPreset = RatioPresetFor(p.RatioW, p.RatioH)
}

// RatioPresetFor names the aspect preset matching w:h, or "custom".
func RatioPresetFor(w, h int) string {
	label := fmt.Sprintf("%d:%d", w, h)
	for _, r := range RatioPresets {
		if r == label {
			return r
		}
	}
	return RatioCustom
}

// ParseRatio reads "W:H" into its two positive parts.
func ParseRatio(raw string) (int, int, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, 0, fmt.Errorf("ratio must look like W:H, got %q", raw)
	}
	w, err := parsePositive(left)
	if err != nil {
		return 0, 0, fmt.Errorf("ratio width: %w", err)
	}
	h, err := parsePositive(right)
	if err != nil {
		return 0, 0, fmt.Errorf("ratio height: %w", err)
	}
	return w, h, nil
}

func parsePositive(raw string) (int, error) {
	return parseIntRange(raw, 1, 1<<20)
}
